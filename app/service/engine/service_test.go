package engine

import (
	"context"
	"errors"
	"testing"

	"lorekeeper/app/client/host"
	"lorekeeper/app/config"

	"github.com/stretchr/testify/require"
)

type fakeHostAPI struct {
	session    *host.SessionInfo
	sessionErr error
	messages   []host.Message
	historyErr error
	character  *host.Character

	notifications []string
	levels        []string
}

func (f *fakeHostAPI) Session(context.Context) (*host.SessionInfo, error) {
	return f.session, f.sessionErr
}

func (f *fakeHostAPI) History(context.Context, int) ([]host.Message, error) {
	return f.messages, f.historyErr
}

func (f *fakeHostAPI) Character(context.Context, string) (*host.Character, error) {
	return f.character, nil
}

func (f *fakeHostAPI) Notify(_ context.Context, level, message string) error {
	f.levels = append(f.levels, level)
	f.notifications = append(f.notifications, message)
	return nil
}

type fakeSummaryAPI struct {
	summary string
	err     error
	calls   int
}

func (f *fakeSummaryAPI) Summarize(context.Context, []host.Message, string, string) (string, error) {
	f.calls++
	return f.summary, f.err
}

type fakeNotesAPI struct {
	characterID string
	block       string
	err         error
	calls       int
}

func (f *fakeNotesAPI) Apply(_ context.Context, characterID, block string) error {
	f.calls++
	f.characterID = characterID
	f.block = block
	return f.err
}

func newTestService(hostFake *fakeHostAPI, summaryFake *fakeSummaryAPI, notesFake *fakeNotesAPI) *Service {
	return &Service{
		cfg: &config.Config{
			Plugin: config.Plugin{MessagesBeforeSummarize: 20},
		},
		hostClient:    hostFake,
		summarizerSvc: summaryFake,
		notesSvc:      notesFake,
	}
}

func defaultHostFake() *fakeHostAPI {
	return &fakeHostAPI{
		session: &host.SessionInfo{
			CharacterID:   "char-1",
			CharacterName: "Zee",
			UserName:      "Al",
		},
		messages:  []host.Message{{Text: "hi"}, {IsCharacter: true, Text: "hello"}},
		character: &host.Character{ID: "char-1", Name: "Zee", Notes: "existing notes"},
	}
}

func TestRunCycle_PersistsNewInformation(t *testing.T) {
	hostFake := defaultHostFake()
	summaryFake := &fakeSummaryAPI{summary: "Al started a new job at the bakery."}
	notesFake := &fakeNotesAPI{}

	svc := newTestService(hostFake, summaryFake, notesFake)

	require.NoError(t, svc.RunCycle(context.Background()))
	require.Equal(t, 1, notesFake.calls)
	require.Equal(t, "char-1", notesFake.characterID)
	require.Contains(t, notesFake.block, "• Al started a new job at the bakery")
	require.Equal(t, []string{host.NotifySuccess}, hostFake.levels)
}

func TestRunCycle_NothingNew(t *testing.T) {
	hostFake := defaultHostFake()
	hostFake.character.Notes = "Al started a new job at the bakery."
	summaryFake := &fakeSummaryAPI{summary: "Al started a new job at the bakery."}
	notesFake := &fakeNotesAPI{}

	svc := newTestService(hostFake, summaryFake, notesFake)

	require.NoError(t, svc.RunCycle(context.Background()))
	require.Equal(t, 0, notesFake.calls)
	require.Equal(t, []string{host.NotifyInfo}, hostFake.levels)
}

func TestRunCycle_EmptyHistorySkips(t *testing.T) {
	hostFake := defaultHostFake()
	hostFake.messages = nil
	summaryFake := &fakeSummaryAPI{}
	notesFake := &fakeNotesAPI{}

	svc := newTestService(hostFake, summaryFake, notesFake)

	require.NoError(t, svc.RunCycle(context.Background()))
	require.Equal(t, 0, summaryFake.calls)
	require.Equal(t, 0, notesFake.calls)
	require.Empty(t, hostFake.levels)
}

func TestRunCycle_SummarizationFailureNotifiesOnce(t *testing.T) {
	hostFake := defaultHostFake()
	wantErr := errors.New("completion endpoint returned status 502")
	summaryFake := &fakeSummaryAPI{err: wantErr}
	notesFake := &fakeNotesAPI{}

	svc := newTestService(hostFake, summaryFake, notesFake)

	err := svc.RunCycle(context.Background())
	require.ErrorIs(t, err, wantErr)
	require.Equal(t, 0, notesFake.calls)
	require.Equal(t, []string{host.NotifyError}, hostFake.levels)
	require.Contains(t, hostFake.notifications[0], "Memory update failed")
}

func TestRunCycle_PersistenceFailureNotifies(t *testing.T) {
	hostFake := defaultHostFake()
	summaryFake := &fakeSummaryAPI{summary: "Al started a new job at the bakery."}
	wantErr := errors.New("save character: host returned status 500")
	notesFake := &fakeNotesAPI{err: wantErr}

	svc := newTestService(hostFake, summaryFake, notesFake)

	err := svc.RunCycle(context.Background())
	require.ErrorIs(t, err, wantErr)
	require.Equal(t, []string{host.NotifyError}, hostFake.levels)
}

func TestRunCycle_DisabledNotifications(t *testing.T) {
	hostFake := defaultHostFake()
	summaryFake := &fakeSummaryAPI{summary: "Al started a new job at the bakery."}
	notesFake := &fakeNotesAPI{}

	svc := newTestService(hostFake, summaryFake, notesFake)
	svc.cfg.Plugin.DisableNotifications = true

	require.NoError(t, svc.RunCycle(context.Background()))
	require.Equal(t, 1, notesFake.calls)
	require.Empty(t, hostFake.levels)
}

func TestRunCycle_PersonaSuppression(t *testing.T) {
	hostFake := defaultHostFake()
	hostFake.session.Persona = "Al is a retired sailor from Bergen."
	summaryFake := &fakeSummaryAPI{summary: "Al is a retired sailor from Bergen."}
	notesFake := &fakeNotesAPI{}

	svc := newTestService(hostFake, summaryFake, notesFake)

	require.NoError(t, svc.RunCycle(context.Background()))
	require.Equal(t, 0, notesFake.calls)

	// With the persona check switched off the same sentence is recorded.
	svc.cfg.Plugin.SkipPersonaCheck = true
	require.NoError(t, svc.RunCycle(context.Background()))
	require.Equal(t, 1, notesFake.calls)
}
