package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"lorekeeper/app/client/host"
	"lorekeeper/app/config"
	"lorekeeper/app/service/notes"
	"lorekeeper/app/service/summarizer"
	"lorekeeper/app/service/trigger"

	"github.com/samber/do"
)

type hostAPI interface {
	Session(ctx context.Context) (*host.SessionInfo, error)
	History(ctx context.Context, limit int) ([]host.Message, error)
	Character(ctx context.Context, id string) (*host.Character, error)
	Notify(ctx context.Context, level, message string) error
}

type summaryAPI interface {
	Summarize(ctx context.Context, messages []host.Message, characterName, userName string) (string, error)
}

type notesAPI interface {
	Apply(ctx context.Context, characterID, block string) error
}

// Service owns the memory update cycle and wires the host event stream
// to the trigger policy.
type Service struct {
	cfg           *config.Config
	hostClient    hostAPI
	events        *host.EventStream
	summarizerSvc summaryAPI
	notesSvc      notesAPI
	triggerSvc    *trigger.Service
}

func New(di *do.Injector) (*Service, error) {
	s := &Service{
		cfg:           do.MustInvoke[*config.Config](di),
		hostClient:    do.MustInvoke[*host.Client](di),
		events:        do.MustInvoke[*host.EventStream](di),
		summarizerSvc: do.MustInvoke[*summarizer.Service](di),
		notesSvc:      do.MustInvoke[*notes.Service](di),
		triggerSvc:    do.MustInvoke[*trigger.Service](di),
	}

	s.triggerSvc.SetCycle(s.RunCycle)

	return s, nil
}

// Run subscribes to the host event stream and blocks until ctx is
// cancelled.
func (s *Service) Run(ctx context.Context) error {
	s.events.SetHandler(func(event host.Event) {
		if event.Type != host.EventMessageSent {
			return
		}

		s.triggerSvc.OnMessage(ctx)
	})

	return s.events.Listen(ctx)
}

// RunCycle performs one summarize-diff-persist sequence. Errors are
// surfaced as a single host notification and returned to the caller.
func (s *Service) RunCycle(ctx context.Context) error {
	start := time.Now()

	if err := s.runCycle(ctx); err != nil {
		s.notify(ctx, host.NotifyError, "Memory update failed: "+err.Error())
		return err
	}

	slog.Info("Memory update cycle finished", "duration", time.Since(start))

	return nil
}

func (s *Service) runCycle(ctx context.Context) error {
	session, err := s.hostClient.Session(ctx)
	if err != nil {
		return fmt.Errorf("hostClient.Session: %w", err)
	}

	messages, err := s.hostClient.History(ctx, s.cfg.Plugin.MessagesBeforeSummarize)
	if err != nil {
		return fmt.Errorf("hostClient.History: %w", err)
	}

	if len(messages) == 0 {
		slog.Debug("No chat history, skipping memory update")
		return nil
	}

	summary, err := s.summarizerSvc.Summarize(ctx, messages, session.CharacterName, session.UserName)
	if err != nil {
		return fmt.Errorf("summarizerSvc.Summarize: %w", err)
	}

	character, err := s.hostClient.Character(ctx, session.CharacterID)
	if err != nil {
		return fmt.Errorf("hostClient.Character: %w", err)
	}

	block, found := notes.FindNewInformation(summary, character.Notes, session.Persona, !s.cfg.Plugin.SkipPersonaCheck)
	if !found {
		slog.Info("No new information in summary", "character", session.CharacterName)
		s.notify(ctx, host.NotifyInfo, "Memory update: nothing new to record.")
		return nil
	}

	if err = s.notesSvc.Apply(ctx, session.CharacterID, block); err != nil {
		return fmt.Errorf("notesSvc.Apply: %w", err)
	}

	s.notify(ctx, host.NotifySuccess, "Memory updated for "+session.CharacterName+".")

	return nil
}

func (s *Service) notify(ctx context.Context, level, message string) {
	if s.cfg.Plugin.DisableNotifications {
		slog.Info("Notification suppressed", "level", level, "message", message)
		return
	}

	if err := s.hostClient.Notify(ctx, level, message); err != nil {
		slog.Warn("Failed to notify host", "error", err)
	}
}
