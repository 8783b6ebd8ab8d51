package trigger

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"lorekeeper/app/config"

	"github.com/samber/do"
)

var (
	// ErrBusy means a cycle is already in flight; the trigger was dropped.
	ErrBusy = errors.New("memory update already in progress")
	// ErrDisabled means automatic memory updates are switched off.
	ErrDisabled = errors.New("memory updates are disabled")
)

// Cycle runs one complete summarize-diff-persist sequence.
type Cycle func(ctx context.Context) error

// Service counts chat messages and fires the cycle when the configured
// threshold is reached. At most one cycle runs at a time: triggers that
// arrive while a cycle is in flight are dropped, not queued, so they do
// not contribute to the next counter window either. The counter resets
// to zero exactly once per completed cycle, success or failure.
type Service struct {
	cfg *config.Config

	mu       sync.Mutex
	cycle    Cycle
	counter  int
	inFlight bool
}

func New(di *do.Injector) (*Service, error) {
	return &Service{
		cfg: do.MustInvoke[*config.Config](di),
	}, nil
}

func (s *Service) SetCycle(cycle Cycle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cycle = cycle
}

// OnMessage registers one sent chat message. When the counter reaches
// the threshold the cycle starts in the background.
func (s *Service) OnMessage(ctx context.Context) {
	if s.cfg.Plugin.Disabled {
		return
	}

	s.mu.Lock()
	if s.inFlight || s.cycle == nil {
		s.mu.Unlock()
		return
	}

	s.counter++
	if s.counter < s.cfg.Plugin.MessagesBeforeSummarize {
		s.mu.Unlock()
		return
	}

	s.inFlight = true
	cycle := s.cycle
	s.mu.Unlock()

	go func() {
		if err := s.runCycle(ctx, cycle); err != nil {
			slog.Error("Memory update cycle failed", "error", err, "telegram", true)
		}
	}()
}

// Force sets the counter to the threshold and runs the cycle
// synchronously. Returns ErrBusy when a cycle is already in flight and
// ErrDisabled when the plugin is switched off.
func (s *Service) Force(ctx context.Context) error {
	if s.cfg.Plugin.Disabled {
		return ErrDisabled
	}

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.cycle == nil {
		s.mu.Unlock()
		return errors.New("no cycle registered")
	}

	s.counter = s.cfg.Plugin.MessagesBeforeSummarize
	s.inFlight = true
	cycle := s.cycle
	s.mu.Unlock()

	return s.runCycle(ctx, cycle)
}

func (s *Service) runCycle(ctx context.Context, cycle Cycle) error {
	defer func() {
		s.mu.Lock()
		s.counter = 0
		s.inFlight = false
		s.mu.Unlock()
	}()

	return cycle(ctx)
}

// Counter returns the number of messages seen since the last cycle.
func (s *Service) Counter() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.counter
}

// InFlight reports whether a cycle is currently running.
func (s *Service) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inFlight
}
