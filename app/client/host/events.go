package host

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"lorekeeper/app/config"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/samber/do"
)

const reconnectDelay = 5 * time.Second

type EventHandler func(event Event)

// EventStream subscribes to the host event websocket and dispatches
// incoming events to a registered handler.
type EventStream struct {
	cfg *config.Config

	mu      sync.RWMutex
	handler EventHandler
}

func NewEventStream(di *do.Injector) (*EventStream, error) {
	return &EventStream{
		cfg: do.MustInvoke[*config.Config](di),
	}, nil
}

func (s *EventStream) SetHandler(handler EventHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.handler = handler
}

// Listen connects to the host event stream and reconnects on failure
// until ctx is cancelled.
func (s *EventStream) Listen(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := s.listenOnce(ctx); err != nil {
			slog.Error("Event stream disconnected", "error", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
}

func (s *EventStream) listenOnce(ctx context.Context) error {
	opts := &websocket.DialOptions{}
	if s.cfg.Host.APIKey != "" {
		opts.HTTPHeader = http.Header{
			"Authorization": []string{"Bearer " + s.cfg.Host.APIKey},
		}
	}

	conn, _, err := websocket.Dial(ctx, s.eventsURL(), opts)
	if err != nil {
		return err
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	slog.Info("Connected to host event stream")

	for {
		var event Event
		if err = wsjson.Read(ctx, conn, &event); err != nil {
			return err
		}

		s.mu.RLock()
		handler := s.handler
		s.mu.RUnlock()

		if handler == nil {
			continue
		}

		handler(event)
	}
}

func (s *EventStream) eventsURL() string {
	base := s.cfg.Host.BaseURL
	base = strings.Replace(base, "https://", "wss://", 1)
	base = strings.Replace(base, "http://", "ws://", 1)

	return base + "/api/events"
}
