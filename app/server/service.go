package server

import (
	"context"
	"errors"
	"log/slog"

	"lorekeeper/app/config"
	"lorekeeper/app/service/trigger"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/do"
)

// Service exposes the on-demand memory update command and a health
// probe over HTTP.
type Service struct {
	cfg        *config.Config
	app        *fiber.App
	triggerSvc *trigger.Service
}

func New(di *do.Injector) (*Service, error) {
	s := &Service{
		cfg:        do.MustInvoke[*config.Config](di),
		triggerSvc: do.MustInvoke[*trigger.Service](di),
	}

	s.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s.app.Post("/command/memoryupdate", s.handleMemoryUpdate)
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	return s, nil
}

func (s *Service) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()

		if err := s.app.Shutdown(); err != nil {
			slog.Warn("Server shutdown failed", "error", err)
		}
	}()

	slog.Info("Command server listening", "addr", s.cfg.Server.Listen)

	return s.app.Listen(s.cfg.Server.Listen)
}

func (s *Service) handleMemoryUpdate(c *fiber.Ctx) error {
	err := s.triggerSvc.Force(c.UserContext())

	switch {
	case errors.Is(err, trigger.ErrDisabled):
		return c.Status(fiber.StatusServiceUnavailable).SendString("Memory updates are disabled.")
	case errors.Is(err, trigger.ErrBusy):
		return c.Status(fiber.StatusConflict).SendString("Memory update already in progress.")
	case err != nil:
		return c.Status(fiber.StatusInternalServerError).SendString("Memory update failed: " + err.Error())
	}

	return c.SendString("Memory update complete.")
}
