package main

import (
	"context"
	"errors"
	"log/slog"
	"lorekeeper/app/client/host"
	"lorekeeper/app/client/llm"
	"lorekeeper/app/config"
	"lorekeeper/app/server"
	"lorekeeper/app/service/engine"
	"lorekeeper/app/service/notes"
	"lorekeeper/app/service/summarizer"
	"lorekeeper/app/service/trigger"
	"lorekeeper/app/util/mylog"
	"os"
	"os/signal"

	"github.com/gofiber/fiber/v2/log"
	"github.com/samber/do"
	"golang.org/x/sync/errgroup"
)

func main() {
	di := do.New()
	defer di.Shutdown()
	defer log.Info("Waiting for services to finish...")

	mylog.Preinit()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	do.ProvideValue(di, appCtx)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	do.ProvideValue(di, cfg)

	if err = mylog.Init(cfg); err != nil {
		log.Fatalf("logging init failed: %v", err)
	}

	do.Provide(di, host.NewClient)
	do.Provide(di, host.NewEventStream)
	do.Provide(di, llm.NewClient)
	do.Provide(di, summarizer.New)
	do.Provide(di, notes.New)
	do.Provide(di, trigger.New)
	do.Provide(di, engine.New)
	do.Provide(di, server.New)

	slog.Info("Service started")

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt)
		<-sigint

		log.Info("Shutting down...")

		cancel()
	}()

	group, groupCtx := errgroup.WithContext(appCtx)

	group.Go(func() error {
		return do.MustInvoke[*engine.Service](di).Run(groupCtx)
	})
	group.Go(func() error {
		return do.MustInvoke[*server.Service](di).Run(groupCtx)
	})

	if err = group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Service stopped with error", "error", err)
	}
}
