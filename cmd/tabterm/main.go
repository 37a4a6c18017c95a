package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/user/tabterm/internal/app"
	"github.com/user/tabterm/internal/config"
	"github.com/user/tabterm/internal/db"
	"github.com/user/tabterm/internal/hub"
	"github.com/user/tabterm/internal/server"
	"github.com/user/tabterm/internal/session"
	"github.com/user/tabterm/internal/term"
	"github.com/user/tabterm/internal/theme"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.PrintToken {
		fmt.Printf("\ntabterm running at http://localhost:%d?token=%s\n\n", cfg.Port, cfg.Token)
	}

	if err := run(cfg); err != nil {
		slog.Error("tabterm exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	themes, err := theme.NewRegistry(cfg.ThemesDir)
	if err != nil {
		return fmt.Errorf("load themes: %w", err)
	}

	var history *db.TabRepo
	database, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		slog.Warn("tab history disabled", "error", err)
	} else {
		defer database.Close()
		history = db.NewTabRepo(database.SQL())
		if n, err := history.CloseStale(ctx); err != nil {
			slog.Warn("failed to reconcile tab history", "error", err)
		} else if n > 0 {
			slog.Info("closed stale tab history rows", "count", n)
		}
	}

	command, err := cfg.Command()
	if err != nil {
		return err
	}
	spawn := func(id string, events chan<- term.Envelope, palette theme.Palette) (app.Terminal, error) {
		return session.New(id, events, session.Config{
			Command: command,
			Env:     []string{"TERM=" + cfg.Term},
			Cols:    uint16(cfg.Cols),
			Rows:    uint16(cfg.Rows),
		}, palette)
	}

	h := hub.New(cfg.Token)
	a := app.New(cfg, themes, spawn, h, history)
	h.Bind(a, a)

	go h.Run(ctx)
	go func() {
		if err := themes.Watch(ctx); err != nil {
			slog.Warn("theme watcher stopped", "error", err)
		}
	}()

	// Closing the last tab is the window-close signal: shut the whole
	// process down.
	srvCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	appDone := make(chan struct{})
	go func() {
		a.Run(ctx)
		close(appDone)
	}()
	go func() {
		select {
		case <-a.Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	err = server.New(cfg, h).Start(srvCtx)
	stop()
	<-appDone
	return err
}
