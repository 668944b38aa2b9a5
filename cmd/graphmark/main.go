package main

import (
	"context"
	"fmt"
	"os"

	"github.com/benbjohnson/clock"

	"github.com/rdelaney/graphmark/internal/api"
	"github.com/rdelaney/graphmark/internal/config"
	"github.com/rdelaney/graphmark/internal/coordinator"
	"github.com/rdelaney/graphmark/internal/runner"
	"github.com/rdelaney/graphmark/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "graphmark: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	logger := config.NewLogger(os.Stdout, cfg.LogLevel)

	logger.Info("starting graphmark",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"op_timeout", cfg.OpTimeout.String(),
		"container", cfg.Container,
		"runner_url", cfg.RunnerURL,
	)

	st, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	var aborter coordinator.Aborter
	if cfg.Container != "" {
		aborter = runner.NewDockerStopper(cfg.Container, logger)
	} else {
		logger.Warn("no container configured, deadline expiries are log-only")
		aborter = coordinator.AbortFunc(func(context.Context, coordinator.SubtaskState) error {
			return nil
		})
	}
	coord := coordinator.New(aborter, cfg.OpTimeout, clock.New(), logger)

	client := runner.NewClient(cfg.RunnerURL, logger)
	srv := api.NewServer(cfg.ListenAddr, st, coord, client, cfg.CallbackURL, logger)
	return srv.Run()
}
