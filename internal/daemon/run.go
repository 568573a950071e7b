package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"vellum/internal/broadcast"
	"vellum/internal/config"
	"vellum/internal/document"
	"vellum/internal/engine"
	"vellum/internal/jobs"
	"vellum/internal/logging"
	"vellum/internal/notifications"
	"vellum/internal/pipeline"
	"vellum/internal/store"
)

// Run wires the full daemon process and blocks until SIGINT/SIGTERM or the
// parent context ends.
func Run(cmdCtx context.Context, cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("prepare directories: %w", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	pidPath := filepath.Join(cfg.Paths.LogDir, "vellumd.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	st, err := store.Open(cfg)
	if err != nil {
		logger.Error("open job store", logging.Error(err))
		return err
	}

	throttle := time.Duration(cfg.Broadcast.ProgressThrottleMillis) * time.Millisecond
	broadcaster := broadcast.New(throttle, logger)
	notifier := notifications.NewService(cfg)
	converter := engine.NewCLI(engine.WithBinary(cfg.Engine.Binary))
	extractor := document.NewPopplerExtractor(cfg.Engine.InfoBinary, cfg.Engine.ExtractBinary)
	runner := pipeline.New(converter, extractor, cfg, logger)
	manager := jobs.New(cfg, st, broadcaster, notifier, runner, logger)

	d, err := New(cfg, st, manager, logger)
	if err != nil {
		st.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logger.Error("daemon start failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check configuration, engine binaries, and directory permissions"),
		)
		return err
	}

	<-signalCtx.Done()
	logger.Info("vellum daemon shutting down")
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
