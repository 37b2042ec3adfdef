package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"timerdeck/internal"
	"timerdeck/internal/config"
	"timerdeck/internal/history"
	"timerdeck/internal/manager"
	"timerdeck/internal/notify"
	"timerdeck/internal/store"
	"timerdeck/internal/timer"
)

const appName = "timerdeck"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(appName)
	if err != nil {
		return err
	}

	logger, closeLog, err := openLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	repo, err := store.NewRepository(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer repo.Close()

	bus := notify.NewBroadcaster()
	defer bus.Close()
	warn := func(err error) {
		bus.Notify(timer.Event{Type: timer.EventWarning, Message: err.Error(), At: time.Now()})
	}

	sink := history.NewAsyncSink(repo, cfg.HistoryQueue, func(entry history.Entry, err error) {
		logger.Error("history write failed", "timer", entry.ID, "err", err)
		warn(fmt.Errorf("%w: %q: %w", timer.ErrPersistence, entry.Name, err))
	})
	defer sink.Close()

	notifiers := notify.Multi{bus, notify.NewLogNotifier(logger)}
	if cfg.SoundEnabled {
		if sound, err := notify.NewSound(cfg.SoundVolume); err != nil {
			logger.Warn("sound disabled", "err", err)
		} else {
			notifiers = append(notifiers, sound)
		}
	}

	mgr := manager.New(cfg.Categories, manager.Options{
		Notifier:  notifiers,
		History:   sink,
		Logger:    logger,
		OnFailure: warn,
	})
	defer mgr.Close()

	records, err := repo.LoadAll()
	if err != nil {
		return fmt.Errorf("failed to load timers: %w", err)
	}
	if err := mgr.Load(records); err != nil {
		return fmt.Errorf("failed to load timers: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go mgr.Run(ctx, time.Second)

	m := internal.NewModel(mgr, repo, bus.Subscribe(16))
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.Send(internal.MsgTick{})
			}
		}
	}()

	logger.Info("started", "timers", mgr.Len(), "db", cfg.DatabasePath)
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}

func openLogger(cfg config.Config) (*log.Logger, func(), error) {
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	logger := log.NewWithOptions(f, log.Options{
		ReportTimestamp: true,
		Prefix:          appName,
	})
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warn("unknown log level, using info", "level", cfg.LogLevel)
	}
	return logger, func() { f.Close() }, nil
}
