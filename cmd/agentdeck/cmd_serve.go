package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/user/agentdeck/internal/api"
	"github.com/user/agentdeck/internal/config"
	"github.com/user/agentdeck/internal/events"
	"github.com/user/agentdeck/internal/metrics"
	"github.com/user/agentdeck/internal/nlu"
	"github.com/user/agentdeck/internal/notify"
	"github.com/user/agentdeck/internal/orchestrator"
	"github.com/user/agentdeck/internal/scheduler"
	"github.com/user/agentdeck/internal/state"
	"github.com/user/agentdeck/internal/stream"
	"github.com/user/agentdeck/internal/telegram"
	"github.com/user/agentdeck/internal/types"
)

const (
	classifierCacheSize = 256
	toastHistory        = 50
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the agentdeck daemon",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "agentdeck.pid")
}

func writePIDFile(dataDir string) (string, error) {
	pidPath := pidFilePath(dataDir)
	pid := os.Getpid()
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(pid)+"\n"), 0644); err != nil {
		return "", fmt.Errorf("write PID file: %w", err)
	}
	return pidPath, nil
}

func metricsSource(cfg *config.Config, leads *state.LeadStore, tickets *state.TicketStore, inventory *state.InventoryStore) types.MetricsSource {
	if cfg.Metrics.URL != "" {
		return metrics.NewHTTPSource(cfg.Metrics.URL)
	}
	return metrics.NewLocalSource(leads, tickets, inventory, cfg.SLAPolicy())
}

func housekeepingJobs(cfg *config.Config, orch *orchestrator.Orchestrator) []scheduler.Job {
	return []scheduler.Job{
		scheduler.DrainJob(cfg.Tasks.DrainSchedule, cfg.Tasks.DrainLimit, orch),
		scheduler.CleanupJob(cfg.Tasks.CleanupSchedule, cfg.TaskMaxAge(), orch),
		scheduler.RefreshJob(cfg.Metrics.RefreshSchedule, orch),
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging(cfg)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	pidPath, err := writePIDFile(cfg.DataDir)
	if err != nil {
		return err
	}
	defer os.Remove(pidPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Stores
	bus := events.NewBus(cfg.HistorySize)
	leads := state.NewLeadStore(bus)
	tickets := state.NewTicketStore(bus)
	inventory := state.NewInventoryStore(bus)

	seed, err := state.LoadSeed(cfg.SeedPath)
	if err != nil {
		return fmt.Errorf("load seed: %w", err)
	}
	if err := seed.Apply(ctx, leads, tickets, inventory); err != nil {
		return fmt.Errorf("apply seed: %w", err)
	}

	// Toast delivery
	hub := stream.NewHub()
	go hub.Run(ctx)
	toasts := notify.NewFanout(toastHistory)
	toasts.Register("log", notify.LogSink)
	toasts.Register("stream", hub.Notify)

	orch := orchestrator.New(orchestrator.Options{
		Bus:           bus,
		Leads:         leads,
		Tickets:       tickets,
		Inventory:     inventory,
		Notifier:      toasts,
		MetricsSource: metricsSource(cfg, leads, tickets, inventory),
		Classifier:    nlu.NewClassifier(classifierCacheSize),
		Config: orchestrator.Config{
			MaxConcurrent: cfg.MaxConcurrent,
			TaskMaxAge:    cfg.TaskMaxAge(),
		},
	})
	latency := cfg.AgentLatency()
	orch.Lead.SetLatency(latency)
	orch.Support.SetLatency(latency)
	orch.Supply.SetLatency(latency)
	orch.Supply.SetSweepInterval(cfg.SweepInterval())

	hub.Attach(bus)
	if err := orch.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize orchestrator: %w", err)
	}
	defer orch.Shutdown()

	slog.Info("agentdeck started",
		"data_dir", cfg.DataDir,
		"log_level", cfg.LogLevel,
		"max_concurrent", cfg.MaxConcurrent,
		"leads", len(leads.List()),
		"tickets", len(tickets.List()),
		"inventory", len(inventory.List()),
		"pid_file", pidPath,
	)

	// Telegram adapter
	if cfg.Telegram.Token != "" {
		adapter, err := telegram.New(cfg.Telegram.Token, cfg.Telegram.ChatID, orch)
		if err != nil {
			return fmt.Errorf("create telegram adapter: %w", err)
		}
		go adapter.Start(ctx)
		if cfg.Telegram.ChatID != 0 {
			toasts.Register("telegram", adapter.Notify)
		}
		slog.Info("telegram adapter started", "chat_id", cfg.Telegram.ChatID)
	} else {
		slog.Warn("telegram adapter disabled (no token)")
	}

	// Scheduler
	sched := scheduler.New(housekeepingJobs(cfg, orch)...)
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()
	slog.Info("scheduler started", "jobs", sched.Entries())

	// Schedules, log level and orchestrator tunables follow config edits.
	go func() {
		err := config.Watch(ctx, cfgPath, 0, func(next *config.Config) {
			setupLogging(next)
			orch.UpdateConfig(orchestrator.Config{
				MaxConcurrent: next.MaxConcurrent,
				TaskMaxAge:    next.TaskMaxAge(),
			})
			if err := sched.Reload(housekeepingJobs(next, orch)...); err != nil {
				slog.Error("scheduler reload failed", "error", err)
			}
		})
		if err != nil {
			slog.Warn("config watcher disabled", "error", err)
		}
	}()

	// HTTP API
	if cfg.HTTP.Enabled {
		e := api.NewServer(api.NewHandler(api.Deps{
			Orchestrator: orch,
			Leads:        leads,
			Tickets:      tickets,
			Inventory:    inventory,
			Toasts:       toasts,
			Stream:       stream.NewServer(hub),
		}))
		go func() {
			slog.Info("api server started", "listen", cfg.HTTP.Listen)
			if err := e.Start(cfg.HTTP.Listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("api server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			if err := e.Shutdown(shutdownCtx); err != nil {
				slog.Error("api server shutdown", "error", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	for {
		sig := <-sigChan
		if sig == syscall.SIGHUP {
			slog.Info("received SIGHUP, restarting")
			execPath, err := os.Executable()
			if err != nil {
				slog.Error("failed to get executable path", "error", err)
				continue
			}
			// Clean up PID file before re-exec
			os.Remove(pidPath)
			if err := syscall.Exec(execPath, os.Args, os.Environ()); err != nil {
				slog.Error("failed to re-exec", "error", err)
				if _, writeErr := writePIDFile(cfg.DataDir); writeErr != nil {
					slog.Error("failed to re-write PID file", "error", writeErr)
				}
				continue
			}
		}
		// SIGINT or SIGTERM
		slog.Info("shutting down", "signal", sig)
		return nil
	}
}
