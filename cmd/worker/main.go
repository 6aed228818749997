// Package main - точка входа для фоновых процессов (Worker) Curriculum Hub.
//
// Worker выполняет периодический пересчёт семестров студентов по истории
// сданных курсов. Расписание задаётся SCHEDULER_RECOMPUTE_CRON.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alem-hub/curriculum-hub/config"
	"github.com/alem-hub/curriculum-hub/internal/bootstrap"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.Scheduler.Enabled {
		return fmt.Errorf("scheduler is disabled (SCHEDULER_ENABLED=false)")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. ИНИЦИАЛИЗАЦИЯ ЗАВИСИМОСТЕЙ (хранилище, Redis, event bus, handlers)
	// ─────────────────────────────────────────────────────────────────────────
	container, err := bootstrap.New(ctx, cfg, bootstrap.Options{})
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer container.Close()

	log := container.Logger
	log.Info("starting Curriculum Hub Worker",
		"env", cfg.App.Environment,
		"driver", cfg.Database.Driver,
		"timezone", cfg.App.Timezone,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ЗАПУСК ПЛАНИРОВЩИКА
	// ─────────────────────────────────────────────────────────────────────────
	sched, err := container.Scheduler()
	if err != nil {
		return err
	}
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	for _, job := range sched.ListJobs() {
		log.Info("job registered", "job", job.Name, "schedule", job.Schedule, "next_run", job.NextRun)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	log.Info("received shutdown signal", "signal", sig.String())

	// Stop отменяет запущенные задачи и ждёт их завершения
	if err := sched.Stop(); err != nil {
		log.Warn("scheduler stop", "error", err)
	}

	log.Info("shutdown completed successfully")
	return nil
}
