// Package jobs contains the worker's scheduled jobs.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alem-hub/curriculum-hub/internal/application/command"
	"github.com/alem-hub/curriculum-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECOMPUTE SEMESTERS JOB
// ══════════════════════════════════════════════════════════════════════════════

// Recomputer is the part of the recompute handler the job needs.
type Recomputer interface {
	HandleAll(ctx context.Context) (*command.RecomputeAllResult, error)
}

// RecomputeSemestersJob reconciles every student's semester counter with
// their passed course history.
type RecomputeSemestersJob struct {
	recomputer Recomputer
	logger     *slog.Logger
}

// NewRecomputeSemestersJob creates the job.
func NewRecomputeSemestersJob(recomputer Recomputer, logger *slog.Logger) *RecomputeSemestersJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecomputeSemestersJob{
		recomputer: recomputer,
		logger:     logger.With("job", "recompute_semesters"),
	}
}

// Name implements scheduler.Job.
func (j *RecomputeSemestersJob) Name() string {
	return "recompute_semesters"
}

// Description implements scheduler.Job.
func (j *RecomputeSemestersJob) Description() string {
	return "Rebuilds every student's semester counter from passed courses"
}

// Run implements scheduler.Job. A run that finds an advancement in progress
// is skipped without error so the next activation retries it.
func (j *RecomputeSemestersJob) Run(ctx context.Context) error {
	result, err := j.recomputer.HandleAll(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrAdvancementInProgress) {
			j.logger.Warn("progression lock held, skipping run")
			return nil
		}
		return fmt.Errorf("recompute semesters: %w", err)
	}

	j.logger.Info("semesters reconciled",
		"total", result.StudentsTotal,
		"changed", result.StudentsChanged,
		"failed", result.StudentsFailed,
		"skipped", result.StudentsSkipped,
		"duration", result.Duration.String(),
	)

	if result.StudentsFailed > 0 {
		return fmt.Errorf("recompute semesters: %d of %d students failed", result.StudentsFailed, result.StudentsTotal)
	}
	return nil
}
