package command

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alem-hub/curriculum-hub/internal/domain/curriculum"
	"github.com/alem-hub/curriculum-hub/internal/domain/progress"
	"github.com/alem-hub/curriculum-hub/internal/domain/shared"
	"github.com/alem-hub/curriculum-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADVANCE SEMESTER COMMAND
// Moves the whole cohort one term forward: the global term is bumped once,
// then every student's pending courses are promoted under the credit cap.
// ══════════════════════════════════════════════════════════════════════════════

// AdvanceCreditCap is the fixed per-student cap applied during advancement.
const AdvanceCreditCap = 16

// AdvanceSemesterCommand contains the data needed to advance the term.
type AdvanceSemesterCommand struct {
	// RequestedBy identifies the operator or job (for logs).
	RequestedBy string

	// CorrelationID for tracing across services.
	CorrelationID string
}

// Validate validates the command.
func (c AdvanceSemesterCommand) Validate() error {
	return nil
}

// OutcomeStatus describes what happened to one student during advancement.
type OutcomeStatus string

const (
	// OutcomeUpdated - the student unit committed.
	OutcomeUpdated OutcomeStatus = "updated"

	// OutcomeFailed - the student unit failed and nothing was written for the student.
	OutcomeFailed OutcomeStatus = "failed"

	// OutcomeSkipped - the run was cancelled before the student was started.
	OutcomeSkipped OutcomeStatus = "skipped"
)

// StudentAdvanceOutcome is the per-student result.
type StudentAdvanceOutcome struct {
	StudentID   shared.StudentID      `json:"student_id"`
	Status      OutcomeStatus         `json:"status"`
	NewSemester int                   `json:"new_semester,omitempty"`
	Promoted    []curriculum.CourseID `json:"promoted,omitempty"`
	Credits     int                   `json:"credits,omitempty"`
	Error       string                `json:"error,omitempty"`
}

// AdvanceSemesterResult contains the result of an advancement run.
type AdvanceSemesterResult struct {
	RunID             string                  `json:"run_id"`
	NewGlobalTerm     int                     `json:"new_global_semester"`
	StudentsTotal     int                     `json:"students_total"`
	StudentsProcessed int                     `json:"students_updated"`
	StudentsFailed    int                     `json:"students_failed"`
	StudentsSkipped   int                     `json:"students_skipped"`
	CoursesPromoted   int                     `json:"courses_promoted"`
	Outcomes          []StudentAdvanceOutcome `json:"outcomes"`
	StartedAt         time.Time               `json:"started_at"`
	Duration          time.Duration           `json:"duration_ns"`

	// LockExpired is set when the run took longer than the lock TTL.
	// Another advancement could have started in the meantime.
	LockExpired bool `json:"lock_expired"`
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// AdvanceSemesterHandlerConfig contains configuration for the handler.
type AdvanceSemesterHandlerConfig struct {
	// Workers is the number of students advanced in parallel.
	Workers int

	// LockTTL bounds how long the progression lock is held.
	LockTTL time.Duration
}

// DefaultAdvanceSemesterHandlerConfig returns default configuration.
func DefaultAdvanceSemesterHandlerConfig() AdvanceSemesterHandlerConfig {
	return AdvanceSemesterHandlerConfig{
		Workers: 4,
		LockTTL: 15 * time.Minute,
	}
}

// AdvanceSemesterHandler handles the AdvanceSemesterCommand.
type AdvanceSemesterHandler struct {
	locker         progress.Locker
	terms          progress.TermRepository
	students       progress.StudentRepository
	progressRepo   progress.ProgressRepository
	courses        progress.CourseSource
	eventPublisher shared.EventPublisher
	retrier        *retry.Retrier
	logger         *slog.Logger
	config         AdvanceSemesterHandlerConfig
}

// NewAdvanceSemesterHandler creates a new AdvanceSemesterHandler.
func NewAdvanceSemesterHandler(
	locker progress.Locker,
	terms progress.TermRepository,
	students progress.StudentRepository,
	progressRepo progress.ProgressRepository,
	courses progress.CourseSource,
	eventPublisher shared.EventPublisher,
	logger *slog.Logger,
	config AdvanceSemesterHandlerConfig,
) *AdvanceSemesterHandler {
	defaults := DefaultAdvanceSemesterHandlerConfig()
	if config.Workers <= 0 {
		config.Workers = defaults.Workers
	}
	if config.LockTTL <= 0 {
		config.LockTTL = defaults.LockTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	if eventPublisher == nil {
		eventPublisher = shared.NopPublisher{}
	}

	return &AdvanceSemesterHandler{
		locker:         locker,
		terms:          terms,
		students:       students,
		progressRepo:   progressRepo,
		courses:        courses,
		eventPublisher: eventPublisher,
		retrier:        retry.DatabaseRetrier(shared.IsRetryable),
		logger:         logger,
		config:         config,
	}
}

// Handle executes the advance semester command.
//
// The term write is the first and only global write; if it fails nothing else
// is touched. Each student is then an independent unit: a failure is recorded
// in the outcome and the run continues. The run is not idempotent.
func (h *AdvanceSemesterHandler) Handle(ctx context.Context, cmd AdvanceSemesterCommand) (*AdvanceSemesterResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("advance_semester: validation failed: %w", err)
	}

	result := &AdvanceSemesterResult{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Outcomes:  make([]StudentAdvanceOutcome, 0),
	}
	log := h.logger.With("run_id", result.RunID, "requested_by", cmd.RequestedBy)

	release, err := h.locker.Acquire(ctx, progress.ProgressionLockKey, h.config.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("advance_semester: %w", err)
	}
	defer release()

	// Step 1: bump the global term.
	newTerm, err := retry.DoWithData(ctx, func(ctx context.Context) (int, error) {
		return h.terms.Advance(ctx)
	}, retry.WithMaxAttempts(3), retry.WithInitialDelay(50*time.Millisecond), retry.WithRetryIf(shared.IsRetryable))
	if err != nil {
		log.Error("failed to advance global term", "error", err)
		return nil, fmt.Errorf("advance_semester: failed to advance global term: %w", err)
	}
	result.NewGlobalTerm = newTerm
	log = log.With("term", newTerm)

	// Step 2: load the roster.
	students, err := h.students.All(ctx)
	if err != nil {
		log.Error("failed to list students after term advance", "error", err)
		result.Duration = time.Since(result.StartedAt)
		return result, fmt.Errorf("advance_semester: term advanced to %d but listing students failed: %w", newTerm, err)
	}
	result.StudentsTotal = len(students)
	result.Outcomes = make([]StudentAdvanceOutcome, len(students))
	log.Info("advancing students", "count", len(students), "workers", h.config.Workers)

	// Step 3: fan out.
	var mu sync.Mutex
	skipped := forEachStudent(ctx, students, h.config.Workers, func(ctx context.Context, index int, st progress.Student) {
		outcome := h.advanceStudent(ctx, st, newTerm)

		mu.Lock()
		defer mu.Unlock()

		result.Outcomes[index] = outcome
		switch outcome.Status {
		case OutcomeUpdated:
			result.StudentsProcessed++
			result.CoursesPromoted += len(outcome.Promoted)
		case OutcomeFailed:
			result.StudentsFailed++
			log.Error("failed to advance student", "student_id", st.ID, "error", outcome.Error)
		}
	})

	for _, index := range skipped {
		result.Outcomes[index] = StudentAdvanceOutcome{
			StudentID: students[index].ID,
			Status:    OutcomeSkipped,
		}
	}
	result.StudentsSkipped = len(skipped)
	result.Duration = time.Since(result.StartedAt)
	if result.Duration > h.config.LockTTL {
		result.LockExpired = true
		log.Warn("advancement outlived the progression lock",
			"duration", result.Duration.String(),
			"lock_ttl", h.config.LockTTL.String(),
		)
	}

	event := shared.NewSemesterAdvancedEvent(result.RunID, newTerm,
		result.StudentsProcessed, result.StudentsFailed, result.StudentsSkipped, result.CoursesPromoted)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	if err := h.eventPublisher.Publish(event); err != nil {
		log.Warn("failed to publish semester advanced event", "error", err)
	}

	log.Info("advance_semester completed",
		"duration", result.Duration.String(),
		"total", result.StudentsTotal,
		"updated", result.StudentsProcessed,
		"failed", result.StudentsFailed,
		"skipped", result.StudentsSkipped,
		"courses_promoted", result.CoursesPromoted,
	)

	return result, nil
}

// advanceStudent runs the per-student unit: read pending rows, select under
// the cap (no prerequisite re-check), then commit counter and promotions together.
func (h *AdvanceSemesterHandler) advanceStudent(ctx context.Context, st progress.Student, term int) StudentAdvanceOutcome {
	outcome := StudentAdvanceOutcome{StudentID: st.ID, Status: OutcomeFailed}

	rows, err := h.progressRepo.GetProgress(ctx, st.ID)
	if err != nil {
		outcome.Error = fmt.Sprintf("read progress: %v", err)
		return outcome
	}

	var selection curriculum.Selection
	if pending := progress.PendingIDs(rows); len(pending) > 0 {
		courses, err := h.courses.GetCourses(ctx, pending)
		if err != nil {
			outcome.Error = fmt.Sprintf("read courses: %v", err)
			return outcome
		}
		selection = curriculum.Select(courses, AdvanceCreditCap)
	}

	adv := progress.Advancement{
		StudentID: st.ID,
		CourseIDs: selection.CourseIDs(),
		Term:      term,
	}

	var newSemester, promoted int
	err = h.retrier.Do(ctx, func(ctx context.Context) error {
		var applyErr error
		newSemester, promoted, applyErr = h.progressRepo.ApplyAdvancement(ctx, adv)
		return applyErr
	})
	if err != nil {
		outcome.Error = fmt.Sprintf("apply advancement: %v", err)
		return outcome
	}

	outcome.Status = OutcomeUpdated
	outcome.NewSemester = newSemester
	outcome.Promoted = adv.CourseIDs
	outcome.Credits = selection.TotalCredits
	if promoted != len(adv.CourseIDs) {
		h.logger.Warn("promoted row count differs from selection",
			"student_id", st.ID, "selected", len(adv.CourseIDs), "promoted", promoted)
	}
	return outcome
}
