package command

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/alem-hub/curriculum-hub/internal/domain/curriculum"
	"github.com/alem-hub/curriculum-hub/internal/domain/progress"
	"github.com/alem-hub/curriculum-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECOMPUTE SEMESTER COMMAND
// Rebuilds a student's semester counter from passed course history.
// ══════════════════════════════════════════════════════════════════════════════

// RecomputeSemesterCommand contains the data needed to recompute one student.
type RecomputeSemesterCommand struct {
	StudentID string
}

// Validate validates the command.
func (c RecomputeSemesterCommand) Validate() error {
	if _, err := shared.NewStudentID(c.StudentID); err != nil {
		return fmt.Errorf("recompute_semester: %w", err)
	}
	return nil
}

// RecomputeSemesterResult contains the result for one student.
type RecomputeSemesterResult struct {
	StudentID       shared.StudentID `json:"student_id"`
	OldSemester     int              `json:"old_semester"`
	CurrentSemester int              `json:"current_semester"`
	PassedCourses   int              `json:"passed_courses"`
	Changed         bool             `json:"changed"`
}

// RecomputeAllResult summarizes a roster-wide recomputation.
type RecomputeAllResult struct {
	StudentsTotal   int                       `json:"students_total"`
	StudentsChanged int                       `json:"students_changed"`
	StudentsFailed  int                       `json:"students_failed"`
	StudentsSkipped int                       `json:"students_skipped"`
	Results         []RecomputeSemesterResult `json:"results"`
	Errors          map[string]string         `json:"errors,omitempty"`
	Duration        time.Duration             `json:"duration_ns"`
}

// RecomputeSemesterHandlerConfig contains configuration for the handler.
type RecomputeSemesterHandlerConfig struct {
	Workers int
	LockTTL time.Duration
}

// DefaultRecomputeSemesterHandlerConfig returns default configuration.
// Recomputation only rewrites counters, so its lock is held for less time than an advancement's.
func DefaultRecomputeSemesterHandlerConfig() RecomputeSemesterHandlerConfig {
	return RecomputeSemesterHandlerConfig{
		Workers: 4,
		LockTTL: 5 * time.Minute,
	}
}

// RecomputeSemesterHandler handles recomputation for one or all students.
type RecomputeSemesterHandler struct {
	locker         progress.Locker
	students       progress.StudentRepository
	progressRepo   progress.ProgressRepository
	courses        progress.CourseSource
	eventPublisher shared.EventPublisher
	logger         *slog.Logger
	config         RecomputeSemesterHandlerConfig
}

// NewRecomputeSemesterHandler creates a new RecomputeSemesterHandler.
func NewRecomputeSemesterHandler(
	locker progress.Locker,
	students progress.StudentRepository,
	progressRepo progress.ProgressRepository,
	courses progress.CourseSource,
	eventPublisher shared.EventPublisher,
	logger *slog.Logger,
	config RecomputeSemesterHandlerConfig,
) *RecomputeSemesterHandler {
	defaults := DefaultRecomputeSemesterHandlerConfig()
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

	return &RecomputeSemesterHandler{
		locker:         locker,
		students:       students,
		progressRepo:   progressRepo,
		courses:        courses,
		eventPublisher: eventPublisher,
		logger:         logger,
		config:         config,
	}
}

// Handle recomputes a single student under the progression lock.
func (h *RecomputeSemesterHandler) Handle(ctx context.Context, cmd RecomputeSemesterCommand) (*RecomputeSemesterResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	id, _ := shared.NewStudentID(cmd.StudentID)

	release, err := h.locker.Acquire(ctx, progress.ProgressionLockKey, h.config.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("recompute_semester: %w", err)
	}
	defer release()

	st, err := h.students.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("recompute_semester: %w", err)
	}

	return h.recompute(ctx, *st)
}

// HandleAll recomputes every student. One failing student does not stop the rest.
func (h *RecomputeSemesterHandler) HandleAll(ctx context.Context) (*RecomputeAllResult, error) {
	started := time.Now()

	release, err := h.locker.Acquire(ctx, progress.ProgressionLockKey, h.config.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("recompute_semester: %w", err)
	}
	defer release()

	students, err := h.students.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("recompute_semester: failed to list students: %w", err)
	}

	result := &RecomputeAllResult{
		StudentsTotal: len(students),
		Results:       make([]RecomputeSemesterResult, 0, len(students)),
		Errors:        make(map[string]string),
	}

	var mu sync.Mutex
	skipped := forEachStudent(ctx, students, h.config.Workers, func(ctx context.Context, _ int, st progress.Student) {
		res, err := h.recompute(ctx, st)

		mu.Lock()
		defer mu.Unlock()

		if err != nil {
			result.StudentsFailed++
			result.Errors[st.ID.String()] = err.Error()
			h.logger.Error("failed to recompute student", "student_id", st.ID, "error", err)
			return
		}
		if res.Changed {
			result.StudentsChanged++
		}
		result.Results = append(result.Results, *res)
	})
	result.StudentsSkipped = len(skipped)
	result.Duration = time.Since(started)
	sort.Slice(result.Results, func(i, j int) bool {
		return result.Results[i].StudentID < result.Results[j].StudentID
	})

	h.logger.Info("recompute_semester completed",
		"duration", result.Duration.String(),
		"total", result.StudentsTotal,
		"changed", result.StudentsChanged,
		"failed", result.StudentsFailed,
		"skipped", result.StudentsSkipped,
	)

	return result, nil
}

// recompute loads passed rows, resolves their course records and overwrites the counter.
func (h *RecomputeSemesterHandler) recompute(ctx context.Context, st progress.Student) (*RecomputeSemesterResult, error) {
	rows, err := h.progressRepo.GetProgress(ctx, st.ID)
	if err != nil {
		return nil, fmt.Errorf("read progress: %w", err)
	}

	var passed []curriculum.Course
	if ids := progress.PassedIDs(rows); len(ids) > 0 {
		passed, err = h.courses.GetCourses(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("read courses: %w", err)
		}
	}

	semesters := curriculum.Recompute(passed)
	if err := h.students.SetCurrentSemester(ctx, st.ID, semesters); err != nil {
		return nil, fmt.Errorf("write semester: %w", err)
	}

	result := &RecomputeSemesterResult{
		StudentID:       st.ID,
		OldSemester:     st.CurrentSemester,
		CurrentSemester: semesters,
		PassedCourses:   len(passed),
		Changed:         semesters != st.CurrentSemester,
	}

	if result.Changed {
		event := shared.NewSemesterRecomputedEvent(st.ID.String(), st.CurrentSemester, semesters)
		if err := h.eventPublisher.Publish(event); err != nil {
			h.logger.Warn("failed to publish semester recomputed event", "student_id", st.ID, "error", err)
		}
	}

	return result, nil
}
