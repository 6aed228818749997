package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alem-hub/curriculum-hub/internal/domain/progress"
	"github.com/alem-hub/curriculum-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESET PROGRESS COMMAND
// Deletes a student's whole course history and sets the counter to 0.
// ══════════════════════════════════════════════════════════════════════════════

// ResetProgressCommand identifies the student to reset.
type ResetProgressCommand struct {
	StudentID string
}

// Validate validates the command.
func (c ResetProgressCommand) Validate() error {
	if _, err := shared.NewStudentID(c.StudentID); err != nil {
		return fmt.Errorf("reset_progress: %w", err)
	}
	return nil
}

// ResetProgressResult reports what was removed.
type ResetProgressResult struct {
	StudentID       shared.StudentID `json:"student_id"`
	RemovedCourses  int64            `json:"removed_courses"`
	CurrentSemester int              `json:"current_semester"`
}

// ResetProgressHandler handles the ResetProgressCommand.
type ResetProgressHandler struct {
	students       progress.StudentRepository
	progressRepo   progress.ProgressRepository
	eventPublisher shared.EventPublisher
	logger         *slog.Logger
}

// NewResetProgressHandler creates a new ResetProgressHandler.
func NewResetProgressHandler(
	students progress.StudentRepository,
	progressRepo progress.ProgressRepository,
	eventPublisher shared.EventPublisher,
	logger *slog.Logger,
) *ResetProgressHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if eventPublisher == nil {
		eventPublisher = shared.NopPublisher{}
	}
	return &ResetProgressHandler{
		students:       students,
		progressRepo:   progressRepo,
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

// Handle executes the command.
func (h *ResetProgressHandler) Handle(ctx context.Context, cmd ResetProgressCommand) (*ResetProgressResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	id, _ := shared.NewStudentID(cmd.StudentID)

	if _, err := h.students.GetByID(ctx, id); err != nil {
		return nil, fmt.Errorf("reset_progress: %w", err)
	}

	removed, err := h.progressRepo.ResetProgress(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reset_progress: %w", err)
	}

	h.logger.Info("student progress reset", "student_id", id, "removed", removed)
	if err := h.eventPublisher.Publish(shared.NewProgressResetEvent(id.String(), removed)); err != nil {
		h.logger.Warn("failed to publish progress reset event", "student_id", id, "error", err)
	}

	return &ResetProgressResult{StudentID: id, RemovedCourses: removed}, nil
}
