package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alem-hub/curriculum-hub/internal/domain/curriculum"
	"github.com/alem-hub/curriculum-hub/internal/domain/progress"
	"github.com/alem-hub/curriculum-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SET COURSE STATUS COMMAND
// A student plans, enrolls in or passes a course.
// ══════════════════════════════════════════════════════════════════════════════

// SetCourseStatusCommand carries the raw status as received at the boundary.
type SetCourseStatusCommand struct {
	StudentID string
	CourseID  string
	Status    string
}

// Validate validates the command and normalizes the status.
func (c SetCourseStatusCommand) Validate() (progress.Status, error) {
	if _, err := shared.NewStudentID(c.StudentID); err != nil {
		return "", fmt.Errorf("set_course_status: %w", err)
	}
	if c.CourseID == "" {
		return "", shared.NewDomainError("progress", "SetStatus", shared.ErrInvalidInput, "course_id is required")
	}
	status, err := progress.ParseStatus(c.Status)
	if err != nil {
		return "", fmt.Errorf("set_course_status: %w", err)
	}
	return status, nil
}

// SetCourseStatusHandler handles the SetCourseStatusCommand.
type SetCourseStatusHandler struct {
	students       progress.StudentRepository
	progressRepo   progress.ProgressRepository
	courses        progress.CourseSource
	eventPublisher shared.EventPublisher
	logger         *slog.Logger
}

// NewSetCourseStatusHandler creates a new SetCourseStatusHandler.
func NewSetCourseStatusHandler(
	students progress.StudentRepository,
	progressRepo progress.ProgressRepository,
	courses progress.CourseSource,
	eventPublisher shared.EventPublisher,
	logger *slog.Logger,
) *SetCourseStatusHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if eventPublisher == nil {
		eventPublisher = shared.NopPublisher{}
	}
	return &SetCourseStatusHandler{
		students:       students,
		progressRepo:   progressRepo,
		courses:        courses,
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

// Handle executes the command.
func (h *SetCourseStatusHandler) Handle(ctx context.Context, cmd SetCourseStatusCommand) (*progress.CourseProgress, error) {
	status, err := cmd.Validate()
	if err != nil {
		return nil, err
	}
	studentID, _ := shared.NewStudentID(cmd.StudentID)
	courseID := curriculum.CourseID(cmd.CourseID)

	if _, err := h.students.GetByID(ctx, studentID); err != nil {
		return nil, fmt.Errorf("set_course_status: %w", err)
	}

	found, err := h.courses.GetCourses(ctx, []curriculum.CourseID{courseID})
	if err != nil {
		return nil, fmt.Errorf("set_course_status: %w", err)
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("set_course_status: %w", shared.ErrCourseNotFound)
	}

	row := progress.CourseProgress{
		StudentID: studentID,
		CourseID:  courseID,
		Status:    status,
	}
	if err := h.progressRepo.SetStatus(ctx, row); err != nil {
		return nil, fmt.Errorf("set_course_status: %w", err)
	}

	event := shared.NewCourseStatusChangedEvent(studentID.String(), courseID.String(), status.String())
	if err := h.eventPublisher.Publish(event); err != nil {
		h.logger.Warn("failed to publish course status event", "student_id", studentID, "error", err)
	}

	return &row, nil
}
