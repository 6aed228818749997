package command

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alem-hub/curriculum-hub/internal/domain/curriculum"
	"github.com/alem-hub/curriculum-hub/internal/domain/progress"
	"github.com/alem-hub/curriculum-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER STUDENT COMMAND
// Creates a student or updates their profile. The semester counter of an
// existing student is preserved.
// ══════════════════════════════════════════════════════════════════════════════

// RegisterStudentCommand contains the student profile.
type RegisterStudentCommand struct {
	// StudentID is generated when empty.
	StudentID string
	Email     string
	Name      string
	CareerID  string
}

// Validate validates the command.
func (c RegisterStudentCommand) Validate() error {
	if c.StudentID != "" {
		if _, err := shared.NewStudentID(c.StudentID); err != nil {
			return fmt.Errorf("register_student: %w", err)
		}
	}
	if _, err := shared.NewEmail(c.Email); err != nil {
		return fmt.Errorf("register_student: %w", err)
	}
	return nil
}

// CareerLookup confirms that a career exists.
type CareerLookup interface {
	GetCatalog(ctx context.Context, careerID string) (*curriculum.Catalog, error)
}

// RegisterStudentHandler handles the RegisterStudentCommand.
type RegisterStudentHandler struct {
	students       progress.StudentRepository
	careers        CareerLookup
	eventPublisher shared.EventPublisher
	logger         *slog.Logger
}

// NewRegisterStudentHandler creates a new RegisterStudentHandler.
// careers may be nil to skip the career check.
func NewRegisterStudentHandler(
	students progress.StudentRepository,
	careers CareerLookup,
	eventPublisher shared.EventPublisher,
	logger *slog.Logger,
) *RegisterStudentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if eventPublisher == nil {
		eventPublisher = shared.NopPublisher{}
	}
	return &RegisterStudentHandler{
		students:       students,
		careers:        careers,
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

// Handle executes the command and returns the stored student.
func (h *RegisterStudentHandler) Handle(ctx context.Context, cmd RegisterStudentCommand) (*progress.Student, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	id := shared.GenerateStudentID()
	if cmd.StudentID != "" {
		id, _ = shared.NewStudentID(cmd.StudentID)
	}
	email, _ := shared.NewEmail(cmd.Email)
	careerID := strings.TrimSpace(cmd.CareerID)

	if careerID != "" && h.careers != nil {
		if _, err := h.careers.GetCatalog(ctx, careerID); err != nil {
			return nil, fmt.Errorf("register_student: %w", err)
		}
	}

	st := progress.Student{
		ID:       id,
		Email:    email.String(),
		Name:     strings.TrimSpace(cmd.Name),
		CareerID: careerID,
	}
	if existing, err := h.students.GetByID(ctx, id); err == nil {
		st.CurrentSemester = existing.CurrentSemester
	} else if !shared.IsNotFound(err) {
		return nil, fmt.Errorf("register_student: %w", err)
	}

	if err := h.students.Upsert(ctx, st); err != nil {
		return nil, fmt.Errorf("register_student: %w", err)
	}

	h.logger.Info("student registered", "student_id", id, "career_id", careerID)
	if err := h.eventPublisher.Publish(shared.NewStudentRegisteredEvent(id.String(), st.Email, careerID)); err != nil {
		h.logger.Warn("failed to publish student registered event", "student_id", id, "error", err)
	}

	return &st, nil
}
