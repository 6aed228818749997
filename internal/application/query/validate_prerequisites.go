package query

import (
	"context"
	"fmt"

	"github.com/alem-hub/curriculum-hub/internal/domain/curriculum"
	"github.com/alem-hub/curriculum-hub/internal/domain/progress"
	"github.com/alem-hub/curriculum-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALIDATE PREREQUISITES QUERY
// Проверяет, может ли студент взять конкретный курс.
// ══════════════════════════════════════════════════════════════════════════════

// ValidatePrerequisitesQuery содержит параметры запроса.
type ValidatePrerequisitesQuery struct {
	StudentID string
	CourseID  string
}

// Validate проверяет корректность параметров запроса.
func (q *ValidatePrerequisitesQuery) Validate() error {
	if _, err := shared.NewStudentID(q.StudentID); err != nil {
		return err
	}
	if q.CourseID == "" {
		return shared.NewDomainError("curriculum", "Validate", shared.ErrInvalidInput, "course_id is required")
	}
	return nil
}

// PrerequisiteCheckDTO - результат проверки.
type PrerequisiteCheckDTO struct {
	CourseID string                `json:"course_id"`
	OK       bool                  `json:"ok"`
	Missing  []curriculum.CourseID `json:"missing"`
}

// ValidatePrerequisitesHandler обрабатывает запрос.
type ValidatePrerequisitesHandler struct {
	catalog      curriculum.Repository
	progressRepo progress.ProgressRepository
}

// NewValidatePrerequisitesHandler создаёт обработчик.
func NewValidatePrerequisitesHandler(catalog curriculum.Repository, progressRepo progress.ProgressRepository) *ValidatePrerequisitesHandler {
	return &ValidatePrerequisitesHandler{catalog: catalog, progressRepo: progressRepo}
}

// Handle выполняет запрос.
func (h *ValidatePrerequisitesHandler) Handle(ctx context.Context, q ValidatePrerequisitesQuery) (*PrerequisiteCheckDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("validate_prerequisites: %w", err)
	}
	studentID, _ := shared.NewStudentID(q.StudentID)
	courseID := curriculum.CourseID(q.CourseID)

	prereqs, err := h.catalog.GetPrerequisites(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("validate_prerequisites: %w", err)
	}

	rows, err := h.progressRepo.GetProgress(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("validate_prerequisites: %w", err)
	}

	missing := curriculum.MissingPrerequisites(prereqs, progress.PassedSet(rows))
	return &PrerequisiteCheckDTO{
		CourseID: q.CourseID,
		OK:       len(missing) == 0,
		Missing:  missing,
	}, nil
}
