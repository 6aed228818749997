package query

import (
	"context"
	"fmt"

	"github.com/alem-hub/curriculum-hub/internal/domain/curriculum"
	"github.com/alem-hub/curriculum-hub/internal/domain/progress"
	"github.com/alem-hub/curriculum-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUGGEST NEXT SEMESTER QUERY
// Предлагает план на следующий семестр: доступные курсы под лимитом кредитов.
// ══════════════════════════════════════════════════════════════════════════════

// SuggestNextSemesterQuery содержит параметры запроса.
type SuggestNextSemesterQuery struct {
	StudentID string
	CareerID  string

	// MaxCredits - лимит кредитов; nil = лимит по умолчанию.
	MaxCredits *int
}

// Validate проверяет корректность параметров запроса.
func (q *SuggestNextSemesterQuery) Validate() error {
	if _, err := shared.NewStudentID(q.StudentID); err != nil {
		return err
	}
	if q.MaxCredits != nil && *q.MaxCredits < 0 {
		return shared.ErrInvalidCreditCap
	}
	return nil
}

// SuggestionDTO - предложенный план.
type SuggestionDTO struct {
	StudentID string `json:"student_id"`
	CareerID  string `json:"career_id"`
	curriculum.Selection
}

// SuggestNextSemesterHandler обрабатывает запрос.
type SuggestNextSemesterHandler struct {
	catalog          curriculum.Repository
	students         progress.StudentRepository
	progressRepo     progress.ProgressRepository
	defaultCreditCap int
}

// NewSuggestNextSemesterHandler создаёт обработчик. defaultCreditCap <= 0
// заменяется на curriculum.DefaultCreditCap.
func NewSuggestNextSemesterHandler(
	catalog curriculum.Repository,
	students progress.StudentRepository,
	progressRepo progress.ProgressRepository,
	defaultCreditCap int,
) *SuggestNextSemesterHandler {
	if defaultCreditCap <= 0 {
		defaultCreditCap = curriculum.DefaultCreditCap
	}
	return &SuggestNextSemesterHandler{
		catalog:          catalog,
		students:         students,
		progressRepo:     progressRepo,
		defaultCreditCap: defaultCreditCap,
	}
}

// Handle выполняет запрос.
func (h *SuggestNextSemesterHandler) Handle(ctx context.Context, q SuggestNextSemesterQuery) (*SuggestionDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("suggest_next_semester: %w", err)
	}

	creditCap := h.defaultCreditCap
	if q.MaxCredits != nil {
		creditCap = *q.MaxCredits
	}

	view, err := loadStudentView(ctx, h.catalog, h.students, h.progressRepo, q.StudentID, q.CareerID)
	if err != nil {
		return nil, fmt.Errorf("suggest_next_semester: %w", err)
	}

	eligible := curriculum.Resolve(view.catalog, view.passed)
	return &SuggestionDTO{
		StudentID: view.studentID.String(),
		CareerID:  view.catalog.CareerID,
		Selection: curriculum.Select(eligible, creditCap),
	}, nil
}
