// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"fmt"

	"github.com/alem-hub/curriculum-hub/internal/domain/curriculum"
	"github.com/alem-hub/curriculum-hub/internal/domain/progress"
	"github.com/alem-hub/curriculum-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET AVAILABLE COURSES QUERY
// Курсы карьеры, которые студент может взять прямо сейчас.
// ══════════════════════════════════════════════════════════════════════════════

// GetAvailableCoursesQuery содержит параметры запроса.
type GetAvailableCoursesQuery struct {
	// StudentID - идентификатор студента.
	StudentID string

	// CareerID - карьера; пусто = карьера из профиля студента.
	CareerID string
}

// Validate проверяет корректность параметров запроса.
func (q *GetAvailableCoursesQuery) Validate() error {
	if _, err := shared.NewStudentID(q.StudentID); err != nil {
		return err
	}
	return nil
}

// AvailableCoursesDTO - ответ со списком доступных курсов.
type AvailableCoursesDTO struct {
	StudentID string              `json:"student_id"`
	CareerID  string              `json:"career_id"`
	Count     int                 `json:"count"`
	Items     []curriculum.Course `json:"items"`
}

// GetAvailableCoursesHandler обрабатывает запрос.
type GetAvailableCoursesHandler struct {
	catalog      curriculum.Repository
	students     progress.StudentRepository
	progressRepo progress.ProgressRepository
}

// NewGetAvailableCoursesHandler создаёт обработчик.
func NewGetAvailableCoursesHandler(
	catalog curriculum.Repository,
	students progress.StudentRepository,
	progressRepo progress.ProgressRepository,
) *GetAvailableCoursesHandler {
	return &GetAvailableCoursesHandler{
		catalog:      catalog,
		students:     students,
		progressRepo: progressRepo,
	}
}

// Handle выполняет запрос.
func (h *GetAvailableCoursesHandler) Handle(ctx context.Context, q GetAvailableCoursesQuery) (*AvailableCoursesDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("get_available_courses: %w", err)
	}

	view, err := loadStudentView(ctx, h.catalog, h.students, h.progressRepo, q.StudentID, q.CareerID)
	if err != nil {
		return nil, fmt.Errorf("get_available_courses: %w", err)
	}

	eligible := curriculum.Resolve(view.catalog, view.passed)
	return &AvailableCoursesDTO{
		StudentID: view.studentID.String(),
		CareerID:  view.catalog.CareerID,
		Count:     len(eligible),
		Items:     eligible,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SHARED LOADING
// ══════════════════════════════════════════════════════════════════════════════

// studentView - снимок каталога и множество сданных курсов для одного запроса.
type studentView struct {
	studentID shared.StudentID
	catalog   *curriculum.Catalog
	passed    curriculum.CourseSet
}

// loadStudentView загружает каталог карьеры и историю студента.
// Если careerID пуст, используется карьера из профиля студента.
func loadStudentView(
	ctx context.Context,
	catalogRepo curriculum.Repository,
	students progress.StudentRepository,
	progressRepo progress.ProgressRepository,
	rawStudentID, careerID string,
) (*studentView, error) {
	studentID, err := shared.NewStudentID(rawStudentID)
	if err != nil {
		return nil, err
	}

	st, err := students.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if careerID == "" {
		careerID = st.CareerID
	}
	if careerID == "" {
		return nil, shared.NewDomainError("curriculum", "Find", shared.ErrInvalidInput, "career_id is required")
	}

	catalog, err := catalogRepo.GetCatalog(ctx, careerID)
	if err != nil {
		return nil, err
	}

	rows, err := progressRepo.GetProgress(ctx, studentID)
	if err != nil {
		return nil, err
	}

	return &studentView{
		studentID: studentID,
		catalog:   catalog,
		passed:    progress.PassedSet(rows),
	}, nil
}
