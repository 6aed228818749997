package query

import (
	"context"
	"fmt"

	"github.com/alem-hub/curriculum-hub/internal/domain/progress"
	"github.com/alem-hub/curriculum-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET GLOBAL TERM QUERY
// ══════════════════════════════════════════════════════════════════════════════

// GlobalTermDTO - текущий глобальный семестр.
type GlobalTermDTO struct {
	GlobalSemester int `json:"global_semester"`
}

// GetGlobalTermHandler возвращает глобальный семестр.
type GetGlobalTermHandler struct {
	terms progress.TermRepository
}

// NewGetGlobalTermHandler создаёт обработчик.
func NewGetGlobalTermHandler(terms progress.TermRepository) *GetGlobalTermHandler {
	return &GetGlobalTermHandler{terms: terms}
}

// Handle выполняет запрос.
func (h *GetGlobalTermHandler) Handle(ctx context.Context) (*GlobalTermDTO, error) {
	term, err := h.terms.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("get_global_term: %w", err)
	}
	return &GlobalTermDTO{GlobalSemester: term}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LIST STUDENTS QUERY
// Список студентов для администратора, упорядоченный по email.
// ══════════════════════════════════════════════════════════════════════════════

// ListStudentsQuery содержит параметры пагинации.
type ListStudentsQuery struct {
	Page     int
	PageSize int
}

// StudentListDTO - страница студентов.
type StudentListDTO struct {
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
	Count    int                `json:"count"`
	Items    []progress.Student `json:"items"`
}

// ListStudentsHandler обрабатывает запрос.
type ListStudentsHandler struct {
	students progress.StudentRepository
}

// NewListStudentsHandler создаёт обработчик.
func NewListStudentsHandler(students progress.StudentRepository) *ListStudentsHandler {
	return &ListStudentsHandler{students: students}
}

// Handle выполняет запрос.
func (h *ListStudentsHandler) Handle(ctx context.Context, q ListStudentsQuery) (*StudentListDTO, error) {
	page := shared.NewPagination(q.Page, q.PageSize)

	students, err := h.students.List(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("list_students: %w", err)
	}
	if students == nil {
		students = []progress.Student{}
	}

	return &StudentListDTO{
		Page:     page.Page,
		PageSize: page.PageSize,
		Count:    len(students),
		Items:    students,
	}, nil
}
