package progress

import (
	"github.com/alem-hub/curriculum-hub/internal/domain/curriculum"
	"github.com/alem-hub/curriculum-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT
// ══════════════════════════════════════════════════════════════════════════════

// Student - студент и его счётчик семестров.
type Student struct {
	ID              shared.StudentID `json:"id"`
	Email           string           `json:"email"`
	Name            string           `json:"name,omitempty"`
	CareerID        string           `json:"career_id,omitempty"`
	CurrentSemester int              `json:"current_semester"`
}

// Validate проверяет обязательные поля студента.
func (s Student) Validate() error {
	if !s.ID.IsValid() {
		return shared.NewDomainError("progress", "Validate", shared.ErrInvalidID, "invalid student id")
	}
	if _, err := shared.NewEmail(s.Email); err != nil {
		return err
	}
	if s.CurrentSemester < 0 {
		return shared.NewDomainError("progress", "Validate", shared.ErrNegativeValue, "current semester cannot be negative")
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// COURSE PROGRESS
// ══════════════════════════════════════════════════════════════════════════════

// CourseProgress - запись о курсе в истории студента.
type CourseProgress struct {
	StudentID shared.StudentID    `json:"student_id"`
	CourseID  curriculum.CourseID `json:"course_id"`
	Status    Status              `json:"status"`

	// TermTaken - глобальный семестр, в котором курс был сдан продвижением.
	TermTaken *int `json:"semester_taken,omitempty"`
}

// PassedSet собирает множество сданных курсов из истории.
func PassedSet(rows []CourseProgress) curriculum.CourseSet {
	set := curriculum.NewCourseSet()
	for _, row := range rows {
		if row.Status.IsPassed() {
			set.Add(row.CourseID)
		}
	}
	return set
}

// PassedIDs возвращает идентификаторы сданных курсов в порядке строк.
func PassedIDs(rows []CourseProgress) []curriculum.CourseID {
	ids := make([]curriculum.CourseID, 0, len(rows))
	for _, row := range rows {
		if row.Status.IsPassed() {
			ids = append(ids, row.CourseID)
		}
	}
	return ids
}

// PendingIDs возвращает идентификаторы курсов в статусе planned/enrolled.
func PendingIDs(rows []CourseProgress) []curriculum.CourseID {
	ids := make([]curriculum.CourseID, 0, len(rows))
	for _, row := range rows {
		if row.Status.IsPending() {
			ids = append(ids, row.CourseID)
		}
	}
	return ids
}

// ══════════════════════════════════════════════════════════════════════════════
// ADVANCEMENT
// ══════════════════════════════════════════════════════════════════════════════

// Advancement - единица записи продвижения одного студента. Хранилище применяет
// её атомарно: счётчик +1 и перевод выбранных курсов в passed с отметкой Term.
type Advancement struct {
	StudentID shared.StudentID
	CourseIDs []curriculum.CourseID
	Term      int
}
