// Package progress содержит доменную модель прогресса студента по учебному плану:
// студентов, их записи по курсам, глобальный семестр и контракты хранилищ.
//
// Пакет не выполняет ввод-вывод. Нормализация статусов выполняется здесь,
// а адаптеры хранилищ вызывают ParseStatus при чтении строк, поэтому алгоритмы
// движка видят только канонический предикат "сдан".
package progress

import (
	"strings"

	"github.com/alem-hub/curriculum-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// COURSE STATUS
// ══════════════════════════════════════════════════════════════════════════════

// Status - канонический статус курса у студента.
type Status string

const (
	// StatusPlanned - курс запланирован.
	StatusPlanned Status = "planned"

	// StatusEnrolled - студент записан на курс.
	StatusEnrolled Status = "enrolled"

	// StatusPassed - курс сдан.
	StatusPassed Status = "passed"
)

// passedAliases - значения, которые исторически означают "сдан".
var passedAliases = map[string]struct{}{
	"passed":   {},
	"aprobada": {},
	"approved": {},
}

// ParseStatus нормализует сырое значение статуса (регистр и пробелы игнорируются).
// Любое неизвестное значение - ошибка формы входных данных.
func ParseStatus(raw string) (Status, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if _, ok := passedAliases[value]; ok {
		return StatusPassed, nil
	}
	switch Status(value) {
	case StatusPlanned:
		return StatusPlanned, nil
	case StatusEnrolled:
		return StatusEnrolled, nil
	}
	return "", shared.WrapError("progress", "ParseStatus", shared.ErrInvalidInput, "unknown course status: "+raw, shared.ErrUnknownStatus)
}

// String возвращает строковое представление.
func (s Status) String() string {
	return string(s)
}

// IsValid проверяет, что статус канонический.
func (s Status) IsValid() bool {
	return s == StatusPlanned || s == StatusEnrolled || s == StatusPassed
}

// IsPassed возвращает true для сданного курса.
func (s Status) IsPassed() bool {
	return s == StatusPassed
}

// IsPending возвращает true для курсов, ожидающих продвижения (planned/enrolled).
func (s Status) IsPending() bool {
	return s == StatusPlanned || s == StatusEnrolled
}
