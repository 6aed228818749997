package curriculum

// ══════════════════════════════════════════════════════════════════════════════
// PLAN BUILDER
// Жадный детерминированный выбор курсов с ограничением по кредитам.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultCreditCap - лимит кредитов на семестр, если вызывающий не указал свой.
const DefaultCreditCap = 16

// Selection - упорядоченный план и набранная сумма кредитов.
type Selection struct {
	Courses      []Course `json:"items"`
	TotalCredits int      `json:"total_credits"`
	CreditCap    int      `json:"max_credits"`
}

// CourseIDs возвращает идентификаторы выбранных курсов в порядке плана.
func (s Selection) CourseIDs() []CourseID {
	ids := make([]CourseID, len(s.Courses))
	for i, c := range s.Courses {
		ids[i] = c.ID
	}
	return ids
}

// IsEmpty возвращает true, если ни один курс не выбран.
func (s Selection) IsEmpty() bool {
	return len(s.Courses) == 0
}

// Select сортирует кандидатов по (семестр, код) и набирает их, пока сумма
// не достигнет лимита. Курс, который не помещается, пропускается; после
// каждого рассмотренного кандидата проверяется условие остановки total >= cap.
// Это жёсткий ранний выход, а не задача о рюкзаке.
func Select(candidates []Course, creditCap int) Selection {
	selection := Selection{
		Courses:   make([]Course, 0),
		CreditCap: creditCap,
	}

	for _, course := range sortedCopy(candidates) {
		if selection.TotalCredits+course.Credits <= creditCap {
			selection.Courses = append(selection.Courses, course)
			selection.TotalCredits += course.Credits
		}
		if selection.TotalCredits >= creditCap {
			break
		}
	}

	return selection
}
