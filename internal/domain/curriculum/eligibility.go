package curriculum

// ══════════════════════════════════════════════════════════════════════════════
// ELIGIBILITY RESOLVER
// Курс доступен студенту, если он ещё не сдан и все его пререквизиты сданы.
// ══════════════════════════════════════════════════════════════════════════════

// Resolve возвращает доступные курсы каталога для множества сданных курсов.
// Пререквизиты, отсутствующие в каталоге, проверяются только по passed.
// Результат уже отсортирован в порядке плана.
func Resolve(catalog *Catalog, passed CourseSet) []Course {
	eligible := make([]Course, 0)
	for _, course := range catalog.Courses() {
		if passed.Has(course.ID) {
			continue
		}
		if len(MissingPrerequisites(course.Prerequisites, passed)) == 0 {
			eligible = append(eligible, course)
		}
	}
	return eligible
}

// IsEligible проверяет один курс по тем же правилам, что и Resolve.
func IsEligible(course Course, passed CourseSet) bool {
	return !passed.Has(course.ID) && len(MissingPrerequisites(course.Prerequisites, passed)) == 0
}

// MissingPrerequisites возвращает несданные пререквизиты в исходном порядке.
// Пустой результат означает, что курс можно брать.
func MissingPrerequisites(prerequisites []CourseID, passed CourseSet) []CourseID {
	missing := make([]CourseID, 0)
	for _, id := range prerequisites {
		if !passed.Has(id) {
			missing = append(missing, id)
		}
	}
	return missing
}
