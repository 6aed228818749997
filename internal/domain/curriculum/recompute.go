package curriculum

// ══════════════════════════════════════════════════════════════════════════════
// SEMESTER RECOMPUTATION
// Восстанавливает число заработанных семестров по истории сданных курсов.
// ══════════════════════════════════════════════════════════════════════════════

const (
	// BucketCapacity - максимум кредитов в одном семестровом "ведре".
	BucketCapacity = 16

	// MinSemesterCredits - минимум кредитов, чтобы закрытое ведро считалось семестром.
	MinSemesterCredits = 12
)

// Recompute последовательно раскладывает сданные курсы (в порядке плана) по
// ведрам ёмкостью BucketCapacity. Курс, который переполняет текущее ведро,
// закрывает его и сам становится единственным содержимым следующего.
// Закрытое ведро засчитывается, если в нём не меньше MinSemesterCredits.
//
// Семантика воспроизводит существующее поведение и требует подтверждения
// у учебного отдела, прежде чем считать её академическим правилом.
func Recompute(passed []Course) int {
	semesters := 0
	bucket := 0

	for _, course := range sortedCopy(passed) {
		if bucket+course.Credits <= BucketCapacity {
			bucket += course.Credits
			continue
		}
		if bucket >= MinSemesterCredits {
			semesters++
		}
		bucket = course.Credits
	}

	if bucket >= MinSemesterCredits {
		semesters++
	}

	return semesters
}
