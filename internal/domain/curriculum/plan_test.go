package curriculum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelect_OrdersBySemesterThenCode(t *testing.T) {
	candidates := []Course{
		{ID: "x", Code: "ZZZ-100", Credits: 3, Semester: 1},
		{ID: "y", Code: "AAA-200", Credits: 3, Semester: 2},
		{ID: "z", Code: "AAA-100", Credits: 3, Semester: 1},
		{ID: "u", Code: "AAA-000", Credits: 3},
	}

	selection := Select(candidates, 100)
	assert.Equal(t, []CourseID{"z", "x", "y", "u"}, selection.CourseIDs())
	assert.Equal(t, 12, selection.TotalCredits)
	assert.Equal(t, 100, selection.CreditCap)
}

func TestSelect_SkipsCoursesThatDoNotFit(t *testing.T) {
	candidates := []Course{
		{ID: "a", Code: "A", Credits: 10, Semester: 1},
		{ID: "b", Code: "B", Credits: 8, Semester: 1},
		{ID: "c", Code: "C", Credits: 6, Semester: 2},
		{ID: "d", Code: "D", Credits: 4, Semester: 3},
	}

	selection := Select(candidates, 16)
	// a=10, b would make 18 (skip), c makes 16 and stops before d.
	assert.Equal(t, []CourseID{"a", "c"}, selection.CourseIDs())
	assert.Equal(t, 16, selection.TotalCredits)
}

func TestSelect_StopsAtCapEvenIfLaterCourseFitsNothing(t *testing.T) {
	candidates := []Course{
		{ID: "a", Code: "A", Credits: 16, Semester: 1},
		{ID: "b", Code: "B", Credits: 0, Semester: 2},
	}

	selection := Select(candidates, 16)
	assert.Equal(t, []CourseID{"a"}, selection.CourseIDs())
}

func TestSelect_ZeroCreditCoursesIncluded(t *testing.T) {
	candidates := []Course{
		{ID: "a", Code: "A", Credits: 0, Semester: 1},
		{ID: "b", Code: "B", Credits: 5, Semester: 1},
		{ID: "c", Code: "C", Credits: 0, Semester: 2},
	}

	selection := Select(candidates, 16)
	assert.Equal(t, []CourseID{"a", "b", "c"}, selection.CourseIDs())
	assert.Equal(t, 5, selection.TotalCredits)
}

func TestSelect_ZeroCap(t *testing.T) {
	candidates := []Course{
		{ID: "a", Code: "A", Credits: 3, Semester: 1},
		{ID: "b", Code: "B", Credits: 0, Semester: 2},
	}

	selection := Select(candidates, 0)
	assert.True(t, selection.IsEmpty())
	assert.Equal(t, 0, selection.TotalCredits)
}

func TestSelect_EmptyCandidates(t *testing.T) {
	selection := Select(nil, DefaultCreditCap)
	assert.True(t, selection.IsEmpty())
	assert.NotNil(t, selection.Courses)
}

func TestSelect_DoesNotMutateInput(t *testing.T) {
	candidates := []Course{
		{ID: "b", Code: "B", Credits: 3, Semester: 2},
		{ID: "a", Code: "A", Credits: 3, Semester: 1},
	}

	_ = Select(candidates, 16)
	assert.Equal(t, CourseID("b"), candidates[0].ID)
}

func TestSelect_PropertiesOverCaps(t *testing.T) {
	candidates := []Course{
		{ID: "1", Code: "C1", Credits: 5, Semester: 3},
		{ID: "2", Code: "C2", Credits: 4, Semester: 1},
		{ID: "3", Code: "C3", Credits: 6, Semester: 1},
		{ID: "4", Code: "C4", Credits: 1},
		{ID: "5", Code: "C5", Credits: 3, Semester: 2},
		{ID: "6", Code: "C0", Credits: 2, Semester: 2},
	}

	for cap := 0; cap <= 25; cap++ {
		first := Select(candidates, cap)
		second := Select(candidates, cap)

		require.Equal(t, first, second, "select must be deterministic for cap=%d", cap)
		assert.LessOrEqual(t, first.TotalCredits, cap)

		for i := 1; i < len(first.Courses); i++ {
			assert.False(t, Less(first.Courses[i], first.Courses[i-1]),
				"cap=%d: selection out of order at %d", cap, i)
		}
	}
}
