package curriculum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/curriculum-hub/internal/domain/shared"
)

func TestLess_UnknownSemesterSortsLast(t *testing.T) {
	known := Course{ID: "k", Code: "ZZZ", Semester: 12}
	unknown := Course{ID: "u", Code: "AAA"}

	assert.True(t, Less(known, unknown))
	assert.False(t, Less(unknown, known))
	assert.Equal(t, UnknownSemester, unknown.SortSemester())
}

func TestCatalog_LookupSkipsUnknown(t *testing.T) {
	catalog := NewCatalog("c", "c", []Course{
		{ID: "A", Code: "A", Credits: 1},
		{ID: "B", Code: "B", Credits: 1},
	})

	found := catalog.Lookup([]CourseID{"B", "missing", "A"})
	assert.Equal(t, []CourseID{"B", "A"}, idsOf(found))
	assert.Equal(t, 2, catalog.Len())
}

func TestCourseSet_IDsSorted(t *testing.T) {
	set := NewCourseSet("c", "a", "b")
	assert.Equal(t, []CourseID{"a", "b", "c"}, set.IDs())
	assert.True(t, set.Has("a"))

	var empty CourseSet
	assert.False(t, empty.Has("a"))
}

func TestCareerImport_Validate(t *testing.T) {
	valid := CareerImport{
		CareerName: "Economía",
		Courses: []Course{
			{ID: "1", Code: "ECO-1", Credits: 3},
			{ID: "2", Code: "ECO-2", Credits: 3},
		},
	}
	require.NoError(t, valid.Validate())

	dupCode := valid
	dupCode.Courses = append([]Course{}, valid.Courses...)
	dupCode.Courses[1].Code = "ECO-1"
	err := dupCode.Validate()
	require.Error(t, err)
	assert.True(t, shared.IsAlreadyExists(err))

	negative := CareerImport{CareerName: "X", Courses: []Course{{ID: "1", Code: "X", Credits: -1}}}
	assert.True(t, shared.IsValidation(negative.Validate()))

	assert.True(t, shared.IsValidation(CareerImport{}.Validate()))
}
