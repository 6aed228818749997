package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/curriculum-hub/internal/domain/curriculum"
	"github.com/alem-hub/curriculum-hub/internal/domain/progress"
	"github.com/alem-hub/curriculum-hub/internal/domain/shared"
)

const (
	studentA = shared.StudentID("00000000-0000-4000-8000-00000000000a")
	studentB = shared.StudentID("00000000-0000-4000-8000-00000000000b")
)

// fakeStore serves catalog, student and progress reads from fixed data.
type fakeStore struct {
	careers  map[string]*curriculum.Catalog
	students []progress.Student
	rows     map[shared.StudentID][]progress.CourseProgress
	term     *int
}

func (f *fakeStore) GetCatalog(ctx context.Context, careerID string) (*curriculum.Catalog, error) {
	c, ok := f.careers[careerID]
	if !ok {
		return nil, shared.ErrCareerNotFound
	}
	return c, nil
}

func (f *fakeStore) GetCourses(ctx context.Context, ids []curriculum.CourseID) ([]curriculum.Course, error) {
	var out []curriculum.Course
	for _, c := range f.careers {
		out = append(out, c.Lookup(ids)...)
	}
	return out, nil
}

func (f *fakeStore) GetPrerequisites(ctx context.Context, id curriculum.CourseID) ([]curriculum.CourseID, error) {
	for _, c := range f.careers {
		if course, ok := c.Course(id); ok {
			return course.Prerequisites, nil
		}
	}
	return []curriculum.CourseID{}, nil
}

func (f *fakeStore) ImportCareer(ctx context.Context, data curriculum.CareerImport) (string, error) {
	return "", nil
}

func (f *fakeStore) GetByID(ctx context.Context, id shared.StudentID) (*progress.Student, error) {
	for i := range f.students {
		if f.students[i].ID == id {
			s := f.students[i]
			return &s, nil
		}
	}
	return nil, shared.ErrStudentNotFound
}

func (f *fakeStore) List(ctx context.Context, page shared.Pagination) ([]progress.Student, error) {
	start := page.Offset()
	if start >= len(f.students) {
		return nil, nil
	}
	end := start + page.Limit()
	if end > len(f.students) {
		end = len(f.students)
	}
	return f.students[start:end], nil
}

func (f *fakeStore) All(ctx context.Context) ([]progress.Student, error) { return f.students, nil }

func (f *fakeStore) Upsert(ctx context.Context, s progress.Student) error { return nil }

func (f *fakeStore) SetCurrentSemester(ctx context.Context, id shared.StudentID, value int) error {
	return nil
}

func (f *fakeStore) GetProgress(ctx context.Context, id shared.StudentID) ([]progress.CourseProgress, error) {
	return f.rows[id], nil
}

func (f *fakeStore) SetStatus(ctx context.Context, row progress.CourseProgress) error { return nil }

func (f *fakeStore) ResetProgress(ctx context.Context, id shared.StudentID) (int64, error) {
	return 0, nil
}

func (f *fakeStore) ApplyAdvancement(ctx context.Context, adv progress.Advancement) (int, int, error) {
	return 0, 0, nil
}

func (f *fakeStore) Current(ctx context.Context) (int, error) {
	if f.term == nil {
		return 0, shared.ErrTermNotInitialized
	}
	return *f.term, nil
}

func (f *fakeStore) Advance(ctx context.Context) (int, error) { return 0, nil }

func (f *fakeStore) Set(ctx context.Context, value int) error { return nil }

func seedStore() *fakeStore {
	catalog := curriculum.NewCatalog("career-1", "Ingeniería", []curriculum.Course{
		{ID: "A", Code: "A-1", Credits: 6, Semester: 1},
		{ID: "B", Code: "B-1", Credits: 6, Semester: 1},
		{ID: "C", Code: "C-2", Credits: 6, Semester: 2, Prerequisites: []curriculum.CourseID{"A"}},
		{ID: "D", Code: "D-3", Credits: 6, Semester: 3, Prerequisites: []curriculum.CourseID{"A", "C"}},
	})
	term := 5
	return &fakeStore{
		careers: map[string]*curriculum.Catalog{"career-1": catalog},
		students: []progress.Student{
			{ID: studentA, Email: "a@example.com", CareerID: "career-1", CurrentSemester: 1},
			{ID: studentB, Email: "b@example.com"},
		},
		rows: map[shared.StudentID][]progress.CourseProgress{
			studentA: {
				{StudentID: studentA, CourseID: "A", Status: progress.StatusPassed},
				{StudentID: studentA, CourseID: "B", Status: progress.StatusEnrolled},
			},
		},
		term: &term,
	}
}

func TestGetAvailableCourses(t *testing.T) {
	store := seedStore()
	handler := NewGetAvailableCoursesHandler(store, store, store)

	dto, err := handler.Handle(context.Background(), GetAvailableCoursesQuery{StudentID: studentA.String()})
	require.NoError(t, err)

	assert.Equal(t, "career-1", dto.CareerID)
	assert.Equal(t, 2, dto.Count)
	assert.Equal(t, curriculum.CourseID("B"), dto.Items[0].ID)
	assert.Equal(t, curriculum.CourseID("C"), dto.Items[1].ID)
}

func TestGetAvailableCourses_CareerRequired(t *testing.T) {
	store := seedStore()
	handler := NewGetAvailableCoursesHandler(store, store, store)

	_, err := handler.Handle(context.Background(), GetAvailableCoursesQuery{StudentID: studentB.String()})
	assert.True(t, shared.IsValidation(err))

	dto, err := handler.Handle(context.Background(), GetAvailableCoursesQuery{StudentID: studentB.String(), CareerID: "career-1"})
	require.NoError(t, err)
	assert.Equal(t, 2, dto.Count)

	_, err = handler.Handle(context.Background(), GetAvailableCoursesQuery{StudentID: studentB.String(), CareerID: "missing"})
	assert.ErrorIs(t, err, shared.ErrCareerNotFound)

	_, err = handler.Handle(context.Background(), GetAvailableCoursesQuery{StudentID: "not-a-uuid"})
	assert.True(t, shared.IsValidation(err))
}

func TestSuggestNextSemester(t *testing.T) {
	store := seedStore()
	handler := NewSuggestNextSemesterHandler(store, store, store, 0)

	dto, err := handler.Handle(context.Background(), SuggestNextSemesterQuery{StudentID: studentA.String()})
	require.NoError(t, err)
	assert.Equal(t, curriculum.DefaultCreditCap, dto.CreditCap)
	assert.Equal(t, 12, dto.TotalCredits)

	small := 6
	dto, err = handler.Handle(context.Background(), SuggestNextSemesterQuery{StudentID: studentA.String(), MaxCredits: &small})
	require.NoError(t, err)
	assert.Equal(t, []curriculum.CourseID{"B"}, dto.CourseIDs())

	zero := 0
	dto, err = handler.Handle(context.Background(), SuggestNextSemesterQuery{StudentID: studentA.String(), MaxCredits: &zero})
	require.NoError(t, err)
	assert.True(t, dto.IsEmpty())

	negative := -1
	_, err = handler.Handle(context.Background(), SuggestNextSemesterQuery{StudentID: studentA.String(), MaxCredits: &negative})
	assert.ErrorIs(t, err, shared.ErrInvalidCreditCap)
}

func TestValidatePrerequisites(t *testing.T) {
	store := seedStore()
	handler := NewValidatePrerequisitesHandler(store, store)

	dto, err := handler.Handle(context.Background(), ValidatePrerequisitesQuery{StudentID: studentA.String(), CourseID: "D"})
	require.NoError(t, err)
	assert.False(t, dto.OK)
	assert.Equal(t, []curriculum.CourseID{"C"}, dto.Missing)

	dto, err = handler.Handle(context.Background(), ValidatePrerequisitesQuery{StudentID: studentA.String(), CourseID: "C"})
	require.NoError(t, err)
	assert.True(t, dto.OK)
	assert.NotNil(t, dto.Missing)
	assert.Empty(t, dto.Missing)

	_, err = handler.Handle(context.Background(), ValidatePrerequisitesQuery{StudentID: studentA.String()})
	assert.True(t, shared.IsValidation(err))
}

func TestGetGlobalTerm(t *testing.T) {
	store := seedStore()
	dto, err := NewGetGlobalTermHandler(store).Handle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, dto.GlobalSemester)

	store.term = nil
	_, err = NewGetGlobalTermHandler(store).Handle(context.Background())
	assert.ErrorIs(t, err, shared.ErrTermNotInitialized)
}

func TestListStudents(t *testing.T) {
	store := seedStore()
	handler := NewListStudentsHandler(store)

	dto, err := handler.Handle(context.Background(), ListStudentsQuery{PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, dto.Page)
	assert.Equal(t, 1, dto.Count)
	assert.Equal(t, studentA, dto.Items[0].ID)

	dto, err = handler.Handle(context.Background(), ListStudentsQuery{Page: 3, PageSize: 1})
	require.NoError(t, err)
	assert.NotNil(t, dto.Items)
	assert.Zero(t, dto.Count)
}
