package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
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

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "curriculum.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func importSample(t *testing.T, store *Store) string {
	t.Helper()
	careerID, err := store.ImportCareer(context.Background(), curriculum.CareerImport{
		CareerName: "Ingeniería",
		Courses: []curriculum.Course{
			{ID: "A", Code: "MAT-1", Title: "Cálculo", Credits: 6, Semester: 1, Area: "math"},
			{ID: "B", Code: "FIS-1", Credits: 4, Semester: 1},
			{ID: "C", Code: "MAT-2", Credits: 6, Semester: 2, Prerequisites: []curriculum.CourseID{"A"}},
			{ID: "D", Code: "EXT-0", Credits: 3, Prerequisites: []curriculum.CourseID{"X", "A"}},
		},
	})
	require.NoError(t, err)
	return careerID
}

func TestStore_ImportAndReadCatalog(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	careerID := importSample(t, store)

	catalog, err := store.GetCatalog(ctx, careerID)
	require.NoError(t, err)
	assert.Equal(t, "Ingeniería", catalog.CareerName)
	assert.Equal(t, 4, catalog.Len())

	d, ok := catalog.Course("D")
	require.True(t, ok)
	assert.Zero(t, d.Semester)
	assert.Equal(t, []curriculum.CourseID{"A", "X"}, d.Prerequisites)

	a, _ := catalog.Course("A")
	assert.Equal(t, "math", a.Area)
	assert.Empty(t, a.Prerequisites)

	prereqs, err := store.GetPrerequisites(ctx, "C")
	require.NoError(t, err)
	assert.Equal(t, []curriculum.CourseID{"A"}, prereqs)

	prereqs, err = store.GetPrerequisites(ctx, "NOPE")
	require.NoError(t, err)
	assert.NotNil(t, prereqs)
	assert.Empty(t, prereqs)

	_, err = store.GetCatalog(ctx, "missing")
	assert.ErrorIs(t, err, shared.ErrCareerNotFound)
}

func TestStore_ReimportReplacesPrerequisites(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	careerID := importSample(t, store)

	again, err := store.ImportCareer(ctx, curriculum.CareerImport{
		CareerName: "Ingeniería",
		Courses: []curriculum.Course{
			{ID: "C", Code: "MAT-2", Credits: 8, Semester: 2, Prerequisites: []curriculum.CourseID{"B"}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, careerID, again)

	courses, err := store.GetCourses(ctx, []curriculum.CourseID{"C", "ghost"})
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, 8, courses[0].Credits)
	assert.Equal(t, []curriculum.CourseID{"B"}, courses[0].Prerequisites)
}

func TestStore_ImportLargeCareerInChunks(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	courses := make([]curriculum.Course, ImportChunkSize*2+7)
	for i := range courses {
		courses[i] = curriculum.Course{
			ID:      curriculum.CourseID(fmt.Sprintf("C%04d", i)),
			Code:    fmt.Sprintf("CODE-%04d", i),
			Credits: 1,
		}
	}

	careerID, err := store.ImportCareer(ctx, curriculum.CareerImport{CareerName: "Big", Courses: courses})
	require.NoError(t, err)

	catalog, err := store.GetCatalog(ctx, careerID)
	require.NoError(t, err)
	assert.Equal(t, len(courses), catalog.Len())
}

func TestStore_StudentsAndProgress(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	careerID := importSample(t, store)

	require.NoError(t, store.Upsert(ctx, progress.Student{ID: studentB, Email: "Zed@Example.com", CareerID: careerID}))
	require.NoError(t, store.Upsert(ctx, progress.Student{ID: studentA, Email: "amy@example.com", CurrentSemester: 2}))

	all, err := store.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, studentA, all[0].ID)
	assert.Equal(t, "zed@example.com", all[1].Email)
	assert.Equal(t, careerID, all[1].CareerID)

	page, err := store.List(ctx, shared.NewPagination(2, 1))
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, studentB, page[0].ID)

	err = store.Upsert(ctx, progress.Student{ID: studentA, Email: "zed@example.com"})
	assert.True(t, shared.IsAlreadyExists(err))

	assert.ErrorIs(t, store.Upsert(ctx, progress.Student{ID: "bad", Email: "x@example.com"}), shared.ErrInvalidID)

	_, err = store.GetByID(ctx, "00000000-0000-4000-8000-0000000000ff")
	assert.ErrorIs(t, err, shared.ErrStudentNotFound)
}

func TestStore_ApplyAdvancement(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	importSample(t, store)

	require.NoError(t, store.Upsert(ctx, progress.Student{ID: studentA, Email: "a@example.com", CurrentSemester: 2}))
	for _, row := range []progress.CourseProgress{
		{CourseID: "A", Status: progress.StatusPassed},
		{CourseID: "B", Status: progress.StatusEnrolled},
		{CourseID: "C", Status: progress.StatusPlanned},
	} {
		row.StudentID = studentA
		require.NoError(t, store.SetStatus(ctx, row))
	}

	// A is already passed and is not promoted again.
	semester, promoted, err := store.ApplyAdvancement(ctx, progress.Advancement{
		StudentID: studentA,
		CourseIDs: []curriculum.CourseID{"A", "B"},
		Term:      7,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, semester)
	assert.Equal(t, 1, promoted)

	rows, err := store.GetProgress(ctx, studentA)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Nil(t, rows[0].TermTaken)
	assert.Equal(t, progress.StatusPassed, rows[1].Status)
	require.NotNil(t, rows[1].TermTaken)
	assert.Equal(t, 7, *rows[1].TermTaken)
	assert.Equal(t, progress.StatusPlanned, rows[2].Status)

	_, _, err = store.ApplyAdvancement(ctx, progress.Advancement{StudentID: studentB, Term: 7})
	assert.ErrorIs(t, err, shared.ErrStudentNotFound)
}

func TestStore_LegacyStatusesAreNormalized(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, progress.Student{ID: studentA, Email: "a@example.com"}))
	_, err := store.db.ExecContext(ctx,
		`INSERT INTO student_courses (student_id, course_id, status) VALUES (?, 'A', 'Aprobada'), (?, 'B', 'ENROLLED')`,
		studentA.String(), studentA.String(),
	)
	require.NoError(t, err)

	rows, err := store.GetProgress(ctx, studentA)
	require.NoError(t, err)
	assert.Equal(t, progress.StatusPassed, rows[0].Status)
	assert.Equal(t, progress.StatusEnrolled, rows[1].Status)

	// Legacy enrolled rows are still promoted.
	_, promoted, err := store.ApplyAdvancement(ctx, progress.Advancement{
		StudentID: studentA, CourseIDs: []curriculum.CourseID{"B"}, Term: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, promoted)

	_, err = store.db.ExecContext(ctx,
		`INSERT INTO student_courses (student_id, course_id, status) VALUES (?, 'C', 'failed')`, studentA.String())
	require.NoError(t, err)
	_, err = store.GetProgress(ctx, studentA)
	assert.ErrorIs(t, err, shared.ErrUnknownStatus)
}

func TestStore_ResetProgress(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, progress.Student{ID: studentA, Email: "a@example.com", CurrentSemester: 4}))
	require.NoError(t, store.SetStatus(ctx, progress.CourseProgress{StudentID: studentA, CourseID: "A", Status: progress.StatusPassed}))
	require.NoError(t, store.SetStatus(ctx, progress.CourseProgress{StudentID: studentA, CourseID: "B", Status: progress.StatusPlanned}))

	removed, err := store.ResetProgress(ctx, studentA)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	st, err := store.GetByID(ctx, studentA)
	require.NoError(t, err)
	assert.Zero(t, st.CurrentSemester)

	_, err = store.ResetProgress(ctx, studentB)
	assert.ErrorIs(t, err, shared.ErrStudentNotFound)
}

func TestStore_GlobalTerm(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	term, err := store.Current(ctx)
	require.NoError(t, err)
	assert.Zero(t, term)

	next, err := store.Advance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, next)

	require.NoError(t, store.Set(ctx, 12))
	term, _ = store.Current(ctx)
	assert.Equal(t, 12, term)

	_, err = store.db.ExecContext(ctx, `DELETE FROM semester_control`)
	require.NoError(t, err)
	_, err = store.Advance(ctx)
	assert.ErrorIs(t, err, shared.ErrTermNotInitialized)
	_, err = store.Current(ctx)
	assert.ErrorIs(t, err, shared.ErrTermNotInitialized)
}
