package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/curriculum-hub/internal/domain/curriculum"
	"github.com/alem-hub/curriculum-hub/internal/domain/progress"
	"github.com/alem-hub/curriculum-hub/internal/domain/shared"
)

func TestSetGlobalTerm(t *testing.T) {
	store := seedAdvanceStore()
	pub := &recordingPublisher{}
	handler := NewSetGlobalTermHandler(newMemLocker(), store, pub, nil)

	result, err := handler.Handle(context.Background(), SetGlobalTermCommand{Value: 10})
	require.NoError(t, err)
	assert.Equal(t, 10, result.GlobalSemester)

	term, _ := store.Current(context.Background())
	assert.Equal(t, 10, term)
	// Student counters are not touched.
	assert.Equal(t, 2, store.semester(studentA))
	assert.Equal(t, []shared.EventType{shared.EventGlobalTermSet}, pub.types())

	_, err = handler.Handle(context.Background(), SetGlobalTermCommand{Value: -1})
	assert.True(t, shared.IsValidation(err))
}

func TestResetProgress(t *testing.T) {
	store := seedAdvanceStore()
	handler := NewResetProgressHandler(store, store, nil, nil)

	result, err := handler.Handle(context.Background(), ResetProgressCommand{StudentID: studentA.String()})
	require.NoError(t, err)
	assert.Equal(t, int64(4), result.RemovedCourses)
	assert.Equal(t, 0, store.semester(studentA))

	rows, _ := store.GetProgress(context.Background(), studentA)
	assert.Empty(t, rows)

	_, err = handler.Handle(context.Background(), ResetProgressCommand{StudentID: "00000000-0000-4000-8000-0000000000ff"})
	assert.True(t, shared.IsNotFound(err))
}

func TestSetCourseStatus_NormalizesAtBoundary(t *testing.T) {
	store := seedAdvanceStore()
	pub := &recordingPublisher{}
	handler := NewSetCourseStatusHandler(store, store, store, pub, nil)

	row, err := handler.Handle(context.Background(), SetCourseStatusCommand{
		StudentID: studentB.String(),
		CourseID:  "P1",
		Status:    " Aprobada ",
	})
	require.NoError(t, err)
	assert.Equal(t, progress.StatusPassed, row.Status)
	assert.Equal(t, progress.StatusPassed, store.row(studentB, "P1").Status)
	assert.Equal(t, []shared.EventType{shared.EventCourseStatusChanged}, pub.types())
}

func TestSetCourseStatus_Rejections(t *testing.T) {
	store := seedAdvanceStore()
	handler := NewSetCourseStatusHandler(store, store, store, nil, nil)

	_, err := handler.Handle(context.Background(), SetCourseStatusCommand{
		StudentID: studentB.String(), CourseID: "P1", Status: "failed",
	})
	assert.ErrorIs(t, err, shared.ErrUnknownStatus)

	_, err = handler.Handle(context.Background(), SetCourseStatusCommand{
		StudentID: studentB.String(), CourseID: "NOPE", Status: "planned",
	})
	assert.ErrorIs(t, err, shared.ErrCourseNotFound)

	_, err = handler.Handle(context.Background(), SetCourseStatusCommand{
		StudentID: "00000000-0000-4000-8000-0000000000ff", CourseID: "P1", Status: "planned",
	})
	assert.ErrorIs(t, err, shared.ErrStudentNotFound)
}

type rejectingValidator struct{ err error }

func (v rejectingValidator) ValidateImport(curriculum.CareerImport) error { return v.err }

func TestImportCareer(t *testing.T) {
	store := newMemStore(0)
	pub := &recordingPublisher{}
	handler := NewImportCareerHandler(store, nil, pub, nil)

	data := curriculum.CareerImport{
		CareerName: "Economía",
		Courses: []curriculum.Course{
			{ID: "E1", Code: "ECO-1", Credits: 4, Semester: 1},
			{ID: "E2", Code: "ECO-2", Credits: 4, Semester: 2, Prerequisites: []curriculum.CourseID{"E1"}},
		},
	}

	result, err := handler.Handle(context.Background(), ImportCareerCommand{Data: data})
	require.NoError(t, err)
	assert.Equal(t, "career-Economía", result.CareerID)
	assert.Equal(t, 2, result.CourseCount)
	assert.Equal(t, 1, result.Prereqs)
	assert.Equal(t, []shared.EventType{shared.EventCareerImported}, pub.types())
	assert.Len(t, store.imports, 1)
}

func TestImportCareer_ValidatorBlocksWrite(t *testing.T) {
	store := newMemStore(0)
	handler := NewImportCareerHandler(store, rejectingValidator{err: shared.ErrPrerequisiteCycle}, nil, nil)

	_, err := handler.Handle(context.Background(), ImportCareerCommand{Data: curriculum.CareerImport{
		CareerName: "X",
		Courses:    []curriculum.Course{{ID: "A", Code: "A"}},
	}})
	assert.ErrorIs(t, err, shared.ErrPrerequisiteCycle)
	assert.Empty(t, store.imports)

	_, err = handler.Handle(context.Background(), ImportCareerCommand{})
	assert.True(t, shared.IsValidation(err))
}

type careerSet map[string]bool

func (c careerSet) GetCatalog(_ context.Context, careerID string) (*curriculum.Catalog, error) {
	if !c[careerID] {
		return nil, shared.ErrCareerNotFound
	}
	return curriculum.NewCatalog(careerID, careerID, nil), nil
}

func TestRegisterStudent(t *testing.T) {
	store := seedAdvanceStore()
	pub := &recordingPublisher{}
	handler := NewRegisterStudentHandler(store, careerSet{"career-1": true}, pub, nil)
	ctx := context.Background()

	created, err := handler.Handle(ctx, RegisterStudentCommand{Email: " New@Example.com ", Name: "Nova", CareerID: "career-1"})
	require.NoError(t, err)
	assert.True(t, created.ID.IsValid())
	assert.Equal(t, "new@example.com", created.Email)
	assert.Equal(t, 0, created.CurrentSemester)
	assert.Equal(t, []shared.EventType{shared.EventStudentRegistered}, pub.types())

	// Updating an existing student keeps the counter.
	updated, err := handler.Handle(ctx, RegisterStudentCommand{StudentID: studentA.String(), Email: "a@example.com", Name: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.CurrentSemester)
	assert.Equal(t, 2, store.semester(studentA))

	_, err = handler.Handle(ctx, RegisterStudentCommand{Email: "x@example.com", CareerID: "nope"})
	assert.True(t, shared.IsNotFound(err))

	_, err = handler.Handle(ctx, RegisterStudentCommand{Email: "not-an-email"})
	assert.True(t, shared.IsValidation(err))

	_, err = handler.Handle(ctx, RegisterStudentCommand{StudentID: "bad", Email: "x@example.com"})
	assert.True(t, shared.IsValidation(err))
}
