package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/curriculum-hub/internal/domain/curriculum"
	"github.com/alem-hub/curriculum-hub/internal/domain/progress"
	"github.com/alem-hub/curriculum-hub/internal/domain/shared"
)

func seedRecomputeStore() *memStore {
	store := newMemStore(7)
	store.addCourse(curriculum.Course{ID: "C1", Code: "A1", Credits: 6, Semester: 1})
	store.addCourse(curriculum.Course{ID: "C2", Code: "A2", Credits: 6, Semester: 1})
	store.addCourse(curriculum.Course{ID: "C3", Code: "A3", Credits: 6, Semester: 2})
	store.addCourse(curriculum.Course{ID: "C4", Code: "A4", Credits: 10, Semester: 2})
	store.addCourse(curriculum.Course{ID: "C5", Code: "A5", Credits: 10, Semester: 3})

	store.addStudent(progress.Student{ID: studentA, Email: "a@uni.edu", CurrentSemester: 9},
		progress.CourseProgress{CourseID: "C1", Status: progress.StatusPassed},
		progress.CourseProgress{CourseID: "C2", Status: progress.StatusPassed},
		progress.CourseProgress{CourseID: "C3", Status: progress.StatusPassed},
		progress.CourseProgress{CourseID: "C4", Status: progress.StatusPlanned},
	)
	store.addStudent(progress.Student{ID: studentB, Email: "b@uni.edu", CurrentSemester: 3},
		progress.CourseProgress{CourseID: "C4", Status: progress.StatusPassed},
		progress.CourseProgress{CourseID: "C5", Status: progress.StatusPassed},
	)
	return store
}

func newRecomputeHandler(store *memStore, locker progress.Locker, pub shared.EventPublisher) *RecomputeSemesterHandler {
	return NewRecomputeSemesterHandler(locker, store, store, store, pub, nil, RecomputeSemesterHandlerConfig{Workers: 2})
}

func TestRecomputeSemester_OverwritesCounter(t *testing.T) {
	store := seedRecomputeStore()
	pub := &recordingPublisher{}
	handler := newRecomputeHandler(store, newMemLocker(), pub)

	result, err := handler.Handle(context.Background(), RecomputeSemesterCommand{StudentID: studentA.String()})
	require.NoError(t, err)

	// 6,6,6 -> one semester; planned C4 is ignored.
	assert.Equal(t, 1, result.CurrentSemester)
	assert.Equal(t, 9, result.OldSemester)
	assert.Equal(t, 3, result.PassedCourses)
	assert.True(t, result.Changed)
	assert.Equal(t, 1, store.semester(studentA))
	assert.Equal(t, []shared.EventType{shared.EventSemesterRecomputed}, pub.types())
}

func TestRecomputeSemester_NoPartialCredit(t *testing.T) {
	store := seedRecomputeStore()
	handler := newRecomputeHandler(store, newMemLocker(), nil)

	result, err := handler.Handle(context.Background(), RecomputeSemesterCommand{StudentID: studentB.String()})
	require.NoError(t, err)

	// 10 + 10 never forms a semester.
	assert.Equal(t, 0, result.CurrentSemester)
	assert.Equal(t, 0, store.semester(studentB))
}

func TestRecomputeSemester_Validation(t *testing.T) {
	handler := newRecomputeHandler(seedRecomputeStore(), newMemLocker(), nil)

	_, err := handler.Handle(context.Background(), RecomputeSemesterCommand{StudentID: "bad"})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))

	_, err = handler.Handle(context.Background(), RecomputeSemesterCommand{StudentID: studentC.String()})
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}

func TestRecomputeSemester_HandleAll(t *testing.T) {
	store := seedRecomputeStore()
	handler := newRecomputeHandler(store, newMemLocker(), nil)

	result, err := handler.HandleAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.StudentsTotal)
	assert.Equal(t, 2, result.StudentsChanged)
	assert.Zero(t, result.StudentsFailed)
	require.Len(t, result.Results, 2)
	assert.Equal(t, studentA, result.Results[0].StudentID)
	assert.Equal(t, 1, store.semester(studentA))
	assert.Equal(t, 0, store.semester(studentB))
}

func TestRecomputeSemester_SharesLockWithAdvancement(t *testing.T) {
	store := seedRecomputeStore()
	locker := newMemLocker()
	release, err := locker.Acquire(context.Background(), progress.ProgressionLockKey, 0)
	require.NoError(t, err)
	defer release()

	handler := newRecomputeHandler(store, locker, nil)
	_, err = handler.HandleAll(context.Background())
	assert.ErrorIs(t, err, shared.ErrAdvancementInProgress)
	assert.Equal(t, 9, store.semester(studentA))
}

func TestNewRecomputeSemesterHandler_Defaults(t *testing.T) {
	store := seedRecomputeStore()
	handler := NewRecomputeSemesterHandler(newMemLocker(), store, store, store, nil, nil, RecomputeSemesterHandlerConfig{})

	assert.Equal(t, DefaultRecomputeSemesterHandlerConfig(), handler.config)

	custom := NewRecomputeSemesterHandler(newMemLocker(), store, store, store, nil, nil,
		RecomputeSemesterHandlerConfig{Workers: 1, LockTTL: time.Second})
	assert.Equal(t, 1, custom.config.Workers)
	assert.Equal(t, time.Second, custom.config.LockTTL)
}
