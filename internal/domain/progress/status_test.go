package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/curriculum-hub/internal/domain/curriculum"
	"github.com/alem-hub/curriculum-hub/internal/domain/shared"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want Status
	}{
		{"passed", StatusPassed},
		{"PASSED", StatusPassed},
		{" Aprobada ", StatusPassed},
		{"approved", StatusPassed},
		{"planned", StatusPlanned},
		{"Enrolled", StatusEnrolled},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseStatus(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseStatus_Unknown(t *testing.T) {
	for _, raw := range []string{"", "failed", "pass"} {
		_, err := ParseStatus(raw)
		require.Error(t, err, raw)
		assert.ErrorIs(t, err, shared.ErrUnknownStatus)
		assert.True(t, shared.IsValidation(err))
	}
}

func TestStatusPredicates(t *testing.T) {
	assert.True(t, StatusPassed.IsPassed())
	assert.False(t, StatusPassed.IsPending())
	assert.True(t, StatusPlanned.IsPending())
	assert.True(t, StatusEnrolled.IsPending())
	assert.False(t, Status("aprobada").IsValid())
}

func TestRowHelpers(t *testing.T) {
	rows := []CourseProgress{
		{CourseID: "A", Status: StatusPassed},
		{CourseID: "B", Status: StatusPlanned},
		{CourseID: "C", Status: StatusEnrolled},
		{CourseID: "D", Status: StatusPassed},
	}

	assert.Equal(t, []curriculum.CourseID{"A", "D"}, PassedSet(rows).IDs())
	assert.Equal(t, []curriculum.CourseID{"A", "D"}, PassedIDs(rows))
	assert.Equal(t, []curriculum.CourseID{"B", "C"}, PendingIDs(rows))
}

func TestStudentValidate(t *testing.T) {
	valid := Student{ID: "0b6f7a52-5f5e-4d6c-9a43-0a9b3f2d1c10", Email: "ana@uni.edu"}
	require.NoError(t, valid.Validate())

	bad := valid
	bad.ID = "42"
	assert.True(t, shared.IsValidation(bad.Validate()))

	bad = valid
	bad.CurrentSemester = -1
	assert.True(t, shared.IsValidation(bad.Validate()))
}
