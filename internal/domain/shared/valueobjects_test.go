package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStudentID(t *testing.T) {
	id, err := NewStudentID("  6F1C2B9E-4A51-4C0B-9B7B-2D6E0F0A1B2C ")
	require.NoError(t, err)
	assert.Equal(t, StudentID("6f1c2b9e-4a51-4c0b-9b7b-2d6e0f0a1b2c"), id)
	assert.True(t, id.IsValid())

	_, err = NewStudentID("not-a-uuid")
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	assert.True(t, GenerateStudentID().IsValid())
}

func TestNewEmail(t *testing.T) {
	email, err := NewEmail(" Ana.Perez@Uni.EDU ")
	require.NoError(t, err)
	assert.Equal(t, Email("ana.perez@uni.edu"), email)

	_, err = NewEmail("Ana <ana@uni.edu>")
	assert.Error(t, err)

	_, err = NewEmail("nope")
	assert.Error(t, err)
}

func TestPagination(t *testing.T) {
	tests := []struct {
		name       string
		page, size int
		wantOffset int
		wantLimit  int
	}{
		{"defaults", 0, 0, 0, DefaultPageSize},
		{"second page", 2, 10, 10, 10},
		{"clamped size", 1, 10_000, 0, MaxPageSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPagination(tt.page, tt.size)
			assert.Equal(t, tt.wantOffset, p.Offset())
			assert.Equal(t, tt.wantLimit, p.Limit())
		})
	}
}

func TestDomainError_Is(t *testing.T) {
	err := WrapError("term", "Advance", ErrServiceUnavailable, "db down", assert.AnError)
	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.ErrorIs(t, err, assert.AnError)
	assert.True(t, IsRetryable(err))
	assert.False(t, IsNotFound(err))

	assert.True(t, IsNotFound(ErrStudentNotFound))
	assert.True(t, IsConflict(ErrAdvancementInProgress))
	assert.True(t, IsValidation(ErrInvalidCreditCap))
}
