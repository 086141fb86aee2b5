package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Category
	}{
		{"tagged network", New(CategoryNetwork, "timeout"), CategoryNetwork},
		{"wrapped deep", fmt.Errorf("op: %w", Wrap(errors.New("401"), CategoryAuthentication, "unauthorized")), CategoryAuthentication},
		{"untagged defaults to server", errors.New("boom"), CategoryServer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CategoryOf(tt.err))
		})
	}
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("add item: %w", New(CategoryValidation, "qty out of range"))
	assert.True(t, Is(err, CategoryValidation))
	assert.False(t, Is(err, CategoryNetwork))
	assert.False(t, Is(errors.New("plain"), CategoryServer))
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(New(CategoryNetwork, "timeout")))
	assert.True(t, Retryable(fmt.Errorf("poll: %w", New(CategoryServer, "not assigned yet"))))
	assert.True(t, Retryable(errors.New("untagged")))
	assert.False(t, Retryable(New(CategoryAuthentication, "expired")))
	assert.False(t, Retryable(New(CategoryValidation, "bad field")))
	assert.False(t, Retryable(New(CategoryPayment, "declined")))
}

func TestValidationFields(t *testing.T) {
	err := Validation("invalid address", map[string]string{"zip": "required"})

	fields := FieldsOf(fmt.Errorf("create address: %w", err))
	require.NotNil(t, fields)
	assert.Equal(t, "required", fields["zip"])

	assert.Nil(t, FieldsOf(New(CategoryServer, "oops")))
}

func TestUnwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := Wrap(inner, CategoryNetwork, "fetch cart")
	assert.ErrorIs(t, err, inner)
}

func TestUserMessageNeverEmpty(t *testing.T) {
	for _, cat := range []Category{
		CategoryNetwork, CategoryAuthentication, CategoryValidation,
		CategoryPayment, CategoryServer, CategoryStorage,
	} {
		assert.NotEmpty(t, UserMessage(New(cat, "x")))
	}
}
