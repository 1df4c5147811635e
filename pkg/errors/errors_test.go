package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationErrorMatchesInvalidInput(t *testing.T) {
	err := Wrap(NewValidationError("question", "must not be empty", ""), "ask")

	assert.True(t, Is(err, ErrInvalidInput))
	assert.False(t, Is(err, ErrNotFound))

	var ve *ValidationError
	require.True(t, As(err, &ve))
	assert.Equal(t, "question", ve.Field)
}

func TestMultiError(t *testing.T) {
	var m MultiError
	assert.NoError(t, m.ToError())

	m.Add(nil)
	assert.False(t, m.HasErrors())

	m.Add(ErrUnavailable)
	assert.Equal(t, ErrUnavailable.Error(), m.ToError().Error())

	m.Add(NewValidationError("income", "must be non-negative", -1))
	err := m.ToError()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple errors (2)")
	assert.True(t, Is(err, ErrUnavailable))
	assert.True(t, Is(err, ErrInvalidInput))
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, "context"))
	assert.NoError(t, Wrapf(nil, "context %d", 1))
	assert.EqualError(t, Wrapf(ErrTimeout, "step %d", 2), "step 2: "+ErrTimeout.Error())
}
