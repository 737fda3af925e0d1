package response

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Is(t *testing.T) {
	notFound := NewError(http.StatusNotFound, "job not found")

	assert.ErrorIs(t, fmt.Errorf("lookup: %w", notFound), NewError(http.StatusNotFound, "job not found"))
	assert.NotErrorIs(t, notFound, NewError(http.StatusBadRequest, "job not found"))
	assert.NotErrorIs(t, notFound, errors.New("job not found"))
}

func TestStatusOf(t *testing.T) {
	code, ok := StatusOf(fmt.Errorf("wrapped: %w", NewError(http.StatusConflict, "job already finished")))
	assert.True(t, ok)
	assert.Equal(t, http.StatusConflict, code)

	_, ok = StatusOf(errors.New("plain"))
	assert.False(t, ok)
}
