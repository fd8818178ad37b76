package apperr

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", NotFound("Order not found"), http.StatusNotFound},
		{"unauthorized", Unauthorized("Not authorized, no token"), http.StatusUnauthorized},
		{"validation", Validation("No order items"), http.StatusBadRequest},
		{"internal", Internal(errors.New("boom"), "failed"), http.StatusInternalServerError},
		{"plain error", errors.New("plain"), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("load: %w", NotFound("User not found")), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Status(tt.err))
		})
	}
}

func TestErrorFormat(t *testing.T) {
	err := Validation("User already exists")

	assert.Equal(t, "User already exists", err.Error())
	assert.Equal(t, "User already exists", fmt.Sprintf("%v", err))

	verbose := fmt.Sprintf("%+v", err)
	assert.Contains(t, verbose, "User already exists")
	assert.Contains(t, verbose, "apperr_test.go")
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", Unauthorized("Not authorized as an admin"))

	assert.True(t, Is(err, KindUnauthorized))
	assert.False(t, Is(err, KindNotFound))
	assert.False(t, Is(errors.New("x"), KindUnauthorized))
}
