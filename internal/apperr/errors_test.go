package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/sbms/facilities-server/internal/apperr"
	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: http.StatusOK},
		{name: "validation", err: apperr.NewValidationError(errors.New("title is required")), want: http.StatusBadRequest},
		{name: "wrapped not found", err: apperr.NotFoundf("complaint %d", 7), want: http.StatusNotFound},
		{name: "permission", err: fmt.Errorf("update: %w", apperr.ErrPermissionDenied), want: http.StatusForbidden},
		{name: "unauthenticated", err: apperr.ErrUnauthenticated, want: http.StatusUnauthorized},
		{name: "connectivity", err: fmt.Errorf("query: %w", apperr.ErrConnectivity), want: http.StatusServiceUnavailable},
		{name: "unknown", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperr.Status(tt.err))
		})
	}
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Complaint 7: not found", apperr.Message(apperr.NotFoundf("complaint %d", 7)))
	assert.Equal(t, "Internal server error", apperr.Message(errors.New("pq: secret detail")))
}

func TestStorageErrorUnwraps(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("save image: %w", &apperr.StorageError{Path: "uploads/x.png", Err: cause})

	var serr *apperr.StorageError
	assert.True(t, errors.As(err, &serr))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "uploads/x.png")
}
