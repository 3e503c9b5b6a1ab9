package helpers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"haul-bidding/internal/biddingerrors"
)

func TestMapErrorToHTTP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err    error
		status int
	}{
		{biddingerrors.ErrValidation, http.StatusBadRequest},
		{biddingerrors.ErrDuplicateBid, http.StatusConflict},
		{biddingerrors.ErrWindowClosed, http.StatusGone},
		{biddingerrors.ErrConflict, http.StatusConflict},
		{biddingerrors.ErrForbidden, http.StatusForbidden},
		{biddingerrors.ErrBookingNotFound, http.StatusNotFound},
		{biddingerrors.ErrBidNotFound, http.StatusNotFound},
		{biddingerrors.ErrInvalidTransition, http.StatusConflict},
		{biddingerrors.ErrTransient, http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		wrapped := fmt.Errorf("service: %w - booking b1", tc.err)
		status, msg := MapErrorToHTTP(wrapped)
		require.Equal(t, tc.status, status, tc.err.Error())
		require.NotEmpty(t, msg)
	}
}
