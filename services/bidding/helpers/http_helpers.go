package helpers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	bidding "haul-bidding/internal/biddingService"
	"haul-bidding/internal/biddingerrors"
	"haul-bidding/utils"
)

// Role is what the caller acts as. Authentication happens upstream; the
// gateway forwards the verified user id and role as headers.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleDriver   Role = "driver"

	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"

	identityKey = "identity"
)

type Identity struct {
	UserID string
	Role   Role
}

// SetIdentity stores the caller on the request context.
func SetIdentity(c *gin.Context, id Identity) {
	c.Set(identityKey, id)
}

// CurrentIdentity returns the caller stored by SetIdentity.
func CurrentIdentity(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, biddingerrors.ErrValidation):
		return http.StatusBadRequest, "invalid request"
	case errors.Is(err, biddingerrors.ErrDuplicateBid):
		return http.StatusConflict, "you already bid on this job"
	case errors.Is(err, biddingerrors.ErrWindowClosed):
		return http.StatusGone, "this opportunity has expired"
	case errors.Is(err, biddingerrors.ErrConflict):
		return http.StatusConflict, "bid may have expired, refresh booking"
	case errors.Is(err, biddingerrors.ErrForbidden):
		return http.StatusForbidden, "not allowed for this booking"
	case errors.Is(err, biddingerrors.ErrBookingNotFound):
		return http.StatusNotFound, "booking not found"
	case errors.Is(err, biddingerrors.ErrBidNotFound):
		return http.StatusNotFound, "bid not found"
	case errors.Is(err, biddingerrors.ErrInvalidTransition):
		return http.StatusConflict, "booking cannot move to that state"
	case errors.Is(err, biddingerrors.ErrTransient), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "temporarily unavailable, try again"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// RespondError writes the error envelope for err and logs it. Server-side
// failures are logged at error level and their details stay out of the body.
func RespondError(c *gin.Context, handlerName string, err error, fields map[string]any) {
	status, message := MapErrorToHTTP(err)

	logFields := map[string]any{"handler": handlerName, "status": status, "error": err.Error()}
	for k, v := range fields {
		logFields[k] = v
	}

	var verrs bidding.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		utils.JSONErrorDetails(c, status, verrs, message, verrs)
	case status >= http.StatusInternalServerError:
		utils.JSONError(c, status, errors.New(message), message)
	default:
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
	}

	if status >= http.StatusInternalServerError {
		utils.Error(handlerName+": request failed", logFields)
		return
	}
	utils.Warn(handlerName+": request rejected", logFields)
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}
