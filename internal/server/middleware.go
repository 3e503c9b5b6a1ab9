package server

import (
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"haul-bidding/services/bidding/helpers"
	"haul-bidding/utils"
)

// RequestLoggerMiddleware logs incoming requests with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	fields := map[string]any{
		"method":  c.Request.Method,
		"path":    c.FullPath(),
		"status":  c.Writer.Status(),
		"latency": time.Since(start).String(),
	}
	if id, ok := helpers.CurrentIdentity(c); ok {
		fields["user_id"] = id.UserID
		fields["role"] = id.Role
	}
	if fields["path"] == "" {
		fields["path"] = c.Request.URL.Path
	}
	utils.Info("HTTP Request", fields)
}

// RequireIdentity reads the caller from the identity headers and rejects the
// request unless it carries a user id and one of roles.
func RequireIdentity(roles ...helpers.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(helpers.HeaderUserID))
		role := helpers.Role(strings.ToLower(strings.TrimSpace(c.GetHeader(helpers.HeaderUserRole))))

		if userID == "" {
			utils.JSONError(c, http.StatusUnauthorized, errors.New("missing "+helpers.HeaderUserID+" header"), "unauthenticated")
			c.Abort()
			return
		}
		if len(roles) > 0 && !slices.Contains(roles, role) {
			utils.JSONError(c, http.StatusForbidden, errors.New("role "+string(role)+" may not call this endpoint"), "forbidden")
			c.Abort()
			return
		}

		helpers.SetIdentity(c, helpers.Identity{UserID: userID, Role: role})
		c.Next()
	}
}
