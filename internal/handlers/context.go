package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ustbian/backend/internal/models"
)

// getUserIDFromContext returns the authenticated user id stored by the
// JWT middleware, or 0 when the request is unauthenticated.
func getUserIDFromContext(c echo.Context) uint {
	claims, ok := c.Get("user").(*models.JwtCustomClaims)
	if !ok {
		return 0
	}
	return claims.UserID
}

// parsePostIDsQuery parses the comma-separated post_ids query parameter
// used by the batch like/saved status endpoints.
func parsePostIDsQuery(c echo.Context) ([]uint, error) {
	var postIDs []uint
	for _, raw := range strings.Split(c.QueryParam("post_ids"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid post_ids parameter")
		}
		postIDs = append(postIDs, uint(id))
	}
	return postIDs, nil
}

// compactUsers maps full user rows to the public compact shape served
// in lists, which never exposes email addresses.
func compactUsers(users []models.User) []models.UserCompact {
	out := make([]models.UserCompact, len(users))
	for i := range users {
		out[i] = users[i].ToCompact()
	}
	return out
}
