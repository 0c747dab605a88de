package api

import (
	"strconv"

	"github.com/farmtofork/farmtofork/backend/market-service/internal/models"
	"github.com/gin-gonic/gin"
)

// respondError writes the uniform error envelope for an AppError
func respondError(c *gin.Context, err *models.AppError) {
	c.JSON(err.Kind.HTTPStatus(), models.ErrorResponse{
		Error:   string(err.Kind),
		Message: err.Message,
		Details: err.Details,
	})
}

// internalError translates a lower-level failure into the taxonomy. Raw error
// details are only exposed outside release builds; the effective gin mode is
// authoritative, not the environment variable it was derived from.
func internalError(message string, cause error) *models.AppError {
	appErr := models.NewAppError(models.ErrInternal, message)
	if cause != nil && gin.Mode() != gin.ReleaseMode {
		appErr.Details = []string{cause.Error()}
	}
	return appErr
}

// unauthenticated is the shared failure for handlers that could not resolve
// the caller's identity from the token claims
func unauthenticated() *models.AppError {
	return models.NewAppError(models.ErrUnauthenticated, "Could not extract user identity from token")
}

// parseIDParam reads a positive integer URL parameter, responding with a
// validation error itself when the value is malformed
func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, models.NewAppError(models.ErrValidation, "Invalid URL parameter", name+" must be a positive integer"))
		return 0, false
	}
	return id, true
}
