package api

import (
	"context"
	"net/http"
	"time"

	"github.com/farmtofork/farmtofork/backend/market-service/internal/db"
	"github.com/farmtofork/farmtofork/backend/market-service/internal/models"
	"github.com/gin-gonic/gin"
)

// EmailDispatcher sends transactional notifications on state transitions.
// Failures are logged as warnings and never fail the primary operation.
type EmailDispatcher interface {
	SendRequestDecision(ctx context.Context, toEmail, firstName, farmName string, status models.RequestStatus) error
}

// IdentityProvider mirrors role decisions onto the external identity provider
type IdentityProvider interface {
	UpdateUserRole(ctx context.Context, userID, role string) error
}

// Handler holds the persistence store and external collaborators and
// provides the HTTP handlers
type Handler struct {
	store    marketStore
	email    EmailDispatcher
	identity IdentityProvider
}

// NewHandler creates a new handler instance backed by Postgres
func NewHandler(database *db.Database, email EmailDispatcher, identity IdentityProvider) *Handler {
	return &Handler{
		store:    &sqlStore{db: database},
		email:    email,
		identity: identity,
	}
}

// Health checks the health of the service
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := h.store.health(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error:   string(models.ErrInternal),
			Message: "Database connection failed",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "market-service",
		"timestamp": time.Now().UTC(),
	})
}

// GetProfile returns the caller's profile row, including the listing linkage
// for onboarded farmers
func (h *Handler) GetProfile(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		respondError(c, unauthenticated())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	profile, err := h.store.getProfile(ctx, userID)
	if err != nil {
		respondError(c, internalError("Failed to get profile", err))
		return
	}
	if profile == nil {
		respondError(c, models.NewAppError(models.ErrNotFound, "Profile not found"))
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    profile,
	})
}
