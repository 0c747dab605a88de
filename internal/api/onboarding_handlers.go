package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/farmtofork/farmtofork/backend/market-service/internal/logging"
	"github.com/farmtofork/farmtofork/backend/market-service/internal/models"
	"github.com/farmtofork/farmtofork/backend/market-service/internal/validation"
	"github.com/gin-gonic/gin"
)

// SubmitFarmerRequest creates a pending producer application.
// Validation problems are batch-reported; the pending-uniqueness pre-check is
// advisory and the partial unique index is the actual enforcer.
func (h *Handler) SubmitFarmerRequest(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		respondError(c, unauthenticated())
		return
	}
	email, ok := GetUserEmail(c)
	if !ok {
		respondError(c, unauthenticated())
		return
	}

	var req models.SubmitFarmerRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.NewAppError(models.ErrValidation, "Invalid request body", err.Error()))
		return
	}

	if details := validation.ValidateSubmitFarmerRequest(email, &req); len(details) > 0 {
		respondError(c, models.NewAppError(models.ErrValidation, "Request validation failed", details...))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Fast path for a friendlier error; the unique index catches races.
	pending, err := h.store.hasPendingRequest(ctx, userID)
	if err != nil {
		respondError(c, internalError("Failed to check existing requests", err))
		return
	}
	if pending {
		respondError(c, models.NewAppError(models.ErrConflict, "A pending application already exists for this account"))
		return
	}

	requestID, err := h.store.insertFarmerRequest(ctx, userID, email, &req)
	if err != nil {
		if isUniqueViolation(err) {
			respondError(c, models.NewAppError(models.ErrConflict, "A pending application already exists for this account"))
			return
		}
		respondError(c, internalError("Failed to create farmer request", err))
		return
	}

	// Keep the store-side profile mirror in sync; a failure here must not
	// undo the submitted application.
	if err := h.store.ensureProfile(ctx, userID, email, strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName)); err != nil {
		logging.Warn("failed to ensure profile after request submission", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
	}

	c.JSON(http.StatusCreated, models.SubmitFarmerRequestResponse{
		Success:   true,
		RequestID: requestID,
	})
}

// FinalizeListing completes post-approval onboarding: it fills in the
// provisioned storefront row, optionally publishes it, and bulk-inserts the
// initial product catalog.
func (h *Handler) FinalizeListing(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		respondError(c, unauthenticated())
		return
	}

	var req models.FinalizeListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.NewAppError(models.ErrValidation, "Invalid request body", err.Error()))
		return
	}
	if req.RequestID <= 0 {
		respondError(c, models.NewAppError(models.ErrValidation, "Request validation failed", "requestId must be a positive integer"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	request, err := h.store.getFarmerRequestByID(ctx, req.RequestID)
	if err != nil {
		respondError(c, internalError("Failed to load farmer request", err))
		return
	}
	if request == nil {
		respondError(c, models.NewAppError(models.ErrNotFound, "Farmer request not found"))
		return
	}
	if request.UserID != userID {
		respondError(c, models.NewAppError(models.ErrForbidden, "Only the request owner may finalize the listing"))
		return
	}
	if request.Status != models.RequestStatusApproved {
		respondError(c, models.NewAppError(models.ErrForbidden, "Farmer request is not approved"))
		return
	}

	listing, err := h.store.getListingByOwner(ctx, userID)
	if err != nil {
		respondError(c, internalError("Failed to load listing", err))
		return
	}
	if listing == nil {
		respondError(c, models.NewAppError(models.ErrConflict, "Listing not provisioned for this account"))
		return
	}

	if err := h.store.finalizeListing(ctx, listing, request, &req); err != nil {
		respondError(c, internalError("Failed to finalize listing", err))
		return
	}

	// Catalog completeness is best-effort: rows with empty names are skipped
	// and insert failures are logged without failing the finalize.
	inserted := 0
	for _, p := range req.Products {
		if strings.TrimSpace(p.Name) == "" {
			continue
		}
		if err := h.store.insertProduct(ctx, listing.ID, &p); err != nil {
			logging.Warn("failed to insert onboarding product", map[string]interface{}{
				"listing_id": listing.ID,
				"product":    p.Name,
				"error":      err.Error(),
			})
			continue
		}
		inserted++
	}

	if err := h.store.linkProfileListing(ctx, userID, listing.ID); err != nil {
		logging.Warn("failed to link profile to listing", map[string]interface{}{
			"user_id":    userID,
			"listing_id": listing.ID,
			"error":      err.Error(),
		})
	}

	logging.LogKV("info", "listing finalized", map[string]interface{}{
		"listing_id":        listing.ID,
		"request_id":        request.ID,
		"published":         req.PublishFarm,
		"products_inserted": inserted,
	})

	c.JSON(http.StatusCreated, models.FinalizeListingResponse{
		Success:   true,
		ListingID: listing.ID,
	})
}
