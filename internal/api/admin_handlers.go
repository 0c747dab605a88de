package api

import (
	"context"
	"net/http"
	"time"

	"github.com/farmtofork/farmtofork/backend/market-service/internal/logging"
	"github.com/farmtofork/farmtofork/backend/market-service/internal/models"
	"github.com/farmtofork/farmtofork/backend/market-service/internal/validation"
	"github.com/gin-gonic/gin"
)

// DecideFarmerRequest approves or rejects a pending producer application.
// The steps run strictly in order but are not one transaction: the role is
// mirrored to the identity provider and the profile, the storefront row is
// provisioned, and only then is the request status flipped, so a failed
// earlier step leaves the request pending and the decision retryable.
func (h *Handler) DecideFarmerRequest(c *gin.Context) {
	var req models.DecideFarmerRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.NewAppError(models.ErrValidation, "Invalid request body", err.Error()))
		return
	}

	var details []string
	if req.RequestID <= 0 {
		details = append(details, "requestId must be a positive integer")
	}
	status := models.RequestStatus(req.Status)
	if !status.IsDecision() {
		details = append(details, "status must be 'approved' or 'rejected'")
	}
	if len(details) > 0 {
		respondError(c, models.NewAppError(models.ErrValidation, "Request validation failed", details...))
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
	if request.Status != models.RequestStatusPending {
		respondError(c, models.NewAppError(models.ErrConflict, "Farmer request has already been decided"))
		return
	}

	role := status.ImpliedRole()

	// The row's user_id is authoritative over whatever the console sent.
	if err := h.identity.UpdateUserRole(ctx, request.UserID, role); err != nil {
		respondError(c, internalError("Failed to update identity provider role", err))
		return
	}

	if err := h.store.updateProfileRole(ctx, request.UserID, request.Email, role); err != nil {
		respondError(c, internalError("Failed to update profile role", err))
		return
	}

	if status == models.RequestStatusApproved {
		if err := h.store.provisionListing(ctx, request); err != nil {
			respondError(c, internalError("Failed to provision listing", err))
			return
		}
	}

	if err := h.store.updateRequestStatus(ctx, request.ID, status); err != nil {
		respondError(c, internalError("Failed to update request status", err))
		return
	}

	// Notification is a side channel: log and move on if it fails.
	if err := h.email.SendRequestDecision(ctx, request.Email, request.FirstName, request.FarmName, status); err != nil {
		logging.Warn("failed to send decision email", map[string]interface{}{
			"request_id": request.ID,
			"email":      request.Email,
			"error":      err.Error(),
		})
	}

	message := "Farmer request rejected"
	if status == models.RequestStatusApproved {
		message = "Farmer request approved"
	}

	logging.LogKV("info", "farmer request decided", map[string]interface{}{
		"request_id": request.ID,
		"user_id":    request.UserID,
		"status":     string(status),
	})

	c.JSON(http.StatusOK, models.DecideFarmerRequestResponse{
		Success: true,
		Message: message,
	})
}

// GetFarmerRequests lists producer applications with filtering and pagination
func (h *Handler) GetFarmerRequests(c *gin.Context) {
	var params models.FarmerRequestListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondError(c, models.NewAppError(models.ErrValidation, "Invalid query parameters", err.Error()))
		return
	}

	sortable := map[string]bool{"created_at": true, "updated_at": true, "farm_name": true}
	details := validation.ValidateListParams(&params.ListParams, sortable, "created_at")
	if params.Status != "" && !models.RequestStatus(params.Status).IsValid() {
		details = append(details, "status must be one of pending, approved, rejected")
	}
	if len(details) > 0 {
		respondError(c, models.NewAppError(models.ErrValidation, "Invalid query parameters", details...))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	requests, total, err := h.store.getFarmerRequests(ctx, &params)
	if err != nil {
		respondError(c, internalError("Failed to get farmer requests", err))
		return
	}

	c.JSON(http.StatusOK, models.FarmerRequestListResponse{
		Requests: requests,
		Count:    len(requests),
		Pagination: &models.Pagination{
			Limit:  params.Limit,
			Offset: params.Offset,
			Total:  total,
		},
	})
}

// GetFarmerRequest retrieves a single application by id
func (h *Handler) GetFarmerRequest(c *gin.Context) {
	requestID, ok := parseIDParam(c, "request_id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	request, err := h.store.getFarmerRequestByID(ctx, requestID)
	if err != nil {
		respondError(c, internalError("Failed to load farmer request", err))
		return
	}
	if request == nil {
		respondError(c, models.NewAppError(models.ErrNotFound, "Farmer request not found"))
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    request,
	})
}
