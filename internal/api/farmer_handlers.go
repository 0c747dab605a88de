package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/farmtofork/farmtofork/backend/market-service/internal/models"
	"github.com/gin-gonic/gin"
)

// requireOwnListing resolves the caller's storefront row, responding with
// Forbidden itself when the user has never been onboarded as a farmer.
func (h *Handler) requireOwnListing(ctx context.Context, c *gin.Context) (*models.Listing, bool) {
	userID, ok := GetUserID(c)
	if !ok {
		respondError(c, unauthenticated())
		return nil, false
	}

	listing, err := h.store.getListingByOwner(ctx, userID)
	if err != nil {
		respondError(c, internalError("Failed to load listing", err))
		return nil, false
	}
	if listing == nil {
		respondError(c, models.NewAppError(models.ErrForbidden, "No listing is associated with this account"))
		return nil, false
	}
	return listing, true
}

// UpdateListing applies a partial edit to the caller's own storefront.
// Activation toggles follow the same published_at rules as finalization:
// set once on first publication, cleared when unpublishing.
func (h *Handler) UpdateListing(c *gin.Context) {
	var req models.UpdateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.NewAppError(models.ErrValidation, "Invalid request body", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	listing, ok := h.requireOwnListing(ctx, c)
	if !ok {
		return
	}

	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		respondError(c, models.NewAppError(models.ErrValidation, "Request validation failed", "name must not be empty"))
		return
	}

	if err := h.store.updateListingFields(ctx, listing.ID, &req); err != nil {
		respondError(c, internalError("Failed to update listing", err))
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: "Listing updated successfully",
	})
}

// CreateProduct adds a catalog entry to the caller's own storefront
func (h *Handler) CreateProduct(c *gin.Context) {
	var req models.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.NewAppError(models.ErrValidation, "Invalid request body", err.Error()))
		return
	}

	var details []string
	if strings.TrimSpace(req.Name) == "" {
		details = append(details, "name is required")
	}
	if req.Price < 0 {
		details = append(details, "price must not be negative")
	}
	if req.StockStatus != "" && !models.StockStatus(req.StockStatus).IsValid() {
		details = append(details, "stockStatus must be one of in_stock, low_stock, out_of_stock")
	}
	if len(details) > 0 {
		respondError(c, models.NewAppError(models.ErrValidation, "Request validation failed", details...))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	listing, ok := h.requireOwnListing(ctx, c)
	if !ok {
		return
	}

	if err := h.store.insertProduct(ctx, listing.ID, &req); err != nil {
		respondError(c, internalError("Failed to create product", err))
		return
	}

	c.JSON(http.StatusCreated, models.SuccessResponse{
		Success: true,
		Message: "Product created successfully",
	})
}

// UpdateProduct applies a partial edit to one of the caller's products
func (h *Handler) UpdateProduct(c *gin.Context) {
	productID, ok := parseIDParam(c, "product_id")
	if !ok {
		return
	}

	var req models.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.NewAppError(models.ErrValidation, "Invalid request body", err.Error()))
		return
	}

	var details []string
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		details = append(details, "name must not be empty")
	}
	if req.Price != nil && *req.Price < 0 {
		details = append(details, "price must not be negative")
	}
	if req.StockStatus != nil && !models.StockStatus(*req.StockStatus).IsValid() {
		details = append(details, "stockStatus must be one of in_stock, low_stock, out_of_stock")
	}
	if len(details) > 0 {
		respondError(c, models.NewAppError(models.ErrValidation, "Request validation failed", details...))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	listing, ok := h.requireOwnListing(ctx, c)
	if !ok {
		return
	}

	updated, err := h.store.updateProductFields(ctx, productID, listing.ID, &req)
	if err != nil {
		respondError(c, internalError("Failed to update product", err))
		return
	}
	if !updated {
		respondError(c, models.NewAppError(models.ErrNotFound, "Product not found"))
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: "Product updated successfully",
	})
}

// GetFarmerOrders lists the orders received by the caller's storefront
func (h *Handler) GetFarmerOrders(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	listing, ok := h.requireOwnListing(ctx, c)
	if !ok {
		return
	}

	orders, err := h.store.getFarmOrders(ctx, listing.ID)
	if err != nil {
		respondError(c, internalError("Failed to get orders", err))
		return
	}

	c.JSON(http.StatusOK, models.OrderListResponse{
		Orders: orders,
		Count:  len(orders),
	})
}

// UpdateFarmerOrderStatus moves one of the caller's orders through the
// fulfillment flow and optionally records a payment update
func (h *Handler) UpdateFarmerOrderStatus(c *gin.Context) {
	orderID := c.Param("order_id")

	var req models.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.NewAppError(models.ErrValidation, "Invalid request body", err.Error()))
		return
	}

	status := models.OrderStatus(req.Status)
	if !status.IsValid() {
		respondError(c, models.NewAppError(models.ErrValidation, "Request validation failed",
			"status must be one of pending, confirmed, ready, delivered, cancelled"))
		return
	}

	var payment *models.PaymentStatus
	if req.PaymentStatus != "" {
		p := models.PaymentStatus(req.PaymentStatus)
		if !p.IsValid() {
			respondError(c, models.NewAppError(models.ErrValidation, "Request validation failed",
				"paymentStatus must be one of unpaid, paid, refunded"))
			return
		}
		payment = &p
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	listing, ok := h.requireOwnListing(ctx, c)
	if !ok {
		return
	}

	order, err := h.store.getFarmOrderByID(ctx, orderID, listing.ID)
	if err != nil {
		respondError(c, internalError("Failed to load order", err))
		return
	}
	if order == nil {
		respondError(c, models.NewAppError(models.ErrNotFound, "Order not found"))
		return
	}

	if !order.Status.CanTransitionTo(status) {
		respondError(c, models.NewAppError(models.ErrInvalidState,
			fmt.Sprintf("Cannot move order from %s to %s", order.Status, status)))
		return
	}

	if err := h.store.updateOrderStatus(ctx, orderID, listing.ID, status, payment); err != nil {
		respondError(c, internalError("Failed to update order status", err))
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: "Order status updated successfully",
	})
}

// updateListingFields applies only the provided fields to a listing row
func (s *sqlStore) updateListingFields(ctx context.Context, listingID int64, req *models.UpdateListingRequest) error {
	query := `
		UPDATE listings SET
			name = COALESCE($1, name),
			description = COALESCE($2, description),
			address = COALESCE($3, address),
			phone = COALESCE($4, phone),
			website = COALESCE($5, website),
			orders_enabled = COALESCE($6, orders_enabled),
			active = COALESCE($7, active),
			published_at = CASE
				WHEN $7 IS NULL THEN published_at
				WHEN $7 AND published_at IS NULL THEN CURRENT_TIMESTAMP
				WHEN $7 THEN published_at
				ELSE NULL
			END,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $8
	`
	_, err := s.db.Pool.Exec(ctx, query,
		req.Name, req.Description, req.Address, req.Phone, req.Website,
		req.OrdersEnabled, req.Active, listingID,
	)
	if err != nil {
		return fmt.Errorf("failed to update listing: %w", err)
	}
	return nil
}

// updateProductFields applies only the provided fields to a product row,
// scoped to the owning listing. Returns false when no row matched.
func (s *sqlStore) updateProductFields(ctx context.Context, productID, listingID int64, req *models.UpdateProductRequest) (bool, error) {
	query := `
		UPDATE products SET
			name = COALESCE($1, name),
			category = COALESCE($2, category),
			price = COALESCE($3, price),
			unit = COALESCE($4, unit),
			stock_status = COALESCE($5, stock_status),
			active = COALESCE($6, active),
			is_published = COALESCE($7, is_published),
			image_url = COALESCE($8, image_url),
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $9 AND listing_id = $10
	`
	result, err := s.db.Pool.Exec(ctx, query,
		req.Name, req.Category, req.Price, req.Unit, req.StockStatus,
		req.Active, req.IsPublished, req.ImageURL, productID, listingID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update product: %w", err)
	}
	return result.RowsAffected() > 0, nil
}
