package api

import (
	"context"
	"net/http"
	"time"

	"github.com/farmtofork/farmtofork/backend/market-service/internal/models"
	"github.com/farmtofork/farmtofork/backend/market-service/internal/validation"
	"github.com/gin-gonic/gin"
)

// CreateOrder runs the order pipeline: shape validation, farm and product
// checks, server-side price recomputation, then a single atomic insert.
// Any stage failure is terminal; an order either does not exist or exists
// fully formed with status pending.
func (h *Handler) CreateOrder(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		respondError(c, unauthenticated())
		return
	}

	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.NewAppError(models.ErrValidation, "Invalid request body", err.Error()))
		return
	}

	if details := validation.ValidateCreateOrder(&req); len(details) > 0 {
		respondError(c, models.NewAppError(models.ErrValidation, "Order validation failed", details...))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	order, appErr := h.buildAndPersistOrder(ctx, userID, &req)
	if appErr != nil {
		respondError(c, appErr)
		return
	}

	c.JSON(http.StatusCreated, models.CreateOrderResponse{
		Success: true,
		Order:   order,
	})
}

// GetOrders retrieves the caller's order history
func (h *Handler) GetOrders(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		respondError(c, unauthenticated())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	orders, err := h.store.getUserOrders(ctx, userID)
	if err != nil {
		respondError(c, internalError("Failed to get orders", err))
		return
	}

	c.JSON(http.StatusOK, models.OrderListResponse{
		Orders: orders,
		Count:  len(orders),
	})
}

// GetOrder retrieves a specific order by ID. Item prices and names are the
// snapshots taken at creation time, regardless of later catalog changes.
func (h *Handler) GetOrder(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		respondError(c, unauthenticated())
		return
	}

	orderID := c.Param("order_id")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	order, err := h.store.getOrderByID(ctx, orderID, userID)
	if err != nil {
		respondError(c, internalError("Failed to get order", err))
		return
	}
	if order == nil {
		respondError(c, models.NewAppError(models.ErrNotFound, "Order not found"))
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    order,
	})
}
