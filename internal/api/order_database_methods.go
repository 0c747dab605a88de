package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/farmtofork/farmtofork/backend/market-service/internal/models"
	"github.com/farmtofork/farmtofork/backend/market-service/internal/validation"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// buildAndPersistOrder runs the store-facing stages of the order pipeline:
// farm check, product load, stock check, price computation, persistence.
func (h *Handler) buildAndPersistOrder(ctx context.Context, userID string, req *models.CreateOrderRequest) (*models.Order, *models.AppError) {
	farm, err := h.store.getListingByID(ctx, req.FarmID)
	if err != nil {
		return nil, internalError("Failed to load farm", err)
	}
	if farm == nil {
		return nil, models.NewAppError(models.ErrNotFound, "Farm not found")
	}
	if !farm.Active {
		return nil, models.NewAppError(models.ErrInvalidState, "This farm is not currently accepting orders")
	}
	if !farm.OrdersEnabled {
		return nil, models.NewAppError(models.ErrInvalidState, "This farm has not enabled online orders")
	}

	products, appErr := h.store.getProductsForOrder(ctx, req.FarmID, req.Items)
	if appErr != nil {
		return nil, appErr
	}

	if appErr := checkStock(products, req.Items); appErr != nil {
		return nil, appErr
	}

	items, total, appErr := computeOrderItems(products, req.Items)
	if appErr != nil {
		return nil, appErr
	}

	order, err := h.store.insertOrder(ctx, userID, req, items, total)
	if err != nil {
		// Row-level security may reject the insert independently of the
		// application-level checks above.
		return nil, internalError("Failed to create order", err)
	}
	return order, nil
}

// getProductsForOrder fetches the referenced products scoped to the farm,
// restricted to active, published rows. Requested ids are deduplicated, and
// any id the store does not return fails the whole order.
func (s *sqlStore) getProductsForOrder(ctx context.Context, farmID int64, items []models.CreateOrderItemInput) (map[int64]*models.Product, *models.AppError) {
	seen := make(map[int64]bool, len(items))
	var ids []int64
	for _, item := range items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}

	query := `
		SELECT id, listing_id, name, category, price, unit, stock_status,
		       active, is_published, image_url, created_at, updated_at
		FROM products
		WHERE listing_id = $1 AND id = ANY($2) AND active = TRUE AND is_published = TRUE
	`
	rows, err := s.db.Pool.Query(ctx, query, farmID, ids)
	if err != nil {
		return nil, internalError("Failed to load products", err)
	}
	defer rows.Close()

	products := make(map[int64]*models.Product, len(ids))
	for rows.Next() {
		var p models.Product
		err := rows.Scan(
			&p.ID, &p.ListingID, &p.Name, &p.Category, &p.Price, &p.Unit,
			&p.StockStatus, &p.Active, &p.IsPublished, &p.ImageURL,
			&p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, internalError("Failed to scan product", err)
		}
		products[p.ID] = &p
	}
	if err := rows.Err(); err != nil {
		return nil, internalError("Error iterating products", err)
	}

	// Partial matches are not silently dropped: name every missing id.
	var missing []string
	for _, id := range ids {
		if _, ok := products[id]; !ok {
			missing = append(missing, fmt.Sprintf("%d", id))
		}
	}
	if len(missing) > 0 {
		return nil, models.NewAppError(models.ErrNotFound,
			"Some products are not available from this farm", missing...)
	}

	return products, nil
}

// checkStock rejects the whole order if any product is out of stock. It walks
// the deduplicated request order so the rejection message is stable across
// identical requests.
func checkStock(products map[int64]*models.Product, inputs []models.CreateOrderItemInput) *models.AppError {
	seen := make(map[int64]bool, len(inputs))
	var outOfStock []string
	for _, input := range inputs {
		if seen[input.ProductID] {
			continue
		}
		seen[input.ProductID] = true
		if p := products[input.ProductID]; p != nil && p.StockStatus == models.StockStatusOutOfStock {
			outOfStock = append(outOfStock, p.Name)
		}
	}
	if len(outOfStock) > 0 {
		return models.NewAppError(models.ErrInvalidState,
			"Some products are out of stock: "+strings.Join(outOfStock, ", "), outOfStock...)
	}
	return nil
}

// computeOrderItems builds the immutable line-item snapshots and the order
// total from store-held prices. A product row missing its price or unit is a
// data-integrity fault, not a client error.
func computeOrderItems(products map[int64]*models.Product, inputs []models.CreateOrderItemInput) ([]models.OrderItem, float64, *models.AppError) {
	items := make([]models.OrderItem, 0, len(inputs))
	var total float64

	for _, input := range inputs {
		product := products[input.ProductID]
		if product.Price == nil || product.Unit == nil {
			return nil, 0, models.NewAppError(models.ErrInternal,
				fmt.Sprintf("Product %q has incomplete pricing data", product.Name))
		}
		if input.Quantity <= 0 {
			return nil, 0, models.NewAppError(models.ErrValidation, "Item quantity must be a positive number")
		}

		item := models.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Price:       *product.Price,
			Quantity:    input.Quantity,
			Unit:        *product.Unit,
		}
		if product.ImageURL != nil {
			item.ImageURL = *product.ImageURL
		}
		items = append(items, item)

		total += *product.Price * float64(input.Quantity)
	}

	return items, validation.RoundCurrency(total), nil
}

// insertOrder persists the order in a single insert
func (s *sqlStore) insertOrder(ctx context.Context, userID string, req *models.CreateOrderRequest, items []models.OrderItem, total float64) (*models.Order, error) {
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode order items: %w", err)
	}

	var addressJSON []byte
	if models.DeliveryMode(req.DeliveryMode) == models.DeliveryModeDelivery {
		addressJSON, err = json.Marshal(req.DeliveryAddress)
		if err != nil {
			return nil, fmt.Errorf("failed to encode delivery address: %w", err)
		}
	}

	order := models.Order{
		ID:              uuid.New().String(),
		UserID:          userID,
		FarmID:          req.FarmID,
		Items:           items,
		TotalPrice:      total,
		DeliveryMode:    models.DeliveryMode(req.DeliveryMode),
		DeliveryDay:     strings.TrimSpace(req.DeliveryDay),
		DeliveryAddress: req.DeliveryAddress,
		CustomerNotes:   nullable(req.CustomerNotes),
		Status:          models.OrderStatusPending,
		PaymentStatus:   models.PaymentStatusUnpaid,
	}
	if order.DeliveryMode != models.DeliveryModeDelivery {
		order.DeliveryAddress = nil
	}

	query := `
		INSERT INTO orders
			(id, user_id, farm_id, items, total_price, delivery_mode, delivery_day,
			 delivery_address, customer_notes, status, payment_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`
	err = s.db.Pool.QueryRow(ctx, query,
		order.ID, order.UserID, order.FarmID, itemsJSON, order.TotalPrice,
		string(order.DeliveryMode), order.DeliveryDay, addressJSON,
		order.CustomerNotes, string(order.Status), string(order.PaymentStatus),
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}

	return &order, nil
}

const orderColumns = `
	id, user_id, farm_id, items, total_price, delivery_mode, delivery_day,
	delivery_address, customer_notes, status, payment_status, created_at, updated_at`

func scanOrder(row pgx.Row) (*models.Order, error) {
	var o models.Order
	var itemsJSON []byte
	var addressJSON []byte
	err := row.Scan(
		&o.ID, &o.UserID, &o.FarmID, &itemsJSON, &o.TotalPrice,
		&o.DeliveryMode, &o.DeliveryDay, &addressJSON, &o.CustomerNotes,
		&o.Status, &o.PaymentStatus, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, fmt.Errorf("failed to decode order items: %w", err)
	}
	if len(addressJSON) > 0 {
		var addr models.DeliveryAddress
		if err := json.Unmarshal(addressJSON, &addr); err != nil {
			return nil, fmt.Errorf("failed to decode delivery address: %w", err)
		}
		o.DeliveryAddress = &addr
	}
	return &o, nil
}

// getOrderByID retrieves an order scoped to its purchaser; nil when absent
func (s *sqlStore) getOrderByID(ctx context.Context, orderID, userID string) (*models.Order, error) {
	query := `SELECT` + orderColumns + ` FROM orders WHERE id = $1 AND user_id = $2`
	order, err := scanOrder(s.db.Pool.QueryRow(ctx, query, orderID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

// getUserOrders retrieves all orders placed by a user, newest first
func (s *sqlStore) getUserOrders(ctx context.Context, userID string) ([]models.Order, error) {
	query := `SELECT` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`
	return s.queryOrders(ctx, query, userID)
}

// getFarmOrders retrieves all orders received by a listing, newest first
func (s *sqlStore) getFarmOrders(ctx context.Context, farmID int64) ([]models.Order, error) {
	query := `SELECT` + orderColumns + ` FROM orders WHERE farm_id = $1 ORDER BY created_at DESC`
	return s.queryOrders(ctx, query, farmID)
}

func (s *sqlStore) queryOrders(ctx context.Context, query string, args ...interface{}) ([]models.Order, error) {
	rows, err := s.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}
	return orders, nil
}

// getFarmOrderByID retrieves an order scoped to the receiving farm
func (s *sqlStore) getFarmOrderByID(ctx context.Context, orderID string, farmID int64) (*models.Order, error) {
	query := `SELECT` + orderColumns + ` FROM orders WHERE id = $1 AND farm_id = $2`
	order, err := scanOrder(s.db.Pool.QueryRow(ctx, query, orderID, farmID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

// updateOrderStatus applies a fulfillment/payment update to a farm's order
func (s *sqlStore) updateOrderStatus(ctx context.Context, orderID string, farmID int64, status models.OrderStatus, payment *models.PaymentStatus) error {
	query := `
		UPDATE orders SET status = $1,
			payment_status = COALESCE($2, payment_status),
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $3 AND farm_id = $4
	`
	var paymentArg *string
	if payment != nil {
		s := string(*payment)
		paymentArg = &s
	}
	result, err := s.db.Pool.Exec(ctx, query, string(status), paymentArg, orderID, farmID)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("order %s not found", orderID)
	}
	return nil
}
