package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/farmtofork/farmtofork/backend/market-service/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore backs handler tests without Postgres. Unimplemented methods panic
// through the embedded nil interface, which doubles as a guard that a test
// only touches the store calls it expects to.
type fakeStore struct {
	marketStore
	pending  bool
	request  *models.FarmerRequest
	listing  *models.Listing
	products map[int64]*models.Product
	orders   map[string]*models.Order

	finalized bool
}

func (f *fakeStore) hasPendingRequest(ctx context.Context, userID string) (bool, error) {
	return f.pending, nil
}

func (f *fakeStore) getFarmerRequestByID(ctx context.Context, requestID int64) (*models.FarmerRequest, error) {
	if f.request == nil || f.request.ID != requestID {
		return nil, nil
	}
	return f.request, nil
}

func (f *fakeStore) getListingByOwner(ctx context.Context, userID string) (*models.Listing, error) {
	if f.listing == nil || f.listing.ClerkUserID != userID {
		return nil, nil
	}
	return f.listing, nil
}

func (f *fakeStore) getListingByID(ctx context.Context, listingID int64) (*models.Listing, error) {
	if f.listing == nil || f.listing.ID != listingID {
		return nil, nil
	}
	return f.listing, nil
}

func (f *fakeStore) finalizeListing(ctx context.Context, listing *models.Listing, request *models.FarmerRequest, req *models.FinalizeListingRequest) error {
	f.finalized = true
	return nil
}

func (f *fakeStore) insertProduct(ctx context.Context, listingID int64, p *models.ProductInput) error {
	return nil
}

func (f *fakeStore) linkProfileListing(ctx context.Context, userID string, listingID int64) error {
	return nil
}

func (f *fakeStore) getProductsForOrder(ctx context.Context, farmID int64, items []models.CreateOrderItemInput) (map[int64]*models.Product, *models.AppError) {
	out := make(map[int64]*models.Product)
	for _, item := range items {
		if p, ok := f.products[item.ProductID]; ok && p.ListingID == farmID {
			out[item.ProductID] = p
		}
	}
	for _, item := range items {
		if _, ok := out[item.ProductID]; !ok {
			return nil, models.NewAppError(models.ErrNotFound, "Some products are not available from this farm")
		}
	}
	return out, nil
}

func (f *fakeStore) insertOrder(ctx context.Context, userID string, req *models.CreateOrderRequest, items []models.OrderItem, total float64) (*models.Order, error) {
	order := &models.Order{
		ID:            "ord-0001",
		UserID:        userID,
		FarmID:        req.FarmID,
		Items:         items,
		TotalPrice:    total,
		DeliveryMode:  models.DeliveryMode(req.DeliveryMode),
		DeliveryDay:   req.DeliveryDay,
		Status:        models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusUnpaid,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	if f.orders == nil {
		f.orders = make(map[string]*models.Order)
	}
	f.orders[order.ID] = order
	return order, nil
}

func (f *fakeStore) getOrderByID(ctx context.Context, orderID, userID string) (*models.Order, error) {
	order, ok := f.orders[orderID]
	if !ok || order.UserID != userID {
		return nil, nil
	}
	return order, nil
}

func newFakeRouter(t *testing.T, store *fakeStore) *gin.Engine {
	t.Setenv("JWT_SECRET", testSecret)
	gin.SetMode(gin.TestMode)
	h := &Handler{store: store}
	r := gin.New()
	auth := r.Group("/api")
	auth.Use(AuthMiddleware())
	auth.POST("/onboarding/submit-request", h.SubmitFarmerRequest)
	auth.POST("/onboarding/create-listing", h.FinalizeListing)
	auth.POST("/orders/create", h.CreateOrder)
	auth.GET("/orders/:order_id", h.GetOrder)
	return r
}

func validSubmission() models.SubmitFarmerRequestRequest {
	lat, lng := 45.76, 4.83
	return models.SubmitFarmerRequestRequest{
		FirstName:  "Jean",
		LastName:   "Dupont",
		FarmName:   "Ferme du Vallon",
		Siret:      "12345678901234",
		Department: "Rhône",
		Location:   "Lyon",
		Latitude:   &lat,
		Longitude:  &lng,
	}
}

func orderableStore() *fakeStore {
	return &fakeStore{
		listing: &models.Listing{
			ID: 1, ClerkUserID: "user_farmer", Name: "Ferme du Vallon",
			Active: true, OrdersEnabled: true,
		},
		products: map[int64]*models.Product{
			10: {
				ID: 10, ListingID: 1, Name: "Tomates anciennes",
				Price: pricePtr(3.50), Unit: strPtr("kg"),
				StockStatus: models.StockStatusInStock,
				Active:      true, IsPublished: true,
			},
		},
	}
}

func TestSubmitFarmerRequest_DuplicatePendingConflict(t *testing.T) {
	r := newFakeRouter(t, &fakeStore{pending: true})

	w := postJSON(t, r, "/api/onboarding/submit-request", consumerToken(t), validSubmission())

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, string(models.ErrConflict), decodeError(t, w).Error)
}

func TestFinalizeListing_NonOwnerForbidden(t *testing.T) {
	store := &fakeStore{
		request: &models.FarmerRequest{
			ID: 7, UserID: "user_someone_else", Email: "other@example.com",
			Status: models.RequestStatusApproved,
		},
	}
	r := newFakeRouter(t, store)

	w := postJSON(t, r, "/api/onboarding/create-listing", consumerToken(t),
		models.FinalizeListingRequest{RequestID: 7})

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, string(models.ErrForbidden), decodeError(t, w).Error)
	assert.False(t, store.finalized)
}

func TestFinalizeListing_UndecidedRequestForbidden(t *testing.T) {
	store := &fakeStore{
		request: &models.FarmerRequest{
			ID: 7, UserID: "user_2abc", Email: "jean@example.com",
			Status: models.RequestStatusPending,
		},
	}
	r := newFakeRouter(t, store)

	w := postJSON(t, r, "/api/onboarding/create-listing", consumerToken(t),
		models.FinalizeListingRequest{RequestID: 7})

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.False(t, store.finalized)
}

func TestFinalizeListing_MissingProvisionedListingConflict(t *testing.T) {
	store := &fakeStore{
		request: &models.FarmerRequest{
			ID: 7, UserID: "user_2abc", Email: "jean@example.com",
			Status: models.RequestStatusApproved,
		},
	}
	r := newFakeRouter(t, store)

	w := postJSON(t, r, "/api/onboarding/create-listing", consumerToken(t),
		models.FinalizeListingRequest{RequestID: 7})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, string(models.ErrConflict), decodeError(t, w).Error)
}

func TestCreateOrder_OrdersDisabledRejected(t *testing.T) {
	store := orderableStore()
	store.listing.OrdersEnabled = false
	r := newFakeRouter(t, store)

	w := postJSON(t, r, "/api/orders/create", consumerToken(t), models.CreateOrderRequest{
		FarmID:       1,
		Items:        []models.CreateOrderItemInput{{ProductID: 10, Quantity: 2}},
		DeliveryMode: string(models.DeliveryModePickup),
		DeliveryDay:  "2026-09-04",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(models.ErrInvalidState), decodeError(t, w).Error)
}

func TestCreateOrder_SnapshotSurvivesCatalogChange(t *testing.T) {
	store := orderableStore()
	r := newFakeRouter(t, store)

	w := postJSON(t, r, "/api/orders/create", consumerToken(t), models.CreateOrderRequest{
		FarmID:       1,
		Items:        []models.CreateOrderItemInput{{ProductID: 10, Quantity: 4}},
		DeliveryMode: string(models.DeliveryModePickup),
		DeliveryDay:  "2026-09-04",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.CreateOrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotNil(t, created.Order)
	assert.Equal(t, 14.00, created.Order.TotalPrice)

	// Catalog changes after the sale must not rewrite history.
	store.products[10].Price = pricePtr(9.99)
	store.products[10].Name = "Tomates bio"

	wGet := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/orders/"+created.Order.ID, nil)
	req.Header.Set("Authorization", "Bearer "+consumerToken(t))
	r.ServeHTTP(wGet, req)
	require.Equal(t, http.StatusOK, wGet.Code)

	var resp struct {
		Data models.Order `json:"data"`
	}
	require.NoError(t, json.Unmarshal(wGet.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Items, 1)
	assert.Equal(t, "Tomates anciennes", resp.Data.Items[0].ProductName)
	assert.Equal(t, 3.50, resp.Data.Items[0].Price)
	assert.Equal(t, 14.00, resp.Data.TotalPrice)
}

func TestInternalError_ReleaseModeHidesCause(t *testing.T) {
	prev := gin.Mode()
	defer gin.SetMode(prev)

	cause := errors.New("failed to connect to host 10.0.0.5")

	gin.SetMode(gin.ReleaseMode)
	appErr := internalError("Failed to create order", cause)
	assert.Equal(t, models.ErrInternal, appErr.Kind)
	assert.Empty(t, appErr.Details, "release builds must not leak raw causes")

	gin.SetMode(gin.DebugMode)
	appErr = internalError("Failed to create order", cause)
	assert.Equal(t, []string{cause.Error()}, appErr.Details)
}
