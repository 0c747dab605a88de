package api

import (
	"context"

	"github.com/farmtofork/farmtofork/backend/market-service/internal/db"
	"github.com/farmtofork/farmtofork/backend/market-service/internal/models"
)

// marketStore is the persistence surface the handlers depend on. Handlers
// accept the interface so tests can exercise ownership and state gates with a
// fake store; sqlStore is the Postgres implementation.
type marketStore interface {
	health(ctx context.Context) error

	hasPendingRequest(ctx context.Context, userID string) (bool, error)
	insertFarmerRequest(ctx context.Context, userID, email string, req *models.SubmitFarmerRequestRequest) (int64, error)
	getFarmerRequestByID(ctx context.Context, requestID int64) (*models.FarmerRequest, error)
	updateRequestStatus(ctx context.Context, requestID int64, status models.RequestStatus) error
	getFarmerRequests(ctx context.Context, params *models.FarmerRequestListParams) ([]models.FarmerRequest, int, error)

	provisionListing(ctx context.Context, request *models.FarmerRequest) error
	getListingByOwner(ctx context.Context, userID string) (*models.Listing, error)
	getListingByID(ctx context.Context, listingID int64) (*models.Listing, error)
	finalizeListing(ctx context.Context, listing *models.Listing, request *models.FarmerRequest, req *models.FinalizeListingRequest) error
	getListings(ctx context.Context, params *models.ListingListParams) ([]models.Listing, int, error)
	getNearbyListings(ctx context.Context, lat, lng, radiusKm float64) ([]models.Listing, error)
	updateListingFields(ctx context.Context, listingID int64, req *models.UpdateListingRequest) error

	insertProduct(ctx context.Context, listingID int64, p *models.ProductInput) error
	getPublishedProducts(ctx context.Context, listingID int64) ([]models.Product, error)
	updateProductFields(ctx context.Context, productID, listingID int64, req *models.UpdateProductRequest) (bool, error)

	getProfile(ctx context.Context, userID string) (*models.Profile, error)
	ensureProfile(ctx context.Context, userID, email, firstName, lastName string) error
	updateProfileRole(ctx context.Context, userID, email, role string) error
	linkProfileListing(ctx context.Context, userID string, listingID int64) error

	getProductsForOrder(ctx context.Context, farmID int64, items []models.CreateOrderItemInput) (map[int64]*models.Product, *models.AppError)
	insertOrder(ctx context.Context, userID string, req *models.CreateOrderRequest, items []models.OrderItem, total float64) (*models.Order, error)
	getOrderByID(ctx context.Context, orderID, userID string) (*models.Order, error)
	getUserOrders(ctx context.Context, userID string) ([]models.Order, error)
	getFarmOrders(ctx context.Context, farmID int64) ([]models.Order, error)
	getFarmOrderByID(ctx context.Context, orderID string, farmID int64) (*models.Order, error)
	updateOrderStatus(ctx context.Context, orderID string, farmID int64, status models.OrderStatus, payment *models.PaymentStatus) error
}

// sqlStore backs marketStore with the pgx connection pool
type sqlStore struct {
	db *db.Database
}

func (s *sqlStore) health(ctx context.Context) error {
	return s.db.Health(ctx)
}
