package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/farmtofork/farmtofork/backend/market-service/internal/models"
	"github.com/farmtofork/farmtofork/backend/market-service/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

// GetListings lists farm storefronts with pagination and sorting. Inactive
// rows are only visible to admin callers; for everyone else the
// includeInactive flag is ignored.
func (h *Handler) GetListings(c *gin.Context) {
	var params models.ListingListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondError(c, models.NewAppError(models.ErrValidation, "Invalid query parameters", err.Error()))
		return
	}

	sortable := map[string]bool{"name": true, "created_at": true, "published_at": true}
	if details := validation.ValidateListParams(&params.ListParams, sortable, "created_at"); len(details) > 0 {
		respondError(c, models.NewAppError(models.ErrValidation, "Invalid query parameters", details...))
		return
	}

	if params.IncludeInactive && GetUserRole(c) != models.RoleAdmin {
		params.IncludeInactive = false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	listings, total, err := h.store.getListings(ctx, &params)
	if err != nil {
		respondError(c, internalError("Failed to get listings", err))
		return
	}

	c.JSON(http.StatusOK, models.ListingListResponse{
		Listings: listings,
		Pagination: models.Pagination{
			Limit:  params.Limit,
			Offset: params.Offset,
			Total:  total,
		},
	})
}

// GetNearbyListings returns active listings ordered by distance from a point
func (h *Handler) GetNearbyListings(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
	if latErr != nil || lngErr != nil || !validation.IsValidCoordinates(lat, lng) {
		respondError(c, models.NewAppError(models.ErrValidation, "Invalid query parameters",
			"lat and lng must be valid coordinates"))
		return
	}

	radiusKm := 50.0
	if raw := c.Query("radius_km"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 || parsed > 200 {
			respondError(c, models.NewAppError(models.ErrValidation, "Invalid query parameters",
				"radius_km must be between 0 and 200"))
			return
		}
		radiusKm = parsed
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	listings, err := h.store.getNearbyListings(ctx, lat, lng, radiusKm)
	if err != nil {
		respondError(c, internalError("Failed to search nearby listings", err))
		return
	}

	c.JSON(http.StatusOK, models.NearbyListingsResponse{
		Listings: listings,
		Count:    len(listings),
	})
}

// GetListing retrieves a single public storefront
func (h *Handler) GetListing(c *gin.Context) {
	listingID, ok := parseIDParam(c, "listing_id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	listing, err := h.store.getListingByID(ctx, listingID)
	if err != nil {
		respondError(c, internalError("Failed to get listing", err))
		return
	}
	if listing == nil || !listing.Active {
		respondError(c, models.NewAppError(models.ErrNotFound, "Listing not found"))
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    listing,
	})
}

// GetListingProducts lists the published, active catalog of a storefront
func (h *Handler) GetListingProducts(c *gin.Context) {
	listingID, ok := parseIDParam(c, "listing_id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	listing, err := h.store.getListingByID(ctx, listingID)
	if err != nil {
		respondError(c, internalError("Failed to get listing", err))
		return
	}
	if listing == nil || !listing.Active {
		respondError(c, models.NewAppError(models.ErrNotFound, "Listing not found"))
		return
	}

	products, err := h.store.getPublishedProducts(ctx, listingID)
	if err != nil {
		respondError(c, internalError("Failed to get products", err))
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    products,
	})
}

// getListings lists storefront rows with optional inclusion of inactive ones
func (s *sqlStore) getListings(ctx context.Context, params *models.ListingListParams) ([]models.Listing, int, error) {
	where := "WHERE active = TRUE"
	if params.IncludeInactive {
		where = ""
	}

	var total int
	if err := s.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM listings `+where).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count listings: %w", err)
	}

	// sortBy/sortOrder are whitelist-validated by the handler
	query := fmt.Sprintf(`SELECT %s FROM listings %s ORDER BY %s %s NULLS LAST LIMIT $1 OFFSET $2`,
		listingColumns, where, params.SortBy, params.SortOrder)

	rows, err := s.db.Pool.Query(ctx, query, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()

	listings, err := collectListings(rows)
	if err != nil {
		return nil, 0, err
	}
	return listings, total, nil
}

// getNearbyListings orders active listings by haversine distance from a point
func (s *sqlStore) getNearbyListings(ctx context.Context, lat, lng, radiusKm float64) ([]models.Listing, error) {
	query := fmt.Sprintf(`
		SELECT %s,
			(6371 * acos(
				least(1.0, cos(radians($1)) * cos(radians(latitude)) *
				cos(radians(longitude) - radians($2)) +
				sin(radians($1)) * sin(radians(latitude)))
			)) AS distance_km
		FROM listings
		WHERE active = TRUE
		AND (6371 * acos(
			least(1.0, cos(radians($1)) * cos(radians(latitude)) *
			cos(radians(longitude) - radians($2)) +
			sin(radians($1)) * sin(radians(latitude)))
		)) <= $3
		ORDER BY distance_km ASC
		LIMIT 100
	`, listingColumns)

	rows, err := s.db.Pool.Query(ctx, query, lat, lng, radiusKm)
	if err != nil {
		return nil, fmt.Errorf("failed to query nearby listings: %w", err)
	}
	defer rows.Close()

	var listings []models.Listing
	for rows.Next() {
		var l models.Listing
		var distance float64
		err := rows.Scan(
			&l.ID, &l.ClerkUserID, &l.Name, &l.Description, &l.Address,
			&l.Department, &l.Phone, &l.Email, &l.Website,
			&l.Latitude, &l.Longitude, &l.OrdersEnabled, &l.Active, &l.PublishedAt,
			&l.CreatedAt, &l.UpdatedAt, &distance,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan nearby listing: %w", err)
		}
		l.DistanceKm = &distance
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nearby listings: %w", err)
	}
	return listings, nil
}

// getPublishedProducts returns the consumer-visible catalog of a listing
func (s *sqlStore) getPublishedProducts(ctx context.Context, listingID int64) ([]models.Product, error) {
	query := `
		SELECT id, listing_id, name, category, price, unit, stock_status,
		       active, is_published, image_url, created_at, updated_at
		FROM products
		WHERE listing_id = $1 AND active = TRUE AND is_published = TRUE
		ORDER BY name ASC
	`
	rows, err := s.db.Pool.Query(ctx, query, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var p models.Product
		err := rows.Scan(
			&p.ID, &p.ListingID, &p.Name, &p.Category, &p.Price, &p.Unit,
			&p.StockStatus, &p.Active, &p.IsPublished, &p.ImageURL,
			&p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}
	return products, nil
}

func collectListings(rows pgx.Rows) ([]models.Listing, error) {
	var listings []models.Listing
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		listings = append(listings, *listing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating listings: %w", err)
	}
	return listings, nil
}
