package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/farmtofork/farmtofork/backend/market-service/internal/models"
	"github.com/farmtofork/farmtofork/backend/market-service/internal/validation"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// isUniqueViolation reports whether err is a Postgres unique-constraint
// rejection (SQLSTATE 23505)
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// nullable converts an optional string to a *string, trimming whitespace
func nullable(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

const farmerRequestColumns = `
	id, user_id, email, first_name, last_name, farm_name, siret, department,
	location, latitude, longitude, phone, description, products, website,
	status, created_at, updated_at`

func scanFarmerRequest(row pgx.Row) (*models.FarmerRequest, error) {
	var r models.FarmerRequest
	err := row.Scan(
		&r.ID, &r.UserID, &r.Email, &r.FirstName, &r.LastName, &r.FarmName,
		&r.Siret, &r.Department, &r.Location, &r.Latitude, &r.Longitude,
		&r.Phone, &r.Description, &r.Products, &r.Website,
		&r.Status, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// hasPendingRequest checks whether the user already has a pending application
func (s *sqlStore) hasPendingRequest(ctx context.Context, userID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM farmer_requests WHERE user_id = $1 AND status = 'pending')`
	if err := s.db.Pool.QueryRow(ctx, query, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check pending requests: %w", err)
	}
	return exists, nil
}

// insertFarmerRequest creates a new pending application and returns its id
func (s *sqlStore) insertFarmerRequest(ctx context.Context, userID, email string, req *models.SubmitFarmerRequestRequest) (int64, error) {
	query := `
		INSERT INTO farmer_requests
			(user_id, email, first_name, last_name, farm_name, siret, department,
			 location, latitude, longitude, phone, description, products, website, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, 'pending')
		RETURNING id
	`

	var id int64
	err := s.db.Pool.QueryRow(ctx, query,
		userID,
		email,
		strings.TrimSpace(req.FirstName),
		strings.TrimSpace(req.LastName),
		strings.TrimSpace(req.FarmName),
		validation.NormalizeSiret(req.Siret),
		strings.TrimSpace(req.Department),
		strings.TrimSpace(req.Location),
		*req.Latitude,
		*req.Longitude,
		nullable(req.Phone),
		nullable(req.Description),
		nullable(req.Products),
		nullable(req.Website),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert farmer request: %w", err)
	}

	return id, nil
}

// getFarmerRequestByID loads an application; nil without error when absent
func (s *sqlStore) getFarmerRequestByID(ctx context.Context, requestID int64) (*models.FarmerRequest, error) {
	query := `SELECT` + farmerRequestColumns + ` FROM farmer_requests WHERE id = $1`
	request, err := scanFarmerRequest(s.db.Pool.QueryRow(ctx, query, requestID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get farmer request: %w", err)
	}
	return request, nil
}

// updateRequestStatus flips the decision status and bumps updated_at
func (s *sqlStore) updateRequestStatus(ctx context.Context, requestID int64, status models.RequestStatus) error {
	query := `UPDATE farmer_requests SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	result, err := s.db.Pool.Exec(ctx, query, string(status), requestID)
	if err != nil {
		return fmt.Errorf("failed to update request status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("farmer request %d not found", requestID)
	}
	return nil
}

// getFarmerRequests lists applications with filtering, sorting, and pagination
func (s *sqlStore) getFarmerRequests(ctx context.Context, params *models.FarmerRequestListParams) ([]models.FarmerRequest, int, error) {
	where := ""
	args := []interface{}{}
	if params.Status != "" {
		where = "WHERE status = $1"
		args = append(args, params.Status)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM farmer_requests ` + where
	if err := s.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count farmer requests: %w", err)
	}

	// params.SortBy / SortOrder are whitelist-validated by the handler
	query := fmt.Sprintf(`SELECT %s FROM farmer_requests %s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		farmerRequestColumns, where, params.SortBy, strings.ToUpper(params.SortOrder), len(args)+1, len(args)+2)
	args = append(args, params.Limit, params.Offset)

	rows, err := s.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query farmer requests: %w", err)
	}
	defer rows.Close()

	var requests []models.FarmerRequest
	for rows.Next() {
		request, err := scanFarmerRequest(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan farmer request: %w", err)
		}
		requests = append(requests, *request)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating farmer requests: %w", err)
	}

	return requests, total, nil
}

const listingColumns = `
	id, clerk_user_id, name, description, address, department, phone, email,
	website, latitude, longitude, orders_enabled, active, published_at,
	created_at, updated_at`

func scanListing(row pgx.Row) (*models.Listing, error) {
	var l models.Listing
	err := row.Scan(
		&l.ID, &l.ClerkUserID, &l.Name, &l.Description, &l.Address,
		&l.Department, &l.Phone, &l.Email, &l.Website,
		&l.Latitude, &l.Longitude, &l.OrdersEnabled, &l.Active, &l.PublishedAt,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// provisionListing creates the storefront row for an approved request. The
// insert is idempotent so repeating a decision after a partial failure is safe.
func (s *sqlStore) provisionListing(ctx context.Context, request *models.FarmerRequest) error {
	query := `
		INSERT INTO listings
			(clerk_user_id, name, description, address, department, phone, email,
			 website, latitude, longitude, orders_enabled, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, FALSE, FALSE)
		ON CONFLICT (clerk_user_id) DO NOTHING
	`
	_, err := s.db.Pool.Exec(ctx, query,
		request.UserID,
		request.FarmName,
		request.Description,
		request.Location,
		request.Department,
		request.Phone,
		request.Email,
		request.Website,
		request.Latitude,
		request.Longitude,
	)
	if err != nil {
		return fmt.Errorf("failed to provision listing: %w", err)
	}
	return nil
}

// getListingByOwner loads the storefront row owned by a user; nil when absent
func (s *sqlStore) getListingByOwner(ctx context.Context, userID string) (*models.Listing, error) {
	query := `SELECT` + listingColumns + ` FROM listings WHERE clerk_user_id = $1`
	listing, err := scanListing(s.db.Pool.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return listing, nil
}

// getListingByID loads a storefront row by id; nil when absent
func (s *sqlStore) getListingByID(ctx context.Context, listingID int64) (*models.Listing, error) {
	query := `SELECT` + listingColumns + ` FROM listings WHERE id = $1`
	listing, err := scanListing(s.db.Pool.QueryRow(ctx, query, listingID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return listing, nil
}

// finalizeListing applies the onboarding profile onto the provisioned row.
// Empty profile fields fall back to the request data; published_at is set only
// on the first publication and cleared when unpublishing.
func (s *sqlStore) finalizeListing(ctx context.Context, listing *models.Listing, request *models.FarmerRequest, req *models.FinalizeListingRequest) error {
	name := strings.TrimSpace(req.FarmProfile.Name)
	if name == "" {
		name = request.FarmName
	}
	description := nullable(req.FarmProfile.Description)
	if description == nil {
		description = request.Description
	}
	address := strings.TrimSpace(req.FarmProfile.Address)
	if address == "" {
		address = request.Location
	}
	phone := nullable(req.FarmProfile.Phone)
	if phone == nil {
		phone = request.Phone
	}
	email := nullable(req.FarmProfile.Email)
	if email == nil {
		email = &request.Email
	}
	website := nullable(req.FarmProfile.Website)
	if website == nil {
		website = request.Website
	}

	query := `
		UPDATE listings SET
			name = $1, description = $2, address = $3, phone = $4, email = $5,
			website = $6, orders_enabled = $7, active = $8,
			published_at = CASE
				WHEN $8 AND published_at IS NULL THEN CURRENT_TIMESTAMP
				WHEN $8 THEN published_at
				ELSE NULL
			END,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $9
	`
	_, err := s.db.Pool.Exec(ctx, query,
		name, description, address, phone, email, website,
		req.EnableOrders, req.PublishFarm, listing.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update listing: %w", err)
	}
	return nil
}

// insertProduct creates one catalog row for a listing
func (s *sqlStore) insertProduct(ctx context.Context, listingID int64, p *models.ProductInput) error {
	stockStatus := models.StockStatus(p.StockStatus)
	if !stockStatus.IsValid() {
		stockStatus = models.StockStatusInStock
	}
	if p.Price < 0 {
		return fmt.Errorf("product price must not be negative")
	}

	query := `
		INSERT INTO products (listing_id, name, category, price, unit, stock_status, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.Pool.Exec(ctx, query,
		listingID,
		strings.TrimSpace(p.Name),
		nullable(p.Category),
		p.Price,
		nullable(p.Unit),
		string(stockStatus),
		nullable(p.ImageURL),
	)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

// getProfile loads a profile row; nil when absent
func (s *sqlStore) getProfile(ctx context.Context, userID string) (*models.Profile, error) {
	var p models.Profile
	query := `
		SELECT user_id, email, first_name, last_name, role, listing_id, created_at, updated_at
		FROM profiles WHERE user_id = $1
	`
	err := s.db.Pool.QueryRow(ctx, query, userID).Scan(
		&p.UserID, &p.Email, &p.FirstName, &p.LastName, &p.Role, &p.ListingID,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}

// ensureProfile upserts the store-side mirror of an identity-provider user
func (s *sqlStore) ensureProfile(ctx context.Context, userID, email, firstName, lastName string) error {
	query := `
		INSERT INTO profiles (user_id, email, first_name, last_name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			email = EXCLUDED.email,
			first_name = COALESCE(EXCLUDED.first_name, profiles.first_name),
			last_name = COALESCE(EXCLUDED.last_name, profiles.last_name),
			updated_at = CURRENT_TIMESTAMP
	`
	if _, err := s.db.Pool.Exec(ctx, query, userID, email, nullable(firstName), nullable(lastName)); err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

// updateProfileRole sets the profile's role, creating the row if the user has
// never touched the store before. Setting the same role twice is a no-op.
func (s *sqlStore) updateProfileRole(ctx context.Context, userID, email, role string) error {
	query := `
		INSERT INTO profiles (user_id, email, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			role = EXCLUDED.role,
			updated_at = CURRENT_TIMESTAMP
	`
	if _, err := s.db.Pool.Exec(ctx, query, userID, email, role); err != nil {
		return fmt.Errorf("failed to update profile role: %w", err)
	}
	return nil
}

// linkProfileListing records the listing a farmer's profile belongs to
func (s *sqlStore) linkProfileListing(ctx context.Context, userID string, listingID int64) error {
	query := `UPDATE profiles SET listing_id = $1, updated_at = CURRENT_TIMESTAMP WHERE user_id = $2`
	if _, err := s.db.Pool.Exec(ctx, query, listingID, userID); err != nil {
		return fmt.Errorf("failed to link profile listing: %w", err)
	}
	return nil
}
