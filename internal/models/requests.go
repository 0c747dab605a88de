package models

// SubmitFarmerRequestRequest is the body for POST /api/onboarding/submit-request.
// Field-level checks happen in the validation package so every problem is
// reported in one response rather than failing on the first.
type SubmitFarmerRequestRequest struct {
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	FarmName    string   `json:"farmName"`
	Siret       string   `json:"siret"`
	Department  string   `json:"department"`
	Location    string   `json:"location"`
	Latitude    *float64 `json:"lat"`
	Longitude   *float64 `json:"lng"`
	Phone       string   `json:"phone,omitempty"`
	Description string   `json:"description,omitempty"`
	Products    string   `json:"products,omitempty"`
	Website     string   `json:"website,omitempty"`
}

// SubmitFarmerRequestResponse confirms a created application
type SubmitFarmerRequestResponse struct {
	Success   bool  `json:"success"`
	RequestID int64 `json:"requestId"`
}

// DecideFarmerRequestRequest is the body for POST /api/admin/validate-farmer-request.
// UserID and Role are accepted for compatibility with the admin console but the
// authoritative values come from the stored request row.
type DecideFarmerRequestRequest struct {
	RequestID int64  `json:"requestId"`
	UserID    string `json:"userId,omitempty"`
	Role      string `json:"role,omitempty"`
	Status    string `json:"status"`
}

// DecideFarmerRequestResponse reports the decision outcome
type DecideFarmerRequestResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// FarmProfileInput carries the descriptive listing fields for finalization.
// Empty fields fall back to the data captured on the farmer request.
type FarmProfileInput struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Address     string `json:"address,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty"`
	Website     string `json:"website,omitempty"`
}

// ProductInput is one catalog entry supplied during onboarding or farmer edits
type ProductInput struct {
	Name        string  `json:"name"`
	Category    string  `json:"category,omitempty"`
	Price       float64 `json:"price"`
	Unit        string  `json:"unit,omitempty"`
	StockStatus string  `json:"stockStatus,omitempty"`
	ImageURL    string  `json:"imageUrl,omitempty"`
}

// FinalizeListingRequest is the body for POST /api/onboarding/create-listing
type FinalizeListingRequest struct {
	RequestID    int64            `json:"requestId"`
	FarmProfile  FarmProfileInput `json:"farmProfile"`
	Products     []ProductInput   `json:"products,omitempty"`
	EnableOrders bool             `json:"enableOrders"`
	PublishFarm  bool             `json:"publishFarm"`
}

// FinalizeListingResponse confirms the activated storefront
type FinalizeListingResponse struct {
	Success   bool  `json:"success"`
	ListingID int64 `json:"listingId"`
}

// CreateOrderItemInput is one cart line in an order request.
// Client-supplied prices are never read; the store price always wins.
type CreateOrderItemInput struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// CreateOrderRequest is the body for POST /api/orders/create
type CreateOrderRequest struct {
	FarmID          int64                  `json:"farmId"`
	Items           []CreateOrderItemInput `json:"items"`
	DeliveryMode    string                 `json:"deliveryMode"`
	DeliveryDay     string                 `json:"deliveryDay"`
	DeliveryAddress *DeliveryAddress       `json:"deliveryAddress,omitempty"`
	CustomerNotes   string                 `json:"customerNotes,omitempty"`
}

// CreateOrderResponse returns the full persisted order record
type CreateOrderResponse struct {
	Success bool   `json:"success"`
	Order   *Order `json:"order"`
}

// UpdateOrderStatusRequest is the farmer-side fulfillment update
type UpdateOrderStatusRequest struct {
	Status        string `json:"status"`
	PaymentStatus string `json:"paymentStatus,omitempty"`
}

// UpdateListingRequest is the farmer-side storefront edit
type UpdateListingRequest struct {
	Name          *string `json:"name,omitempty"`
	Description   *string `json:"description,omitempty"`
	Address       *string `json:"address,omitempty"`
	Phone         *string `json:"phone,omitempty"`
	Website       *string `json:"website,omitempty"`
	OrdersEnabled *bool   `json:"ordersEnabled,omitempty"`
	Active        *bool   `json:"active,omitempty"`
}

// UpdateProductRequest is the farmer-side catalog edit
type UpdateProductRequest struct {
	Name        *string  `json:"name,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Unit        *string  `json:"unit,omitempty"`
	StockStatus *string  `json:"stockStatus,omitempty"`
	Active      *bool    `json:"active,omitempty"`
	IsPublished *bool    `json:"isPublished,omitempty"`
	ImageURL    *string  `json:"imageUrl,omitempty"`
}

// ListParams are the shared pagination/sorting query parameters
type ListParams struct {
	Limit     int    `form:"limit"`
	Offset    int    `form:"offset"`
	SortBy    string `form:"sortBy"`
	SortOrder string `form:"sortOrder"`
}

// FarmerRequestListParams are the query parameters for the admin request list
type FarmerRequestListParams struct {
	ListParams
	Status string `form:"status"`
}

// ListingListParams are the query parameters for the public listing list
type ListingListParams struct {
	ListParams
	IncludeInactive bool `form:"includeInactive"`
}

// Pagination describes the window of a list response
type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

// FarmerRequestListResponse is the admin request-list payload
type FarmerRequestListResponse struct {
	Requests   []FarmerRequest `json:"requests"`
	Count      int             `json:"count"`
	Pagination *Pagination     `json:"pagination,omitempty"`
}

// ListingListResponse is the listing-list payload
type ListingListResponse struct {
	Listings   []Listing  `json:"listings"`
	Pagination Pagination `json:"pagination"`
}

// NearbyListingsResponse is the map-discovery payload
type NearbyListingsResponse struct {
	Listings []Listing `json:"listings"`
	Count    int       `json:"count"`
}

// OrderListResponse is the consumer/farmer order history payload
type OrderListResponse struct {
	Orders []Order `json:"orders"`
	Count  int     `json:"count"`
}

// SuccessResponse is the generic success envelope for mutations without a payload
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}
