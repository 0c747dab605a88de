package models

import (
	"time"
)

// RequestStatus represents the lifecycle status of a farmer request
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

// IsValid checks if the request status is valid
func (s RequestStatus) IsValid() bool {
	switch s {
	case RequestStatusPending, RequestStatusApproved, RequestStatusRejected:
		return true
	default:
		return false
	}
}

// IsDecision returns true for the statuses an admin may set on a pending request
func (s RequestStatus) IsDecision() bool {
	return s == RequestStatusApproved || s == RequestStatusRejected
}

// Role implied by a decision: approving grants the farmer role, rejecting
// leaves the applicant a consumer.
func (s RequestStatus) ImpliedRole() string {
	if s == RequestStatusApproved {
		return RoleFarmer
	}
	return RoleConsumer
}

// User roles carried in the JWT and mirrored on the profiles table
const (
	RoleConsumer = "consumer"
	RoleFarmer   = "farmer"
	RoleAdmin    = "admin"
)

// StockStatus is the coarse three-valued inventory signal on products
type StockStatus string

const (
	StockStatusInStock    StockStatus = "in_stock"
	StockStatusLowStock   StockStatus = "low_stock"
	StockStatusOutOfStock StockStatus = "out_of_stock"
)

// IsValid checks if the stock status is valid
func (s StockStatus) IsValid() bool {
	switch s {
	case StockStatusInStock, StockStatusLowStock, StockStatusOutOfStock:
		return true
	default:
		return false
	}
}

// OrderStatus represents the fulfillment status of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// IsValid checks if the order status is valid
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusReady, OrderStatusDelivered, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransitionTo enforces the farmer-side fulfillment flow:
// pending -> confirmed -> ready -> delivered, cancellable until delivered.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return next == OrderStatusConfirmed || next == OrderStatusCancelled
	case OrderStatusConfirmed:
		return next == OrderStatusReady || next == OrderStatusCancelled
	case OrderStatusReady:
		return next == OrderStatusDelivered || next == OrderStatusCancelled
	default:
		return false
	}
}

// PaymentStatus represents the payment state of an order
type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "unpaid"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// IsValid checks if the payment status is valid
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusUnpaid, PaymentStatusPaid, PaymentStatusRefunded:
		return true
	default:
		return false
	}
}

// DeliveryMode represents how an order is handed over
type DeliveryMode string

const (
	DeliveryModePickup   DeliveryMode = "pickup"
	DeliveryModeDelivery DeliveryMode = "delivery"
)

// IsValid checks if the delivery mode is valid
func (m DeliveryMode) IsValid() bool {
	return m == DeliveryModePickup || m == DeliveryModeDelivery
}

// FarmerRequest is a producer's application for selling rights.
// Rows are never deleted; the decision history is the audit trail.
type FarmerRequest struct {
	ID          int64         `json:"id" db:"id"`
	UserID      string        `json:"user_id" db:"user_id"`
	Email       string        `json:"email" db:"email"`
	FirstName   string        `json:"first_name" db:"first_name"`
	LastName    string        `json:"last_name" db:"last_name"`
	FarmName    string        `json:"farm_name" db:"farm_name"`
	Siret       string        `json:"siret" db:"siret"`
	Department  string        `json:"department" db:"department"`
	Location    string        `json:"location" db:"location"`
	Latitude    float64       `json:"latitude" db:"latitude"`
	Longitude   float64       `json:"longitude" db:"longitude"`
	Phone       *string       `json:"phone,omitempty" db:"phone"`
	Description *string       `json:"description,omitempty" db:"description"`
	Products    *string       `json:"products,omitempty" db:"products"`
	Website     *string       `json:"website,omitempty" db:"website"`
	Status      RequestStatus `json:"status" db:"status"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
}

// Listing is the public storefront record for an approved farm
type Listing struct {
	ID            int64      `json:"id" db:"id"`
	ClerkUserID   string     `json:"clerk_user_id" db:"clerk_user_id"`
	Name          string     `json:"name" db:"name"`
	Description   *string    `json:"description,omitempty" db:"description"`
	Address       string     `json:"address" db:"address"`
	Department    *string    `json:"department,omitempty" db:"department"`
	Phone         *string    `json:"phone,omitempty" db:"phone"`
	Email         *string    `json:"email,omitempty" db:"email"`
	Website       *string    `json:"website,omitempty" db:"website"`
	Latitude      float64    `json:"latitude" db:"latitude"`
	Longitude     float64    `json:"longitude" db:"longitude"`
	OrdersEnabled bool       `json:"orders_enabled" db:"orders_enabled"`
	Active        bool       `json:"active" db:"active"`
	PublishedAt   *time.Time `json:"published_at,omitempty" db:"published_at"`
	DistanceKm    *float64   `json:"distance_km,omitempty"` // populated by nearby search only
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// Product belongs to exactly one listing
type Product struct {
	ID          int64       `json:"id" db:"id"`
	ListingID   int64       `json:"listing_id" db:"listing_id"`
	Name        string      `json:"name" db:"name"`
	Category    *string     `json:"category,omitempty" db:"category"`
	Price       *float64    `json:"price,omitempty" db:"price"`
	Unit        *string     `json:"unit,omitempty" db:"unit"`
	StockStatus StockStatus `json:"stock_status" db:"stock_status"`
	Active      bool        `json:"active" db:"active"`
	IsPublished bool        `json:"is_published" db:"is_published"`
	ImageURL    *string     `json:"image_url,omitempty" db:"image_url"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

// OrderItem is a snapshot of a product line taken at order-creation time.
// It intentionally does not track later changes to the product row.
type OrderItem struct {
	ProductID   int64   `json:"productId"`
	ProductName string  `json:"productName"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	Unit        string  `json:"unit"`
	ImageURL    string  `json:"imageUrl,omitempty"`
}

// DeliveryAddress is the structured address required for delivery-mode orders
type DeliveryAddress struct {
	Street         string `json:"street"`
	City           string `json:"city"`
	PostalCode     string `json:"postalCode"`
	Country        string `json:"country"`
	AdditionalInfo string `json:"additionalInfo,omitempty"`
}

// Order is a historical record: items and total are immutable snapshots
type Order struct {
	ID              string           `json:"id" db:"id"`
	UserID          string           `json:"user_id" db:"user_id"`
	FarmID          int64            `json:"farm_id" db:"farm_id"`
	Items           []OrderItem      `json:"items"`
	TotalPrice      float64          `json:"total_price" db:"total_price"`
	DeliveryMode    DeliveryMode     `json:"delivery_mode" db:"delivery_mode"`
	DeliveryDay     string           `json:"delivery_day" db:"delivery_day"`
	DeliveryAddress *DeliveryAddress `json:"delivery_address,omitempty"`
	CustomerNotes   *string          `json:"customer_notes,omitempty" db:"customer_notes"`
	Status          OrderStatus      `json:"status" db:"status"`
	PaymentStatus   PaymentStatus    `json:"payment_status" db:"payment_status"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at" db:"updated_at"`
}

// Profile mirrors the identity provider's user record in the store
type Profile struct {
	UserID    string    `json:"user_id" db:"user_id"`
	Email     string    `json:"email" db:"email"`
	FirstName *string   `json:"first_name,omitempty" db:"first_name"`
	LastName  *string   `json:"last_name,omitempty" db:"last_name"`
	Role      string    `json:"role" db:"role"`
	ListingID *int64    `json:"listing_id,omitempty" db:"listing_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
