package validation

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/farmtofork/farmtofork/backend/market-service/internal/models"
)

const (
	// MaxOrderItems bounds a single cart submission
	MaxOrderItems = 50
	// MaxItemQuantity bounds one line's quantity
	MaxItemQuantity = 1000
	// MaxCustomerNotesLen bounds the free-text order note
	MaxCustomerNotesLen = 500
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	siretPattern = regexp.MustCompile(`^\d{14}$`)
)

// IsValidEmail reports whether the address has a plausible user@domain.tld shape
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// NormalizeSiret strips all whitespace from a SIRET business identifier
func NormalizeSiret(siret string) string {
	return strings.Join(strings.Fields(siret), "")
}

// IsValidSiret reports whether the normalized value is exactly 14 digits
func IsValidSiret(siret string) bool {
	return siretPattern.MatchString(NormalizeSiret(siret))
}

// IsValidCoordinates reports whether lat/lng are finite and in range
func IsValidCoordinates(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lng) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// ValidateSubmitFarmerRequest checks the onboarding submission and reports
// every problem found, not just the first one.
func ValidateSubmitFarmerRequest(email string, req *models.SubmitFarmerRequestRequest) []string {
	var details []string

	required := []struct {
		field string
		value string
	}{
		{"firstName", req.FirstName},
		{"lastName", req.LastName},
		{"farmName", req.FarmName},
		{"siret", req.Siret},
		{"department", req.Department},
		{"location", req.Location},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			details = append(details, fmt.Sprintf("%s is required", f.field))
		}
	}

	if req.Latitude == nil || req.Longitude == nil {
		details = append(details, "lat and lng are required")
	} else if !IsValidCoordinates(*req.Latitude, *req.Longitude) {
		details = append(details, "lat must be within [-90,90] and lng within [-180,180]")
	}

	if !IsValidEmail(email) {
		details = append(details, "email is not a valid address")
	}

	if strings.TrimSpace(req.Siret) != "" && !IsValidSiret(req.Siret) {
		details = append(details, "siret must be exactly 14 digits")
	}

	return details
}

// ValidateCreateOrder checks the order payload shape. Price-related checks are
// not performed here: prices come from the store, never from the client.
func ValidateCreateOrder(req *models.CreateOrderRequest) []string {
	var details []string

	if req.FarmID <= 0 {
		details = append(details, "farmId must be a positive integer")
	}

	switch {
	case len(req.Items) == 0:
		details = append(details, "items must contain at least one entry")
	case len(req.Items) > MaxOrderItems:
		details = append(details, fmt.Sprintf("items must contain at most %d entries", MaxOrderItems))
	default:
		for i, item := range req.Items {
			if item.ProductID <= 0 {
				details = append(details, fmt.Sprintf("items[%d].productId must be a positive integer", i))
			}
			if item.Quantity <= 0 || item.Quantity > MaxItemQuantity {
				details = append(details, fmt.Sprintf("items[%d].quantity must be between 1 and %d", i, MaxItemQuantity))
			}
		}
	}

	mode := models.DeliveryMode(req.DeliveryMode)
	if !mode.IsValid() {
		details = append(details, "deliveryMode must be 'pickup' or 'delivery'")
	}

	if strings.TrimSpace(req.DeliveryDay) == "" {
		details = append(details, "deliveryDay is required")
	}

	if mode == models.DeliveryModeDelivery {
		if req.DeliveryAddress == nil {
			details = append(details, "deliveryAddress is required for delivery orders")
		} else {
			details = append(details, validateDeliveryAddress(req.DeliveryAddress)...)
		}
	}

	if utf8.RuneCountInString(req.CustomerNotes) > MaxCustomerNotesLen {
		details = append(details, fmt.Sprintf("customerNotes must be at most %d characters", MaxCustomerNotesLen))
	}

	return details
}

func validateDeliveryAddress(addr *models.DeliveryAddress) []string {
	var details []string
	required := []struct {
		field string
		value string
	}{
		{"deliveryAddress.street", addr.Street},
		{"deliveryAddress.city", addr.City},
		{"deliveryAddress.postalCode", addr.PostalCode},
		{"deliveryAddress.country", addr.Country},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			details = append(details, fmt.Sprintf("%s is required", f.field))
		}
	}
	return details
}

// ValidateListParams checks shared pagination/sorting query parameters against
// a whitelist of sortable columns and fills in defaults.
func ValidateListParams(p *models.ListParams, sortable map[string]bool, defaultSort string) []string {
	var details []string

	if p.Limit < 0 || p.Limit > 100 {
		details = append(details, "limit must be between 0 and 100")
	}
	if p.Offset < 0 {
		details = append(details, "offset must not be negative")
	}
	if p.Limit == 0 {
		p.Limit = 20
	}

	if p.SortBy == "" {
		p.SortBy = defaultSort
	} else if !sortable[p.SortBy] {
		details = append(details, "sortBy is not a sortable column")
	}

	switch p.SortOrder {
	case "":
		p.SortOrder = "desc"
	case "asc", "desc":
	default:
		details = append(details, "sortOrder must be 'asc' or 'desc'")
	}

	return details
}

// RoundCurrency rounds a monetary amount to 2 decimal places, half away from
// zero. Order totals always pass through this before persistence.
func RoundCurrency(amount float64) float64 {
	return math.Round(amount*100) / 100
}
