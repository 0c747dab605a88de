package validation

import (
	"strings"
	"testing"

	"github.com/farmtofork/farmtofork/backend/market-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidSiret(t *testing.T) {
	assert.True(t, IsValidSiret("12345678901234"))
	assert.True(t, IsValidSiret("123 456 789 01234"), "whitespace is stripped before matching")

	assert.False(t, IsValidSiret("1234567890123"), "13 digits")
	assert.False(t, IsValidSiret("123456789012345"), "15 digits")
	assert.False(t, IsValidSiret("1234567890123a"))
	assert.False(t, IsValidSiret(""))
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("jean@ferme.fr"))
	assert.True(t, IsValidEmail("a.b+c@sub.domain.org"))

	assert.False(t, IsValidEmail("jean@ferme"))
	assert.False(t, IsValidEmail("jean ferme@x.fr"))
	assert.False(t, IsValidEmail("@ferme.fr"))
	assert.False(t, IsValidEmail(""))
}

func TestIsValidCoordinates(t *testing.T) {
	assert.True(t, IsValidCoordinates(45.0, 2.0))
	assert.True(t, IsValidCoordinates(-90, 180))

	assert.False(t, IsValidCoordinates(91, 2.0))
	assert.False(t, IsValidCoordinates(45.0, 181))
	assert.False(t, IsValidCoordinates(-90.5, 0))
}

func floatPtr(v float64) *float64 { return &v }

func validSubmission() models.SubmitFarmerRequestRequest {
	return models.SubmitFarmerRequestRequest{
		FirstName:  "Jean",
		LastName:   "Dupont",
		FarmName:   "Ferme du Vallon",
		Siret:      "12345678901234",
		Department: "Aveyron",
		Location:   "12 route des Prés, Rodez",
		Latitude:   floatPtr(44.35),
		Longitude:  floatPtr(2.57),
	}
}

func TestValidateSubmitFarmerRequest_Valid(t *testing.T) {
	req := validSubmission()
	details := ValidateSubmitFarmerRequest("jean@ferme.fr", &req)
	assert.Empty(t, details)
}

func TestValidateSubmitFarmerRequest_ReportsAllProblems(t *testing.T) {
	req := validSubmission()
	req.FirstName = "  "
	req.FarmName = ""
	req.Siret = "123"
	req.Latitude = floatPtr(95)

	details := ValidateSubmitFarmerRequest("not-an-email", &req)

	require.Len(t, details, 5, "every problem is reported, not just the first: %v", details)
	joined := strings.Join(details, "; ")
	assert.Contains(t, joined, "firstName")
	assert.Contains(t, joined, "farmName")
	assert.Contains(t, joined, "siret")
	assert.Contains(t, joined, "lat")
	assert.Contains(t, joined, "email")
}

func TestValidateSubmitFarmerRequest_MissingCoordinates(t *testing.T) {
	req := validSubmission()
	req.Longitude = nil

	details := ValidateSubmitFarmerRequest("jean@ferme.fr", &req)
	require.Len(t, details, 1)
	assert.Contains(t, details[0], "lat and lng are required")
}

func validOrder() models.CreateOrderRequest {
	return models.CreateOrderRequest{
		FarmID:       1,
		Items:        []models.CreateOrderItemInput{{ProductID: 10, Quantity: 4}},
		DeliveryMode: "pickup",
		DeliveryDay:  "saturday",
	}
}

func TestValidateCreateOrder_Valid(t *testing.T) {
	req := validOrder()
	assert.Empty(t, ValidateCreateOrder(&req))
}

func TestValidateCreateOrder_DeliveryRequiresAddress(t *testing.T) {
	req := validOrder()
	req.DeliveryMode = "delivery"

	details := ValidateCreateOrder(&req)
	require.Len(t, details, 1)
	assert.Contains(t, details[0], "deliveryAddress is required")

	// The same payload in pickup mode needs no address.
	req.DeliveryMode = "pickup"
	assert.Empty(t, ValidateCreateOrder(&req))

	// With an address, every missing address field is reported.
	req.DeliveryMode = "delivery"
	req.DeliveryAddress = &models.DeliveryAddress{Street: "3 rue du Marché"}
	details = ValidateCreateOrder(&req)
	require.Len(t, details, 3)
}

func TestValidateCreateOrder_ItemBounds(t *testing.T) {
	req := validOrder()
	req.Items = nil
	details := ValidateCreateOrder(&req)
	require.Len(t, details, 1)
	assert.Contains(t, details[0], "at least one entry")

	req.Items = make([]models.CreateOrderItemInput, MaxOrderItems+1)
	for i := range req.Items {
		req.Items[i] = models.CreateOrderItemInput{ProductID: int64(i + 1), Quantity: 1}
	}
	details = ValidateCreateOrder(&req)
	require.Len(t, details, 1)
	assert.Contains(t, details[0], "at most 50 entries")

	req.Items = []models.CreateOrderItemInput{
		{ProductID: 0, Quantity: 2},
		{ProductID: 5, Quantity: MaxItemQuantity + 1},
	}
	details = ValidateCreateOrder(&req)
	require.Len(t, details, 2)
	assert.Contains(t, details[0], "items[0].productId")
	assert.Contains(t, details[1], "items[1].quantity")
}

func TestValidateCreateOrder_Notes(t *testing.T) {
	req := validOrder()
	req.CustomerNotes = strings.Repeat("x", MaxCustomerNotesLen)
	assert.Empty(t, ValidateCreateOrder(&req))

	req.CustomerNotes = strings.Repeat("x", MaxCustomerNotesLen+1)
	details := ValidateCreateOrder(&req)
	require.Len(t, details, 1)
	assert.Contains(t, details[0], "customerNotes")

	// The limit counts characters, not bytes; accented notes must not be
	// penalized for their UTF-8 width.
	req.CustomerNotes = strings.Repeat("é", MaxCustomerNotesLen)
	assert.Empty(t, ValidateCreateOrder(&req))

	req.CustomerNotes = strings.Repeat("é", MaxCustomerNotesLen+1)
	require.Len(t, ValidateCreateOrder(&req), 1)
}

func TestValidateCreateOrder_ModeAndDay(t *testing.T) {
	req := validOrder()
	req.DeliveryMode = "teleport"
	req.DeliveryDay = "  "

	details := ValidateCreateOrder(&req)
	require.Len(t, details, 2)
}

func TestValidateListParams(t *testing.T) {
	sortable := map[string]bool{"created_at": true, "name": true}

	p := models.ListParams{}
	details := ValidateListParams(&p, sortable, "created_at")
	assert.Empty(t, details)
	assert.Equal(t, 20, p.Limit)
	assert.Equal(t, "created_at", p.SortBy)
	assert.Equal(t, "desc", p.SortOrder)

	p = models.ListParams{Limit: 101, Offset: -1, SortBy: "password", SortOrder: "sideways"}
	details = ValidateListParams(&p, sortable, "created_at")
	assert.Len(t, details, 4)
}

func TestRoundCurrency(t *testing.T) {
	assert.Equal(t, 14.00, RoundCurrency(3.50*4))
	assert.Equal(t, 0.1, RoundCurrency(0.1+1e-12))
	assert.Equal(t, 0.13, RoundCurrency(0.125), "half rounds away from zero")
	assert.Equal(t, -0.13, RoundCurrency(-0.125))
	assert.Equal(t, 10.56, RoundCurrency(3.52*3))
}
