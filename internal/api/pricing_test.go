package api

import (
	"testing"

	"github.com/farmtofork/farmtofork/backend/market-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string     { return &s }
func pricePtr(v float64) *float64 { return &v }

func testProducts() map[int64]*models.Product {
	return map[int64]*models.Product{
		10: {
			ID: 10, ListingID: 1, Name: "Tomates anciennes",
			Price: pricePtr(3.50), Unit: strPtr("kg"),
			StockStatus: models.StockStatusInStock,
			ImageURL:    strPtr("https://img.example/tomates.jpg"),
		},
		11: {
			ID: 11, ListingID: 1, Name: "Oeufs plein air",
			Price: pricePtr(4.20), Unit: strPtr("douzaine"),
			StockStatus: models.StockStatusLowStock,
		},
	}
}

func TestComputeOrderItems_SingleLine(t *testing.T) {
	items, total, appErr := computeOrderItems(testProducts(), []models.CreateOrderItemInput{
		{ProductID: 10, Quantity: 4},
	})
	require.Nil(t, appErr)

	assert.Equal(t, 14.00, total)
	require.Len(t, items, 1)
	assert.Equal(t, int64(10), items[0].ProductID)
	assert.Equal(t, "Tomates anciennes", items[0].ProductName)
	assert.Equal(t, 3.50, items[0].Price)
	assert.Equal(t, 4, items[0].Quantity)
	assert.Equal(t, "kg", items[0].Unit)
	assert.Equal(t, "https://img.example/tomates.jpg", items[0].ImageURL)
}

func TestComputeOrderItems_MultiLineTotal(t *testing.T) {
	items, total, appErr := computeOrderItems(testProducts(), []models.CreateOrderItemInput{
		{ProductID: 10, Quantity: 2}, // 7.00
		{ProductID: 11, Quantity: 3}, // 12.60
	})
	require.Nil(t, appErr)

	assert.Equal(t, 19.60, total)
	assert.Len(t, items, 2)
	assert.Empty(t, items[1].ImageURL, "no image on the product means no image in the snapshot")
}

func TestComputeOrderItems_MissingPriceIsIntegrityFault(t *testing.T) {
	products := testProducts()
	products[10].Price = nil

	_, _, appErr := computeOrderItems(products, []models.CreateOrderItemInput{
		{ProductID: 10, Quantity: 1},
	})
	require.NotNil(t, appErr)
	assert.Equal(t, models.ErrInternal, appErr.Kind, "a priceless product is a data fault, not a client error")
}

func TestComputeOrderItems_MissingUnitIsIntegrityFault(t *testing.T) {
	products := testProducts()
	products[11].Unit = nil

	_, _, appErr := computeOrderItems(products, []models.CreateOrderItemInput{
		{ProductID: 11, Quantity: 1},
	})
	require.NotNil(t, appErr)
	assert.Equal(t, models.ErrInternal, appErr.Kind)
}

func TestCheckStock(t *testing.T) {
	products := testProducts()
	inputs := []models.CreateOrderItemInput{
		{ProductID: 10, Quantity: 1},
		{ProductID: 11, Quantity: 1},
	}
	assert.Nil(t, checkStock(products, inputs), "in_stock and low_stock are orderable")

	products[11].StockStatus = models.StockStatusOutOfStock
	appErr := checkStock(products, inputs)
	require.NotNil(t, appErr)
	assert.Equal(t, models.ErrInvalidState, appErr.Kind)
	assert.Contains(t, appErr.Message, "Oeufs plein air", "offending product is named")
}

func TestCheckStock_StableRejectionOrder(t *testing.T) {
	products := testProducts()
	products[10].StockStatus = models.StockStatusOutOfStock
	products[11].StockStatus = models.StockStatusOutOfStock

	inputs := []models.CreateOrderItemInput{
		{ProductID: 11, Quantity: 1},
		{ProductID: 10, Quantity: 2},
		{ProductID: 10, Quantity: 3},
	}
	appErr := checkStock(products, inputs)
	require.NotNil(t, appErr)
	assert.Equal(t, []string{"Oeufs plein air", "Tomates anciennes"}, appErr.Details,
		"offenders follow deduplicated request order")
}
