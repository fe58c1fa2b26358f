package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsolidate_MergesDuplicates(t *testing.T) {
	items := []LineItem{
		{ProductID: 1, ProductName: "Board", UnitPrice: 100, Quantity: 1},
		{ProductID: 2, ProductName: "Boots", UnitPrice: 50, Quantity: 2},
		{ProductID: 1, ProductName: "Board", UnitPrice: 100, Quantity: 3},
	}

	out := Consolidate(items)

	require.Len(t, out, 2)
	assert.Equal(t, int64(1), out[0].ProductID)
	assert.Equal(t, 4, out[0].Quantity)
	assert.Equal(t, int64(2), out[1].ProductID)
	assert.Equal(t, 2, out[1].Quantity)
}

func TestConsolidate_PreservesFirstAppearanceOrder(t *testing.T) {
	items := []LineItem{
		{ProductID: 5, Quantity: 1},
		{ProductID: 3, Quantity: 1},
		{ProductID: 5, Quantity: 1},
		{ProductID: 9, Quantity: 1},
		{ProductID: 3, Quantity: 2},
	}

	out := Consolidate(items)

	require.Len(t, out, 3)
	assert.Equal(t, int64(5), out[0].ProductID)
	assert.Equal(t, int64(3), out[1].ProductID)
	assert.Equal(t, int64(9), out[2].ProductID)
}

func TestConsolidate_Idempotent(t *testing.T) {
	items := []LineItem{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 1},
		{ProductID: 1, Quantity: 1},
	}

	once := Consolidate(items)
	twice := Consolidate(once)

	assert.Equal(t, once, twice)
}

func TestConsolidate_Empty(t *testing.T) {
	out := Consolidate(nil)
	assert.Empty(t, out)
}

func TestBuildOrderSummary_EmptyCart(t *testing.T) {
	s := BuildOrderSummary(nil, nil, 0)

	assert.Zero(t, s.Subtotal)
	assert.Zero(t, s.Discount)
	assert.Zero(t, s.DeliveryFee)
	assert.Zero(t, s.TotalPrice)
}

func TestBuildOrderSummary_SubtotalPlusDeliveryFee(t *testing.T) {
	items := []LineItem{
		{ProductID: 1, UnitPrice: 100, Quantity: 2},
	}

	s := BuildOrderSummary(items, nil, 10)

	assert.Equal(t, 200.0, s.Subtotal)
	assert.Equal(t, 10.0, s.DeliveryFee)
	assert.Equal(t, 0.0, s.Discount)
	assert.Equal(t, 210.0, s.TotalPrice)
}

func TestBuildOrderSummary_DiscountApplied(t *testing.T) {
	items := []LineItem{
		{ProductID: 5, UnitPrice: 50, Quantity: 2},
	}
	vouchers := []Voucher{
		{Code: "SAVE10", Discount: 10},
		{Code: "SAVE5", Discount: 5},
	}

	s := BuildOrderSummary(items, vouchers, 10)

	assert.Equal(t, 100.0, s.Subtotal)
	assert.Equal(t, 15.0, s.Discount)
	assert.Equal(t, 95.0, s.TotalPrice)
}

func TestBuildOrderSummary_TotalNeverNegative(t *testing.T) {
	items := []LineItem{
		{ProductID: 1, UnitPrice: 10, Quantity: 1},
	}
	vouchers := []Voucher{
		{Code: "HUGE", Discount: 500},
	}

	s := BuildOrderSummary(items, vouchers, 5)

	assert.Equal(t, 10.0, s.Subtotal)
	assert.Equal(t, 0.0, s.TotalPrice)
}

func TestTotalItemsCount(t *testing.T) {
	items := []LineItem{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 3},
	}

	assert.Equal(t, 5, TotalItemsCount(items))
	assert.Equal(t, 0, TotalItemsCount(nil))
}

func TestLineItemFromProduct_Success(t *testing.T) {
	p := Product{
		ID:         1,
		Name:       "Angular Speedster Board 2000",
		Price:      200,
		PictureURL: "/images/products/sb-ang1.png",
		Brand:      "Angular",
		Type:       "Boards",
	}

	item, err := LineItemFromProduct(p, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), item.ProductID)
	assert.Equal(t, "Angular Speedster Board 2000", item.ProductName)
	assert.Equal(t, 200.0, item.UnitPrice)
	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, "Boards", item.Type)
}

func TestLineItemFromProduct_Invalid(t *testing.T) {
	valid := Product{ID: 1, Name: "Board", Price: 100}

	_, err := LineItemFromProduct(Product{Name: "Board", Price: 1}, 1)
	assert.ErrorIs(t, err, ErrInvalidProduct)

	_, err = LineItemFromProduct(Product{ID: 1, Price: 1}, 1)
	assert.ErrorIs(t, err, ErrInvalidProduct)

	_, err = LineItemFromProduct(Product{ID: 1, Name: "Board", Price: -1}, 1)
	assert.ErrorIs(t, err, ErrInvalidProduct)

	_, err = LineItemFromProduct(valid, 0)
	assert.ErrorIs(t, err, ErrInvalidProduct)
}

func TestCartClone_Independent(t *testing.T) {
	id := int64(2)
	cart := Cart{
		ID:               "cart-1",
		Items:            []LineItem{{ProductID: 1, Quantity: 1}},
		Vouchers:         []Voucher{{Code: "A", Discount: 5}},
		DeliveryMethodID: &id,
	}

	clone := cart.Clone()
	clone.Items[0].Quantity = 99
	*clone.DeliveryMethodID = 7

	assert.Equal(t, 1, cart.Items[0].Quantity)
	assert.Equal(t, int64(2), *cart.DeliveryMethodID)
}
