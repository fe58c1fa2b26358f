package domain

import (
	"errors"
	"fmt"
)

var ErrInvalidProduct = errors.New("invalid product data")

// Consolidate merges duplicate line items by ProductID, summing
// quantities. Order of first appearance is preserved and the operation
// is idempotent.
func Consolidate(items []LineItem) []LineItem {
	out := make([]LineItem, 0, len(items))
	index := make(map[int64]int, len(items))

	for _, item := range items {
		if i, ok := index[item.ProductID]; ok {
			out[i].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(out)
		out = append(out, item)
	}

	return out
}

func Subtotal(items []LineItem) float64 {
	var sum float64
	for _, item := range items {
		sum += item.UnitPrice * float64(item.Quantity)
	}
	if sum < 0 {
		return 0
	}
	return sum
}

func TotalDiscount(vouchers []Voucher) float64 {
	var sum float64
	for _, v := range vouchers {
		sum += v.Discount
	}
	return sum
}

func TotalItemsCount(items []LineItem) int {
	var total int
	for _, item := range items {
		total += item.Quantity
	}
	return total
}

// BuildOrderSummary derives the totals from current cart state. Pure;
// safe to call with an empty cart. TotalPrice is floored at 0 even when
// the discount exceeds subtotal plus delivery fee.
func BuildOrderSummary(items []LineItem, vouchers []Voucher, deliveryFee float64) OrderSummary {
	subtotal := Subtotal(items)
	discount := TotalDiscount(vouchers)
	total := subtotal + deliveryFee - discount
	if total < 0 {
		total = 0
	}

	return OrderSummary{
		Subtotal:    subtotal,
		Discount:    discount,
		DeliveryFee: deliveryFee,
		TotalPrice:  total,
		Vouchers:    vouchers,
	}
}

// LineItemFromProduct maps a catalog product to a cart line item.
// Malformed product data is rejected here, never silently coerced.
func LineItemFromProduct(p Product, quantity int) (LineItem, error) {
	if p.ID <= 0 {
		return LineItem{}, fmt.Errorf("%w: missing product id", ErrInvalidProduct)
	}
	if p.Name == "" {
		return LineItem{}, fmt.Errorf("%w: missing product name", ErrInvalidProduct)
	}
	if p.Price < 0 {
		return LineItem{}, fmt.Errorf("%w: negative price", ErrInvalidProduct)
	}
	if quantity <= 0 {
		return LineItem{}, fmt.Errorf("%w: quantity must be positive", ErrInvalidProduct)
	}

	return LineItem{
		ProductID:   p.ID,
		ProductName: p.Name,
		UnitPrice:   p.Price,
		Quantity:    quantity,
		PictureURL:  p.PictureURL,
		Brand:       p.Brand,
		Type:        p.Type,
	}, nil
}
