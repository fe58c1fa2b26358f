package domain

// LineItem is a product entry in the cart. ProductID is unique within a
// cart; duplicates are merged by Consolidate.
type LineItem struct {
	ProductID   int64   `json:"productId"`
	ProductName string  `json:"productName"`
	UnitPrice   float64 `json:"productPrice"`
	Quantity    int     `json:"quantity"`
	PictureURL  string  `json:"pictureUrl"`
	Brand       string  `json:"brand"`
	Type        string  `json:"type"`
}

// Voucher discounts apply additively across the cart.
type Voucher struct {
	Code     string  `json:"code"`
	Discount float64 `json:"discount"`
}

type DeliveryMethod struct {
	ID           int64   `json:"id"`
	ShortName    string  `json:"shortName"`
	Description  string  `json:"description"`
	DeliveryTime string  `json:"deliveryTime"`
	Price        float64 `json:"price"`
}

// Product is the catalog representation a line item is built from.
type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	PictureURL  string  `json:"pictureUrl"`
	Brand       string  `json:"brand"`
	Type        string  `json:"type"`
}

// Cart is the sync payload exchanged with the remote cart gateway.
// PaymentIntentID and ClientSecret are server-assigned and only ever
// arrive through the gateway's authoritative echo.
type Cart struct {
	ID               string     `json:"id"`
	Items            []LineItem `json:"items"`
	DeliveryMethodID *int64     `json:"deliveryMethodId"`
	Vouchers         []Voucher  `json:"vouchers"`
	PaymentIntentID  string     `json:"paymentIntentId,omitempty"`
	ClientSecret     string     `json:"clientSecret,omitempty"`
}

// Clone returns a deep copy, safe to hand out as a snapshot.
func (c Cart) Clone() Cart {
	out := c
	if c.Items != nil {
		out.Items = make([]LineItem, len(c.Items))
		copy(out.Items, c.Items)
	}
	if c.Vouchers != nil {
		out.Vouchers = make([]Voucher, len(c.Vouchers))
		copy(out.Vouchers, c.Vouchers)
	}
	if c.DeliveryMethodID != nil {
		id := *c.DeliveryMethodID
		out.DeliveryMethodID = &id
	}
	return out
}

// OrderSummary holds the derived totals. It is recomputed on every read
// and never persisted.
type OrderSummary struct {
	Subtotal    float64   `json:"subtotal"`
	Discount    float64   `json:"discount"`
	DeliveryFee float64   `json:"deliveryFee"`
	TotalPrice  float64   `json:"totalPrice"`
	Vouchers    []Voucher `json:"vouchers"`
}
