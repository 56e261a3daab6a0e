package cart

import "github.com/shopspring/decimal"

type Line struct {
	ID        int64
	UserID    string
	ProductID string
	Quantity  int
}

// LineDetail joins a cart line with its product for display.
type LineDetail struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Stock       int             `json:"stock"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}
