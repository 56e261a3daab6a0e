package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const PaymentCashOnDelivery PaymentMethod = "COD"

type Order struct {
	ID            string
	UserID        *string // nil once the owning account is removed
	TotalAmount   decimal.Decimal
	Status        Status
	PaymentMethod PaymentMethod
	PlacedAt      time.Time
	ProcessingAt  *time.Time
	CompletedAt   *time.Time
	CancelledAt   *time.Time
	Lines         []Line
}

// Line snapshots quantity and unit price at order time; never updated.
type Line struct {
	ID        int64
	OrderID   string
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}

// StatusLogEntry is append-only; the full transition history of an order
// is reconstructed from these rows.
type StatusLogEntry struct {
	ID        int64
	OrderID   string
	Previous  Status
	Next      Status
	ChangedBy string
	ChangedAt time.Time
}
