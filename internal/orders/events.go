package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderPlaced        = "OrderPlaced"
	EventOrderStatusChanged = "OrderStatusChanged"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

type LinePayload struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

type OrderPlacedPayload struct {
	OrderID     string        `json:"order_id"`
	UserID      string        `json:"user_id"`
	Lines       []LinePayload `json:"lines"`
	TotalAmount string        `json:"total_amount"`
}

type StatusChangedPayload struct {
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id,omitempty"`
	Previous  Status    `json:"previous_status"`
	Next      Status    `json:"new_status"`
	ChangedBy string    `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
}

// NewOrderPlacedPayload flattens an order into its event form.
func NewOrderPlacedPayload(o *Order) OrderPlacedPayload {
	p := OrderPlacedPayload{
		OrderID:     o.ID,
		TotalAmount: o.TotalAmount.String(),
	}
	if o.UserID != nil {
		p.UserID = *o.UserID
	}
	for _, l := range o.Lines {
		p.Lines = append(p.Lines, LinePayload{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice.String(),
		})
	}
	return p
}
