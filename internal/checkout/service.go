package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/smartecommerce/storefront/internal/orders"
)

// CartLine is a cart row joined with its product, read under the product
// row lock so the stock figure holds until commit.
type CartLine struct {
	ProductID   string
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	Available   int
}

// Store is the transaction-scoped view one checkout attempt runs against.
type Store interface {
	HasShippingInfo(ctx context.Context, userID string) (bool, error)
	CartForUpdate(ctx context.Context, userID string) ([]CartLine, error)
	InsertOrder(ctx context.Context, o *orders.Order) error
	DecrementStock(ctx context.Context, productID string, qty int) error
	ClearCart(ctx context.Context, userID string) error
}

type UnitOfWork interface {
	Within(ctx context.Context, fn func(Store) error) error
}

type Service struct {
	uow UnitOfWork
}

func NewService(uow UnitOfWork) *Service { return &Service{uow: uow} }

// CreateOrder consumes the user's cart into a new order: stock check, total
// computation, order + line snapshots, stock decrement and cart clear run as
// one unit. On any failure nothing is committed; on the first product whose
// stock cannot cover its line the attempt stops with InsufficientStockError.
func (s *Service) CreateOrder(ctx context.Context, userID string) (*orders.Order, error) {
	var out *orders.Order
	err := s.uow.Within(ctx, func(st Store) error {
		// An order needs a delivery address on file before anything else.
		ok, err := st.HasShippingInfo(ctx, userID)
		if err != nil {
			return err
		}
		if !ok {
			return orders.ErrShippingInfoMissing
		}

		lines, err := st.CartForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return orders.ErrEmptyCart
		}

		for _, l := range lines {
			if l.Available < l.Quantity {
				return &orders.InsufficientStockError{
					Product:   l.ProductName,
					Requested: l.Quantity,
					Available: l.Available,
				}
			}
		}

		o := &orders.Order{
			ID:            uuid.NewString(),
			UserID:        &userID,
			TotalAmount:   decimal.Zero,
			Status:        orders.StatusPlaced,
			PaymentMethod: orders.PaymentCashOnDelivery,
			PlacedAt:      time.Now().UTC(),
		}
		for _, l := range lines {
			o.Lines = append(o.Lines, orders.Line{
				OrderID:   o.ID,
				ProductID: l.ProductID,
				Quantity:  l.Quantity,
				UnitPrice: l.UnitPrice,
			})
			o.TotalAmount = o.TotalAmount.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
		}

		if err := st.InsertOrder(ctx, o); err != nil {
			return err
		}
		for _, l := range lines {
			if err := st.DecrementStock(ctx, l.ProductID, l.Quantity); err != nil {
				return err
			}
		}
		if err := st.ClearCart(ctx, userID); err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
