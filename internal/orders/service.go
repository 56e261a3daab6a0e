package orders

import (
	"context"
	"fmt"
	"time"
)

// Store is the transaction-scoped view the transition runs against. The pgx
// implementation locks the order row; the precondition check, the mutation
// and the log append commit or roll back together.
type Store interface {
	GetForUpdate(ctx context.Context, orderID string) (*Order, error)
	SaveStatus(ctx context.Context, o *Order) error
	AppendLog(ctx context.Context, e *StatusLogEntry) error
	// Restock returns every line's quantity to product stock. Only called
	// on cancellation when the restock policy is enabled.
	Restock(ctx context.Context, orderID string) error
}

type UnitOfWork interface {
	Within(ctx context.Context, fn func(Store) error) error
}

type Service struct {
	uow             UnitOfWork
	restockOnCancel bool
}

func NewService(uow UnitOfWork, restockOnCancel bool) *Service {
	return &Service{uow: uow, restockOnCancel: restockOnCancel}
}

// Transition moves an order to a new status on behalf of an explicit actor.
// Exactly one log entry is appended per successful transition. Concurrent
// attempts on the same order serialize on the row lock; the loser re-reads
// the changed status and fails with InvalidTransitionError.
func (s *Service) Transition(ctx context.Context, orderID string, to Status, actor string) (*Order, *StatusLogEntry, error) {
	var (
		out   *Order
		entry *StatusLogEntry
	)
	err := s.uow.Within(ctx, func(st Store) error {
		o, err := st.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		prev := o.Status
		now := time.Now().UTC()

		if err := applyTransition(o, to, now); err != nil {
			return err
		}
		if err := st.SaveStatus(ctx, o); err != nil {
			return fmt.Errorf("save status: %w", err)
		}
		e := &StatusLogEntry{
			OrderID:   o.ID,
			Previous:  prev,
			Next:      to,
			ChangedBy: actor,
			ChangedAt: now,
		}
		if err := st.AppendLog(ctx, e); err != nil {
			return fmt.Errorf("append status log: %w", err)
		}
		if s.restockOnCancel && to == StatusCancelled {
			if err := st.Restock(ctx, o.ID); err != nil {
				return fmt.Errorf("restock cancelled order: %w", err)
			}
		}
		out, entry = o, e
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return out, entry, nil
}
