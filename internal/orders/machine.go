package orders

import "time"

// applyTransition validates the move against the transition table and, on
// success, sets the status, stamps the timestamp for the new status and
// clears every other non-initial timestamp. PlacedAt is restamped only when
// the target itself is Placed (the revert path); the earlier placement
// instants stay recoverable through the status log.
func applyTransition(o *Order, to Status, now time.Time) error {
	if o.Status == to || !CanTransition(o.Status, to) {
		return &InvalidTransitionError{From: o.Status, To: to}
	}

	o.Status = to
	switch to {
	case StatusPlaced:
		o.PlacedAt = now
		o.ProcessingAt = nil
		o.CompletedAt = nil
		o.CancelledAt = nil
	case StatusProcessing:
		t := now
		o.ProcessingAt = &t
		o.CompletedAt = nil
		o.CancelledAt = nil
	case StatusCompleted:
		t := now
		o.CompletedAt = &t
		o.ProcessingAt = nil
		o.CancelledAt = nil
	case StatusCancelled:
		t := now
		o.CancelledAt = &t
		o.ProcessingAt = nil
		o.CompletedAt = nil
	}
	return nil
}
