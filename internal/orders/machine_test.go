package orders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func placedOrder() *Order {
	return &Order{
		ID:       "ord-1",
		Status:   StatusPlaced,
		PlacedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestApplyProcessingStampsTimestamp(t *testing.T) {
	o := placedOrder()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	require.NoError(t, applyTransition(o, StatusProcessing, now))

	assert.Equal(t, StatusProcessing, o.Status)
	require.NotNil(t, o.ProcessingAt)
	assert.Equal(t, now, *o.ProcessingAt)
	assert.Nil(t, o.CompletedAt)
	assert.Nil(t, o.CancelledAt)
	// initial placement untouched
	assert.Equal(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), o.PlacedAt)
}

func TestApplyCancelledClearsOtherTimestamps(t *testing.T) {
	o := placedOrder()
	step1 := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	require.NoError(t, applyTransition(o, StatusProcessing, step1))

	step2 := step1.Add(time.Hour)
	require.NoError(t, applyTransition(o, StatusCancelled, step2))

	assert.Equal(t, StatusCancelled, o.Status)
	require.NotNil(t, o.CancelledAt)
	assert.Equal(t, step2, *o.CancelledAt)
	assert.Nil(t, o.ProcessingAt)
	assert.Nil(t, o.CompletedAt)
}

func TestApplyCompletedClearsOtherTimestamps(t *testing.T) {
	o := placedOrder()
	step1 := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	require.NoError(t, applyTransition(o, StatusProcessing, step1))

	step2 := step1.Add(time.Hour)
	require.NoError(t, applyTransition(o, StatusCompleted, step2))

	require.NotNil(t, o.CompletedAt)
	assert.Equal(t, step2, *o.CompletedAt)
	assert.Nil(t, o.ProcessingAt)
	assert.Nil(t, o.CancelledAt)
}

func TestApplyRevertRestampsPlacedAt(t *testing.T) {
	o := placedOrder()
	step1 := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	require.NoError(t, applyTransition(o, StatusProcessing, step1))

	step2 := step1.Add(time.Hour)
	require.NoError(t, applyTransition(o, StatusPlaced, step2))

	assert.Equal(t, StatusPlaced, o.Status)
	assert.Equal(t, step2, o.PlacedAt)
	assert.Nil(t, o.ProcessingAt)
	assert.Nil(t, o.CompletedAt)
	assert.Nil(t, o.CancelledAt)
}

func TestApplyRejectsPlacedToCompleted(t *testing.T) {
	o := placedOrder()

	err := applyTransition(o, StatusCompleted, time.Now())

	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, StatusPlaced, invalid.From)
	assert.Equal(t, StatusCompleted, invalid.To)
	// order unchanged
	assert.Equal(t, StatusPlaced, o.Status)
	assert.Nil(t, o.CompletedAt)
}

func TestApplyRejectsNoOp(t *testing.T) {
	for _, s := range []Status{StatusPlaced, StatusProcessing, StatusCompleted, StatusCancelled} {
		o := placedOrder()
		o.Status = s

		err := applyTransition(o, s, time.Now())

		var invalid *InvalidTransitionError
		require.ErrorAs(t, err, &invalid, "no-op transition from %s must fail", s)
		assert.Equal(t, s, invalid.From)
		assert.Equal(t, s, invalid.To)
	}
}

func TestApplyRejectsOutOfTerminalStates(t *testing.T) {
	for _, from := range []Status{StatusCompleted, StatusCancelled} {
		for _, to := range []Status{StatusPlaced, StatusProcessing, StatusCompleted, StatusCancelled} {
			if from == to {
				continue
			}
			o := placedOrder()
			o.Status = from
			err := applyTransition(o, to, time.Now())
			assert.Error(t, err, "%s -> %s must fail", from, to)
		}
	}
}
