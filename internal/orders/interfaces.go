package orders

import (
	"context"

	"github.com/hostelmart/hostelmart-backend/internal/state"
	"github.com/hostelmart/hostelmart-backend/pkg/models"
)

type stateStore interface {
	Update(ctx context.Context, fn func(*state.Snapshot) error) error
	View(fn func(*state.Snapshot))
}

// Notifier is told about every settled order. Implementations must return
// promptly and must not fail the caller.
type Notifier interface {
	OrderPlaced(ctx context.Context, order models.Order)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, order models.Order)

func (f NotifierFunc) OrderPlaced(ctx context.Context, order models.Order) {
	f(ctx, order)
}
