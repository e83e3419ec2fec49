package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Order, error)
	IncrementRetryCount(ctx context.Context, id uuid.UUID) (int, error)
	// ApplyStatus is the only writer of order status. It returns
	// ErrInvalidTransition when the current status is not a predecessor of
	// the target.
	ApplyStatus(ctx context.Context, u StatusUpdate) (*Order, error)
	SetCommission(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error
}
