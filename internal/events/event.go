package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	OrderCompleted = "order.completed"
	OrderFailed    = "order.failed"
	OrderRefunded  = "order.refunded"
)

type Event struct {
	ID          uuid.UUID       `json:"id"`
	Type        string          `json:"type"`
	OrderID     uuid.UUID       `json:"order_id"`
	UserID      uuid.UUID       `json:"user_id"`
	Status      string          `json:"status"`
	Cost        decimal.Decimal `json:"cost"`
	ProviderRef string          `json:"provider_ref,omitempty"`
	Error       string          `json:"error,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// Publisher delivers order lifecycle events. Callers treat publish errors as
// non-fatal.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error { return nil }
