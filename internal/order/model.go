package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrInvalidTransition   = errors.New("invalid order status transition")
	ErrMissingProviderRef  = errors.New("completed order requires a provider reference")
	ErrMissingErrorMessage = errors.New("failed order requires an error message")
)

type Status string

const (
	// StatusPending exists only in memory, before the debit commits.
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusRefunded   Status = "refunded"
)

var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing},
	StatusProcessing: {StatusCompleted, StatusFailed},
	StatusFailed:     {StatusRefunded, StatusProcessing},
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusRefunded
}

// Predecessors lists the persisted states from which next may be reached.
func Predecessors(next Status) []string {
	var from []string
	for _, s := range []Status{StatusProcessing, StatusFailed} {
		if s.CanTransitionTo(next) {
			from = append(from, string(s))
		}
	}
	return from
}

type Order struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	UserID       uuid.UUID       `db:"user_id" json:"user_id"`
	ServiceID    uuid.UUID       `db:"service_id" json:"service_id"`
	ProviderID   uuid.NullUUID   `db:"provider_id" json:"provider_id" swaggertype:"string"`
	Amount       decimal.Decimal `db:"amount" json:"amount" swaggertype:"string"`
	Cost         decimal.Decimal `db:"cost" json:"cost" swaggertype:"string"`
	Commission   decimal.Decimal `db:"commission" json:"commission" swaggertype:"string"`
	Target       string          `db:"target" json:"target"`
	Status       Status          `db:"status" json:"status"`
	ProviderRef  *string         `db:"provider_ref" json:"provider_ref,omitempty"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	RetryCount   int             `db:"retry_count" json:"retry_count"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// StatusUpdate moves one order to To, writing the provider and error
// columns in the same statement.
type StatusUpdate struct {
	OrderID      uuid.UUID
	To           Status
	ProviderID   uuid.NullUUID
	ProviderRef  string
	ErrorMessage string
}

func (u StatusUpdate) Validate() error {
	switch u.To {
	case StatusCompleted:
		if u.ProviderRef == "" {
			return ErrMissingProviderRef
		}
	case StatusFailed:
		if u.ErrorMessage == "" {
			return ErrMissingErrorMessage
		}
	case StatusProcessing, StatusRefunded:
	default:
		return fmt.Errorf("%w: cannot move to %q", ErrInvalidTransition, u.To)
	}
	return nil
}

type PurchaseRequest struct {
	ServiceID uuid.UUID `json:"service_id" binding:"required"`
	Target    string    `json:"target" binding:"required,min=3,max=255"`
}
