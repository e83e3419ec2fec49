package provider

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"
)

var (
	ErrNoProviderAvailable = errors.New("no providers available")
	ErrUnknownKind         = errors.New("no adapter registered for provider kind")
	ErrProviderNotFound    = errors.New("provider not found")
)

const (
	KindHTTP      = "http"
	KindSimulated = "simulated"
)

// Provider is an upstream VTU fulfillment endpoint. Config is interpreted by
// the adapter registered for Kind.
type Provider struct {
	ID              uuid.UUID      `db:"id" json:"id"`
	Name            string         `db:"name" json:"name"`
	Kind            string         `db:"kind" json:"kind"`
	Enabled         bool           `db:"enabled" json:"enabled"`
	Priority        int            `db:"priority" json:"priority"`
	Config          types.JSONText `db:"config" json:"config" swaggertype:"object"`
	APIKeyEncrypted string         `db:"api_key_encrypted" json:"-"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// Request is what an adapter is asked to deliver.
type Request struct {
	OrderID           uuid.UUID       `json:"order_id"`
	ServiceID         uuid.UUID       `json:"service_id"`
	ProviderServiceID string          `json:"provider_service_id"`
	Category          string          `json:"category"`
	Target            string          `json:"target"`
	Amount            decimal.Decimal `json:"amount"`
	Attempt           int             `json:"attempt"`
}

type Result struct {
	Reference  string          `json:"reference"`
	StatusCode int             `json:"status_code"`
	Response   json.RawMessage `json:"response,omitempty"`
}

// CallError is the expected failure of a provider call. It never aborts the
// attempt loop; the orchestrator records it and tries again.
type CallError struct {
	StatusCode int
	Message    string
	Response   json.RawMessage
	Timeout    bool
	Err        error
}

func (e *CallError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider call failed (status %d): %s", e.StatusCode, e.Message)
	}
	return "provider call failed: " + e.Message
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// Log is one row per fulfillment attempt. ProviderID is null when no
// provider could be selected.
type Log struct {
	ID           uuid.UUID          `db:"id" json:"id"`
	OrderID      uuid.UUID          `db:"order_id" json:"order_id"`
	ProviderID   uuid.NullUUID      `db:"provider_id" json:"provider_id" swaggertype:"string"`
	Request      types.JSONText     `db:"request" json:"request" swaggertype:"object"`
	Response     types.NullJSONText `db:"response" json:"response" swaggertype:"object"`
	StatusCode   int                `db:"status_code" json:"status_code"`
	ErrorMessage *string            `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time          `db:"created_at" json:"created_at"`
}
