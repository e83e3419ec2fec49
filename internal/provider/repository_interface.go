package provider

import (
	"context"

	"github.com/google/uuid"
)

// Registry lists the providers eligible for the next attempt.
type Registry interface {
	// Select returns enabled providers, highest priority first, ties by id.
	Select(ctx context.Context) ([]Provider, error)
}

type LogRepository interface {
	Append(ctx context.Context, l *Log) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]Log, error)
}

type Repository interface {
	Registry
	LogRepository
	GetByID(ctx context.Context, id uuid.UUID) (*Provider, error)
}
