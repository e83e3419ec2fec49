package catalog

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	GetService(ctx context.Context, id uuid.UUID) (*Service, error)
	ListServices(ctx context.Context, category Category) ([]Service, error)
	GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error)
}
