package catalog

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Emmyblinks655/taskpay-rewards/internal/db"
)

const serviceColumns = `id, name, operator_name, category, country_code, currency,
		price, sale_price, provider_service_id, status, created_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(database *sqlx.DB) Repository {
	return &repository{db: database}
}

func (r *repository) GetService(ctx context.Context, id uuid.UUID) (*Service, error) {
	s := &Service{}
	err := db.Conn(ctx, r.db).GetContext(ctx, s,
		`SELECT `+serviceColumns+` FROM services WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, db.Wrap("get service", err)
	}
	return s, nil
}

func (r *repository) ListServices(ctx context.Context, category Category) ([]Service, error) {
	services := []Service{}
	query := `SELECT ` + serviceColumns + ` FROM services WHERE status`
	args := []interface{}{}
	if category != "" {
		query += ` AND category = $1`
		args = append(args, category)
	}
	query += ` ORDER BY category, operator_name, price`

	if err := db.Conn(ctx, r.db).SelectContext(ctx, &services, query, args...); err != nil {
		return nil, db.Wrap("list services", err)
	}
	return services, nil
}

func (r *repository) GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	p := &Profile{}
	err := db.Conn(ctx, r.db).GetContext(ctx, p,
		`SELECT id, is_agent, agent_rate_multiplier, referred_by FROM profiles WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, db.Wrap("get profile", err)
	}
	return p, nil
}
