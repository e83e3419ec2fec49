package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/Emmyblinks655/taskpay-rewards/internal/db"
)

const orderColumns = `id, user_id, service_id, provider_id, amount, cost, commission, target, status,
	provider_ref, error_message, retry_count, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(database *sqlx.DB) Repository {
	return &repository{db: database}
}

func (r *repository) Create(ctx context.Context, o *Order) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Status == "" || o.Status == StatusPending {
		o.Status = StatusProcessing
	}

	err := db.Conn(ctx, r.db).QueryRowxContext(ctx,
		`INSERT INTO orders (id, user_id, service_id, amount, cost, target, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at, updated_at`,
		o.ID, o.UserID, o.ServiceID, o.Amount, o.Cost, o.Target, o.Status,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	return db.Wrap("create order", err)
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	o := &Order{}
	err := db.Conn(ctx, r.db).GetContext(ctx, o,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, db.Wrap("get order", err)
	}
	return o, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	orders := []Order{}
	err := db.Conn(ctx, r.db).SelectContext(ctx, &orders,
		`SELECT `+orderColumns+`
		 FROM orders
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, db.Wrap("list orders", err)
	}
	return orders, nil
}

func (r *repository) IncrementRetryCount(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	err := db.Conn(ctx, r.db).QueryRowxContext(ctx,
		`UPDATE orders SET retry_count = retry_count + 1, updated_at = NOW()
		 WHERE id = $1
		 RETURNING retry_count`,
		id,
	).Scan(&count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrOrderNotFound
		}
		return 0, db.Wrap("increment retry count", err)
	}
	return count, nil
}

func (r *repository) ApplyStatus(ctx context.Context, u StatusUpdate) (*Order, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}

	conn := db.Conn(ctx, r.db)
	o := &Order{}
	err := conn.GetContext(ctx, o,
		`UPDATE orders
		 SET status = $2,
		     provider_id = COALESCE($3, provider_id),
		     provider_ref = COALESCE(NULLIF($4, ''), provider_ref),
		     error_message = CASE WHEN $2 = 'completed' THEN NULL
		                          ELSE COALESCE(NULLIF($5, ''), error_message) END,
		     updated_at = NOW()
		 WHERE id = $1 AND status = ANY($6)
		 RETURNING `+orderColumns,
		u.OrderID, u.To, u.ProviderID, u.ProviderRef, u.ErrorMessage, pq.Array(Predecessors(u.To)),
	)
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, db.Wrap("apply order status", err)
	}

	// Nothing matched: either the order is gone or it is in a state that
	// cannot reach u.To.
	current, err := r.GetByID(ctx, u.OrderID)
	if err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, u.To)
}

func (r *repository) SetCommission(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	_, err := db.Conn(ctx, r.db).ExecContext(ctx,
		`UPDATE orders SET commission = $1, updated_at = NOW() WHERE id = $2`,
		amount, id,
	)
	return db.Wrap("set order commission", err)
}
