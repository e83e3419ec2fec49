package provider

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Emmyblinks655/taskpay-rewards/internal/db"
)

const providerColumns = `id, name, kind, enabled, priority, config, api_key_encrypted, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(database *sqlx.DB) Repository {
	return &repository{db: database}
}

func (r *repository) Select(ctx context.Context) ([]Provider, error) {
	providers := []Provider{}
	err := db.Conn(ctx, r.db).SelectContext(ctx, &providers,
		`SELECT `+providerColumns+`
		 FROM providers
		 WHERE enabled
		 ORDER BY priority DESC, id ASC`,
	)
	if err != nil {
		return nil, db.Wrap("select providers", err)
	}
	return providers, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Provider, error) {
	p := &Provider{}
	err := db.Conn(ctx, r.db).GetContext(ctx, p,
		`SELECT `+providerColumns+` FROM providers WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProviderNotFound
		}
		return nil, db.Wrap("get provider", err)
	}
	return p, nil
}

func (r *repository) Append(ctx context.Context, l *Log) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if len(l.Request) == 0 {
		l.Request = []byte("{}")
	}

	err := db.Conn(ctx, r.db).QueryRowxContext(ctx,
		`INSERT INTO provider_logs (id, order_id, provider_id, request, response, status_code, error_message)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at`,
		l.ID, l.OrderID, l.ProviderID, l.Request, l.Response, l.StatusCode, l.ErrorMessage,
	).Scan(&l.CreatedAt)
	return db.Wrap("append provider log", err)
}

func (r *repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]Log, error) {
	logs := []Log{}
	err := db.Conn(ctx, r.db).SelectContext(ctx, &logs,
		`SELECT id, order_id, provider_id, request, response, status_code, error_message, created_at
		 FROM provider_logs
		 WHERE order_id = $1
		 ORDER BY created_at, id`,
		orderID,
	)
	if err != nil {
		return nil, db.Wrap("list provider logs", err)
	}
	return logs, nil
}
