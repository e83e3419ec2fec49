package wallet

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/Emmyblinks655/taskpay-rewards/internal/db"
)

const transactionColumns = `id, user_id, type, amount, balance_before, balance_after,
		COALESCE(reference, '') AS reference, description, created_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(database *sqlx.DB) Repository {
	return &repository{db: database}
}

func (r *repository) LockWallet(ctx context.Context, userID uuid.UUID) (*Wallet, error) {
	q := db.Conn(ctx, r.db)

	w := &Wallet{}
	err := q.GetContext(ctx, w,
		`SELECT user_id, balance, created_at, updated_at
		 FROM wallets
		 WHERE user_id = $1
		 FOR UPDATE`,
		userID,
	)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, db.Wrap("lock wallet", err)
	}

	// Concurrent first postings race on the insert; the loser waits on the
	// winner's row lock in the second select.
	if _, err := q.ExecContext(ctx,
		`INSERT INTO wallets (user_id)
		 VALUES ($1)
		 ON CONFLICT (user_id) DO NOTHING`,
		userID,
	); err != nil {
		return nil, db.Wrap("create wallet", err)
	}

	err = q.GetContext(ctx, w,
		`SELECT user_id, balance, created_at, updated_at
		 FROM wallets
		 WHERE user_id = $1
		 FOR UPDATE`,
		userID,
	)
	if err != nil {
		return nil, db.Wrap("lock wallet", err)
	}
	return w, nil
}

func (r *repository) UpdateBalance(ctx context.Context, userID uuid.UUID, balance decimal.Decimal) error {
	_, err := db.Conn(ctx, r.db).ExecContext(ctx,
		`UPDATE wallets
		 SET balance = $1, updated_at = NOW()
		 WHERE user_id = $2`,
		balance, userID,
	)
	return db.Wrap("update wallet balance", err)
}

func (r *repository) InsertTransaction(ctx context.Context, tx *Transaction) error {
	err := db.Conn(ctx, r.db).QueryRowxContext(ctx,
		`INSERT INTO wallet_transactions (id, user_id, type, amount, balance_before, balance_after, reference, description)
		 VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8)
		 RETURNING created_at`,
		tx.ID, tx.UserID, tx.Type, tx.Amount, tx.BalanceBefore, tx.BalanceAfter, tx.Reference, tx.Description,
	).Scan(&tx.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrDuplicateReference
		}
		return db.Wrap("insert wallet transaction", err)
	}
	return nil
}

func (r *repository) FindByReference(ctx context.Context, txType TxType, reference string) (*Transaction, error) {
	tx := &Transaction{}
	err := db.Conn(ctx, r.db).GetContext(ctx, tx,
		`SELECT `+transactionColumns+`
		 FROM wallet_transactions
		 WHERE type = $1 AND reference = $2
		 ORDER BY created_at
		 LIMIT 1`,
		txType, reference,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, db.Wrap("find transaction by reference", err)
	}
	return tx, nil
}

func (r *repository) GetWallet(ctx context.Context, userID uuid.UUID) (*Wallet, error) {
	w := &Wallet{}
	err := db.Conn(ctx, r.db).GetContext(ctx, w,
		`SELECT user_id, balance, created_at, updated_at FROM wallets WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &Wallet{UserID: userID, Balance: decimal.Zero}, nil
		}
		return nil, db.Wrap("get wallet", err)
	}
	return w, nil
}

func (r *repository) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Transaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	txs := []Transaction{}
	err := db.Conn(ctx, r.db).SelectContext(ctx, &txs,
		`SELECT `+transactionColumns+`
		 FROM wallet_transactions
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, db.Wrap("list wallet transactions", err)
	}
	return txs, nil
}

func (r *repository) History(ctx context.Context, userID uuid.UUID) ([]Transaction, error) {
	txs := []Transaction{}
	err := db.Conn(ctx, r.db).SelectContext(ctx, &txs,
		`SELECT `+transactionColumns+`
		 FROM wallet_transactions
		 WHERE user_id = $1
		 ORDER BY created_at, id`,
		userID,
	)
	if err != nil {
		return nil, db.Wrap("load wallet history", err)
	}
	return txs, nil
}
