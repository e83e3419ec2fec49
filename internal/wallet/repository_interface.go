package wallet

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Repository interface {
	// LockWallet selects the wallet FOR UPDATE, creating it first if needed.
	// It must run inside a transaction.
	LockWallet(ctx context.Context, userID uuid.UUID) (*Wallet, error)
	UpdateBalance(ctx context.Context, userID uuid.UUID, balance decimal.Decimal) error
	InsertTransaction(ctx context.Context, tx *Transaction) error
	FindByReference(ctx context.Context, txType TxType, reference string) (*Transaction, error)
	GetWallet(ctx context.Context, userID uuid.UUID) (*Wallet, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Transaction, error)
	History(ctx context.Context, userID uuid.UUID) ([]Transaction, error)
}
