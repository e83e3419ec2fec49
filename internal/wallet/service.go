package wallet

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Emmyblinks655/taskpay-rewards/internal/db"
	"github.com/Emmyblinks655/taskpay-rewards/internal/logger"
	"github.com/Emmyblinks655/taskpay-rewards/internal/metrics"
)

var ErrMissingReference = errors.New("reference is required")

// Service is the wallet ledger. Every posting locks the owner's wallet row,
// so postings for one user are serialized and never see a stale balance.
type Service interface {
	Post(ctx context.Context, e Entry) (*Transaction, error)
	Debit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description, reference string) (*Transaction, error)
	Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description, reference string) (*Transaction, error)
	// CreditOnce posts e unless a transaction with the same type and
	// reference exists, in which case that one is returned with created=false.
	CreditOnce(ctx context.Context, e Entry) (tx *Transaction, created bool, err error)
	TopUp(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, reference string) (*Transaction, error)
	FindByReference(ctx context.Context, txType TxType, reference string) (*Transaction, error)
	Balance(ctx context.Context, userID uuid.UUID) (*Wallet, error)
	Transactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Transaction, error)
	Audit(ctx context.Context, userID uuid.UUID) (*AuditReport, error)
}

type service struct {
	tx   db.Transactor
	repo Repository
}

func NewService(tx db.Transactor, repo Repository) Service {
	return &service{tx: tx, repo: repo}
}

func (s *service) Post(ctx context.Context, e Entry) (*Transaction, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}

	var posted *Transaction
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		w, err := s.repo.LockWallet(ctx, e.UserID)
		if err != nil {
			return err
		}
		posted, err = s.postLocked(ctx, w, e)
		return err
	})
	recordPosting(e.Type, err)
	if err != nil {
		return nil, err
	}
	return posted, nil
}

func (s *service) postLocked(ctx context.Context, w *Wallet, e Entry) (*Transaction, error) {
	after, err := Apply(w.Balance, e.Type, e.Amount)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateBalance(ctx, e.UserID, after); err != nil {
		return nil, err
	}

	tx := &Transaction{
		ID:            uuid.New(),
		UserID:        e.UserID,
		Type:          e.Type,
		Amount:        e.Amount,
		BalanceBefore: w.Balance,
		BalanceAfter:  after,
		Reference:     e.Reference,
		Description:   e.Description,
	}
	if err := s.repo.InsertTransaction(ctx, tx); err != nil {
		return nil, err
	}

	logger.Debug("ledger posting",
		"user_id", e.UserID.String(),
		"type", string(e.Type),
		"amount", e.Amount.String(),
		"balance_after", after.String(),
		"reference", e.Reference,
	)
	return tx, nil
}

func (s *service) Debit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description, reference string) (*Transaction, error) {
	return s.Post(ctx, Entry{UserID: userID, Type: TxDebit, Amount: amount, Description: description, Reference: reference})
}

func (s *service) Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description, reference string) (*Transaction, error) {
	return s.Post(ctx, Entry{UserID: userID, Type: TxCredit, Amount: amount, Description: description, Reference: reference})
}

func (s *service) CreditOnce(ctx context.Context, e Entry) (*Transaction, bool, error) {
	if e.Type.Outgoing() {
		return nil, false, ErrInvalidType
	}
	if e.Reference == "" {
		return nil, false, ErrMissingReference
	}
	if err := e.Validate(); err != nil {
		return nil, false, err
	}

	var (
		posted  *Transaction
		created bool
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		w, err := s.repo.LockWallet(ctx, e.UserID)
		if err != nil {
			return err
		}

		existing, err := s.repo.FindByReference(ctx, e.Type, e.Reference)
		if err == nil {
			posted = existing
			return nil
		}
		if !errors.Is(err, ErrTransactionNotFound) {
			return err
		}

		posted, err = s.postLocked(ctx, w, e)
		created = err == nil
		return err
	})
	if err != nil {
		recordPosting(e.Type, err)
		return nil, false, err
	}
	if created {
		recordPosting(e.Type, nil)
	} else {
		metrics.RecordLedgerPosting(string(e.Type), "duplicate")
	}
	return posted, created, nil
}

func (s *service) TopUp(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, reference string) (*Transaction, error) {
	if !amount.IsPositive() {
		return nil, errors.New("top up amount must be positive")
	}
	return s.Post(ctx, Entry{
		UserID:      userID,
		Type:        TxTopUp,
		Amount:      amount,
		Reference:   reference,
		Description: "Wallet top up",
	})
}

func (s *service) FindByReference(ctx context.Context, txType TxType, reference string) (*Transaction, error) {
	return s.repo.FindByReference(ctx, txType, reference)
}

func (s *service) Balance(ctx context.Context, userID uuid.UUID) (*Wallet, error) {
	return s.repo.GetWallet(ctx, userID)
}

func (s *service) Transactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Transaction, error) {
	return s.repo.ListTransactions(ctx, userID, limit, offset)
}

// Audit reads the wallet and its full history under the row lock so the two
// are a consistent snapshot.
func (s *service) Audit(ctx context.Context, userID uuid.UUID) (*AuditReport, error) {
	var report AuditReport
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		w, err := s.repo.LockWallet(ctx, userID)
		if err != nil {
			return err
		}
		history, err := s.repo.History(ctx, userID)
		if err != nil {
			return err
		}
		report = Reconcile(userID, w.Balance, history)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !report.Consistent {
		logger.Error("wallet ledger drift detected",
			"user_id", userID.String(),
			"balance", report.Balance.String(),
			"ledger_sum", report.LedgerSum.String(),
			"breaks", len(report.Breaks),
		)
	}
	return &report, nil
}

func recordPosting(t TxType, err error) {
	switch {
	case err == nil:
		metrics.RecordLedgerPosting(string(t), "posted")
	case errors.Is(err, ErrInsufficientBalance):
		metrics.RecordLedgerPosting(string(t), "insufficient_balance")
	default:
		metrics.RecordLedgerPosting(string(t), "error")
	}
}
