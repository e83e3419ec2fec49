package wallet

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("amount must not be negative")
	ErrInvalidType         = errors.New("unknown transaction type")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrDuplicateReference  = errors.New("transaction with this reference already exists")
)

// TxType is the kind of a ledger entry. Its sign decides the balance direction.
type TxType string

const (
	TxCredit     TxType = "credit"
	TxDebit      TxType = "debit"
	TxCommission TxType = "commission"
	TxWithdrawal TxType = "withdrawal"
	TxTopUp      TxType = "topup"
)

func (t TxType) Valid() bool {
	switch t {
	case TxCredit, TxDebit, TxCommission, TxWithdrawal, TxTopUp:
		return true
	}
	return false
}

// Outgoing reports whether entries of this type reduce the balance.
func (t TxType) Outgoing() bool {
	return t == TxDebit || t == TxWithdrawal
}

// Signed returns amount with the sign this type applies to a balance.
func (t TxType) Signed(amount decimal.Decimal) decimal.Decimal {
	if t.Outgoing() {
		return amount.Neg()
	}
	return amount
}

type Wallet struct {
	UserID    uuid.UUID       `db:"user_id" json:"user_id"`
	Balance   decimal.Decimal `db:"balance" json:"balance"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// Transaction is one immutable ledger row.
type Transaction struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	UserID        uuid.UUID       `db:"user_id" json:"user_id"`
	Type          TxType          `db:"type" json:"type"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	BalanceBefore decimal.Decimal `db:"balance_before" json:"balance_before"`
	BalanceAfter  decimal.Decimal `db:"balance_after" json:"balance_after"`
	Reference     string          `db:"reference" json:"reference,omitempty"`
	Description   string          `db:"description" json:"description"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// Entry is a posting request.
type Entry struct {
	UserID      uuid.UUID
	Type        TxType
	Amount      decimal.Decimal
	Reference   string
	Description string
}

func (e Entry) Validate() error {
	if !e.Type.Valid() {
		return ErrInvalidType
	}
	if e.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

// Apply returns the balance that results from posting amount of type t.
func Apply(balance decimal.Decimal, t TxType, amount decimal.Decimal) (decimal.Decimal, error) {
	after := balance.Add(t.Signed(amount))
	if after.IsNegative() {
		return balance, ErrInsufficientBalance
	}
	return after, nil
}

type TopUpRequest struct {
	Amount    decimal.Decimal `json:"amount" swaggertype:"string" example:"500.00"`
	Reference string          `json:"reference" binding:"max=255"`
}

type AuditBreak struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	Reason        string    `json:"reason"`
}

// AuditReport compares a wallet balance with the ledger that produced it.
type AuditReport struct {
	UserID       uuid.UUID       `json:"user_id"`
	Balance      decimal.Decimal `json:"balance"`
	LedgerSum    decimal.Decimal `json:"ledger_sum"`
	Transactions int             `json:"transactions"`
	Consistent   bool            `json:"consistent"`
	Breaks       []AuditBreak    `json:"breaks,omitempty"`
}

// Reconcile checks txs, oldest first, against balance. Each row must start
// where the previous one ended, and the running sum must equal balance.
func Reconcile(userID uuid.UUID, balance decimal.Decimal, txs []Transaction) AuditReport {
	report := AuditReport{
		UserID:       userID,
		Balance:      balance,
		LedgerSum:    decimal.Zero,
		Transactions: len(txs),
	}

	for _, tx := range txs {
		if !tx.BalanceBefore.Equal(report.LedgerSum) {
			report.Breaks = append(report.Breaks, AuditBreak{
				TransactionID: tx.ID,
				Reason:        "balance_before " + tx.BalanceBefore.StringFixed(2) + " does not continue " + report.LedgerSum.StringFixed(2),
			})
		}
		report.LedgerSum = report.LedgerSum.Add(tx.Type.Signed(tx.Amount))
		if !tx.BalanceAfter.Equal(tx.BalanceBefore.Add(tx.Type.Signed(tx.Amount))) {
			report.Breaks = append(report.Breaks, AuditBreak{
				TransactionID: tx.ID,
				Reason:        "balance_after does not equal balance_before plus amount",
			})
		}
		if tx.BalanceAfter.IsNegative() {
			report.Breaks = append(report.Breaks, AuditBreak{TransactionID: tx.ID, Reason: "negative balance"})
		}
	}

	if !report.LedgerSum.Equal(balance) {
		report.Breaks = append(report.Breaks, AuditBreak{
			Reason: "wallet balance " + balance.StringFixed(2) + " differs from ledger sum " + report.LedgerSum.StringFixed(2),
		})
	}
	report.Consistent = len(report.Breaks) == 0
	return report
}
