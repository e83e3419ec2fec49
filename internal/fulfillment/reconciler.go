package fulfillment

import (
	"context"
	"errors"

	"github.com/Emmyblinks655/taskpay-rewards/internal/db"
	"github.com/Emmyblinks655/taskpay-rewards/internal/events"
	"github.com/Emmyblinks655/taskpay-rewards/internal/logger"
	"github.com/Emmyblinks655/taskpay-rewards/internal/metrics"
	"github.com/Emmyblinks655/taskpay-rewards/internal/order"
	"github.com/Emmyblinks655/taskpay-rewards/internal/wallet"
)

// Reconciler compensates failed orders.
type Reconciler struct {
	tx        db.Transactor
	wallet    wallet.Service
	orders    order.Repository
	publisher events.Publisher
}

func NewReconciler(tx db.Transactor, w wallet.Service, orders order.Repository, publisher events.Publisher) *Reconciler {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Reconciler{tx: tx, wallet: w, orders: orders, publisher: publisher}
}

// Refund credits the order cost back and moves the order to refunded in one
// transaction. Calling it again returns the original credit. On success ord
// is updated in place.
func (r *Reconciler) Refund(ctx context.Context, ord *order.Order) (*wallet.Transaction, error) {
	var (
		credit  *wallet.Transaction
		created bool
		updated *order.Order
	)

	err := r.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		credit, created, err = r.wallet.CreditOnce(ctx, wallet.Entry{
			UserID:      ord.UserID,
			Type:        wallet.TxCredit,
			Amount:      ord.Cost,
			Reference:   ord.ID.String(),
			Description: "Refund: order failed",
		})
		if err != nil {
			return err
		}

		updated, err = r.orders.ApplyStatus(ctx, order.StatusUpdate{OrderID: ord.ID, To: order.StatusRefunded})
		if err == nil {
			return nil
		}
		if created || !errors.Is(err, order.ErrInvalidTransition) {
			return err
		}

		current, gerr := r.orders.GetByID(ctx, ord.ID)
		if gerr != nil {
			return gerr
		}
		if current.Status != order.StatusRefunded {
			return err
		}
		updated = current
		return nil
	})
	if err != nil {
		metrics.RecordRefund("error")
		logger.Error("refund failed", "order_id", ord.ID.String(), "error", err)
		return nil, err
	}

	*ord = *updated
	if !created {
		metrics.RecordRefund("duplicate")
		return credit, nil
	}

	metrics.RecordRefund("refunded")
	logger.Info("order refunded",
		"order_id", ord.ID.String(),
		"user_id", ord.UserID.String(),
		"amount", credit.Amount.String(),
		"balance_after", credit.BalanceAfter.String(),
	)
	publish(ctx, r.publisher, events.OrderRefunded, ord, "")
	return credit, nil
}
