package fulfillment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Emmyblinks655/taskpay-rewards/internal/catalog"
	"github.com/Emmyblinks655/taskpay-rewards/internal/db"
	"github.com/Emmyblinks655/taskpay-rewards/internal/events"
	"github.com/Emmyblinks655/taskpay-rewards/internal/logger"
	"github.com/Emmyblinks655/taskpay-rewards/internal/metrics"
	"github.com/Emmyblinks655/taskpay-rewards/internal/order"
	"github.com/Emmyblinks655/taskpay-rewards/internal/provider"
	"github.com/Emmyblinks655/taskpay-rewards/internal/wallet"
)

const noProviderMessage = "no providers available"

type Config struct {
	MaxAttempts       int
	ProviderTimeout   time.Duration
	CommissionPercent decimal.Decimal
}

type Deps struct {
	Tx        db.Transactor
	Catalog   catalog.Repository
	Wallet    wallet.Service
	Orders    order.Repository
	Registry  provider.Registry
	Logs      provider.LogRepository
	Adapter   provider.Adapter
	Publisher events.Publisher
}

// Orchestrator drives an order from debit to a terminal state.
type Orchestrator struct {
	tx         db.Transactor
	catalog    catalog.Repository
	wallet     wallet.Service
	orders     order.Repository
	registry   provider.Registry
	logs       provider.LogRepository
	adapter    provider.Adapter
	publisher  events.Publisher
	reconciler *Reconciler
	cfg        Config
	tracer     trace.Tracer
}

func NewOrchestrator(d Deps, cfg Config) *Orchestrator {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 3
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = 15 * time.Second
	}
	if d.Publisher == nil {
		d.Publisher = events.Noop{}
	}

	return &Orchestrator{
		tx:         d.Tx,
		catalog:    d.Catalog,
		wallet:     d.Wallet,
		orders:     d.Orders,
		registry:   d.Registry,
		logs:       d.Logs,
		adapter:    d.Adapter,
		publisher:  d.Publisher,
		reconciler: NewReconciler(d.Tx, d.Wallet, d.Orders, d.Publisher),
		cfg:        cfg,
		tracer:     otel.Tracer("github.com/Emmyblinks655/taskpay-rewards/internal/fulfillment"),
	}
}

func (o *Orchestrator) Reconciler() *Reconciler {
	return o.reconciler
}

// Purchase debits the buyer and creates the order atomically, then fulfills
// it. The returned order is non-nil whenever one was created, even when the
// error is non-nil.
func (o *Orchestrator) Purchase(ctx context.Context, userID, serviceID uuid.UUID, target string) (*order.Order, error) {
	svc, err := o.catalog.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if !svc.Status {
		return nil, catalog.ErrServiceInactive
	}
	profile, err := o.catalog.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	ord := &order.Order{
		ID:        uuid.New(),
		UserID:    userID,
		ServiceID: svc.ID,
		Amount:    svc.Price,
		Cost:      catalog.PriceFor(svc, profile),
		Target:    target,
		Status:    order.StatusPending,
	}

	err = o.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := o.wallet.Debit(ctx, userID, ord.Cost, "Purchase: "+svc.Name, ord.ID.String()); err != nil {
			return err
		}
		return o.orders.Create(ctx, ord)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("order created",
		"order_id", ord.ID.String(),
		"user_id", userID.String(),
		"service", svc.Name,
		"cost", ord.Cost.String(),
	)

	// The buyer has paid; finish the order even if the client goes away.
	return o.fulfill(context.WithoutCancel(ctx), ord, svc, profile)
}

// Retry re-runs fulfillment for an order left failed without a refund.
// It never debits again.
func (o *Orchestrator) Retry(ctx context.Context, orderID uuid.UUID) (*order.Order, error) {
	ord, err := o.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if ord.Status == order.StatusRefunded {
		return ord, ErrAlreadyRefunded
	}
	if ord.Status.IsTerminal() {
		return ord, fmt.Errorf("%w: %s -> %s", order.ErrInvalidTransition, ord.Status, order.StatusProcessing)
	}
	if _, err := o.wallet.FindByReference(ctx, wallet.TxCredit, ord.ID.String()); err == nil {
		return ord, ErrAlreadyRefunded
	} else if !errors.Is(err, wallet.ErrTransactionNotFound) {
		return ord, err
	}

	svc, err := o.catalog.GetService(ctx, ord.ServiceID)
	if err != nil {
		return ord, err
	}
	profile, err := o.catalog.GetProfile(ctx, ord.UserID)
	if err != nil && !errors.Is(err, catalog.ErrProfileNotFound) {
		return ord, err
	}

	// The guarded transition lets only one concurrent retry through.
	ord, err = o.orders.ApplyStatus(ctx, order.StatusUpdate{OrderID: orderID, To: order.StatusProcessing})
	if err != nil {
		return nil, err
	}

	logger.Info("retrying order", "order_id", orderID.String(), "retry_count", ord.RetryCount)
	return o.fulfill(context.WithoutCancel(ctx), ord, svc, profile)
}

func (o *Orchestrator) fulfill(ctx context.Context, ord *order.Order, svc *catalog.Service, profile *catalog.Profile) (*order.Order, error) {
	req := provider.Request{
		OrderID:           ord.ID,
		ServiceID:         svc.ID,
		ProviderServiceID: svc.ProviderServiceID,
		Category:          string(svc.Category),
		Target:            ord.Target,
		Amount:            ord.Amount,
	}

	var lastErr error
	attempts := 0
	for attempts < o.cfg.MaxAttempts {
		providers, err := o.registry.Select(ctx)
		if err != nil {
			logger.Error("provider registry unavailable", "order_id", ord.ID.String(), "error", err)
			return o.terminate(ctx, ord, fmt.Sprintf("provider registry unavailable: %v", err), err)
		}
		if len(providers) == 0 {
			return o.terminate(ctx, ord, noProviderMessage, provider.ErrNoProviderAvailable)
		}

		// Always the highest-priority provider; lower ones are never tried.
		p := providers[0]
		attempts++
		req.Attempt = attempts

		res, callErr, err := o.attempt(ctx, ord, p, req)
		if err != nil {
			return o.abort(ctx, ord, err)
		}

		if callErr == nil {
			metrics.RecordOrderAttempts(attempts)
			return o.complete(ctx, ord, p, res, profile)
		}

		lastErr = callErr
		count, err := o.orders.IncrementRetryCount(ctx, ord.ID)
		if err != nil {
			return o.abort(ctx, ord, err)
		}
		ord.RetryCount = count

		logger.Warn("provider attempt failed",
			"order_id", ord.ID.String(),
			"provider", p.Name,
			"attempt", attempts,
			"error", callErr,
		)
	}

	metrics.RecordOrderAttempts(attempts)
	failed, err := o.fail(ctx, ord, lastErr.Error())
	if err != nil {
		return o.abort(ctx, ord, err)
	}
	if _, err := o.reconciler.Refund(ctx, failed); err != nil {
		return failed, fmt.Errorf("refund after failed fulfillment: %w", err)
	}
	return failed, fmt.Errorf("%w: %d attempts: %v", ErrFulfillmentFailed, attempts, lastErr)
}

// attempt calls one provider and records exactly one log row. The second
// return value is the provider's failure; the third is a persistence error.
func (o *Orchestrator) attempt(ctx context.Context, ord *order.Order, p provider.Provider, req provider.Request) (*provider.Result, *provider.CallError, error) {
	ctx, span := o.tracer.Start(ctx, "provider.fulfill", trace.WithAttributes(
		attribute.String("order.id", ord.ID.String()),
		attribute.String("provider.name", p.Name),
		attribute.String("provider.kind", p.Kind),
		attribute.Int("attempt", req.Attempt),
	))
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, o.cfg.ProviderTimeout)
	start := time.Now()
	res, callErr := o.call(callCtx, p, req)
	cancel()
	elapsed := time.Since(start).Seconds()

	entry := &provider.Log{
		OrderID:    ord.ID,
		ProviderID: uuid.NullUUID{UUID: p.ID, Valid: true},
		Request:    mustJSON(req),
	}
	if callErr == nil {
		entry.StatusCode = res.StatusCode
		entry.Response = nullJSON(res.Response)
		metrics.RecordProviderAttempt(p.Name, "success", elapsed)
		span.SetAttributes(attribute.String("provider.reference", res.Reference))
	} else {
		msg := callErr.Error()
		entry.StatusCode = callErr.StatusCode
		entry.Response = nullJSON(callErr.Response)
		entry.ErrorMessage = &msg

		outcome := "failure"
		if callErr.Timeout {
			outcome = "timeout"
		}
		metrics.RecordProviderAttempt(p.Name, outcome, elapsed)
		span.RecordError(callErr)
		span.SetStatus(codes.Error, msg)
	}

	if err := o.logs.Append(ctx, entry); err != nil {
		if callErr != nil {
			return nil, nil, err
		}
		// The provider has delivered. A missing log row must not undo that.
		o.appendDeliveredLog(ctx, entry, err)
	}
	return res, callErr, nil
}

// appendDeliveredLog retries a failed log write for a delivered attempt
// without the provider's response body, which is the usual reason the row
// is rejected.
func (o *Orchestrator) appendDeliveredLog(ctx context.Context, entry *provider.Log, cause error) {
	logger.Error("failed to record delivered provider attempt", "order_id", entry.OrderID.String(), "error", cause)

	entry.Response = types.NullJSONText{}
	if err := o.logs.Append(ctx, entry); err != nil {
		logger.Error("provider log lost for delivered attempt", "order_id", entry.OrderID.String(), "error", err)
	}
}

// call normalizes every adapter outcome, including panics, into a result or
// a *provider.CallError.
func (o *Orchestrator) call(ctx context.Context, p provider.Provider, req provider.Request) (res *provider.Result, callErr *provider.CallError) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			callErr = &provider.CallError{Message: fmt.Sprintf("adapter panic: %v", r)}
		}
	}()

	res, err := o.adapter.Fulfill(ctx, p, req)
	if err == nil && (res == nil || res.Reference == "") {
		err = errors.New("provider returned no reference")
	}
	if err == nil {
		return res, nil
	}

	if errors.As(err, &callErr) {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			callErr.Timeout = true
		}
		return nil, callErr
	}
	timeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)
	return nil, &provider.CallError{Message: err.Error(), Timeout: timeout, Err: err}
}

func (o *Orchestrator) complete(ctx context.Context, ord *order.Order, p provider.Provider, res *provider.Result, profile *catalog.Profile) (*order.Order, error) {
	done, err := o.orders.ApplyStatus(ctx, order.StatusUpdate{
		OrderID:     ord.ID,
		To:          order.StatusCompleted,
		ProviderID:  uuid.NullUUID{UUID: p.ID, Valid: true},
		ProviderRef: res.Reference,
	})
	if err != nil {
		// Delivered but not recorded: refunding now would pay the buyer twice.
		logger.WithFields(map[string]interface{}{
			"order_id":     ord.ID.String(),
			"user_id":      ord.UserID.String(),
			"provider":     p.Name,
			"provider_ref": res.Reference,
			"error":        err.Error(),
		}).Error("order delivered but completion was not recorded, manual reconciliation required")
		metrics.RecordOrder("unrecorded")
		return ord, fmt.Errorf("%w: %w", ErrDeliveredUnrecorded, err)
	}

	metrics.RecordOrder(string(order.StatusCompleted))
	logger.Info("order completed",
		"order_id", done.ID.String(),
		"provider", p.Name,
		"provider_ref", res.Reference,
		"retry_count", done.RetryCount,
	)

	o.payCommission(ctx, done, profile)
	o.publish(ctx, events.OrderCompleted, done, "")
	return done, nil
}

// payCommission credits the buyer's referrer. Failures are logged and never
// change the order outcome.
func (o *Orchestrator) payCommission(ctx context.Context, ord *order.Order, profile *catalog.Profile) {
	if profile == nil || !profile.ReferredBy.Valid || profile.ReferredBy.UUID == ord.UserID {
		return
	}
	if !o.cfg.CommissionPercent.IsPositive() {
		return
	}

	amount := ord.Cost.Mul(o.cfg.CommissionPercent).Div(decimal.NewFromInt(100)).Round(2)
	if !amount.IsPositive() {
		return
	}

	referrer := profile.ReferredBy.UUID
	_, created, err := o.wallet.CreditOnce(ctx, wallet.Entry{
		UserID:      referrer,
		Type:        wallet.TxCommission,
		Amount:      amount,
		Reference:   ord.ID.String(),
		Description: "Referral commission",
	})
	if err != nil {
		logger.Error("referral commission failed", "order_id", ord.ID.String(), "referrer", referrer.String(), "error", err)
		return
	}
	if !created {
		return
	}
	if err := o.orders.SetCommission(ctx, ord.ID, amount); err != nil {
		logger.Error("failed to record order commission", "order_id", ord.ID.String(), "error", err)
		return
	}
	ord.Commission = amount
}

// terminate ends an order that never reached a provider. It writes one log
// row without a provider and leaves retry_count untouched.
func (o *Orchestrator) terminate(ctx context.Context, ord *order.Order, msg string, cause error) (*order.Order, error) {
	if err := o.logs.Append(ctx, &provider.Log{OrderID: ord.ID, ErrorMessage: &msg}); err != nil {
		return o.abort(ctx, ord, err)
	}

	failed, err := o.fail(ctx, ord, msg)
	if err != nil {
		return o.abort(ctx, ord, err)
	}
	if _, err := o.reconciler.Refund(ctx, failed); err != nil {
		return failed, fmt.Errorf("refund after %s: %w", msg, err)
	}
	return failed, cause
}

func (o *Orchestrator) fail(ctx context.Context, ord *order.Order, msg string) (*order.Order, error) {
	failed, err := o.orders.ApplyStatus(ctx, order.StatusUpdate{
		OrderID:      ord.ID,
		To:           order.StatusFailed,
		ErrorMessage: msg,
	})
	if err != nil {
		return nil, err
	}
	*ord = *failed

	metrics.RecordOrder(string(order.StatusFailed))
	logger.Warn("order failed", "order_id", ord.ID.String(), "retry_count", ord.RetryCount, "error", msg)
	o.publish(ctx, events.OrderFailed, ord, msg)
	return ord, nil
}

// abort handles a persistence error inside the attempt loop: it makes a
// best-effort attempt to fail and refund the order, then returns cause.
func (o *Orchestrator) abort(ctx context.Context, ord *order.Order, cause error) (*order.Order, error) {
	logger.Error("fulfillment aborted", "order_id", ord.ID.String(), "error", cause)

	if ord.Status.IsTerminal() {
		return ord, cause
	}
	if ord.Status == order.StatusProcessing || ord.Status == order.StatusPending {
		if _, err := o.fail(ctx, ord, "internal error: "+cause.Error()); err != nil {
			logger.Error("could not mark order failed", "order_id", ord.ID.String(), "error", err)
			return ord, cause
		}
	}
	if ord.Status == order.StatusFailed {
		if _, err := o.reconciler.Refund(ctx, ord); err != nil {
			logger.Error("could not refund aborted order", "order_id", ord.ID.String(), "error", err)
		}
	}
	return ord, cause
}

func (o *Orchestrator) publish(ctx context.Context, kind string, ord *order.Order, errMsg string) {
	publish(ctx, o.publisher, kind, ord, errMsg)
}

func publish(ctx context.Context, p events.Publisher, kind string, ord *order.Order, errMsg string) {
	e := events.Event{
		ID:         uuid.New(),
		Type:       kind,
		OrderID:    ord.ID,
		UserID:     ord.UserID,
		Status:     string(ord.Status),
		Cost:       ord.Cost,
		Error:      errMsg,
		OccurredAt: time.Now().UTC(),
	}
	if ord.ProviderRef != nil {
		e.ProviderRef = *ord.ProviderRef
	}
	if err := p.Publish(ctx, e); err != nil {
		logger.Warn("failed to publish order event", "event", kind, "order_id", ord.ID.String(), "error", err)
	}
}

func mustJSON(v any) types.JSONText {
	b, err := json.Marshal(v)
	if err != nil {
		return types.JSONText("{}")
	}
	return types.JSONText(b)
}

func nullJSON(raw json.RawMessage) types.NullJSONText {
	if len(raw) == 0 {
		return types.NullJSONText{}
	}
	return types.NullJSONText{JSONText: types.JSONText(raw), Valid: true}
}
