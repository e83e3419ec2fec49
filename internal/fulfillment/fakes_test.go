package fulfillment

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Emmyblinks655/taskpay-rewards/internal/catalog"
	"github.com/Emmyblinks655/taskpay-rewards/internal/order"
	"github.com/Emmyblinks655/taskpay-rewards/internal/provider"
	"github.com/Emmyblinks655/taskpay-rewards/internal/wallet"
)

type journalKey struct{}

type journal struct {
	undo []func()
}

// memStore is an in-memory stand-in for Postgres. Transactions are
// serialized by txMu, which plays the part of the wallet row lock, and
// rolled back through an undo journal.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	wallets   map[uuid.UUID]decimal.Decimal
	txs       []wallet.Transaction
	orders    map[uuid.UUID]order.Order
	logs      []provider.Log
	providers []provider.Provider
	services  map[uuid.UUID]catalog.Service
	profiles  map[uuid.UUID]catalog.Profile

	failCreate   error
	failAppend   error
	failSelect   error
	failComplete error
}

func newMemStore() *memStore {
	return &memStore{
		wallets:  make(map[uuid.UUID]decimal.Decimal),
		orders:   make(map[uuid.UUID]order.Order),
		services: make(map[uuid.UUID]catalog.Service),
		profiles: make(map[uuid.UUID]catalog.Profile),
	}
}

func (s *memStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(journalKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	j := &journal{}
	if err := fn(context.WithValue(ctx, journalKey{}, j)); err != nil {
		s.mu.Lock()
		for i := len(j.undo) - 1; i >= 0; i-- {
			j.undo[i]()
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

// record must be called with s.mu held.
func record(ctx context.Context, undo func()) {
	if j, ok := ctx.Value(journalKey{}).(*journal); ok {
		j.undo = append(j.undo, undo)
	}
}

// seeding helpers

func (s *memStore) fund(userID uuid.UUID, amount string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wallets[userID] = decimal.RequireFromString(amount)
}

func (s *memStore) addService(price string) catalog.Service {
	svc := catalog.Service{
		ID:                uuid.New(),
		Name:              "MTN 1GB",
		OperatorName:      "MTN",
		Category:          catalog.CategoryData,
		CountryCode:       "NG",
		Currency:          "NGN",
		Price:             decimal.RequireFromString(price),
		ProviderServiceID: "mtn-1gb",
		Status:            true,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.services[svc.ID] = svc
	return svc
}

func (s *memStore) addProfile(p catalog.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.ID] = p
}

func (s *memStore) addProvider(name string, priority int) provider.Provider {
	p := provider.Provider{ID: uuid.New(), Name: name, Kind: "fake", Enabled: true, Priority: priority}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providers = append(s.providers, p)
	return p
}

// inspection helpers

func (s *memStore) balance(userID uuid.UUID) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wallets[userID]
}

func (s *memStore) transactionsOf(userID uuid.UUID) []wallet.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []wallet.Transaction
	for _, t := range s.txs {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out
}

func (s *memStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func (s *memStore) logsFor(orderID uuid.UUID) (withProvider, withoutProvider int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.logs {
		if l.OrderID != orderID {
			continue
		}
		if l.ProviderID.Valid {
			withProvider++
		} else {
			withoutProvider++
		}
	}
	return
}

// wallet.Repository

func (s *memStore) LockWallet(ctx context.Context, userID uuid.UUID) (*wallet.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bal, ok := s.wallets[userID]
	if !ok {
		s.wallets[userID] = decimal.Zero
		record(ctx, func() { delete(s.wallets, userID) })
	}
	return &wallet.Wallet{UserID: userID, Balance: bal}, nil
}

func (s *memStore) UpdateBalance(ctx context.Context, userID uuid.UUID, balance decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.wallets[userID]
	s.wallets[userID] = balance
	record(ctx, func() { s.wallets[userID] = old })
	return nil
}

func (s *memStore) InsertTransaction(ctx context.Context, tx *wallet.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tx.Reference != "" && (tx.Type == wallet.TxCredit || tx.Type == wallet.TxCommission) {
		for _, t := range s.txs {
			if t.Type == tx.Type && t.Reference == tx.Reference {
				return wallet.ErrDuplicateReference
			}
		}
	}
	tx.CreatedAt = time.Now()
	s.txs = append(s.txs, *tx)
	id := tx.ID
	record(ctx, func() {
		for i := range s.txs {
			if s.txs[i].ID == id {
				s.txs = append(s.txs[:i], s.txs[i+1:]...)
				return
			}
		}
	})
	return nil
}

func (s *memStore) FindByReference(ctx context.Context, txType wallet.TxType, reference string) (*wallet.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.txs {
		if t.Type == txType && t.Reference == reference {
			found := t
			return &found, nil
		}
	}
	return nil, wallet.ErrTransactionNotFound
}

func (s *memStore) GetWallet(ctx context.Context, userID uuid.UUID) (*wallet.Wallet, error) {
	return &wallet.Wallet{UserID: userID, Balance: s.balance(userID)}, nil
}

func (s *memStore) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]wallet.Transaction, error) {
	return s.transactionsOf(userID), nil
}

func (s *memStore) History(ctx context.Context, userID uuid.UUID) ([]wallet.Transaction, error) {
	return s.transactionsOf(userID), nil
}

// order.Repository

func (s *memStore) Create(ctx context.Context, o *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate != nil {
		return s.failCreate
	}
	o.Status = order.StatusProcessing
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	s.orders[o.ID] = *o
	id := o.ID
	record(ctx, func() { delete(s.orders, id) })
	return nil
}

func (s *memStore) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return &o, nil
}

func (s *memStore) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []order.Order{}
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memStore) IncrementRetryCount(ctx context.Context, id uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return 0, order.ErrOrderNotFound
	}
	o.RetryCount++
	s.orders[id] = o
	return o.RetryCount, nil
}

func (s *memStore) ApplyStatus(ctx context.Context, u order.StatusUpdate) (*order.Order, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if u.To == order.StatusCompleted && s.failComplete != nil {
		return nil, s.failComplete
	}
	o, ok := s.orders[u.OrderID]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	allowed := false
	for _, from := range order.Predecessors(u.To) {
		if string(o.Status) == from {
			allowed = true
		}
	}
	if !allowed {
		return nil, errors.Join(order.ErrInvalidTransition, errors.New(string(o.Status)+" -> "+string(u.To)))
	}

	old := o
	o.Status = u.To
	if u.ProviderID.Valid {
		o.ProviderID = u.ProviderID
	}
	if u.ProviderRef != "" {
		ref := u.ProviderRef
		o.ProviderRef = &ref
	}
	if u.ErrorMessage != "" {
		msg := u.ErrorMessage
		o.ErrorMessage = &msg
	}
	if u.To == order.StatusCompleted {
		o.ErrorMessage = nil
	}
	o.UpdatedAt = time.Now()
	s.orders[u.OrderID] = o
	record(ctx, func() { s.orders[u.OrderID] = old })
	return &o, nil
}

func (s *memStore) SetCommission(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.orders[id]
	o.Commission = amount
	s.orders[id] = o
	return nil
}

// provider.Registry and provider.LogRepository

func (s *memStore) Select(ctx context.Context) ([]provider.Provider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSelect != nil {
		return nil, s.failSelect
	}
	out := []provider.Provider{}
	for _, p := range s.providers {
		if p.Enabled {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *memStore) Append(ctx context.Context, l *provider.Log) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAppend != nil {
		return s.failAppend
	}
	l.ID = uuid.New()
	l.CreatedAt = time.Now()
	s.logs = append(s.logs, *l)
	return nil
}

func (s *memStore) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]provider.Log, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []provider.Log{}
	for _, l := range s.logs {
		if l.OrderID == orderID {
			out = append(out, l)
		}
	}
	return out, nil
}

// catalog.Repository

func (s *memStore) GetService(ctx context.Context, id uuid.UUID) (*catalog.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	svc, ok := s.services[id]
	if !ok {
		return nil, catalog.ErrServiceNotFound
	}
	return &svc, nil
}

func (s *memStore) ListServices(ctx context.Context, category catalog.Category) ([]catalog.Service, error) {
	return nil, nil
}

func (s *memStore) GetProfile(ctx context.Context, id uuid.UUID) (*catalog.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, catalog.ErrProfileNotFound
	}
	return &p, nil
}

// scriptedAdapter answers each call with the next outcome for that
// provider; true is success. Missing outcomes fail.
type scriptedAdapter struct {
	mu       sync.Mutex
	outcomes map[uuid.UUID][]bool
	calls    map[uuid.UUID]int
	fn       func(ctx context.Context, p provider.Provider, req provider.Request) (*provider.Result, error)
}

func newScriptedAdapter() *scriptedAdapter {
	return &scriptedAdapter{outcomes: make(map[uuid.UUID][]bool), calls: make(map[uuid.UUID]int)}
}

func (a *scriptedAdapter) script(p provider.Provider, outcomes ...bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.outcomes[p.ID] = outcomes
}

func (a *scriptedAdapter) callsTo(p provider.Provider) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls[p.ID]
}

func (a *scriptedAdapter) Fulfill(ctx context.Context, p provider.Provider, req provider.Request) (*provider.Result, error) {
	a.mu.Lock()
	n := a.calls[p.ID]
	a.calls[p.ID]++
	fn := a.fn
	ok := n < len(a.outcomes[p.ID]) && a.outcomes[p.ID][n]
	a.mu.Unlock()

	if fn != nil {
		return fn(ctx, p, req)
	}
	if !ok {
		return nil, &provider.CallError{StatusCode: 502, Message: "upstream unavailable", Response: []byte(`{"error":"down"}`)}
	}
	return &provider.Result{Reference: "REF-" + req.OrderID.String()[:8], StatusCode: 200, Response: []byte(`{"ok":true}`)}, nil
}
