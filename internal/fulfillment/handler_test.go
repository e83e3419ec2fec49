package fulfillment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Emmyblinks655/taskpay-rewards/internal/auth"
	"github.com/Emmyblinks655/taskpay-rewards/internal/db"
	"github.com/Emmyblinks655/taskpay-rewards/internal/idempotency"
	"github.com/Emmyblinks655/taskpay-rewards/internal/order"
	"github.com/Emmyblinks655/taskpay-rewards/internal/wallet"
)

func newTestRouter(f *fixture, userID uuid.UUID, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(f.orch, f.store, f.store)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID != uuid.Nil {
			c.Set("user_id", userID)
			c.Set("user_role", role)
		}
		c.Next()
	})
	r.POST("/orders", h.Purchase)
	r.GET("/orders", h.ListOrders)
	r.GET("/orders/:id", h.GetOrder)
	r.GET("/orders/:id/logs", h.OrderLogs)
	r.POST("/admin/orders/:id/retry", h.Retry)
	r.POST("/admin/orders/:id/refund", h.Refund)
	return r
}

type failureBody struct {
	Error   string          `json:"error"`
	Details json.RawMessage `json:"details"`
	Order   *order.Order    `json:"order"`
}

func postPurchase(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_Purchase(t *testing.T) {
	f := newFixture(defaultConfig())
	f.store.fund(f.userID, "100.00")
	p := f.store.addProvider("Primary", 10)
	f.adapter.script(p, true)

	w := postPurchase(newTestRouter(f, f.userID, auth.RoleUser),
		`{"service_id":"`+f.svc.ID.String()+`","target":"08012345678"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var o order.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &o))
	assert.Equal(t, order.StatusCompleted, o.Status)
}

func TestHandler_Purchase_StatusMapping(t *testing.T) {
	tests := []struct {
		name      string
		fund      string
		providers int
		body      func(f *fixture) string
		status    int
		message   string
		withOrder bool
	}{
		{
			name: "malformed", fund: "100", providers: 1,
			body:   func(f *fixture) string { return `{"target":"08012345678"}` },
			status: http.StatusBadRequest, message: "validation failed",
		},
		{
			name: "unknown service", fund: "100", providers: 1,
			body:   func(f *fixture) string { return `{"service_id":"` + uuid.NewString() + `","target":"08012345678"}` },
			status: http.StatusBadRequest, message: "service not found",
		},
		{
			name: "insufficient balance", fund: "10", providers: 1,
			body:   func(f *fixture) string { return `{"service_id":"` + f.svc.ID.String() + `","target":"08012345678"}` },
			status: http.StatusBadRequest, message: "insufficient balance",
		},
		{
			name: "no providers", fund: "100", providers: 0,
			body:   func(f *fixture) string { return `{"service_id":"` + f.svc.ID.String() + `","target":"08012345678"}` },
			status: http.StatusBadRequest, message: "no providers available", withOrder: true,
		},
		{
			name: "exhausted", fund: "100", providers: 1,
			body:   func(f *fixture) string { return `{"service_id":"` + f.svc.ID.String() + `","target":"08012345678"}` },
			status: http.StatusInternalServerError, message: "order failed, balance restored", withOrder: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(defaultConfig())
			f.store.fund(f.userID, tt.fund)
			for i := 0; i < tt.providers; i++ {
				f.store.addProvider("Primary", 10)
			}

			w := postPurchase(newTestRouter(f, f.userID, auth.RoleUser), tt.body(f))

			assert.Equal(t, tt.status, w.Code)
			var body failureBody
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.message, body.Error)
			if tt.withOrder {
				require.NotNil(t, body.Order)
				assert.Equal(t, order.StatusRefunded, body.Order.Status)
			} else {
				assert.Nil(t, body.Order)
			}
		})
	}
}

func TestHandler_Purchase_Unauthenticated(t *testing.T) {
	f := newFixture(defaultConfig())
	w := postPurchase(newTestRouter(f, uuid.Nil, ""), `{}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandler_GetOrder(t *testing.T) {
	f := newFixture(defaultConfig())
	mine := seedOrder(f, order.StatusCompleted)

	tests := []struct {
		name   string
		caller uuid.UUID
		role   string
		path   string
		status int
	}{
		{"owner", f.userID, auth.RoleUser, "/orders/" + mine.ID.String(), http.StatusOK},
		{"admin", uuid.New(), auth.RoleAdmin, "/orders/" + mine.ID.String(), http.StatusOK},
		{"someone else", uuid.New(), auth.RoleUser, "/orders/" + mine.ID.String(), http.StatusNotFound},
		{"missing", f.userID, auth.RoleUser, "/orders/" + uuid.NewString(), http.StatusNotFound},
		{"bad id", f.userID, auth.RoleUser, "/orders/nope", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			newTestRouter(f, tt.caller, tt.role).ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestHandler_ListOrdersAndLogs(t *testing.T) {
	f := newFixture(defaultConfig())
	f.store.fund(f.userID, "100.00")
	f.store.addProvider("Primary", 10)
	o, _ := f.purchase()

	r := newTestRouter(f, f.userID, auth.RoleAdmin)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var orders []order.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &orders))
	assert.Len(t, orders, 1)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders/"+o.ID.String()+"/logs", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var logs []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &logs))
	assert.Len(t, logs, 3)
}

func TestHandler_RefundIsIdempotent(t *testing.T) {
	f := newFixture(defaultConfig())
	f.store.fund(f.userID, "80.00")
	stuck := seedOrder(f, order.StatusFailed)
	r := newTestRouter(f, uuid.New(), auth.RoleAdmin)

	var first, second wallet.Transaction
	for _, dst := range []*wallet.Transaction{&first, &second} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/orders/"+stuck.ID.String()+"/refund", nil))
		require.Equal(t, http.StatusOK, w.Code)
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst))
	}

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, dec("100").Equal(f.store.balance(f.userID)))

	refunded, _ := f.store.GetByID(context.Background(), stuck.ID)
	assert.Equal(t, order.StatusRefunded, refunded.Status)
}

func TestHandler_RefundCompletedOrderConflicts(t *testing.T) {
	f := newFixture(defaultConfig())
	done := seedOrder(f, order.StatusCompleted)

	w := httptest.NewRecorder()
	newTestRouter(f, uuid.New(), auth.RoleAdmin).ServeHTTP(w,
		httptest.NewRequest(http.MethodPost, "/admin/orders/"+done.ID.String()+"/refund", nil))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Empty(t, f.store.transactionsOf(f.userID))
}

func TestHandler_Retry(t *testing.T) {
	f := newFixture(defaultConfig())
	p := f.store.addProvider("Primary", 10)
	f.adapter.script(p, true)
	stuck := seedOrder(f, order.StatusFailed)
	r := newTestRouter(f, uuid.New(), auth.RoleAdmin)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/orders/"+stuck.ID.String()+"/retry", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/orders/"+stuck.ID.String()+"/retry", nil))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/orders/"+uuid.NewString()+"/retry", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_Purchase_DeliveredButUnrecorded(t *testing.T) {
	f := newFixture(defaultConfig())
	f.store.fund(f.userID, "100.00")
	p := f.store.addProvider("Primary", 10)
	f.adapter.script(p, true)
	f.store.failComplete = db.Wrap("apply order status", errors.New("connection reset"))

	w := postPurchase(newTestRouter(f, f.userID, auth.RoleUser),
		`{"service_id":"`+f.svc.ID.String()+`","target":"08012345678"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body failureBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, ErrDeliveredUnrecorded.Error(), body.Error)
	require.NotNil(t, body.Order)
	assert.Equal(t, order.StatusProcessing, body.Order.Status)
}

func TestHandler_Purchase_FailedOrderKeepsIdempotencyKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := newFixture(defaultConfig())
	f.store.fund(f.userID, "100.00")
	f.store.addProvider("Primary", 10)

	rdb, mock := redismock.NewClientMock()
	key := "idempotency:" + f.userID.String() + ":buy-1"
	mock.ExpectSetNX(key, "inflight", time.Hour).SetVal(true)
	mock.Regexp().ExpectSet(key, `"status":500`, time.Hour).SetVal("OK")

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", f.userID)
		c.Next()
	})
	r.POST("/orders", idempotency.Middleware(idempotency.NewStore(rdb, time.Hour)), NewHandler(f.orch, f.store, f.store).Purchase)

	req := httptest.NewRequest(http.MethodPost, "/orders",
		strings.NewReader(`{"service_id":"`+f.svc.ID.String()+`","target":"08012345678"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(idempotency.HeaderKey, "buy-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 1, f.store.orderCount())
}
