package fulfillment

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Emmyblinks655/taskpay-rewards/internal/api"
	"github.com/Emmyblinks655/taskpay-rewards/internal/auth"
	"github.com/Emmyblinks655/taskpay-rewards/internal/catalog"
	"github.com/Emmyblinks655/taskpay-rewards/internal/idempotency"
	"github.com/Emmyblinks655/taskpay-rewards/internal/logger"
	"github.com/Emmyblinks655/taskpay-rewards/internal/order"
	"github.com/Emmyblinks655/taskpay-rewards/internal/provider"
	"github.com/Emmyblinks655/taskpay-rewards/internal/wallet"
)

type Handler struct {
	orchestrator *Orchestrator
	orders       order.Repository
	logs         provider.LogRepository
}

func NewHandler(orchestrator *Orchestrator, orders order.Repository, logs provider.LogRepository) *Handler {
	return &Handler{orchestrator: orchestrator, orders: orders, logs: logs}
}

// @Summary      Purchase a service
// @Description  Debits the wallet and fulfills the order through the top provider, retrying up to MAX_ATTEMPTS times
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key header string false "Replays the stored response for a repeated key"
// @Param        request body order.PurchaseRequest true "Purchase payload"
// @Success      200 {object} order.Order
// @Failure      400 {object} api.DetailedErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Failure      500 {object} api.DetailedErrorResponse
// @Router       /api/v1/orders [post]
func (h *Handler) Purchase(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	var req order.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondWithBindError(c, err)
		return
	}

	o, err := h.orchestrator.Purchase(c.Request.Context(), userID, req.ServiceID, req.Target)
	if err != nil {
		respondError(c, o, err)
		return
	}

	c.JSON(http.StatusOK, o)
}

// @Summary      List my orders
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query int false "Page size" default(20)
// @Param        offset query int false "Offset"    default(0)
// @Success      200 {array}  order.Order
// @Failure      401 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /api/v1/orders [get]
func (h *Handler) ListOrders(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	orders, err := h.orders.ListByUser(c.Request.Context(), userID, limit, offset)
	if err != nil {
		logger.Error("failed to list orders", "user_id", userID.String(), "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to fetch orders"})
		return
	}

	c.JSON(http.StatusOK, orders)
}

// @Summary      Get an order
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Order ID"
// @Success      200 {object} order.Order
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /api/v1/orders/{id} [get]
func (h *Handler) GetOrder(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid order id"})
		return
	}

	o, err := h.orders.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "order not found"})
			return
		}
		logger.Error("failed to load order", "order_id", id.String(), "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to fetch order"})
		return
	}

	// Other users' orders are indistinguishable from missing ones.
	if o.UserID != userID && c.GetString("user_role") != auth.RoleAdmin {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "order not found"})
		return
	}

	c.JSON(http.StatusOK, o)
}

// @Summary      Provider attempts for an order
// @Description  Admin-only: one row per fulfillment attempt
// @Tags         admin,orders
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Order ID"
// @Success      200 {array}  provider.Log
// @Failure      400 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /api/v1/orders/{id}/logs [get]
func (h *Handler) OrderLogs(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid order id"})
		return
	}

	logs, err := h.logs.ListByOrder(c.Request.Context(), id)
	if err != nil {
		logger.Error("failed to load provider logs", "order_id", id.String(), "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to fetch provider logs"})
		return
	}

	c.JSON(http.StatusOK, logs)
}

// @Summary      Retry a failed order
// @Description  Admin-only: re-runs fulfillment for an order left failed without a refund
// @Tags         admin,orders
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Order ID"
// @Success      200 {object} order.Order
// @Failure      400 {object} api.DetailedErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Failure      500 {object} api.DetailedErrorResponse
// @Router       /api/v1/admin/orders/{id}/retry [post]
func (h *Handler) Retry(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid order id"})
		return
	}

	o, err := h.orchestrator.Retry(c.Request.Context(), id)
	if err != nil {
		respondError(c, o, err)
		return
	}

	c.JSON(http.StatusOK, o)
}

// @Summary      Refund a failed order
// @Description  Admin-only: credits the order cost back once and marks the order refunded
// @Tags         admin,orders
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Order ID"
// @Success      200 {object} wallet.Transaction
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /api/v1/admin/orders/{id}/refund [post]
func (h *Handler) Refund(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid order id"})
		return
	}

	o, err := h.orders.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, nil, err)
		return
	}

	credit, err := h.orchestrator.Reconciler().Refund(c.Request.Context(), o)
	if err != nil {
		respondError(c, o, err)
		return
	}

	c.JSON(http.StatusOK, credit)
}

func respondError(c *gin.Context, o *order.Order, err error) {
	resp := api.DetailedErrorResponse{Details: err.Error()}
	if o != nil {
		resp.Order = o
		// An order exists, so repeating the request must not buy again.
		idempotency.Keep(c)
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrFulfillmentFailed):
		resp.Error = ErrFulfillmentFailed.Error()
	case errors.Is(err, ErrDeliveredUnrecorded):
		resp.Error = ErrDeliveredUnrecorded.Error()
		resp.Details = ""
	case errors.Is(err, wallet.ErrInsufficientBalance):
		status, resp.Error = http.StatusBadRequest, "insufficient balance"
	case errors.Is(err, catalog.ErrServiceNotFound),
		errors.Is(err, catalog.ErrServiceInactive),
		errors.Is(err, catalog.ErrProfileNotFound):
		status, resp.Error = http.StatusBadRequest, err.Error()
	case errors.Is(err, provider.ErrNoProviderAvailable):
		status, resp.Error = http.StatusBadRequest, err.Error()
	case errors.Is(err, order.ErrOrderNotFound):
		status, resp.Error = http.StatusNotFound, err.Error()
	case errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, ErrAlreadyRefunded):
		status, resp.Error = http.StatusConflict, err.Error()
	default:
		resp.Error = "internal server error"
		resp.Details = ""
		logger.Error("order request failed", "path", c.FullPath(), "error", err)
	}

	c.JSON(status, resp)
}
