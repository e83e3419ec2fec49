package wallet

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Emmyblinks655/taskpay-rewards/internal/api"
	"github.com/Emmyblinks655/taskpay-rewards/internal/auth"
	"github.com/Emmyblinks655/taskpay-rewards/internal/logger"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// @Summary      Wallet balance
// @Tags         wallet
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} wallet.Wallet
// @Failure      401 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /api/v1/wallet [get]
func (h *Handler) GetBalance(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	w, err := h.service.Balance(c.Request.Context(), userID)
	if err != nil {
		logger.Error("failed to load wallet", "user_id", userID.String(), "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to load wallet"})
		return
	}

	c.JSON(http.StatusOK, w)
}

// @Summary      Wallet transactions
// @Tags         wallet
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query int false "Page size" default(50)
// @Param        offset query int false "Offset"    default(0)
// @Success      200 {array}  wallet.Transaction
// @Failure      401 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /api/v1/wallet/transactions [get]
func (h *Handler) ListTransactions(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	txs, err := h.service.Transactions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		logger.Error("failed to load transactions", "user_id", userID.String(), "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to load transactions"})
		return
	}

	c.JSON(http.StatusOK, txs)
}

// @Summary      Top up a wallet
// @Description  Admin-only: credit a user's wallet with a topup transaction
// @Tags         admin,wallet
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        userID  path string true "User ID"
// @Param        request body wallet.TopUpRequest true "Top up payload"
// @Success      200 {object} wallet.Transaction
// @Failure      400 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /api/v1/admin/wallets/{userID}/topup [post]
func (h *Handler) TopUp(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid user id"})
		return
	}

	var req TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil || !req.Amount.IsPositive() {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "amount must be positive"})
		return
	}

	tx, err := h.service.TopUp(c.Request.Context(), userID, req.Amount, req.Reference)
	if err != nil {
		logger.Error("failed to top up wallet", "user_id", userID.String(), "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to top up wallet"})
		return
	}

	c.JSON(http.StatusOK, tx)
}

// @Summary      Audit a wallet
// @Description  Admin-only: recompute the ledger and compare it with the stored balance
// @Tags         admin,wallet
// @Produce      json
// @Security     BearerAuth
// @Param        userID path string true "User ID"
// @Success      200 {object} wallet.AuditReport
// @Failure      400 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /api/v1/admin/wallets/{userID}/audit [get]
func (h *Handler) Audit(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid user id"})
		return
	}

	report, err := h.service.Audit(c.Request.Context(), userID)
	if err != nil {
		logger.Error("wallet audit failed", "user_id", userID.String(), "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to audit wallet"})
		return
	}

	c.JSON(http.StatusOK, report)
}
