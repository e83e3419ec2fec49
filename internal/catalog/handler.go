package catalog

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Emmyblinks655/taskpay-rewards/internal/api"
	"github.com/Emmyblinks655/taskpay-rewards/internal/logger"
)

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// @Summary      List services
// @Description  Active VTU services, optionally filtered by category
// @Tags         services
// @Produce      json
// @Security     BearerAuth
// @Param        category query string false "airtime, data, cable_tv, electricity or internet"
// @Success      200 {array}  catalog.Service
// @Failure      400 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /api/v1/services [get]
func (h *Handler) ListServices(c *gin.Context) {
	category := Category(c.Query("category"))
	if category != "" && !category.Valid() {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "unknown category"})
		return
	}

	services, err := h.repo.ListServices(c.Request.Context(), category)
	if err != nil {
		logger.Error("failed to list services", "category", string(category), "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to fetch services"})
		return
	}

	c.JSON(http.StatusOK, services)
}
