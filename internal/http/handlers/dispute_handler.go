package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/creatilink/marketplace-backend/internal/http/handlers/common"
	"github.com/creatilink/marketplace-backend/internal/service"
)

// DisputeHandler обрабатывает запросы арбитража споров.
type DisputeHandler struct {
	disputes *service.DisputeService
}

// NewDisputeHandler создаёт новый dispute handler.
func NewDisputeHandler(disputes *service.DisputeService) *DisputeHandler {
	return &DisputeHandler{disputes: disputes}
}

// Raise POST /disputes
func (h *DisputeHandler) Raise(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req struct {
		TransactionID string `json:"transaction_id" binding:"required,uuid"`
		DisputeType   string `json:"dispute_type" binding:"required"`
		Description   string `json:"description" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	transactionID, err := uuid.Parse(req.TransactionID)
	if err != nil {
		common.RespondBadRequest(c, "неверный transaction_id")
		return
	}

	dispute, err := h.disputes.Raise(c.Request.Context(), userID, transactionID, req.DisputeType, req.Description)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, dispute)
}

// ListMine GET /disputes
func (h *DisputeHandler) ListMine(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)

	disputes, err := h.disputes.ListMine(c.Request.Context(), userID, limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"disputes": disputes, "limit": limit, "offset": offset})
}

// Get GET /disputes/:id
func (h *DisputeHandler) Get(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	dispute, err := h.disputes.Get(c.Request.Context(), userID, disputeID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dispute)
}
