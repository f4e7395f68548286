package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/creatilink/marketplace-backend/internal/http/handlers/common"
	"github.com/creatilink/marketplace-backend/internal/service"
)

// AdminHandler обрабатывает административные вмешательства: принудительные
// переходы транзакций, закрытие споров, блокировки и журнал действий.
// Роль администратора проверяется сервисами по записи в БД, а не по токену.
type AdminHandler struct {
	transactions *service.TransactionService
	disputes     *service.DisputeService
	projects     *service.ProjectService
	users        *service.UserService
	audit        *service.AuditService
}

// NewAdminHandler создаёт новый admin handler.
func NewAdminHandler(
	transactions *service.TransactionService,
	disputes *service.DisputeService,
	projects *service.ProjectService,
	users *service.UserService,
	audit *service.AuditService,
) *AdminHandler {
	return &AdminHandler{
		transactions: transactions,
		disputes:     disputes,
		projects:     projects,
		users:        users,
		audit:        audit,
	}
}

// ListTransactions GET /admin/transactions
func (h *AdminHandler) ListTransactions(c *gin.Context) {
	adminID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)

	transactions, err := h.transactions.ListAll(c.Request.Context(), adminID, c.Query("status"), limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": transactions, "limit": limit, "offset": offset})
}

// ReleaseTransaction POST /admin/transactions/:id/release
func (h *AdminHandler) ReleaseTransaction(c *gin.Context) {
	adminID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	transactionID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	transaction, err := h.transactions.AdminRelease(c.Request.Context(), adminID, transactionID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, transaction)
}

// RefundTransaction POST /admin/transactions/:id/refund
func (h *AdminHandler) RefundTransaction(c *gin.Context) {
	adminID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	transactionID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "необходимо указать причину")
		return
	}

	transaction, err := h.transactions.AdminRefund(c.Request.Context(), adminID, transactionID, req.Reason)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, transaction)
}

// ListOpenDisputes GET /admin/disputes
func (h *AdminHandler) ListOpenDisputes(c *gin.Context) {
	adminID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)

	disputes, err := h.disputes.ListOpen(c.Request.Context(), adminID, limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"disputes": disputes, "limit": limit, "offset": offset})
}

type resolveRequest struct {
	Resolution string `json:"resolution" binding:"required"`
}

// ResolveDispute POST /admin/disputes/:id/resolve
func (h *AdminHandler) ResolveDispute(c *gin.Context) {
	adminID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "необходимо указать пояснение")
		return
	}

	dispute, err := h.disputes.Resolve(c.Request.Context(), adminID, disputeID, req.Resolution)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dispute)
}

// ResolveDisputeWithRefund POST /admin/disputes/:id/refund
func (h *AdminHandler) ResolveDisputeWithRefund(c *gin.Context) {
	adminID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "необходимо указать пояснение")
		return
	}

	dispute, err := h.disputes.ResolveWithRefund(c.Request.Context(), adminID, disputeID, req.Resolution)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dispute)
}

// ResolveDisputeWithRelease POST /admin/disputes/:id/release
func (h *AdminHandler) ResolveDisputeWithRelease(c *gin.Context) {
	adminID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "необходимо указать пояснение")
		return
	}

	dispute, err := h.disputes.ResolveWithRelease(c.Request.Context(), adminID, disputeID, req.Resolution)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dispute)
}

// ResolveDisputeWithBan POST /admin/disputes/:id/ban
func (h *AdminHandler) ResolveDisputeWithBan(c *gin.Context) {
	adminID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req struct {
		BannedUserID string `json:"banned_user_id" binding:"required,uuid"`
		Resolution   string `json:"resolution" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	bannedUserID, err := uuid.Parse(req.BannedUserID)
	if err != nil {
		common.RespondBadRequest(c, "неверный banned_user_id")
		return
	}

	dispute, err := h.disputes.ResolveWithBan(c.Request.Context(), adminID, disputeID, bannedUserID, req.Resolution)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dispute)
}

// ForceCompleteProject POST /admin/projects/:id/force-complete
func (h *AdminHandler) ForceCompleteProject(c *gin.Context) {
	adminID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	projectID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	project, err := h.projects.ForceComplete(c.Request.Context(), adminID, projectID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, project)
}

// ReassignProject POST /admin/projects/:id/reassign
func (h *AdminHandler) ReassignProject(c *gin.Context) {
	adminID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	projectID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req struct {
		CreatorID string `json:"creator_id" binding:"required,uuid"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	creatorID, err := uuid.Parse(req.CreatorID)
	if err != nil {
		common.RespondBadRequest(c, "неверный creator_id")
		return
	}

	project, err := h.projects.Reassign(c.Request.Context(), adminID, projectID, creatorID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, project)
}

// BanUser POST /admin/users/:id/ban
func (h *AdminHandler) BanUser(c *gin.Context) {
	adminID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	targetID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "необходимо указать причину")
		return
	}

	user, err := h.users.Ban(c.Request.Context(), adminID, targetID, req.Reason)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// ListAuditLog GET /admin/audit
func (h *AdminHandler) ListAuditLog(c *gin.Context) {
	adminID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)

	entries, err := h.audit.ListForAdmin(c.Request.Context(), adminID, c.Query("severity"), limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"audit_logs": entries, "limit": limit, "offset": offset})
}
