package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/creatilink/marketplace-backend/internal/http/handlers/common"
	"github.com/creatilink/marketplace-backend/internal/service"
)

// TransactionHandler обрабатывает запросы подтверждения оплаты.
type TransactionHandler struct {
	transactions *service.TransactionService
}

// NewTransactionHandler создаёт новый transaction handler.
func NewTransactionHandler(transactions *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactions: transactions}
}

// ListMine GET /transactions
func (h *TransactionHandler) ListMine(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)

	transactions, err := h.transactions.ListMine(c.Request.Context(), userID, c.Query("status"), limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": transactions, "limit": limit, "offset": offset})
}

// Get GET /transactions/:id
func (h *TransactionHandler) Get(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	transactionID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	transaction, err := h.transactions.Get(c.Request.Context(), userID, transactionID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, transaction)
}

// ConfirmPayment POST /transactions/:id/confirm-payment
// Заказчик отмечает, что перевёл оплату по UPI.
func (h *TransactionHandler) ConfirmPayment(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	transactionID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	transaction, err := h.transactions.CustomerConfirm(c.Request.Context(), userID, transactionID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, transaction)
}

// ConfirmReceipt POST /transactions/:id/confirm-receipt
// Исполнитель подтверждает получение оплаты.
func (h *TransactionHandler) ConfirmReceipt(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	transactionID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	transaction, err := h.transactions.CreatorConfirm(c.Request.Context(), userID, transactionID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, transaction)
}

// Reject POST /transactions/:id/reject
// Исполнитель оспаривает заявленную отправку оплаты.
func (h *TransactionHandler) Reject(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
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

	transaction, err := h.transactions.CreatorReject(c.Request.Context(), userID, transactionID, req.Reason)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, transaction)
}

// AttachScreenshot POST /transactions/:id/screenshot
// Заказчик прикладывает скриншот UPI-перевода как доказательство.
func (h *TransactionHandler) AttachScreenshot(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	transactionID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	fileHeader, err := c.FormFile("screenshot")
	if err != nil {
		common.RespondBadRequest(c, "файл screenshot обязателен")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		common.RespondBadRequest(c, "не удалось прочитать файл")
		return
	}
	defer file.Close()

	transaction, err := h.transactions.AttachScreenshot(c.Request.Context(), userID, transactionID, fileHeader.Filename, file)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, transaction)
}
