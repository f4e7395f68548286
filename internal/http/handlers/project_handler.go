package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/creatilink/marketplace-backend/internal/http/handlers/common"
	"github.com/creatilink/marketplace-backend/internal/service"
)

// ProjectHandler обрабатывает запросы жизненного цикла проекта.
type ProjectHandler struct {
	projects *service.ProjectService
}

// NewProjectHandler создаёт новый project handler.
func NewProjectHandler(projects *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// Create POST /projects
func (h *ProjectHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req struct {
		Title       string     `json:"title" binding:"required"`
		Description string     `json:"description" binding:"required"`
		Category    string     `json:"category" binding:"required"`
		Budget      float64    `json:"budget" binding:"required,gt=0"`
		Deadline    *time.Time `json:"deadline"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	project, err := h.projects.Create(c.Request.Context(), userID, service.CreateProjectInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Budget:      req.Budget,
		Deadline:    req.Deadline,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, project)
}

// List GET /projects
func (h *ProjectHandler) List(c *gin.Context) {
	limit, offset := common.GetPagination(c)

	projects, err := h.projects.List(c.Request.Context(), c.Query("status"), c.Query("category"), limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"projects": projects, "limit": limit, "offset": offset})
}

// ListMine GET /projects/my
func (h *ProjectHandler) ListMine(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)

	projects, err := h.projects.ListMine(c.Request.Context(), userID, limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"projects": projects, "limit": limit, "offset": offset})
}

// Get GET /projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	projectID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	project, err := h.projects.Get(c.Request.Context(), projectID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, project)
}

// Apply POST /projects/:id/apply
func (h *ProjectHandler) Apply(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
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
		Quote        float64 `json:"quote" binding:"required,gt=0"`
		Message      *string `json:"message"`
		DeliveryDays *int    `json:"delivery_days"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	application, err := h.projects.Apply(c.Request.Context(), userID, projectID, service.ApplyInput{
		Quote:        req.Quote,
		Message:      req.Message,
		DeliveryDays: req.DeliveryDays,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, application)
}

// ListApplications GET /projects/:id/applications
func (h *ProjectHandler) ListApplications(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	projectID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	applications, err := h.projects.ListApplications(c.Request.Context(), userID, projectID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"applications": applications})
}

// Assign POST /projects/:id/assign
func (h *ProjectHandler) Assign(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
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
		ApplicationID string `json:"application_id" binding:"required,uuid"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	applicationID, err := uuid.Parse(req.ApplicationID)
	if err != nil {
		common.RespondBadRequest(c, "неверный application_id")
		return
	}

	project, err := h.projects.Assign(c.Request.Context(), userID, projectID, applicationID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, project)
}

// SubmitDelivery POST /projects/:id/deliver
func (h *ProjectHandler) SubmitDelivery(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
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
		DeliveryLink string  `json:"delivery_link" binding:"required"`
		DeliveryNote *string `json:"delivery_note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	project, transaction, err := h.projects.SubmitDelivery(c.Request.Context(), userID, projectID, req.DeliveryLink, req.DeliveryNote)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"project": project, "transaction": transaction})
}

// Delete DELETE /projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
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
		Reason string `json:"reason"`
	}
	// Тело у DELETE опционально.
	_ = c.ShouldBindJSON(&req)

	project, err := h.projects.SoftDelete(c.Request.Context(), userID, projectID, req.Reason)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, project)
}

// Leave POST /projects/:id/leave
func (h *ProjectHandler) Leave(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	projectID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	project, err := h.projects.Leave(c.Request.Context(), userID, projectID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, project)
}

// ListTransactions GET /projects/:id/transactions
func (h *ProjectHandler) ListTransactions(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	projectID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	transactions, err := h.projects.ListTransactions(c.Request.Context(), userID, projectID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": transactions})
}
