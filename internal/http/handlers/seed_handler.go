package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/creatilink/marketplace-backend/internal/service"
)

// SeedHandler наполняет базу демо-данными. Доступен только в development.
type SeedHandler struct {
	seedService *service.SeedService
	tokens      *service.TokenManager
}

// NewSeedHandler создаёт новый seed handler.
func NewSeedHandler(seedService *service.SeedService, tokens *service.TokenManager) *SeedHandler {
	return &SeedHandler{seedService: seedService, tokens: tokens}
}

// SeedAccountInfo представляет демо-аккаунт в ответе.
type SeedAccountInfo struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	AccessToken string `json:"access_token"`
}

// Seed обрабатывает POST /api/seed и GET /api/seed.
func (h *SeedHandler) Seed(c *gin.Context) {
	accounts, err := h.seedService.SeedData(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	infos := make([]SeedAccountInfo, 0, len(accounts))
	for _, account := range accounts {
		token, _, err := h.tokens.Generate(account.User)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		infos = append(infos, SeedAccountInfo{
			Email:       account.User.Email,
			Password:    account.Password,
			Role:        account.User.Role,
			AccessToken: token,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "демо-данные созданы",
		"accounts": infos,
	})
}
