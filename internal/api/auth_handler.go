package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nekogravitycat/resource-booking-backend/internal/auth"
	"github.com/nekogravitycat/resource-booking-backend/internal/pkg/response"
)

type AuthHandler struct {
	hasher            auth.PasswordHasher
	jwtManager        *auth.JWTManager
	adminPasswordHash string
	log               zerolog.Logger
}

func NewAuthHandler(
	hasher auth.PasswordHasher,
	jwtManager *auth.JWTManager,
	adminPasswordHash string,
	log zerolog.Logger,
) *AuthHandler {
	return &AuthHandler{
		hasher:            hasher,
		jwtManager:        jwtManager,
		adminPasswordHash: adminPasswordHash,
		log:               log,
	}
}

//
// POST /v1/auth/token
//

func (h *AuthHandler) Token(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	if err := h.hasher.Compare(h.adminPasswordHash, req.Password); err != nil {
		h.log.Warn().Str("client_ip", c.ClientIP()).Msg("admin login rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid password"})
		return
	}

	token, err := h.jwtManager.GenerateAccessToken("admin", auth.RoleAdmin)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(h.jwtManager.TTL().Seconds()),
	})
}
