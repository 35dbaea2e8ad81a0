package handlers

import (
	"net/http"
	"time"

	"github.com/pluzgi/chatbot-study-sub001/internal/config"
	"github.com/pluzgi/chatbot-study-sub001/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const adminTokenTTL = 12 * time.Hour

type AdminHandler struct {
	log *zap.Logger
}

func NewAdminHandler(log *zap.Logger) *AdminHandler {
	return &AdminHandler{log: log}
}

type adminLoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// Login verifies the configured admin password and issues a short-lived
// token for the operational endpoints. With no password hash configured the
// admin surface stays closed.
func (h *AdminHandler) Login(c *gin.Context) {
	adminConf := config.Conf.Admin
	if adminConf.PasswordHash == "" || adminConf.JWTSecret == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin access disabled"})
		return
	}

	var req adminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(adminConf.PasswordHash), []byte(req.Password)); err != nil {
		h.log.Warn("Rejected admin login attempt", zap.String("client_ip", c.ClientIP()))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid password"})
		return
	}

	claims := jwt.MapClaims{
		"sub": "admin",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(adminTokenTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(adminConf.JWTSecret))
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// ListClicks returns all click counters.
func (h *AdminHandler) ListClicks(c *gin.Context) {
	counters, err := repository.GetClickCounters(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"counters": counters})
}

// DeleteParticipants is the bulk-delete escape hatch. scope=test removes the
// synthetic pilot cohort, scope=range removes a creation-date window
// (from/to as RFC 3339), scope=all wipes everything.
func (h *AdminHandler) DeleteParticipants(c *gin.Context) {
	var (
		deleted int64
		err     error
	)

	scope := c.Query("scope")
	switch scope {
	case "test":
		deleted, err = repository.DeleteAICohort(c.Request.Context())
	case "range":
		from, fromErr := time.Parse(time.RFC3339, c.Query("from"))
		to, toErr := time.Parse(time.RFC3339, c.Query("to"))
		if fromErr != nil || toErr != nil || !to.After(from) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from/to must be RFC 3339 timestamps with from < to"})
			return
		}
		deleted, err = repository.DeleteByDateRange(c.Request.Context(), from, to)
	case "all":
		deleted, err = repository.DeleteAllParticipants(c.Request.Context())
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "scope must be test, range, or all"})
		return
	}

	if err != nil {
		writeError(c, h.log, err)
		return
	}

	h.log.Info("Bulk-deleted participants",
		zap.String("scope", scope),
		zap.Int64("deleted", deleted),
	)
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}
