package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tgmetrics/channel-metrics-service/internal/model"
	"github.com/tgmetrics/channel-metrics-service/internal/telegram"
)

// Authenticator is the slice of the Telegram client the auth endpoints
// need. The endpoints only drive the external login flow; no credential
// state lives in this service.
type Authenticator interface {
	SendCode(ctx context.Context, phone string) (string, error)
	SignIn(ctx context.Context, phone, code, codeHash string) (*telegram.UserInfo, error)
	Reset(ctx context.Context) error
	Status(ctx context.Context) (*telegram.AuthStatus, error)
}

type AuthHandler struct {
	Auth Authenticator
}

func NewAuthHandler(auth Authenticator) *AuthHandler {
	return &AuthHandler{Auth: auth}
}

func (h *AuthHandler) Start(c *gin.Context) {
	var req model.AuthStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	hash, err := h.Auth.SendCode(c.Request.Context(), req.PhoneNumber)
	if err != nil {
		c.JSON(http.StatusBadGateway, model.AuthStartResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, model.AuthStartResponse{
		Success:       true,
		Message:       "verification code sent",
		PhoneCodeHash: hash,
	})
}

func (h *AuthHandler) Verify(c *gin.Context) {
	var req model.AuthVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := h.Auth.SignIn(c.Request.Context(), req.PhoneNumber, req.Code, req.PhoneCodeHash)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, telegram.ErrPasswordNeeded) {
			status = http.StatusBadRequest
		}
		c.JSON(status, model.AuthVerifyResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}
	resp := model.AuthVerifyResponse{Success: true, Message: "signed in"}
	if user != nil {
		resp.UserInfo = map[string]any{
			"id":         user.ID,
			"username":   user.Username,
			"first_name": user.FirstName,
			"last_name":  user.LastName,
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) Reset(c *gin.Context) {
	if err := h.Auth.Reset(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "session reset"})
}

func (h *AuthHandler) Status(c *gin.Context) {
	status, err := h.Auth.Status(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	resp := model.AuthStatusResponse{Authorized: status.Authorized}
	if status.User != nil {
		resp.UserInfo = map[string]any{
			"id":         status.User.ID,
			"username":   status.User.Username,
			"first_name": status.User.FirstName,
			"last_name":  status.User.LastName,
		}
	}
	c.JSON(http.StatusOK, resp)
}
