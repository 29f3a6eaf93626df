package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type HTTPHandler struct {
	service Service
}

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	UserID   uint64 `json:"userId"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

func NewHTTPHandler(service Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

func (h *HTTPHandler) RegisterRoutes(r gin.IRouter) {
	grp := r.Group("/api/auth")
	grp.POST("/register", h.handleRegister)
	grp.POST("/login", h.handleLogin)
	grp.POST("/logout", h.handleLogout)
	grp.GET("/me", h.handleMe)
}

func (h *HTTPHandler) handleRegister(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	account, token, err := h.service.Register(req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidUsername), errors.Is(err, ErrInvalidPassword):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, ErrUsernameTaken):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		}
		return
	}
	c.JSON(http.StatusOK, authResponse{UserID: account.ID, Username: account.Username, Token: token})
}

func (h *HTTPHandler) handleLogin(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	account, token, err := h.service.Login(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	c.JSON(http.StatusOK, authResponse{UserID: account.ID, Username: account.Username, Token: token})
}

func (h *HTTPHandler) handleLogout(c *gin.Context) {
	token := bearerToken(c)
	if token != "" {
		h.service.Logout(token)
	}
	c.Status(http.StatusNoContent)
}

func (h *HTTPHandler) handleMe(c *gin.Context) {
	account, ok := h.service.Resolve(bearerToken(c))
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"userId": account.ID, "username": account.Username})
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return c.Query("token")
}
