package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arnavshah/duty-roster-go/pkg/auth"
	"github.com/arnavshah/duty-roster-go/pkg/database"
)

// Login handles coordinator login
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.Auth.Login(c.Request.Context(), h.Repo, req.Username, req.Password)
	if errors.Is(err, auth.ErrWrongCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		h.abortInternal(c, "could not create token", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

// GenerateKey creates a new API key using the HMAC strategy
func (h *Handler) GenerateKey(c *gin.Context) {
	var req struct {
		Name      string `json:"name"`
		RateLimit int    `json:"rate_limit"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	if req.RateLimit <= 0 {
		req.RateLimit = h.RateLimit
	}

	key := h.Auth.GenerateHMACKey(req.Name)
	apiKey := database.APIKey{
		Key:        key,
		Name:       req.Name,
		KeyPreview: database.Preview(key),
		RateLimit:  req.RateLimit,
	}
	if err := h.Repo.CreateKey(c.Request.Context(), &apiKey); err != nil {
		h.abortInternal(c, "could not create key record", err)
		return
	}
	h.Logger.Info("api key created", zap.String("name", req.Name), zap.String("by", c.GetString(usernameKey)))

	c.JSON(http.StatusOK, gin.H{
		"id":   apiKey.ID,
		"name": req.Name,
		"key":  key,
	})
}

// ListKeys returns all active API keys
func (h *Handler) ListKeys(c *gin.Context) {
	keys, err := h.Repo.ListKeys(c.Request.Context())
	if err != nil {
		h.abortInternal(c, "could not list keys", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"keys": keys})
}

func keyID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid key id"})
		return 0, false
	}
	return uint(id), true
}

// RevokeKey revokes an API key
func (h *Handler) RevokeKey(c *gin.Context) {
	id, ok := keyID(c)
	if !ok {
		return
	}
	if err := h.Repo.DeleteKey(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Key revoked"})
}

// UpdateKeyLimit updates the rate limit for a key
func (h *Handler) UpdateKeyLimit(c *gin.Context) {
	id, ok := keyID(c)
	if !ok {
		return
	}

	var req struct {
		RateLimit int `json:"rate_limit" form:"rate_limit"`
	}
	// JSON body first, then query string
	if err := c.ShouldBindJSON(&req); err != nil {
		if err := c.ShouldBindQuery(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "rate_limit is required"})
			return
		}
	}
	if req.RateLimit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rate limit"})
		return
	}

	if err := h.Repo.UpdateKeyLimit(c.Request.Context(), id, req.RateLimit); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Rate limit updated successfully"})
}

// GetUsage returns usage stats for a key
func (h *Handler) GetUsage(c *gin.Context) {
	id, ok := keyID(c)
	if !ok {
		return
	}
	usage, err := h.Repo.UsageHistory(c.Request.Context(), id, usageDays)
	if err != nil {
		h.abortInternal(c, "could not fetch usage", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"usage": usage})
}
