package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arnavshah/duty-roster-go/pkg/auth"
	"github.com/arnavshah/duty-roster-go/pkg/calendar"
	"github.com/arnavshah/duty-roster-go/pkg/database"
	"github.com/arnavshah/duty-roster-go/pkg/middleware"
	"github.com/arnavshah/duty-roster-go/pkg/models"
	"github.com/arnavshah/duty-roster-go/pkg/roster"
	"github.com/arnavshah/duty-roster-go/pkg/validator"
)

const (
	apiKeyContextKey = "apiKey"
	userIDContextKey = "userID"
	usernameKey      = "username"
)

// Handler contains dependencies for the route handlers
type Handler struct {
	Repo   *database.Repository
	Auth   *auth.Auth
	Logger *zap.Logger

	// Persons is used when a request carries no roster of its own
	Persons     []models.Person
	DefaultYear int
	// RateLimit is the daily request limit given to keys on first use
	RateLimit int

	now func() time.Time
}

// New creates a Handler. A nil logger disables logging.
func New(repo *database.Repository, a *auth.Auth, logger *zap.Logger, persons []models.Person, defaultYear, rateLimit int) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Repo:        repo,
		Auth:        a,
		Logger:      logger,
		Persons:     persons,
		DefaultYear: defaultYear,
		RateLimit:   rateLimit,
		now:         time.Now,
	}
}

// Register mounts every route on r
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/", h.Index)
	r.POST("/admin/login", h.Login)

	admin := r.Group("/admin")
	admin.Use(h.AuthMiddleware())
	{
		admin.POST("/keys", h.GenerateKey)
		admin.GET("/keys", h.ListKeys)
		admin.PUT("/keys/:id", h.UpdateKeyLimit)
		admin.DELETE("/keys/:id", h.RevokeKey)
		admin.GET("/usage/:id", h.GetUsage)
	}

	api := r.Group("/api")
	api.Use(h.APIKeyMiddleware())
	{
		api.POST("/schedule", h.ScheduleJSON)
		api.POST("/schedule/csv", h.ScheduleCSV)
		api.POST("/schedule/xlsx", h.ScheduleXLSX)
		api.POST("/schedule/ics", h.ScheduleICS)
		api.POST("/validate", h.ValidateInput)
		api.POST("/schedules", h.CreateRun)
		api.GET("/schedules/:id", h.GetRun)
		api.GET("/schedules/:id/validate", h.ValidateRun)
		api.GET("/roster", h.Roster)
		api.GET("/usage", h.GetMyUsage)
	}
}

// NewRouter builds a gin engine with request ids, access logs and every route
func (h *Handler) NewRouter() *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(h.Logger), gin.Recovery())
	h.Register(r)
	return r
}

// Index is the service banner
func (h *Handler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Duty Roster API",
		"version": "1.0.0",
	})
}

func bearer(c *gin.Context) string {
	return strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
}

// AuthMiddleware verifies the JWT token for admin routes
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		claims, err := h.Auth.VerifyToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(usernameKey, claims.Username)
		c.Next()
	}
}

// APIKeyMiddleware verifies the HMAC API key and enforces its daily request limit
func (h *Handler) APIKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := bearer(c)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "API Key required"})
			return
		}

		userID, err := h.Auth.VerifyHMACKey(key)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid API Key signature"})
			return
		}

		ctx := c.Request.Context()
		apiKey, err := h.Repo.FindOrCreateKey(ctx, key, userID, h.RateLimit)
		if errors.Is(err, database.ErrKeyRevoked) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "API Key revoked"})
			return
		}
		if err != nil {
			h.abortInternal(c, "could not load api key", err)
			return
		}

		if apiKey.RateLimit > 0 {
			used, err := h.Repo.RequestsOn(ctx, apiKey.ID, h.today())
			if err != nil {
				h.abortInternal(c, "could not read usage", err)
				return
			}
			if used >= apiKey.RateLimit {
				c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Daily rate limit exceeded"})
				return
			}
		}

		c.Set(apiKeyContextKey, apiKey)
		c.Set(userIDContextKey, userID)
		c.Next()
	}
}

func (h *Handler) today() string {
	return models.DateKey(h.now().UTC())
}

// RecordUsage adds the request to the calling key's usage for today
func (h *Handler) RecordUsage(c *gin.Context, shiftCount, personCount int) {
	raw, exists := c.Get(apiKeyContextKey)
	if !exists {
		return
	}
	apiKey := raw.(*database.APIKey)

	if err := h.Repo.RecordUsage(c.Request.Context(), apiKey.ID, h.today(), shiftCount, personCount); err != nil {
		h.Logger.Warn("record usage", zap.Uint("key_id", apiKey.ID), zap.Error(err))
	}
}

// statusFor maps domain errors onto HTTP statuses
func statusFor(err error) int {
	switch {
	case errors.Is(err, database.ErrRunNotFound), errors.Is(err, database.ErrKeyNotFound):
		return http.StatusNotFound
	case errors.Is(err, validator.ErrUnknownPerson), errors.Is(err, validator.ErrMalformedShift):
		return http.StatusUnprocessableEntity
	case errors.Is(err, calendar.ErrInvalidYear),
		errors.Is(err, models.ErrDuplicatePerson),
		errors.Is(err, models.ErrInvalidPerson),
		errors.Is(err, models.ErrUnknownShiftKind),
		errors.Is(err, roster.ErrInvalidRoster):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail replies with the status for err; internal errors are logged and hidden
func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.abortInternal(c, "request failed", err)
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func (h *Handler) abortInternal(c *gin.Context, msg string, err error) {
	_ = c.Error(err)
	h.Logger.Error(msg, zap.String("request_id", c.GetString(middleware.RequestIDKey)), zap.Error(err))
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
