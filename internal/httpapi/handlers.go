package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"cxtrack-voice/internal/auth"
	"cxtrack-voice/internal/prompt"
	"cxtrack-voice/internal/voice"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Auth  *auth.Manager
	Calls *voice.Service
}

// --- Auth ---

type loginRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// Login issues a JWT token pair.
//
// NOTE: Credential validation lives in the hosted identity provider; this
// endpoint only mints service tokens for already-verified identities and is
// expected to sit behind the gateway.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" || req.Role == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id, role required"})
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), req.UserID, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// --- Calls ---

// ListCalls returns the caller's own call history.
// Query params: limit (default 50), since (RFC 3339).
func (h Handlers) ListCalls(c *gin.Context) {
	if h.Calls == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "calls not configured"})
		return
	}
	userID, err := auth.UserID(c.Request.Context())
	if err != nil || userID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user_id required"})
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	var since time.Time
	if v := c.Query("since"); v != "" {
		since, err = time.Parse(time.RFC3339, v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "since must be RFC 3339"})
			return
		}
	}

	rows, err := h.Calls.ListCalls(c.Request.Context(), userID, since, limit)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call listing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"calls": rows})
}

// CallsSummary returns aggregate counts for dashboard cards.
func (h Handlers) CallsSummary(c *gin.Context) {
	if h.Calls == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "calls not configured"})
		return
	}
	userID, err := auth.UserID(c.Request.Context())
	if err != nil || userID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user_id required"})
		return
	}

	var since time.Time
	if v := c.Query("since"); v != "" {
		since, err = time.Parse(time.RFC3339, v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "since must be RFC 3339"})
			return
		}
	}

	out, err := h.Calls.Summary(c.Request.Context(), userID, since)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "summary failed"})
		return
	}
	c.JSON(http.StatusOK, out)
}

// AdminListCalls returns the newest records across all users.
// RBAC: admin only.
func (h Handlers) AdminListCalls(c *gin.Context) {
	if h.Calls == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "calls not configured"})
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	rows, err := h.Calls.ListRecentCalls(c.Request.Context(), limit)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call listing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"calls": rows})
}

// --- Prompts ---

type promptVariable struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Variables arrive as an array, not an object: substitution order follows
// insertion order, and JSON objects do not preserve key order.
type previewPromptRequest struct {
	Template  string           `json:"template"`
	Variables []promptVariable `json:"variables"`
}

// PreviewPrompt renders a prompt template with the supplied variables and
// reports the substitutable names found in it.
func (h Handlers) PreviewPrompt(c *gin.Context) {
	var req previewPromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	vars := prompt.NewVariables()
	for _, v := range req.Variables {
		if v.Name == "" {
			continue
		}
		vars.Set(v.Name, v.Value)
	}

	names := make([]string, 0)
	for name := range prompt.ExtractVariables(req.Template) {
		names = append(names, name)
	}

	c.JSON(http.StatusOK, gin.H{
		"rendered":  prompt.Interpolate(req.Template, vars),
		"variables": names,
	})
}
