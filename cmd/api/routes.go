package main

import (
	"cxtrack-voice/internal/auth"
	"cxtrack-voice/internal/httpapi"
	"cxtrack-voice/internal/rbac"
	"cxtrack-voice/internal/voice"

	"github.com/gin-gonic/gin"
)

type routeDeps struct {
	Auth     *auth.Manager
	Ingestor *voice.Service
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, d routeDeps) {
	// Non-POST hits on the webhook path must produce the documented body.
	r.HandleMethodNotAllowed = true
	r.NoMethod(voice.MethodNotAllowed)

	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Provider webhook (public).
	// NOTE: No signature verification of the voice provider; trust is
	// implicit in network configuration. Known hardening gap.
	{
		h := voice.WebhookHandler{Ingestor: d.Ingestor}
		r.POST("/webhooks/voice/call-events", h.HandleCallEvent)
	}

	h := httpapi.Handlers{
		Auth:  d.Auth,
		Calls: d.Ingestor,
	}

	// AUTH routes (token issuance).
	r.POST("/v1/auth/login", h.Login)

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(auth.RequireAccessToken(d.Auth))
	v1.Use(rbac.RequireUser())
	{
		calls := v1.Group("/calls")
		calls.Use(rbac.RequireAnyRole(rbac.RoleMember))
		{
			calls.GET("", h.ListCalls)
			calls.GET("/summary", h.CallsSummary)
		}

		prompts := v1.Group("/prompts")
		prompts.Use(rbac.RequireAnyRole(rbac.RoleMember))
		{
			prompts.POST("/preview", h.PreviewPrompt)
		}

		admin := v1.Group("/admin")
		admin.Use(rbac.RequireAnyRole(rbac.RoleAdmin))
		{
			admin.GET("/calls", h.AdminListCalls)
		}
	}
}
