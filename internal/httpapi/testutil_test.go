package httpapi

import (
	"time"

	"cxtrack-voice/internal/auth"
	"cxtrack-voice/internal/config"
)

func newTestManager() (*auth.Manager, error) {
	return auth.NewManager(config.AuthConfig{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	})
}
