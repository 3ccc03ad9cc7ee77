package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api", cfg.APIPrefix)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "tg_session", cfg.Session.CookieName)
	assert.Equal(t, 5*time.Minute, cfg.Dashboard.CacheTTL)
	assert.Equal(t, "School Name", cfg.PDF.DefaultInstitution)
	assert.False(t, cfg.Redis.Enabled)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("SESSION_TTL", "not-a-duration")
	v.Set("DASHBOARD_CACHE_TTL", "30s")
	v.Set("ALLOWED_ORIGINS", "http://a.test, ,http://b.test ")

	cfg := fromViper(v)

	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 30*time.Second, cfg.Dashboard.CacheTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
}
