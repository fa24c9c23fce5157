package app

import (
	"testing"
	"time"

	"github.com/logoforge/server/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestMatchOriginPattern(t *testing.T) {
	assert.True(t, matchOriginPattern("app.example.com", "app.example.com"))
	assert.True(t, matchOriginPattern("*.example.com", "cdn.example.com"))
	assert.False(t, matchOriginPattern("*.example.com", "example.org"))
	assert.True(t, matchOriginPattern("localhost:*", "localhost:5173"))
	assert.False(t, matchOriginPattern("localhost:*", "evil.test:5173"))
}

func TestCORSConfigRestrictsProductionOrigins(t *testing.T) {
	cfg := &config.AppConfig{Env: "production", AllowedOrigins: []string{"*.logoforge.app"}}
	c := corsConfig(cfg)
	assert.True(t, c.AllowOriginFunc("https://studio.logoforge.app"))
	assert.False(t, c.AllowOriginFunc("https://attacker.test"))

	withScheme := corsConfig(&config.AppConfig{Env: "production", AllowedOrigins: []string{"https://logoforge.app"}})
	assert.True(t, withScheme.AllowOriginFunc("https://logoforge.app"))
	assert.False(t, withScheme.AllowOriginFunc("https://studio.logoforge.app"))

	dev := corsConfig(&config.AppConfig{Env: "development", AllowedOrigins: []string{"*.logoforge.app"}})
	assert.True(t, dev.AllowOriginFunc("http://anything.test"))
}

func TestParseTimezoneLocation(t *testing.T) {
	loc, err := parseTimezoneLocation("+02:00")
	assert.NoError(t, err)
	_, offset := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).In(loc).Zone()
	assert.Equal(t, 7200, offset)

	loc, err = parseTimezoneLocation("-05:30")
	assert.NoError(t, err)
	_, offset = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).In(loc).Zone()
	assert.Equal(t, -(5*3600 + 30*60), offset)

	_, err = parseTimezoneLocation("Mars/Olympus")
	assert.Error(t, err)
}
