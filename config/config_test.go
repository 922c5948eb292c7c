package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("PAYMENT_TIMEOUT", "")
	t.Setenv("ALLOW_MOCK_PAYMENTS", "")

	LoadConfig()

	assert.Equal(t, "development", AppConfig.Env)
	assert.Equal(t, "INR", AppConfig.PaymentCurrency)
	assert.Equal(t, 10*time.Second, AppConfig.PaymentTimeout)
	assert.False(t, AppConfig.MockPaymentsEnabled())
}

func TestLoadConfig_MockPaymentsNeverInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("ALLOW_MOCK_PAYMENTS", "true")

	LoadConfig()

	assert.True(t, AppConfig.IsProduction())
	assert.False(t, AppConfig.AllowMockPayments)
	assert.False(t, AppConfig.MockPaymentsEnabled())
}

func TestLoadConfig_MockPaymentsInDevelopment(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("ALLOW_MOCK_PAYMENTS", "1")

	LoadConfig()

	assert.True(t, AppConfig.MockPaymentsEnabled())
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("X_TIMEOUT", "2500ms")
	assert.Equal(t, 2500*time.Millisecond, getEnvDuration("X_TIMEOUT", time.Second))

	t.Setenv("X_TIMEOUT", "7")
	assert.Equal(t, 7*time.Second, getEnvDuration("X_TIMEOUT", time.Second))

	t.Setenv("X_TIMEOUT", "soon")
	assert.Equal(t, time.Second, getEnvDuration("X_TIMEOUT", time.Second))
}
