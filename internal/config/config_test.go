package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testPasetoKey    = "0123456789abcdef0123456789abcdef"
	testCookieSecret = "cookie-secret-cookie-secret-cookie"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("PASETO_KEY", testPasetoKey)
	t.Setenv("COOKIE_SECRET", testCookieSecret)
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.True(t, cfg.Server.IsDevelopment())
	assert.False(t, cfg.Server.IsProduction())
	assert.Equal(t, TokenFormatPaseto, cfg.Auth.TokenFormat)
	assert.Equal(t, []byte(testPasetoKey), cfg.Auth.PasetoKey)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL)
	assert.False(t, cfg.Server.TrustProxyHeaders)
	assert.Equal(t, "token", cfg.Auth.CookieName)
	assert.True(t, cfg.Auth.ExposeVerificationToken)
	assert.False(t, cfg.Auth.ConcealUnknownAccounts)
	assert.Equal(t, "http://localhost:3000", cfg.Email.FrontendURL)
	assert.Equal(t, 5*time.Second, cfg.Email.DispatchTimeout)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
}

func TestLoad_HexPasetoKey(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PASETO_KEY", strings.Repeat("ab", 32))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Len(t, cfg.Auth.PasetoKey, 32)
	assert.Equal(t, byte(0xab), cfg.Auth.PasetoKey[0])
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "short paseto key",
			env:     map[string]string{"PASETO_KEY": "short"},
			wantErr: "PASETO_KEY must be exactly 32 bytes",
		},
		{
			name:    "short cookie secret",
			env:     map[string]string{"COOKIE_SECRET": "tiny"},
			wantErr: "COOKIE_SECRET must be at least 32 bytes",
		},
		{
			name:    "jwt without secret",
			env:     map[string]string{"AUTH_TOKEN_FORMAT": "jwt"},
			wantErr: "JWT_SECRET must be at least 32 bytes",
		},
		{
			name:    "unknown token format",
			env:     map[string]string{"AUTH_TOKEN_FORMAT": "opaque"},
			wantErr: "unsupported AUTH_TOKEN_FORMAT",
		},
		{
			name:    "unknown driver",
			env:     map[string]string{"DB_DRIVER": "oracle"},
			wantErr: "unsupported DB_DRIVER",
		},
		{
			name:    "sub-second session ttl",
			env:     map[string]string{"SESSION_TTL": "500ms"},
			wantErr: "SESSION_TTL must be at least 1s",
		},
		{
			name:    "zero session ttl",
			env:     map[string]string{"SESSION_TTL": "0"},
			wantErr: "SESSION_TTL must be at least 1s",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetDurationEnv(t *testing.T) {
	t.Setenv("TEST_DURATION_SECONDS", "90")
	t.Setenv("TEST_DURATION_GO", "15m")
	t.Setenv("TEST_DURATION_BAD", "soon")

	assert.Equal(t, 90*time.Second, getDurationEnv("TEST_DURATION_SECONDS", time.Second))
	assert.Equal(t, 15*time.Minute, getDurationEnv("TEST_DURATION_GO", time.Second))
	assert.Equal(t, time.Second, getDurationEnv("TEST_DURATION_BAD", time.Second))
	assert.Equal(t, time.Minute, getDurationEnv("TEST_DURATION_UNSET", time.Minute))
}

func TestGetSliceEnv(t *testing.T) {
	t.Setenv("TEST_ORIGINS", " http://a.test , ,http://b.test")

	assert.Equal(t, []string{"http://a.test", "http://b.test"}, getSliceEnv("TEST_ORIGINS", nil))
	assert.Equal(t, []string{"x"}, getSliceEnv("TEST_ORIGINS_UNSET", []string{"x"}))
}

func TestConnectionString(t *testing.T) {
	pg := DatabaseConfig{Driver: DriverPostgres, Host: "db", Port: "5432", User: "u", Password: "p", DBName: "n", SSLMode: "disable", ChannelBinding: "require"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable channel_binding=require", pg.ConnectionString())

	lite := DatabaseConfig{Driver: DriverSQLite, SQLitePath: "file::memory:"}
	assert.Equal(t, "file::memory:", lite.ConnectionString())
}
