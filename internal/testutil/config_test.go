package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultTestDBConfig(t *testing.T) {
	t.Run("defaults to local test database port 55432", func(t *testing.T) {
		for _, k := range []string{"TEST_DB_HOST", "TEST_DB_PORT", "TEST_DB_USER", "TEST_DB_PASSWORD", "TEST_DB_NAME"} {
			t.Setenv(k, "")
		}

		cfg := DefaultTestDBConfig()
		assert.Equal(t, TestDBConfig{
			Host:     "localhost",
			Port:     "55432",
			User:     "plaza",
			Password: "plaza",
			DBName:   "plaza",
		}, cfg)
	})

	t.Run("respects TEST_DB_PORT environment variable", func(t *testing.T) {
		t.Setenv("TEST_DB_HOST", "postgres")
		t.Setenv("TEST_DB_PORT", "5432")

		cfg := DefaultTestDBConfig()
		assert.Equal(t, "postgres", cfg.Host)
		assert.Equal(t, "5432", cfg.Port)
	})
}

func TestBuildBaseDSN(t *testing.T) {
	t.Setenv("DB_SSL_MODE", "")
	dsn := buildBaseDSN(TestDBConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "plaza"})
	assert.Equal(t, "postgres://u:p@db:5432/plaza?sslmode=disable", dsn)
}

func TestSetupMiniredis(t *testing.T) {
	client, mr := SetupMiniredis(t)
	mr.Set("k", "v")
	got, err := client.Get(t.Context(), "k").Result()
	assert.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestBuilders(t *testing.T) {
	p := NewProfile("u1").WithRole("vendor").Approved().Build()
	assert.Equal(t, "vendor", p.Role)
	assert.Equal(t, "u1@example.com", p.Email)
	assert.True(t, p.EffectiveApprovalStatus() == "approved")

	s := NewSession("s1", "u1").Build()
	assert.Equal(t, "u1", s.UserID)
	assert.True(t, s.ExpiresAt.After(s.IssuedAt))
}
