package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnvFile(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("STORE_BACKEND", "")
	cfg, err := Load(noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "http://localhost:8000", cfg.SearchAPIURL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSAllowOrigins)
	assert.Equal(t, StoreFirestore, cfg.StoreBackend)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, 3, cfg.ScraperPoolSize)
	assert.True(t, cfg.ScraperHeadless)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "Mongo")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("SCRAPER_HEADLESS", "false")

	cfg, err := Load(noEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, StoreMongo, cfg.StoreBackend)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.ScraperHeadless)
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("MONGO_DB_NAME=from_file\n"), 0o600))
	t.Setenv("MONGO_DB_NAME", "")
	require.NoError(t, os.Unsetenv("MONGO_DB_NAME"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from_file", cfg.MongoDBName)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT", "soon")
	t.Setenv("SCRAPER_POOL_SIZE", "three")

	_, err := Load(noEnvFile(t))
	require.Error(t, err)
	assert.ErrorContains(t, err, "REQUEST_TIMEOUT")
	assert.ErrorContains(t, err, "SCRAPER_POOL_SIZE")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory + local", Config{StoreBackend: StoreMemory, IdentityProvider: IdentityLocal, JWTSecret: "s"}, false},
		{"local without secret", Config{StoreBackend: StoreMemory, IdentityProvider: IdentityLocal}, true},
		{"firestore without project", Config{StoreBackend: StoreFirestore, IdentityProvider: IdentityLocal, JWTSecret: "s"}, true},
		{"firebase identity", Config{StoreBackend: StoreMongo, IdentityProvider: IdentityFirebase, FirebaseProjectID: "p"}, false},
		{"unknown backend", Config{StoreBackend: "sqlite", IdentityProvider: IdentityLocal, JWTSecret: "s"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
