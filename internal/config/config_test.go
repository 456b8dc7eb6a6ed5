package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMaterializerConfigDefaults(t *testing.T) {
	t.Setenv("CADENCE_POSTGRES_URL", "postgres://localhost/cadence")

	cfg, err := LoadMaterializerConfig()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, "45 9 * * *", cfg.Schedule)
	assert.Equal(t, 2*time.Minute, cfg.OperationTimeout)
	assert.Equal(t, "cadence-materializer", cfg.ServiceName)
	assert.False(t, cfg.OTelEnabled)
}

func TestLoadMaterializerConfigPostgresRequiresURL(t *testing.T) {
	t.Setenv("CADENCE_STORAGE_DRIVER", "postgres")
	t.Setenv("CADENCE_POSTGRES_URL", "")

	_, err := LoadMaterializerConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CADENCE_POSTGRES_URL")
}

func TestLoadMaterializerConfigSQLite(t *testing.T) {
	t.Setenv("CADENCE_STORAGE_DRIVER", "sqlite")
	t.Setenv("CADENCE_SQLITE_PATH", "/tmp/cadence-test.db")

	cfg, err := LoadMaterializerConfig()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/cadence-test.db", cfg.Storage.DSN())
}

func TestStorageConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     StorageConfig
		wantErr bool
	}{
		{"postgres with url", StorageConfig{Driver: "postgres", PostgresURL: "postgres://x"}, false},
		{"postgres without url", StorageConfig{Driver: "postgres"}, true},
		{"sqlite with path", StorageConfig{Driver: "sqlite", SQLitePath: "x.db"}, false},
		{"sqlite without path", StorageConfig{Driver: "sqlite"}, true},
		{"unknown driver", StorageConfig{Driver: "oracle"}, true},
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
