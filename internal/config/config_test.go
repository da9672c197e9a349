package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/quizkeep/internal/config"
)

type testConfig struct {
	HTTP struct {
		Port int32
	}

	Store struct {
		Driver string
		Redis  struct {
			Addrs []string
		}
	}

	History struct {
		Cap int
	}

	Log struct {
		Level string
	}
}

func TestLoad(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
http:
  port: 8081
store:
  redis:
    addrs: [localhost:6379]
history:
  cap: 30
`), 0o600))

	t.Setenv("HISTORY_CAP", "20")
	t.Setenv("STORE_DRIVER", "redis")

	var c testConfig
	c.Store.Driver = "sqlite"
	c.History.Cap = 50
	c.Log.Level = "info"

	require.NoError(t, config.Load(file, &c))

	assert.Equal(t, int32(8081), c.HTTP.Port)
	assert.Equal(t, "redis", c.Store.Driver, "environment overrides a key the file omits")
	assert.Equal(t, []string{"localhost:6379"}, c.Store.Redis.Addrs)
	assert.Equal(t, 20, c.History.Cap, "environment overrides the file")
	assert.Equal(t, "info", c.Log.Level, "defaults survive when neither sets a key")
}

func TestLoad_MissingFile(t *testing.T) {
	var c testConfig
	assert.Error(t, config.Load(filepath.Join(t.TempDir(), "missing.yaml"), &c))
}
