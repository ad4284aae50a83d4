package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, ":50051", c.GRPCAddr)
	assert.True(t, c.RunMigrations)
	assert.Equal(t, "filevault", c.S3Bucket)
	assert.Equal(t, 15*time.Minute, c.S3PresignExpiry)
	assert.Equal(t, "verify", c.DownloadPolicy)
	assert.Equal(t, 20, c.PageDefault)
	assert.Equal(t, 100, c.PageMax)
	assert.Empty(t, c.RedisAddr)
	assert.NoError(t, c.Validate())
}

func TestLoad_DefaultsOnly(t *testing.T) {
	c, err := load(nil)
	require.NoError(t, err)

	var want Config
	want.LoadDefaults()
	assert.Equal(t, &want, c)
}

func TestLoad_Precedence(t *testing.T) {
	path := writeTemp(t, "cfg.yaml", `
http_addr: ":9000"
database_dsn: "postgres://file"
s3_bucket: "from-file"
s3_presign_expiry: "2m"
page_default: 5
page_max: 50
download_policy: public
`)

	t.Setenv("FILEVAULT_S3_BUCKET", "from-env")
	t.Setenv("FILEVAULT_RUN_MIGRATIONS", "false")
	t.Setenv("FILEVAULT_CACHE_TTL", "30s")

	c, err := load([]string{"-c", path, "-b", "from-flag", "-log-level", "debug"})
	require.NoError(t, err)

	assert.Equal(t, ":9000", c.HTTPAddr, "file overrides default")
	assert.Equal(t, "postgres://file", c.DatabaseDSN)
	assert.Equal(t, 2*time.Minute, c.S3PresignExpiry)
	assert.Equal(t, 5, c.PageDefault)
	assert.Equal(t, 50, c.PageMax)
	assert.Equal(t, "public", c.DownloadPolicy)
	assert.False(t, c.RunMigrations, "env overrides default")
	assert.Equal(t, 30*time.Second, c.CacheTTL)
	assert.Equal(t, "from-flag", c.S3Bucket, "flag overrides env and file")
	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, ":50051", c.GRPCAddr, "untouched keys keep defaults")
}

func TestLoad_JSONFile(t *testing.T) {
	path := writeTemp(t, "cfg.json", `{"redis_addr": "localhost:6379", "s3_max_attempts": 7}`)

	c, err := load([]string{"-config", path})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", c.RedisAddr)
	assert.Equal(t, 7, c.S3MaxAttempts)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := load([]string{"-c", filepath.Join(t.TempDir(), "nope.yaml")})
		assert.Error(t, err)
	})

	t.Run("malformed file", func(t *testing.T) {
		path := writeTemp(t, "bad.json", `{ this is not valid json`)
		_, err := load([]string{"-c", path})
		assert.Error(t, err)
	})

	t.Run("bad flag value", func(t *testing.T) {
		_, err := load([]string{"-presign", "soon"})
		assert.Error(t, err)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := load([]string{"-policy", "open", "-b", ""})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "download policy")
		assert.Contains(t, err.Error(), "bucket")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty dsn", func(c *Config) { c.DatabaseDSN = "" }},
		{"non-positive expiry", func(c *Config) { c.S3PresignExpiry = 0 }},
		{"zero page default", func(c *Config) { c.PageDefault = 0 }},
		{"max below default", func(c *Config) { c.PageMax = c.PageDefault - 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			c.LoadDefaults()
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
