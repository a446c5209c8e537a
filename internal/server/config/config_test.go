package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	old := os.Args
	os.Args = append([]string{"keydir-server"}, args...)
	t.Cleanup(func() { os.Args = old })
}

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	assert.Equal(t, ":8080", cfg.EndpointAddr)
	assert.Equal(t, BackendMemory, cfg.StorageBackend)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenValidityDuration)
	assert.Equal(t, 1*time.Minute, cfg.ChallengeValidityDuration)
	assert.Empty(t, cfg.AdminSigners)
}

func TestLoadConfig_FlagsOverrideDefaults(t *testing.T) {
	withArgs(t,
		"-a", ":9090",
		"-k", BackendBadger,
		"-f", "/tmp/keydir-data",
		"-s", "another-secret",
		"-t", "30",
		"-l", "15",
		"-m", "aa,bb",
	)

	cfg := LoadConfig()

	assert.Equal(t, ":9090", cfg.EndpointAddr)
	assert.Equal(t, BackendBadger, cfg.StorageBackend)
	assert.Equal(t, "/tmp/keydir-data", cfg.BadgerDir)
	assert.Equal(t, "another-secret", cfg.SecretKey)
	assert.Equal(t, 30*time.Minute, cfg.AccessTokenValidityDuration)
	assert.Equal(t, 15*time.Second, cfg.ChallengeValidityDuration)
	assert.Equal(t, []string{"aa", "bb"}, cfg.AdminSigners)
}

func TestLoadConfig_JsonOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	body := `{
		"endpoint_addr": ":7070",
		"storage_backend": "postgres",
		"database_dsn": "postgres://u:p@db:5432/keydir",
		"badger_dir": "unused",
		"secret_key": "json-secret",
		"access_token_validity_duration": "10m",
		"challenge_validity_duration": "45s",
		"admin_signers": ["cc"],
		"s3_root_user": "root",
		"s3_root_password": "pw",
		"s3_bucket": "dumps",
		"s3_region": "eu-west-1",
		"s3_base_endpoint": "http://minio:9000/"
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	withArgs(t, "-c", path)

	cfg := LoadConfig()

	assert.Equal(t, ":7070", cfg.EndpointAddr)
	assert.Equal(t, BackendPostgres, cfg.StorageBackend)
	assert.Equal(t, "postgres://u:p@db:5432/keydir", cfg.DatabaseDSN)
	assert.Equal(t, "json-secret", cfg.SecretKey)
	assert.Equal(t, 10*time.Minute, cfg.AccessTokenValidityDuration)
	assert.Equal(t, 45*time.Second, cfg.ChallengeValidityDuration)
	assert.Equal(t, []string{"cc"}, cfg.AdminSigners)
	assert.Equal(t, "dumps", cfg.S3Bucket)
}

func TestLoadConfig_FlagsBeatJson(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"endpoint_addr": ":7070", "access_token_validity_duration": "10m", "challenge_validity_duration": "45s"}`), 0o600))

	withArgs(t, "-c", path, "-a", ":6060")

	cfg := LoadConfig()
	assert.Equal(t, ":6060", cfg.EndpointAddr)
}
