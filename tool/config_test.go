package tool

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moyoez/sharegate/types"
)

func TestLoadConfigCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "owner", cfg.OwnerID)
	assert.Equal(t, "https", cfg.Protocol)
	assert.NotEmpty(t, cfg.CertPEM)
	assert.FileExists(t, path)

	again, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.CertPEM, again.CertPEM)
}

func TestLoadConfigReadsShares(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`ownerId: alice
protocol: http
port: 8080
shares:
  - token: abc123
    path: /srv/photos
    password: secret
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "alice", cfg.OwnerID)
	assert.Equal(t, 8080, cfg.Port)
	assert.Empty(t, cfg.CertPEM)
	assert.Equal(t, 10, cfg.BcryptCost)
	require.Len(t, cfg.Shares, 1)
	assert.Equal(t, types.ShareSeed{Token: "abc123", Path: "/srv/photos", Password: "secret"}, cfg.Shares[0])
}

func TestLoadConfigRejectsDirectory(t *testing.T) {
	_, err := LoadConfig(t.TempDir())
	assert.Error(t, err)
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg := defaultConfig()
	ApplyFlagOverrides(&cfg, types.Config{UseHttp: true, UsePort: 9000, UseOwner: "bob"})
	assert.Equal(t, "http", cfg.Protocol)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "bob", cfg.OwnerID)
	assert.Equal(t, 3600, cfg.SessionTTL)
}

func TestShareLinkUsesPublicHost(t *testing.T) {
	cfg := &types.AppConfig{Protocol: "https", PublicHost: "share.example.org/", Port: 1}
	assert.Equal(t, "https://share.example.org/api/share/v1/tok/info", ShareLink(cfg, "tok"))
}
