package tool

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/moyoez/sharegate/types"
)

var (
	ConfigPath    = "config.yaml" // be aware that it can be changed, default to ./config.yaml
	CurrentConfig types.AppConfig
)

func defaultConfig() types.AppConfig {
	return types.AppConfig{
		OwnerID:         "owner",
		Port:            53318,
		Protocol:        "https", // links carry passwords, keep TLS unless you are on a trusted network.
		PublicHost:      "",      // empty: first non-loopback address
		BcryptCost:      10,
		ShareTTLSeconds: 7 * 24 * 3600,
		SessionTTL:      3600,
		CookieSecure:    false,
		RateLimitPerMin: 30,
		Shares:          []types.ShareSeed{},
	}
}

// LoadConfig reads path (or ConfigPath) and fills missing values with defaults.
// A missing file is created with the defaults and a fresh TLS certificate.
func LoadConfig(path string) (types.AppConfig, error) {
	if path == "" {
		path = ConfigPath
	}
	ConfigPath = path

	cfg := defaultConfig()

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			if _, _, certErr := GetOrCreateTLSCertFromConfig(&cfg); certErr != nil {
				DefaultLogger.Warnf("Failed to generate TLS certificate: %v", certErr)
			}
			if writeErr := writeConfig(path, cfg); writeErr != nil {
				return cfg, fmt.Errorf("config file not found, and failed to generate default config: %w", writeErr)
			}
			DefaultLogger.Infof("Created new config file at %s", path)
			CurrentConfig = cfg
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if info.IsDir() {
		return cfg, fmt.Errorf("config file path is a directory: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Protocol == "https" {
		oldCert := cfg.CertPEM
		if _, _, err := GetOrCreateTLSCertFromConfig(&cfg); err != nil {
			return cfg, fmt.Errorf("failed to prepare TLS certificate: %w", err)
		}
		if oldCert != cfg.CertPEM {
			if writeErr := writeConfig(path, cfg); writeErr != nil {
				DefaultLogger.Warnf("Failed to update config file: %v", writeErr)
			}
		}
	}

	CurrentConfig = cfg
	return cfg, nil
}

// ApplyFlagOverrides copies non-zero CLI overrides onto cfg.
func ApplyFlagOverrides(cfg *types.AppConfig, flags types.Config) {
	if flags.UsePort > 0 {
		cfg.Port = flags.UsePort
	}
	if flags.UseHttp {
		cfg.Protocol = "http"
	}
	if flags.UseOwner != "" {
		cfg.OwnerID = flags.UseOwner
	}
	if flags.UsePublicHost != "" {
		cfg.PublicHost = flags.UsePublicHost
	}
	if flags.UseBcryptCost > 0 {
		cfg.BcryptCost = flags.UseBcryptCost
	}
	if flags.UseSessionTTL > 0 {
		cfg.SessionTTL = flags.UseSessionTTL
	}
	if flags.UseRateLimit > 0 {
		cfg.RateLimitPerMin = flags.UseRateLimit
	}
	CurrentConfig = *cfg
}

func writeConfig(path string, cfg types.AppConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func GetCurrentConfig() *types.AppConfig {
	return &CurrentConfig
}
