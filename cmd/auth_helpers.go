package cmd

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"goattend/config"
	"goattend/personio"
)

// resolveAuthStatePath prefers the flag, then auth.state_file, then the default location.
func resolveAuthStatePath(explicitPath, configuredPath string) (string, error) {
	if strings.TrimSpace(explicitPath) != "" {
		return strings.TrimSpace(explicitPath), nil
	}
	if strings.TrimSpace(configuredPath) != "" {
		return strings.TrimSpace(configuredPath), nil
	}
	return personio.DefaultAuthStatePath()
}

func resolveProfileDir(explicitDir string) (string, bool, error) {
	if strings.TrimSpace(explicitDir) != "" {
		return explicitDir, false, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", false, fmt.Errorf("resolve home directory: %w", err)
	}
	base := filepath.Join(home, ".goattend")
	if err := os.MkdirAll(base, 0o700); err != nil {
		return "", false, fmt.Errorf("create directory %q: %w", base, err)
	}
	profileDir, err := os.MkdirTemp(base, "chrome-profile-*")
	if err != nil {
		return "", false, fmt.Errorf("create temporary profile dir: %w", err)
	}
	return profileDir, true, nil
}

// resolveInstanceURL turns the --instance flag or personio.instance into the tenant base URL.
func resolveInstanceURL(instanceOverride, configuredInstance string) (*url.URL, error) {
	instance := strings.TrimSpace(instanceOverride)
	if instance == "" {
		instance = strings.TrimSpace(configuredInstance)
	}
	if instance == "" {
		return nil, errors.New("no Personio instance configured; set `personio.instance` in config or pass --instance")
	}

	rawURL := instance
	if !strings.Contains(rawURL, "://") {
		rawURL = personio.BaseURLForInstance(instance)
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse instance: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid instance %q", instance)
	}
	return &url.URL{Scheme: parsed.Scheme, Host: parsed.Host}, nil
}

// loadConfigIfPresent returns an empty config when no file was loaded so
// commands that accept explicit flags still work without one.
func loadConfigIfPresent() (*config.Config, error) {
	cfg, err := config.LoadAndValidate()
	if err == nil {
		return cfg, nil
	}
	if strings.TrimSpace(viper.ConfigFileUsed()) == "" {
		return &config.Config{}, nil
	}
	return nil, fmt.Errorf("load config: %w", err)
}
