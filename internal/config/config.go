// Package config resolves runtime configuration from environment variables
// with a fallback to the tea CLI's config file for Gitea credentials.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration.
type Config struct {
	DBPath string

	GiteaURL   string
	GiteaToken string
	Owner      string
	Repo       string

	WoodpeckerURL   string
	WoodpeckerToken string

	ListenAddr string
}

// Load resolves configuration from the environment. Gitea URL and token
// fall back to the tea CLI config (~/.config/tea/config.yml) when unset.
func Load() (*Config, error) {
	cfg := &Config{
		DBPath:          envOr("SPRINT_DASH_DB", DefaultDBPath),
		GiteaURL:        os.Getenv("GITEA_URL"),
		GiteaToken:      os.Getenv("GITEA_TOKEN"),
		Owner:           os.Getenv("GITEA_OWNER"),
		Repo:            os.Getenv("GITEA_REPO"),
		WoodpeckerURL:   os.Getenv("WOODPECKER_URL"),
		WoodpeckerToken: os.Getenv("WOODPECKER_TOKEN"),
		ListenAddr:      envOr("SPRINT_DASH_ADDR", DefaultListenAddr),
	}

	if cfg.GiteaURL == "" || cfg.GiteaToken == "" {
		if login, err := teaLogin(teaConfigPath()); err == nil && login != nil {
			if cfg.GiteaURL == "" {
				cfg.GiteaURL = login.URL
			}
			if cfg.GiteaToken == "" {
				cfg.GiteaToken = login.Token
			}
		}
	}
	return cfg, nil
}

// RequireGitea returns an error unless a Gitea URL and token are resolved.
func (c *Config) RequireGitea() error {
	if c.GiteaURL == "" {
		return errors.New("no Gitea URL configured: set GITEA_URL or configure the tea CLI")
	}
	if c.GiteaToken == "" {
		return errors.New("no Gitea token configured: set GITEA_TOKEN or configure the tea CLI")
	}
	return nil
}

// RequireRepo returns an error unless an owner and repo are resolved.
func (c *Config) RequireRepo() error {
	if c.Owner == "" || c.Repo == "" {
		return errors.New("repository not configured: set GITEA_OWNER and GITEA_REPO")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// TeaLogin is one entry of tea's logins list.
type TeaLogin struct {
	Name    string `yaml:"name"`
	URL     string `yaml:"url"`
	Token   string `yaml:"token"`
	Default bool   `yaml:"default"`
}

type teaConfig struct {
	Logins []TeaLogin `yaml:"logins"`
}

func teaConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, ".config", "tea", "config.yml")
}

// teaLogin reads the tea config at path and returns the default login, or
// the first one when none is marked default.
func teaLogin(path string) (*TeaLogin, error) {
	if path == "" {
		return nil, errors.New("no tea config path")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg teaConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse tea config: %w", err)
	}
	if len(cfg.Logins) == 0 {
		return nil, errors.New("tea config has no logins")
	}
	for i := range cfg.Logins {
		if cfg.Logins[i].Default {
			return &cfg.Logins[i], nil
		}
	}
	return &cfg.Logins[0], nil
}
