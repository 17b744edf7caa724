package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// UserConfig represents ~/.admin-dashboard/config.yaml.
type UserConfig struct {
	CurrentProfile string             `yaml:"current-profile"`
	Profiles       map[string]Profile `yaml:"profiles"`
}

// Profile is a named set of connection defaults.
type Profile struct {
	Host   string `yaml:"host,omitempty"`
	Token  string `yaml:"token,omitempty"`
	Output string `yaml:"output,omitempty"`

	// Backend auth endpoint used by "auth login".
	BackendURL string `yaml:"backend-url,omitempty"`
	AnonKey    string `yaml:"anon-key,omitempty"`
}

func emptyUserConfig() *UserConfig {
	return &UserConfig{CurrentProfile: "default", Profiles: map[string]Profile{}}
}

// ActiveProfileName returns override when set, else the current profile.
func (c *UserConfig) ActiveProfileName(override string) string {
	if override != "" {
		return override
	}
	if c.CurrentProfile == "" {
		return "default"
	}
	return c.CurrentProfile
}

// ActiveProfile returns the profile selected by override or current-profile.
func (c *UserConfig) ActiveProfile(override string) Profile {
	return c.Profiles[c.ActiveProfileName(override)]
}

// ConfigDir returns the path to ~/.admin-dashboard/.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".admin-dashboard")
}

// ConfigPath returns the path to ~/.admin-dashboard/config.yaml.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// LoadUserConfig reads the config file.
func LoadUserConfig() (*UserConfig, error) {
	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg UserConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Profiles == nil {
		cfg.Profiles = map[string]Profile{}
	}
	return &cfg, nil
}

// loadOrEmptyConfig returns the config file, or an empty config when there
// is none yet.
func loadOrEmptyConfig() *UserConfig {
	cfg, err := LoadUserConfig()
	if err != nil {
		return emptyUserConfig()
	}
	return cfg
}

// SaveUserConfig writes the config file with owner-only permissions.
func SaveUserConfig(cfg *UserConfig) error {
	if err := os.MkdirAll(ConfigDir(), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(ConfigPath(), data, 0o600)
}

// saveToken stores token in the named profile.
func saveToken(profile, token string) error {
	cfg := loadOrEmptyConfig()
	name := cfg.ActiveProfileName(profile)
	if cfg.CurrentProfile == "" {
		cfg.CurrentProfile = name
	}
	p := cfg.Profiles[name]
	p.Token = token
	cfg.Profiles[name] = p
	return SaveUserConfig(cfg)
}
