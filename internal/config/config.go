package config

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	shellquote "github.com/kballard/go-shellquote"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultEventBuffer is the capacity of the shared session event
	// channel. It is a backpressure boundary: when the control loop
	// falls behind, session forwarders block rather than drop events.
	DefaultEventBuffer = 100

	defaultPort  = 8766
	defaultTheme = "one-half-dark"
	defaultTerm  = "xterm-256color"
	defaultCols  = 80
	defaultRows  = 24
)

type Config struct {
	Port        int    `yaml:"port"`
	Token       string `yaml:"token"`
	Theme       string `yaml:"theme"`
	Shell       string `yaml:"shell"`
	Term        string `yaml:"term"`
	Cols        int    `yaml:"cols"`
	Rows        int    `yaml:"rows"`
	EventBuffer int    `yaml:"event_buffer"`
	ThemesDir   string `yaml:"themes_dir"`
	DBPath      string `yaml:"db_path"`

	ConfigPath string `yaml:"-"`
	PrintToken bool   `yaml:"-"`
}

func Load() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	configDir := filepath.Join(homeDir, ".config", "tabterm")

	cfg := &Config{
		Port:        defaultPort,
		Theme:       defaultTheme,
		Shell:       defaultShell(),
		Term:        defaultTerm,
		Cols:        defaultCols,
		Rows:        defaultRows,
		EventBuffer: DefaultEventBuffer,
		ThemesDir:   filepath.Join(configDir, "themes"),
		DBPath:      filepath.Join(homeDir, ".local", "share", "tabterm", "tabterm.db"),
		ConfigPath:  filepath.Join(configDir, "config.yaml"),
	}

	if err := cfg.loadFromFile(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	flag.IntVar(&cfg.Port, "port", cfg.Port, "server port (1-65535)")
	flag.StringVar(&cfg.Theme, "theme", cfg.Theme, "color scheme id for new tabs")
	flag.StringVar(&cfg.Shell, "shell", cfg.Shell, "shell command for new tabs")
	flag.StringVar(&cfg.Token, "token", cfg.Token, "authentication token (auto-generated if empty)")
	flag.BoolVar(&cfg.PrintToken, "print-token", false, "print token to stdout (for local debugging)")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Token == "" {
		token, err := generateToken()
		if err != nil {
			return nil, fmt.Errorf("failed to generate token: %w", err)
		}
		cfg.Token = token
		if err := cfg.saveToFile(); err != nil {
			return nil, fmt.Errorf("failed to save config file: %w", err)
		}
	}

	return cfg, nil
}

// Validate checks bounds on the loaded values.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 1 and 65535", c.Port)
	}
	if c.Cols < 2 || c.Rows < 2 {
		return fmt.Errorf("invalid terminal size %dx%d", c.Cols, c.Rows)
	}
	if c.EventBuffer < 1 {
		return fmt.Errorf("invalid event_buffer %d: must be positive", c.EventBuffer)
	}
	if _, err := c.Command(); err != nil {
		return err
	}
	return nil
}

// Command returns the configured shell split into an argv.
func (c *Config) Command() ([]string, error) {
	argv, err := shellquote.Split(c.Shell)
	if err != nil {
		return nil, fmt.Errorf("invalid shell %q: %w", c.Shell, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("shell command is empty")
	}
	return argv, nil
}

func (c *Config) loadFromFile() error {
	data, err := os.ReadFile(c.ConfigPath)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse %q: %w", c.ConfigPath, err)
	}
	return nil
}

func (c *Config) saveToFile() error {
	dir := filepath.Dir(c.ConfigPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(c.ConfigPath, data, 0o600)
}

func defaultShell() string {
	if shell := os.Getenv("SHELL"); shell != "" {
		return shell
	}
	return "/bin/sh"
}

func generateToken() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
