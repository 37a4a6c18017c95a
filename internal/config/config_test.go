package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Port:        8766,
		Theme:       "one-half-dark",
		Shell:       "/bin/sh",
		Term:        "xterm-256color",
		Cols:        80,
		Rows:        24,
		EventBuffer: DefaultEventBuffer,
	}
}

func TestValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port zero", func(c *Config) { c.Port = 0 }},
		{"port too high", func(c *Config) { c.Port = 70000 }},
		{"cols too small", func(c *Config) { c.Cols = 1 }},
		{"rows too small", func(c *Config) { c.Rows = 0 }},
		{"event buffer zero", func(c *Config) { c.EventBuffer = 0 }},
		{"empty shell", func(c *Config) { c.Shell = "" }},
		{"unbalanced quote", func(c *Config) { c.Shell = `/bin/sh -c "oops` }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("Validate() = nil, want error")
			}
		})
	}
}

func TestCommand(t *testing.T) {
	cfg := validConfig()
	cfg.Shell = `/bin/sh -c "echo 'hello world'"`

	argv, err := cfg.Command()
	if err != nil {
		t.Fatalf("Command() error = %v", err)
	}
	want := []string{"/bin/sh", "-c", "echo 'hello world'"}
	if !reflect.DeepEqual(argv, want) {
		t.Fatalf("Command() = %v, want %v", argv, want)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `port: 9000
theme: gruvbox-dark
shell: /bin/zsh
event_buffer: 250
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := validConfig()
	cfg.ConfigPath = path
	if err := cfg.loadFromFile(); err != nil {
		t.Fatalf("loadFromFile() error = %v", err)
	}

	if cfg.Port != 9000 || cfg.Theme != "gruvbox-dark" || cfg.Shell != "/bin/zsh" {
		t.Fatalf("loaded config = %+v", cfg)
	}
	if cfg.EventBuffer != 250 {
		t.Fatalf("EventBuffer = %d, want 250", cfg.EventBuffer)
	}
	// Keys absent from the file keep their prior values.
	if cfg.Term != "xterm-256color" || cfg.Cols != 80 {
		t.Fatalf("defaults clobbered: %+v", cfg)
	}
}

func TestLoadFromMissingFile(t *testing.T) {
	cfg := validConfig()
	cfg.ConfigPath = filepath.Join(t.TempDir(), "nope.yaml")

	if err := cfg.loadFromFile(); !os.IsNotExist(err) {
		t.Fatalf("loadFromFile() error = %v, want not-exist", err)
	}
}

func TestSaveToFileRoundTrip(t *testing.T) {
	cfg := validConfig()
	cfg.Token = "secret-token"
	cfg.ConfigPath = filepath.Join(t.TempDir(), "sub", "config.yaml")

	if err := cfg.saveToFile(); err != nil {
		t.Fatalf("saveToFile() error = %v", err)
	}
	info, err := os.Stat(cfg.ConfigPath)
	if err != nil {
		t.Fatalf("stat config: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("config file mode = %o, want 600", perm)
	}

	loaded := &Config{ConfigPath: cfg.ConfigPath}
	if err := loaded.loadFromFile(); err != nil {
		t.Fatalf("loadFromFile() error = %v", err)
	}
	if loaded.Token != "secret-token" || loaded.Port != cfg.Port {
		t.Fatalf("round trip lost values: %+v", loaded)
	}
}

func TestGenerateToken(t *testing.T) {
	a, err := generateToken()
	if err != nil {
		t.Fatalf("generateToken() error = %v", err)
	}
	b, err := generateToken()
	if err != nil {
		t.Fatalf("generateToken() error = %v", err)
	}
	if len(a) != 32 {
		t.Fatalf("token length = %d, want 32 hex chars", len(a))
	}
	if a == b {
		t.Fatal("two generated tokens are identical")
	}
}
