package theme

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/user/tabterm/themes"
)

// Registry loads color schemes from a directory of YAML files and hands
// out resolved palettes. Shipped presets are written into the directory
// on first use so they can be edited like any user scheme.
type Registry struct {
	dir      string
	mu       sync.RWMutex
	schemes  map[string]*Scheme
	palettes map[string]Palette
}

func NewRegistry(dir string) (*Registry, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("themes dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create themes dir: %w", err)
	}
	if err := ensurePresets(dir); err != nil {
		return nil, err
	}

	r := &Registry{
		dir:      dir,
		schemes:  make(map[string]*Scheme),
		palettes: make(map[string]Palette),
	}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Dir returns the directory the registry loads schemes from.
func (r *Registry) Dir() string { return r.dir }

// Palette returns a copy of the resolved palette for the given scheme id.
// The second return value is false when the scheme does not exist.
func (r *Registry) Palette(id string) (Palette, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.palettes[id]
	return p, ok
}

// Scheme returns a copy of the named scheme, or nil if absent.
func (r *Registry) Scheme(id string) *Scheme {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return cloneScheme(r.schemes[id])
}

// List returns all scheme ids sorted by display name.
func (r *Registry) List() []*Scheme {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Scheme, 0, len(r.schemes))
	for _, s := range r.schemes {
		result = append(result, cloneScheme(s))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name == result[j].Name {
			return result[i].ID < result[j].ID
		}
		return result[i].Name < result[j].Name
	})
	return result
}

// Reload re-reads every scheme file in the directory. On any parse or
// validation error the previous state is kept.
func (r *Registry) Reload() error {
	schemes, palettes, err := loadDir(r.dir)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.schemes = schemes
	r.palettes = palettes
	r.mu.Unlock()
	return nil
}

func loadDir(dir string) (map[string]*Scheme, map[string]Palette, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("read themes dir: %w", err)
	}

	schemes := make(map[string]*Scheme)
	palettes := make(map[string]Palette)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.ToLower(entry.Name())
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		scheme, err := loadFile(path)
		if err != nil {
			return nil, nil, err
		}
		if _, exists := schemes[scheme.ID]; exists {
			return nil, nil, fmt.Errorf("duplicate scheme id %q", scheme.ID)
		}
		palette, err := buildPalette(scheme)
		if err != nil {
			return nil, nil, err
		}
		schemes[scheme.ID] = scheme
		palettes[scheme.ID] = palette
	}
	return schemes, palettes, nil
}

func loadFile(path string) (*Scheme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scheme %q: %w", path, err)
	}
	var s Scheme
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scheme %q: %w", path, err)
	}
	if err := validateScheme(&s); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &s, nil
}

func ensurePresets(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read themes dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.ToLower(entry.Name())
		if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			return nil
		}
	}

	presets, err := themes.Presets.ReadDir("presets")
	if err != nil {
		return fmt.Errorf("read embedded presets: %w", err)
	}
	for _, preset := range presets {
		content, err := themes.Presets.ReadFile(filepath.Join("presets", preset.Name()))
		if err != nil {
			return fmt.Errorf("read embedded preset %q: %w", preset.Name(), err)
		}
		path := filepath.Join(dir, preset.Name())
		if err := os.WriteFile(path, content, 0o644); err != nil {
			return fmt.Errorf("write preset %q: %w", path, err)
		}
	}
	return nil
}
