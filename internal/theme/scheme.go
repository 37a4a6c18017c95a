package theme

import (
	"errors"
	"regexp"
	"strings"
)

var schemeIDPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Scheme is a named color scheme as stored on disk: 8 normal colors,
// optional bright variants, and foreground/background/cursor colors.
type Scheme struct {
	ID         string   `yaml:"id"`
	Name       string   `yaml:"name"`
	Foreground string   `yaml:"foreground"`
	Background string   `yaml:"background"`
	Cursor     string   `yaml:"cursor,omitempty"`
	Normal     []string `yaml:"normal"`
	Bright     []string `yaml:"bright,omitempty"`
}

func validateScheme(s *Scheme) error {
	if s == nil {
		return errors.New("scheme is required")
	}
	if err := validateID(s.ID); err != nil {
		return err
	}
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("name is required")
	}
	if strings.TrimSpace(s.Foreground) == "" {
		return errors.New("foreground is required")
	}
	if strings.TrimSpace(s.Background) == "" {
		return errors.New("background is required")
	}
	if len(s.Normal) != 8 {
		return errors.New("normal must list exactly 8 colors")
	}
	if len(s.Bright) != 0 && len(s.Bright) != 8 {
		return errors.New("bright must list exactly 8 colors when present")
	}
	return nil
}

func validateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("id is required")
	}
	if !schemeIDPattern.MatchString(id) {
		return errors.New("id must be lowercase alphanumeric with hyphens")
	}
	return nil
}

func cloneScheme(s *Scheme) *Scheme {
	if s == nil {
		return nil
	}
	out := *s
	out.Normal = append([]string(nil), s.Normal...)
	out.Bright = append([]string(nil), s.Bright...)
	return &out
}
