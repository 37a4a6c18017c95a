package themes

import "embed"

// Presets contains shipped default color scheme YAML files.
//
//go:embed presets/*.yaml
var Presets embed.FS
