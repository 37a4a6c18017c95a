package theme

import (
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Special palette slots past the 256 indexed colors.
const (
	IndexForeground = 256
	IndexBackground = 257
	IndexCursor     = 258

	paletteSize = 259
)

// RGB is a single 8-bit-per-channel color.
type RGB struct {
	R, G, B uint8
}

// X11String renders the color in the rgb:rrrr/gggg/bbbb form used by
// OSC color query replies, with each channel scaled to 16 bits.
func (c RGB) X11String() string {
	scale := func(v uint8) uint16 { return uint16(v) * 0x101 }
	return fmt.Sprintf("rgb:%04x/%04x/%04x", scale(c.R), scale(c.G), scale(c.B))
}

// Hex renders the color as #rrggbb.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Palette is a session's resolved color table: 256 indexed colors plus
// foreground, background and cursor slots. Palettes are value types; a
// session receives its own copy at creation and never shares one.
type Palette struct {
	colors [paletteSize]RGB
	set    [paletteSize]bool
}

// Color returns the color at the given index and whether it was set.
func (p Palette) Color(index int) (RGB, bool) {
	if index < 0 || index >= paletteSize {
		return RGB{}, false
	}
	return p.colors[index], p.set[index]
}

// ColorOrDefault returns the color at the given index, or the zero color
// when the index is out of range or unset.
func (p Palette) ColorOrDefault(index int) RGB {
	c, _ := p.Color(index)
	return c
}

// Foreground returns the default foreground color.
func (p Palette) Foreground() RGB { return p.colors[IndexForeground] }

// Background returns the default background color.
func (p Palette) Background() RGB { return p.colors[IndexBackground] }

func (p *Palette) assign(index int, c RGB) {
	p.colors[index] = c
	p.set[index] = true
}

// buildPalette expands a scheme's 16 base colors into a full palette.
// Indices 16-231 form the standard 6x6x6 color cube and 232-255 the
// grayscale ramp, both independent of the scheme.
func buildPalette(s *Scheme) (Palette, error) {
	var p Palette

	for i, hex := range s.Normal {
		c, err := parseHex(hex)
		if err != nil {
			return Palette{}, fmt.Errorf("scheme %q: normal[%d]: %w", s.ID, i, err)
		}
		p.assign(i, c)
	}

	for i := 0; i < 8; i++ {
		if i < len(s.Bright) && s.Bright[i] != "" {
			c, err := parseHex(s.Bright[i])
			if err != nil {
				return Palette{}, fmt.Errorf("scheme %q: bright[%d]: %w", s.ID, i, err)
			}
			p.assign(8+i, c)
			continue
		}
		p.assign(8+i, brighten(p.colors[i]))
	}

	cubeLevels := [6]uint8{0, 95, 135, 175, 215, 255}
	for r := 0; r < 6; r++ {
		for g := 0; g < 6; g++ {
			for b := 0; b < 6; b++ {
				p.assign(16+36*r+6*g+b, RGB{cubeLevels[r], cubeLevels[g], cubeLevels[b]})
			}
		}
	}
	for i := 0; i < 24; i++ {
		v := uint8(8 + 10*i)
		p.assign(232+i, RGB{v, v, v})
	}

	fg, err := parseHex(s.Foreground)
	if err != nil {
		return Palette{}, fmt.Errorf("scheme %q: foreground: %w", s.ID, err)
	}
	bg, err := parseHex(s.Background)
	if err != nil {
		return Palette{}, fmt.Errorf("scheme %q: background: %w", s.ID, err)
	}
	p.assign(IndexForeground, fg)
	p.assign(IndexBackground, bg)

	cursor := fg
	if s.Cursor != "" {
		cursor, err = parseHex(s.Cursor)
		if err != nil {
			return Palette{}, fmt.Errorf("scheme %q: cursor: %w", s.ID, err)
		}
	}
	p.assign(IndexCursor, cursor)

	return p, nil
}

func parseHex(hex string) (RGB, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return RGB{r, g, b}, nil
}

// brighten derives a bright variant for schemes that omit the bright
// block, by blending toward white in Lab space.
func brighten(c RGB) RGB {
	base := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
	white := colorful.Color{R: 1, G: 1, B: 1}
	r, g, b := base.BlendLab(white, 0.25).Clamped().RGB255()
	return RGB{r, g, b}
}
