package theme

import "testing"

func basicScheme() *Scheme {
	return &Scheme{
		ID:         "basic",
		Name:       "Basic",
		Foreground: "#ffffff",
		Background: "#000000",
		Normal: []string{
			"#000000", "#aa0000", "#00aa00", "#aa5500",
			"#0000aa", "#aa00aa", "#00aaaa", "#aaaaaa",
		},
	}
}

func TestRGBX11String(t *testing.T) {
	tests := []struct {
		c    RGB
		want string
	}{
		{RGB{}, "rgb:0000/0000/0000"},
		{RGB{R: 0xff, G: 0xff, B: 0xff}, "rgb:ffff/ffff/ffff"},
		{RGB{R: 0x12, G: 0x34, B: 0x56}, "rgb:1212/3434/5656"},
	}
	for _, tt := range tests {
		if got := tt.c.X11String(); got != tt.want {
			t.Errorf("X11String(%+v) = %q, want %q", tt.c, got, tt.want)
		}
	}
}

func TestBuildPaletteColorCube(t *testing.T) {
	p, err := buildPalette(basicScheme())
	if err != nil {
		t.Fatalf("buildPalette() error = %v", err)
	}

	tests := []struct {
		index int
		want  RGB
	}{
		{16, RGB{0, 0, 0}},
		{21, RGB{0, 0, 255}},
		{46, RGB{0, 255, 0}},
		{196, RGB{255, 0, 0}},
		{231, RGB{255, 255, 255}},
		{110, RGB{135, 175, 215}},
	}
	for _, tt := range tests {
		if got := p.ColorOrDefault(tt.index); got != tt.want {
			t.Errorf("cube color %d = %+v, want %+v", tt.index, got, tt.want)
		}
	}
}

func TestBuildPaletteGrayscaleRamp(t *testing.T) {
	p, err := buildPalette(basicScheme())
	if err != nil {
		t.Fatalf("buildPalette() error = %v", err)
	}

	if got := p.ColorOrDefault(232); got != (RGB{8, 8, 8}) {
		t.Fatalf("gray 232 = %+v, want {8 8 8}", got)
	}
	if got := p.ColorOrDefault(255); got != (RGB{238, 238, 238}) {
		t.Fatalf("gray 255 = %+v, want {238 238 238}", got)
	}
}

func TestBuildPaletteDerivesBright(t *testing.T) {
	p, err := buildPalette(basicScheme())
	if err != nil {
		t.Fatalf("buildPalette() error = %v", err)
	}

	for i := 0; i < 8; i++ {
		bright, ok := p.Color(8 + i)
		if !ok {
			t.Fatalf("derived bright %d unset", i)
		}
		normal := p.ColorOrDefault(i)
		if bright == normal {
			t.Errorf("bright %d = %+v equals normal color", i, bright)
		}
	}
}

func TestBuildPaletteCursorDefaultsToForeground(t *testing.T) {
	s := basicScheme()
	p, err := buildPalette(s)
	if err != nil {
		t.Fatalf("buildPalette() error = %v", err)
	}
	if got := p.ColorOrDefault(IndexCursor); got != p.Foreground() {
		t.Fatalf("cursor = %+v, want foreground %+v", got, p.Foreground())
	}

	s.Cursor = "#ff0000"
	p, err = buildPalette(s)
	if err != nil {
		t.Fatalf("buildPalette() error = %v", err)
	}
	if got := p.ColorOrDefault(IndexCursor); got != (RGB{R: 0xff}) {
		t.Fatalf("cursor = %+v, want {255 0 0}", got)
	}
}

func TestBuildPaletteRejectsBadColor(t *testing.T) {
	s := basicScheme()
	s.Normal[3] = "not-a-color"
	if _, err := buildPalette(s); err == nil {
		t.Fatal("buildPalette() with invalid color returned nil error")
	}
}

func TestPaletteColorOutOfRange(t *testing.T) {
	p, err := buildPalette(basicScheme())
	if err != nil {
		t.Fatalf("buildPalette() error = %v", err)
	}

	if _, ok := p.Color(-1); ok {
		t.Fatal("Color(-1) reported set")
	}
	if _, ok := p.Color(paletteSize); ok {
		t.Fatal("Color(paletteSize) reported set")
	}
	if got := p.ColorOrDefault(1000); got != (RGB{}) {
		t.Fatalf("ColorOrDefault(1000) = %+v, want zero color", got)
	}
}
