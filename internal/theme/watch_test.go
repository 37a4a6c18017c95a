package theme

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestWatchReloadsOnSchemeWrite(t *testing.T) {
	dir := t.TempDir()
	writeScheme(t, dir, "test-dark.yaml", testScheme)

	r, err := NewRegistry(dir)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	watchDone := make(chan error, 1)
	go func() { watchDone <- r.Watch(ctx) }()

	// Give the watcher a moment to register before touching the dir.
	time.Sleep(100 * time.Millisecond)

	extra := strings.NewReplacer("test-dark", "extra-dark", "Test Dark", "Extra Dark").Replace(testScheme)
	writeScheme(t, dir, "extra-dark.yaml", extra)

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := r.Palette("extra-dark"); ok {
			cancel()
			select {
			case err := <-watchDone:
				if err != nil {
					t.Fatalf("Watch() error = %v", err)
				}
			case <-time.After(2 * time.Second):
				t.Fatal("Watch did not stop after cancel")
			}
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("new scheme never picked up by watcher")
}

func TestIsSchemeFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/themes/a.yaml", true},
		{"/themes/a.YML", true},
		{"/themes/a.json", false},
		{"/themes/.a.yaml.swp", false},
	}
	for _, tt := range tests {
		if got := isSchemeFile(tt.path); got != tt.want {
			t.Errorf("isSchemeFile(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
