package prompts

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestWatchReloadsOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chat@1.0.0.tmpl")
	if err := os.WriteFile(path, []byte("first"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	reg, err := Default(WithOverrideDir(dir))
	if err != nil {
		t.Fatalf("default: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- reg.Watch(ctx, nil) }()
	defer func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("watch: %v", err)
		}
	}()

	// Give the watcher a moment to register before writing.
	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(path, []byte("second"), 0o600); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		out, _, err := reg.Render(context.Background(), Chat, "", nil)
		if err == nil && out == "second" {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("override change was not picked up")
}

func TestWatchRequiresOverrideDir(t *testing.T) {
	reg, err := Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	if err := reg.Watch(context.Background(), nil); err == nil {
		t.Fatalf("expected error without an override directory")
	}
}

func TestRelevantEvents(t *testing.T) {
	cases := []struct {
		ev   fsnotify.Event
		want bool
	}{
		{fsnotify.Event{Name: "/p/chat@1.0.0.tmpl", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "/p/chat@1.0.0.tmpl", Op: fsnotify.Remove}, true},
		{fsnotify.Event{Name: "/p/chat@1.0.0.tmpl", Op: fsnotify.Chmod}, false},
		{fsnotify.Event{Name: "/p/notes.txt", Op: fsnotify.Write}, false},
	}
	for _, tc := range cases {
		if got := relevant(tc.ev); got != tc.want {
			t.Fatalf("relevant(%v) = %v, want %v", tc.ev, got, tc.want)
		}
	}
}
