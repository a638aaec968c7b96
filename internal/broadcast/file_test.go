package broadcast

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestOpenWaitsForFileToExist(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feed.log")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	done := make(chan error, 1)
	var bf *BroadcastFile
	go func() {
		var err error
		bf, err = Open(ctx, path)
		done <- err
	}()

	// Give Open a chance to observe the file missing at least once
	// before it appears.
	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Open did not return after file was created")
	}
	defer bf.Close()

	if bf.Length().Load() != 5 {
		t.Fatalf("Length = %d, want 5", bf.Length().Load())
	}
}

func TestOpenRejectsDirectory(t *testing.T) {
	dir := t.TempDir()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, err := Open(ctx, dir); err == nil {
		t.Fatal("expected error opening a directory as a broadcast file")
	}
}

func TestOpenRespectsContextCancellation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "never-appears.log")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := Open(ctx, path); err == nil {
		t.Fatal("expected error when context is canceled before file appears")
	}
}
