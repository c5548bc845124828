package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalDriverLifecycle(t *testing.T) {
	dir := t.TempDir()
	driver, err := NewLocalDriver(dir, "/files")
	if err != nil {
		t.Fatalf("unexpected error creating driver: %v", err)
	}

	ctx := context.Background()
	result, err := driver.Upload(ctx, []byte("hello"), "abc.png", "image/png")
	if err != nil {
		t.Fatalf("unexpected error uploading: %v", err)
	}
	if result.Path != "abc.png" {
		t.Fatalf("expected path abc.png, got %s", result.Path)
	}
	if result.URL != "/files/abc.png" {
		t.Fatalf("expected url /files/abc.png, got %s", result.URL)
	}

	written, err := os.ReadFile(filepath.Join(dir, "abc.png"))
	if err != nil {
		t.Fatalf("expected file on disk: %v", err)
	}
	if string(written) != "hello" {
		t.Fatalf("unexpected file contents %q", written)
	}

	if !driver.Exists(ctx, "abc.png") {
		t.Fatal("expected Exists to report true")
	}
	if driver.Exists(ctx, "missing.png") {
		t.Fatal("expected Exists to report false for missing file")
	}

	if err := driver.Delete(ctx, "abc.png"); err != nil {
		t.Fatalf("unexpected error deleting: %v", err)
	}
	if driver.Exists(ctx, "abc.png") {
		t.Fatal("expected file to be gone after delete")
	}

	// Deleting again must still succeed.
	if err := driver.Delete(ctx, "abc.png"); err != nil {
		t.Fatalf("expected idempotent delete, got %v", err)
	}
}

func TestLocalDriverRejectsEmptyPayload(t *testing.T) {
	driver, err := NewLocalDriver(t.TempDir(), "/files")
	if err != nil {
		t.Fatalf("unexpected error creating driver: %v", err)
	}
	if _, err := driver.Upload(context.Background(), nil, "x.bin", ""); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

func TestLocalDriverURLResolution(t *testing.T) {
	driver, err := NewLocalDriver(t.TempDir(), "/files/")
	if err != nil {
		t.Fatalf("unexpected error creating driver: %v", err)
	}

	ctx := context.Background()
	url, err := driver.URL(ctx, "pic.jpg", true)
	if err != nil {
		t.Fatalf("unexpected error resolving public url: %v", err)
	}
	if url != "/files/pic.jpg" {
		t.Fatalf("expected /files/pic.jpg, got %s", url)
	}

	if _, err := driver.URL(ctx, "pic.jpg", false); !errors.Is(err, ErrUnsupportedOperation) {
		t.Fatalf("expected ErrUnsupportedOperation for private url, got %v", err)
	}
}

func TestLocalDriverStripsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	driver, err := NewLocalDriver(dir, "/files")
	if err != nil {
		t.Fatalf("unexpected error creating driver: %v", err)
	}

	result, err := driver.Upload(context.Background(), []byte("data"), "../../escape.bin", "")
	if err != nil {
		t.Fatalf("unexpected error uploading: %v", err)
	}
	if result.Path != "escape.bin" {
		t.Fatalf("expected traversal to be stripped, got %s", result.Path)
	}
	if _, err := os.Stat(filepath.Join(dir, "escape.bin")); err != nil {
		t.Fatalf("expected file inside base dir: %v", err)
	}
}
