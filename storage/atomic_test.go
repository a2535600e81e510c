package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAtomicWriterCommit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")

	writer, err := NewAtomicWriter(path)
	if err != nil {
		t.Fatalf("NewAtomicWriter: %v", err)
	}
	if _, err := writer.Write([]byte("hello")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := writer.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("expected 'hello', got %q", string(data))
	}
}

func TestAtomicWriterAbortLeavesTargetUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	if err := os.WriteFile(path, []byte("original"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	writer, err := NewAtomicWriter(path)
	if err != nil {
		t.Fatalf("NewAtomicWriter: %v", err)
	}
	if _, err := writer.Write([]byte("partial")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := writer.Abort(); err != nil {
		t.Fatalf("Abort: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "original" {
		t.Errorf("expected 'original', got %q", string(data))
	}
}

func TestAtomicWriterCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "data.json")

	writer, err := NewAtomicWriter(path)
	if err != nil {
		t.Fatalf("NewAtomicWriter: %v", err)
	}
	if _, err := writer.Write([]byte("x")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := writer.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file created in nested directory: %v", err)
	}
}

func TestAtomicWriterNoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")

	writer, err := NewAtomicWriter(path)
	if err != nil {
		t.Fatalf("NewAtomicWriter: %v", err)
	}
	writer.Write([]byte("x"))
	if err := writer.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, ".ytscript-*.tmp"))
	if err != nil {
		t.Fatalf("Glob: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no temp files after commit, found %v", matches)
	}
}
