package fileutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// sha256("hello world")
const helloDigest = "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"

func TestHashFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "src.txt")
	if err := os.WriteFile(path, []byte("hello world"), 0o644); err != nil {
		t.Fatal(err)
	}

	digest, size, err := HashFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if digest != helloDigest {
		t.Fatalf("digest mismatch: got %s", digest)
	}
	if size != 11 {
		t.Fatalf("size mismatch: got %d", size)
	}
}

func TestHashFile_MissingSource(t *testing.T) {
	if _, _, err := HashFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestWriteHashed(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "upload.bin")

	digest, written, err := WriteHashed(dst, strings.NewReader("hello world"), 0)
	if err != nil {
		t.Fatal(err)
	}
	if digest != helloDigest || written != 11 {
		t.Fatalf("unexpected digest/size: %s %d", digest, written)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello world" {
		t.Fatalf("content mismatch: got %q", got)
	}
}

func TestWriteHashed_RefusesExistingFile(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "exists.bin")
	if err := os.WriteFile(dst, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := WriteHashed(dst, strings.NewReader("new"), 0); err == nil {
		t.Fatal("expected error when destination exists")
	}
	got, _ := os.ReadFile(dst)
	if string(got) != "old" {
		t.Fatalf("existing file modified: %q", got)
	}
}

func TestWriteHashed_LimitRemovesPartialFile(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "big.bin")
	if _, _, err := WriteHashed(dst, strings.NewReader("0123456789"), 4); err == nil {
		t.Fatal("expected limit error")
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Fatalf("expected partial file removed, stat err=%v", err)
	}
}

func TestWriteHashed_ExactLimit(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "exact.bin")
	_, written, err := WriteHashed(dst, strings.NewReader("0123"), 4)
	if err != nil {
		t.Fatal(err)
	}
	if written != 4 {
		t.Fatalf("expected 4 bytes, got %d", written)
	}
}
