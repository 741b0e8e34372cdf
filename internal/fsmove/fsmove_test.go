package fsmove

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestRename(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a")
	dst := filepath.Join(dir, "sub", "b")
	if err := os.Mkdir(filepath.Dir(dst), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(src, []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Rename(src, dst); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	if _, err := os.Stat(src); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("source still present: %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil || string(got) != "payload" {
		t.Errorf("ReadFile(dst) = %q, %v", got, err)
	}
}

func TestRename_NoClobber(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a")
	dst := filepath.Join(dir, "b")
	os.WriteFile(src, []byte("new"), 0o644)
	os.WriteFile(dst, []byte("old"), 0o644)

	err := Rename(src, dst)
	if !errors.Is(err, ErrExists) {
		t.Fatalf("Rename() error = %v, want ErrExists", err)
	}
	if got, _ := os.ReadFile(dst); string(got) != "old" {
		t.Errorf("destination overwritten: %q", got)
	}
	if got, _ := os.ReadFile(src); string(got) != "new" {
		t.Errorf("source lost: %q", got)
	}
}

func TestRename_MissingSource(t *testing.T) {
	dir := t.TempDir()
	err := Rename(filepath.Join(dir, "nope"), filepath.Join(dir, "b"))
	if err == nil || errors.Is(err, ErrExists) {
		t.Fatalf("Rename() error = %v, want not-exist error", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error should wrap os.ErrNotExist, got %v", err)
	}
}

func TestCheckedRename_NoClobber(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a")
	dst := filepath.Join(dir, "b")
	os.WriteFile(src, []byte("new"), 0o644)
	os.WriteFile(dst, []byte("old"), 0o644)

	if err := checkedRename(src, dst); !errors.Is(err, ErrExists) {
		t.Fatalf("checkedRename() error = %v, want ErrExists", err)
	}
}
