package keychain

import (
	"errors"
	"testing"
)

// Unit tests use MemoryStore; the macOS Keychain is never touched.

func testStore() Store {
	return NewMemoryStore()
}

func TestSetAndGet(t *testing.T) {
	s := testStore()

	if err := s.Set("test/set-get", "hello-world"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	val, err := s.Get("test/set-get")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if val != "hello-world" {
		t.Errorf("expected 'hello-world', got %q", val)
	}
}

func TestGetNotFound(t *testing.T) {
	s := testStore()

	_, err := s.Get("test/nonexistent")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteNonexistent(t *testing.T) {
	s := testStore()

	if err := s.Delete("test/never-existed"); err != nil {
		t.Errorf("Delete nonexistent: %v", err)
	}
}

func TestLegacySourceLoad(t *testing.T) {
	s := testStore()
	s.Set(LegacyAccount, "old-password")

	src := NewLegacySource(s)
	val, ok, err := src.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !ok || val != "old-password" {
		t.Errorf("expected old-password, got %q (ok=%v)", val, ok)
	}
}

func TestLegacySourceLoadMissing(t *testing.T) {
	src := NewLegacySource(testStore())

	val, ok, err := src.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ok || val != "" {
		t.Errorf("expected absence, got %q (ok=%v)", val, ok)
	}
}

func TestLegacySourceDelete(t *testing.T) {
	s := testStore()
	s.Set(LegacyAccount, "old-password")

	src := NewLegacySource(s)
	if err := src.Delete(); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := src.Load(); ok {
		t.Error("expected legacy password to be gone after delete")
	}
}

type brokenStore struct{ MemoryStore }

func (b *brokenStore) Get(string) (string, error) { return "", errors.New("keychain locked") }

func TestLegacySourceLoadError(t *testing.T) {
	src := NewLegacySource(&brokenStore{})

	_, ok, err := src.Load()
	if err == nil {
		t.Fatal("expected error from locked keychain")
	}
	if ok {
		t.Error("expected ok=false on error")
	}
}
