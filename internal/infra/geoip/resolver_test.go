package geoip

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestOpenEmptyPathDisablesLookup(t *testing.T) {
	r, err := Open("  ")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if r != nil {
		t.Fatalf("Open() = %v, want nil", r)
	}
	if r.Lookup() != nil {
		t.Fatalf("Lookup() on nil resolver should be nil")
	}
	if _, err := r.CountryCode("203.0.113.4"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("CountryCode() error = %v, want ErrUnavailable", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing.mmdb")); err == nil {
		t.Fatalf("Open() expected error for missing database")
	}
}
