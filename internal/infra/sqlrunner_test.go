package infra

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"

	"inksynth/internal/sqlinline"
)

func TestExtractMarker(t *testing.T) {
	marker, body, err := ExtractMarker(sqlinline.QSelectIdentityUserByID)
	if err != nil {
		t.Fatalf("ExtractMarker() error: %v", err)
	}
	if marker != "b21501d7-ac02-4e06-aa7a-fe24e56443d6" {
		t.Fatalf("marker = %q", marker)
	}
	if body == "" || body[:6] != "select" {
		t.Fatalf("body = %q, want select statement", body)
	}
}

func TestExtractMarkerRejects(t *testing.T) {
	for _, q := range []string{"", "select 1", "--sql not-a-uuid\nselect 1"} {
		if _, _, err := ExtractMarker(q); !errors.Is(err, ErrMissingMarker) {
			t.Fatalf("ExtractMarker(%q) = %v, want ErrMissingMarker", q, err)
		}
	}
}

func TestIsNoRows(t *testing.T) {
	if !IsNoRows(fmt.Errorf("lookup: %w", pgx.ErrNoRows)) {
		t.Fatal("IsNoRows() = false for wrapped ErrNoRows")
	}
	if IsNoRows(errors.New("other")) {
		t.Fatal("IsNoRows() = true for unrelated error")
	}
}
