package zip

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestArchiveAssets(t *testing.T) {
	modified := time.Date(2025, 3, 4, 5, 6, 8, 0, time.UTC)
	data, err := ArchiveAssets([]Asset{
		{Filename: "manifest.json", MIME: "application/json", Data: []byte(`[]`), Modified: modified},
		{Filename: "../../etc/art.url", Data: []byte("one")},
		{Filename: "art.url", Data: []byte("two")},
		{Filename: "", Data: []byte("three")},
	})
	if err != nil {
		t.Fatalf("ArchiveAssets() error = %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("zip.NewReader() error = %v", err)
	}
	got := map[string]string{}
	var names []string
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("Open(%s) error = %v", f.Name, err)
		}
		body, _ := io.ReadAll(rc)
		rc.Close()
		got[f.Name] = string(body)
		names = append(names, f.Name)
	}

	wantNames := []string{"manifest.json", "art.url", "art-1.url", "file"}
	if diff := cmp.Diff(wantNames, names); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	if got["art-1.url"] != "two" || got["file"] != "three" {
		t.Fatalf("contents = %v", got)
	}
	if !zr.File[0].Modified.Equal(modified) {
		t.Fatalf("Modified = %v, want %v", zr.File[0].Modified, modified)
	}
}

func TestArchiveAssetsEmpty(t *testing.T) {
	data, err := ArchiveAssets(nil)
	if err != nil {
		t.Fatalf("ArchiveAssets() error = %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("zip.NewReader() error = %v", err)
	}
	if len(zr.File) != 0 {
		t.Fatalf("files = %d, want 0", len(zr.File))
	}
}
