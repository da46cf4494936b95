package storage

import (
	"strings"
	"testing"

	"github.com/bluecollarverse/media-pipeline/internal/catalog"
	"github.com/bluecollarverse/media-pipeline/internal/mediaerr"
)

func TestRawKeyRoundTrip(t *testing.T) {
	key, err := RawKey("alice", catalog.MediaTypeImage, "abc123")
	if err != nil {
		t.Fatalf("RawKey: %v", err)
	}
	parts := strings.Split(key, "/")
	if len(parts) != 3 {
		t.Fatalf("RawKey = %q, want three /-separated components", key)
	}
	if parts[0] != "alice" || parts[1] != "images" || parts[2] != "abc123" {
		t.Errorf("RawKey components = %v, want [alice images abc123]", parts)
	}
}

func TestRawKeyVideoPrefix(t *testing.T) {
	key, err := RawKey("bob", catalog.MediaTypeVideo, "clip9")
	if err != nil {
		t.Fatalf("RawKey: %v", err)
	}
	if key != "bob/videos/clip9" {
		t.Errorf("RawKey = %q, want bob/videos/clip9", key)
	}
}

func TestProcessedKey(t *testing.T) {
	key, err := ProcessedKey("abc123", catalog.SizeMedium, catalog.ExtJPEG)
	if err != nil {
		t.Fatalf("ProcessedKey: %v", err)
	}
	if key != "abc123/medium.jpeg" {
		t.Errorf("ProcessedKey = %q, want abc123/medium.jpeg", key)
	}
}

func TestMediaURL(t *testing.T) {
	url, err := MediaURL("media.example.com", "abc123/medium.jpeg")
	if err != nil {
		t.Fatalf("MediaURL: %v", err)
	}
	if url != "https://media.example.com/abc123/medium.jpeg" {
		t.Errorf("MediaURL = %q", url)
	}
}

func TestKeyBuildersRejectEmptyComponents(t *testing.T) {
	if _, err := RawKey("", catalog.MediaTypeImage, "f"); !mediaerr.IsKind(err, mediaerr.KindValidation) {
		t.Errorf("empty username: got %v, want validation error", err)
	}
	if _, err := RawKey("u", "", "f"); !mediaerr.IsKind(err, mediaerr.KindValidation) {
		t.Errorf("empty media type: got %v, want validation error", err)
	}
	if _, err := ProcessedKey("f", "", catalog.ExtPNG); !mediaerr.IsKind(err, mediaerr.KindValidation) {
		t.Errorf("empty size: got %v, want validation error", err)
	}
	if _, err := MediaURL("", "path"); !mediaerr.IsKind(err, mediaerr.KindValidation) {
		t.Errorf("empty domain: got %v, want validation error", err)
	}
}
