package hash

import "testing"

func TestHMACSHA256Deterministic(t *testing.T) {
	// Arrange
	h := NewHMACSHA256("secret-key")

	// Act
	first, err := h.Hash("123456")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	second, err := h.Hash("123456")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	// Assert
	if first != second {
		t.Fatalf("expected deterministic digest, got %q and %q", first, second)
	}
	if first == "123456" {
		t.Fatalf("digest must differ from input")
	}
}

func TestHMACSHA256KeyedDigest(t *testing.T) {
	// Arrange
	a := NewHMACSHA256("key-a")
	b := NewHMACSHA256("key-b")

	// Act
	da, _ := a.Hash("123456")
	db, _ := b.Hash("123456")

	// Assert
	if da == db {
		t.Fatalf("different keys must produce different digests")
	}
}

func TestHMACSHA256Verify(t *testing.T) {
	// Arrange
	h := NewHMACSHA256("secret-key")
	digest, err := h.Hash("123456")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	// Act & Assert
	if !h.Verify(digest, "123456") {
		t.Fatalf("expected digest to verify against original input")
	}
	if h.Verify(digest, "654321") {
		t.Fatalf("expected mismatch for a different input")
	}
}
