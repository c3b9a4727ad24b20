package logger

import (
	"strings"
	"testing"
)

func TestSanitizeKVsRedactsSecretsAndHashesIdentifiers(t *testing.T) {
	out := sanitizeKVs([]interface{}{
		"signature", "v1,abc",
		"user_id", "user_2abc",
		"email", "a@example.com",
		"course_id", "c-1",
	})
	if len(out) != 8 {
		t.Fatalf("expected 8 entries, got %d", len(out))
	}
	if out[1] != "[REDACTED]" {
		t.Fatalf("signature should be redacted, got %v", out[1])
	}
	hashed, ok := out[3].(string)
	if !ok || !strings.HasPrefix(hashed, "hash:") {
		t.Fatalf("user_id should be hashed, got %v", out[3])
	}
	if out[5] != "[REDACTED]" {
		t.Fatalf("email should be redacted, got %v", out[5])
	}
	if out[7] != "c-1" {
		t.Fatalf("course_id should pass through, got %v", out[7])
	}
}

func TestSanitizeKVsKeepsDanglingKey(t *testing.T) {
	out := sanitizeKVs([]interface{}{"a", 1, "dangling"})
	if len(out) != 3 || out[2] != "dangling" {
		t.Fatalf("unexpected output: %#v", out)
	}
}

func TestHashValueIsStable(t *testing.T) {
	if hashValue("x") != hashValue("x") {
		t.Fatal("hash should be deterministic")
	}
	if hashValue("") != "" {
		t.Fatal("empty values hash to empty")
	}
}
