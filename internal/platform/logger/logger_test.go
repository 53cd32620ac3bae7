package logger

import (
	"strings"
	"testing"
)

func TestSanitizeKVsRedactsAndHashes(t *testing.T) {
	kv := sanitizeKVs([]interface{}{
		"authorization", "Bearer abc",
		"user_email", "someone@example.com",
		"conversation_id", "abc",
	})
	if len(kv) != 6 {
		t.Fatalf("len: want=6 got=%d", len(kv))
	}
	if kv[1] != "[REDACTED]" {
		t.Fatalf("authorization: want=%q got=%v", "[REDACTED]", kv[1])
	}
	hashed, _ := kv[3].(string)
	if !strings.HasPrefix(hashed, "hash:") || strings.Contains(hashed, "example.com") {
		t.Fatalf("user_email: expected hashed value, got=%v", kv[3])
	}
	if kv[5] != "abc" {
		t.Fatalf("conversation_id: want=%q got=%v", "abc", kv[5])
	}
}

func TestSanitizeKVsOddLength(t *testing.T) {
	kv := sanitizeKVs([]interface{}{"status", 200, "dangling"})
	if len(kv) != 3 || kv[2] != "dangling" {
		t.Fatalf("unexpected kv: %v", kv)
	}
}

func TestSanitizeValueJWTString(t *testing.T) {
	jwtish := "eyJhbGciOiJSUzI1NiJ9.eyJzdWIiOiIxMjM0NTY3ODkwIn0.sig"
	if got := sanitizeValue("detail", jwtish); got != "[REDACTED]" {
		t.Fatalf("jwt value: want=%q got=%v", "[REDACTED]", got)
	}
}
