package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestRedactSensitive_KeyName(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	l.Info("config loaded",
		"db_password", "hunter2",
		"identity", "alice",
		"client_secret", "",
	)

	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("Failed to parse JSON log: %v", err)
	}

	if got := logEntry["db_password"]; got != redactedValue {
		t.Errorf("db_password = %v, want redacted", got)
	}
	if got := logEntry["identity"]; got != "alice" {
		t.Errorf("identity = %v, want alice", got)
	}
	if got := logEntry["client_secret"]; got != "" {
		t.Errorf("empty client_secret = %v, want empty", got)
	}
}

func TestRedactSensitive_Group(t *testing.T) {
	a := slog.Group("auth", slog.String("token", "abc"), slog.Int("attempts", 3))
	got := redactSensitive(a)

	attrs := got.Value.Group()
	if len(attrs) != 2 {
		t.Fatalf("group has %d attrs, want 2", len(attrs))
	}
	if attrs[0].Value.String() != redactedValue {
		t.Errorf("token = %q, want redacted", attrs[0].Value.String())
	}
	if attrs[1].Value.Int64() != 3 {
		t.Errorf("attempts = %v, want 3", attrs[1].Value)
	}
}

func TestIsSensitiveKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"password", true},
		{"API_SECRET", true},
		{"refresh_token", true},
		{"credentials", true},
		{"identity", false},
		{"op", false},
	}
	for _, tt := range tests {
		if got := IsSensitiveKey(tt.key); got != tt.want {
			t.Errorf("IsSensitiveKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}
