package server

import (
	"net/http/httptest"
	"testing"

	"github.com/Tyrowin/roomrelay/internal/logging"
)

func TestNormalizeOrigin(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"http://localhost:8080", "http://localhost:8080", true},
		{"HTTP://LocalHost:5173/", "http://localhost:5173", true},
		{"https://example.com/path?q=1", "https://example.com", true},
		{"localhost:8080", "", false},
		{"://bad", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := normalizeOrigin(tt.input)
		if ok != tt.ok || got != tt.want {
			t.Errorf("normalizeOrigin(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestOriginPolicy(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"listed origin", []string{"http://localhost:5173"}, "http://localhost:5173", true},
		{"case and trailing slash", []string{"http://localhost:5173"}, "HTTP://LOCALHOST:5173/", true},
		{"unlisted origin", []string{"http://localhost:5173"}, "http://evil.example", false},
		{"missing origin", []string{"http://localhost:5173"}, "", false},
		{"invalid entries ignored", []string{"not-an-origin", " "}, "http://localhost:5173", false},
		{"wildcard", []string{"*"}, "http://anything.example", true},
		{"wildcard without origin", []string{"*"}, "", true},
		{"empty list", nil, "http://localhost:5173", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := newOriginPolicy(tt.allowed, logging.Discard())

			req := httptest.NewRequest("GET", "/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if got := policy.checkOrigin(req); got != tt.want {
				t.Errorf("checkOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
			}
		})
	}
}
