package oauth

import (
	"net/url"
	"strings"
	"testing"
)

func TestGoogleProvider_AuthCodeURL(t *testing.T) {
	p := NewGoogleProvider("client-1", "secret", "http://localhost:8080/api/auth/google/callback")

	raw := p.AuthCodeURL("state-123")
	if !strings.HasPrefix(raw, authEndpoint+"?") {
		t.Fatalf("unexpected endpoint in %q", raw)
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("invalid consent URL: %v", err)
	}
	q := parsed.Query()
	for key, want := range map[string]string{
		"client_id":     "client-1",
		"redirect_uri":  "http://localhost:8080/api/auth/google/callback",
		"response_type": "code",
		"scope":         "openid email profile",
		"state":         "state-123",
		"access_type":   "offline",
		"prompt":        "consent",
	} {
		if got := q.Get(key); got != want {
			t.Fatalf("query %s = %q, want %q", key, got, want)
		}
	}
}
