// Package oauth implements the Google authorization-code exchange behind the
// ports.OAuthProvider interface.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/proveloce/connect/internal/core/ports"
)

const (
	authEndpoint     = "https://accounts.google.com/o/oauth2/v2/auth"
	tokenEndpoint    = "https://oauth2.googleapis.com/token"
	userInfoEndpoint = "https://openidconnect.googleapis.com/v1/userinfo"
)

// GoogleProvider exchanges authorization codes for Google identities.
type GoogleProvider struct {
	clientID     string
	clientSecret string
	redirectURL  string
	httpClient   *http.Client
}

var _ ports.OAuthProvider = (*GoogleProvider)(nil)

// Option configures the GoogleProvider.
type Option func(*GoogleProvider)

// WithHTTPClient sets a custom HTTP client for token and userinfo requests.
func WithHTTPClient(c *http.Client) Option {
	return func(p *GoogleProvider) { p.httpClient = c }
}

// NewGoogleProvider creates a provider for the given OAuth client.
func NewGoogleProvider(clientID, clientSecret, redirectURL string, opts ...Option) *GoogleProvider {
	p := &GoogleProvider{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURL:  redirectURL,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// AuthCodeURL builds the consent page URL carrying the anti-forgery state.
// Offline access with forced consent makes Google issue a refresh token on
// every grant, not just the first one.
func (p *GoogleProvider) AuthCodeURL(state string) string {
	q := url.Values{
		"client_id":     {p.clientID},
		"redirect_uri":  {p.redirectURL},
		"response_type": {"code"},
		"scope":         {"openid email profile"},
		"state":         {state},
		"access_type":   {"offline"},
		"prompt":        {"consent"},
	}
	return authEndpoint + "?" + q.Encode()
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int32  `json:"expires_in"`
	IDToken     string `json:"id_token"`
}

type userInfoResponse struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Exchange trades the authorization code for an access token and fetches the
// user's identity from the userinfo endpoint.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*ports.OAuthProfile, error) {
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"client_id":     {p.clientID},
		"client_secret": {p.clientSecret},
		"redirect_uri":  {p.redirectURL},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("oauth: build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oauth: token request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("oauth: read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oauth: token endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("oauth: decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("oauth: empty access_token in response")
	}

	return p.fetchProfile(ctx, token.AccessToken)
}

func (p *GoogleProvider) fetchProfile(ctx context.Context, accessToken string) (*ports.OAuthProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userInfoEndpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("oauth: build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oauth: userinfo request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("oauth: read userinfo response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oauth: userinfo endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var info userInfoResponse
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("oauth: decode userinfo response: %w", err)
	}
	if info.Email == "" {
		return nil, fmt.Errorf("oauth: userinfo response missing email")
	}

	return &ports.OAuthProfile{Subject: info.Sub, Email: info.Email, Name: info.Name}, nil
}
