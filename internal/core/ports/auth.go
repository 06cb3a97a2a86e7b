package ports

import (
	"context"
	"time"

	"github.com/proveloce/connect/internal/core/domain"
)

// TokenPair is an access/refresh credential pair minted on login or refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int64
}

// MeResult is the authenticated-profile view: the account plus the status of
// its expert application (ApplicationNone when no application exists yet).
type MeResult struct {
	User        *domain.User
	Application *domain.ExpertApplication
	// ApplicationStatus is always populated, even when Application is nil.
	ApplicationStatus domain.ApplicationStatus
}

// AuthService implements the login/signup/OAuth/refresh/logout protocol.
type AuthService interface {
	Signup(ctx context.Context, email, password, name string) (*TokenPair, *domain.User, error)
	Login(ctx context.Context, email, password string) (*TokenPair, *domain.User, error)
	Me(ctx context.Context, userID string) (*MeResult, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	// Logout revokes the given refresh token, or every token for userID when
	// revokeAll is set. Always succeeds from the caller's perspective.
	Logout(ctx context.Context, userID, refreshToken string, revokeAll bool) error
	GoogleAuthURL(state string) string
	GoogleCallback(ctx context.Context, code string) (*TokenPair, *domain.User, error)
}

// RefreshTokenRecord is the server-side state of one opaque refresh token.
// Only a hash of the token is ever persisted.
type RefreshTokenRecord struct {
	TokenHash string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	ExpiresAt time.Time `bson:"expires_at"`
	Revoked   bool      `bson:"revoked"`
	CreatedAt time.Time `bson:"created_at"`
}

// RefreshTokenRepository persists revocable refresh tokens.
type RefreshTokenRepository interface {
	Save(ctx context.Context, rec *RefreshTokenRecord) error
	Find(ctx context.Context, tokenHash string) (*RefreshTokenRecord, error)
	Revoke(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID string) error
}

// OAuthProfile is the provider-reported identity after a code exchange.
type OAuthProfile struct {
	Subject string
	Email   string
	Name    string
}

// OAuthProvider abstracts the external consent/exchange protocol so the auth
// service can be tested without a network.
type OAuthProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*OAuthProfile, error)
}
