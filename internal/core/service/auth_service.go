package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/proveloce/connect/internal/core/domain"
	"github.com/proveloce/connect/internal/core/ports"
)

const (
	defaultAccessTTL  = 7 * 24 * time.Hour
	defaultRefreshTTL = 30 * 24 * time.Hour
)

// AuthService implements signup, login, OAuth callback handling, refresh
// rotation, and logout.
type AuthService struct {
	users      ports.UserRepository
	refresh    ports.RefreshTokenRepository
	apps       ports.ApplicationRepository
	audit      ports.AuditRepository
	oauth      ports.OAuthProvider
	jwtSecret  string
	accessTTL  time.Duration
	refreshTTL time.Duration
	log        zerolog.Logger
}

func NewAuthService(
	users ports.UserRepository,
	refresh ports.RefreshTokenRepository,
	apps ports.ApplicationRepository,
	audit ports.AuditRepository,
	oauth ports.OAuthProvider,
	jwtSecret string,
	accessTTL, refreshTTL time.Duration,
	log zerolog.Logger,
) *AuthService {
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}
	return &AuthService{
		users:      users,
		refresh:    refresh,
		apps:       apps,
		audit:      audit,
		oauth:      oauth,
		jwtSecret:  jwtSecret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		log:        log,
	}
}

func (s *AuthService) Signup(ctx context.Context, email, password, name string) (*ports.TokenPair, *domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, nil, domain.ErrInvalidCredentials
	}

	if existing, err := s.users.FindByEmail(ctx, email); err == nil && existing != nil {
		return nil, nil, domain.ErrUserExists
	} else if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
		Status:       domain.UserActive,
		Provider:     domain.ProviderLocal,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	pair, err := s.mintPair(ctx, created)
	if err != nil {
		return nil, nil, err
	}

	s.log.Info().Str("user_id", created.ID).Msg("account created")
	return pair, created, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.TokenPair, *domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, nil, domain.ErrInvalidCredentials
	}

	// Every failure below reports the same uniform error so callers cannot
	// probe which accounts exist.
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, nil, domain.ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if user.Status == domain.UserInactive {
		return nil, nil, domain.ErrInvalidCredentials
	}
	if user.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil, domain.ErrInvalidCredentials
	}

	if user.Status == domain.UserPendingVerification {
		if err := s.users.UpdateStatus(ctx, user.ID, domain.UserActive); err != nil {
			return nil, nil, err
		}
		user.Status = domain.UserActive
		s.recordAudit(ctx, user.ID, "account_verified", "user", user.ID, "activated on first login", user.OrgID)
	}

	pair, err := s.mintPair(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*ports.MeResult, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &ports.MeResult{User: user, ApplicationStatus: domain.ApplicationNone}
	app, err := s.apps.FindByUser(ctx, userID)
	switch {
	case err == nil:
		result.Application = app
		result.ApplicationStatus = app.Status
	case errors.Is(err, domain.ErrApplicationNotFound):
		// no application yet: status stays NONE
	default:
		return nil, err
	}
	return result, nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*ports.TokenPair, error) {
	if refreshToken == "" {
		return nil, domain.ErrInvalidToken
	}

	hash := hashToken(refreshToken)
	rec, err := s.refresh.Find(ctx, hash)
	if err != nil || rec == nil || rec.Revoked || time.Now().After(rec.ExpiresAt) {
		return nil, domain.ErrInvalidToken
	}

	// Rotation: the consumed token is revoked before its successor exists, so
	// a replayed token can never mint a second pair.
	if err := s.refresh.Revoke(ctx, hash); err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, rec.UserID)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}
	return s.mintPair(ctx, user)
}

func (s *AuthService) Logout(ctx context.Context, userID, refreshToken string, revokeAll bool) error {
	if revokeAll && userID != "" {
		if err := s.refresh.RevokeAllForUser(ctx, userID); err != nil {
			s.log.Warn().Err(err).Str("user_id", userID).Msg("revoke-all failed")
		}
		return nil
	}
	if refreshToken != "" {
		if err := s.refresh.Revoke(ctx, hashToken(refreshToken)); err != nil {
			s.log.Warn().Err(err).Msg("refresh token revoke failed")
		}
	}
	return nil
}

func (s *AuthService) GoogleAuthURL(state string) string {
	return s.oauth.AuthCodeURL(state)
}

func (s *AuthService) GoogleCallback(ctx context.Context, code string) (*ports.TokenPair, *domain.User, error) {
	if code == "" {
		return nil, nil, domain.ErrInvalidCredentials
	}

	profile, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, nil, err
	}

	email := strings.TrimSpace(strings.ToLower(profile.Email))
	user, err := s.users.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		now := time.Now().UTC()
		user, err = s.users.Create(ctx, &domain.User{
			Email:     email,
			Name:      profile.Name,
			Role:      domain.RoleUser,
			Status:    domain.UserActive,
			Provider:  domain.ProviderGoogle,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return nil, nil, err
		}
	case err != nil:
		return nil, nil, err
	case user.Status == domain.UserPendingVerification:
		if err := s.users.UpdateStatus(ctx, user.ID, domain.UserActive); err != nil {
			return nil, nil, err
		}
		user.Status = domain.UserActive
		s.recordAudit(ctx, user.ID, "account_verified", "user", user.ID, "activated via oauth", user.OrgID)
	}

	pair, err := s.mintPair(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

// mintPair signs a fresh access token and persists a new refresh token.
func (s *AuthService) mintPair(ctx context.Context, user *domain.User) (*ports.TokenPair, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":    user.ID,
		"email":  user.Email,
		"name":   user.Name,
		"role":   string(user.Role),
		"org_id": user.OrgID,
		"iat":    now.Unix(),
		"exp":    now.Add(s.accessTTL).Unix(),
	}

	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, err
	}

	opaque, err := randomToken()
	if err != nil {
		return nil, err
	}
	rec := &ports.RefreshTokenRecord{
		TokenHash: hashToken(opaque),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
	}
	if err := s.refresh.Save(ctx, rec); err != nil {
		return nil, err
	}

	return &ports.TokenPair{
		AccessToken:  access,
		RefreshToken: opaque,
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

func (s *AuthService) recordAudit(ctx context.Context, actorID, action, kind, entityID, detail, orgID string) {
	entry := &domain.AuditEntry{
		ActorID:    actorID,
		Action:     action,
		EntityKind: kind,
		EntityID:   entityID,
		Detail:     detail,
		OrgID:      orgID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.audit.Insert(ctx, entry); err != nil {
		s.log.Warn().Err(err).Str("action", action).Msg("audit write failed")
	}
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
