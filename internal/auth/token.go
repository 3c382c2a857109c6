package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BradenHooton/acctlock/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// UserTokenKeyFetcher defines interface for retrieving user's TokenKey
type UserTokenKeyFetcher interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// TokenPair is the result of a login: both tokens share one session id.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	SessionID        string
	RefreshExpiresAt time.Time
}

// TokenManager handles JWT token generation and validation
type TokenManager struct {
	secret             string
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
	userRepo           UserTokenKeyFetcher
	now                func() time.Time
}

// NewTokenManager creates a new TokenManager
func NewTokenManager(secret string, accessExpiry, refreshExpiry time.Duration) *TokenManager {
	return &TokenManager{
		secret:             secret,
		accessTokenExpiry:  accessExpiry,
		refreshTokenExpiry: refreshExpiry,
		now:                time.Now,
	}
}

// SetUserRepo enables composite signing with the per-user TokenKey
func (tm *TokenManager) SetUserRepo(repo UserTokenKeyFetcher) {
	tm.userRepo = repo
}

// RefreshTokenExpiry is the lifetime of a session.
func (tm *TokenManager) RefreshTokenExpiry() time.Duration {
	return tm.refreshTokenExpiry
}

// signingKey returns global secret + user TokenKey when a user repo is set
func (tm *TokenManager) signingKey(ctx context.Context, userID string) ([]byte, error) {
	if tm.userRepo == nil {
		return []byte(tm.secret), nil
	}

	user, err := tm.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch token key: %w", err)
	}
	return []byte(tm.secret + user.TokenKey), nil
}

func (tm *TokenManager) sign(ctx context.Context, tokenType, userID, email, sessionID string, expiry time.Duration) (string, time.Time, error) {
	now := tm.now()
	expiresAt := now.Add(expiry)

	claims := &models.TokenClaims{
		Type:      tokenType,
		UserID:    userID,
		Email:     email,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	key, err := tm.signingKey(ctx, userID)
	if err != nil {
		return "", time.Time{}, err
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}
	return signed, expiresAt, nil
}

// GenerateTokenPair issues an access and a refresh token for a new session.
func (tm *TokenManager) GenerateTokenPair(ctx context.Context, userID, email string) (*TokenPair, error) {
	sessionID := uuid.New().String()

	access, _, err := tm.sign(ctx, models.TokenTypeAccess, userID, email, sessionID, tm.accessTokenExpiry)
	if err != nil {
		return nil, err
	}

	refresh, refreshExpiresAt, err := tm.sign(ctx, models.TokenTypeRefresh, userID, email, sessionID, tm.refreshTokenExpiry)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		SessionID:        sessionID,
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}

// ValidateToken verifies a token and returns its claims
func (tm *TokenManager) ValidateToken(ctx context.Context, tokenString string) (*models.TokenClaims, error) {
	claims := &models.TokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		c, ok := token.Claims.(*models.TokenClaims)
		if !ok || c.UserID == "" {
			return nil, errors.New("token has no user")
		}
		return tm.signingKey(ctx, c.UserID)
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(tm.now))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, models.ErrUnauthorized
	}

	if claims.Type != models.TokenTypeAccess && claims.Type != models.TokenTypeRefresh {
		return nil, fmt.Errorf("invalid token: unknown type %q", claims.Type)
	}
	if claims.SessionID == "" {
		return nil, errors.New("invalid token: missing session")
	}

	return claims, nil
}
