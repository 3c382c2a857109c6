package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BradenHooton/acctlock/internal/auth"
	"github.com/BradenHooton/acctlock/internal/models"
	pkgauth "github.com/BradenHooton/acctlock/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type mockGate struct {
	decision *models.AuthDecision
	// queued answers are returned before decision
	queued []*models.AuthDecision
	err    error
	calls  int
}

func (g *mockGate) CheckAuthenticationAllowed(ctx context.Context, userID string) (*models.AuthDecision, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	if len(g.queued) > 0 {
		next := g.queued[0]
		g.queued = g.queued[1:]
		return next, nil
	}
	if g.decision == nil {
		return &models.AuthDecision{Allowed: true}, nil
	}
	return g.decision, nil
}

type denialCounter struct {
	count int
}

func (d *denialCounter) RecordLoginDenied() { d.count++ }

type authFixture struct {
	svc      *AuthService
	gate     *mockGate
	denials  *denialCounter
	sessions *MockSessionManager
	tm       *auth.TokenManager
	active   map[string]bool
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	hash, err := pkgauth.HashPasswordWithCost("correct-horse-battery", bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{ID: "user-1", Email: "alice@example.com", Name: "Alice", PasswordHash: hash, Role: models.RoleUser}

	repo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			if email == user.Email {
				return user, nil
			}
			return nil, models.ErrNotFound
		},
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			if id == user.ID {
				return user, nil
			}
			return nil, models.ErrNotFound
		},
	}

	f := &authFixture{
		gate:    &mockGate{},
		denials: &denialCounter{},
		tm:      auth.NewTokenManager("test-secret-with-enough-length", time.Minute, time.Hour),
		active:  make(map[string]bool),
	}
	f.sessions = &MockSessionManager{
		RegisterFunc: func(ctx context.Context, userID, sessionID string, ttl time.Duration) error {
			f.active[sessionID] = true
			return nil
		},
		IsActiveFunc: func(ctx context.Context, userID, sessionID string) (bool, error) {
			return f.active[sessionID], nil
		},
		RevokeFunc: func(ctx context.Context, userID, sessionID string) error {
			delete(f.active, sessionID)
			return nil
		},
	}
	f.svc = NewAuthService(repo, f.gate, f.sessions, f.tm, nil, f.denials, newTestLogger(), newTestAuditLogger())
	return f
}

func TestAuthService_LoginSuccess(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Login(ctx, " Alice@Example.com ", "correct-horse-battery")
	require.NoError(t, err)
	assert.Equal(t, "user-1", resp.User.ID)
	// once before the session is registered and once after
	assert.Equal(t, 2, f.gate.calls)
	assert.Equal(t, 0, f.denials.count)

	claims, err := f.tm.ValidateToken(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.True(t, f.active[claims.SessionID])
}

func TestAuthService_LoginInvalidCredentials(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Login(ctx, "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	_, err = f.svc.Login(ctx, "nobody@example.com", "correct-horse-battery")
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	_, err = f.svc.Login(ctx, "  ", "correct-horse-battery")
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	// the lock gate is consulted only once credentials are valid
	assert.Equal(t, 0, f.gate.calls)
	assert.Empty(t, f.active)
}

func TestAuthService_LoginLockedAccount(t *testing.T) {
	f := newAuthFixture(t)
	f.gate.decision = &models.AuthDecision{Allowed: false, Message: "This account has been locked."}

	_, err := f.svc.Login(context.Background(), "alice@example.com", "correct-horse-battery")
	require.Error(t, err)

	lockedErr, ok := models.IsAccountLocked(err)
	require.True(t, ok)
	assert.Equal(t, "This account has been locked.", lockedErr.Message)
	assert.Equal(t, "user-1", lockedErr.UserID)
	assert.Empty(t, f.active)
	assert.Equal(t, 1, f.denials.count)
	assert.Equal(t, 1, f.gate.calls)
}

func TestAuthService_LoginLockedWhileIssuingSession(t *testing.T) {
	f := newAuthFixture(t)
	f.gate.queued = []*models.AuthDecision{
		{Allowed: true},
		{Allowed: false, Message: "locked meanwhile"},
	}

	resp, err := f.svc.Login(context.Background(), "alice@example.com", "correct-horse-battery")
	assert.Nil(t, resp)

	lockedErr, ok := models.IsAccountLocked(err)
	require.True(t, ok)
	assert.Equal(t, "locked meanwhile", lockedErr.Message)
	// the session registered before the second check is gone
	assert.Empty(t, f.active)
	assert.Equal(t, 1, f.denials.count)
}

func TestAuthService_LoginGateError(t *testing.T) {
	f := newAuthFixture(t)
	f.gate.err = errors.New("db down")

	_, err := f.svc.Login(context.Background(), "alice@example.com", "correct-horse-battery")
	assert.ErrorIs(t, err, models.ErrInternalServer)
}

func TestAuthService_RefreshRotatesSession(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	login, err := f.svc.Login(ctx, "alice@example.com", "correct-horse-battery")
	require.NoError(t, err)
	oldClaims, err := f.tm.ValidateToken(ctx, login.RefreshToken)
	require.NoError(t, err)

	refreshed, err := f.svc.RefreshToken(ctx, login.RefreshToken)
	require.NoError(t, err)
	newClaims, err := f.tm.ValidateToken(ctx, refreshed.AccessToken)
	require.NoError(t, err)

	assert.False(t, f.active[oldClaims.SessionID])
	assert.True(t, f.active[newClaims.SessionID])

	// the old refresh token cannot be replayed
	_, err = f.svc.RefreshToken(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestAuthService_RefreshRejects(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	login, err := f.svc.Login(ctx, "alice@example.com", "correct-horse-battery")
	require.NoError(t, err)

	_, err = f.svc.RefreshToken(ctx, "")
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	_, err = f.svc.RefreshToken(ctx, login.AccessToken)
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	f.gate.decision = &models.AuthDecision{Allowed: false, Message: "locked"}
	_, err = f.svc.RefreshToken(ctx, login.RefreshToken)
	_, locked := models.IsAccountLocked(err)
	assert.True(t, locked)
	// refresh denials are not counted as login denials
	assert.Equal(t, 0, f.denials.count)
}

func TestAuthService_Logout(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	login, err := f.svc.Login(ctx, "alice@example.com", "correct-horse-battery")
	require.NoError(t, err)
	claims, err := f.tm.ValidateToken(ctx, login.AccessToken)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, claims))
	assert.False(t, f.active[claims.SessionID])

	f.sessions.RevokeFunc = func(ctx context.Context, userID, sessionID string) error { return errors.New("redis down") }
	assert.ErrorIs(t, f.svc.Logout(ctx, claims), models.ErrInternalServer)
}
