package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/BradenHooton/acctlock/internal/metrics"
	"github.com/BradenHooton/acctlock/internal/models"
	pkglogger "github.com/BradenHooton/acctlock/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
)

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByIDFunc       func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc    func(ctx context.Context, email string) (*models.User, error)
	CreateFunc        func(ctx context.Context, user *models.User) (*models.User, error)
	ListWithLockFunc  func(ctx context.Context, filter models.UserListFilter) ([]*models.UserWithLock, error)
	CountByStatusFunc func(ctx context.Context) (*models.UserStatusCounts, error)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) ListWithLock(ctx context.Context, filter models.UserListFilter) ([]*models.UserWithLock, error) {
	if m.ListWithLockFunc != nil {
		return m.ListWithLockFunc(ctx, filter)
	}
	return []*models.UserWithLock{}, nil
}

func (m *MockUserRepository) CountByStatus(ctx context.Context) (*models.UserStatusCounts, error) {
	if m.CountByStatusFunc != nil {
		return m.CountByStatusFunc(ctx)
	}
	return &models.UserStatusCounts{}, nil
}

// MemoryMetaStore is an in-memory LockFlagStore, ActivityStore and
// MetaPurger keyed like user_meta.
type MemoryMetaStore struct {
	mu       sync.Mutex
	flags    map[string]models.LockFlag
	activity map[string][]models.ActivityEntry

	// Err, when set, is returned by every operation
	Err error
}

func NewMemoryMetaStore() *MemoryMetaStore {
	return &MemoryMetaStore{
		flags:    make(map[string]models.LockFlag),
		activity: make(map[string][]models.ActivityEntry),
	}
}

func (m *MemoryMetaStore) GetLockFlag(ctx context.Context, userID string) (models.LockFlag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flags[userID], m.Err
}

func (m *MemoryMetaStore) SetLockFlag(ctx context.Context, userID string, flag models.LockFlag) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.flags[userID] = flag
	return nil
}

func (m *MemoryMetaStore) GetActivity(ctx context.Context, userID string) ([]models.ActivityEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return append([]models.ActivityEntry(nil), m.activity[userID]...), nil
}

func (m *MemoryMetaStore) SaveActivity(ctx context.Context, userID string, entries []models.ActivityEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.activity[userID] = append([]models.ActivityEntry(nil), entries...)
	return nil
}

func (m *MemoryMetaStore) ListActivity(ctx context.Context) ([]models.AccountActivity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	result := make([]models.AccountActivity, 0, len(m.activity))
	for userID, entries := range m.activity {
		result = append(result, models.AccountActivity{UserID: userID, Entries: entries})
	}
	return result, nil
}

func (m *MemoryMetaStore) DeleteKey(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	var n int64
	switch key {
	case models.MetaKeyLockFlag:
		n = int64(len(m.flags))
		m.flags = make(map[string]models.LockFlag)
	case models.MetaKeyActivityLog:
		n = int64(len(m.activity))
		m.activity = make(map[string][]models.ActivityEntry)
	}
	return n, nil
}

// MockSessionManager implements SessionManager and SessionStore for testing
type MockSessionManager struct {
	DestroyAllFunc func(ctx context.Context, userID string) error
	RegisterFunc   func(ctx context.Context, userID, sessionID string, ttl time.Duration) error
	IsActiveFunc   func(ctx context.Context, userID, sessionID string) (bool, error)
	RevokeFunc     func(ctx context.Context, userID, sessionID string) error

	Destroyed []string
}

func (m *MockSessionManager) DestroyAll(ctx context.Context, userID string) error {
	m.Destroyed = append(m.Destroyed, userID)
	if m.DestroyAllFunc != nil {
		return m.DestroyAllFunc(ctx, userID)
	}
	return nil
}

func (m *MockSessionManager) Register(ctx context.Context, userID, sessionID string, ttl time.Duration) error {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, userID, sessionID, ttl)
	}
	return nil
}

func (m *MockSessionManager) IsActive(ctx context.Context, userID, sessionID string) (bool, error) {
	if m.IsActiveFunc != nil {
		return m.IsActiveFunc(ctx, userID, sessionID)
	}
	return true, nil
}

func (m *MockSessionManager) Revoke(ctx context.Context, userID, sessionID string) error {
	if m.RevokeFunc != nil {
		return m.RevokeFunc(ctx, userID, sessionID)
	}
	return nil
}

// StaticCapabilities grants capabilities from a fixed actor -> capabilities map
type StaticCapabilities map[string][]string

func (c StaticCapabilities) HasCapability(ctx context.Context, actorID, capability string) (bool, error) {
	for _, granted := range c[actorID] {
		if granted == capability {
			return true, nil
		}
	}
	return false, nil
}

// MockSettingsStore implements SettingsStore and OptionDeleter in memory
type MockSettingsStore struct {
	Values map[string]string
	Err    error
}

func NewMockSettingsStore() *MockSettingsStore {
	return &MockSettingsStore{Values: make(map[string]string)}
}

func (m *MockSettingsStore) Get(ctx context.Context, name string) (string, bool, error) {
	v, ok := m.Values[name]
	return v, ok, m.Err
}

func (m *MockSettingsStore) Set(ctx context.Context, name, value string) error {
	if m.Err != nil {
		return m.Err
	}
	m.Values[name] = value
	return nil
}

func (m *MockSettingsStore) Add(ctx context.Context, name, value string) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	if _, ok := m.Values[name]; ok {
		return false, nil
	}
	m.Values[name] = value
	return true, nil
}

func (m *MockSettingsStore) Delete(ctx context.Context, name string) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	_, ok := m.Values[name]
	delete(m.Values, name)
	return ok, nil
}

// StaticNames implements DisplayNameResolver from a fixed map
type StaticNames map[string]string

func (n StaticNames) DisplayNames(ctx context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	for _, id := range ids {
		if name, ok := n[id]; ok {
			out[id] = name
		}
	}
	return out, nil
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAuditLogger() *pkglogger.AuditLogger {
	return pkglogger.NewAuditLogger(newTestLogger())
}

func newTestMetrics() *metrics.LockMetrics {
	return metrics.NewLockMetrics(prometheus.NewRegistry())
}
