package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BradenHooton/acctlock/internal/models"
	svc "github.com/BradenHooton/acctlock/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLocks struct {
	setLock     func(userID string, locked bool, actorID string) (*models.LockResult, error)
	setLockBulk func(userIDs []string, locked bool, actorID string) (*models.BulkLockResult, error)
	status      func(userID string) (*models.LockStatus, error)
}

func (f *fakeLocks) SetLock(_ context.Context, userID string, locked bool, actorID string) (*models.LockResult, error) {
	return f.setLock(userID, locked, actorID)
}

func (f *fakeLocks) SetLockBulk(_ context.Context, userIDs []string, locked bool, actorID string) (*models.BulkLockResult, error) {
	return f.setLockBulk(userIDs, locked, actorID)
}

func (f *fakeLocks) Status(_ context.Context, userID string) (*models.LockStatus, error) {
	return f.status(userID)
}

type fakeActivity struct {
	got  models.ActivityQuery
	page *models.ActivityPage
}

func (f *fakeActivity) QueryAll(_ context.Context, q models.ActivityQuery) (*models.ActivityPage, error) {
	f.got = q
	return f.page, nil
}

type fakeMaintenance struct {
	actor string
}

func (f *fakeMaintenance) PurgeData(_ context.Context, actorID string) (*svc.PurgeResult, error) {
	f.actor = actorID
	return &svc.PurgeResult{LockFlags: 2, ActivityLogs: 1, OptionRemoved: true}, nil
}

func run(t *testing.T, s *services, args ...string) (string, error) {
	t.Helper()
	released := false
	connect := func(ctx context.Context) (*services, func(), error) {
		return s, func() { released = true }, nil
	}

	var out bytes.Buffer
	cmd := newRootCmd(connect)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	if err == nil {
		assert.True(t, released, "connection should be released")
	}
	return out.String(), err
}

func TestLockCmd_SingleAccountActsAsSystem(t *testing.T) {
	locks := &fakeLocks{
		setLock: func(userID string, locked bool, actorID string) (*models.LockResult, error) {
			assert.Equal(t, models.SystemActor, actorID)
			assert.True(t, locked)
			return &models.LockResult{UserID: userID, Locked: true, Changed: true}, nil
		},
	}

	out, err := run(t, &services{locks: locks}, "lock", "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1 locked\n", out)
}

func TestUnlockCmd_Unchanged(t *testing.T) {
	locks := &fakeLocks{
		setLock: func(userID string, locked bool, actorID string) (*models.LockResult, error) {
			assert.False(t, locked)
			return &models.LockResult{UserID: userID}, nil
		},
	}

	out, err := run(t, &services{locks: locks}, "unlock", "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1 already unlocked\n", out)
}

func TestLockCmd_ManyAccountsUsesBulk(t *testing.T) {
	locks := &fakeLocks{
		setLockBulk: func(userIDs []string, locked bool, actorID string) (*models.BulkLockResult, error) {
			assert.Equal(t, []string{"u1", "u2", "u3"}, userIDs)
			assert.Equal(t, models.SystemActor, actorID)
			return &models.BulkLockResult{Processed: 2, Skipped: 1, Users: 3}, nil
		},
	}

	out, err := run(t, &services{locks: locks}, "lock", "u1", "u2", "u3")
	require.NoError(t, err)
	assert.Equal(t, "2 of 3 accounts locked, 1 skipped\n", out)
}

func TestLockCmd_RequiresArgs(t *testing.T) {
	_, err := run(t, &services{locks: &fakeLocks{}}, "lock")
	assert.Error(t, err)
}

func TestStatusCmd(t *testing.T) {
	locks := &fakeLocks{
		status: func(userID string) (*models.LockStatus, error) {
			if userID == "missing" {
				return nil, models.ErrNotFound
			}
			return &models.LockStatus{UserID: userID, Locked: true, Flag: "locked", History: []models.ActivityEntry{}}, nil
		},
	}

	out, err := run(t, &services{locks: locks}, "status", "u1")
	require.NoError(t, err)
	assert.Contains(t, out, `"locked": true`)

	_, err = run(t, &services{locks: locks}, "status", "missing")
	assert.EqualError(t, err, "user missing not found")
}

func TestActivityCmd_PassesFlags(t *testing.T) {
	activity := &fakeActivity{page: &models.ActivityPage{
		Entries: []models.ActivityRecord{{
			UserName:      "Ann",
			Action:        models.ActionLocked,
			PerformedName: models.SystemActorName,
			Timestamp:     time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
		}},
		TotalCount: 1,
		Page:       1,
		PerPage:    15,
	}}

	out, err := run(t, &services{activity: activity},
		"activity", "--action", "locked", "--actor", "system", "--from", "2024-05-01", "--orderby", "account", "--order", "asc")
	require.NoError(t, err)

	assert.Equal(t, models.ActionKindLocked, activity.got.Filter.ActionKind)
	assert.Equal(t, models.SystemActor, activity.got.Filter.Actor)
	assert.Equal(t, "2024-05-01", activity.got.Filter.DateFrom)
	assert.Equal(t, models.ActivitySort{Field: "account", Direction: "asc"}, activity.got.Sort)
	assert.Equal(t, models.Page{Number: 1, Size: models.DefaultActivityPageSize}, activity.got.Page)

	assert.Contains(t, out, "2024-05-01 09:30:00")
	assert.Contains(t, out, "Account Locked")
	assert.Contains(t, out, "page 1, 1 of 1 entries")
}

func TestPurgeCmd(t *testing.T) {
	t.Run("requires confirmation", func(t *testing.T) {
		m := &fakeMaintenance{}
		_, err := run(t, &services{maintenance: m}, "purge")
		assert.Error(t, err)
		assert.Empty(t, m.actor)
	})

	t.Run("purges as system", func(t *testing.T) {
		m := &fakeMaintenance{}
		out, err := run(t, &services{maintenance: m}, "purge", "--yes")
		require.NoError(t, err)
		assert.Equal(t, models.SystemActor, m.actor)
		assert.Equal(t, "removed 2 lock flags and 1 activity logs\n", out)
	})
}

func TestConnectFailure(t *testing.T) {
	connect := func(ctx context.Context) (*services, func(), error) {
		return nil, nil, errors.New("dial tcp: refused")
	}

	cmd := newRootCmd(connect)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"status", "u1"})
	assert.ErrorContains(t, cmd.ExecuteContext(context.Background()), "connect: dial tcp: refused")
}
