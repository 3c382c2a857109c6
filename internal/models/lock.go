package models

import "fmt"

// Meta keys and option names persisted by the lock manager.
const (
	MetaKeyLockFlag    = "account_locked"
	MetaKeyActivityLog = "account_locker_log"

	OptionDenialMessage = "account_locker_message"
)

// DefaultDenialMessage is shown to locked users when no message is configured.
const DefaultDenialMessage = "This account has been locked. Please contact an administrator."

// LockFlag is the stored lock value of an account.
// The zero value is LockFlagUnset, which reads as unlocked.
type LockFlag int

const (
	LockFlagUnset LockFlag = iota
	LockFlagUnlocked
	LockFlagLocked
)

// Stored sentinels.
const (
	lockFlagValueUnlocked = "0"
	lockFlagValueLocked   = "1"
)

// LockFlagFor returns the flag to store for the requested state.
func LockFlagFor(locked bool) LockFlag {
	if locked {
		return LockFlagLocked
	}
	return LockFlagUnlocked
}

// ParseLockFlag decodes a stored meta value. Any value other than the two
// sentinels is treated as unset.
func ParseLockFlag(value string, present bool) LockFlag {
	if !present {
		return LockFlagUnset
	}
	switch value {
	case lockFlagValueLocked:
		return LockFlagLocked
	case lockFlagValueUnlocked:
		return LockFlagUnlocked
	default:
		return LockFlagUnset
	}
}

// Locked reports the effective lock state.
func (f LockFlag) Locked() bool {
	return f == LockFlagLocked
}

// Value returns the stored representation. Unset has no stored value.
func (f LockFlag) Value() (string, error) {
	switch f {
	case LockFlagLocked:
		return lockFlagValueLocked, nil
	case LockFlagUnlocked:
		return lockFlagValueUnlocked, nil
	default:
		return "", fmt.Errorf("lock flag %d has no stored value", int(f))
	}
}

func (f LockFlag) String() string {
	switch f {
	case LockFlagLocked:
		return "locked"
	case LockFlagUnlocked:
		return "unlocked"
	default:
		return "unset"
	}
}

// LockResult describes the outcome of a single lock/unlock request.
type LockResult struct {
	UserID  string `json:"user_id"`
	Locked  bool   `json:"locked"`
	Changed bool   `json:"changed"`
}

// BulkLockResult summarises a bulk lock/unlock request.
type BulkLockResult struct {
	Processed     int  `json:"processed"`
	Skipped       int  `json:"skipped"`
	SelfAttempted bool `json:"self_attempted"`
	Users         int  `json:"users"`
}

// AuthDecision is the lock gate's verdict for a login attempt.
type AuthDecision struct {
	Allowed bool
	Message string
}

// Capabilities checked by the lock manager.
const (
	CapabilityEditUsers     = "edit_users"
	CapabilityManageOptions = "manage_options"
)

// LockStatus is the lock view of a single account.
type LockStatus struct {
	UserID  string          `json:"user_id"`
	Locked  bool            `json:"locked"`
	Flag    string          `json:"flag"`
	History []ActivityEntry `json:"history"`
}
