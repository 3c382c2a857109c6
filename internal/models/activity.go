package models

import (
	"strings"
	"time"
)

// MaxActivityEntries caps the per-account history.
const MaxActivityEntries = 50

// SystemActor is the actor id recorded for actions not attributed to an administrator.
const SystemActor = "system"

// Action labels
const (
	ActionLocked     = "Account Locked"
	ActionUnlocked   = "Account Unlocked"
	ActionBulkSuffix = " (Bulk)"
)

// ActionLabel builds the activity label for a lock transition.
func ActionLabel(locked, bulk bool) string {
	label := ActionUnlocked
	if locked {
		label = ActionLocked
	}
	if bulk {
		label += ActionBulkSuffix
	}
	return label
}

// ActionKind classifies a free-text action label.
type ActionKind string

const (
	ActionKindLocked   ActionKind = "locked"
	ActionKindUnlocked ActionKind = "unlocked"
	ActionKindOther    ActionKind = "other"
)

// KindOf classifies a label. "unlocked" is checked first so that unlock
// labels are never reported as lock events.
func KindOf(label string) ActionKind {
	lower := strings.ToLower(label)
	switch {
	case strings.Contains(lower, string(ActionKindUnlocked)):
		return ActionKindUnlocked
	case strings.Contains(lower, string(ActionKindLocked)):
		return ActionKindLocked
	default:
		return ActionKindOther
	}
}

// ActivityEntry is one immutable history record stored under an account.
type ActivityEntry struct {
	Action      string    `json:"action"`
	PerformedBy string    `json:"performed_by"`
	Timestamp   time.Time `json:"timestamp"`
}

// AccountActivity is the stored history of one account.
type AccountActivity struct {
	UserID  string
	Entries []ActivityEntry
}

// ActivityRecord is an entry resolved for display across accounts.
type ActivityRecord struct {
	UserID        string     `json:"user_id"`
	UserName      string     `json:"user_name"`
	Action        string     `json:"action"`
	Kind          ActionKind `json:"kind"`
	PerformedBy   string     `json:"performed_by"`
	PerformedName string     `json:"performed_by_name"`
	Timestamp     time.Time  `json:"timestamp"`
}

// Sort fields for activity queries
const (
	ActivitySortTimestamp = "timestamp"
	ActivitySortAccount   = "account"
	ActivitySortAction    = "action"
	ActivitySortActor     = "actor"

	SortAsc  = "asc"
	SortDesc = "desc"
)

// ActivityFilter narrows an activity query. Empty fields do not filter.
type ActivityFilter struct {
	ActionKind ActionKind
	UserID     string
	Actor      string // account id or SystemActor
	DateFrom   string // YYYY-MM-DD, inclusive
	DateTo     string // YYYY-MM-DD, inclusive through end of day
}

type ActivitySort struct {
	Field     string
	Direction string
}

type Page struct {
	Number int
	Size   int
}

// ActivityQuery is the full input of an activity listing.
type ActivityQuery struct {
	Filter ActivityFilter
	Sort   ActivitySort
	Page   Page
}

// ActivityPage is one page of matching records plus the unpaged total.
type ActivityPage struct {
	Entries    []ActivityRecord `json:"entries"`
	TotalCount int              `json:"total"`
	Page       int              `json:"page"`
	PerPage    int              `json:"per_page"`
}

// Display names used when an actor cannot be resolved to an account
const (
	SystemActorName  = "System"
	UnknownActorName = "Unknown"
)

// Activity page size limits
const (
	DefaultActivityPageSize = 15
	MaxActivityPageSize     = 100
)
