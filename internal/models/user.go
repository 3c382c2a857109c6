package models

import (
	"time"
)

// Roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string // display name
	TokenKey     string // Per-user secret for composite token signing
	Role         string // "user" or "admin"
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserWithLock pairs a user with its stored lock flag for listings.
type UserWithLock struct {
	User
	LockFlag LockFlag
}

// UserListFilter narrows a user listing by effective lock state.
type UserListFilter struct {
	Status string // "", "active" or "locked"
	Limit  int
	Offset int
}

const (
	UserStatusActive = "active"
	UserStatusLocked = "locked"
)

// UserStatusCounts summarises accounts by effective lock state.
type UserStatusCounts struct {
	Total  int64 `json:"total"`
	Active int64 `json:"active"`
	Locked int64 `json:"locked"`
}
