package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/BradenHooton/acctlock/internal/models"
)

// roleCapabilities lists what each role may do. Roles not listed have no
// capabilities.
var roleCapabilities = map[string][]string{
	models.RoleAdmin: {models.CapabilityEditUsers, models.CapabilityManageOptions},
}

// RoleCapabilityChecker derives capabilities from the actor's role. The
// system actor holds every capability.
type RoleCapabilityChecker struct {
	accounts AccountDirectory
}

func NewRoleCapabilityChecker(accounts AccountDirectory) *RoleCapabilityChecker {
	return &RoleCapabilityChecker{accounts: accounts}
}

func (c *RoleCapabilityChecker) HasCapability(ctx context.Context, actorID, capability string) (bool, error) {
	if actorID == models.SystemActor {
		return true, nil
	}
	if actorID == "" {
		return false, nil
	}

	user, err := c.accounts.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get actor: %w", err)
	}

	for _, granted := range roleCapabilities[user.Role] {
		if granted == capability {
			return true, nil
		}
	}
	return false, nil
}
