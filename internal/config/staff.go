package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// StaffRoleConfig defines one staff role in the guild hierarchy.
// The list is loaded once at startup and treated as read-only afterward;
// changing the hierarchy requires a restart.
type StaffRoleConfig struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Rank int    `json:"rank"`
}

// LoadStaffHierarchy reads the staff role hierarchy from STAFF_ROLES (inline
// JSON) or STAFF_ROLES_FILE (path to a JSON file), validating it eagerly so a
// bad hierarchy fails the process at boot rather than surfacing as odd cache
// behavior later.
func LoadStaffHierarchy() ([]StaffRoleConfig, error) {
	raw := strings.TrimSpace(os.Getenv("STAFF_ROLES"))
	if raw == "" {
		path := strings.TrimSpace(os.Getenv("STAFF_ROLES_FILE"))
		if path == "" {
			return nil, nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read staff roles file: %w", err)
		}
		raw = string(content)
	}

	var roles []StaffRoleConfig
	if err := json.Unmarshal([]byte(raw), &roles); err != nil {
		return nil, fmt.Errorf("parse staff roles: %w", err)
	}

	if err := ValidateStaffHierarchy(roles); err != nil {
		return nil, err
	}
	return roles, nil
}

// ValidateStaffHierarchy rejects hierarchies with missing fields or duplicate
// ids, names, or ranks. Duplicate ranks and names would make the rank/name
// accessors of the role cache ambiguous, so they are configuration errors.
func ValidateStaffHierarchy(roles []StaffRoleConfig) error {
	seenIDs := make(map[string]struct{}, len(roles))
	seenNames := make(map[string]struct{}, len(roles))
	seenRanks := make(map[int]struct{}, len(roles))

	for i, role := range roles {
		if strings.TrimSpace(role.ID) == "" {
			return fmt.Errorf("staff role %d: missing id", i)
		}
		if strings.TrimSpace(role.Name) == "" {
			return fmt.Errorf("staff role %q: missing name", role.ID)
		}
		if _, dup := seenIDs[role.ID]; dup {
			return fmt.Errorf("staff role %q: duplicate id", role.ID)
		}
		if _, dup := seenNames[role.Name]; dup {
			return fmt.Errorf("staff role %q: duplicate name %q", role.ID, role.Name)
		}
		if _, dup := seenRanks[role.Rank]; dup {
			return fmt.Errorf("staff role %q: duplicate rank %d", role.ID, role.Rank)
		}
		seenIDs[role.ID] = struct{}{}
		seenNames[role.Name] = struct{}{}
		seenRanks[role.Rank] = struct{}{}
	}
	return nil
}

// SortedByRank returns a copy of the hierarchy ordered by rank.
func SortedByRank(roles []StaffRoleConfig, descending bool) []StaffRoleConfig {
	sorted := make([]StaffRoleConfig, len(roles))
	copy(sorted, roles)
	sort.SliceStable(sorted, func(i, j int) bool {
		if descending {
			return sorted[i].Rank > sorted[j].Rank
		}
		return sorted[i].Rank < sorted[j].Rank
	})
	return sorted
}
