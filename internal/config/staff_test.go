package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadStaffHierarchy_FromEnv(t *testing.T) {
	t.Setenv("STAFF_ROLES", `[
		{"id":"100","name":"Moderator","rank":1},
		{"id":"200","name":"Senior Moderator","rank":2},
		{"id":"300","name":"Admin","rank":3}
	]`)

	roles, err := LoadStaffHierarchy()
	require.NoError(t, err)
	require.Len(t, roles, 3)
	assert.Equal(t, "Moderator", roles[0].Name)
	assert.Equal(t, 3, roles[2].Rank)
}

func TestLoadStaffHierarchy_Unset(t *testing.T) {
	t.Setenv("STAFF_ROLES", "")
	t.Setenv("STAFF_ROLES_FILE", "")

	roles, err := LoadStaffHierarchy()
	require.NoError(t, err)
	assert.Empty(t, roles)
}

func TestLoadStaffHierarchy_BadJSON(t *testing.T) {
	t.Setenv("STAFF_ROLES", `{"not":"a list"}`)

	_, err := LoadStaffHierarchy()
	assert.Error(t, err)
}

func TestValidateStaffHierarchy(t *testing.T) {
	valid := []StaffRoleConfig{
		{ID: "1", Name: "Mod", Rank: 1},
		{ID: "2", Name: "Admin", Rank: 2},
	}
	assert.NoError(t, ValidateStaffHierarchy(valid))

	cases := []struct {
		name  string
		roles []StaffRoleConfig
	}{
		{"missing id", []StaffRoleConfig{{Name: "Mod", Rank: 1}}},
		{"missing name", []StaffRoleConfig{{ID: "1", Rank: 1}}},
		{"duplicate id", []StaffRoleConfig{
			{ID: "1", Name: "Mod", Rank: 1},
			{ID: "1", Name: "Admin", Rank: 2},
		}},
		{"duplicate name", []StaffRoleConfig{
			{ID: "1", Name: "Mod", Rank: 1},
			{ID: "2", Name: "Mod", Rank: 2},
		}},
		{"duplicate rank", []StaffRoleConfig{
			{ID: "1", Name: "Mod", Rank: 1},
			{ID: "2", Name: "Admin", Rank: 1},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, ValidateStaffHierarchy(tc.roles))
		})
	}
}

func TestSortedByRank(t *testing.T) {
	roles := []StaffRoleConfig{
		{ID: "2", Name: "Admin", Rank: 3},
		{ID: "1", Name: "Mod", Rank: 1},
		{ID: "3", Name: "Senior Mod", Rank: 2},
	}

	desc := SortedByRank(roles, true)
	assert.Equal(t, []int{3, 2, 1}, []int{desc[0].Rank, desc[1].Rank, desc[2].Rank})

	asc := SortedByRank(roles, false)
	assert.Equal(t, []int{1, 2, 3}, []int{asc[0].Rank, asc[1].Rank, asc[2].Rank})

	// input order untouched
	assert.Equal(t, 3, roles[0].Rank)
}
