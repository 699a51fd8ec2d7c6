package main

import (
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/staffrep-bot/internal/config"
)

func TestWaitForShutdown_ReturnsOnSignal(t *testing.T) {
	done := make(chan struct{})
	go func() {
		waitForShutdown(zap.NewNop())
		close(done)
	}()

	// Give the goroutine a moment to install the signal handler.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGTERM))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("waitForShutdown did not return after SIGTERM")
	}
}

func TestStaffHierarchy_MapsConfigRoles(t *testing.T) {
	roles := []config.StaffRoleConfig{
		{ID: "r1", Name: "Moderator", Rank: 100},
		{ID: "r2", Name: "Admin", Rank: 300},
	}

	hierarchy := staffHierarchy(roles)
	require.Len(t, hierarchy, 2)
	assert.Equal(t, "r1", hierarchy[0].ID)
	assert.Equal(t, "Moderator", hierarchy[0].Name)
	assert.Equal(t, 100, hierarchy[0].Rank)
	assert.Equal(t, 300, hierarchy[1].Rank)

	assert.Empty(t, staffHierarchy(nil))
}
