//go:build unix

package osutil

import (
	"bytes"
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetProcessGroup(t *testing.T) {
	cmd := exec.Command("echo", "test")
	SetProcessGroup(cmd)

	require.NotNil(t, cmd.SysProcAttr)
	assert.True(t, cmd.SysProcAttr.Setpgid, "Setpgid should be true")
}

func TestSetProcessGroupKill_KillsGrandchildren(t *testing.T) {
	// The background sleep inherits stdout. If it survived the kill, Wait
	// would block on the output pipe until the sleep finished.
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", "sleep 30 & wait")
	SetProcessGroup(cmd)
	SetProcessGroupKill(cmd)
	var out bytes.Buffer
	cmd.Stdout = &out

	start := time.Now()
	err := cmd.Run()

	assert.Error(t, err)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestSetProcessGroupKill_ProcessAlreadyDead(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := exec.CommandContext(ctx, "true")
	SetProcessGroup(cmd)
	SetProcessGroupKill(cmd)

	require.NoError(t, cmd.Run())
	assert.NoError(t, cmd.Cancel(), "cancel after exit is harmless")
}

func TestSetProcessGroupKill_NotStarted(t *testing.T) {
	cmd := exec.Command("true")
	SetProcessGroupKill(cmd)

	assert.NoError(t, cmd.Cancel())
}
