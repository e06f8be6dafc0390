//go:build unix

package mgrep

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-mgrep")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestExecRunner_Success(t *testing.T) {
	script := writeScript(t, `pwd -P; printf '%s\n' "$@"`)
	dir := t.TempDir()
	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)

	out, err := NewExecRunner(5*time.Second).Run(context.Background(), Command{
		Args: []string{script, "search", "-m", "3", "auth"},
		Dir:  dir,
	})

	require.NoError(t, err)
	assert.Equal(t, resolved+"\nsearch\n-m\n3\nauth\n", out)
}

func TestExecRunner_NormalizesLineEndings(t *testing.T) {
	script := writeScript(t, `printf 'a.go:1:x\r\nb.go:2:y\rc.go:3:z\n'`)

	out, err := NewExecRunner(5*time.Second).Run(context.Background(), Command{Args: []string{script}})

	require.NoError(t, err)
	assert.Equal(t, "a.go:1:x\nb.go:2:y\nc.go:3:z\n", out)
}

func TestExecRunner_StderrIgnoredOnSuccess(t *testing.T) {
	script := writeScript(t, `echo noise >&2; echo result`)

	out, err := NewExecRunner(5*time.Second).Run(context.Background(), Command{Args: []string{script}})

	require.NoError(t, err)
	assert.Equal(t, "result\n", out)
}

func TestExecRunner_NonZeroExit(t *testing.T) {
	script := writeScript(t, `echo partial; echo "  not logged in  " >&2; exit 3`)

	_, err := NewExecRunner(5*time.Second).Run(context.Background(), Command{Args: []string{script}})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 3, exitErr.Code)
	assert.Equal(t, "not logged in", exitErr.Stderr)
	assert.Equal(t, "mgrep exited with 3: not logged in", exitErr.Error())
}

func TestExecRunner_Timeout(t *testing.T) {
	script := writeScript(t, `sleep 10`)

	start := time.Now()
	_, err := NewExecRunner(200*time.Millisecond).Run(context.Background(), Command{Args: []string{script}})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.Contains(t, err.Error(), "timed out")
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestExecRunner_MissingBinary(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")

	_, err := NewExecRunner(time.Second).Run(context.Background(), Command{Args: []string{missing}})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.Contains(t, err.Error(), "execution failed")
}

func TestExecRunner_EmptyCommand(t *testing.T) {
	_, err := NewExecRunner(time.Second).Run(context.Background(), Command{})
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestNewExecRunner_DefaultTimeout(t *testing.T) {
	assert.Equal(t, DefaultTimeout, NewExecRunner(0).Timeout())
	assert.Equal(t, DefaultTimeout, NewExecRunner(-time.Second).Timeout())
	assert.Equal(t, time.Second, NewExecRunner(time.Second).Timeout())
}

func TestExitError_NoStderr(t *testing.T) {
	assert.Equal(t, "mgrep exited with 1", (&ExitError{Code: 1}).Error())
}
