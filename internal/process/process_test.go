package process

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shell(t *testing.T) string {
	t.Helper()
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("POSIX shell not available")
	}
	return sh
}

func TestRun_Success(t *testing.T) {
	sh := shell(t)
	res, err := Run(context.Background(), Command{Path: sh, Args: []string{"-c", "echo hello; echo oops >&2"}, Timeout: 5 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Contains(t, res.Output, "hello")
	assert.Contains(t, res.Output, "oops")
	assert.False(t, res.TimedOut)
}

func TestRun_NonZeroExit(t *testing.T) {
	sh := shell(t)
	res, err := Run(context.Background(), Command{Path: sh, Args: []string{"-c", "echo broken >&2; exit 3"}})
	require.Error(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.Contains(t, res.Output, "broken")
	assert.False(t, res.TimedOut)
	assert.False(t, res.Cancelled)
}

func TestRun_NoStdin(t *testing.T) {
	sh := shell(t)
	res, err := Run(context.Background(), Command{Path: sh, Args: []string{"-c", "cat; echo done"}, Timeout: 5 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, "done\n", res.Output)
}

func TestRun_TimeoutKillsProcessGroup(t *testing.T) {
	sh := shell(t)
	start := time.Now()
	res, err := Run(context.Background(), Command{Path: sh, Args: []string{"-c", "sleep 30 & sleep 30"}, Timeout: 200 * time.Millisecond})
	require.Error(t, err)
	assert.True(t, res.TimedOut)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), 10*time.Second, "timed-out child was not reclaimed promptly")
}

func TestRun_CancelledContext(t *testing.T) {
	sh := shell(t)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	res, err := Run(ctx, Command{Path: sh, Args: []string{"-c", "sleep 30"}, Timeout: time.Minute})
	require.Error(t, err)
	assert.True(t, res.Cancelled)
	assert.False(t, res.TimedOut)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_MissingBinary(t *testing.T) {
	res, err := Run(context.Background(), Command{Path: "/definitely/not/a/compiler"})
	require.Error(t, err)
	assert.Equal(t, -1, res.ExitCode)
}

func TestRun_OutputTruncated(t *testing.T) {
	sh := shell(t)
	res, err := Run(context.Background(), Command{
		Path:           sh,
		Args:           []string{"-c", "i=0; while [ $i -lt 200 ]; do echo 0123456789; i=$((i+1)); done"},
		MaxOutputBytes: 100,
	})
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	assert.Len(t, res.Output, 100)
	assert.True(t, strings.HasPrefix(res.Output, "0123456789\n"))
}

func TestCommandString(t *testing.T) {
	c := Command{Path: "gcc", Args: []string{"-O2", "main.c"}}
	assert.Equal(t, "gcc -O2 main.c", c.String())
}
