// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package execx

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRun_Success(t *testing.T) {
	r := New()
	res := r.Run(context.Background(), 10*time.Second, "sh", "-c", "echo hello")

	assert.True(t, res.OK())
	assert.Equal(t, 0, res.Code)
	assert.Equal(t, "hello\n", res.Stdout)
	assert.False(t, res.TimedOut)
}

func TestRun_NonZeroExit(t *testing.T) {
	r := New()
	res := r.Run(context.Background(), 10*time.Second, "sh", "-c", "echo oops >&2; exit 3")

	assert.False(t, res.OK())
	assert.Equal(t, 3, res.Code)
	assert.Equal(t, "oops\n", res.Stderr)
}

func TestRun_Timeout(t *testing.T) {
	r := New()
	start := time.Now()
	res := r.Run(context.Background(), 100*time.Millisecond, "sleep", "5")

	assert.True(t, res.TimedOut)
	assert.False(t, res.OK())
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestRun_MissingBinary(t *testing.T) {
	r := New()
	res := r.Run(context.Background(), time.Second, "definitely-not-a-binary-zz")

	assert.Equal(t, -1, res.Code)
	assert.NotEmpty(t, res.Stderr)
}
