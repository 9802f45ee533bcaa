package clock

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

const testTick = 5 * time.Millisecond

func TestClock_CountsDownAndExpires(t *testing.T) {
	t.Parallel()

	expired := make(chan struct{})
	c := New(4*testTick, WithTick(testTick), WithExpiry(func() { close(expired) }))

	c.Start()
	assert.True(t, c.Running())

	select {
	case <-expired:
	case <-time.After(time.Second):
		t.Fatal("clock did not expire")
	}
	assert.Equal(t, time.Duration(0), c.Remaining())
	assert.True(t, c.Expired())
	assert.False(t, c.Running())
}

func TestClock_StopKeepsRemaining(t *testing.T) {
	t.Parallel()

	c := New(time.Hour, WithTick(testTick))
	c.Start()
	time.Sleep(4 * testTick)
	c.Stop()

	left := c.Remaining()
	assert.Less(t, left, time.Hour)
	assert.False(t, c.Running())

	time.Sleep(4 * testTick)
	assert.Equal(t, left, c.Remaining(), "stopped clock must not tick")
}

func TestClock_ResetStopsAndSets(t *testing.T) {
	t.Parallel()

	c := New(time.Hour, WithTick(testTick))
	c.Start()
	c.Reset(10 * time.Minute)

	assert.False(t, c.Running())
	assert.Equal(t, 10*time.Minute, c.Remaining())
}

func TestClock_ZeroNeverStarts(t *testing.T) {
	t.Parallel()

	var fired atomic.Bool
	c := New(0, WithTick(testTick), WithExpiry(func() { fired.Store(true) }))
	c.Start()

	assert.False(t, c.Running())
	time.Sleep(3 * testTick)
	assert.False(t, fired.Load())
	assert.Equal(t, time.Duration(0), c.Remaining())
}

func TestClock_RestartDoesNotDoubleCount(t *testing.T) {
	t.Parallel()

	c := New(time.Hour, WithTick(testTick))
	for range 20 {
		c.Start()
	}
	time.Sleep(10 * testTick)
	c.Stop()

	// a single countdown loses at most one tick per elapsed tick
	elapsed := time.Hour - c.Remaining()
	assert.LessOrEqual(t, elapsed, 14*testTick)
}

func TestClock_ExpiryMayStopClock(t *testing.T) {
	t.Parallel()

	var c *Clock
	done := make(chan struct{})
	c = New(2*testTick, WithTick(testTick), WithExpiry(func() {
		c.Stop()
		c.Reset(time.Minute)
		close(done)
	}))
	c.Start()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expiry callback deadlocked")
	}
	require.Equal(t, time.Minute, c.Remaining())
}

func TestProperty_RemainingNeverNegative(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := New(time.Duration(rapid.IntRange(0, 6).Draw(t, "ticks"))*time.Millisecond, WithTick(time.Millisecond))
		ops := rapid.SliceOfN(rapid.IntRange(0, 3), 1, 12).Draw(t, "ops")

		for _, op := range ops {
			switch op {
			case 0:
				c.Start()
			case 1:
				c.Stop()
			case 2:
				c.Reset(time.Duration(rapid.IntRange(0, 6).Draw(t, "reset")) * time.Millisecond)
			case 3:
				time.Sleep(time.Millisecond)
			}
			if c.Remaining() < 0 {
				t.Fatalf("remaining went negative: %v", c.Remaining())
			}
		}
		c.Stop()
		if c.Running() {
			t.Fatalf("clock still running after Stop")
		}
	})
}
