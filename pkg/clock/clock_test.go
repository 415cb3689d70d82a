package clock_test

import (
	"testing"
	"time"

	"github.com/aretw0/yerf/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonotonic_NonDecreasing(t *testing.T) {
	c := clock.Monotonic{}
	prev := c.Now()
	for i := 0; i < 1000; i++ {
		next := c.Now()
		require.GreaterOrEqual(t, next, prev)
		prev = next
	}
}

func TestWall_NonDecreasing(t *testing.T) {
	c := clock.NewWall()
	prev := c.Now()
	for i := 0; i < 1000; i++ {
		next := c.Now()
		require.GreaterOrEqual(t, next, prev)
		prev = next
	}
}

func TestToInternal(t *testing.T) {
	boot := clock.Boot()

	t.Run("after boot", func(t *testing.T) {
		got := clock.Monotonic{}.ToInternal(boot.Add(250 * time.Millisecond))
		assert.Equal(t, 250*time.Millisecond, got)
	})

	t.Run("before boot clamps to zero", func(t *testing.T) {
		got := clock.NewWall().ToInternal(boot.Add(-time.Hour))
		assert.Equal(t, time.Duration(0), got)
	})
}

func TestParse(t *testing.T) {
	c, err := clock.Parse("")
	require.NoError(t, err)
	assert.IsType(t, clock.Monotonic{}, c)

	c, err = clock.Parse("WALL")
	require.NoError(t, err)
	assert.IsType(t, &clock.Wall{}, c)

	_, err = clock.Parse("sundial")
	assert.Error(t, err)
}

func TestSequence(t *testing.T) {
	c := clock.Millis(100, 200)
	assert.Equal(t, 100*time.Millisecond, c.Now())
	assert.Equal(t, 200*time.Millisecond, c.Now())
	assert.Equal(t, 200*time.Millisecond, c.Now(), "keeps the last value once exhausted")
	assert.Equal(t, 3, c.Calls())
}

func TestManual(t *testing.T) {
	c := clock.NewManual(10 * time.Millisecond)
	c.Advance(5 * time.Millisecond)
	assert.Equal(t, 15*time.Millisecond, c.Now())

	c.Set(5 * time.Millisecond)
	assert.Equal(t, 15*time.Millisecond, c.Now(), "never moves backwards")

	c.Set(40 * time.Millisecond)
	assert.Equal(t, 40*time.Millisecond, c.Now())
}
