// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package light

import (
	"math/rand"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xmidt-org/trafficlight/phase"
	"go.uber.org/zap/zaptest"
)

// edgeRandom always draws either the smallest or the largest value
type edgeRandom bool

func (er edgeRandom) Int63n(n int64) int64 {
	if er {
		return n - 1
	}

	return 0
}

func testNewDefaults(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)
	)

	l, err := New()
	require.NoError(err)
	require.NotNil(l)

	assert.NotEmpty(l.ID())
	assert.Equal(phase.Red, l.CurrentPhase())
	assert.Equal(DefaultMinCycle, l.minCycle)
	assert.Equal(DefaultMaxCycle, l.maxCycle)
	assert.Equal(DefaultGranularity, l.granularity)
	assert.NoError(l.Err())

	other, err := New()
	require.NoError(err)
	assert.NotEqual(l.ID(), other.ID())
}

func testNewCustom(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)
	)

	l, err := New(
		WithID("north"),
		WithLogger(zaptest.NewLogger(t)),
		WithCycle(20*time.Millisecond, 40*time.Millisecond),
		WithGranularity(2*time.Millisecond),
		WithRandom(nil),
		WithClock(nil),
		WithMeasures(nil),
	)

	require.NoError(err)
	assert.Equal("north", l.ID())
	assert.Equal(20*time.Millisecond, l.minCycle)
	assert.Equal(40*time.Millisecond, l.maxCycle)
	assert.Equal(2*time.Millisecond, l.granularity)
}

func testNewInvalidCycle(t *testing.T) {
	testData := []struct {
		min, max, granularity time.Duration
	}{
		{0, time.Second, time.Millisecond},
		{-time.Second, time.Second, time.Millisecond},
		{2 * time.Second, time.Second, time.Millisecond},
		{time.Second, 2 * time.Second, 0},
	}

	for i, record := range testData {
		t.Run(string(rune('A'+i)), func(t *testing.T) {
			l, err := New(WithCycle(record.min, record.max), WithGranularity(record.granularity))
			assert.Nil(t, l)
			assert.Equal(t, ErrInvalidCycle, err)
		})
	}
}

func TestNew(t *testing.T) {
	t.Run("Defaults", testNewDefaults)
	t.Run("Custom", testNewCustom)
	t.Run("InvalidCycle", testNewInvalidCycle)
}

func TestCurrentPhaseBeforeStart(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)
	)

	l, err := New()
	require.NoError(err)
	for i := 0; i < 3; i++ {
		assert.Equal(phase.Red, l.CurrentPhase())
	}

	select {
	case <-l.Done():
		assert.Fail("Done should not be closed for a light that was never started")
	default:
	}
}

func testNextCycleRange(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)
	)

	l, err := New(WithRandom(rand.New(rand.NewSource(1234))))
	require.NoError(err)

	var low, high bool
	for i := 0; i < 10000; i++ {
		cycle := l.nextCycle()
		require.True(cycle >= DefaultMinCycle && cycle <= DefaultMaxCycle, "cycle out of range: %s", cycle)
		require.Zero(cycle%DefaultGranularity, "cycle not a multiple of the granularity: %s", cycle)

		low = low || cycle < 4500*time.Millisecond
		high = high || cycle > 5500*time.Millisecond
	}

	assert.True(low, "no draws from the lower quarter of the range")
	assert.True(high, "no draws from the upper quarter of the range")
}

func testNextCycleEdges(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)
	)

	l, err := New(WithRandom(edgeRandom(false)))
	require.NoError(err)
	assert.Equal(DefaultMinCycle, l.nextCycle())

	l, err = New(WithRandom(edgeRandom(true)))
	require.NoError(err)
	assert.Equal(DefaultMaxCycle, l.nextCycle())

	l, err = New(WithRandom(edgeRandom(true)), WithCycle(time.Second, time.Second))
	require.NoError(err)
	assert.Equal(time.Second, l.nextCycle())
}

func TestNextCycle(t *testing.T) {
	t.Run("Range", testNextCycleRange)
	t.Run("Edges", testNextCycleEdges)
}

func TestFromViper(t *testing.T) {
	t.Run("Nil", func(t *testing.T) {
		o, err := FromViper(nil)
		assert.NoError(t, err)
		assert.Equal(t, Options{}, o)
	})

	t.Run("Configured", func(t *testing.T) {
		var (
			assert  = assert.New(t)
			require = require.New(t)
			v       = viper.New()
		)

		v.Set(LightKey, map[string]interface{}{
			"minCycle": "20ms",
			"maxCycle": "40ms",
		})

		o, err := FromViper(v)
		require.NoError(err)
		assert.Equal(20*time.Millisecond, o.MinCycle)
		assert.Equal(40*time.Millisecond, o.MaxCycle)
		assert.Zero(o.Granularity)

		l, err := New(WithOptions(o))
		require.NoError(err)
		assert.Equal(20*time.Millisecond, l.minCycle)
		assert.Equal(40*time.Millisecond, l.maxCycle)
		assert.Equal(DefaultGranularity, l.granularity)
	})
}
