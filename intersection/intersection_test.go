// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package intersection

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xmidt-org/trafficlight/concurrent"
	"github.com/xmidt-org/trafficlight/light"
	"go.uber.org/zap/zaptest"
)

func fastCycle() light.Option {
	return light.WithCycle(time.Millisecond, 3*time.Millisecond)
}

func newTestLight(t *testing.T, id string) *light.Light {
	l, err := light.New(light.WithID(id), fastCycle(), light.WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	return l
}

func TestNew(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		i, err := New()
		require.NoError(t, err)
		assert.Zero(t, i.Len())
		assert.Empty(t, i.Lights())
	})

	t.Run("WithLights", func(t *testing.T) {
		var (
			assert  = assert.New(t)
			require = require.New(t)
		)

		i, err := New(
			WithLogger(zaptest.NewLogger(t)),
			WithLights(newTestLight(t, "south"), newTestLight(t, "north")),
		)

		require.NoError(err)
		require.Equal(2, i.Len())

		lights := i.Lights()
		assert.Equal("north", lights[0].ID())
		assert.Equal("south", lights[1].ID())
	})

	t.Run("Duplicate", func(t *testing.T) {
		i, err := New(WithLights(newTestLight(t, "north"), newTestLight(t, "north")))
		assert.Nil(t, i)
		assert.True(t, errors.Is(err, ErrDuplicateLight))
	})
}

func TestAdd(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)
	)

	i, err := New(WithLogger(zaptest.NewLogger(t)))
	require.NoError(err)

	north := newTestLight(t, "north")
	require.NoError(i.Add(north))

	err = i.Add(newTestLight(t, "east"), newTestLight(t, "north"))
	assert.True(errors.Is(err, ErrDuplicateLight))
	assert.Equal(1, i.Len(), "a failed Add must not add any lights")

	actual, ok := i.Light("north")
	assert.True(ok)
	assert.Equal(north, actual)

	_, ok = i.Light("east")
	assert.False(ok)

	require.NoError(i.Start())
	assert.Equal(ErrStarted, i.Add(newTestLight(t, "west")))
	assert.NoError(i.Stop(time.Second))
}

func TestNewLight(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)
	)

	i, err := New(WithLogger(zaptest.NewLogger(t)), WithLightOptions(fastCycle()))
	require.NoError(err)

	l, err := i.NewLight(light.WithID("north"))
	require.NoError(err)
	assert.Equal("north", l.ID())

	_, err = i.NewLight(light.WithID("north"))
	assert.True(errors.Is(err, ErrDuplicateLight))

	_, err = i.NewLight(light.WithCycle(time.Second, time.Millisecond))
	assert.Equal(light.ErrInvalidCycle, err)

	generated, err := i.NewLight()
	require.NoError(err)
	assert.NotEmpty(generated.ID())
	assert.Equal(2, i.Len())
}

func TestStartStop(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)
		ids     = []string{"east", "north", "south", "west"}
	)

	i, err := New(WithLogger(zaptest.NewLogger(t)), WithLightOptions(fastCycle()))
	require.NoError(err)
	for _, id := range ids {
		_, err := i.NewLight(light.WithID(id))
		require.NoError(err)
	}

	require.NoError(i.Start())
	assert.Equal(ErrStarted, i.Start())

	waiters := new(sync.WaitGroup)
	waiters.Add(len(ids))
	for _, l := range i.Lights() {
		go func(l *light.Light) {
			defer waiters.Done()
			assert.NoError(l.WaitForGreen())
		}(l)
	}

	require.True(concurrent.WaitTimeout(waiters, 5*time.Second), "every light should turn green")
	require.NoError(i.Stop(time.Second))
	assert.NoError(i.Stop(time.Second), "Stop should be idempotent")

	for _, l := range i.Lights() {
		select {
		case <-l.Done():
		default:
			assert.Fail("a driver is still running", "light: %s", l.ID())
		}

		assert.Equal(light.ErrStopped, l.WaitForGreen())
		assert.True(l.CurrentPhase().IsValid())
	}

	assert.Equal(ErrStarted, i.Start(), "an intersection cannot be restarted")
}

func TestStartFailure(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)
		running = newTestLight(t, "running")
	)

	i, err := New(WithLogger(zaptest.NewLogger(t)), WithLights(running))
	require.NoError(err)

	// a light that is already running cannot be registered with a second owner
	require.NoError(running.Simulate())
	defer running.Stop()

	assert.Equal(light.ErrAlreadyStarted, i.Start())
	assert.NoError(i.Stop(time.Second))
}

func TestRun(t *testing.T) {
	var (
		assert    = assert.New(t)
		require   = require.New(t)
		waitGroup = new(sync.WaitGroup)
		shutdown  = make(chan struct{})
	)

	i, err := New(WithLogger(zaptest.NewLogger(t)), WithLights(newTestLight(t, "north")))
	require.NoError(err)

	require.NoError(concurrent.RunnableSet{i}.Run(waitGroup, shutdown))
	assert.Equal(ErrStarted, i.Run(waitGroup, shutdown))
	assert.NoError(i.Stop(time.Second), "Stop has no effect on an externally run intersection")

	l, _ := i.Light("north")
	require.NoError(l.WaitForGreen())

	close(shutdown)
	assert.True(concurrent.WaitTimeout(waitGroup, time.Second))
}

type panicRandom struct{}

func (panicRandom) Int63n(int64) int64 {
	panic("entropy exhausted")
}

func TestFaults(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)
	)

	i, err := New(WithLogger(zaptest.NewLogger(t)), WithFaultBuffer(1))
	require.NoError(err)

	_, err = i.NewLight(light.WithID("broken"), light.WithRandom(panicRandom{}))
	require.NoError(err)
	_, err = i.NewLight(light.WithID("alsobroken"), light.WithRandom(panicRandom{}))
	require.NoError(err)
	healthy, err := i.NewLight(light.WithID("healthy"), fastCycle())
	require.NoError(err)

	require.NoError(i.Start())

	select {
	case fault := <-i.Faults():
		assert.True(errors.Is(fault, light.ErrDriverFault))
		assert.Contains(fault.Error(), "broken")
	case <-time.After(time.Second):
		require.FailNow("no fault was surfaced")
	}

	for _, id := range []string{"broken", "alsobroken"} {
		l, _ := i.Light(id)
		<-l.Done()
		assert.True(errors.Is(l.Err(), light.ErrDriverFault))
	}

	// a fault in one light does not affect the others
	assert.NoError(healthy.WaitForGreen())
	assert.NoError(i.Stop(time.Second))
}

func TestNewFromOptions(t *testing.T) {
	t.Run("Count", func(t *testing.T) {
		var (
			assert  = assert.New(t)
			require = require.New(t)
		)

		i, err := NewFromOptions(Options{Lights: 3}, light.Options{}, WithLogger(zaptest.NewLogger(t)))
		require.NoError(err)
		assert.Equal(3, i.Len())
	})

	t.Run("Default", func(t *testing.T) {
		i, err := NewFromOptions(Options{}, light.Options{})
		require.NoError(t, err)
		assert.Equal(t, DefaultLights, i.Len())
	})

	t.Run("Viper", func(t *testing.T) {
		var (
			assert  = assert.New(t)
			require = require.New(t)
			v       = viper.New()
		)

		v.Set(IntersectionKey, map[string]interface{}{"ids": "north,south", "faultBuffer": 4})
		v.Set(light.LightKey, map[string]interface{}{"minCycle": "1ms", "maxCycle": "3ms"})

		o, err := FromViper(v)
		require.NoError(err)
		assert.Equal([]string{"north", "south"}, o.IDs)
		assert.Equal(4, o.FaultBuffer)

		lo, err := light.FromViper(v)
		require.NoError(err)

		i, err := NewFromOptions(o, lo, WithLogger(zaptest.NewLogger(t)))
		require.NoError(err)
		require.Equal(2, i.Len())
		assert.Equal(4, cap(i.faults))

		require.NoError(i.Start())
		north, ok := i.Light("north")
		require.True(ok)
		assert.NoError(north.WaitForGreen())
		assert.NoError(i.Stop(time.Second))
	})

	t.Run("Duplicate", func(t *testing.T) {
		i, err := NewFromOptions(Options{IDs: []string{"north", "north"}}, light.Options{})
		assert.Nil(t, i)
		assert.True(t, errors.Is(err, ErrDuplicateLight))
	})
}
