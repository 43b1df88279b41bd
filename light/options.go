// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package light

import (
	"math/rand"
	"time"

	"github.com/spf13/viper"
	"github.com/xmidt-org/sallust"
	"github.com/xmidt-org/trafficlight/clock"
	"github.com/xmidt-org/trafficlight/xviper"
	"go.uber.org/zap"
)

const (
	DefaultMinCycle    = 4 * time.Second
	DefaultMaxCycle    = 6 * time.Second
	DefaultGranularity = time.Millisecond

	// LightKey is the Viper subkey under which light configuration is stored
	LightKey = "light"
)

// Options is the externally configurable portion of a Light.  Zero values take on the defaults.
// These values are fixed once a Light is constructed.
type Options struct {
	// MinCycle is the shortest time a light stays in one phase
	MinCycle time.Duration `mapstructure:"minCycle"`

	// MaxCycle is the longest time a light stays in one phase
	MaxCycle time.Duration `mapstructure:"maxCycle"`

	// Granularity is the resolution of drawn cycle durations
	Granularity time.Duration `mapstructure:"granularity"`
}

func (o Options) minCycle() time.Duration {
	if o.MinCycle > 0 {
		return o.MinCycle
	}

	return DefaultMinCycle
}

func (o Options) maxCycle() time.Duration {
	if o.MaxCycle > 0 {
		return o.MaxCycle
	}

	return DefaultMaxCycle
}

func (o Options) granularity() time.Duration {
	if o.Granularity > 0 {
		return o.Granularity
	}

	return DefaultGranularity
}

// FromViper unmarshals Options from the LightKey subtree of a (possibly nil) Viper instance
func FromViper(v *viper.Viper) (Options, error) {
	var o Options
	err := xviper.UnmarshalKey(v, LightKey, &o)
	return o, err
}

// Random is the source of cycle durations.  *rand.Rand implements this interface.
// A Random is only ever used by a single driver goroutine.
type Random interface {
	Int63n(int64) int64
}

// FaultListener is notified when a light's driver fails.  It is invoked on the driver goroutine
// just before the driver exits.
type FaultListener func(id string, err error)

// Option is a configuration option for a Light
type Option func(*Light)

// WithID sets the light's identifier.  If empty, a unique identifier is generated.
func WithID(id string) Option {
	return func(l *Light) {
		l.id = id
	}
}

// WithLogger sets the zap Logger for this light.  The logger is enriched with the light's
// identifier.  If nil, the default logger is used instead.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Light) {
		if logger == nil {
			l.logger = sallust.Default()
		} else {
			l.logger = logger
		}
	}
}

// WithClock sets the time source of the driver.  If nil, the system clock is used.
func WithClock(c clock.Interface) Option {
	return func(l *Light) {
		if c == nil {
			l.clock = clock.System()
		} else {
			l.clock = c
		}
	}
}

// WithRandom sets the source of cycle durations.  If nil, a time-seeded source is used.
func WithRandom(r Random) Option {
	return func(l *Light) {
		if r == nil {
			l.random = newRandom()
		} else {
			l.random = r
		}
	}
}

// WithCycle sets the inclusive bounds of each drawn cycle duration
func WithCycle(min, max time.Duration) Option {
	return func(l *Light) {
		l.minCycle = min
		l.maxCycle = max
	}
}

// WithGranularity sets the resolution of drawn cycle durations
func WithGranularity(g time.Duration) Option {
	return func(l *Light) {
		l.granularity = g
	}
}

// WithOptions applies externally configured Options, using defaults for unset fields
func WithOptions(o Options) Option {
	return func(l *Light) {
		l.minCycle = o.minCycle()
		l.maxCycle = o.maxCycle()
		l.granularity = o.granularity()
	}
}

// WithMeasures sets the metrics for this light.  If nil, metrics are discarded.
func WithMeasures(m *Measures) Option {
	return func(l *Light) {
		if m == nil {
			l.measures = NewDiscardMeasures()
		} else {
			l.measures = m
		}
	}
}

// WithFaultListener sets the listener notified of driver faults.  If nil, faults are only logged.
func WithFaultListener(f FaultListener) Option {
	return func(l *Light) {
		l.faultListener = f
	}
}

func newRandom() Random {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
