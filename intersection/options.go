// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package intersection

import (
	"github.com/spf13/viper"
	"github.com/xmidt-org/sallust"
	"github.com/xmidt-org/trafficlight/light"
	"github.com/xmidt-org/trafficlight/xviper"
	"go.uber.org/zap"
)

const (
	// IntersectionKey is the Viper subkey under which intersection configuration is stored
	IntersectionKey = "intersection"

	DefaultLights = 1
)

// Options is the externally configurable portion of an Intersection
type Options struct {
	// Lights is the number of lights to create with generated identifiers.  Ignored if IDs is set.
	Lights int `mapstructure:"lights"`

	// IDs lists the identifiers of the lights to create
	IDs []string `mapstructure:"ids"`

	// FaultBuffer is the capacity of the Faults channel
	FaultBuffer int `mapstructure:"faultBuffer"`
}

func (o Options) lightIDs() []string {
	if len(o.IDs) > 0 {
		return o.IDs
	}

	count := o.Lights
	if count < 1 {
		count = DefaultLights
	}

	// empty identifiers are generated by the light package
	return make([]string, count)
}

// FromViper unmarshals Options from the IntersectionKey subtree of a (possibly nil) Viper instance
func FromViper(v *viper.Viper) (Options, error) {
	var o Options
	err := xviper.UnmarshalKey(v, IntersectionKey, &o)
	return o, err
}

// Option is a configuration option for an Intersection
type Option func(*Intersection)

// WithLogger sets the zap Logger for the intersection and the lights it creates.  If nil,
// the default logger is used.
func WithLogger(logger *zap.Logger) Option {
	return func(i *Intersection) {
		if logger == nil {
			i.logger = sallust.Default()
		} else {
			i.logger = logger
		}
	}
}

// WithLightOptions appends options applied to every light created by NewLight
func WithLightOptions(options ...light.Option) Option {
	return func(i *Intersection) {
		i.lightOptions = append(i.lightOptions, options...)
	}
}

// WithMeasures sets the metrics shared by every light created by NewLight
func WithMeasures(m *light.Measures) Option {
	return WithLightOptions(light.WithMeasures(m))
}

// WithFaultBuffer sets the capacity of the Faults channel.  Nonpositive values use DefaultFaultBuffer.
func WithFaultBuffer(size int) Option {
	return func(i *Intersection) {
		if size < 1 {
			size = DefaultFaultBuffer
		}

		i.faults = make(chan error, size)
	}
}

// WithLights adds already constructed lights.  Lights added this way report faults to this
// intersection only if they were built with its FaultListener.  Use NewLight where possible.
func WithLights(lights ...*light.Light) Option {
	return func(i *Intersection) {
		i.pending = append(i.pending, lights...)
	}
}

// NewFromOptions creates an intersection together with the lights described by o.  Every light
// is configured with lo.
func NewFromOptions(o Options, lo light.Options, options ...Option) (*Intersection, error) {
	i, err := New(append(
		[]Option{WithFaultBuffer(o.FaultBuffer), WithLightOptions(light.WithOptions(lo))},
		options...,
	)...)

	if err != nil {
		return nil, err
	}

	for _, id := range o.lightIDs() {
		if _, err := i.NewLight(light.WithID(id)); err != nil {
			return nil, err
		}
	}

	return i, nil
}
