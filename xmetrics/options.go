// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package xmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/viper"
)

const (
	DefaultNamespace = "trafficlight"
	DefaultSubsystem = "simulation"

	// MetricsKey is the Viper subkey under which metrics configuration is stored
	MetricsKey = "metrics"
)

// Options is the configurable options for creating a Prometheus registry
type Options struct {
	// Namespace is the default namespace for metrics which don't define one.  If not supplied,
	// DefaultNamespace is used.
	Namespace string

	// Subsystem is the default subsystem for metrics which don't define one.  If not supplied,
	// DefaultSubsystem is used.
	Subsystem string

	// Pedantic indicates whether the registry is created via NewPedanticRegistry().  Set to true
	// for testing or development.
	Pedantic bool

	// DisableGoCollector controls whether the Go Collector is registered with the Registry.
	DisableGoCollector bool

	// DisableProcessCollector controls whether the Process Collector is registered with the Registry.
	DisableProcessCollector bool

	// Metrics defines additional predefined metrics, registered alongside any modules.
	Metrics []Metric
}

// FromViper produces Options from a (possibly nil) Viper instance, using MetricsKey as the subkey.
func FromViper(v *viper.Viper) (*Options, error) {
	o := new(Options)
	if v != nil {
		if sub := v.Sub(MetricsKey); sub != nil {
			if err := sub.Unmarshal(o); err != nil {
				return nil, err
			}
		}
	}

	return o, nil
}

func (o *Options) namespace() string {
	if o != nil && len(o.Namespace) > 0 {
		return o.Namespace
	}

	return DefaultNamespace
}

func (o *Options) subsystem() string {
	if o != nil && len(o.Subsystem) > 0 {
		return o.Subsystem
	}

	return DefaultSubsystem
}

func (o *Options) registry() *prometheus.Registry {
	var pr *prometheus.Registry
	if o != nil && o.Pedantic {
		pr = prometheus.NewPedanticRegistry()
	} else {
		pr = prometheus.NewRegistry()
	}

	if o == nil || !o.DisableGoCollector {
		pr.MustRegister(collectors.NewGoCollector())
	}

	if o == nil || !o.DisableProcessCollector {
		pr.MustRegister(collectors.NewProcessCollector(
			collectors.ProcessCollectorOpts{Namespace: o.namespace()},
		))
	}

	return pr
}

// Module acts as a metrics module function using the configured metrics.
func (o *Options) Module() []Metric {
	if o != nil {
		return o.Metrics
	}

	return nil
}
