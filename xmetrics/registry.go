// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package xmetrics

import (
	"fmt"

	"github.com/go-kit/kit/metrics"
	gokitprometheus "github.com/go-kit/kit/metrics/prometheus"
	"github.com/go-kit/kit/metrics/provider"
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusProvider is a Prometheus-specific version of go-kit's metrics.Provider.  Use this interface
// when interacting directly with Prometheus.
type PrometheusProvider interface {
	NewCounterVec(string) *prometheus.CounterVec
	NewGaugeVec(string) *prometheus.GaugeVec
	NewHistogramVec(string) *prometheus.HistogramVec
}

// Registry is the core abstraction for this package.  It is a Prometheus gatherer and a go-kit metrics.Provider all in one.
//
// For any metric that is already defined the provider returns a new go-kit wrapper for that metric.  Ad hoc metrics,
// which have no labels, are created and cached on first use.
type Registry interface {
	PrometheusProvider
	provider.Provider
	prometheus.Gatherer
	prometheus.Registerer
}

// registry is the internal Registry implementation
type registry struct {
	*prometheus.Registry

	namespace string
	subsystem string
	cache     map[string]prometheus.Collector
}

// NewRegistry creates a Registry, preregistering the metrics from the options and from each module.
// Metric names must be unique, as the provider methods look metrics up by name alone.
func NewRegistry(o *Options, modules ...Module) (Registry, error) {
	r := &registry{
		Registry:  o.registry(),
		namespace: o.namespace(),
		subsystem: o.subsystem(),
		cache:     make(map[string]prometheus.Collector),
	}

	for _, module := range append([]Module{o.Module}, modules...) {
		for _, m := range module() {
			if err := r.preregister(m); err != nil {
				return nil, err
			}
		}
	}

	return r, nil
}

func (r *registry) preregister(m Metric) error {
	if len(m.Namespace) == 0 {
		m.Namespace = r.namespace
	}

	if len(m.Subsystem) == 0 {
		m.Subsystem = r.subsystem
	}

	if _, ok := r.cache[m.Name]; ok {
		return fmt.Errorf("duplicate metric with name: %s", m.Name)
	}

	c, err := NewCollector(m)
	if err != nil {
		return err
	}

	if err := r.Registry.Register(c); err != nil {
		return fmt.Errorf("error while preregistering metric %s: %w", m.Name, err)
	}

	r.cache[m.Name] = c
	return nil
}

// adHoc returns the cached collector for name, creating and registering a label-less one of the given type if necessary.
func (r *registry) adHoc(name, metricType string) prometheus.Collector {
	if existing, ok := r.cache[name]; ok {
		return existing
	}

	c, err := NewCollector(Metric{
		Name:      name,
		Type:      metricType,
		Namespace: r.namespace,
		Subsystem: r.subsystem,
	})

	if err != nil {
		panic(err)
	}

	if err := r.Registry.Register(c); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			c = already.ExistingCollector
		} else {
			panic(err)
		}
	}

	r.cache[name] = c
	return c
}

func (r *registry) NewCounterVec(name string) *prometheus.CounterVec {
	counterVec, ok := r.adHoc(name, CounterType).(*prometheus.CounterVec)
	if !ok {
		panic(fmt.Errorf("the metric %s is not a counter", name))
	}

	return counterVec
}

func (r *registry) NewCounter(name string) metrics.Counter {
	return gokitprometheus.NewCounter(r.NewCounterVec(name))
}

func (r *registry) NewGaugeVec(name string) *prometheus.GaugeVec {
	gaugeVec, ok := r.adHoc(name, GaugeType).(*prometheus.GaugeVec)
	if !ok {
		panic(fmt.Errorf("the metric %s is not a gauge", name))
	}

	return gaugeVec
}

func (r *registry) NewGauge(name string) metrics.Gauge {
	return gokitprometheus.NewGauge(r.NewGaugeVec(name))
}

func (r *registry) NewHistogramVec(name string) *prometheus.HistogramVec {
	histogramVec, ok := r.adHoc(name, HistogramType).(*prometheus.HistogramVec)
	if !ok {
		panic(fmt.Errorf("the metric %s is not a histogram", name))
	}

	return histogramVec
}

// NewHistogram ignores the buckets parameter.  Buckets for preregistered histograms come from the Metric.
func (r *registry) NewHistogram(name string, _ int) metrics.Histogram {
	return gokitprometheus.NewHistogram(r.NewHistogramVec(name))
}

func (r *registry) Stop() {
}
