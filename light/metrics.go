// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package light

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/provider"
	"github.com/xmidt-org/trafficlight/phase"
	"github.com/xmidt-org/trafficlight/xmetrics"
	"go.uber.org/fx"
)

// Names for our metrics
const (
	PhaseTogglesCounter      = "phase_toggles"
	PhaseGreenGauge          = "phase_green"
	PhaseCycleHistogram      = "phase_cycle_seconds"
	MailboxSendsCounter      = "mailbox_sends"
	MailboxOverwritesCounter = "mailbox_overwrites"
	MailboxReceivesCounter   = "mailbox_receives"
	DriverFaultsCounter      = "driver_faults"
)

// LightLabel is the label carrying a light's identifier on every metric in this package
const LightLabel = "light"

// Metrics returns the Metrics relevant to this package.  Use it as an xmetrics.Module
// and NewMeasures to realize the metrics.
func Metrics() []xmetrics.Metric {
	return []xmetrics.Metric{
		{
			Name:       PhaseTogglesCounter,
			Type:       xmetrics.CounterType,
			Help:       "The total number of phase changes",
			LabelNames: []string{LightLabel},
		},
		{
			Name:       PhaseGreenGauge,
			Type:       xmetrics.GaugeType,
			Help:       "1 while the light is green, 0 while it is red",
			LabelNames: []string{LightLabel},
		},
		{
			Name:       PhaseCycleHistogram,
			Type:       xmetrics.HistogramType,
			Help:       "The realized duration of each phase, in seconds",
			Buckets:    []float64{1, 2, 3, 4, 4.5, 5, 5.5, 6, 7, 8},
			LabelNames: []string{LightLabel},
		},
		{
			Name:       MailboxSendsCounter,
			Type:       xmetrics.CounterType,
			Help:       "The total number of phases published to a light's mailbox",
			LabelNames: []string{LightLabel},
		},
		{
			Name:       MailboxOverwritesCounter,
			Type:       xmetrics.CounterType,
			Help:       "The total number of published phases replaced before any waiter received them",
			LabelNames: []string{LightLabel},
		},
		{
			Name:       MailboxReceivesCounter,
			Type:       xmetrics.CounterType,
			Help:       "The total number of phases received by waiters",
			LabelNames: []string{LightLabel},
		},
		{
			Name:       DriverFaultsCounter,
			Type:       xmetrics.CounterType,
			Help:       "The total number of phase cycle drivers that terminated due to a fault",
			LabelNames: []string{LightLabel},
		},
	}
}

// Measures describes the defined metrics that will be used by lights.  Each metric
// is expected to accept the LightLabel.
type Measures struct {
	Toggles           metrics.Counter
	Green             metrics.Gauge
	Cycle             metrics.Histogram
	MailboxSends      metrics.Counter
	MailboxOverwrites metrics.Counter
	MailboxReceives   metrics.Counter
	Faults            metrics.Counter
}

// NewMeasures realizes desired metrics from a provider, typically an xmetrics.Registry
// preregistered with Metrics.
func NewMeasures(p provider.Provider) *Measures {
	return &Measures{
		Toggles:           p.NewCounter(PhaseTogglesCounter),
		Green:             p.NewGauge(PhaseGreenGauge),
		Cycle:             p.NewHistogram(PhaseCycleHistogram, 0),
		MailboxSends:      p.NewCounter(MailboxSendsCounter),
		MailboxOverwrites: p.NewCounter(MailboxOverwritesCounter),
		MailboxReceives:   p.NewCounter(MailboxReceivesCounter),
		Faults:            p.NewCounter(DriverFaultsCounter),
	}
}

// NewDiscardMeasures returns Measures that discard everything
func NewDiscardMeasures() *Measures {
	return &Measures{
		Toggles:           discard.NewCounter(),
		Green:             discard.NewGauge(),
		Cycle:             discard.NewHistogram(),
		MailboxSends:      discard.NewCounter(),
		MailboxOverwrites: discard.NewCounter(),
		MailboxReceives:   discard.NewCounter(),
		Faults:            discard.NewCounter(),
	}
}

// For curries every metric with the given light identifier
func (m *Measures) For(id string) *Measures {
	return &Measures{
		Toggles:           m.Toggles.With(LightLabel, id),
		Green:             m.Green.With(LightLabel, id),
		Cycle:             m.Cycle.With(LightLabel, id),
		MailboxSends:      m.MailboxSends.With(LightLabel, id),
		MailboxOverwrites: m.MailboxOverwrites.With(LightLabel, id),
		MailboxReceives:   m.MailboxReceives.With(LightLabel, id),
		Faults:            m.Faults.With(LightLabel, id),
	}
}

func (m *Measures) observeToggle(p phase.Phase, cycleSeconds float64) {
	m.Toggles.Add(1.0)
	m.Cycle.Observe(cycleSeconds)
	if p == phase.Green {
		m.Green.Set(1.0)
	} else {
		m.Green.Set(0.0)
	}
}

// MeasuresIn is the set of dependencies needed to produce Measures in an uber/fx application
type MeasuresIn struct {
	fx.In
	Registry xmetrics.Registry
}

// ProvideMetrics provides *Measures as an uber/fx component.  The xmetrics.Registry in
// the enclosing application must have been created with Metrics as a module.
func ProvideMetrics() fx.Option {
	return fx.Provide(
		func(in MeasuresIn) *Measures {
			return NewMeasures(in.Registry)
		},
	)
}
