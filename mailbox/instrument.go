// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package mailbox

import (
	"github.com/go-kit/kit/metrics/discard"
	"github.com/xmidt-org/trafficlight/xmetrics"
)

// Option is a configurable option for instrumenting a mailbox
type Option func(*instruments)

type instruments struct {
	sends      xmetrics.Adder
	overwrites xmetrics.Adder
	receives   xmetrics.Adder
}

func newInstruments(o ...Option) instruments {
	i := instruments{
		sends:      discard.NewCounter(),
		overwrites: discard.NewCounter(),
		receives:   discard.NewCounter(),
	}

	for _, f := range o {
		f(&i)
	}

	return i
}

// WithSends establishes a metric that counts every value accepted by Send.
// If a nil counter is supplied, sends are discarded.
func WithSends(a xmetrics.Adder) Option {
	return func(i *instruments) {
		if a != nil {
			i.sends = a
		} else {
			i.sends = discard.NewCounter()
		}
	}
}

// WithOverwrites establishes a metric that counts values discarded by Send before any receiver
// took them.  If a nil counter is supplied, overwrites are discarded.
func WithOverwrites(a xmetrics.Adder) Option {
	return func(i *instruments) {
		if a != nil {
			i.overwrites = a
		} else {
			i.overwrites = discard.NewCounter()
		}
	}
}

// WithReceives establishes a metric that counts values handed to receivers.
// If a nil counter is supplied, receives are discarded.
func WithReceives(a xmetrics.Adder) Option {
	return func(i *instruments) {
		if a != nil {
			i.receives = a
		} else {
			i.receives = discard.NewCounter()
		}
	}
}
