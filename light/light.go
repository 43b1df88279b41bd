// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package light

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/ksuid"
	"github.com/xmidt-org/sallust"
	"github.com/xmidt-org/trafficlight/clock"
	"github.com/xmidt-org/trafficlight/mailbox"
	"github.com/xmidt-org/trafficlight/phase"
	"go.uber.org/zap"
)

const (
	stateIdle int32 = iota
	stateStarted
)

// Light is a single traffic light.  Instances must be created with New.
type Light struct {
	id            string
	logger        *zap.Logger
	clock         clock.Interface
	random        Random
	minCycle      time.Duration
	maxCycle      time.Duration
	granularity   time.Duration
	measures      *Measures
	faultListener FaultListener

	// current holds a phase.Phase.  Only the driver writes it.
	current uint32
	mailbox *mailbox.Mailbox[phase.Phase]

	state int32
	done  chan struct{}

	errLock sync.Mutex
	err     error

	// set only when the light started itself via Simulate
	stopLock  sync.Mutex
	shutdown  chan struct{}
	waitGroup *sync.WaitGroup
}

// New creates a red Light whose driver has not been started.
func New(options ...Option) (*Light, error) {
	l := &Light{
		logger:      sallust.Default(),
		clock:       clock.System(),
		minCycle:    DefaultMinCycle,
		maxCycle:    DefaultMaxCycle,
		granularity: DefaultGranularity,
		measures:    NewDiscardMeasures(),
		current:     uint32(phase.Red),
		done:        make(chan struct{}),
	}

	for _, o := range options {
		o(l)
	}

	if l.minCycle <= 0 || l.maxCycle < l.minCycle || l.granularity <= 0 {
		return nil, ErrInvalidCycle
	}

	if len(l.id) == 0 {
		l.id = ksuid.New().String()
	}

	if l.random == nil {
		l.random = newRandom()
	}

	l.logger = l.logger.With(zap.String(LightLabel, l.id))
	l.measures = l.measures.For(l.id)
	l.measures.Green.Set(0.0)
	l.mailbox = mailbox.New[phase.Phase](
		mailbox.WithSends(l.measures.MailboxSends),
		mailbox.WithOverwrites(l.measures.MailboxOverwrites),
		mailbox.WithReceives(l.measures.MailboxReceives),
	)

	return l, nil
}

// ID returns the unique identifier of this light
func (l *Light) ID() string {
	return l.id
}

// CurrentPhase returns the most recently committed phase.  This method never blocks.
func (l *Light) CurrentPhase() phase.Phase {
	return phase.Phase(atomic.LoadUint32(&l.current))
}

// WaitForGreen blocks until a green phase is received from this light's mailbox.  Red phases
// are received and discarded.  If the driver exits while waiting, either ErrStopped or the
// driver's fault is returned.
//
// Only the latest phase is ever pending, so a caller that begins waiting between two quick
// toggles observes only the most recent one.
func (l *Light) WaitForGreen() error {
	for {
		p, err := l.mailbox.Receive()
		if err != nil {
			return l.waitError(err)
		}

		if p == phase.Green {
			return nil
		}
	}
}

// WaitForGreenCtx is like WaitForGreen, but also returns ctx.Err() if the context is canceled first.
func (l *Light) WaitForGreenCtx(ctx context.Context) error {
	return l.WaitFor(ctx, phase.Green)
}

// WaitFor blocks until the given phase is received from this light's mailbox, discarding any
// other phase, or until the context is canceled.
func (l *Light) WaitFor(ctx context.Context, p phase.Phase) error {
	for {
		received, err := l.mailbox.ReceiveCtx(ctx)
		if err != nil {
			return l.waitError(err)
		}

		if received == p {
			return nil
		}
	}
}

func (l *Light) waitError(err error) error {
	if errors.Is(err, mailbox.ErrClosed) {
		if fault := l.Err(); fault != nil {
			return fault
		}

		return ErrStopped
	}

	return err
}

// Done returns a channel that is closed once the driver has exited.  It is never closed
// for a light that was never started.
func (l *Light) Done() <-chan struct{} {
	return l.done
}

// Err returns the fault that terminated the driver, or nil if the driver has not failed.
func (l *Light) Err() error {
	l.errLock.Lock()
	defer l.errLock.Unlock()
	return l.err
}

func (l *Light) setErr(err error) {
	l.errLock.Lock()
	l.err = err
	l.errLock.Unlock()
}
