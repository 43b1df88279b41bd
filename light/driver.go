// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package light

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xmidt-org/trafficlight/concurrent"
	"github.com/xmidt-org/trafficlight/phase"
	"go.uber.org/zap"
)

var _ concurrent.Runnable = (*Light)(nil)

// Simulate starts this light's driver on its own goroutine and returns immediately.  The light
// owns the driver, and Stop joins it.  A light can be started only once:  subsequent calls to
// Simulate or Run return ErrAlreadyStarted without starting anything.
func (l *Light) Simulate() error {
	waitGroup, shutdown, err := concurrent.Execute(l)
	if err != nil {
		close(shutdown)
		return err
	}

	l.stopLock.Lock()
	l.waitGroup, l.shutdown = waitGroup, shutdown
	l.stopLock.Unlock()
	return nil
}

// Stop signals a driver started via Simulate and waits for it to exit.  This method is idempotent.
// It has no effect on a light started through Run, whose owner stops it by closing its shutdown channel.
func (l *Light) Stop() {
	l.stopLock.Lock()
	waitGroup, shutdown := l.waitGroup, l.shutdown
	l.waitGroup, l.shutdown = nil, nil
	l.stopLock.Unlock()

	if shutdown != nil {
		close(shutdown)
		waitGroup.Wait()
	}
}

// Run starts this light's driver, registering it with the owner's WaitGroup.  The driver exits
// when shutdown is closed.  This is the form used by owners that manage several lights.
func (l *Light) Run(waitGroup *sync.WaitGroup, shutdown <-chan struct{}) error {
	if !atomic.CompareAndSwapInt32(&l.state, stateIdle, stateStarted) {
		return ErrAlreadyStarted
	}

	waitGroup.Add(1)
	go l.drive(waitGroup, shutdown)
	return nil
}

// nextCycle draws a duration uniformly from [minCycle, maxCycle] in steps of granularity
func (l *Light) nextCycle() time.Duration {
	steps := int64((l.maxCycle - l.minCycle) / l.granularity)
	return l.minCycle + time.Duration(l.random.Int63n(steps+1))*l.granularity
}

// toggle commits the opposite phase and then publishes it, so that any waiter receiving
// the new phase also observes it through CurrentPhase.
func (l *Light) toggle() phase.Phase {
	next := l.CurrentPhase().Toggle()
	atomic.StoreUint32(&l.current, uint32(next))
	l.mailbox.Send(next)
	return next
}

func (l *Light) fault(r interface{}) {
	err := fmt.Errorf("%w: %v", ErrDriverFault, r)
	l.setErr(err)
	l.measures.Faults.Add(1.0)
	l.logger.Error("phase cycle driver fault", zap.Error(err), zap.Stack("stack"))
	if l.faultListener != nil {
		l.faultListener(l.id, err)
	}
}

// drive is the phase cycle driver.  It waits out one randomly drawn cycle at a time on a single
// timer, toggling and publishing the phase whenever the timer fires.
func (l *Light) drive(waitGroup *sync.WaitGroup, shutdown <-chan struct{}) {
	defer waitGroup.Done()
	defer close(l.done)
	defer l.mailbox.Close()
	defer func() {
		if r := recover(); r != nil {
			l.fault(r)
		}
	}()

	var (
		toggles = 0
		cycle   = l.nextCycle()
		start   = l.clock.Now()
		timer   = l.clock.NewTimer(cycle)
	)

	defer timer.Stop()
	l.logger.Info("phase cycle driver starting", zap.Stringer("phase", l.CurrentPhase()), zap.Duration("cycle", cycle))

	for {
		select {
		case <-timer.C():
			var (
				now     = l.clock.Now()
				elapsed = now.Sub(start)
				next    = l.toggle()
			)

			toggles++
			l.measures.observeToggle(next, elapsed.Seconds())

			start = now
			cycle = l.nextCycle()
			timer.Reset(cycle)

			l.logger.Debug(
				"phase toggled",
				zap.Stringer("phase", next),
				zap.Duration("elapsed", elapsed),
				zap.Duration("nextCycle", cycle),
				zap.Int("toggles", toggles),
			)

		case <-shutdown:
			l.logger.Info("phase cycle driver stopped", zap.Stringer("phase", l.CurrentPhase()), zap.Int("toggles", toggles))
			return
		}
	}
}
