// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package intersection

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xmidt-org/sallust"
	"github.com/xmidt-org/trafficlight/concurrent"
	"github.com/xmidt-org/trafficlight/light"
	"go.uber.org/zap"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

var (
	ErrDuplicateLight  = errors.New("a light with that identifier is already part of the intersection")
	ErrStarted         = errors.New("the intersection has already been started")
	ErrShutdownTimeout = errors.New("the intersection's lights did not stop within the timeout")
)

const (
	stateIdle int32 = iota
	stateStarted
)

// DefaultFaultBuffer is the number of unread faults retained by Faults
const DefaultFaultBuffer = 16

// Intersection is a registry of lights whose drivers are started and stopped together.
type Intersection struct {
	logger       *zap.Logger
	lightOptions []light.Option
	pending      []*light.Light
	faults       chan error

	lock   sync.RWMutex
	lights map[string]*light.Light
	state  int32

	stopLock  sync.Mutex
	shutdown  chan struct{}
	waitGroup *sync.WaitGroup
}

// New creates an Intersection that has not been started
func New(options ...Option) (*Intersection, error) {
	i := &Intersection{
		logger: sallust.Default(),
		faults: make(chan error, DefaultFaultBuffer),
		lights: make(map[string]*light.Light),
	}

	for _, o := range options {
		o(i)
	}

	pending := i.pending
	i.pending = nil
	if err := i.Add(pending...); err != nil {
		return nil, err
	}

	return i, nil
}

// FaultListener returns the listener that forwards a light's driver fault to Faults.  Lights created
// with NewLight already use it.  Lights created elsewhere should be given it via light.WithFaultListener.
func (i *Intersection) FaultListener() light.FaultListener {
	return i.onFault
}

func (i *Intersection) onFault(id string, err error) {
	err = fmt.Errorf("light %s: %w", id, err)
	select {
	case i.faults <- err:
	default:
		i.logger.Warn("dropping light fault", zap.String(light.LightLabel, id), zap.Error(err))
	}
}

// Faults returns the channel on which driver faults are delivered.  Faults that arrive while
// the channel's buffer is full are logged and dropped.  This channel is never closed.
func (i *Intersection) Faults() <-chan error {
	return i.faults
}

// NewLight creates a light using this intersection's logger, light options, and fault listener,
// then adds it.  Any supplied options are applied last.
func (i *Intersection) NewLight(options ...light.Option) (*light.Light, error) {
	all := make([]light.Option, 0, len(i.lightOptions)+len(options)+2)
	all = append(all, light.WithLogger(i.logger), light.WithFaultListener(i.onFault))
	all = append(all, i.lightOptions...)
	all = append(all, options...)

	l, err := light.New(all...)
	if err != nil {
		return nil, err
	}

	if err := i.Add(l); err != nil {
		return nil, err
	}

	return l, nil
}

// Add registers lights with this intersection.  Lights can only be added before the intersection
// is started, and identifiers must be unique.  Nothing is added if any light cannot be.
func (i *Intersection) Add(lights ...*light.Light) error {
	i.lock.Lock()
	defer i.lock.Unlock()

	if atomic.LoadInt32(&i.state) != stateIdle {
		return ErrStarted
	}

	pending := make(map[string]bool, len(lights))
	for _, l := range lights {
		if _, ok := i.lights[l.ID()]; ok || pending[l.ID()] {
			return fmt.Errorf("%w: %s", ErrDuplicateLight, l.ID())
		}

		pending[l.ID()] = true
	}

	for _, l := range lights {
		i.lights[l.ID()] = l
	}

	return nil
}

// Light returns the light with the given identifier
func (i *Intersection) Light(id string) (*light.Light, bool) {
	i.lock.RLock()
	l, ok := i.lights[id]
	i.lock.RUnlock()
	return l, ok
}

// Lights returns every light in this intersection, ordered by identifier
func (i *Intersection) Lights() []*light.Light {
	i.lock.RLock()
	defer i.lock.RUnlock()

	ids := maps.Keys(i.lights)
	slices.Sort(ids)

	lights := make([]*light.Light, len(ids))
	for n, id := range ids {
		lights[n] = i.lights[id]
	}

	return lights
}

// Len returns the number of lights in this intersection
func (i *Intersection) Len() int {
	i.lock.RLock()
	defer i.lock.RUnlock()
	return len(i.lights)
}

// Run starts the driver of every light, registering each with the given WaitGroup.  The drivers
// exit when shutdown is closed.  An intersection can be run only once.
func (i *Intersection) Run(waitGroup *sync.WaitGroup, shutdown <-chan struct{}) error {
	i.lock.Lock()
	if !atomic.CompareAndSwapInt32(&i.state, stateIdle, stateStarted) {
		i.lock.Unlock()
		return ErrStarted
	}

	lights := make(concurrent.RunnableSet, 0, len(i.lights))
	for _, l := range i.lights {
		lights = append(lights, l)
	}

	i.lock.Unlock()

	i.logger.Info("starting intersection", zap.Int("lights", len(lights)))
	return lights.Run(waitGroup, shutdown)
}

// Start runs this intersection with its own WaitGroup and shutdown channel, which Stop uses to
// join every driver.  If any light fails to start, the lights already started are stopped.
func (i *Intersection) Start() error {
	waitGroup, shutdown, err := concurrent.Execute(i)
	if err != nil {
		close(shutdown)
		waitGroup.Wait()
		return err
	}

	i.stopLock.Lock()
	i.waitGroup, i.shutdown = waitGroup, shutdown
	i.stopLock.Unlock()
	return nil
}

// Stop signals every driver started via Start, then waits up to timeout for all of them to exit.
// ErrShutdownTimeout is returned if they do not.  Calling Stop again, or on an intersection that
// was not started via Start, does nothing.
func (i *Intersection) Stop(timeout time.Duration) error {
	i.stopLock.Lock()
	waitGroup, shutdown := i.waitGroup, i.shutdown
	i.waitGroup, i.shutdown = nil, nil
	i.stopLock.Unlock()

	if shutdown == nil {
		return nil
	}

	close(shutdown)
	if !concurrent.WaitTimeout(waitGroup, timeout) {
		i.logger.Error("intersection did not stop in time", zap.Duration("timeout", timeout))
		return ErrShutdownTimeout
	}

	i.logger.Info("intersection stopped")
	return nil
}
