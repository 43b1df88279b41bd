// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package concurrent

import (
	"sync"
)

// Runnable represents any operation that can spawn zero or more goroutines.
type Runnable interface {
	// Run executes this operation, possibly returning an error if the operation
	// could not be started.  This method is responsible for spawning any necessary
	// goroutines and to ensure WaitGroup.Add() and WaitGroup.Done() are called appropriately.
	//
	// The supplied shutdown channel is used to signal any goroutines spawned by this
	// method that they should gracefully exit.  Callers can then use the waitGroup to
	// wait until things have been cleaned up properly.
	Run(waitGroup *sync.WaitGroup, shutdown <-chan struct{}) error
}

// RunnableFunc is a function type that implements Runnable
type RunnableFunc func(*sync.WaitGroup, <-chan struct{}) error

func (r RunnableFunc) Run(waitGroup *sync.WaitGroup, shutdown <-chan struct{}) error {
	return r(waitGroup, shutdown)
}

// RunnableSet is a slice type that allows grouping of operations.
// This type implements Runnable as well.  Run stops at the first error, leaving
// any operations already started registered with the WaitGroup.
type RunnableSet []Runnable

func (set RunnableSet) Run(waitGroup *sync.WaitGroup, shutdown <-chan struct{}) error {
	for _, operation := range set {
		if err := operation.Run(waitGroup, shutdown); err != nil {
			return err
		}
	}

	return nil
}

// Execute is a convenience function that creates the necessary synchronization objects
// and then invokes Run().  The caller owns the returned shutdown channel and must close it
// to stop whatever was started, even when err is non-nil.
func Execute(runnable Runnable) (waitGroup *sync.WaitGroup, shutdown chan struct{}, err error) {
	waitGroup = &sync.WaitGroup{}
	shutdown = make(chan struct{})
	err = runnable.Run(waitGroup, shutdown)
	return
}
