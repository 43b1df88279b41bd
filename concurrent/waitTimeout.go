// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package concurrent

import (
	"sync"
	"time"
)

// WaitTimeout performs a timed wait on a given sync.WaitGroup.  It returns true if every
// goroutine registered with the group finished within the timeout.  When the timeout elapses,
// the goroutine performing the wait lingers until the group is eventually done.
func WaitTimeout(waitGroup *sync.WaitGroup, timeout time.Duration) bool {
	joined := make(chan struct{})
	go func() {
		defer close(joined)
		waitGroup.Wait()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-joined:
		return true
	case <-timer.C:
		return false
	}
}
