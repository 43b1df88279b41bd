// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Interface represents the subset of the time package a phase cycle driver depends on.  Tests
// supply a mock so that cycles can be fired deterministically.
type Interface interface {
	Now() time.Time
	NewTimer(time.Duration) Timer
}

type systemClock struct{}

func (sc systemClock) Now() time.Time {
	return time.Now()
}

func (sc systemClock) NewTimer(d time.Duration) Timer {
	return WrapTimer(time.NewTimer(d))
}

// System returns a clock backed by the time package
func System() Interface {
	return systemClock{}
}
