// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package light

import "errors"

var (
	// ErrAlreadyStarted is returned when a light's driver is started more than once.  A light
	// can only ever be started once, even after it has been stopped.
	ErrAlreadyStarted = errors.New("the traffic light has already been started")

	// ErrStopped is returned to waiters when the light's driver exits while they are waiting.
	ErrStopped = errors.New("the traffic light has been stopped")

	// ErrDriverFault wraps an unexpected failure inside the phase cycle driver.
	ErrDriverFault = errors.New("the phase cycle driver failed")

	// ErrInvalidCycle is returned when the cycle bounds or granularity are not usable.
	ErrInvalidCycle = errors.New("cycle bounds must satisfy 0 < min <= max, with a positive granularity")
)
