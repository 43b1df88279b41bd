// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

/*
Package light models a single traffic light that autonomously toggles between red and green.

A Light starts red.  Once started, via Simulate or by an owner through Run, a background driver
draws a cycle duration uniformly from [MinCycle, MaxCycle], waits that long on a single timer,
toggles the phase and publishes the new phase into the light's mailbox.  It then draws a fresh
duration and repeats until the light is stopped.

Any number of goroutines may call CurrentPhase, which never blocks, and WaitForGreen, which blocks
until a green phase is received from the mailbox.  Because the mailbox only holds the most recent
phase, a waiter observes the latest phase rather than every intermediate one.

When the driver exits, either because it was stopped or because it failed, the mailbox is closed
and all waiters are released with ErrStopped or the driver's fault.
*/
package light
