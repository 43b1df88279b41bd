// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

/*
Package intersection owns a group of traffic lights.

An Intersection is the explicit registry of every light's driver:  it starts them all with a single
WaitGroup and shutdown channel, and Stop joins them within a bounded time.  Driver faults reported by
its lights are surfaced through Faults.
*/
package intersection
