// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

/*
Package concurrent provides the task ownership contract used to launch background drivers.

A Runnable spawns goroutines and registers each of them with a caller-owned sync.WaitGroup.
The caller keeps the shutdown channel, so it alone decides when those goroutines stop, and
it joins them by waiting on the group.
*/
package concurrent
