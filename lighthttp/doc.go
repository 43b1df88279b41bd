// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

/*
Package lighthttp exposes the lights of an intersection over HTTP.

	GET /lights                      lists every light and its current phase
	GET /lights/{id}                 returns a single light
	GET /lights/{id}/green?timeout=  blocks until the light turns green, or the timeout elapses
*/
package lighthttp
