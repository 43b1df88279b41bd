// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

/*
Package mailbox provides a single-slot, overwrite-on-send, block-on-empty channel.

A Mailbox holds at most one pending value.  Sending never blocks: a pending value that has
not yet been received is discarded and replaced.  Receiving blocks until a value is pending,
and each value is delivered to exactly one receiver.  Receivers that need a bound on how long
they wait use ReceiveWait or ReceiveCtx, which leave the overwrite and blocking contract intact.

Closing a Mailbox releases every blocked receiver with ErrClosed.
*/
package mailbox
