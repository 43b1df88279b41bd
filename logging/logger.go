// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a zap Logger from a set of options.  The options object can be nil,
// in which case a logger that writes errors to os.Stdout is returned.  Every logger
// includes the caller of each logging call.
func New(o *Options) *zap.Logger {
	return zap.New(
		zapcore.NewCore(o.encoder(), o.output(), o.level()),
		zap.AddCaller(),
	)
}
