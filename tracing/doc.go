// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

/*
Package tracing builds the OpenTelemetry TracerProvider used to trace HTTP requests.

The provider is selected by configuration:

	tracing:
	  provider: stdout    # "", "stdout", "otlphttp" or "noop"
	  endpoint: localhost:4318
	  insecure: true
	  sampleRatio: 1.0

An empty provider records spans in-process without exporting them.
*/
package tracing
