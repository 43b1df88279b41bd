// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package tracing

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNewRecording(t *testing.T, o Options) {
	var (
		assert  = assert.New(t)
		require = require.New(t)
	)

	p, err := New(context.Background(), o, "test")
	require.NoError(err)
	require.NotNil(p)

	_, span := p.Tracer("test").Start(context.Background(), "operation")
	assert.True(span.IsRecording())
	assert.True(span.SpanContext().IsValid())
	span.End()

	assert.NoError(p.Shutdown(context.Background()))
}

func testNewStdout(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)
		output  = new(bytes.Buffer)
	)

	p, err := New(context.Background(), Options{Provider: ProviderStdout, writer: output}, "test")
	require.NoError(err)

	_, span := p.Tracer("test").Start(context.Background(), "toggle")
	span.End()

	require.NoError(p.Shutdown(context.Background()))
	assert.Contains(output.String(), "toggle")
	assert.Contains(output.String(), "service.name")
}

func testNewOTLPHTTP(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)
	)

	p, err := New(context.Background(), Options{Provider: ProviderOTLPHTTP, Endpoint: "localhost:4318", Insecure: true}, "test")
	require.NoError(err)

	// the span is never ended, so shutting down has nothing to send to the absent collector
	_, span := p.Tracer("test").Start(context.Background(), "operation")
	assert.True(span.IsRecording())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	p.Shutdown(ctx)
}

func testNewNoop(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)
	)

	p, err := New(context.Background(), Options{Provider: ProviderNoop}, "test")
	require.NoError(err)

	_, span := p.Tracer("test").Start(context.Background(), "operation")
	assert.False(span.IsRecording())
	assert.NoError(p.Shutdown(context.Background()))
}

func testNewUnknown(t *testing.T) {
	p, err := New(context.Background(), Options{Provider: "carrier-pigeon"}, "test")
	assert.Nil(t, p)
	assert.True(t, errors.Is(err, ErrUnknownProvider))
}

func TestNew(t *testing.T) {
	t.Run("InProcess", func(t *testing.T) { testNewRecording(t, Options{}) })
	t.Run("Sampled", func(t *testing.T) { testNewRecording(t, Options{SampleRatio: 1.0}) })
	t.Run("OTLPHTTP", testNewOTLPHTTP)

	t.Run("Stdout", testNewStdout)
	t.Run("Noop", testNewNoop)
	t.Run("Unknown", testNewUnknown)
}

func TestFromViper(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)
		v       = viper.New()
	)

	o, err := FromViper(nil)
	require.NoError(err)
	assert.Equal(Options{}, o)

	v.Set(TracingKey, map[string]interface{}{
		"provider":    "otlphttp",
		"endpoint":    "collector:4318",
		"insecure":    true,
		"sampleRatio": 0.25,
	})

	o, err = FromViper(v)
	require.NoError(err)
	assert.Equal(Options{Provider: ProviderOTLPHTTP, Endpoint: "collector:4318", Insecure: true, SampleRatio: 0.25}, o)
}
