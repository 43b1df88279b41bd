// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package tracing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/viper"
	"github.com/xmidt-org/trafficlight/xviper"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const (
	// TracingKey is the Viper subkey under which tracing configuration is stored
	TracingKey = "tracing"

	ProviderNone     = ""
	ProviderStdout   = "stdout"
	ProviderOTLPHTTP = "otlphttp"
	ProviderNoop     = "noop"
)

var ErrUnknownProvider = errors.New("unknown tracing provider")

// Options is the externally configurable tracing setup
type Options struct {
	// Provider selects the span exporter
	Provider string `mapstructure:"provider"`

	// Endpoint is the host:port of the collector used by the otlphttp provider
	Endpoint string `mapstructure:"endpoint"`

	// Insecure disables TLS for the otlphttp provider
	Insecure bool `mapstructure:"insecure"`

	// SampleRatio is the fraction of root spans sampled.  Nonpositive values sample everything.
	SampleRatio float64 `mapstructure:"sampleRatio"`

	// writer receives the output of the stdout provider.  Tests set this.
	writer io.Writer
}

// FromViper unmarshals Options from the TracingKey subtree of a (possibly nil) Viper instance
func FromViper(v *viper.Viper) (Options, error) {
	var o Options
	err := xviper.UnmarshalKey(v, TracingKey, &o)
	return o, err
}

func (o Options) sampler() sdktrace.Sampler {
	if o.SampleRatio > 0 && o.SampleRatio < 1 {
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(o.SampleRatio))
	}

	return sdktrace.ParentBased(sdktrace.AlwaysSample())
}

func (o Options) output() io.Writer {
	if o.writer != nil {
		return o.writer
	}

	return os.Stdout
}

func (o Options) exporter(ctx context.Context) (sdktrace.SpanExporter, error) {
	switch o.Provider {
	case ProviderNone:
		return nil, nil

	case ProviderStdout:
		return stdouttrace.New(stdouttrace.WithWriter(o.output()))

	case ProviderOTLPHTTP:
		options := []otlptracehttp.Option{}
		if len(o.Endpoint) > 0 {
			options = append(options, otlptracehttp.WithEndpoint(o.Endpoint))
		}

		if o.Insecure {
			options = append(options, otlptracehttp.WithInsecure())
		}

		return otlptracehttp.New(ctx, options...)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, o.Provider)
	}
}

// Provider is a TracerProvider that must be shut down to flush any buffered spans
type Provider interface {
	trace.TracerProvider
	Shutdown(context.Context) error
}

type noopProvider struct {
	trace.TracerProvider
}

func (noopProvider) Shutdown(context.Context) error {
	return nil
}

// New builds a Provider from the given options.  Every span carries serviceName as its service.name.
func New(ctx context.Context, o Options, serviceName string) (Provider, error) {
	if o.Provider == ProviderNoop {
		return noopProvider{trace.NewNoopTracerProvider()}, nil
	}

	exporter, err := o.exporter(ctx)
	if err != nil {
		return nil, err
	}

	options := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(o.sampler()),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", serviceName),
		)),
	}

	if exporter != nil {
		options = append(options, sdktrace.WithBatcher(exporter))
	}

	return sdktrace.NewTracerProvider(options...), nil
}
