// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/xmidt-org/trafficlight/intersection"
	"github.com/xmidt-org/trafficlight/light"
	"github.com/xmidt-org/trafficlight/lighthttp"
	"github.com/xmidt-org/trafficlight/logging"
	"github.com/xmidt-org/trafficlight/tracing"
	"github.com/xmidt-org/trafficlight/xmetrics"
	"github.com/xmidt-org/trafficlight/xviper"
	"go.uber.org/fx"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

const (
	applicationName = "trafficlight"

	AddressKey         = "address"
	ShutdownTimeoutKey = "shutdownTimeout"

	DefaultAddress         = ":8080"
	DefaultShutdownTimeout = 10 * time.Second
)

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringP(xviper.DefaultFileFlag, "f", "", "the fully qualified path of the configuration file")
	fs.String(AddressKey, DefaultAddress, "the address on which the HTTP API and metrics are served")
	fs.Duration(ShutdownTimeoutKey, DefaultShutdownTimeout, "the maximum time to wait for lights and the server to stop")
	return fs
}

// newViper parses the command line and reads configuration.  A missing configuration file is only
// an error when one was named explicitly.
func newViper(arguments []string) (*viper.Viper, error) {
	fs := newFlagSet(applicationName)
	if err := fs.Parse(arguments); err != nil {
		return nil, err
	}

	v, err := xviper.New(
		xviper.StdOptions(applicationName, fs),
		xviper.BindConfigFile(fs, xviper.DefaultFileFlag),
	)

	if err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	return v, nil
}

func provideLogger(v *viper.Viper) (*zap.Logger, error) {
	o, err := logging.FromViper(logging.Sub(v))
	if err != nil {
		return nil, err
	}

	return logging.New(o), nil
}

func provideRegistry(v *viper.Viper) (xmetrics.Registry, error) {
	o, err := xmetrics.FromViper(v)
	if err != nil {
		return nil, err
	}

	return xmetrics.NewRegistry(o, light.Metrics)
}

// provideTracerProvider builds the tracing provider and flushes its spans when the application stops
func provideTracerProvider(v *viper.Viper, lifecycle fx.Lifecycle) (trace.TracerProvider, error) {
	o, err := tracing.FromViper(v)
	if err != nil {
		return nil, err
	}

	p, err := tracing.New(context.Background(), o, applicationName)
	if err != nil {
		return nil, err
	}

	lifecycle.Append(fx.Hook{
		OnStop: p.Shutdown,
	})

	return p, nil
}

// IntersectionIn is the set of dependencies for the application's intersection
type IntersectionIn struct {
	fx.In

	Viper     *viper.Viper
	Logger    *zap.Logger
	Measures  *light.Measures
	Lifecycle fx.Lifecycle
}

func provideIntersection(in IntersectionIn) (*intersection.Intersection, error) {
	o, err := intersection.FromViper(in.Viper)
	if err != nil {
		return nil, err
	}

	lo, err := light.FromViper(in.Viper)
	if err != nil {
		return nil, err
	}

	i, err := intersection.NewFromOptions(
		o,
		lo,
		intersection.WithLogger(in.Logger),
		intersection.WithMeasures(in.Measures),
	)

	if err != nil {
		return nil, err
	}

	var (
		shutdownTimeout = in.Viper.GetDuration(ShutdownTimeoutKey)
		stopFaults      = make(chan struct{})
	)

	in.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if err := i.Start(); err != nil {
				return err
			}

			go watchFaults(in.Logger, i.Faults(), stopFaults)
			return nil
		},
		OnStop: func(context.Context) error {
			close(stopFaults)
			return i.Stop(shutdownTimeout)
		},
	})

	return i, nil
}

// watchFaults logs each light's driver fault.  The remaining lights continue running.
func watchFaults(logger *zap.Logger, faults <-chan error, stop <-chan struct{}) {
	for {
		select {
		case err := <-faults:
			logger.Error("light failed", zap.Error(err))
		case <-stop:
			return
		}
	}
}

func newRouter(logger *zap.Logger, registry xmetrics.Registry, tp trace.TracerProvider, i *intersection.Intersection) *mux.Router {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	h := &lighthttp.Handler{
		Intersection:   i,
		Logger:         logger,
		TracerProvider: tp,
	}

	return h.Build(router)
}

// ServerIn is the set of dependencies for the HTTP server
type ServerIn struct {
	fx.In

	Viper        *viper.Viper
	Logger       *zap.Logger
	Registry       xmetrics.Registry
	TracerProvider trace.TracerProvider
	Intersection   *intersection.Intersection
	Lifecycle      fx.Lifecycle
}

func provideServer(in ServerIn) *http.Server {
	server := &http.Server{
		Addr:              in.Viper.GetString(AddressKey),
		Handler:           newRouter(in.Logger, in.Registry, in.TracerProvider, in.Intersection),
		ReadHeaderTimeout: 5 * time.Second,
		ErrorLog:          zap.NewStdLog(in.Logger),
	}

	in.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			l, err := net.Listen("tcp", server.Addr)
			if err != nil {
				return err
			}

			in.Logger.Info("serving", zap.Stringer("address", l.Addr()))
			go func() {
				if err := server.Serve(l); !errors.Is(err, http.ErrServerClosed) {
					in.Logger.Error("server exited", zap.Error(err))
				}
			}()

			return nil
		},
		OnStop: server.Shutdown,
	})

	return server
}

func newApp(v *viper.Viper) *fx.App {
	return fx.New(
		fx.Supply(v),
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger}
		}),
		fx.Provide(
			provideLogger,
			provideRegistry,
			provideTracerProvider,
			provideIntersection,
			provideServer,
		),
		light.ProvideMetrics(),
		fx.Invoke(func(*http.Server) {}),
	)
}

func run(arguments []string) int {
	v, err := newViper(arguments)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to initialize configuration: %s\n", err)
		return 1
	}

	app := newApp(v)
	if err := app.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Unable to initialize %s: %s\n", applicationName, err)
		return 2
	}

	app.Run()
	return 0
}

func main() {
	os.Exit(run(os.Args[1:]))
}
