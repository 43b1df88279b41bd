// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package lighthttp

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
	"github.com/justinas/alice"
	"github.com/spf13/cast"
	"github.com/xmidt-org/sallust"
	"github.com/xmidt-org/trafficlight/intersection"
	"github.com/xmidt-org/trafficlight/light"
	"github.com/xmidt-org/trafficlight/phase"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	IDVariable       = "id"
	TimeoutParameter = "timeout"

	DefaultWaitTimeout = 30 * time.Second
	DefaultMaxTimeout  = 5 * time.Minute

	// OperationName is the name given to spans created for requests to this API
	OperationName = "trafficlight"
)

// Status is the JSON representation of a light
type Status struct {
	ID    string      `json:"id"`
	Phase phase.Phase `json:"phase"`
}

func newStatus(l *light.Light) Status {
	return Status{ID: l.ID(), Phase: l.CurrentPhase()}
}

// Handler serves the lights of an Intersection
type Handler struct {
	Intersection *intersection.Intersection

	// Logger is placed into each request's context.  If unset, sallust.Default() is used.
	Logger *zap.Logger

	// WaitTimeout is used when a green wait request carries no timeout.  If unset, DefaultWaitTimeout is used.
	WaitTimeout time.Duration

	// MaxTimeout caps the timeout of a green wait request.  If unset, DefaultMaxTimeout is used.
	MaxTimeout time.Duration

	// TracerProvider creates a span for each request.  If unset, the global provider is used.
	TracerProvider trace.TracerProvider
}

// waitRequest holds the query parameters of a green wait request
type waitRequest struct {
	Timeout time.Duration `schema:"timeout"`
}

var waitRequestDecoder = newWaitRequestDecoder()

func newWaitRequestDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	d.RegisterConverter(time.Duration(0), func(v string) reflect.Value {
		timeout, err := cast.ToDurationE(v)
		if err != nil {
			return reflect.Value{}
		}

		return reflect.ValueOf(timeout)
	})

	return d
}

func (h *Handler) logger() *zap.Logger {
	if h.Logger != nil {
		return h.Logger
	}

	return sallust.Default()
}

func (h *Handler) waitTimeout() time.Duration {
	if h.WaitTimeout > 0 {
		return h.WaitTimeout
	}

	return DefaultWaitTimeout
}

func (h *Handler) maxTimeout() time.Duration {
	if h.MaxTimeout > 0 {
		return h.MaxTimeout
	}

	return DefaultMaxTimeout
}

// populateLogger is an Alice-style constructor that places a request-scoped logger into the request context
func (h *Handler) populateLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		logger := h.logger().With(
			zap.String("method", request.Method),
			zap.String("path", request.URL.Path),
			zap.String("remoteAddr", request.RemoteAddr),
		)

		logger.Debug("handling request")
		next.ServeHTTP(
			response,
			request.WithContext(sallust.With(request.Context(), logger)),
		)
	})
}

func (h *Handler) tracerProvider() trace.TracerProvider {
	if h.TracerProvider != nil {
		return h.TracerProvider
	}

	return otel.GetTracerProvider()
}

// tracing is an Alice-style constructor that starts a server span for each request, continuing
// any trace context the client sent
func (h *Handler) tracing(next http.Handler) http.Handler {
	return otelhttp.NewHandler(
		next,
		OperationName,
		otelhttp.WithTracerProvider(h.tracerProvider()),
		otelhttp.WithPropagators(propagation.TraceContext{}),
	)
}

// NewChain returns the middleware applied to every route
func (h *Handler) NewChain() alice.Chain {
	return alice.New(h.tracing, h.populateLogger)
}

// Build registers this handler's routes with the given router and returns that router.
// If router is nil, a new one is created.
func (h *Handler) Build(router *mux.Router) *mux.Router {
	if router == nil {
		router = mux.NewRouter()
	}

	chain := h.NewChain()
	router.Handle("/lights", chain.ThenFunc(h.List)).Methods(http.MethodGet)
	router.Handle("/lights/{id}", chain.ThenFunc(h.Get)).Methods(http.MethodGet)
	router.Handle("/lights/{id}/green", chain.ThenFunc(h.WaitForGreen)).Methods(http.MethodGet)
	return router
}

func (h *Handler) lookup(response http.ResponseWriter, request *http.Request) (*light.Light, bool) {
	id := mux.Vars(request)[IDVariable]
	l, ok := h.Intersection.Light(id)
	if !ok {
		WriteErrorf(response, http.StatusNotFound, "No such light: %s", id)
	}

	return l, ok
}

// List writes the status of every light, ordered by identifier
func (h *Handler) List(response http.ResponseWriter, request *http.Request) {
	lights := h.Intersection.Lights()
	statuses := make([]Status, len(lights))
	for i, l := range lights {
		statuses[i] = newStatus(l)
	}

	if err := writeJSON(response, http.StatusOK, statuses); err != nil {
		sallust.Get(request.Context()).Error("unable to write light list", zap.Error(err))
	}
}

// Get writes the status of a single light
func (h *Handler) Get(response http.ResponseWriter, request *http.Request) {
	l, ok := h.lookup(response, request)
	if !ok {
		return
	}

	if err := writeJSON(response, http.StatusOK, newStatus(l)); err != nil {
		sallust.Get(request.Context()).Error("unable to write light", zap.Error(err))
	}
}

func (h *Handler) parseTimeout(request *http.Request) (time.Duration, error) {
	query := request.URL.Query()
	if len(query.Get(TimeoutParameter)) == 0 {
		return h.waitTimeout(), nil
	}

	var wr waitRequest
	if err := waitRequestDecoder.Decode(&wr, query); err != nil {
		return 0, err
	}

	timeout := wr.Timeout
	if timeout <= 0 {
		return 0, errors.New("the timeout must be positive")
	}

	if max := h.maxTimeout(); timeout > max {
		timeout = max
	}

	return timeout, nil
}

// WaitForGreen blocks until the light turns green, the timeout elapses, or the client goes away
func (h *Handler) WaitForGreen(response http.ResponseWriter, request *http.Request) {
	l, ok := h.lookup(response, request)
	if !ok {
		return
	}

	timeout, err := h.parseTimeout(request)
	if err != nil {
		WriteErrorf(response, http.StatusBadRequest, "Invalid timeout: %s", err)
		return
	}

	logger := sallust.Get(request.Context())
	ctx, cancel := context.WithTimeout(request.Context(), timeout)
	defer cancel()

	err = l.WaitForGreenCtx(ctx)
	switch {
	case err == nil:
		if err := writeJSON(response, http.StatusOK, Status{ID: l.ID(), Phase: phase.Green}); err != nil {
			logger.Error("unable to write green status", zap.Error(err))
		}

	case errors.Is(err, context.DeadlineExceeded):
		WriteErrorf(response, http.StatusGatewayTimeout, "Light %s did not turn green within %s", l.ID(), timeout)

	case errors.Is(err, context.Canceled):
		logger.Debug("client abandoned green wait", zap.Error(err))

	default:
		logger.Error("light is not running", zap.Error(err))
		WriteErrorf(response, http.StatusServiceUnavailable, "Light %s is not running", l.ID())
	}
}
