// Package otel provides OpenTelemetry tracing and metrics for the HTTP client.
//
// Telemetry is reported on three levels:
//  1. Connection telemetry, spans for the HTTP request phases,
//     for example "http.dns", "http.tls", "http.getconn", see httptrace.go.
//  2. Request telemetry, a span and metrics for every sent HTTP request,
//     including redirects and retries. The span name is "http.request",
//     the metric names start with "parsem.go.http.".
//  3. Client telemetry, a span and metrics for each logical request sent
//     by the client. The root span "parsem.go.client.request" wraps all
//     redirects and retries, the "parsem.go.client.request.body.parse"
//     span tracks the response mapping, and the "parsem.go.client.retry.delay"
//     span tracks the delay before a retry. The metric names start with
//     "parsem.go.client.".
//
// The [otelhttp] client instrumentation is not used, it reports no metrics.
//
// [otelhttp]: https://pkg.go.dev/go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp
package otel

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelMetric "go.opentelemetry.io/otel/metric"
	metricNoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	otelTrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/parsem/go-client/pkg/client/trace"
	"github.com/parsem/go-client/pkg/request"
)

const (
	traceAppName     = "github.com/parsem/go-client"
	attrResourceName = attribute.Key("resource.name")
	// Request telemetry, for each redirect and retry.
	httpSpanPrefix      = "http."
	httpRequestSpanName = httpSpanPrefix + "request"
	httpMeterPrefix     = "parsem.go.http."
	attrWroteBytes      = attribute.Key("http.wrote_bytes")
	attrReadBytes       = attribute.Key("http.read_bytes")
	// Client telemetry.
	clientSpanPrefix         = "parsem.go.client."
	clientMeterPrefix        = clientSpanPrefix
	clientRequestSpanName    = clientSpanPrefix + "request"
	clientBodyParseSpanName  = clientSpanPrefix + "request.body.parse"
	clientRetryDelaySpanName = clientSpanPrefix + "retry.delay"
	// Attributes expected by the APM span mapping.
	attrSpanKind            = attribute.Key("span.kind")
	attrSpanKindValueClient = "client"
	attrSpanType            = attribute.Key("span.type")
	attrSpanTypeValueHTTP   = "http"
)

// NewTrace returns a trace.Factory reporting telemetry to the given providers.
// A nil provider disables the corresponding part of the telemetry.
// It is registered in the client by the Client.WithTelemetry method.
func NewTrace(tracerProvider otelTrace.TracerProvider, meterProvider otelMetric.MeterProvider, opts ...Option) trace.Factory {
	cfg := newConfig(opts)
	if tracerProvider == nil {
		tracerProvider = noop.NewTracerProvider()
	}
	if meterProvider == nil {
		meterProvider = metricNoop.NewMeterProvider()
	}
	tracer := tracerProvider.Tracer(traceAppName)
	meters := newMeters(meterProvider.Meter(traceAppName))

	return func(rootCtx context.Context, reqDef request.HTTPRequest) (context.Context, *trace.ClientTrace) {
		tm := &telemetry{cfg: cfg, tracer: tracer, meters: meters, attrs: newAttributes(cfg, reqDef)}
		rootCtx = tm.start(rootCtx)

		tc := &trace.ClientTrace{
			HTTPRequestStart: tm.httpRequestStart,
			HTTPResponse:     tm.httpResponseHeaders,
			HTTPRequestDone:  tm.httpRequestDone,
			RetryDelay:       tm.retryDelay,
			BodyParseStart:   tm.bodyParseStart,
			BodyParseDone:    tm.bodyParseDone,
			RequestProcessed: tm.requestProcessed,
		}
		tm.registerConnectionHooks(tc)
		return rootCtx, tc
	}
}

// telemetry carries the state of one logical request across the trace hooks.
type telemetry struct {
	cfg    config
	tracer otelTrace.Tracer
	meters *allMeters
	attrs  *attributes

	// rootCtx carries the root span, it is the parent of the http.request spans.
	rootCtx context.Context
	// httpCtx carries the current http.request span, it is the parent of the connection spans.
	httpCtx context.Context

	startTime       time.Time
	httpStartTime   time.Time
	parseStartTime  time.Time
	parseMeterAttrs []attribute.KeyValue
	wroteBytes      int64
	readBytes       int64

	rootSpan        otelTrace.Span
	httpRequestSpan otelTrace.Span
	retryDelaySpan  otelTrace.Span
	bodyParseSpan   otelTrace.Span
	receiveSpan     otelTrace.Span
	conn            connectionSpans
}

// start creates the root span, it wraps all redirects and retries of the request.
func (tm *telemetry) start(ctx context.Context) context.Context {
	tm.startTime = time.Now()
	tm.meters.client.inFlight.Add(ctx, 1, otelMetric.WithAttributes(tm.attrs.definition...))

	tm.rootCtx, tm.rootSpan = tm.tracer.Start(
		ctx,
		clientRequestSpanName,
		otelTrace.WithSpanKind(otelTrace.SpanKindClient),
		otelTrace.WithAttributes(
			attrResourceName.String(tm.attrs.definitionURL.Path),
			attrSpanKind.String(attrSpanKindValueClient),
			attrSpanType.String(attrSpanTypeValueHTTP),
		),
		otelTrace.WithAttributes(tm.attrs.definition...),
		otelTrace.WithAttributes(tm.attrs.definitionExtra...),
	)
	return tm.rootCtx
}

func (tm *telemetry) requestProcessed(result any, err error) {
	elapsed := float64(time.Since(tm.startTime)) / float64(time.Millisecond)

	// The in_flight decrement must use the same attributes/dimensions as the increment in start
	meterAttrs := append(tm.attrs.definition, tm.attrs.httpResponse...)
	meterAttrs = append(meterAttrs, tm.attrs.httpResponseError...)
	tm.meters.client.inFlight.Add(tm.rootCtx, -1, otelMetric.WithAttributes(tm.attrs.definition...))
	tm.meters.client.duration.Record(tm.rootCtx, elapsed, otelMetric.WithAttributes(meterAttrs...))

	if tm.rootSpan == nil {
		return
	}

	// Attributes of the last response
	tm.rootSpan.SetAttributes(tm.attrs.httpResponse...)
	tm.rootSpan.SetAttributes(tm.attrs.httpResponseExtra...)

	// An error, e.g. request timeout, may interrupt a retry delay
	if tm.retryDelaySpan != nil {
		tm.retryDelaySpan.End()
		tm.retryDelaySpan = nil
	}

	if err == nil {
		tm.rootSpan.End()
	} else {
		tm.rootSpan.RecordError(err)
		tm.rootSpan.SetStatus(codes.Error, err.Error())
		tm.rootSpan.End(otelTrace.WithStackTrace(true))
	}
	tm.rootSpan = nil
}

func (tm *telemetry) httpRequestStart(req *http.Request) {
	tm.wroteBytes = 0
	tm.readBytes = 0

	// The delay is over, the next attempt starts
	if tm.retryDelaySpan != nil {
		tm.retryDelaySpan.End()
		tm.retryDelaySpan = nil
	}

	tm.httpCtx, tm.httpRequestSpan = tm.tracer.Start(
		tm.rootCtx,
		httpRequestSpanName,
		otelTrace.WithSpanKind(otelTrace.SpanKindClient),
		otelTrace.WithAttributes(
			attrSpanKind.String(attrSpanKindValueClient),
			attrSpanType.String(attrSpanTypeValueHTTP),
		),
	)

	if tm.cfg.propagators != nil {
		tm.cfg.propagators.Inject(tm.httpCtx, propagation.HeaderCarrier(req.Header))
	}

	tm.httpStartTime = time.Now()
	tm.attrs.SetFromRequest(req)
	tm.httpRequestSpan.SetAttributes(attrResourceName.String(tm.attrs.httpURLPath(req)))

	tm.meters.http.inFlight.Add(tm.rootCtx, 1, otelMetric.WithAttributes(tm.attrs.httpRequest...))

	tm.httpRequestSpan.SetAttributes(tm.attrs.httpRequest...)
	tm.httpRequestSpan.SetAttributes(tm.attrs.httpRequestExtra...)
}

func (tm *telemetry) httpResponseHeaders(res *http.Response, err error) {
	tm.attrs.SetFromResponse(res, err)
	tm.httpRequestSpan.SetAttributes(tm.attrs.httpResponse...)
	tm.httpRequestSpan.SetAttributes(tm.attrs.httpResponseExtra...)
}

func (tm *telemetry) httpRequestDone(res *http.Response, sent, received int64, err error) {
	tm.wroteBytes = sent
	tm.readBytes = received
	elapsed := float64(time.Since(tm.httpStartTime)) / float64(time.Millisecond)

	// The in_flight decrement must use the same attributes/dimensions as the increment in httpRequestStart
	tm.meters.http.inFlight.Add(tm.rootCtx, -1, otelMetric.WithAttributes(tm.attrs.httpRequest...))
	tm.meters.http.duration.Record(
		tm.rootCtx,
		elapsed,
		otelMetric.WithAttributes(tm.attrs.httpRequest...),
		otelMetric.WithAttributes(tm.attrs.httpResponse...),
		otelMetric.WithAttributes(tm.attrs.httpResponseError...),
	)
	tm.meters.http.requestContentLength.Add(
		tm.rootCtx,
		sent,
		otelMetric.WithAttributes(tm.attrs.httpRequest...),
		otelMetric.WithAttributes(tm.attrs.httpResponse...),
	)
	tm.meters.http.responseContentLength.Add(
		tm.rootCtx,
		received,
		otelMetric.WithAttributes(tm.attrs.httpRequest...),
		otelMetric.WithAttributes(tm.attrs.httpResponse...),
	)

	if tm.httpRequestSpan != nil {
		tm.httpRequestSpan.SetAttributes(attrWroteBytes.Int64(sent), attrReadBytes.Int64(received))
		switch {
		case err != nil:
			tm.httpRequestSpan.RecordError(err)
			tm.httpRequestSpan.SetStatus(codes.Error, err.Error())
		case res != nil && res.StatusCode >= http.StatusBadRequest:
			httpErr := fmt.Errorf(`HTTP status code: %d %s`, res.StatusCode, http.StatusText(res.StatusCode))
			tm.httpRequestSpan.RecordError(httpErr)
			tm.httpRequestSpan.SetStatus(codes.Error, httpErr.Error())
		}
	}
	if tm.receiveSpan != nil {
		tm.receiveSpan.SetAttributes(attrReadBytes.Int64(received))
		if err != nil {
			tm.receiveSpan.RecordError(err)
			tm.receiveSpan.SetStatus(codes.Error, err.Error())
		}
	}

	// If the body parsing is in progress, the request span is extended until the parsing is done
	if tm.bodyParseSpan == nil {
		if tm.receiveSpan != nil {
			tm.receiveSpan.End()
			tm.receiveSpan = nil
		}
		tm.httpRequestSpan.End()
		tm.httpRequestSpan = nil
	}
}

func (tm *telemetry) bodyParseStart(response *http.Response) {
	tm.parseStartTime = time.Now()
	tm.parseMeterAttrs = append(tm.attrs.definition[:len(tm.attrs.definition):len(tm.attrs.definition)], tm.attrs.httpResponse...)

	tm.meters.parse.inFlight.Add(tm.rootCtx, 1, otelMetric.WithAttributes(tm.parseMeterAttrs...))

	_, tm.bodyParseSpan = tm.tracer.Start(
		tm.httpCtx,
		clientBodyParseSpanName,
		otelTrace.WithSpanKind(otelTrace.SpanKindClient),
		otelTrace.WithAttributes(tm.attrs.httpRequest...),
		otelTrace.WithAttributes(tm.attrs.httpResponse...),
	)
}

func (tm *telemetry) bodyParseDone(response *http.Response, result any, err error, parseError error) {
	elapsed := float64(time.Since(tm.parseStartTime)) / float64(time.Millisecond)

	tm.meters.parse.inFlight.Add(tm.rootCtx, -1, otelMetric.WithAttributes(tm.parseMeterAttrs...))
	tm.meters.parse.duration.Record(tm.rootCtx, elapsed, otelMetric.WithAttributes(tm.parseMeterAttrs...))

	if tm.bodyParseSpan != nil {
		tm.bodyParseSpan.SetAttributes(attrReadBytes.Int64(tm.readBytes))
		if parseError != nil {
			tm.bodyParseSpan.RecordError(parseError)
			tm.bodyParseSpan.SetStatus(codes.Error, parseError.Error())
		}
		tm.bodyParseSpan.End()
		tm.bodyParseSpan = nil
	}
	if tm.receiveSpan != nil {
		tm.receiveSpan.End()
		tm.receiveSpan = nil
	}
	if tm.httpRequestSpan != nil {
		tm.httpRequestSpan.End()
		tm.httpRequestSpan = nil
	}
}

func (tm *telemetry) retryDelay(attempt int, delay time.Duration) {
	// The span is ended by the httpRequestStart hook,
	// or by the requestProcessed hook if an error interrupts the delay.
	_, tm.retryDelaySpan = tm.tracer.Start(
		tm.rootCtx,
		clientRetryDelaySpanName,
		otelTrace.WithSpanKind(otelTrace.SpanKindClient),
		otelTrace.WithAttributes(tm.attrs.httpRequest...),
		otelTrace.WithAttributes(tm.attrs.httpResponse...),
		otelTrace.WithAttributes(
			attribute.Int("api.request.retry.attempt", attempt),
			attribute.Int64("api.request.retry.delay_ms", delay.Milliseconds()),
			attribute.String("api.request.retry.delay_string", delay.String()),
		),
	)
}
