package request

import (
	"context"
	"fmt"
	"reflect"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// APIRequestSpanName is the name of the telemetry span wrapping the whole API operation.
const APIRequestSpanName = "parsem.go.api.client.request"

// Attributes expected by the APM span mapping.
const (
	attrSpanKind            = "span.kind"
	attrSpanKindValueClient = "client"
	attrSpanType            = "span.type"
	attrSpanTypeValueHTTP   = "http"
)

// APIRequest is one logical API operation with the response mapped to the R type.
// It may be composed of several HTTP requests, they are sent in parallel.
type APIRequest[R Result] interface {
	// WithBefore adds a callback invoked before the requests are sent.
	// If it returns an error, nothing is sent.
	WithBefore(func(ctx context.Context) error) APIRequest[R]
	// WithOnComplete adds a callback invoked after all requests are done.
	WithOnComplete(func(ctx context.Context, result R, err error) error) APIRequest[R]
	// WithOnSuccess adds a callback invoked after all requests succeed.
	WithOnSuccess(func(ctx context.Context, result R) error) APIRequest[R]
	// WithOnError adds a callback invoked after some request fails.
	WithOnError(func(ctx context.Context, err error) error) APIRequest[R]
	// Send sends the composed requests and returns the mapped result.
	Send(ctx context.Context) (result R, err error)
	// SendOrErr sends the composed requests and returns the error only,
	// it implements the Sendable interface.
	SendOrErr(ctx context.Context) error
}

// withTracer is implemented by senders with telemetry enabled.
type withTracer interface {
	Tracer() trace.Tracer
}

// ParallelAPIRequests groups requests to one Sendable, see Parallel.
type ParallelAPIRequests []Sendable

// Parallel wraps the requests to one Sendable, they are sent in parallel.
func Parallel(requests ...Sendable) ParallelAPIRequests {
	return requests
}

func (v ParallelAPIRequests) SendOrErr(ctx context.Context) error {
	wg := NewWaitGroup(ctx)
	for _, r := range v {
		wg.Send(r)
	}
	return wg.Wait()
}

// NewAPIRequest creates an API operation composed of one or more
// Sendable requests, the result value is returned by Send.
func NewAPIRequest[R Result](result R, requests ...Sendable) APIRequest[R] {
	if len(requests) == 0 {
		panic(fmt.Errorf("at least one request must be provided"))
	}
	return &apiRequest[R]{requests: requests, result: result}
}

// apiRequest implements the generic APIRequest interface.
type apiRequest[R Result] struct {
	requests []Sendable
	before   []func(ctx context.Context) error
	after    []func(ctx context.Context, result R, err error) error
	result   R
}

func (r apiRequest[R]) WithBefore(fn func(ctx context.Context) error) APIRequest[R] {
	r.before = append(r.before[:len(r.before):len(r.before)], fn)
	return r
}

func (r apiRequest[R]) WithOnComplete(fn func(ctx context.Context, result R, err error) error) APIRequest[R] {
	r.after = append(r.after[:len(r.after):len(r.after)], fn)
	return r
}

func (r apiRequest[R]) WithOnSuccess(fn func(ctx context.Context, result R) error) APIRequest[R] {
	return r.WithOnComplete(func(ctx context.Context, result R, err error) error {
		if err == nil {
			return fn(ctx, result)
		}
		return err
	})
}

func (r apiRequest[R]) WithOnError(fn func(ctx context.Context, err error) error) APIRequest[R] {
	return r.WithOnComplete(func(ctx context.Context, _ R, err error) error {
		if err != nil {
			return fn(ctx, err)
		}
		return err
	})
}

func (r apiRequest[R]) Send(ctx context.Context) (result R, err error) {
	if span := r.startSpan(&ctx); span != nil {
		defer func() {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			span.End()
		}()
	}

	// Stop early when the context is done
	if err := ctx.Err(); err != nil {
		return r.result, err
	}
	for _, fn := range r.before {
		if err := fn(ctx); err != nil {
			return r.result, err
		}
	}
	if err := ctx.Err(); err != nil {
		return r.result, err
	}

	wg := NewWaitGroup(ctx)
	for _, request := range r.requests {
		wg.Send(request)
	}
	err = wg.Wait()

	for _, fn := range r.after {
		if err := ctx.Err(); err != nil {
			return r.result, err
		}
		err = fn(ctx, r.result, err)
	}

	return r.result, err
}

func (r apiRequest[R]) SendOrErr(ctx context.Context) error {
	_, err := r.Send(ctx)
	return err
}

// startSpan starts the operation span if the first request's sender has telemetry enabled.
func (r apiRequest[R]) startSpan(ctx *context.Context) trace.Span {
	tp, ok := r.requests[0].(withTracer)
	if !ok {
		return nil
	}
	tracer := tp.Tracer()
	if tracer == nil {
		return nil
	}

	var resultType string
	if v := reflect.TypeOf(r.result); v != nil {
		resultType = v.String()
	}

	var span trace.Span
	*ctx, span = tracer.Start(
		*ctx,
		APIRequestSpanName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(attrSpanKind, attrSpanKindValueClient),
			attribute.String(attrSpanType, attrSpanTypeValueHTTP),
			attribute.Int("api.requests_count", len(r.requests)),
			attribute.String("api.result_type", resultType),
		),
	)
	return span
}
