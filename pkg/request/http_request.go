package request

import (
	"context"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// Result is any value a response body can be mapped to.
type Result = any

// NoResult marks a request whose response body is not mapped.
type NoResult struct{}

// HTTPRequest is an immutable definition of an HTTP request.
//
// Every With/And method returns a modified copy, the receiver is never
// changed. A partially built request can therefore be stored and used
// as a template, for example with the base URL and the error type of
// an API pre-set, see parsem.API.
//
// The request is bound to a Sender at construction and sent by the
// Send method, response mapping is driven by the WithResult and
// WithError target values.
type HTTPRequest interface {
	definition
	// WithGet sets the GET method and the URL.
	WithGet(url string) HTTPRequest
	// WithPost sets the POST method and the URL.
	WithPost(url string) HTTPRequest
	// WithDelete sets the DELETE method and the URL.
	WithDelete(url string) HTTPRequest
	// WithMethod sets the HTTP method.
	WithMethod(method string) HTTPRequest
	// WithBaseURL sets the base URL, a relative request URL is resolved against it.
	WithBaseURL(baseURL string) HTTPRequest
	// WithURL sets the URL. The path may contain {placeholders}, see AndPathParam.
	WithURL(url string) HTTPRequest
	// AndHeader adds one request header.
	AndHeader(header string, value string) HTTPRequest
	// AndQueryParam adds one query parameter.
	AndQueryParam(param, value string) HTTPRequest
	// AndPathParam fills one {placeholder} in the URL path.
	AndPathParam(param, value string) HTTPRequest
	// WithJSONBody sets the request body and the "application/json" content type.
	// The body value is marshaled when the request is sent.
	WithJSONBody(body any) HTTPRequest
	// WithBody sets a raw request body: a string, a []byte slice or an io.ReadSeeker.
	WithBody(body any) HTTPRequest
	// WithError sets the target value the error response body is decoded to.
	// It must be a pointer.
	WithError(err error) HTTPRequest
	// WithResult sets the target value the success response body is decoded to.
	// It must be a pointer or an io.Writer/io.WriteCloser.
	WithResult(result any) HTTPRequest
	// WithOnSuccess adds a callback invoked after the request succeeds with a 2xx code.
	WithOnSuccess(fn func(ctx context.Context, response HTTPResponse) error) HTTPRequest
	// WithOnError adds a callback invoked after the request fails or returns a 4xx/5xx code.
	WithOnError(fn func(ctx context.Context, response HTTPResponse, err error) error) HTTPRequest
	// Send sends the request by the bound Sender and returns the response and the mapped result.
	Send(ctx context.Context) (response HTTPResponse, result any, err error)
	// SendOrErr sends the request and returns the error only, it implements the Sendable interface.
	SendOrErr(ctx context.Context) error
}

// definition is the read-only part of the HTTPRequest, shared with the HTTPResponse.
type definition interface {
	// Method returns the HTTP method, it panics if the method is not set.
	Method() string
	// URL returns the request URL resolved against the base URL, it panics if the URL is not set.
	URL() *url.URL
	// RequestHeader returns the request headers.
	RequestHeader() http.Header
	// QueryParams returns the query parameters.
	QueryParams() url.Values
	// PathParams returns values of the {placeholders} in the URL path.
	PathParams() map[string]string
	// RequestBody returns the request body definition, see WithJSONBody and WithBody.
	RequestBody() any
	// ErrorDef returns the target value for the error response mapping.
	ErrorDef() error
	// ResultDef returns the target value for the success response mapping.
	ResultDef() any
}

// NewHTTPRequest creates an empty request definition bound to the sender.
func NewHTTPRequest(sender Sender) HTTPRequest {
	return httpRequest{sender: sender, header: make(http.Header)}
}

// callback post-processes a finished request, see WithOnSuccess and WithOnError.
type callback func(ctx context.Context, response HTTPResponse, err error) error

// httpRequest implements the HTTPRequest interface.
// All methods use a value receiver, modifications apply to a copy.
type httpRequest struct {
	sender      Sender
	method      string
	baseURL     *url.URL
	url         *url.URL
	header      http.Header
	queryParams url.Values
	pathParams  map[string]string
	body        any
	resultDef   any
	errorDef    error
	callbacks   []callback
}

func (r httpRequest) Tracer() trace.Tracer {
	if v, ok := r.sender.(withTracer); ok {
		return v.Tracer()
	}
	return nil
}

func (r httpRequest) Method() string {
	if r.method == "" {
		panic(fmt.Errorf("request method is not set"))
	}
	return r.method
}

func (r httpRequest) URL() *url.URL {
	if r.url == nil {
		panic(fmt.Errorf("request url is not set"))
	}
	out := *r.url
	if r.baseURL != nil && !out.IsAbs() {
		out.Path = strings.TrimLeft(out.Path, "/")
		return r.baseURL.ResolveReference(&out)
	}
	return &out
}

func (r httpRequest) RequestHeader() http.Header {
	return r.header
}

func (r httpRequest) QueryParams() url.Values {
	return r.queryParams
}

func (r httpRequest) PathParams() map[string]string {
	return r.pathParams
}

func (r httpRequest) RequestBody() any {
	return r.body
}

func (r httpRequest) ErrorDef() error {
	return r.errorDef
}

func (r httpRequest) ResultDef() any {
	return r.resultDef
}

func (r httpRequest) WithGet(url string) HTTPRequest {
	return r.WithMethod(http.MethodGet).WithURL(url)
}

func (r httpRequest) WithPost(url string) HTTPRequest {
	return r.WithMethod(http.MethodPost).WithURL(url)
}

func (r httpRequest) WithDelete(url string) HTTPRequest {
	return r.WithMethod(http.MethodDelete).WithURL(url)
}

func (r httpRequest) WithMethod(method string) HTTPRequest {
	r.method = method
	return r
}

func (r httpRequest) WithURL(urlStr string) HTTPRequest {
	v, err := url.Parse(urlStr)
	if err != nil {
		panic(fmt.Errorf(`url "%s" is not valid: %w`, urlStr, err))
	}
	r.url = v
	return r
}

func (r httpRequest) WithBaseURL(baseURL string) HTTPRequest {
	v, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		panic(fmt.Errorf(`base url "%s" is not valid: %w`, baseURL, err))
	}
	// The trailing slash makes ResolveReference keep the whole base path
	v.Path = strings.TrimRight(v.Path, "/") + "/"
	r.baseURL = v
	return r
}

func (r httpRequest) AndHeader(header string, value string) HTTPRequest {
	r.header = r.header.Clone()
	r.header.Set(header, value)
	return r
}

func (r httpRequest) AndQueryParam(key, value string) HTTPRequest {
	r.queryParams = cloneValues(r.queryParams)
	r.queryParams.Set(key, value)
	return r
}

func (r httpRequest) AndPathParam(key, value string) HTTPRequest {
	clone := make(map[string]string, len(r.pathParams)+1)
	maps.Copy(clone, r.pathParams)
	clone[key] = value
	r.pathParams = clone
	return r
}

func (r httpRequest) WithJSONBody(body any) HTTPRequest {
	r.body = body
	return r.AndHeader("Content-Type", "application/json")
}

func (r httpRequest) WithBody(body any) HTTPRequest {
	r.body = body
	return r
}

func (r httpRequest) WithError(err error) HTTPRequest {
	if reflect.ValueOf(err).Kind() != reflect.Ptr {
		panic(fmt.Errorf("error must be defined by a pointer"))
	}
	r.errorDef = err
	return r
}

func (r httpRequest) WithResult(result any) HTTPRequest {
	if _, ok := result.(io.Writer); !ok {
		if reflect.ValueOf(result).Kind() != reflect.Ptr {
			panic(fmt.Errorf("result must be defined by a pointer"))
		}
	}
	r.resultDef = result
	return r
}

func (r httpRequest) WithOnSuccess(fn func(ctx context.Context, response HTTPResponse) error) HTTPRequest {
	return r.withCallback(func(ctx context.Context, response HTTPResponse, err error) error {
		if err == nil {
			return fn(ctx, response)
		}
		return err
	})
}

func (r httpRequest) WithOnError(fn func(ctx context.Context, response HTTPResponse, err error) error) HTTPRequest {
	return r.withCallback(func(ctx context.Context, response HTTPResponse, err error) error {
		if err != nil {
			return fn(ctx, response, err)
		}
		return err
	})
}

func (r httpRequest) withCallback(fn callback) HTTPRequest {
	// Limit the capacity, append to a shared backing array would leak to other copies
	r.callbacks = append(r.callbacks[:len(r.callbacks):len(r.callbacks)], fn)
	return r
}

func (r httpRequest) Send(ctx context.Context) (HTTPResponse, any, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	rawResponse, result, err := r.sender.Send(ctx, r)
	out := &httpResponse{httpRequest: r, rawResponse: rawResponse, result: result, err: err}

	for _, fn := range r.callbacks {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		out.err = fn(ctx, out, out.err)
	}

	return out, out.result, out.err
}

func (r httpRequest) SendOrErr(ctx context.Context) error {
	_, _, err := r.Send(ctx)
	return err
}

func cloneValues(in url.Values) url.Values {
	out := make(url.Values, len(in))
	for k, values := range in {
		out[k] = append([]string(nil), values...)
	}
	return out
}
