package request

import "net/http"

// HTTPResponse is the outcome of a sent HTTPRequest.
// It gives access to the original definition, the raw response,
// and the mapped result or error.
type HTTPResponse interface {
	definition
	// ResponseHeader returns the response headers.
	ResponseHeader() http.Header
	// StatusCode returns the HTTP status code.
	StatusCode() int
	// RawRequest returns the underlying http.Request of the last attempt, if known.
	RawRequest() *http.Request
	// RawResponse returns the underlying http.Response.
	RawResponse() *http.Response
	// IsSuccess reports whether the status code is 2xx.
	IsSuccess() bool
	// IsError reports whether the status code is 4xx or 5xx.
	IsError() bool
	// Result returns the mapped result value, if any.
	Result() any
	// Error returns the mapped API error or a transport error, if any.
	Error() error
}

// httpResponse implements the HTTPResponse interface.
// The embedded httpRequest provides the read-only definition methods.
type httpResponse struct {
	httpRequest
	rawResponse *http.Response
	result      any
	err         error
}

func (r httpResponse) ResponseHeader() http.Header {
	return r.rawResponse.Header
}

func (r httpResponse) StatusCode() int {
	return r.rawResponse.StatusCode
}

func (r httpResponse) RawRequest() *http.Request {
	if r.rawResponse == nil {
		return nil
	}
	return r.rawResponse.Request
}

func (r httpResponse) RawResponse() *http.Response {
	return r.rawResponse
}

func (r httpResponse) IsSuccess() bool {
	code := r.StatusCode()
	return code >= http.StatusOK && code < http.StatusMultipleChoices
}

func (r httpResponse) IsError() bool {
	return r.StatusCode() >= http.StatusBadRequest
}

func (r httpResponse) Result() any {
	return r.result
}

func (r httpResponse) Error() error {
	return r.err
}
