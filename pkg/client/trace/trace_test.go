package trace_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"

	"github.com/parsem/go-client/pkg/client"
	"github.com/parsem/go-client/pkg/client/trace"
	"github.com/parsem/go-client/pkg/request"
)

func TestTrace(t *testing.T) {
	t.Parallel()

	// Mocked response
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", `https://example.com/redirect1`, func(r *http.Request) (*http.Response, error) {
		header := make(http.Header)
		header.Set("Location", "https://example.com/redirect2")
		return &http.Response{
			StatusCode: http.StatusMovedPermanently,
			Header:     header,
		}, nil
	})
	transport.RegisterResponder("GET", `https://example.com/redirect2`, func(r *http.Request) (*http.Response, error) {
		header := make(http.Header)
		header.Set("Location", "https://example.com/index")
		return &http.Response{
			StatusCode: http.StatusMovedPermanently,
			Header:     header,
		}, nil
	})
	transport.RegisterResponder("GET", `https://example.com/index`, httpmock.ResponderFromMultipleResponses([]*http.Response{
		{StatusCode: http.StatusLocked},
		{StatusCode: http.StatusTooManyRequests},
		{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("OK"))},
	}))

	// Logs for trace testing
	var logs strings.Builder

	// Create client
	ctx := context.Background()
	c := client.New().
		WithTransport(transport).
		WithRetry(client.RetryConfig{
			Condition:     client.DefaultRetryCondition(),
			Count:         3,
			WaitTimeStart: 1 * time.Microsecond,
			WaitTimeMax:   20 * time.Microsecond,
		}).
		AndTrace(func(ctx context.Context, reqDef request.HTTPRequest) (context.Context, *trace.ClientTrace) {
			logs.WriteString(fmt.Sprintf("GotRequest        %s %s\n", reqDef.Method(), reqDef.URL()))
			return ctx, &trace.ClientTrace{
				RequestProcessed: func(result any, err error) {
					s := spew.NewDefaultConfig()
					s.DisablePointerAddresses = true
					s.DisableCapacities = true
					logs.WriteString(fmt.Sprintf("RequestProcessed  result=%s err=%v\n", strings.TrimSpace(s.Sdump(result)), err))
				},
				HTTPRequestStart: func(r *http.Request) {
					logs.WriteString(fmt.Sprintf("HTTPRequestStart  %s %s\n", r.Method, r.URL))
				},
				HTTPResponse: func(r *http.Response, err error) {
					logs.WriteString(fmt.Sprintf("HTTPResponse      %d %s err=%v\n", r.StatusCode, http.StatusText(r.StatusCode), err))
				},
				RetryDelay: func(attempt int, delay time.Duration) {
					logs.WriteString(fmt.Sprintf("RetryDelay        attempt=%d delay=%s\n", attempt, delay))
				},
			}
		})

	// Expected events
	expected := `
GotRequest        GET https://example.com/redirect1
HTTPRequestStart  GET https://example.com/redirect1
HTTPResponse      301 Moved Permanently err=<nil>
HTTPRequestStart  GET https://example.com/redirect2
HTTPResponse      301 Moved Permanently err=<nil>
HTTPRequestStart  GET https://example.com/index
HTTPResponse      423 Locked err=<nil>
RetryDelay        attempt=1 delay=1µs
HTTPRequestStart  GET https://example.com/index
HTTPResponse      429 Too Many Requests err=<nil>
RetryDelay        attempt=2 delay=2µs
HTTPRequestStart  GET https://example.com/index
HTTPResponse      200 OK err=<nil>
RequestProcessed  result=(*string)((len=2) "OK") err=<nil>
`

	// Test
	str := ""
	_, result, err := request.NewHTTPRequest(c).WithGet("https://example.com/redirect1").WithResult(&str).Send(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "OK", *result.(*string))
	assert.Equal(t, strings.TrimLeft(expected, "\n"), logs.String())
}

func TestTrace_Multiple(t *testing.T) {
	t.Parallel()

	// Mocked response
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", `https://example.com`, httpmock.NewStringResponder(200, "OK"))

	// Logs for trace testing
	var logs strings.Builder

	// Create client
	ctx := context.Background()
	c := client.New().
		WithTransport(transport).
		WithRetry(client.TestingRetry()).
		AndTrace(func(ctx context.Context, reqDef request.HTTPRequest) (context.Context, *trace.ClientTrace) {
			logs.WriteString(fmt.Sprintf("1: GotRequest        %s %s\n", reqDef.Method(), reqDef.URL()))
			return ctx, &trace.ClientTrace{
				RequestProcessed: func(result any, err error) {
					s := spew.NewDefaultConfig()
					s.DisablePointerAddresses = true
					s.DisableCapacities = true
					logs.WriteString(fmt.Sprintf("1: RequestProcessed  result=%s err=%v\n", strings.TrimSpace(s.Sdump(result)), err))
				},
				HTTPRequestStart: func(r *http.Request) {
					logs.WriteString(fmt.Sprintf("1: HTTPRequestStart  %s %s\n", r.Method, r.URL))
				},
				HTTPResponse: func(r *http.Response, err error) {
					logs.WriteString(fmt.Sprintf("1: HTTPResponse      %d %s err=%v\n", r.StatusCode, http.StatusText(r.StatusCode), err))
				},
			}
		}).
		AndTrace(func(ctx context.Context, reqDef request.HTTPRequest) (context.Context, *trace.ClientTrace) {
			logs.WriteString(fmt.Sprintf("2: GotRequest        %s %s\n", reqDef.Method(), reqDef.URL()))
			return ctx, &trace.ClientTrace{
				HTTPRequestStart: func(r *http.Request) {
					logs.WriteString(fmt.Sprintf("2: HTTPRequestStart  %s %s\n", r.Method, r.URL))
				},
				HTTPResponse: func(r *http.Response, err error) {
					logs.WriteString(fmt.Sprintf("2: HTTPResponse      %d %s err=%v\n", r.StatusCode, http.StatusText(r.StatusCode), err))
				},
			}
		}).
		AndTrace(func(ctx context.Context, _ request.HTTPRequest) (context.Context, *trace.ClientTrace) {
			return ctx, &trace.ClientTrace{
				RequestProcessed: func(result any, err error) {
					s := spew.NewDefaultConfig()
					s.DisablePointerAddresses = true
					s.DisableCapacities = true
					logs.WriteString(fmt.Sprintf("3: RequestProcessed  result=%s err=%v\n", strings.TrimSpace(s.Sdump(result)), err))
				},
				HTTPRequestStart: func(r *http.Request) {
					logs.WriteString(fmt.Sprintf("3: HTTPRequestStart  %s %s\n", r.Method, r.URL))
				},
				HTTPResponse: func(r *http.Response, err error) {
					logs.WriteString(fmt.Sprintf("3: HTTPResponse      %d %s err=%v\n", r.StatusCode, http.StatusText(r.StatusCode), err))
				},
			}
		})

	// Expected events, hooks are composed in the registration order
	expected := `
1: GotRequest        GET https://example.com
2: GotRequest        GET https://example.com
1: HTTPRequestStart  GET https://example.com
2: HTTPRequestStart  GET https://example.com
3: HTTPRequestStart  GET https://example.com
1: HTTPResponse      200 OK err=<nil>
2: HTTPResponse      200 OK err=<nil>
3: HTTPResponse      200 OK err=<nil>
1: RequestProcessed  result=(*string)((len=2) "OK") err=<nil>
3: RequestProcessed  result=(*string)((len=2) "OK") err=<nil>
`

	// Test
	str := ""
	_, result, err := request.NewHTTPRequest(c).WithGet("https://example.com").WithResult(&str).Send(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "OK", *result.(*string))
	assert.Equal(t, strings.TrimLeft(expected, "\n"), logs.String())
}
