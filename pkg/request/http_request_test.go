package request_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/parsem/go-client/pkg/client"
	"github.com/parsem/go-client/pkg/request"
)

type apiError1 struct {
	error
}

type apiError2 struct {
	error
}

func TestHttpRequest_Immutability(t *testing.T) {
	t.Parallel()
	var a, b request.HTTPRequest
	a = request.NewHTTPRequest(client.New())

	// WithGet
	a = a.WithGet("/documents/1")
	b = a.WithGet("/documents/2")
	assert.Equal(t, http.MethodGet, a.Method())
	assert.Equal(t, "/documents/1", a.URL().String())
	assert.Equal(t, http.MethodGet, b.Method())
	assert.Equal(t, "/documents/2", b.URL().String())

	// WithPost
	a = a.WithPost("/parse/text")
	b = a.WithPost("/jobs")
	assert.Equal(t, http.MethodPost, a.Method())
	assert.Equal(t, "/parse/text", a.URL().String())
	assert.Equal(t, http.MethodPost, b.Method())
	assert.Equal(t, "/jobs", b.URL().String())

	// WithDelete
	a = a.WithDelete("/documents/1")
	b = a.WithDelete("/documents/2")
	assert.Equal(t, http.MethodDelete, a.Method())
	assert.Equal(t, "/documents/1", a.URL().String())
	assert.Equal(t, http.MethodDelete, b.Method())
	assert.Equal(t, "/documents/2", b.URL().String())

	// WithMethod
	a = a.WithMethod(http.MethodGet)
	b = a.WithMethod(http.MethodPost)
	assert.Equal(t, http.MethodGet, a.Method())
	assert.Equal(t, http.MethodPost, b.Method())

	// WithBaseURL
	a = a.WithURL("/documents")
	a = a.WithBaseURL("/v1")
	b = a.WithBaseURL("/v2")
	assert.Equal(t, "/v1/documents", a.URL().String())
	assert.Equal(t, "/v2/documents", b.URL().String())

	// WithURL
	a = a.WithURL("/jobs")
	b = a.WithURL("/account")
	assert.Equal(t, "/v1/jobs", a.URL().String())
	assert.Equal(t, "/v1/account", b.URL().String())

	// AndHeader
	a = a.AndHeader("X-Api-Token", "secret1")
	b = a.AndHeader("X-Trace-Id", "abc")
	assert.Equal(t, http.Header{"X-Api-Token": []string{"secret1"}}, a.RequestHeader())
	assert.Equal(t, http.Header{"X-Api-Token": []string{"secret1"}, "X-Trace-Id": []string{"abc"}}, b.RequestHeader())

	// AndQueryParam
	a = a.AndQueryParam("language", "en")
	b = a.AndQueryParam("limit", "10")
	assert.Equal(t, url.Values{"language": []string{"en"}}, a.QueryParams())
	assert.Equal(t, url.Values{"language": []string{"en"}, "limit": []string{"10"}}, b.QueryParams())

	// AndPathParam
	a = a.AndPathParam("documentId", "doc-1")
	b = a.AndPathParam("jobId", "job-1")
	assert.Equal(t, map[string]string{"documentId": "doc-1"}, a.PathParams())
	assert.Equal(t, map[string]string{"documentId": "doc-1", "jobId": "job-1"}, b.PathParams())

	// WithJSONBody
	a = a.WithJSONBody(map[string]string{"content": "resume A"})
	b = a.WithJSONBody(map[string]string{"content": "resume B"})
	assert.Equal(t, map[string]string{"content": "resume A"}, a.RequestBody())
	assert.Equal(t, map[string]string{"content": "resume B"}, b.RequestBody())
	assert.Equal(t, "application/json", a.RequestHeader().Get("Content-Type"))

	// WithBody
	a = a.WithBody("raw A")
	b = a.WithBody("raw B")
	assert.Equal(t, "raw A", a.RequestBody())
	assert.Equal(t, "raw B", b.RequestBody())

	// WithError
	a = a.WithError(&apiError1{})
	b = a.WithError(&apiError2{})
	assert.Equal(t, &apiError1{}, a.ErrorDef())
	assert.Equal(t, &apiError2{}, b.ErrorDef())

	// WithResult
	result1 := ""
	result2 := 0
	a = a.WithResult(&result1)
	b = a.WithResult(&result2)
	assert.Equal(t, &result1, a.ResultDef())
	assert.Equal(t, &result2, b.ResultDef())

	// WithOnSuccess / WithOnError
	onSuccess := func(ctx context.Context, response request.HTTPResponse) error {
		return nil
	}
	onError := func(ctx context.Context, response request.HTTPResponse, err error) error {
		return nil
	}
	a = a.WithOnSuccess(onSuccess)
	b = a.WithOnError(onError)
	assert.NotEqual(t, a, b)
}

func TestHttpRequest_URLResolution(t *testing.T) {
	t.Parallel()
	c := client.New()

	// Relative URL is resolved against the base URL
	r := request.NewHTTPRequest(c).WithBaseURL("https://api.parsem.com/v2").WithGet("documents/{documentId}")
	assert.Equal(t, "https://api.parsem.com/v2/documents/%7BdocumentId%7D", r.URL().String())

	// Leading slash does not escape the base path
	r = request.NewHTTPRequest(c).WithBaseURL("https://api.parsem.com/v2/").WithGet("/account")
	assert.Equal(t, "https://api.parsem.com/v2/account", r.URL().String())

	// Absolute URL wins over the base URL
	r = request.NewHTTPRequest(c).WithBaseURL("https://api.parsem.com/v2").WithGet("https://other.parsem.com/status")
	assert.Equal(t, "https://other.parsem.com/status", r.URL().String())
}

func TestHttpRequest_PanicsOnMissingDefinition(t *testing.T) {
	t.Parallel()
	r := request.NewHTTPRequest(client.New())
	assert.PanicsWithError(t, "request method is not set", func() {
		r.Method()
	})
	assert.PanicsWithError(t, "request url is not set", func() {
		r.URL()
	})
}
