// Package parsem contains request definitions for the Parsem document parsing API.
// The definitions are not complete and can be extended as needed.
// Requests can be sent by any HTTP client that implements the request.Sender interface.
// It is necessary to set the API host and the "X-Api-Token" header,
// see the NewAPI function.
package parsem

import (
	"strings"

	"github.com/parsem/go-client/pkg/client"
	"github.com/parsem/go-client/pkg/request"
)

const appName = "github.com/parsem/go-client"

// API is a facade for the Parsem API request definitions.
type API struct {
	sender request.Sender
}

type apiConfig struct {
	client *client.Client
	token  string
}

type APIOption func(c *apiConfig)

// WithClient sets a custom HTTP client, by default client.New() is used.
func WithClient(cl *client.Client) APIOption {
	return func(c *apiConfig) {
		c.client = cl
	}
}

// WithToken sets the API token sent with each request.
func WithToken(token string) APIOption {
	return func(c *apiConfig) {
		c.token = token
	}
}

func NewAPI(host string, opts ...APIOption) *API {
	if !strings.HasPrefix(host, "https://") && !strings.HasPrefix(host, "http://") {
		host = "https://" + host
	}
	cfg := apiConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	var c client.Client
	if cfg.client != nil {
		c = *cfg.client
	} else {
		c = client.New()
	}
	if cfg.token != "" {
		c = c.WithHeader("X-Api-Token", cfg.token)
	}
	return &API{sender: c.WithBaseURL(host)}
}

func (a *API) Client() request.Sender {
	return a.sender
}

// newRequest creates a request bound to the API sender, sets the base URL and the default error type.
func (a *API) newRequest() request.HTTPRequest {
	return request.NewHTTPRequest(a.sender).WithBaseURL("v2").WithError(&Error{})
}
