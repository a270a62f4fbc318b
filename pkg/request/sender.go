package request

import (
	"context"
	"net/http"
)

// Sender sends the defined requests, the client.Client is the default implementation.
//
// The type of the returned result value matches the request's ResultDef value,
// a generic signature cannot be used here, Go methods cannot have type parameters.
type Sender interface {
	Send(ctx context.Context, request HTTPRequest) (rawResponse *http.Response, result any, err error)
}

// Sendable is an HTTPRequest or an APIRequest.
type Sendable interface {
	SendOrErr(ctx context.Context) error
}
