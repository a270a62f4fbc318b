package parsem

import (
	"fmt"
	"net/http"
)

// Error represents the Parsem API error structure.
type Error struct {
	Message     string `json:"error"`
	ErrCode     string `json:"code"`
	ExceptionID string `json:"exceptionId"`
	request     *http.Request
	response    *http.Response
}

func (e Error) Error() string {
	return fmt.Sprintf("parsem api error[%s]: %s", e.ErrCode, e.Message)
}

// ErrorName returns a human-readable name of the error.
func (e Error) ErrorName() string {
	return e.ErrCode
}

// ErrorUserMessage returns error message for end user.
func (e Error) ErrorUserMessage() string {
	return e.Message
}

// ErrorExceptionID returns exception ID to find details in logs.
func (e Error) ErrorExceptionID() string {
	return e.ExceptionID
}

// StatusCode returns the HTTP status code,
// or 0 if the error was not produced by an HTTP response.
func (e Error) StatusCode() int {
	if e.response == nil {
		return 0
	}
	return e.response.StatusCode
}

// SetRequest method allows injection of HTTP request to the error, it implements client.errorWithRequest.
func (e *Error) SetRequest(request *http.Request) {
	e.request = request
}

// SetResponse method allows injection of HTTP response to the error, it implements client.errorWithResponse.
func (e *Error) SetResponse(response *http.Response) {
	e.response = response
}
