package transport

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
)

// NetworkErrorMessage is the user-facing text of every [*NetworkError].
const NetworkErrorMessage = "unable to reach the server, check your connection"

var (
	// ErrNetwork matches any [*NetworkError].
	ErrNetwork = errors.New("network error")
	// ErrUnauthenticated matches an [*APIError] with status 401.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// NetworkError reports a call that produced no response (DNS, refused connection,
// timeout). Error returns [NetworkErrorMessage]; the transport error is kept in Err.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string { return NetworkErrorMessage }

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// UserMessage returns the displayable text, identical to Error.
func (e *NetworkError) UserMessage() string { return NetworkErrorMessage }

// APIError is a non-2xx response from the remote API.
type APIError struct {
	StatusCode int
	// Message is the server-supplied message, empty when the body carried none.
	Message string
	Body    []byte
}

func (e *APIError) Error() string {
	var b strings.Builder
	b.WriteString("api error: status ")
	b.WriteString(strconv.Itoa(e.StatusCode))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthenticated && e.StatusCode == http.StatusUnauthorized
}

// RejectionMessage exposes the server-supplied message to callers that surface
// rejections to the user.
func (e *APIError) RejectionMessage() string { return e.Message }

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Detail  string `json:"detail"`
}

func newAPIError(status int, body []byte) *APIError {
	e := &APIError{StatusCode: status, Body: body}
	var eb errorBody
	if len(body) > 0 && json.Unmarshal(body, &eb) == nil {
		switch {
		case eb.Message != "":
			e.Message = eb.Message
		case eb.Error != "":
			e.Message = eb.Error
		case eb.Detail != "":
			e.Message = eb.Detail
		}
	}
	return e
}
