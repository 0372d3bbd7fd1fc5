package jenkins

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a failed exchange with the Jenkins server.
type ErrorKind int

const (
	// ErrKindNotFound means the requested resource does not exist (HTTP 404).
	ErrKindNotFound ErrorKind = iota
	// ErrKindAuth means the credentials were rejected or lack permission (401/403).
	ErrKindAuth
	// ErrKindServer means Jenkins returned any other non-2xx status, after
	// the retry budget (if any) was exhausted.
	ErrKindServer
	// ErrKindNetwork means the request never produced an HTTP response.
	ErrKindNetwork
	// ErrKindTimeout means the per-attempt deadline expired. Timeouts are
	// surfaced immediately and never retried.
	ErrKindTimeout
)

func (k ErrorKind) String() string {
	switch k {
	case ErrKindNotFound:
		return "not_found"
	case ErrKindAuth:
		return "auth_failed"
	case ErrKindServer:
		return "server_error"
	case ErrKindNetwork:
		return "network_error"
	case ErrKindTimeout:
		return "timeout"
	}
	return "unknown"
}

// ClientError is the single error type returned by the client for failed
// exchanges. Status is zero for network and timeout failures. Body carries
// the raw response body for server errors so callers can surface it.
type ClientError struct {
	Kind    ErrorKind
	Status  int
	Message string
	Body    string
	cause   error
}

func (e *ClientError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("jenkins: %s (HTTP %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("jenkins: %s: %s", e.Kind, e.Message)
}

func (e *ClientError) Unwrap() error { return e.cause }

// classifyStatus maps a terminal non-2xx response to a ClientError.
func classifyStatus(status int, body string) *ClientError {
	switch {
	case status == http.StatusNotFound:
		return &ClientError{Kind: ErrKindNotFound, Status: status, Message: "resource not found"}
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &ClientError{
			Kind:    ErrKindAuth,
			Status:  status,
			Message: "authentication failed: check JENKINS_USERNAME and JENKINS_API_TOKEN",
		}
	default:
		return &ClientError{
			Kind:    ErrKindServer,
			Status:  status,
			Message: fmt.Sprintf("server returned %d", status),
			Body:    body,
		}
	}
}

func networkError(err error) *ClientError {
	return &ClientError{Kind: ErrKindNetwork, Message: err.Error(), cause: err}
}

func timeoutError(err error) *ClientError {
	return &ClientError{Kind: ErrKindTimeout, Message: "request timed out", cause: err}
}

// IsNotFound reports whether err is a ClientError with kind ErrKindNotFound.
// Callers typically map this to an empty result instead of failing.
func IsNotFound(err error) bool { return hasKind(err, ErrKindNotFound) }

// IsAuth reports whether err is a credential/permission failure.
func IsAuth(err error) bool { return hasKind(err, ErrKindAuth) }

// IsTimeout reports whether err is a per-attempt deadline failure.
func IsTimeout(err error) bool { return hasKind(err, ErrKindTimeout) }

func hasKind(err error, kind ErrorKind) bool {
	var ce *ClientError
	return errors.As(err, &ce) && ce.Kind == kind
}
