package fraudapi

import (
	"fmt"
	"net/http"
)

// ErrorKind classifies why a call to the scoring service failed.
type ErrorKind int

// Error kinds.
const (
	// KindValidation means the service answered but rejected the input
	// (success was not true).
	KindValidation ErrorKind = iota
	// KindTransport means no response was received.
	KindTransport
	// KindServer means the service answered with a non-2xx status.
	KindServer
	// KindDecode means a 2xx response could not be understood.
	KindDecode
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindTransport:
		return "transport"
	case KindServer:
		return "server"
	case KindDecode:
		return "decode"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is the failure half of every adapter call.
type Error struct {
	Err     error
	Op      string
	Message string
	Kind    ErrorKind
	Status  int
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Status != 0:
		return fmt.Sprintf("%s: %s error (status %d): %s", e.Op, e.Kind, e.Status, e.Message)
	case e.Message != "":
		return fmt.Sprintf("%s: %s error: %s", e.Op, e.Kind, e.Message)
	case e.Status != 0:
		return fmt.Sprintf("%s: %s error (status %d)", e.Op, e.Kind, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s error", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage picks the most specific description available: the service's
// own error text, then the HTTP status, then connectivity, then a generic
// fallback.
func (e *Error) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Status != 0 && (e.Status < http.StatusOK || e.Status >= http.StatusMultipleChoices) {
		return fmt.Sprintf("Server error: %d", e.Status)
	}
	if e.Kind == KindTransport {
		return "Network error - please check your connection"
	}
	if fallback, ok := genericMessages[e.Op]; ok {
		return fallback
	}
	return "Request failed"
}

var genericMessages = map[string]string{
	"validate-csv": "Upload failed",
	"sample-data":  "Failed to generate sample data",
	"train":        "Training failed",
	"predict":      "Prediction failed",
}
