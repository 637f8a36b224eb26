package doppio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
	"unicode/utf8"

	"pdfgen/internal/credentials"
)

// Failure kinds. Transport failures wrap the underlying error as well, so
// errors.Is works against both the kind and e.g. context.Canceled.
var (
	ErrMissingCredential = credentials.ErrMissingCredential
	ErrInvalidRequest    = errors.New("invalid render request")
	ErrInvalidOutputName = errors.New("invalid output filename")
	ErrEmptyResponse     = errors.New("empty response from rendering service")
	ErrTimeout           = errors.New("request to rendering service timed out")
	ErrConnection        = errors.New("could not connect to rendering service")
	ErrTransport         = errors.New("request to rendering service failed")
	ErrWriteOutput       = errors.New("failed to write PDF file")
)

// maxExcerpt bounds the raw-text fallback for undecodable error bodies.
const maxExcerpt = 500

// RemoteError is a non-200 answer from the rendering service.
type RemoteError struct {
	StatusCode int
	Message    string
	Code       string
	Detail     string
}

func (e *RemoteError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "rendering service returned HTTP %d: %s", e.StatusCode, e.Message)
	if e.Code != "" {
		fmt.Fprintf(&b, " (code %s)", e.Code)
	}
	if e.Detail != "" {
		fmt.Fprintf(&b, ": %s", e.Detail)
	}
	return b.String()
}

// Unauthorized reports whether the service rejected the API key.
func (e *RemoteError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// decodeRemoteError first tries the JSON error shape, then falls back to a
// bounded excerpt of the raw body.
func decodeRemoteError(status int, body []byte) *RemoteError {
	re := &RemoteError{StatusCode: status}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err == nil && payload != nil {
		re.Message = jsonText(payload["message"])
		if re.Message == "" {
			re.Message = "Unknown error"
		}
		re.Code = jsonText(payload["code"])
		re.Detail = jsonText(payload["error"])
		return re
	}

	re.Message = excerpt(string(body), maxExcerpt)
	if re.Message == "" {
		re.Message = http.StatusText(status)
	}
	return re
}

// jsonText renders a JSON value as plain text: strings unquoted, anything
// else in its compact JSON form.
func jsonText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func excerpt(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// classifyTransport maps a failed exchange to a failure kind.
func classifyTransport(err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case isConnectFailure(err):
		return fmt.Errorf("%w: %w", ErrConnection, err)
	default:
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
}

func isConnectFailure(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET)
}
