package eligibility

import (
	"errors"
	"fmt"
	"strings"
)

// Kind defines the normalized failure taxonomy for eligibility checks.
type Kind string

const (
	// KindConfiguration indicates a missing or malformed configuration field.
	KindConfiguration Kind = "configuration_error"

	// KindInvalidArgument indicates an empty or unusable subject identifier.
	KindInvalidArgument Kind = "invalid_argument"

	// KindTransportFailure indicates the request never produced an HTTP response
	// (connection refused, DNS, TLS, timeout, cancelled context).
	KindTransportFailure Kind = "transport_failure"

	// KindPolicyRejected indicates the policy checker answered with a 4xx status.
	KindPolicyRejected Kind = "policy_rejected"

	// KindServerError indicates the policy checker answered with a 5xx
	// (or otherwise non-2xx, non-4xx) status.
	KindServerError Kind = "server_error"

	// KindMalformedResponse indicates a 2xx answer whose body is not a JSON object.
	KindMalformedResponse Kind = "malformed_response"
)

// Error is the structured failure delivered to callers and observers.
type Error struct {
	Kind       Kind
	Message    string
	Fields     []string       // offending configuration keys
	StatusCode int            // HTTP status for policy_rejected / server_error
	Detail     map[string]any // decoded error body, never nil for HTTP-stage errors
	Cause      error
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if len(e.Fields) > 0 {
		b.WriteString(" [")
		b.WriteString(strings.Join(e.Fields, ", "))
		b.WriteString("]")
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap supports error unwrapping
func (e *Error) Unwrap() error {
	return e.Cause
}

// Map renders the failure as the structured map handed to observers that
// want a transport-neutral view: code, message and whichever of detail,
// fields, status and cause apply.
func (e *Error) Map() map[string]any {
	m := map[string]any{
		"code":    string(e.Kind),
		"message": e.Message,
	}
	if e.Detail != nil {
		m["detail"] = e.Detail
	}
	if len(e.Fields) > 0 {
		m["fields"] = append([]string(nil), e.Fields...)
	}
	if e.StatusCode != 0 {
		m["status"] = e.StatusCode
	}
	if e.Cause != nil {
		m["cause"] = e.Cause.Error()
	}
	return m
}

func newError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func configError(fields ...string) *Error {
	return &Error{
		Kind:    KindConfiguration,
		Message: fmt.Sprintf("invalid configuration: %d field(s) missing or malformed", len(fields)),
		Fields:  fields,
	}
}

// KindOf extracts the failure kind from an error. Errors that did not
// originate in this package report an empty Kind.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given failure kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
