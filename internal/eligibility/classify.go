package eligibility

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Outcome is the single result of a dispatched check: either a decoded
// success payload or a structured failure, never both.
type Outcome struct {
	result  map[string]any
	failure *Error
}

// Succeeded builds a success outcome.
func Succeeded(result map[string]any) Outcome {
	if result == nil {
		result = map[string]any{}
	}
	return Outcome{result: result}
}

// Failed builds a failure outcome.
func Failed(err *Error) Outcome {
	return Outcome{failure: err}
}

// Result returns the success payload and true, or nil and false for failures.
func (o Outcome) Result() (map[string]any, bool) {
	if o.failure != nil {
		return nil, false
	}
	return o.result, true
}

// Err returns the failure, or nil for successes.
func (o Outcome) Err() *Error {
	return o.failure
}

// Kind reports the failure kind, or "" for successes.
func (o Outcome) Kind() Kind {
	if o.failure == nil {
		return ""
	}
	return o.failure.Kind
}

// Classify maps a raw transport result into an Outcome. Rules, in order:
// an oversized body is malformed whatever its status; a transport error wins; a non-2xx status is a rejection (4xx) or server
// error (anything else) with the body decoded best-effort as detail; a 2xx
// body must decode to a JSON object.
func Classify(data []byte, resp *http.Response, err error) Outcome {
	if errors.Is(err, ErrResponseTooLarge) && resp != nil {
		return Failed(&Error{
			Kind:       KindMalformedResponse,
			Message:    "policy checker response is too large",
			StatusCode: resp.StatusCode,
			Cause:      err,
		})
	}
	if err != nil {
		return Failed(newError(KindTransportFailure, "policy checker request failed", err))
	}
	if resp == nil {
		return Failed(newError(KindTransportFailure, "policy checker returned no response", nil))
	}

	status := resp.StatusCode
	if status < 200 || status > 299 {
		kind := KindServerError
		if status >= 400 && status <= 499 {
			kind = KindPolicyRejected
		}
		detail, decodeErr := decodeObject(data)
		if decodeErr != nil {
			detail = map[string]any{}
		}
		return Failed(&Error{
			Kind:       kind,
			Message:    fmt.Sprintf("policy checker responded with status %d", status),
			StatusCode: status,
			Detail:     detail,
		})
	}

	result, decodeErr := decodeObject(data)
	if decodeErr != nil {
		return Failed(&Error{
			Kind:       KindMalformedResponse,
			Message:    "policy checker response is not a JSON object",
			StatusCode: status,
			Cause:      decodeErr,
		})
	}
	return Succeeded(result)
}

var errNotObject = errors.New("body is not a JSON object")

func decodeObject(data []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("empty body")
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	if dec.More() {
		return nil, errors.New("trailing data after JSON value")
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errNotObject
	}
	return obj, nil
}
