package eligibility

import (
	"encoding/json"
	"errors"
	"net/http"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func response(status int) *http.Response {
	return &http.Response{StatusCode: status, Header: http.Header{}}
}

func TestClassify(t *testing.T) {
	t.Run("well-formed 200 body succeeds", func(t *testing.T) {
		outcome := Classify([]byte(`{"eligible":true,"subject":"u-1","score":3}`), response(http.StatusOK), nil)

		result, ok := outcome.Result()
		require.True(t, ok)
		assert.Nil(t, outcome.Err())
		assert.Equal(t, Kind(""), outcome.Kind())
		assert.Equal(t, true, result["eligible"])
		assert.Equal(t, "u-1", result["subject"])
		assert.Equal(t, json.Number("3"), result["score"])
	})

	t.Run("any 2xx is success", func(t *testing.T) {
		outcome := Classify([]byte(`{}`), response(http.StatusAccepted), nil)
		result, ok := outcome.Result()
		require.True(t, ok)
		assert.Empty(t, result)
	})

	t.Run("transport error wins over everything", func(t *testing.T) {
		cause := syscall.ECONNREFUSED
		outcome := Classify([]byte(`{"eligible":true}`), response(http.StatusOK), cause)

		_, ok := outcome.Result()
		assert.False(t, ok)
		e := outcome.Err()
		require.NotNil(t, e)
		assert.Equal(t, KindTransportFailure, e.Kind)
		assert.True(t, errors.Is(e, syscall.ECONNREFUSED))
		assert.Nil(t, e.Detail)
	})

	t.Run("oversized body is malformed, not a decode error", func(t *testing.T) {
		outcome := Classify([]byte(`{"eligible":`), response(http.StatusOK), ErrResponseTooLarge)

		e := outcome.Err()
		require.NotNil(t, e)
		assert.Equal(t, KindMalformedResponse, e.Kind)
		assert.Equal(t, http.StatusOK, e.StatusCode)
		assert.ErrorIs(t, e, ErrResponseTooLarge)
		assert.Contains(t, e.Error(), "exceeds 1 MiB")
	})

	t.Run("missing response without error is a transport failure", func(t *testing.T) {
		outcome := Classify(nil, nil, nil)
		assert.Equal(t, KindTransportFailure, outcome.Kind())
	})

	t.Run("4xx is a policy rejection with decoded detail", func(t *testing.T) {
		outcome := Classify([]byte(`{"error":"not_eligible","reason":"account locked"}`), response(http.StatusForbidden), nil)

		e := outcome.Err()
		require.NotNil(t, e)
		assert.Equal(t, KindPolicyRejected, e.Kind)
		assert.Equal(t, http.StatusForbidden, e.StatusCode)
		assert.Equal(t, "not_eligible", e.Detail["error"])
		assert.Equal(t, "account locked", e.Detail["reason"])
	})

	t.Run("5xx is a server error", func(t *testing.T) {
		outcome := Classify([]byte(`{"message":"boom"}`), response(http.StatusBadGateway), nil)
		assert.Equal(t, KindServerError, outcome.Kind())
		assert.Equal(t, "boom", outcome.Err().Detail["message"])
	})

	t.Run("other non-2xx statuses are server errors", func(t *testing.T) {
		for _, status := range []int{http.StatusContinue, http.StatusFound, http.StatusNotModified} {
			assert.Equal(t, KindServerError, Classify(nil, response(status), nil).Kind(), "status %d", status)
		}
	})

	t.Run("undecodable error body degrades to empty detail", func(t *testing.T) {
		for _, body := range [][]byte{nil, []byte("<html>denied</html>"), []byte(`["a"]`)} {
			e := Classify(body, response(http.StatusUnauthorized), nil).Err()
			require.NotNil(t, e)
			assert.Equal(t, KindPolicyRejected, e.Kind)
			assert.NotNil(t, e.Detail)
			assert.Empty(t, e.Detail)
		}
	})

	t.Run("malformed 200 body", func(t *testing.T) {
		cases := map[string][]byte{
			"truncated json": []byte(`{"eligible":`),
			"empty body":     nil,
			"array":          []byte(`[true]`),
			"scalar":         []byte(`true`),
			"trailing data":  []byte(`{"eligible":true} {}`),
		}
		for name, body := range cases {
			t.Run(name, func(t *testing.T) {
				e := Classify(body, response(http.StatusOK), nil).Err()
				require.NotNil(t, e)
				assert.Equal(t, KindMalformedResponse, e.Kind)
				assert.Equal(t, http.StatusOK, e.StatusCode)
				assert.Error(t, e.Cause)
			})
		}
	})
}

func TestErrorMap(t *testing.T) {
	t.Run("policy rejection", func(t *testing.T) {
		e := Classify([]byte(`{"error":"not_eligible"}`), response(http.StatusForbidden), nil).Err()
		m := e.Map()

		assert.Equal(t, "policy_rejected", m["code"])
		assert.Equal(t, http.StatusForbidden, m["status"])
		assert.Equal(t, map[string]any{"error": "not_eligible"}, m["detail"])
		assert.NotContains(t, m, "cause")
		assert.NotContains(t, m, "fields")
	})

	t.Run("configuration error", func(t *testing.T) {
		_, err := ValidateConfig(map[string]any{})
		var e *Error
		require.ErrorAs(t, err, &e)
		m := e.Map()

		assert.Equal(t, "configuration_error", m["code"])
		assert.Equal(t, configKeys, m["fields"])
		assert.NotContains(t, m, "status")
	})

	t.Run("transport failure carries the cause", func(t *testing.T) {
		e := Classify(nil, nil, errors.New("dial tcp: lookup policy.invalid: no such host")).Err()
		m := e.Map()
		assert.Equal(t, "transport_failure", m["code"])
		assert.Contains(t, m["cause"], "no such host")
	})
}

func TestKindHelpers(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.False(t, IsKind(nil, KindConfiguration))

	wrapped := errors.Join(errors.New("context"), newError(KindServerError, "x", nil))
	assert.True(t, IsKind(wrapped, KindServerError))
}
