package eligibility

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustConfig(t *testing.T, raw map[string]any) Config {
	t.Helper()
	cfg, err := ValidateConfig(raw)
	require.NoError(t, err)
	return cfg
}

func decodeBody(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(body, &m))
	return m
}

func TestBuildCheckRequest(t *testing.T) {
	cfg := mustConfig(t, validRawConfig())

	t.Run("token subject", func(t *testing.T) {
		req, err := BuildCheckRequest(Subject{Kind: SubjectToken, Value: "tok-1"}, cfg)
		require.NoError(t, err)

		assert.Equal(t, http.MethodPost, req.Method)
		assert.Equal(t, "https://policy.example.com/acme/prod", req.URL)
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
		assert.Equal(t, "application/json", req.Header.Get("Accept"))
		assert.Equal(t, map[string]any{
			"access_token":   "tok-1",
			"application_id": "app-123",
			"client_id":      "client-abc",
			"flow":           "standard",
			"flow_version":   "20240101",
			"locale":         "en-US",
		}, decodeBody(t, req.Body))
	})

	t.Run("uuid subject", func(t *testing.T) {
		req, err := BuildCheckRequest(Subject{Kind: SubjectUUID, Value: " 7d2c5e1a-0000-4000-8000-000000000001 "}, cfg)
		require.NoError(t, err)

		body := decodeBody(t, req.Body)
		assert.Equal(t, "7d2c5e1a-0000-4000-8000-000000000001", body["uuid"])
		assert.NotContains(t, body, "access_token")
		assert.Equal(t, SubjectUUID, req.Subject.Kind)
	})

	t.Run("host path is preserved", func(t *testing.T) {
		raw := validRawConfig()
		raw[KeyPolicyCheckerHost] = "https://api.example.com/policy-checker/"
		req, err := BuildCheckRequest(Subject{Kind: SubjectToken, Value: "tok"}, mustConfig(t, raw))
		require.NoError(t, err)
		assert.Equal(t, "https://api.example.com/policy-checker/acme/prod", req.URL)
	})

	t.Run("deterministic for identical input", func(t *testing.T) {
		subject := Subject{Kind: SubjectToken, Value: "tok-1"}
		first, err := BuildCheckRequest(subject, cfg)
		require.NoError(t, err)
		second, err := BuildCheckRequest(subject, cfg)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("empty subject is an invalid argument", func(t *testing.T) {
		for _, kind := range []SubjectKind{SubjectToken, SubjectUUID} {
			req, err := BuildCheckRequest(Subject{Kind: kind, Value: "  "}, cfg)
			assert.Nil(t, req)
			assert.True(t, IsKind(err, KindInvalidArgument), "kind %s", kind)
		}
	})

	t.Run("unknown subject kind is an invalid argument", func(t *testing.T) {
		_, err := BuildCheckRequest(Subject{Kind: "email", Value: "a@b.c"}, cfg)
		assert.True(t, IsKind(err, KindInvalidArgument))
	})

	t.Run("zero configuration is refused", func(t *testing.T) {
		_, err := BuildCheckRequest(Subject{Kind: SubjectToken, Value: "tok"}, Config{})
		assert.True(t, IsKind(err, KindConfiguration))
	})
}

func TestBuildPayloadRequest(t *testing.T) {
	cfg := mustConfig(t, validRawConfig())

	t.Run("payload overrides envelope members", func(t *testing.T) {
		req, err := BuildPayloadRequest(map[string]any{"locale": "fr-FR", "email": "a@example.com"}, cfg)
		require.NoError(t, err)

		body := decodeBody(t, req.Body)
		assert.Equal(t, "fr-FR", body["locale"])
		assert.Equal(t, "a@example.com", body["email"])
		assert.Equal(t, "client-abc", body["client_id"])
	})

	t.Run("nil payload sends the bare envelope", func(t *testing.T) {
		req, err := BuildPayloadRequest(nil, cfg)
		require.NoError(t, err)
		assert.Len(t, decodeBody(t, req.Body), 5)
	})

	t.Run("unserializable payload", func(t *testing.T) {
		_, err := BuildPayloadRequest(map[string]any{"bad": make(chan int)}, cfg)
		assert.True(t, IsKind(err, KindInvalidArgument))
	})
}

func TestCheckRequestHTTPRequest(t *testing.T) {
	cfg := mustConfig(t, validRawConfig())
	cr, err := BuildCheckRequest(Subject{Kind: SubjectToken, Value: "tok"}, cfg)
	require.NoError(t, err)

	req, err := cr.HTTPRequest(context.Background())
	require.NoError(t, err)

	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.Equal(t, cr.Body, body)
	assert.Equal(t, "policy.example.com", req.URL.Host)

	// mutating the materialized request must not leak back
	req.Header.Set("Accept", "text/plain")
	assert.Equal(t, "application/json", cr.Header.Get("Accept"))
}

func TestSubjectFingerprint(t *testing.T) {
	a := Subject{Kind: SubjectToken, Value: "secret-token"}
	b := Subject{Kind: SubjectToken, Value: "other-token"}

	assert.Len(t, a.Fingerprint(), 16)
	assert.Equal(t, a.Fingerprint(), a.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
	assert.NotContains(t, a.Fingerprint(), "secret")
}
