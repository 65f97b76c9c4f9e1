package testutil

import (
	"net/http"
	"testing"

	"policycheck/pkg/platform/httputil"
)

func TestErrorBodyAssertions(t *testing.T) {
	Given(t, "a handler writing error bodies", func(t *testing.T) {
		When(t, "the status is a client error", func(t *testing.T) {
			rr := DoRequest(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				httputil.WriteError(w, http.StatusForbidden, "not_eligible", "login is not permitted")
			}), NewRequest(t, http.MethodPost, "/acme/dev"))

			Then(t, "code and description are both readable", func(t *testing.T) {
				AssertStatusAndError(t, rr, http.StatusForbidden, "not_eligible")
				AssertErrorDescription(t, rr, "not permitted")
			})
		})

		When(t, "the status is a server error", func(t *testing.T) {
			rr := DoRequest(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				httputil.WriteError(w, http.StatusServiceUnavailable, "unavailable", "backend pool exhausted")
			}), NewRequest(t, http.MethodPost, "/acme/dev"))

			Then(t, "the description is withheld", func(t *testing.T) {
				AssertStatusAndError(t, rr, http.StatusServiceUnavailable, "unavailable")
				AssertErrorDescription(t, rr, "")
			})
		})
	})
}

func TestNewJSONRequestWithoutBody(t *testing.T) {
	req := NewJSONRequest(t, http.MethodPost, "/acme/dev", nil)
	if req.ContentLength != 0 {
		t.Fatalf("expected empty body, got length %d", req.ContentLength)
	}
}
