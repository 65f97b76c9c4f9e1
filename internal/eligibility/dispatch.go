package eligibility

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"policycheck/pkg/requestcontext"
)

// RequestIDHeader carries the per-request correlation ID.
const RequestIDHeader = "X-Request-ID"

const (
	defaultTimeout   = 30 * time.Second
	maxResponseBytes = 1 << 20
)

// ErrResponseTooLarge is reported by HTTPTransport when the body exceeds
// 1 MiB. The data passed alongside it is truncated.
var ErrResponseTooLarge = errors.New("policy checker response exceeds 1 MiB")

// CompletionHandler receives the raw transport result: the response body
// (possibly partial), the response metadata and the transport error.
type CompletionHandler func(data []byte, resp *http.Response, err error)

// Transport sends one request and eventually calls onComplete exactly once.
type Transport interface {
	Send(req *http.Request, onComplete CompletionHandler)
}

// HTTPTransport is the default Transport backed by an http.Client. Every
// Send runs on its own goroutine.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport builds a transport with an instrumented client.
func NewHTTPTransport(timeout time.Duration) *HTTPTransport {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPTransport{
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// NewHTTPTransportWithClient wraps an existing client as-is.
func NewHTTPTransportWithClient(client *http.Client) *HTTPTransport {
	return &HTTPTransport{client: client}
}

func (t *HTTPTransport) Send(req *http.Request, onComplete CompletionHandler) {
	go func() {
		resp, err := t.client.Do(req)
		if err != nil {
			onComplete(nil, resp, err)
			return
		}
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
		_ = resp.Body.Close()
		switch {
		case err != nil:
			err = fmt.Errorf("read policy checker response: %w", err)
		case len(data) > maxResponseBytes:
			data = data[:maxResponseBytes]
			err = ErrResponseTooLarge
		}
		onComplete(data, resp, err)
	}()
}

// dispatch fires req exactly once. onComplete runs at most once even if the
// transport misbehaves; duplicate completions are logged and dropped.
func (s *Service) dispatch(ctx context.Context, req *CheckRequest, label, requestID string, onComplete CompletionHandler) error {
	ctx, span := s.tracer.Start(ctx, "policycheck.eligibility.dispatch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("policycheck.subject", label),
			attribute.String("policycheck.request_id", requestID),
			attribute.String("policycheck.tenant", s.cfg.PolicyCheckerTenant),
			attribute.String("policycheck.stage", s.cfg.PolicyCheckerStage),
		),
	)

	httpReq, err := req.HTTPRequest(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request build failed")
		span.End()
		return newError(KindConfiguration, "policy checker request could not be created", err)
	}
	httpReq.Header.Set(RequestIDHeader, requestID)

	var once sync.Once
	wrapped := func(data []byte, resp *http.Response, err error) {
		fired := false
		once.Do(func() {
			fired = true
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "transport failure")
			} else if resp != nil {
				span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
				if resp.StatusCode >= 400 {
					span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
				}
			}
			span.End()
			onComplete(data, resp, err)
		})
		if !fired {
			s.logger.Warn("duplicate transport completion dropped",
				"request_id", requestID,
				"subject", label,
			)
		}
	}

	if s.metrics != nil {
		s.metrics.IncrementDispatched(label)
	}
	s.logger.Debug("dispatching policy check",
		"request_id", requestID,
		"subject", label,
		"url", req.URL,
	)

	s.transport.Send(httpReq, wrapped)
	return nil
}

// requestID reuses the caller's correlation ID or mints a new one.
func (s *Service) requestID(ctx context.Context) string {
	if id := requestcontext.RequestID(ctx); id != "" {
		return id
	}
	return s.newRequestID()
}
