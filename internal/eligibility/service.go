package eligibility

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"policycheck/internal/eligibility/metrics"
)

const tracerName = "policycheck/internal/eligibility"

// CheckInfo describes a completed check without exposing the raw subject.
type CheckInfo struct {
	RequestID   string
	Subject     SubjectKind
	SubjectHash string
	StartedAt   time.Time
	Elapsed     time.Duration
}

// OutcomeHook observes every classified check before the observer does.
// It runs on the transport goroutine and must not block for long.
type OutcomeHook func(ctx context.Context, info CheckInfo, outcome Outcome)

// Service asks the remote policy checker whether a subject may log in.
// Build it with New; the zero value refuses every operation.
type Service struct {
	cfg          Config
	observer     observerRef
	transport    Transport
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       trace.Tracer
	hook         OutcomeHook
	newRequestID func() string
	now          func() time.Time
	ready        bool
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTransport(t Transport) Option {
	return func(s *Service) {
		s.transport = t
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func WithOutcomeHook(h OutcomeHook) Option {
	return func(s *Service) {
		s.hook = h
	}
}

// WithRequestIDFunc replaces the correlation ID generator (uuid v4 by default).
func WithRequestIDFunc(fn func() string) Option {
	return func(s *Service) {
		s.newRequestID = fn
	}
}

// WithClock replaces the clock used for latency measurement.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New validates raw and binds observer. The service keeps only a weak
// reference to observer: the caller owns its lifetime, and outcomes that
// complete after the observer is collected are discarded.
func New[T any, PT interface {
	*T
	Observer
}](raw map[string]any, observer PT, opts ...Option) (*Service, error) {
	if (*T)(observer) == nil {
		return nil, configError("observer")
	}
	cfg, err := ValidateConfig(raw)
	if err != nil {
		return nil, err
	}

	svc := &Service{
		cfg:          cfg,
		observer:     weakObserver[T, PT](observer),
		logger:       slog.New(slog.DiscardHandler),
		tracer:       otel.Tracer(tracerName),
		newRequestID: uuid.NewString,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.transport == nil {
		svc.transport = NewHTTPTransport(defaultTimeout)
	}
	if svc.logger == nil {
		svc.logger = slog.New(slog.DiscardHandler)
	}
	svc.ready = true

	return svc, nil
}

// Config returns the validated configuration.
func (s *Service) Config() Config {
	return s.cfg
}

// CheckLoginWithToken starts an eligibility check keyed by an access token.
// It returns once the request is handed to the transport; the outcome
// arrives on the observer.
func (s *Service) CheckLoginWithToken(ctx context.Context, accessToken string) error {
	return s.check(ctx, Subject{Kind: SubjectToken, Value: accessToken})
}

// CheckLoginWithUUID starts an eligibility check keyed by the user's UUID.
func (s *Service) CheckLoginWithUUID(ctx context.Context, userUUID string) error {
	return s.check(ctx, Subject{Kind: SubjectUUID, Value: userUUID})
}

// PostToPolicyChecker sends an arbitrary payload in the standard envelope and
// hands the raw transport result to onComplete. No classification happens
// and the observer is not notified.
func (s *Service) PostToPolicyChecker(ctx context.Context, payload map[string]any, onComplete CompletionHandler) error {
	if err := s.usable(); err != nil {
		return err
	}
	if onComplete == nil {
		return newError(KindInvalidArgument, "completion handler is required", nil)
	}
	req, err := BuildPayloadRequest(payload, s.cfg)
	if err != nil {
		return err
	}
	return s.dispatch(ctx, req, "generic", s.requestID(ctx), onComplete)
}

func (s *Service) check(ctx context.Context, subject Subject) error {
	if err := s.usable(); err != nil {
		return err
	}
	req, err := BuildCheckRequest(subject, s.cfg)
	if err != nil {
		return err
	}

	info := CheckInfo{
		RequestID:   s.requestID(ctx),
		Subject:     req.Subject.Kind,
		SubjectHash: req.Subject.Fingerprint(),
		StartedAt:   s.now(),
	}
	// the hook may outlive a cancelled caller context
	hookCtx := context.WithoutCancel(ctx)

	return s.dispatch(ctx, req, string(subject.Kind), info.RequestID, func(data []byte, resp *http.Response, err error) {
		info.Elapsed = s.now().Sub(info.StartedAt)
		s.complete(hookCtx, info, Classify(data, resp, err))
	})
}

func (s *Service) complete(ctx context.Context, info CheckInfo, outcome Outcome) {
	result := "success"
	if e := outcome.Err(); e != nil {
		result = string(e.Kind)
		s.logger.Info("policy check failed",
			"request_id", info.RequestID,
			"subject", info.Subject,
			"subject_hash", info.SubjectHash,
			"kind", e.Kind,
			"status", e.StatusCode,
			"error", e.Error(),
		)
	} else {
		s.logger.Debug("policy check succeeded",
			"request_id", info.RequestID,
			"subject", info.Subject,
			"subject_hash", info.SubjectHash,
		)
	}
	if s.metrics != nil {
		s.metrics.ObserveOutcome(result, info.Elapsed)
	}
	if s.hook != nil {
		s.hook(ctx, info, outcome)
	}

	if !s.observer.deliver(outcome) {
		s.logger.Debug("observer released; outcome discarded",
			"request_id", info.RequestID,
			"result", result,
		)
		if s.metrics != nil {
			s.metrics.IncrementDropped()
		}
	}
}

func (s *Service) usable() error {
	if s == nil || !s.ready {
		return newError(KindConfiguration, "service must be constructed with New", nil)
	}
	return nil
}
