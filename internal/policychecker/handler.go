// Package policychecker is a local stand-in for the remote login policy
// service. It accepts the same envelope the eligibility client sends and
// answers with deterministic decisions, for development and end-to-end tests.
package policychecker

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"policycheck/pkg/platform/httputil"
	"policycheck/pkg/requestcontext"
)

const maxBodyBytes = 64 << 10

// Config describes the single tenant/stage this checker serves.
type Config struct {
	Tenant      string
	Stage       string
	SigningKey  string
	DeniedUUIDs []string
}

// Handler serves POST /{tenant}/{stage}.
type Handler struct {
	tenant    string
	stage     string
	verifier  *TokenVerifier
	denied    map[string]struct{}
	logger    *slog.Logger
	decisions *prometheus.CounterVec
}

type Option func(*Handler)

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithRegisterer records decision counts on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(h *Handler) {
		h.decisions = promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "policycheck_mock_decisions_total",
			Help: "Decisions returned by the mock policy checker",
		}, []string{"decision"})
	}
}

func New(cfg Config, opts ...Option) (*Handler, error) {
	if cfg.Tenant == "" {
		return nil, fmt.Errorf("tenant is required")
	}
	if cfg.Stage == "" {
		return nil, fmt.Errorf("stage is required")
	}
	if cfg.SigningKey == "" {
		return nil, fmt.Errorf("signing key is required")
	}

	denied := make(map[string]struct{}, len(cfg.DeniedUUIDs))
	for _, raw := range cfg.DeniedUUIDs {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("denied uuid %q: %w", raw, err)
		}
		denied[id.String()] = struct{}{}
	}

	h := &Handler{
		tenant:   cfg.Tenant,
		stage:    cfg.Stage,
		verifier: NewTokenVerifier(cfg.SigningKey),
		denied:   denied,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Verifier exposes the token verifier so callers can mint matching tokens.
func (h *Handler) Verifier() *TokenVerifier {
	return h.verifier
}

// Register mounts the policy endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/{tenant}/{stage}", h.HandleCheck)
}

type checkRequest struct {
	AccessToken   string `json:"access_token"`
	UUID          string `json:"uuid"`
	ApplicationID string `json:"application_id"`
	ClientID      string `json:"client_id"`
	Flow          string `json:"flow"`
	FlowVersion   string `json:"flow_version"`
	Locale        string `json:"locale"`
}

// CheckResponse is the success body.
type CheckResponse struct {
	Eligible      bool      `json:"eligible"`
	Subject       string    `json:"subject"`
	ApplicationID string    `json:"application_id"`
	ClientID      string    `json:"client_id"`
	Flow          string    `json:"flow,omitempty"`
	CheckedAt     time.Time `json:"checked_at"`
}

// HandleCheck handles POST /{tenant}/{stage}.
func (h *Handler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if chi.URLParam(r, "tenant") != h.tenant || chi.URLParam(r, "stage") != h.stage {
		h.deny(w, r, http.StatusNotFound, "unknown_policy", "no policy for this tenant and stage")
		return
	}

	var req checkRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.deny(w, r, http.StatusBadRequest, "invalid_request", "body must be a JSON object")
		return
	}
	if req.ApplicationID == "" || req.ClientID == "" {
		h.deny(w, r, http.StatusBadRequest, "invalid_request", "application_id and client_id are required")
		return
	}

	var subject string
	switch {
	case req.AccessToken != "" && req.UUID != "":
		h.deny(w, r, http.StatusBadRequest, "invalid_request", "send either access_token or uuid, not both")
		return
	case req.AccessToken != "":
		claims, err := h.verifier.Verify(req.AccessToken)
		if err != nil {
			code := "invalid_token"
			if errors.Is(err, errTokenExpired) {
				code = "token_expired"
			}
			h.deny(w, r, http.StatusForbidden, code, err.Error())
			return
		}
		if claims.LoginEligible != nil && !*claims.LoginEligible {
			h.deny(w, r, http.StatusForbidden, "not_eligible", "login is not permitted for this account")
			return
		}
		subject = claims.Subject
	case req.UUID != "":
		id, err := uuid.Parse(req.UUID)
		if err != nil {
			h.deny(w, r, http.StatusBadRequest, "invalid_uuid", "uuid is not well formed")
			return
		}
		if _, blocked := h.denied[id.String()]; blocked {
			h.deny(w, r, http.StatusForbidden, "not_eligible", "login is not permitted for this account")
			return
		}
		subject = id.String()
	default:
		h.deny(w, r, http.StatusBadRequest, "invalid_request", "access_token or uuid is required")
		return
	}

	h.count("eligible")
	h.logger.InfoContext(ctx, "login eligible",
		"request_id", requestID,
		"client_id", req.ClientID,
		"flow", req.Flow,
	)
	httputil.WriteJSON(w, http.StatusOK, CheckResponse{
		Eligible:      true,
		Subject:       subject,
		ApplicationID: req.ApplicationID,
		ClientID:      req.ClientID,
		Flow:          req.Flow,
		CheckedAt:     requestcontext.Now(ctx),
	})
}

func (h *Handler) deny(w http.ResponseWriter, r *http.Request, status int, code, description string) {
	h.count(code)
	h.logger.InfoContext(r.Context(), "login check refused",
		"request_id", requestcontext.RequestID(r.Context()),
		"status", status,
		"error", code,
	)
	httputil.WriteError(w, status, code, description)
}

func (h *Handler) count(decision string) {
	if h.decisions != nil {
		h.decisions.WithLabelValues(decision).Inc()
	}
}
