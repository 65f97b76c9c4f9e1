package eligibility

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// SubjectKind says how the user is identified to the policy checker.
type SubjectKind string

const (
	SubjectToken SubjectKind = "token"
	SubjectUUID  SubjectKind = "uuid"
)

// Subject identifies the user whose login eligibility is checked.
type Subject struct {
	Kind  SubjectKind
	Value string
}

// Fingerprint is a short, non-reversible identifier for logs and audit
// records. Raw subjects are never logged.
func (s Subject) Fingerprint() string {
	sum := sha256.Sum256([]byte(s.Value))
	return hex.EncodeToString(sum[:8])
}

// bodyKey is the JSON member carrying the subject value.
func (k SubjectKind) bodyKey() (string, bool) {
	switch k {
	case SubjectToken:
		return "access_token", true
	case SubjectUUID:
		return "uuid", true
	default:
		return "", false
	}
}

// CheckRequest is the outbound request for a single check. It is built per
// call and dropped once the request is handed to the transport.
type CheckRequest struct {
	Subject Subject
	URL     string
	Method  string
	Header  http.Header
	Body    []byte
}

// HTTPRequest materializes the check request bound to ctx.
func (r *CheckRequest) HTTPRequest(ctx context.Context) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, bytes.NewReader(r.Body))
	if err != nil {
		return nil, fmt.Errorf("create policy checker request: %w", err)
	}
	req.Header = r.Header.Clone()
	return req, nil
}

// BuildCheckRequest constructs the POST to {host}/{tenant}/{stage} carrying
// the subject and the application/client/flow fields of cfg.
func BuildCheckRequest(subject Subject, cfg Config) (*CheckRequest, error) {
	key, ok := subject.Kind.bodyKey()
	if !ok {
		return nil, newError(KindInvalidArgument, fmt.Sprintf("unknown subject kind %q", subject.Kind), nil)
	}
	value := strings.TrimSpace(subject.Value)
	if value == "" {
		return nil, newError(KindInvalidArgument, fmt.Sprintf("%s must not be empty", subject.Kind), nil)
	}

	req, err := buildRequest(map[string]any{key: value}, cfg)
	if err != nil {
		return nil, err
	}
	req.Subject = Subject{Kind: subject.Kind, Value: value}
	return req, nil
}

// BuildPayloadRequest builds a request for an arbitrary payload. Payload
// members override the configuration members of the envelope.
func BuildPayloadRequest(payload map[string]any, cfg Config) (*CheckRequest, error) {
	return buildRequest(payload, cfg)
}

func buildRequest(payload map[string]any, cfg Config) (*CheckRequest, error) {
	if cfg.host.Host == "" {
		return nil, configError(KeyPolicyCheckerHost)
	}
	target := cfg.host.JoinPath(cfg.PolicyCheckerTenant, cfg.PolicyCheckerStage)

	envelope := map[string]any{
		"application_id": cfg.ApplicationID,
		"client_id":      cfg.ClientID,
		"flow":           cfg.FlowName,
		"flow_version":   cfg.FlowVersion,
		"locale":         cfg.FlowLocale,
	}
	for k, v := range payload {
		envelope[k] = v
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		return nil, newError(KindInvalidArgument, "payload is not serializable", err)
	}

	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	header.Set("Accept", "application/json")

	return &CheckRequest{
		URL:    target.String(),
		Method: http.MethodPost,
		Header: header,
		Body:   body,
	}, nil
}
