package eligibility

import (
	"net/url"
	"strings"
)

// Raw configuration keys accepted by ValidateConfig. Host applications ship
// these names in their settings bundles.
const (
	KeyApplicationID       = "captureApplicationId"
	KeyClientID            = "captureClientId"
	KeyFlowName            = "captureFlowName"
	KeyFlowVersion         = "captureFlowVersion"
	KeyFlowLocale          = "captureFlowLocale"
	KeyPolicyCheckerHost   = "policyCheckerHost"
	KeyPolicyCheckerStage  = "policyCheckerStage"
	KeyPolicyCheckerTenant = "policyCheckerTenant"
)

// configKeys is the declaration order used when reporting failing fields.
var configKeys = []string{
	KeyApplicationID,
	KeyClientID,
	KeyFlowName,
	KeyFlowVersion,
	KeyFlowLocale,
	KeyPolicyCheckerHost,
	KeyPolicyCheckerStage,
	KeyPolicyCheckerTenant,
}

// Config is the validated, immutable service configuration.
type Config struct {
	ApplicationID       string
	ClientID            string
	FlowName            string
	FlowVersion         string
	FlowLocale          string
	PolicyCheckerStage  string
	PolicyCheckerTenant string

	host url.URL
}

// PolicyCheckerHost returns a copy of the policy checker base URL.
func (c Config) PolicyCheckerHost() *url.URL {
	u := c.host
	return &u
}

// ValidateConfig checks a raw configuration bundle and returns the typed
// configuration. Every missing, empty or mistyped key is reported in the
// returned error's Fields.
func ValidateConfig(raw map[string]any) (Config, error) {
	var cfg Config
	var failed []string

	for _, key := range configKeys {
		if key == KeyPolicyCheckerHost {
			host, ok := hostValue(raw[key])
			if !ok {
				failed = append(failed, key)
				continue
			}
			cfg.host = *host
			continue
		}

		value, ok := stringValue(raw[key])
		if !ok {
			failed = append(failed, key)
			continue
		}
		switch key {
		case KeyApplicationID:
			cfg.ApplicationID = value
		case KeyClientID:
			cfg.ClientID = value
		case KeyFlowName:
			cfg.FlowName = value
		case KeyFlowVersion:
			cfg.FlowVersion = value
		case KeyFlowLocale:
			cfg.FlowLocale = value
		case KeyPolicyCheckerStage:
			cfg.PolicyCheckerStage = value
		case KeyPolicyCheckerTenant:
			cfg.PolicyCheckerTenant = value
		}
	}

	if len(failed) > 0 {
		return Config{}, configError(failed...)
	}
	return cfg, nil
}

// Map renders the configuration back into its raw key/value form.
func (c Config) Map() map[string]any {
	return map[string]any{
		KeyApplicationID:       c.ApplicationID,
		KeyClientID:            c.ClientID,
		KeyFlowName:            c.FlowName,
		KeyFlowVersion:         c.FlowVersion,
		KeyFlowLocale:          c.FlowLocale,
		KeyPolicyCheckerHost:   c.host.String(),
		KeyPolicyCheckerStage:  c.PolicyCheckerStage,
		KeyPolicyCheckerTenant: c.PolicyCheckerTenant,
	}
}

// stringValue accepts any string with a non-blank character and returns it
// unchanged.
func stringValue(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

func hostValue(v any) (*url.URL, bool) {
	var u *url.URL
	switch h := v.(type) {
	case string:
		s := strings.TrimSpace(h)
		if s == "" {
			return nil, false
		}
		parsed, err := url.Parse(s)
		if err != nil {
			return nil, false
		}
		u = parsed
	case *url.URL:
		if h == nil {
			return nil, false
		}
		cp := *h
		u = &cp
	case url.URL:
		u = &h
	default:
		return nil, false
	}

	if !u.IsAbs() || u.Host == "" {
		return nil, false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, false
	}
	return u, true
}
