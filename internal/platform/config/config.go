package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Log selects the slog handler for a binary.
type Log struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}

// PolicyChecker holds the values fed to the eligibility service, which
// validates them.
type PolicyChecker struct {
	ApplicationID string        `yaml:"application_id" env:"CAPTURE_APPLICATION_ID"`
	ClientID      string        `yaml:"client_id" env:"CAPTURE_CLIENT_ID"`
	FlowName      string        `yaml:"flow_name" env:"CAPTURE_FLOW_NAME"`
	FlowVersion   string        `yaml:"flow_version" env:"CAPTURE_FLOW_VERSION"`
	FlowLocale    string        `yaml:"flow_locale" env:"CAPTURE_FLOW_LOCALE"`
	Host          string        `yaml:"host" env:"POLICY_CHECKER_HOST"`
	Stage         string        `yaml:"stage" env:"POLICY_CHECKER_STAGE"`
	Tenant        string        `yaml:"tenant" env:"POLICY_CHECKER_TENANT"`
	Timeout       time.Duration `yaml:"timeout" env:"POLICY_CHECKER_TIMEOUT" env-default:"30s"`
}

// Audit configures the optional Kafka sink for check outcomes.
type Audit struct {
	Brokers []string `yaml:"brokers" env:"AUDIT_KAFKA_BROKERS" env-separator:","`
	Topic   string   `yaml:"topic" env:"AUDIT_KAFKA_TOPIC" env-default:"policycheck.audit"`
}

// Enabled reports whether a broker is configured.
func (a Audit) Enabled() bool {
	for _, b := range a.Brokers {
		if strings.TrimSpace(b) != "" {
			return true
		}
	}
	return false
}

// Client is the configuration of the eligibility-check CLI.
type Client struct {
	PolicyChecker PolicyChecker `yaml:"policy_checker"`
	Audit         Audit         `yaml:"audit"`
	Log           Log           `yaml:"log"`
}

// ServiceConfig renders the raw bundle accepted by eligibility.New.
func (c Client) ServiceConfig() map[string]any {
	p := c.PolicyChecker
	return map[string]any{
		"captureApplicationId": p.ApplicationID,
		"captureClientId":      p.ClientID,
		"captureFlowName":      p.FlowName,
		"captureFlowVersion":   p.FlowVersion,
		"captureFlowLocale":    p.FlowLocale,
		"policyCheckerHost":    p.Host,
		"policyCheckerStage":   p.Stage,
		"policyCheckerTenant":  p.Tenant,
	}
}

// MockServer is the configuration of the mock policy checker.
type MockServer struct {
	Addr        string   `yaml:"addr" env:"MOCK_ADDR" env-default:":8081"`
	Tenant      string   `yaml:"tenant" env:"MOCK_TENANT" env-default:"acme"`
	Stage       string   `yaml:"stage" env:"MOCK_STAGE" env-default:"dev"`
	SigningKey  string   `yaml:"signing_key" env:"MOCK_SIGNING_KEY" env-default:"dev-signing-key-change-me"`
	DeniedUUIDs []string `yaml:"denied_uuids" env:"MOCK_DENIED_UUIDS" env-separator:","`
	Log         Log      `yaml:"log"`
}

// LoadClient reads path (YAML) when given, then applies environment
// overrides.
func LoadClient(path string) (*Client, error) {
	var cfg Client
	if err := load(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadMockServer reads the mock policy checker configuration.
func LoadMockServer(path string) (*MockServer, error) {
	var cfg MockServer
	if err := load(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func load(path string, cfg any) error {
	var err error
	if path == "" {
		err = cleanenv.ReadEnv(cfg)
	} else {
		err = cleanenv.ReadConfig(path, cfg)
	}
	if err != nil {
		desc, _ := cleanenv.GetDescription(cfg, nil)
		return fmt.Errorf("read config: %w\n%s", err, desc)
	}
	return nil
}
