package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
// Retry and pacing defaults match the provider rate limits the tool was
// tuned against.
const (
	DefaultInput         = "sites.csv"
	DefaultOutput        = "output/website_audit_results.csv"
	DefaultDomainTimeout = 2 * time.Minute
	DefaultAPIDelay      = 1 * time.Second
	DefaultAttempts      = 3
	DefaultBaseDelay     = 2 * time.Second
	DefaultMultiplier    = 2.0

	DefaultPlacesEndpoint    = "https://maps.googleapis.com/maps/api/place"
	DefaultPageSpeedEndpoint = "https://www.googleapis.com/pagespeedonline/v5/runPagespeed"
	DefaultSemrushEndpoint   = "https://api.semrush.com/"

	DefaultPlacesKeyEnv    = "GOOGLE_API_KEY"
	DefaultPageSpeedKeyEnv = "GOOGLE_API_KEY"
	DefaultSemrushKeyEnv   = "SEMRUSH_API_KEY"
)

// Config is the top-level configuration. Fields map 1:1 to
// config.example.yaml.
type Config struct {
	Audit     AuditConfig     `yaml:"audit"`
	Providers ProvidersConfig `yaml:"providers"`
}

// AuditConfig holds the batch and pipeline settings.
type AuditConfig struct {
	// Input is the CSV file holding the domain list.
	Input string `yaml:"input"`

	// Output is the results file; a .xlsx extension selects a workbook,
	// anything else CSV.
	Output string `yaml:"output"`

	// MaxDomains caps how many domains are processed. 0 means all.
	MaxDomains int `yaml:"max_domains"`

	// DomainTimeout is the wall-clock budget for one domain's pipeline.
	DomainTimeout time.Duration `yaml:"domain_timeout"`

	// APIDelay is the fixed pacing interval between provider calls.
	APIDelay time.Duration `yaml:"api_delay"`

	// Retry bounds the per-call retry behaviour.
	Retry RetryConfig `yaml:"retry"`

	// Filters narrows the loaded domain list.
	Filters FilterConfig `yaml:"filters"`
}

// RetryConfig mirrors httpcall.RetryPolicy.
type RetryConfig struct {
	Attempts   int           `yaml:"attempts"`
	BaseDelay  time.Duration `yaml:"base_delay"`
	Multiplier float64       `yaml:"multiplier"`
}

// FilterConfig holds the optional input row filters.
type FilterConfig struct {
	Region       string   `yaml:"region"`
	Tiers        []string `yaml:"tiers"`
	Site         string   `yaml:"site"`
	ExcludeTier0 bool     `yaml:"exclude_tier0"`
}

// ProvidersConfig names the three upstream providers.
type ProvidersConfig struct {
	Places    ProviderConfig `yaml:"places"`
	PageSpeed ProviderConfig `yaml:"pagespeed"`
	Semrush   ProviderConfig `yaml:"semrush"`
}

// ProviderConfig locates one provider and its credential.
type ProviderConfig struct {
	// Endpoint is the provider's base URL.
	Endpoint string `yaml:"endpoint"`

	// KeyEnv is the name of the environment variable holding the API key.
	// The key value itself never appears in the file, logs or output.
	KeyEnv string `yaml:"key_env"`
}

// Key returns the API key resolved from the environment.
// Returns empty string if KeyEnv is unset or the variable is not found.
func (p ProviderConfig) Key() string {
	if p.KeyEnv == "" {
		return ""
	}
	return os.Getenv(p.KeyEnv)
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a Config pre-populated with default values. Callers
// without a config file can use it directly.
func Defaults() *Config {
	return &Config{
		Audit: AuditConfig{
			Input:         DefaultInput,
			Output:        DefaultOutput,
			DomainTimeout: DefaultDomainTimeout,
			APIDelay:      DefaultAPIDelay,
			Retry: RetryConfig{
				Attempts:   DefaultAttempts,
				BaseDelay:  DefaultBaseDelay,
				Multiplier: DefaultMultiplier,
			},
		},
		Providers: ProvidersConfig{
			Places:    ProviderConfig{Endpoint: DefaultPlacesEndpoint, KeyEnv: DefaultPlacesKeyEnv},
			PageSpeed: ProviderConfig{Endpoint: DefaultPageSpeedEndpoint, KeyEnv: DefaultPageSpeedKeyEnv},
			Semrush:   ProviderConfig{Endpoint: DefaultSemrushEndpoint, KeyEnv: DefaultSemrushKeyEnv},
		},
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	if cfg.Audit.Input == "" {
		return fmt.Errorf("audit.input is required")
	}
	if cfg.Audit.Output == "" {
		return fmt.Errorf("audit.output is required")
	}
	if cfg.Audit.DomainTimeout <= 0 {
		return fmt.Errorf("audit.domain_timeout must be positive")
	}
	if cfg.Audit.MaxDomains < 0 {
		return fmt.Errorf("audit.max_domains must not be negative")
	}
	if cfg.Audit.Retry.Attempts < 1 {
		return fmt.Errorf("audit.retry.attempts must be at least 1")
	}
	if cfg.Audit.Retry.BaseDelay < 0 {
		return fmt.Errorf("audit.retry.base_delay must not be negative")
	}
	if cfg.Audit.Retry.Multiplier < 1 {
		return fmt.Errorf("audit.retry.multiplier must be at least 1")
	}
	for name, p := range map[string]ProviderConfig{
		"places":    cfg.Providers.Places,
		"pagespeed": cfg.Providers.PageSpeed,
		"semrush":   cfg.Providers.Semrush,
	} {
		if p.Endpoint == "" {
			return fmt.Errorf("providers.%s.endpoint is required", name)
		}
		if p.KeyEnv == "" {
			return fmt.Errorf("providers.%s.key_env is required", name)
		}
	}
	return nil
}

// ValidateKeys confirms every provider credential resolves to a value.
// Called once at startup, before any domain processing begins; a missing
// credential is the only kind of fatal error this tool has.
func (c *Config) ValidateKeys() error {
	for name, p := range map[string]ProviderConfig{
		"places":    c.Providers.Places,
		"pagespeed": c.Providers.PageSpeed,
		"semrush":   c.Providers.Semrush,
	} {
		if p.Key() == "" {
			return fmt.Errorf("config: provider %s: environment variable %s is empty or unset", name, p.KeyEnv)
		}
	}
	return nil
}
