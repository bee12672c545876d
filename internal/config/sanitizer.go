package config

import "encoding/json"

// ConfigSanitizer redacts credentials before a Config is printed or
// logged (e.g. by cmd/trac-meta's validate-config subcommand).
type ConfigSanitizer interface {
	Sanitize(cfg *Config) *Config
}

// DefaultConfigSanitizer is the stock ConfigSanitizer.
type DefaultConfigSanitizer struct {
	redactionValue string
}

// NewDefaultConfigSanitizer builds a sanitizer using "***REDACTED***".
func NewDefaultConfigSanitizer() ConfigSanitizer {
	return &DefaultConfigSanitizer{redactionValue: "***REDACTED***"}
}

// NewConfigSanitizer builds a sanitizer using a custom redaction value.
func NewConfigSanitizer(redactionValue string) ConfigSanitizer {
	return &DefaultConfigSanitizer{redactionValue: redactionValue}
}

// Sanitize returns a deep copy of cfg with every credential field
// redacted: the Postgres and Redis passwords, any Postgres URL (which may
// embed a password), and every value in each resource's Properties map.
// Secrets named by SecretNames are resolved through SecretStore and never
// stored on ResourceConfig, so there is no value of theirs to redact.
func (s *DefaultConfigSanitizer) Sanitize(cfg *Config) *Config {
	sanitized := s.deepCopy(cfg)
	sanitized.Database.Password = s.redactionValue
	sanitized.Database.URL = s.sanitizeURL(sanitized.Database.URL)
	sanitized.Redis.Password = s.redactionValue
	for i := range sanitized.ResourceList {
		for k := range sanitized.ResourceList[i].Properties {
			sanitized.ResourceList[i].Properties[k] = s.redactionValue
		}
	}
	return sanitized
}

func (s *DefaultConfigSanitizer) deepCopy(cfg *Config) *Config {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return cfg
	}
	var copyCfg Config
	if err := json.Unmarshal(raw, &copyCfg); err != nil {
		return cfg
	}
	return &copyCfg
}

func (s *DefaultConfigSanitizer) sanitizeURL(url string) string {
	if url == "" {
		return url
	}
	return s.redactionValue
}
