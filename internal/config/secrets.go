package config

import (
	"fmt"
	"os"
	"strings"
)

// SecretStore resolves a named secret to its value. Real deployments
// might back this with a vault; out of scope here per spec §1, which
// names only the interface boundary. The CLI's --secret-key/SECRET_KEY
// flag is not passed to any SecretStore.
type SecretStore interface {
	Resolve(name string) (string, error)
}

// EnvSecretStore resolves secret names from environment variables, each
// prefixed and upper-cased the same way viper's AutomaticEnv binds
// config keys (internal/config.LoadConfig), so a resource's
// SecretNames entry "db_password" resolves from TRAC_SECRET_DB_PASSWORD.
type EnvSecretStore struct {
	prefix string
}

// NewEnvSecretStore builds an EnvSecretStore. prefix defaults to
// "TRAC_SECRET" when empty.
func NewEnvSecretStore(prefix string) *EnvSecretStore {
	if prefix == "" {
		prefix = "TRAC_SECRET"
	}
	return &EnvSecretStore{prefix: prefix}
}

// Resolve looks up name as an environment variable.
func (s *EnvSecretStore) Resolve(name string) (string, error) {
	key := s.prefix + "_" + strings.ToUpper(strings.ReplaceAll(name, ".", "_"))
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", fmt.Errorf("config: secret %q not set (expected env var %s)", name, key)
	}
	return value, nil
}

// ResolveResourceSecrets resolves every name in resource.SecretNames
// through store, returning a map keyed by secret name. Used by whatever
// component actually needs a resource's credentials (e.g. a future
// storage-backed resource connector); resourceInfo itself never calls
// this, since its contract is to return publicProperties only.
func ResolveResourceSecrets(store SecretStore, resource ResourceConfig) (map[string]string, error) {
	secrets := make(map[string]string, len(resource.SecretNames))
	for _, name := range resource.SecretNames {
		value, err := store.Resolve(name)
		if err != nil {
			return nil, fmt.Errorf("resource %q: %w", resource.Name, err)
		}
		secrets[name] = value
	}
	return secrets, nil
}
