package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/vault/api"
)

// DefaultVaultKey is read when a ${VAULT:..} reference names no key.
const DefaultVaultKey = "dsn"

// resolveVault reads one value from Vault. A reference is "path#key" or just
// "path", which reads DefaultVaultKey. KV v2 responses are unwrapped.
func resolveVault(ctx context.Context, ref string) (string, error) {
	path, key, found := strings.Cut(ref, "#")
	if !found {
		key = DefaultVaultKey
	}
	if path == "" || key == "" {
		return "", fmt.Errorf("invalid Vault reference %q: expected path or path#key", ref)
	}

	client, err := vaultClient()
	if err != nil {
		return "", err
	}

	secret, err := client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return "", fmt.Errorf("reading Vault secret at %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("no secret found at %s", path)
	}

	data := secret.Data
	if inner, ok := data["data"].(map[string]any); ok {
		data = inner
	}

	val, ok := data[key]
	if !ok {
		return "", fmt.Errorf("key %q not found in Vault secret at %s", key, path)
	}
	switch v := val.(type) {
	case string:
		return v, nil
	case json.Number, bool:
		return fmt.Sprint(v), nil
	default:
		return "", fmt.Errorf("vault value %s#%s is a %T, not a scalar", path, key, val)
	}
}

// vaultClient builds a client from the standard VAULT_* environment.
func vaultClient() (*api.Client, error) {
	if os.Getenv("VAULT_ADDR") == "" {
		return nil, fmt.Errorf("VAULT_ADDR environment variable not set")
	}
	token := os.Getenv("VAULT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("VAULT_TOKEN environment variable not set")
	}

	cfg := api.DefaultConfig()
	if cfg.Error != nil {
		return nil, fmt.Errorf("reading Vault environment: %w", cfg.Error)
	}
	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating Vault client: %w", err)
	}
	client.SetToken(token)
	if ns := os.Getenv("VAULT_NAMESPACE"); ns != "" {
		client.SetNamespace(ns)
	}
	return client, nil
}
