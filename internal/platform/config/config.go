// Package config loads runtime configuration the way every teacher service
// does: environment variables with sane defaults, Vault KV v2 for secrets
// that must not live in plain env vars (database and broker URLs).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/vault/api"
)

// Config is the full set of tunables the statsbackend binary needs.
type Config struct {
	HTTPAddr string

	NatsURL       string
	QueueCapacity int
	PushTimeout   time.Duration

	PostgresURL    string
	SnapshotDir    string
	SnapshotCron   string
	OtelEndpoint   string
	ServiceName    string
}

// Load builds a Config from environment variables, applying the same
// default-if-empty idiom every teacher main.go uses.
func Load() Config {
	return Config{
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		NatsURL:       getEnv("NATS_URL", "nats://localhost:4222"),
		QueueCapacity: getEnvInt("QUEUE_CAPACITY", 4096),
		PushTimeout:   getEnvDuration("QUEUE_PUSH_TIMEOUT", 2*time.Second),
		PostgresURL:   getEnv("PG_URL", ""),
		SnapshotDir:   getEnv("SNAPSHOT_DIR", "./snapshots"),
		SnapshotCron:  getEnv("SNAPSHOT_CRON", "@every 5m"),
		OtelEndpoint:  getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ServiceName:   getEnv("SERVICE_NAME", "dds-statsbackend"),
	}
}

// dssSecrets is the shape of the KV v2 secret this service reads: just the
// two connection strings it needs, not a generic map.
type dssSecrets struct {
	PostgresURL string
	NatsURL     string
}

// LoadSecrets loads PostgresURL/NatsURL overrides from a Vault KV v2 path
// when VAULT_ADDR is set, the same way apps/abc-service/cmd/api/main.go
// does. Returns the config unchanged if Vault isn't configured.
func (c Config) LoadSecrets() (Config, error) {
	vaultAddr := os.Getenv("VAULT_ADDR")
	if vaultAddr == "" {
		return c, nil
	}
	vaultToken := getEnv("VAULT_TOKEN", "root")
	secretPath := getEnv("VAULT_SECRET_PATH", "secret/data/arc/dds-statsbackend")

	secrets, err := readVaultKV2(vaultAddr, vaultToken, secretPath)
	if err != nil {
		return c, fmt.Errorf("vault secret load: %w", err)
	}
	if secrets.PostgresURL != "" {
		c.PostgresURL = secrets.PostgresURL
	}
	if secrets.NatsURL != "" {
		c.NatsURL = secrets.NatsURL
	}
	return c, nil
}

// readVaultKV2 reads secretPath from a KV v2 mount and decodes it straight
// into dssSecrets, unwrapping the v2 "data" envelope inline: this service
// only ever needs the two fields above, so there is no separate
// generic-secret-manager layer to maintain.
func readVaultKV2(address, token, secretPath string) (dssSecrets, error) {
	var out dssSecrets

	cfg := api.DefaultConfig()
	cfg.Address = address
	client, err := api.NewClient(cfg)
	if err != nil {
		return out, fmt.Errorf("vault client initialization failed: %w", err)
	}
	client.SetToken(token)

	secret, err := client.Logical().Read(secretPath)
	if err != nil {
		return out, fmt.Errorf("failed to read secret at %s: %w", secretPath, err)
	}
	if secret == nil || secret.Data == nil {
		return out, fmt.Errorf("no data found at %s", secretPath)
	}
	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return out, fmt.Errorf("unexpected data format at %s", secretPath)
	}

	if v, ok := data["PG_URL"].(string); ok {
		out.PostgresURL = v
	}
	if v, ok := data["NATS_URL"].(string); ok {
		out.NatsURL = v
	}
	return out, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
