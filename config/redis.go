package config

import "strings"

// RedisConfig contains Redis configuration for the shared identity cache.
type RedisConfig struct {
	// Enabled switches the identity cache from in-process to Redis.
	Enabled            bool     `env:"ENABLED"              envDefault:"false"`
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
	// KeyPrefix namespaces identity entries when the instance is shared.
	KeyPrefix string `env:"KEY_PREFIX" envDefault:"admin:identity:"`
}

// Sanitize trims connection settings.
func (r *RedisConfig) Sanitize() {
	r.URI = strings.TrimSpace(r.URI)
	if r.KeyPrefix = strings.TrimSpace(r.KeyPrefix); r.KeyPrefix == "" {
		r.KeyPrefix = "admin:identity:"
	}
}
