package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGrantBackendFollowsStoreBackend(t *testing.T) {
	t.Setenv("DATAPORTAL_STORE", "postgres")
	t.Setenv("DATAPORTAL_GRANT_STORE", "")

	cfg := FromEnv()
	assert.Equal(t, "postgres", cfg.StoreBackend)
	assert.Equal(t, "postgres", cfg.GrantBackend)
}

func TestGrantBackendOverride(t *testing.T) {
	t.Setenv("DATAPORTAL_STORE", "postgres")
	t.Setenv("DATAPORTAL_GRANT_STORE", "redis")

	cfg := FromEnv()
	assert.Equal(t, "redis", cfg.GrantBackend)
}

func TestKafkaBrokersSplit(t *testing.T) {
	t.Setenv("AUDIT_KAFKA_BROKERS", "broker-1:9092,broker-2:9092")

	cfg := FromEnv()
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "dataportal.audit", cfg.KafkaTopic)
}
