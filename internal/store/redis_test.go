package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salon/internal/apperr"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "salon:events", Key("events"))
	assert.Equal(t, "salon:insights:2024-11", Key("insights", "2024-11"))
}

func TestRedisHealthy(t *testing.T) {
	var missing *Redis
	assert.False(t, missing.Healthy(context.Background()))
	assert.NoError(t, missing.Close())

	// nothing listens on port 1
	r := NewRedis(RedisOptions{Addr: "127.0.0.1:1", DB: 2})
	defer r.Close()
	assert.Equal(t, 2, r.Client.Options().DB)
	assert.False(t, r.Healthy(context.Background()))
}

func TestCheckVersion(t *testing.T) {
	assert.NoError(t, CheckVersion(Customers, "c1", 3, 0))
	assert.NoError(t, CheckVersion(Customers, "c1", 3, 3))
	err := CheckVersion(Customers, "c1", 3, 2)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Contains(t, err.Error(), "customer record c1")
}
