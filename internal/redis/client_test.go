package redis

import (
	"context"
	"testing"
	"time"

	"seat-monitor/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_AppliesSelectedDB(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	client, err := NewClient(ctx, &config.RedisConfig{Addr: mr.Addr(), DB: 3, PoolSize: 2, DialTimeout: time.Second})
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Set(ctx, "seat:db-check", "1", 0).Err())
	mr.Select(3)
	assert.True(t, mr.Exists("seat:db-check"))
}

func TestNewClient_UnreachableServer(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewClient(context.Background(), &config.RedisConfig{Addr: addr, DialTimeout: 200 * time.Millisecond})
	require.Error(t, err)
	assert.Contains(t, err.Error(), addr)
}
