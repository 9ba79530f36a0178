package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planthelper/backend/config"
	"github.com/planthelper/backend/internal/testhelpers"
)

func TestNewRedisClientDisabled(t *testing.T) {
	client, err := NewRedisClient(&config.Config{})
	assert.Nil(t, client)
	assert.ErrorIs(t, err, ErrRedisDisabled)
}

func TestNewRedisClientBadURL(t *testing.T) {
	client, err := NewRedisClient(&config.Config{RedisURL: "http://not-redis"})
	assert.Nil(t, client)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse Redis URL")
}

func TestNewRedisClientUnreachable(t *testing.T) {
	client, err := NewRedisClient(&config.Config{RedisURL: "redis://127.0.0.1:1/0?dial_timeout=100ms&max_retries=-1"})
	assert.Nil(t, client)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to Redis")
}

func TestNewRedisClient(t *testing.T) {
	url, _ := testhelpers.SetupTestRedis(t)

	client, err := NewRedisClient(&config.Config{RedisURL: url})
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Set(context.Background(), "planthelper:ping", "pong", 0).Err())
	val, err := client.Get(context.Background(), "planthelper:ping").Result()
	require.NoError(t, err)
	assert.Equal(t, "pong", val)
}
