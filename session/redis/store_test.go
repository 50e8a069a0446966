//
// Tencent is pleased to support the open source community by making trpc-nexus-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nexus-agent is licensed under the Apache License Version 2.0.
//
//

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tokDigest is the SHA-256 hex digest of "tok".
const tokDigest = "1a7674eb4ee78df7e1ac439a93c3fa8e3c945784d4dec9fd8e3011738b2f1d62"

func setupTestRedis(t testing.TB) (*miniredis.Miniredis, string) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return mr, "redis://" + mr.Addr()
}

func TestStoreRoundTrip(t *testing.T) {
	mr, url := setupTestRedis(t)
	s, err := NewStore(WithRedisClientURL(url), WithTTL(time.Hour))
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()
	require.NoError(t, s.Ping(ctx))

	_, ok, err := s.Get(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "tok", "sess-1"))
	require.NoError(t, s.Set(ctx, "tok", "sess-2"))
	id, ok, err := s.Get(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "sess-2", id)

	assert.True(t, mr.Exists("nexus:session:"+tokDigest))
	assert.Equal(t, time.Hour, mr.TTL("nexus:session:"+tokDigest))

	require.NoError(t, s.Delete(ctx, "tok"))
	_, ok, err = s.Get(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreKeysHideToken(t *testing.T) {
	mr, url := setupTestRedis(t)
	s, err := NewStore(WithRedisClientURL(url))
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	const token = "secret-bearer-token"
	require.NoError(t, s.Set(ctx, token, "sess-1"))
	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.NotContains(t, keys[0], token)
	assert.Len(t, keys[0], len(defaultKeyPrefix)+64)

	id, ok, err := s.Get(ctx, token)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "sess-1", id)
}

func TestStoreExpiry(t *testing.T) {
	mr, url := setupTestRedis(t)
	s, err := NewStore(WithRedisClientURL(url), WithTTL(time.Minute), WithKeyPrefix("p:"))
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "tok", "sess"))
	assert.True(t, mr.Exists("p:"+tokDigest))
	mr.FastForward(2 * time.Minute)
	_, ok, err := s.Get(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreNoTTL(t *testing.T) {
	mr, url := setupTestRedis(t)
	s, err := NewStore(WithRedisClientURL(url), WithTTL(0))
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Set(context.Background(), "tok", "sess"))
	assert.Equal(t, time.Duration(0), mr.TTL("nexus:session:"+tokDigest))
}

func TestStoreWithExternalClient(t *testing.T) {
	_, url := setupTestRedis(t)
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	defer client.Close()

	s, err := NewStore(WithClient(client))
	require.NoError(t, err)
	require.NoError(t, s.Set(context.Background(), "tok", "sess"))
	require.NoError(t, s.Close())
	// The external client stays open.
	assert.NoError(t, client.Ping(context.Background()).Err())
}

func TestNewStoreErrors(t *testing.T) {
	_, err := NewStore()
	assert.Error(t, err)
	_, err = NewStore(WithRedisClientURL("http://not-redis"))
	assert.Error(t, err)
}

func TestStoreBackendDown(t *testing.T) {
	mr, url := setupTestRedis(t)
	s, err := NewStore(WithRedisClientURL(url))
	require.NoError(t, err)
	defer s.Close()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, _, err = s.Get(ctx, "tok")
	assert.Error(t, err)
	assert.Error(t, s.Set(ctx, "tok", "x"))
}
