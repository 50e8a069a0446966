//
// Tencent is pleased to support the open source community by making trpc-nexus-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nexus-agent is licensed under the Apache License Version 2.0.
//
//

package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-nexus-agent/config"
	"trpc.group/trpc-go/trpc-nexus-agent/session/inmemory"
	sessionredis "trpc.group/trpc-go/trpc-nexus-agent/session/redis"
)

func TestWidgetsCmd(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"widgets"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "**Available Widgets:**")
	assert.Contains(t, out.String(), "dividends_table")
}

func TestServeCmdRejectsArgs(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"serve", "extra"})
	require.Error(t, cmd.Execute())
}

func TestNewSessionStore_Memory(t *testing.T) {
	store, err := newSessionStore(context.Background(), &config.Config{SessionStore: config.SessionStoreMemory})
	require.NoError(t, err)
	defer store.Close()
	_, ok := store.(*inmemory.Store)
	assert.True(t, ok)
}

func TestNewSessionStore_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := newSessionStore(context.Background(), &config.Config{
		SessionStore:    config.SessionStoreRedis,
		SessionRedisURL: "redis://" + mr.Addr(),
	})
	require.NoError(t, err)
	defer store.Close()
	_, ok := store.(*sessionredis.Store)
	assert.True(t, ok)

	require.NoError(t, store.Set(context.Background(), "tok", "s-1"))
	require.Len(t, mr.Keys(), 1)
	id, found, err := store.Get(context.Background(), "tok")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "s-1", id)
}

func TestNewSessionStore_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	_, err := newSessionStore(context.Background(), &config.Config{
		SessionStore:    config.SessionStoreRedis,
		SessionRedisURL: "redis://" + addr,
	})
	require.Error(t, err)
}
