//
// Tencent is pleased to support the open source community by making trpc-nexus-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nexus-agent is licensed under the Apache License Version 2.0.
//
//

package inmemory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGetDelete(t *testing.T) {
	s := NewStore()
	defer s.Close()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "tok", "sess-1"))
	id, ok, err := s.Get(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "sess-1", id)

	require.NoError(t, s.Set(ctx, "tok", "sess-2"))
	id, _, _ = s.Get(ctx, "tok")
	assert.Equal(t, "sess-2", id, "last writer wins")
	assert.Equal(t, 1, s.Len())

	require.NoError(t, s.Delete(ctx, "tok"))
	require.NoError(t, s.Delete(ctx, "missing"))
	_, ok, _ = s.Get(ctx, "tok")
	assert.False(t, ok)
}

func TestTTLExpiry(t *testing.T) {
	s := NewStore(WithTTL(30*time.Millisecond), WithCleanupInterval(time.Hour))
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "tok", "sess"))
	_, ok, _ := s.Get(ctx, "tok")
	assert.True(t, ok)

	time.Sleep(50 * time.Millisecond)
	_, ok, _ = s.Get(ctx, "tok")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len(), "expired entry removed on read")
}

func TestCleanupRoutine(t *testing.T) {
	s := NewStore(WithTTL(10*time.Millisecond), WithCleanupInterval(10*time.Millisecond))
	defer s.Close()
	require.NoError(t, s.Set(context.Background(), "tok", "sess"))
	assert.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestNoTTL(t *testing.T) {
	s := NewStore(WithTTL(0))
	defer s.Close()
	assert.Nil(t, s.cleanupTicker)
	require.NoError(t, s.Set(context.Background(), "tok", "sess"))
	_, ok, _ := s.Get(context.Background(), "tok")
	assert.True(t, ok)
}

func TestCapacityEvictsOldestWrite(t *testing.T) {
	s := NewStore(WithMaxEntries(2))
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "a", "1"))
	require.NoError(t, s.Set(ctx, "b", "2"))
	require.NoError(t, s.Set(ctx, "a", "1b")) // refreshes a
	require.NoError(t, s.Set(ctx, "c", "3"))  // evicts b

	assert.Equal(t, 2, s.Len())
	_, ok, _ := s.Get(ctx, "b")
	assert.False(t, ok)
	id, ok, _ := s.Get(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, "1b", id)
	_, ok, _ = s.Get(ctx, "c")
	assert.True(t, ok)
}

func TestConcurrentAccess(t *testing.T) {
	s := NewStore(WithMaxEntries(50))
	defer s.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tok := fmt.Sprintf("t%d", (i*100+j)%80)
				_ = s.Set(ctx, tok, "s")
				_, _, _ = s.Get(ctx, tok)
			}
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, s.Len(), 50)
}

func TestCloseIdempotent(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}
