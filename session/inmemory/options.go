//
// Tencent is pleased to support the open source community by making trpc-nexus-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nexus-agent is licensed under the Apache License Version 2.0.
//
//

package inmemory

import "time"

const (
	defaultTTL             = 24 * time.Hour
	defaultMaxEntries      = 10000
	defaultCleanupInterval = 5 * time.Minute
)

type storeOpts struct {
	ttl             time.Duration
	maxEntries      int
	cleanupInterval time.Duration
}

var defaultOptions = storeOpts{
	ttl:        defaultTTL,
	maxEntries: defaultMaxEntries,
}

// StoreOpt configures a Store.
type StoreOpt func(*storeOpts)

// WithTTL sets how long an entry lives after its last write.
// Zero or negative disables expiry. Default is 24h.
func WithTTL(ttl time.Duration) StoreOpt {
	return func(o *storeOpts) {
		o.ttl = ttl
	}
}

// WithMaxEntries bounds the number of tokens kept. When full, the entry with
// the oldest write is evicted. Zero or negative means unbounded. Default is 10000.
func WithMaxEntries(n int) StoreOpt {
	return func(o *storeOpts) {
		o.maxEntries = n
	}
}

// WithCleanupInterval sets how often expired entries are purged.
// It defaults to 5 minutes when a TTL is set.
func WithCleanupInterval(d time.Duration) StoreOpt {
	return func(o *storeOpts) {
		o.cleanupInterval = d
	}
}
