//
// Tencent is pleased to support the open source community by making trpc-nexus-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nexus-agent is licensed under the Apache License Version 2.0.
//
//

// Package redis provides a Redis backed session store shared by every agent
// replica.
package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"trpc.group/trpc-go/trpc-nexus-agent/session"
)

const (
	defaultKeyPrefix = "nexus:session:"
	defaultTTL       = 24 * time.Hour
)

var _ session.Store = (*Store)(nil)

// Options configures a Store.
type Options struct {
	url       string
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

var defaultOptions = Options{
	keyPrefix: defaultKeyPrefix,
	ttl:       defaultTTL,
}

// Option sets an Options field.
type Option func(*Options)

// WithRedisClientURL sets the redis:// or rediss:// URL to connect to.
func WithRedisClientURL(url string) Option {
	return func(o *Options) {
		o.url = url
	}
}

// WithClient uses an existing client. The store does not close it.
func WithClient(c redis.UniversalClient) Option {
	return func(o *Options) {
		o.client = c
	}
}

// WithKeyPrefix sets the prefix of every key. Default is "nexus:session:".
func WithKeyPrefix(prefix string) Option {
	return func(o *Options) {
		o.keyPrefix = prefix
	}
}

// WithTTL sets the expiry applied on every write. Zero or negative keeps keys
// forever. Default is 24h.
func WithTTL(ttl time.Duration) Option {
	return func(o *Options) {
		o.ttl = ttl
	}
}

// Store is a session.Store backed by Redis strings with SET EX semantics.
type Store struct {
	opts       Options
	client     redis.UniversalClient
	ownsClient bool
	once       sync.Once
}

// NewStore connects to Redis.
func NewStore(options ...Option) (*Store, error) {
	opts := defaultOptions
	for _, option := range options {
		option(&opts)
	}
	s := &Store{opts: opts, client: opts.client}
	if s.client == nil {
		if opts.url == "" {
			return nil, errors.New("redis session store: url or client is required")
		}
		ro, err := redis.ParseURL(opts.url)
		if err != nil {
			return nil, fmt.Errorf("create redis client from url failed: %w", err)
		}
		s.client = redis.NewClient(ro)
		s.ownsClient = true
	}
	return s, nil
}

// key names the entry for token. The token is stored as its SHA-256 digest
// so that bearer tokens never appear in key listings or snapshots.
func (s *Store) key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return s.opts.keyPrefix + hex.EncodeToString(sum[:])
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Get implements session.Store.
func (s *Store) Get(ctx context.Context, token string) (string, bool, error) {
	id, err := s.client.Get(ctx, s.key(token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis session store: get: %w", err)
	}
	return id, true, nil
}

// Set implements session.Store.
func (s *Store) Set(ctx context.Context, token, sessionID string) error {
	ttl := s.opts.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, s.key(token), sessionID, ttl).Err(); err != nil {
		return fmt.Errorf("redis session store: set: %w", err)
	}
	return nil
}

// Delete implements session.Store.
func (s *Store) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, s.key(token)).Err(); err != nil {
		return fmt.Errorf("redis session store: delete: %w", err)
	}
	return nil
}

// Close closes the client when the store created it.
func (s *Store) Close() error {
	var err error
	s.once.Do(func() {
		if s.ownsClient {
			err = s.client.Close()
		}
	})
	return err
}
