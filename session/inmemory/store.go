//
// Tencent is pleased to support the open source community by making trpc-nexus-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nexus-agent is licensed under the Apache License Version 2.0.
//
//

// Package inmemory provides a process local session store.
package inmemory

import (
	"container/list"
	"context"
	"sync"
	"time"

	"trpc.group/trpc-go/trpc-nexus-agent/session"
)

var _ session.Store = (*Store)(nil)

// entry is a stored session id. elem is its position in the write order list.
type entry struct {
	token     string
	sessionID string
	expiredAt time.Time
	elem      *list.Element
}

// isExpired checks if the given time has passed.
func isExpired(expiredAt time.Time) bool {
	return !expiredAt.IsZero() && time.Now().After(expiredAt)
}

// calculateExpiredAt returns the zero time when ttl disables expiry.
func calculateExpiredAt(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(ttl)
}

// Store is an in-memory session.Store with TTL expiry and a capacity bound.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	order   *list.List // front is the most recent write
	opts    storeOpts

	cleanupTicker *time.Ticker
	cleanupDone   chan struct{}
	cleanupOnce   sync.Once
	once          sync.Once
}

// NewStore creates an in-memory store.
func NewStore(options ...StoreOpt) *Store {
	opts := defaultOptions
	for _, option := range options {
		option(&opts)
	}
	if opts.cleanupInterval <= 0 && opts.ttl > 0 {
		opts.cleanupInterval = defaultCleanupInterval
	}
	s := &Store{
		entries:     make(map[string]*entry),
		order:       list.New(),
		opts:        opts,
		cleanupDone: make(chan struct{}),
	}
	if opts.ttl > 0 {
		s.startCleanupRoutine()
	}
	return s
}

// Get implements session.Store.
func (s *Store) Get(_ context.Context, token string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[token]
	if !ok {
		return "", false, nil
	}
	if isExpired(e.expiredAt) {
		s.removeLocked(e)
		return "", false, nil
	}
	return e.sessionID, true, nil
}

// Set implements session.Store.
func (s *Store) Set(_ context.Context, token, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[token]; ok {
		e.sessionID = sessionID
		e.expiredAt = calculateExpiredAt(s.opts.ttl)
		s.order.MoveToFront(e.elem)
		return nil
	}
	e := &entry{
		token:     token,
		sessionID: sessionID,
		expiredAt: calculateExpiredAt(s.opts.ttl),
	}
	e.elem = s.order.PushFront(e)
	s.entries[token] = e
	for s.opts.maxEntries > 0 && len(s.entries) > s.opts.maxEntries {
		oldest := s.order.Back()
		if oldest == nil {
			break
		}
		s.removeLocked(oldest.Value.(*entry))
	}
	return nil
}

// Delete implements session.Store.
func (s *Store) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[token]; ok {
		s.removeLocked(e)
	}
	return nil
}

// Len returns the number of stored entries, expired ones included until
// they are purged.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) removeLocked(e *entry) {
	s.order.Remove(e.elem)
	delete(s.entries, e.token)
}

// cleanupExpired removes all expired entries.
func (s *Store) cleanupExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if isExpired(e.expiredAt) {
			s.removeLocked(e)
		}
	}
}

// startCleanupRoutine starts the background cleanup routine.
func (s *Store) startCleanupRoutine() {
	s.cleanupTicker = time.NewTicker(s.opts.cleanupInterval)
	ticker := s.cleanupTicker
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.cleanupExpired()
			case <-s.cleanupDone:
				return
			}
		}
	}()
}

func (s *Store) stopCleanupRoutine() {
	s.cleanupOnce.Do(func() {
		if s.cleanupTicker != nil {
			close(s.cleanupDone)
		}
	})
}

// Close stops the cleanup routine. The store stays usable.
func (s *Store) Close() error {
	s.once.Do(s.stopCleanupRoutine)
	return nil
}
