//
// Tencent is pleased to support the open source community by making trpc-nexus-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nexus-agent is licensed under the Apache License Version 2.0.
//
//

// Package session maps dashboard tokens to the conversation session ids
// issued by the financial agent backend.
package session

import "context"

// Store keeps the backend session id of each token. Implementations must be
// safe for concurrent use; concurrent writes for one token keep the last one.
type Store interface {
	// Get returns the session id stored for token. ok is false when there
	// is none or it has expired.
	Get(ctx context.Context, token string) (sessionID string, ok bool, err error)
	// Set stores sessionID for token, replacing any previous value.
	Set(ctx context.Context, token, sessionID string) error
	// Delete forgets token.
	Delete(ctx context.Context, token string) error
	// Close releases the store's resources.
	Close() error
}
