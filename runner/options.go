//
// Tencent is pleased to support the open source community by making trpc-nexus-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nexus-agent is licensed under the Apache License Version 2.0.
//
//

package runner

import (
	"time"

	"trpc.group/trpc-go/trpc-nexus-agent/widget"
)

const (
	defaultPoolSize    = 64
	defaultChunkSize   = 100
	defaultCallTimeout = 300 * time.Second
	defaultEventBuffer = 16
)

type options struct {
	poolSize      int
	chunkSize     int
	callTimeout   time.Duration
	eventBuffer   int
	catalog       Catalog
	defaultOrigin string
}

var defaultOptions = options{
	poolSize:      defaultPoolSize,
	chunkSize:     defaultChunkSize,
	callTimeout:   defaultCallTimeout,
	eventBuffer:   defaultEventBuffer,
	defaultOrigin: widget.Origin,
}

// Option configures a Runner.
type Option func(*options)

// WithPoolSize bounds the number of requests processed concurrently.
// Default is 64.
func WithPoolSize(n int) Option {
	return func(o *options) {
		o.poolSize = n
	}
}

// WithChunkSize sets the number of characters per streamed text event.
// Default is 100.
func WithChunkSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.chunkSize = n
		}
	}
}

// WithCallTimeout bounds the agent backend call. Default is 300s.
func WithCallTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.callTimeout = d
		}
	}
}

// WithEventBuffer sets the capacity of the returned event channel.
func WithEventBuffer(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.eventBuffer = n
		}
	}
}

// WithCatalog sets the widget catalog listed by the "list widgets" command.
func WithCatalog(c Catalog) Option {
	return func(o *options) {
		o.catalog = c
	}
}

// WithDefaultOrigin sets the origin of widget_add artifacts that carry none.
// Default is the local widget backend origin.
func WithDefaultOrigin(origin string) Option {
	return func(o *options) {
		o.defaultOrigin = origin
	}
}
