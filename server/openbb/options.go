//
// Tencent is pleased to support the open source community by making trpc-nexus-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nexus-agent is licensed under the Apache License Version 2.0.
//
//

package openbb

import "encoding/json"

const (
	defaultAgentKey         = "vianexus-financial-agent"
	defaultAgentName        = "viaNexus Financial Agent"
	defaultAgentDescription = "A financial assistant powered by viaNexus with access to market data, analytics, and visualization capabilities."
	defaultAgentImage       = "https://github.com/OpenBB-finance/copilot-for-terminal-pro/assets/14093308/7da2a512-93b9-478d-90bc-b8c3dd0cabcf"
	defaultMaxBodyBytes     = 10 << 20
)

var defaultAllowedOrigins = []string{
	"https://pro.openbb.co",
	"https://pro.openbb.dev",
	"http://localhost:1420",
}

// Option configures the OpenBB server.
type Option func(*options)

type options struct {
	agentKey         string
	agentName        string
	agentDescription string
	agentImage       string
	allowedOrigins   []string
	maxBodyBytes     int64
	apps             func() (json.RawMessage, error)
}

// WithAgentName sets the name advertised in agents.json.
func WithAgentName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.agentName = name
		}
	}
}

// WithAgentDescription sets the description advertised in agents.json.
func WithAgentDescription(desc string) Option {
	return func(o *options) {
		if desc != "" {
			o.agentDescription = desc
		}
	}
}

// WithAllowedOrigins replaces the CORS origin allow list.
// Default is the OpenBB Workspace origins plus the local desktop app.
func WithAllowedOrigins(origins ...string) Option {
	return func(o *options) {
		o.allowedOrigins = origins
	}
}

// WithMaxBodyBytes bounds the size of a query body. Default is 10 MiB.
func WithMaxBodyBytes(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxBodyBytes = n
		}
	}
}

// WithApps sets the source of /apps.json.
func WithApps(fn func() (json.RawMessage, error)) Option {
	return func(o *options) {
		o.apps = fn
	}
}
