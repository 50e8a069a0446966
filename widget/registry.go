//
// Tencent is pleased to support the open source community by making trpc-nexus-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nexus-agent is licensed under the Apache License Version 2.0.
//
//

// Package widget implements the dashboard widgets served by the agent: their
// catalog metadata, their data handlers and the formatting of market data
// into widget rows.
package widget

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Origin is the name under which the dashboard knows this widget backend.
const Origin = "viaNexus Widgets"

// Handler produces the JSON payload of a widget from its query parameters.
type Handler func(ctx context.Context, params url.Values) (any, error)

// Entry is a registered widget.
type Entry struct {
	ID       string
	Metadata Metadata
	Handler  Handler
}

// Registry is an ordered widget catalog. It is populated at start up and must
// not be modified once the server is serving requests.
type Registry struct {
	entries []*Entry
	index   map[string]*Entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]*Entry)}
}

// Register adds a widget. The id doubles as the HTTP endpoint name and must
// be unique.
func (r *Registry) Register(id string, md Metadata, h Handler) error {
	if id == "" {
		return fmt.Errorf("widget: empty id")
	}
	if h == nil {
		return fmt.Errorf("widget %s: nil handler", id)
	}
	if _, ok := r.index[id]; ok {
		return fmt.Errorf("widget %s: already registered", id)
	}
	if md.Endpoint == "" {
		md.Endpoint = id
	}
	e := &Entry{ID: id, Metadata: md, Handler: h}
	r.entries = append(r.entries, e)
	r.index[id] = e
	return nil
}

// MustRegister is Register that panics on error.
func (r *Registry) MustRegister(id string, md Metadata, h Handler) {
	if err := r.Register(id, md, h); err != nil {
		panic(err)
	}
}

// Lookup returns the widget registered under id.
func (r *Registry) Lookup(id string) (*Entry, bool) {
	e, ok := r.index[id]
	return e, ok
}

// Entries returns the widgets in registration order.
func (r *Registry) Entries() []*Entry {
	out := make([]*Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of registered widgets.
func (r *Registry) Len() int {
	return len(r.entries)
}

// MarshalJSON encodes the catalog as a JSON object keyed by widget id,
// keeping registration order.
func (r *Registry) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range r.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.ID)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e.Metadata)
		if err != nil {
			return nil, fmt.Errorf("widget %s: %w", e.ID, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// FormatList renders the catalog as a markdown list for the chat.
func (r *Registry) FormatList() string {
	if r == nil || len(r.entries) == 0 {
		return "No widgets available. Make sure the widget backend is running."
	}
	lines := []string{"**Available Widgets:**\n"}
	for _, e := range r.entries {
		md := e.Metadata
		name := md.Name
		if name == "" {
			name = e.ID
		}
		desc := md.Description
		if desc == "" {
			desc = "No description"
		}
		typ := md.Type
		if typ == "" {
			typ = "table"
		}
		var paramStr string
		if len(md.Params) > 0 {
			names := make([]string, len(md.Params))
			for i, p := range md.Params {
				names[i] = p.ParamName
				if names[i] == "" {
					names[i] = "?"
				}
			}
			paramStr = " (params: " + strings.Join(names, ", ") + ")"
		}
		lines = append(lines,
			fmt.Sprintf("- **%s** (`%s`) - _%s_%s", name, e.ID, typ, paramStr),
			"  "+desc,
			"",
		)
	}
	lines = append(lines, "\n_Use `add <widget_id>` or `add <widget_id> <symbol>` to add a widget._")
	return strings.Join(lines, "\n")
}
