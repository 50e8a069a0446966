//
// Tencent is pleased to support the open source community by making trpc-nexus-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nexus-agent is licensed under the Apache License Version 2.0.
//
//

// Package openbb models the OpenBB Workspace custom agent protocol: the
// query request posted by the dashboard and the server sent events the agent
// streams back.
package openbb

import (
	"bytes"
	"encoding/json"
)

// Role is the author of a conversation message.
type Role string

// Conversation roles.
const (
	RoleHuman Role = "human"
	RoleAI    Role = "ai"
	RoleTool  Role = "tool"
)

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	Messages  []Message       `json:"messages"`
	Widgets   *WidgetGroups   `json:"widgets,omitempty"`
	Context   json.RawMessage `json:"context,omitempty"`
	URLs      []string        `json:"urls,omitempty"`
	Timezone  string          `json:"timezone,omitempty"`
	Workspace map[string]any  `json:"workspace_state,omitempty"`
}

// WidgetGroups holds the dashboard widgets attached to a request.
type WidgetGroups struct {
	Primary   []Widget `json:"primary,omitempty"`
	Secondary []Widget `json:"secondary,omitempty"`
	Extra     []Widget `json:"extra,omitempty"`
}

// Widget describes a widget instance on the user's dashboard.
type Widget struct {
	UUID        string         `json:"uuid"`
	Origin      string         `json:"origin"`
	WidgetID    string         `json:"widget_id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Params      []WidgetParam  `json:"params,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// WidgetParam is one input parameter of a dashboard widget.
type WidgetParam struct {
	Name         string `json:"name"`
	Type         string `json:"type,omitempty"`
	Description  string `json:"description,omitempty"`
	DefaultValue any    `json:"default_value,omitempty"`
	CurrentValue any    `json:"current_value,omitempty"`
	Options      []any  `json:"options,omitempty"`
}

// CurrentArgs maps every parameter name to its current value, nil included.
func (w *Widget) CurrentArgs() map[string]any {
	args := make(map[string]any, len(w.Params))
	for _, p := range w.Params {
		args[p.Name] = p.CurrentValue
	}
	return args
}

// Message is one entry of the conversation history.
type Message struct {
	Role    Role    `json:"role"`
	Content Content `json:"content,omitzero"`

	// Tool messages only.
	Function       string         `json:"function,omitempty"`
	InputArguments map[string]any `json:"input_arguments,omitempty"`
	Data           []ToolResult   `json:"data,omitempty"`
	ExtraState     map[string]any `json:"extra_state,omitempty"`
}

// Content is a message body. Human messages carry text; AI messages may carry
// a structured function call, which is kept raw.
type Content struct {
	Text string
	Raw  json.RawMessage
}

// UnmarshalJSON accepts either a JSON string or any other JSON value.
func (c *Content) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*c = Content{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*c = Content{Text: s}
		return nil
	}
	*c = Content{Raw: append(json.RawMessage(nil), b...)}
	return nil
}

// MarshalJSON writes the raw value when present and the text otherwise.
func (c Content) MarshalJSON() ([]byte, error) {
	if len(c.Raw) > 0 {
		return c.Raw, nil
	}
	return json.Marshal(c.Text)
}

// IsZero lets omitempty style checks treat an empty content as absent.
func (c Content) IsZero() bool {
	return c.Text == "" && len(c.Raw) == 0
}

// ToolResult is one payload of a tool message. It is either a data content
// holding items, or a client command result reporting a status.
type ToolResult struct {
	Items          []DataItem        `json:"items,omitempty"`
	ExtraCitations []json.RawMessage `json:"extra_citations,omitempty"`
	Status         string            `json:"status,omitempty"`
	Message        string            `json:"message,omitempty"`
}

// IsCommandResult reports whether the payload is a client command result.
func (r *ToolResult) IsCommandResult() bool {
	return r.Status != "" && len(r.Items) == 0
}

// DataItem is a single piece of widget data returned by the dashboard.
type DataItem struct {
	Content    string          `json:"content"`
	DataFormat json.RawMessage `json:"data_format,omitempty"`
	Citable    *bool           `json:"citable,omitempty"`
}

// HumanMessages returns the human authored messages in order.
func (q *QueryRequest) HumanMessages() []*Message {
	var out []*Message
	for i := range q.Messages {
		if q.Messages[i].Role == RoleHuman {
			out = append(out, &q.Messages[i])
		}
	}
	return out
}

// LastMessage returns the most recent message or nil.
func (q *QueryRequest) LastMessage() *Message {
	if len(q.Messages) == 0 {
		return nil
	}
	return &q.Messages[len(q.Messages)-1]
}

// PrimaryWidgets returns the explicitly selected widgets.
func (q *QueryRequest) PrimaryWidgets() []Widget {
	if q.Widgets == nil {
		return nil
	}
	return q.Widgets.Primary
}

// SecondaryWidgets returns the widgets visible on the dashboard but not selected.
func (q *QueryRequest) SecondaryWidgets() []Widget {
	if q.Widgets == nil {
		return nil
	}
	return q.Widgets.Secondary
}

// FindPrimaryWidget looks a primary widget up by uuid.
func (q *QueryRequest) FindPrimaryWidget(uuid string) (*Widget, bool) {
	if q.Widgets == nil {
		return nil, false
	}
	for i := range q.Widgets.Primary {
		if q.Widgets.Primary[i].UUID == uuid {
			return &q.Widgets.Primary[i], true
		}
	}
	return nil, false
}
