//
// Tencent is pleased to support the open source community by making trpc-nexus-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nexus-agent is licensed under the Apache License Version 2.0.
//
//

package openbb

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// SyntaxError reports a request body that is not valid JSON.
type SyntaxError struct {
	Err error
}

func (e *SyntaxError) Error() string { return e.Err.Error() }

func (e *SyntaxError) Unwrap() error { return e.Err }

// ValidationError reports a well formed body that does not match the
// request schema.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ParseQueryRequest decodes a POST /query body. The dashboard sends a few
// shapes that differ from the schema, so the body is normalized first with
// NormalizeRequest. A *SyntaxError is returned for malformed JSON and a
// *ValidationError or decoding error for schema mismatches.
func ParseQueryRequest(body []byte) (*QueryRequest, error) {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &SyntaxError{Err: err}
	}
	doc, ok := raw.(map[string]any)
	if !ok {
		return nil, &ValidationError{Field: "body", Reason: "expected a JSON object"}
	}
	if gjson.GetBytes(body, `messages.#(role=="tool")`).Exists() {
		NormalizeRequest(doc)
		normalized, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("re-encode normalized request: %w", err)
		}
		body = normalized
	}
	var req QueryRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &req, nil
}

// NormalizeRequest rewrites the tool messages of a decoded request in place:
// a null extra_state becomes an empty object, a command result wrapped as
// {"items":[{"status":...}]} is unwrapped, and data contents without
// extra_citations get an empty list.
func NormalizeRequest(doc map[string]any) {
	messages, _ := doc["messages"].([]any)
	for _, m := range messages {
		msg, ok := m.(map[string]any)
		if !ok || msg["role"] != string(RoleTool) {
			continue
		}
		data, ok := msg["data"].([]any)
		if !ok {
			continue
		}
		if msg["extra_state"] == nil {
			msg["extra_state"] = map[string]any{}
		}
		for i, d := range data {
			item, ok := d.(map[string]any)
			if !ok {
				continue
			}
			_, hasItems := item["items"]
			if !hasItems {
				continue
			}
			_, hasStatus := item["status"]
			_, hasContent := item["content"]
			if !hasStatus && !hasContent {
				if items, _ := item["items"].([]any); len(items) > 0 {
					if first, ok := items[0].(map[string]any); ok {
						if _, isCommand := first["status"]; isCommand {
							data[i] = first
							continue
						}
					}
				}
			}
			if _, ok := item["extra_citations"]; !ok {
				item["extra_citations"] = []any{}
			}
		}
	}
}

// Validate checks the fields the agent relies on.
func (q *QueryRequest) Validate() error {
	if len(q.Messages) == 0 {
		return &ValidationError{Field: "messages", Reason: "at least one message is required"}
	}
	for i, m := range q.Messages {
		field := fmt.Sprintf("messages[%d]", i)
		switch m.Role {
		case RoleHuman:
			if m.Content.Text == "" && len(m.Content.Raw) > 0 {
				return &ValidationError{Field: field + ".content", Reason: "human content must be a string"}
			}
		case RoleAI:
		case RoleTool:
			if m.Function == "" {
				return &ValidationError{Field: field + ".function", Reason: "field required"}
			}
		default:
			return &ValidationError{Field: field + ".role", Reason: fmt.Sprintf("unsupported role %q", m.Role)}
		}
	}
	if q.Widgets == nil {
		return nil
	}
	groups := []struct {
		name    string
		widgets []Widget
	}{
		{"primary", q.Widgets.Primary},
		{"secondary", q.Widgets.Secondary},
		{"extra", q.Widgets.Extra},
	}
	for _, g := range groups {
		for i, w := range g.widgets {
			field := fmt.Sprintf("widgets.%s[%d]", g.name, i)
			switch {
			case w.UUID == "":
				return &ValidationError{Field: field + ".uuid", Reason: "field required"}
			case w.Origin == "":
				return &ValidationError{Field: field + ".origin", Reason: "field required"}
			case w.WidgetID == "":
				return &ValidationError{Field: field + ".widget_id", Reason: "field required"}
			}
		}
	}
	return nil
}
