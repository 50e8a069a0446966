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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQueryRequest_Basic(t *testing.T) {
	body := `{
		"messages": [
			{"role": "human", "content": "What is AAPL doing?"},
			{"role": "ai", "content": {"function": "get_widget_data", "input_arguments": {}}}
		],
		"widgets": {"primary": [{
			"uuid": "w-1", "origin": "viaNexus Widgets", "widget_id": "table_widget", "name": "Quotes",
			"params": [{"name": "symbols", "type": "text", "current_value": "AAPL"}]
		}]},
		"unknown_field": true
	}`
	req, err := ParseQueryRequest([]byte(body))
	require.NoError(t, err)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "What is AAPL doing?", req.Messages[0].Content.Text)
	assert.NotEmpty(t, req.Messages[1].Content.Raw)
	require.Len(t, req.PrimaryWidgets(), 1)
	assert.Equal(t, map[string]any{"symbols": "AAPL"}, req.PrimaryWidgets()[0].CurrentArgs())

	w, ok := req.FindPrimaryWidget("w-1")
	require.True(t, ok)
	assert.Equal(t, "Quotes", w.Name)
	_, ok = req.FindPrimaryWidget("missing")
	assert.False(t, ok)
}

func TestParseQueryRequest_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantSyntax bool
		wantField  string
	}{
		{name: "malformed", body: `{"messages": [`, wantSyntax: true},
		{name: "not an object", body: `[1,2]`, wantField: "body"},
		{name: "no messages", body: `{"messages": []}`, wantField: "messages"},
		{name: "bad role", body: `{"messages": [{"role": "robot", "content": "x"}]}`, wantField: "messages[0].role"},
		{name: "tool without function", body: `{"messages": [{"role": "tool", "data": []}]}`, wantField: "messages[0].function"},
		{name: "widget without uuid", body: `{"messages": [{"role": "human", "content": "x"}], "widgets": {"primary": [{"origin": "o", "widget_id": "w", "name": "n"}]}}`, wantField: "widgets.primary[0].uuid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseQueryRequest([]byte(tt.body))
			require.Error(t, err)
			var syn *SyntaxError
			if tt.wantSyntax {
				assert.True(t, errors.As(err, &syn))
				return
			}
			assert.False(t, errors.As(err, &syn))
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), err.Error())
			assert.Equal(t, tt.wantField, ve.Field)
		})
	}
}

func TestParseQueryRequest_TypeMismatchIsNotSyntaxError(t *testing.T) {
	_, err := ParseQueryRequest([]byte(`{"messages": "nope"}`))
	require.Error(t, err)
	var syn *SyntaxError
	assert.False(t, errors.As(err, &syn))
}

func TestNormalizeToolMessages(t *testing.T) {
	body := `{"messages": [
		{"role": "human", "content": "add a chart"},
		{"role": "tool", "function": "add_widget_to_dashboard", "input_arguments": {}, "extra_state": null,
		 "data": [
			{"items": [{"status": "success", "message": "widget added"}]},
			{"items": [{"content": "price,100"}]}
		 ]}
	]}`
	req, err := ParseQueryRequest([]byte(body))
	require.NoError(t, err)
	tool := req.LastMessage()
	require.Equal(t, RoleTool, tool.Role)
	assert.NotNil(t, tool.ExtraState)
	require.Len(t, tool.Data, 2)
	assert.True(t, tool.Data[0].IsCommandResult())
	assert.Equal(t, "success", tool.Data[0].Status)
	assert.False(t, tool.Data[1].IsCommandResult())
	require.Len(t, tool.Data[1].Items, 1)
	assert.Equal(t, "price,100", tool.Data[1].Items[0].Content)
}

func TestNormalizeRequestAddsExtraCitations(t *testing.T) {
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{"messages": [
		{"role": "tool", "data": [{"items": [{"content": "a"}]}, {"items": [], "extra_citations": [1]}]}
	]}`), &doc))
	NormalizeRequest(doc)
	data := doc["messages"].([]any)[0].(map[string]any)["data"].([]any)
	assert.Equal(t, []any{}, data[0].(map[string]any)["extra_citations"])
	assert.Equal(t, []any{float64(1)}, data[1].(map[string]any)["extra_citations"])
	assert.Equal(t, map[string]any{}, doc["messages"].([]any)[0].(map[string]any)["extra_state"])
}

func TestHumanMessages(t *testing.T) {
	req := &QueryRequest{Messages: []Message{
		{Role: RoleHuman, Content: Content{Text: "a"}},
		{Role: RoleAI, Content: Content{Text: "b"}},
		{Role: RoleHuman, Content: Content{Text: "c"}},
	}}
	humans := req.HumanMessages()
	require.Len(t, humans, 2)
	assert.Equal(t, "c", humans[1].Content.Text)
	assert.Equal(t, RoleHuman, req.LastMessage().Role)
	assert.Nil(t, (&QueryRequest{}).LastMessage())
}

func TestContentMarshal(t *testing.T) {
	b, err := json.Marshal(Message{Role: RoleHuman, Content: Content{Text: "hi"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"human","content":"hi"}`, string(b))

	b, err = json.Marshal(Message{Role: RoleTool, Function: "f"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"tool","function":"f"}`, string(b))
}
