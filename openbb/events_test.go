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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encode(t *testing.T, ev *Event) map[string]any {
	t.Helper()
	b, err := json.Marshal(ev.Data)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	return out
}

func TestNewGetWidgetData(t *testing.T) {
	ev := NewGetWidgetData([]Widget{{
		UUID: "u1", Origin: "o", WidgetID: "w", Name: "n",
		Params: []WidgetParam{{Name: "symbol", CurrentValue: "AAPL"}, {Name: "empty"}},
	}})
	assert.Equal(t, EventFunctionCall, ev.Name)
	assert.JSONEq(t, `{
		"function": "get_widget_data",
		"input_arguments": {"data_sources": [
			{"widget_uuid": "u1", "origin": "o", "id": "w", "input_args": {"symbol": "AAPL", "empty": null}}
		]}
	}`, mustJSON(t, ev.Data))

	extra := NewGetExtraWidgetData([]Widget{{UUID: "u2", Origin: "o", WidgetID: "file"}})
	assert.Equal(t, FunctionGetExtraWidgetData, extra.Data.(*FunctionCall).Function)
}

func TestNewAddAndUpdateWidget(t *testing.T) {
	add := NewAddWidget("viaNexus Widgets", "table_widget", nil)
	assert.JSONEq(t, `{
		"function": "add_widget_to_dashboard",
		"input_arguments": {"data_sources": [{"origin": "viaNexus Widgets", "id": "table_widget", "input_args": {}}]}
	}`, mustJSON(t, add.Data))

	upd := NewUpdateWidget("u1", "o", "w", map[string]any{"symbol": "MSFT"})
	assert.JSONEq(t, `{
		"function": "update_widget_in_dashboard",
		"input_arguments": {"data_sources": [
			{"widget_uuid": "u1", "origin": "o", "id": "w", "input_args": {"symbol": "MSFT"}, "ssm_request": null}
		]}
	}`, mustJSON(t, upd.Data))
}

func TestArtifacts(t *testing.T) {
	chart := encode(t, NewChart("bar", []map[string]any{{"x": "2024-01-01", "y": 1}}, "x", []string{"y"}, "Prices", "desc"))
	assert.Equal(t, "chart", chart["type"])
	assert.Equal(t, "Prices", chart["name"])
	assert.NotEmpty(t, chart["uuid"])
	assert.Equal(t, map[string]any{"chartType": "bar", "xKey": "x", "yKey": []any{"y"}}, chart["chart_params"])

	table := encode(t, NewTable(nil, "Table", ""))
	assert.Equal(t, "table", table["type"])
	assert.Equal(t, []any{}, table["content"])
	_, hasParams := table["chart_params"]
	assert.False(t, hasParams)
}

func TestCitations(t *testing.T) {
	w := &Widget{UUID: "u1", Origin: "o", WidgetID: "w", Name: "Quotes", Description: "d"}
	args := map[string]any{"symbols": "AAPL"}
	c := Cite(w, args, args)
	assert.Equal(t, "widget", c.SourceInfo.Type)
	assert.Equal(t, map[string]any{"input_args": args}, c.SourceInfo.Metadata)
	require.Len(t, c.Details, 1)
	assert.NotEmpty(t, c.ID)

	bare := Cite(w, nil, nil)
	assert.Empty(t, bare.Details)

	ev := NewCitations([]Citation{c, bare})
	assert.Equal(t, EventCitationCollection, ev.Name)
	out := encode(t, ev)
	assert.Len(t, out["citations"], 2)
}

func TestMessageChunk(t *testing.T) {
	ev := NewMessageChunk("hello")
	assert.Equal(t, EventMessageChunk, ev.Name)
	assert.JSONEq(t, `{"delta":"hello"}`, mustJSON(t, ev.Data))
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}
