//
// Tencent is pleased to support the open source community by making trpc-nexus-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nexus-agent is licensed under the Apache License Version 2.0.
//
//

package widget

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nopHandler(context.Context, url.Values) (any, error) { return nil, nil }

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("b", Metadata{Name: "B"}, nopHandler))
	require.NoError(t, r.Register("a", Metadata{Name: "A", Endpoint: "custom"}, nopHandler))

	assert.Error(t, r.Register("a", Metadata{}, nopHandler), "duplicate id")
	assert.Error(t, r.Register("", Metadata{}, nopHandler), "empty id")
	assert.Error(t, r.Register("c", Metadata{}, nil), "nil handler")
	assert.Panics(t, func() { r.MustRegister("a", Metadata{}, nopHandler) })

	assert.Equal(t, 2, r.Len())
	e, ok := r.Lookup("b")
	require.True(t, ok)
	assert.Equal(t, "b", e.Metadata.Endpoint)
	e, _ = r.Lookup("a")
	assert.Equal(t, "custom", e.Metadata.Endpoint)
	_, ok = r.Lookup("zzz")
	assert.False(t, ok)

	ids := []string{}
	for _, e := range r.Entries() {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"b", "a"}, ids)
}

func TestRegistryMarshalKeepsOrder(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("zeta", Metadata{Name: "Z", Type: "table"}, nopHandler)
	r.MustRegister("alpha", Metadata{Name: "A", Type: "table"}, nopHandler)

	b, err := json.Marshal(r)
	require.NoError(t, err)
	s := string(b)
	assert.Less(t, strings.Index(s, `"zeta"`), strings.Index(s, `"alpha"`))

	var decoded map[string]Metadata
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, "zeta", decoded["zeta"].Endpoint)

	b, err = json.Marshal(NewRegistry())
	require.NoError(t, err)
	assert.Equal(t, "{}", string(b))
}

func TestFormatList(t *testing.T) {
	assert.Equal(t, "No widgets available. Make sure the widget backend is running.", NewRegistry().FormatList())

	r := NewRegistry()
	r.MustRegister("table_widget", Metadata{
		Name:        "Table Widget",
		Description: "Quotes",
		Type:        "table",
		Params:      []Param{{ParamName: "symbols"}, {ParamName: "limit"}},
	}, nopHandler)
	r.MustRegister("bare", Metadata{}, nopHandler)

	want := strings.Join([]string{
		"**Available Widgets:**\n",
		"- **Table Widget** (`table_widget`) - _table_ (params: symbols, limit)",
		"  Quotes",
		"",
		"- **bare** (`bare`) - _table_",
		"  No description",
		"",
		"\n_Use `add <widget_id>` or `add <widget_id> <symbol>` to add a widget._",
	}, "\n")
	assert.Equal(t, want, r.FormatList())
}
