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
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-nexus-agent/marketdata"
)

type fakeSource struct {
	symbols []string
	symbol  string
	limit   int
	from    string
	err     error
	rules   json.RawMessage
}

func (f *fakeSource) Quotes(_ context.Context, symbols []string, limit int) ([]marketdata.Quote, error) {
	f.symbols, f.limit = symbols, limit
	if f.err != nil {
		return nil, f.err
	}
	return []marketdata.Quote{{Symbol: symbols[0], Price: 1}}, nil
}

func (f *fakeSource) News(_ context.Context, symbol string, limit int) ([]marketdata.NewsArticle, error) {
	f.symbol, f.limit = symbol, limit
	if f.err != nil {
		return nil, f.err
	}
	return []marketdata.NewsArticle{{Headline: "h", Provider: "p", Datetime: 1700000000000}}, nil
}

func (f *fakeSource) Dividends(_ context.Context, symbols []string, limit int, from string) ([]marketdata.Dividend, error) {
	f.symbols, f.limit, f.from = symbols, limit, from
	if f.err != nil {
		return nil, f.err
	}
	return []marketdata.Dividend{{Symbol: symbols[0]}}, nil
}

func (f *fakeSource) Rules(context.Context) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rules, nil
}

func call(t *testing.T, r *Registry, id string, q string) (any, error) {
	t.Helper()
	e, ok := r.Lookup(id)
	require.True(t, ok, id)
	vals, err := url.ParseQuery(q)
	require.NoError(t, err)
	return e.Handler(context.Background(), vals)
}

func TestDefaultRegistryCatalog(t *testing.T) {
	r := NewDefaultRegistry(&fakeSource{})
	ids := []string{}
	for _, e := range r.Entries() {
		ids = append(ids, e.ID)
		assert.Equal(t, e.ID, e.Metadata.Endpoint)
	}
	assert.Equal(t, []string{IDQuoteTable, IDDividendsTable, IDNews, IDRules}, ids)

	b, err := json.Marshal(r)
	require.NoError(t, err)
	var doc map[string]map[string]any
	require.NoError(t, json.Unmarshal(b, &doc))
	assert.Equal(t, "newsfeed", doc[IDNews]["type"])
	assert.Equal(t, map[string]any{"w": float64(20), "h": float64(10)}, doc[IDQuoteTable]["gridData"])
}

func TestQuoteTableHandler(t *testing.T) {
	src := &fakeSource{}
	r := NewDefaultRegistry(src)

	out, err := call(t, r, IDQuoteTable, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"NVDA", "MSFT", "AAPL", "ORCL", "PCG", "QQQ"}, src.symbols)
	assert.Len(t, out, 1)

	_, err = call(t, r, IDQuoteTable, "symbols=AAPL,%20TSLA,")
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "TSLA"}, src.symbols)
}

func TestDividendsHandler(t *testing.T) {
	src := &fakeSource{}
	r := NewDefaultRegistry(src)

	_, err := call(t, r, IDDividendsTable, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT", "GOOGL"}, src.symbols)
	assert.Equal(t, 10, src.limit)
	assert.Equal(t, "2024-01-01", src.from)

	_, err = call(t, r, IDDividendsTable, "symbols=KO&limit=100&from_date=2023-06-30")
	require.NoError(t, err)
	assert.Equal(t, 100, src.limit)
	assert.Equal(t, "2023-06-30", src.from)

	_, err = call(t, r, IDDividendsTable, "limit=abc")
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
	_, err = call(t, r, IDDividendsTable, "limit=-1")
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
	_, err = call(t, r, IDDividendsTable, "from_date=yesterday")
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
}

func TestNewsHandler(t *testing.T) {
	src := &fakeSource{}
	r := NewDefaultRegistry(src)

	out, err := call(t, r, IDNews, "")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", src.symbol)
	assert.Equal(t, 10, src.limit)
	items := out.([]NewsItem)
	require.Len(t, items, 1)
	assert.Equal(t, "p", items[0].Author)

	_, err = call(t, r, IDNews, "symbol=&limit=3")
	require.NoError(t, err)
	assert.Equal(t, "", src.symbol, "empty symbol means market wide news")
	assert.Equal(t, 3, src.limit)
}

func TestHandlerFetchErrors(t *testing.T) {
	src := &fakeSource{err: errors.New("connection refused")}
	r := NewDefaultRegistry(src)

	_, err := call(t, r, IDNews, "")
	require.Error(t, err)
	assert.Equal(t, "Failed to fetch news: connection refused", err.Error())
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(err))

	src.err = &marketdata.StatusError{StatusCode: http.StatusForbidden, Body: "no access"}
	_, err = call(t, r, IDRules, "")
	require.Error(t, err)
	assert.Equal(t, "Failed to fetch rules: no access", err.Error())
	assert.Equal(t, http.StatusForbidden, HTTPStatus(err))

	_, err = call(t, r, IDQuoteTable, "")
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(err), "only rules relays upstream status")
}

func TestRulesPassthrough(t *testing.T) {
	src := &fakeSource{rules: json.RawMessage(`[{"id":"1"}]`)}
	out, err := call(t, NewDefaultRegistry(src), IDRules, "")
	require.NoError(t, err)
	b, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"1"}]`, string(b))
}
