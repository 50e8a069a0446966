//
// Tencent is pleased to support the open source community by making trpc-nexus-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nexus-agent is licensed under the Apache License Version 2.0.
//
//

package marketdata

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRecordsIgnoresUnknownFields(t *testing.T) {
	recs, err := decodeRecords[Quote](DatasetQuote, []byte(`[
		{"symbol":"AAPL","latestPrice":1,"change":0,"changePercent":0,"previousClose":1,"brandNewField":{"x":1}}
	]`), quoteRequired)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "AAPL", recs[0].Symbol)
}

func TestDecodeRecordsErrors(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantIndex int
		wantField string
	}{
		{name: "malformed", body: `[{`, wantIndex: -1},
		{name: "object payload", body: `{"symbol":"AAPL"}`, wantIndex: -1},
		{name: "missing required", body: `[{"symbol":"AAPL","latestPrice":1,"change":0,"changePercent":0}]`, wantIndex: 0, wantField: "previousClose"},
		{name: "null required", body: `[{"symbol":null,"latestPrice":1,"change":0,"changePercent":0,"previousClose":1}]`, wantIndex: 0, wantField: "symbol"},
		{name: "wrong type", body: `[
			{"symbol":"A","latestPrice":1,"change":0,"changePercent":0,"previousClose":1},
			{"symbol":"B","latestPrice":"high","change":0,"changePercent":0,"previousClose":1}
		]`, wantIndex: 1, wantField: "latestPrice"},
		{name: "non object element", body: `[1]`, wantIndex: 0},
		{name: "fractional volume", body: `[
			{"symbol":"A","latestPrice":1,"change":0,"changePercent":0,"previousClose":1,"volume":12.5}
		]`, wantIndex: 0, wantField: "volume"},
		{name: "string market cap", body: `[
			{"symbol":"A","latestPrice":1,"change":0,"changePercent":0,"previousClose":1,"marketCap":"3T"}
		]`, wantIndex: 0, wantField: "marketCap"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeRecords[Quote](DatasetQuote, []byte(tt.body), quoteRequired)
			var se *SchemaValidationError
			require.True(t, errors.As(err, &se), "got %v", err)
			assert.Equal(t, DatasetQuote, se.Dataset)
			assert.Equal(t, tt.wantIndex, se.Index)
			assert.Equal(t, tt.wantField, se.Field)
			assert.NotEmpty(t, se.Error())
		})
	}
}

func TestDecodeIntegralFloats(t *testing.T) {
	recs, err := decodeRecords[Quote](DatasetQuote, []byte(`[
		{"symbol":"A","latestPrice":1,"change":0,"changePercent":0,"previousClose":1,"volume":1200.0,"marketCap":3.5e12},
		{"symbol":"B","latestPrice":1,"change":0,"changePercent":0,"previousClose":1,"volume":42,"marketCap":null}
	]`), quoteRequired)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, Int64(1200), *recs[0].Volume)
	assert.Equal(t, Int64(3500000000000), *recs[0].MarketCap)
	assert.Equal(t, Int64(42), *recs[1].Volume)
	assert.Nil(t, recs[1].MarketCap)

	divs, err := decodeRecords[Dividend](DatasetDividends, []byte(`[{"symbol":"A","refid":"r","status":"s","adrFee":2.0}]`), dividendRequired)
	require.NoError(t, err)
	assert.Equal(t, Int64(2), *divs[0].ADRFee)
}

func TestInt64Ptr(t *testing.T) {
	var n *Int64
	assert.Nil(t, n.Ptr())
	v := Int64(7)
	assert.Equal(t, int64(7), *v.Ptr())
}

func TestDecodeEmptyArray(t *testing.T) {
	recs, err := decodeRecords[Dividend](DatasetDividends, []byte(`[]`), dividendRequired)
	require.NoError(t, err)
	assert.Empty(t, recs)
}
