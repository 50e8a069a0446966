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
	"strconv"
	"strings"
	"time"

	"trpc.group/trpc-go/trpc-nexus-agent/marketdata"
)

// Built in widget ids.
const (
	IDQuoteTable     = "table_widget"
	IDDividendsTable = "dividends_table"
	IDNews           = "vianexus_news"
	IDRules          = "rules"
)

const (
	defaultQuoteSymbols    = "NVDA,MSFT,AAPL,ORCL,PCG,QQQ"
	defaultQuoteLimit      = 10
	defaultDividendSymbols = "AAPL,MSFT,GOOGL"
	defaultDividendLimit   = 10
	defaultDividendFrom    = "2024-01-01"
	defaultNewsSymbol      = "AAPL"
	defaultNewsLimit       = 10
)

// DataSource is the market data needed by the built in widgets.
type DataSource interface {
	Quotes(ctx context.Context, symbols []string, limit int) ([]marketdata.Quote, error)
	News(ctx context.Context, symbol string, limit int) ([]marketdata.NewsArticle, error)
	Dividends(ctx context.Context, symbols []string, limit int, from string) ([]marketdata.Dividend, error)
	Rules(ctx context.Context) (json.RawMessage, error)
}

// NewDefaultRegistry returns a registry holding the built in widgets backed
// by src.
func NewDefaultRegistry(src DataSource) *Registry {
	r := NewRegistry()
	r.MustRegister(IDQuoteTable, quoteTableMetadata, quoteTableHandler(src))
	r.MustRegister(IDDividendsTable, dividendsTableMetadata, dividendsTableHandler(src))
	r.MustRegister(IDNews, newsMetadata, newsHandler(src))
	r.MustRegister(IDRules, rulesMetadata, rulesHandler(src))
	return r
}

func quoteTableHandler(src DataSource) Handler {
	return func(ctx context.Context, params url.Values) (any, error) {
		symbols := splitSymbols(params.Get("symbols"))
		if len(symbols) == 0 {
			symbols = splitSymbols(defaultQuoteSymbols)
		}
		quotes, err := src.Quotes(ctx, symbols, defaultQuoteLimit)
		if err != nil {
			return nil, &FetchError{What: "quotes", Err: err}
		}
		return QuoteRows(quotes), nil
	}
}

func dividendsTableHandler(src DataSource) Handler {
	return func(ctx context.Context, params url.Values) (any, error) {
		symbols := splitSymbols(params.Get("symbols"))
		if len(symbols) == 0 {
			symbols = splitSymbols(defaultDividendSymbols)
		}
		limit, err := intParam(params, "limit", defaultDividendLimit)
		if err != nil {
			return nil, err
		}
		from := defaultDividendFrom
		if params.Has("from_date") {
			from = strings.TrimSpace(params.Get("from_date"))
			if from != "" {
				if _, err := time.Parse(time.DateOnly, from); err != nil {
					return nil, &ParamError{Param: "from_date", Reason: "expected YYYY-MM-DD"}
				}
			}
		}
		divs, err := src.Dividends(ctx, symbols, limit, from)
		if err != nil {
			return nil, &FetchError{What: "dividends", Err: err}
		}
		return DividendRows(divs), nil
	}
}

func newsHandler(src DataSource) Handler {
	return func(ctx context.Context, params url.Values) (any, error) {
		symbol := defaultNewsSymbol
		if params.Has("symbol") {
			symbol = strings.TrimSpace(params.Get("symbol"))
		}
		limit, err := intParam(params, "limit", defaultNewsLimit)
		if err != nil {
			return nil, err
		}
		articles, err := src.News(ctx, symbol, limit)
		if err != nil {
			return nil, &FetchError{What: "news", Err: err}
		}
		return NewsItems(articles), nil
	}
}

func rulesHandler(src DataSource) Handler {
	return func(ctx context.Context, _ url.Values) (any, error) {
		raw, err := src.Rules(ctx)
		if err != nil {
			return nil, &FetchError{What: "rules", Err: err, PassStatus: true}
		}
		return raw, nil
	}
}

func splitSymbols(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func intParam(params url.Values, name string, def int) (int, error) {
	v := strings.TrimSpace(params.Get(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &ParamError{Param: name, Reason: "expected an integer"}
	}
	if n <= 0 {
		return 0, &ParamError{Param: name, Reason: "must be positive"}
	}
	return n, nil
}

var quoteTableMetadata = Metadata{
	Name:            "Table Widget",
	Description:     "A table widget from an API endpoint",
	Type:            "table",
	RefetchInterval: 10000,
	GridData:        GridData{W: 20, H: 10},
	Raw:             true,
	Params: []Param{{
		ParamName:   "symbols",
		Label:       "Stock Symbols",
		Type:        "text",
		MultiSelect: true,
		Value:       "AAPL,NVDA,MSFT",
	}},
	Data: &DataConfig{Table: &TableConfig{ColumnsDefs: []Column{
		{Field: "symbol", HeaderName: "Symbol", Pinned: "left"},
		{Field: "price", HeaderName: "Price"},
		{Field: "change", HeaderName: "Change"},
		{Field: "percent_change", HeaderName: "% Change", FormatterFn: "percent"},
		{Field: "prev_close", HeaderName: "Prev Close"},
		// The API currently returns null opens.
		{Field: "open", HeaderName: "Open", Hide: true},
		{Field: "high", HeaderName: "High"},
		{Field: "low", HeaderName: "Low"},
		{Field: "volume", HeaderName: "Volume", FormatterFn: "int"},
		{Field: "market_cap", HeaderName: "Market Cap", FormatterFn: "int"},
	}}},
}

var dividendsTableMetadata = Metadata{
	Name:            "Dividends Table",
	Description:     "A table widget displaying a list of dividends for a given stock symbol",
	Type:            "table",
	RefetchInterval: 60000,
	GridData:        GridData{W: 25, H: 20},
	Raw:             true,
	Params: []Param{
		{
			ParamName:   "symbols",
			Label:       "Stock Symbols",
			Type:        "text",
			Value:       defaultDividendSymbols,
			Description: "Enter a stock ticker symbol (e.g., AAPL, MSFT, GOOGL)",
		},
		{
			ParamName:   "limit",
			Label:       "Limit",
			Type:        "number",
			Value:       100,
			Description: "Enter the number of dividends to display",
		},
		{
			ParamName:   "from_date",
			Label:       "From Date",
			Type:        "date",
			Value:       defaultDividendFrom,
			Description: "Returns data on or after the given from date. Format YYYY-MM-DD",
		},
	},
	Data: &DataConfig{Table: &TableConfig{ColumnsDefs: []Column{
		{Field: "symbol", HeaderName: "Symbol", Width: 100},
		{Field: "ex_date", HeaderName: "Ex-Date", Width: 100},
		{Field: "payment_date", HeaderName: "Payment Date", Width: 100},
		{Field: "record_date", HeaderName: "Record Date", Width: 100},
		{Field: "amount", HeaderName: "Amount", Width: 100},
		{Field: "announced_date", HeaderName: "Announced Date", Width: 100},
	}}},
}

var newsMetadata = Metadata{
	Name:            "Financial News",
	Description:     "Latest financial news powered by viaNexus",
	Category:        "News",
	Type:            "newsfeed",
	RefetchInterval: 60000,
	GridData:        GridData{W: 40, H: 20},
	Source:          "viaNexus",
	Params: []Param{
		{
			ParamName:   "symbol",
			Label:       "Stock Symbol",
			Type:        "text",
			Value:       defaultNewsSymbol,
			Description: "Filter news by stock symbol (e.g., AAPL, MSFT, GOOGL).",
		},
		{
			ParamName:   "limit",
			Label:       "Number of Articles",
			Type:        "number",
			Value:       "10",
			Description: "Maximum number of articles to display",
		},
	},
}

var rulesMetadata = Metadata{
	Name:            "Rules",
	Description:     "Display rules with status and statistics",
	Category:        "Rules",
	Type:            "table",
	RefetchInterval: 60000,
	GridData:        GridData{W: 20, H: 10},
	Data: &DataConfig{Table: &TableConfig{ColumnsDefs: []Column{
		{Field: "id", HeaderName: "ID", CellDataType: "text", Width: 280, Hide: true},
		{Field: "name", HeaderName: "Name", CellDataType: "text", Width: 280},
		{Field: "isActive", HeaderName: "Active", CellDataType: "boolean", Width: 100, RenderFn: "greenRed"},
		{Field: "ran", HeaderName: "Ran", CellDataType: "number", FormatterFn: "int", Width: 100},
		{Field: "passed", HeaderName: "Passed", CellDataType: "number", FormatterFn: "int", Width: 100, RenderFn: "greenRed"},
		{Field: "failed", HeaderName: "Failed", CellDataType: "number", FormatterFn: "int", Width: 100, RenderFn: "greenRed"},
		{Field: "dateCreated", HeaderName: "Created", CellDataType: "text", Width: 120, Hide: true},
		{Field: "dateUpdated", HeaderName: "Updated", CellDataType: "text", Width: 120, Hide: true},
		{Field: "lastPassed", HeaderName: "Last Passed", CellDataType: "number", Width: 140, Hide: true},
		{Field: "lastFailed", HeaderName: "Last Failed", CellDataType: "number", Width: 140, Hide: true},
	}}},
}
