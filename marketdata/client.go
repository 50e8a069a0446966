//
// Tencent is pleased to support the open source community by making trpc-nexus-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nexus-agent is licensed under the Apache License Version 2.0.
//
//

// Package marketdata is a client for the viaNexus market data API.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"trpc.group/trpc-go/trpc-nexus-agent/log"
	"trpc.group/trpc-go/trpc-nexus-agent/telemetry/metric"
)

const (
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 4 << 10

	namespaceCore = "CORE"

	// Dataset names under the CORE namespace.
	DatasetQuote     = "QUOTE"
	DatasetNews      = "NEWS"
	DatasetDividends = "ADVANCED_DIVIDENDS"

	upstreamName = "marketdata"
)

var logger = log.Named("marketdata")

// StatusError is returned when the API answers with a non 2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// Client fetches datasets from the market data API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. The default has a 10 second timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithTimeout sets the per request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		cl.httpClient = &http.Client{Timeout: d}
	}
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Quotes fetches the latest quote of each symbol.
func (c *Client) Quotes(ctx context.Context, symbols []string, limit int) ([]Quote, error) {
	body, err := c.get(ctx, DatasetQuote, datasetPath(DatasetQuote, symbols...), limitParams(limit))
	if err != nil {
		return nil, err
	}
	return decodeRecords[Quote](DatasetQuote, body, quoteRequired)
}

// News fetches articles for symbol, or market wide news when symbol is empty.
func (c *Client) News(ctx context.Context, symbol string, limit int) ([]NewsArticle, error) {
	var p string
	if s := strings.TrimSpace(symbol); s != "" {
		p = datasetPath(DatasetNews, strings.ToUpper(s))
	} else {
		p = datasetPath(DatasetNews)
	}
	body, err := c.get(ctx, DatasetNews, p, limitParams(limit))
	if err != nil {
		return nil, err
	}
	return decodeRecords[NewsArticle](DatasetNews, body, newsRequired)
}

// Dividends fetches dividend events of symbols. A non empty from restricts
// the result to events on or after that YYYY-MM-DD date.
func (c *Client) Dividends(ctx context.Context, symbols []string, limit int, from string) ([]Dividend, error) {
	q := limitParams(limit)
	if from != "" {
		q.Set("from", from)
	}
	body, err := c.get(ctx, DatasetDividends, datasetPath(DatasetDividends, symbols...), q)
	if err != nil {
		return nil, err
	}
	return decodeRecords[Dividend](DatasetDividends, body, dividendRequired)
}

// Rules fetches the caller's rule set. The payload is returned undecoded.
func (c *Client) Rules(ctx context.Context) (json.RawMessage, error) {
	body, err := c.get(ctx, "rules", "/rules", url.Values{})
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("rules: response is not valid JSON")
	}
	return body, nil
}

func datasetPath(dataset string, symbols ...string) string {
	p := "/data/" + namespaceCore + "/" + dataset
	if len(symbols) > 0 {
		escaped := make([]string, len(symbols))
		for i, s := range symbols {
			escaped[i] = url.PathEscape(s)
		}
		p += "/" + strings.Join(escaped, ",")
	}
	return p
}

func limitParams(limit int) url.Values {
	q := url.Values{}
	if limit > 0 {
		q.Set("last", strconv.Itoa(limit))
	}
	return q
}

func (c *Client) get(ctx context.Context, operation, path string, q url.Values) (body []byte, err error) {
	q.Set("token", c.apiKey)
	u := c.baseURL + path + "?" + q.Encode()

	start := time.Now()
	status := 0
	defer func() { metric.RecordUpstream(ctx, upstreamName, operation, start, status, err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", operation, err)
	}
	req.Header.Set("Accept", "application/json")

	logger.Debugf("GET %s%s", c.baseURL, path)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", operation, err)
	}
	logger.Debugf("%s: received %d bytes", operation, len(body))
	return body, nil
}
