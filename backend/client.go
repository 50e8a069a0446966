//
// Tencent is pleased to support the open source community by making trpc-nexus-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nexus-agent is licensed under the Apache License Version 2.0.
//
//

// Package backend is the client of the external financial agent.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"trpc.group/trpc-go/trpc-nexus-agent/log"
	"trpc.group/trpc-go/trpc-nexus-agent/telemetry/metric"
)

const (
	defaultTimeout = 300 * time.Second
	maxErrorBody   = 4 << 10
	upstreamName   = "backend"
)

var logger = log.Named("backend")

// ClientContext tells the agent what the caller can render.
type ClientContext struct {
	Type         string   `json:"type"`
	Capabilities []string `json:"capabilities"`
}

// OpenBBClientContext is sent with every request from the dashboard.
var OpenBBClientContext = ClientContext{
	Type:         "openbb",
	Capabilities: []string{"charts", "tables", "widgets"},
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message       string        `json:"message"`
	ClientContext ClientContext `json:"client_context"`
	WidgetContext string        `json:"widget_context,omitempty"`
}

// Artifact types the adapter understands.
const (
	ArtifactChart        = "chart"
	ArtifactTable        = "table"
	ArtifactWidgetUpdate = "widget_update"
	ArtifactWidgetAdd    = "widget_add"
)

var knownArtifacts = map[string]bool{
	ArtifactChart:        true,
	ArtifactTable:        true,
	ArtifactWidgetUpdate: true,
	ArtifactWidgetAdd:    true,
}

// ChatResponse is the agent's answer.
type ChatResponse struct {
	Response  string     `json:"response"`
	SessionID string     `json:"session_id,omitempty"`
	Artifacts []Artifact `json:"artifacts,omitempty"`
}

// UnmarshalJSON decodes the answer. Artifacts of an unknown type, and
// artifacts that do not match the shape of their type, are logged and
// dropped without failing the rest of the answer.
func (r *ChatResponse) UnmarshalJSON(b []byte) error {
	var wire struct {
		Response  string          `json:"response"`
		SessionID string          `json:"session_id"`
		Artifacts json.RawMessage `json:"artifacts"`
	}
	if err := json.Unmarshal(b, &wire); err != nil {
		return err
	}
	r.Response = wire.Response
	r.SessionID = wire.SessionID
	r.Artifacts = decodeArtifacts(wire.Artifacts)
	return nil
}

func decodeArtifacts(raw json.RawMessage) []Artifact {
	if len(raw) == 0 {
		return nil
	}
	list := gjson.ParseBytes(raw)
	if !list.IsArray() {
		if list.Type != gjson.Null {
			logger.Warnf("artifacts is not a list, ignored")
		}
		return nil
	}
	var out []Artifact
	list.ForEach(func(_, v gjson.Result) bool {
		kind := v.Get("artifact_type").String()
		if !knownArtifacts[kind] {
			logger.Warnf("unknown artifact type %q, skipped", kind)
			return true
		}
		var a Artifact
		if err := json.Unmarshal([]byte(v.Raw), &a); err != nil {
			logger.Warnf("malformed %s artifact skipped: %v", kind, err)
			return true
		}
		out = append(out, a)
		return true
	})
	return out
}

// Artifact is a structured output attached to the answer.
type Artifact struct {
	ArtifactType string           `json:"artifact_type"`
	ChartType    string           `json:"chart_type,omitempty"`
	XKey         string           `json:"x_key,omitempty"`
	YKeys        []string         `json:"y_keys,omitempty"`
	Data         []map[string]any `json:"data,omitempty"`
	Name         string           `json:"name,omitempty"`
	Description  string           `json:"description,omitempty"`
	WidgetUUID   string           `json:"widget_uuid,omitempty"`
	WidgetID     string           `json:"widget_id,omitempty"`
	Origin       string           `json:"origin,omitempty"`
	InputArgs    map[string]any   `json:"input_args,omitempty"`
}

// StatusError is returned when the agent answers with a non 2xx status.
type StatusError struct {
	StatusCode int
	Body       string
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s: %s", e.StatusCode, e.URL, strings.TrimSpace(e.Body))
}

// TransportError wraps a failure to reach the agent or read its answer.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }

// Client calls the financial agent.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. The default has a 300 second timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithTimeout sets the request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		cl.httpClient = &http.Client{Timeout: d}
	}
}

// NewClient creates a client for the agent at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Chat sends one message. token and, when known, sessionID are passed as
// query parameters. The call is made once, without retry.
func (c *Client) Chat(ctx context.Context, token, sessionID string, req *ChatRequest) (resp *ChatResponse, err error) {
	q := url.Values{}
	q.Set("token", token)
	if sessionID != "" {
		q.Set("session_id", sessionID)
	}
	endpoint := c.baseURL + "/chat"

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode chat request: %w", err)
	}

	start := time.Now()
	status := 0
	defer func() { metric.RecordUpstream(ctx, upstreamName, "chat", start, status, err) }()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"?"+q.Encode(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	logger.Debugf("POST %s (session %q, %d bytes)", endpoint, sessionID, len(body))
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer httpResp.Body.Close()
	status = httpResp.StatusCode

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(httpResp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: httpResp.StatusCode, Body: string(b), URL: endpoint}
	}
	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("read chat response: %w", err)}
	}
	resp = &ChatResponse{}
	if err := json.Unmarshal(raw, resp); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}
	logger.Debugf("chat answered with %d chars and %d artifacts", len(resp.Response), len(resp.Artifacts))
	return resp, nil
}
