//
// Tencent is pleased to support the open source community by making trpc-nexus-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nexus-agent is licensed under the Apache License Version 2.0.
//
//

// Package runner turns a dashboard query into the ordered stream of events
// sent back to OpenBB Workspace.
package runner

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/panjf2000/ants/v2"

	"trpc.group/trpc-go/trpc-nexus-agent/backend"
	"trpc.group/trpc-go/trpc-nexus-agent/log"
	"trpc.group/trpc-go/trpc-nexus-agent/openbb"
	"trpc.group/trpc-go/trpc-nexus-agent/session"
	"trpc.group/trpc-go/trpc-nexus-agent/telemetry/metric"
)

// Query phases reported to metrics.
const (
	PhaseNoMessage       = "no_message"
	PhaseListWidgets     = "list_widgets"
	PhaseFetchWidgetData = "fetch_widget_data"
	PhaseFetchExtraData  = "fetch_extra_widget_data"
	PhaseCommandResult   = "command_result"
	PhaseChat            = "chat"
)

const noMessageText = "No message provided."

var logger = log.Named("runner")

var listCommands = map[string]struct{}{
	"list widgets":      {},
	"widgets":           {},
	"show widgets":      {},
	"available widgets": {},
}

// Agent answers a chat message. *backend.Client implements it.
type Agent interface {
	Chat(ctx context.Context, token, sessionID string, req *backend.ChatRequest) (*backend.ChatResponse, error)
}

// Catalog lists the locally served widgets. *widget.Registry implements it.
type Catalog interface {
	FormatList() string
}

// Runner processes queries on a bounded worker pool.
type Runner struct {
	agent    Agent
	sessions session.Store
	opts     options
	pool     *ants.PoolWithFunc
}

type job struct {
	ctx       context.Context
	req       *openbb.QueryRequest
	token     string
	sessionID string
	out       chan *openbb.Event
}

// RunOption configures a single Run call.
type RunOption func(*job)

// WithSessionID supplies a session id the caller already knows. It is used
// only when no session is stored for the token.
func WithSessionID(id string) RunOption {
	return func(j *job) {
		j.sessionID = id
	}
}

// New creates a Runner. sessions may be nil, in which case no conversation
// state is kept between requests.
func New(agent Agent, sessions session.Store, opts ...Option) (*Runner, error) {
	if agent == nil {
		return nil, errors.New("runner: agent is nil")
	}
	o := defaultOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.poolSize <= 0 {
		return nil, errors.New("runner: pool size must be greater than 0")
	}
	r := &Runner{agent: agent, sessions: sessions, opts: o}
	pool, err := ants.NewPoolWithFunc(o.poolSize, func(args any) {
		j, ok := args.(*job)
		if !ok {
			panic("runner pool args type error")
		}
		r.execute(j)
	})
	if err != nil {
		return nil, fmt.Errorf("create runner pool: %w", err)
	}
	r.pool = pool
	return r, nil
}

// Run schedules req and returns the channel its events are delivered on.
// The channel is closed once processing ends. Sends stop when ctx is done,
// but an in-flight agent call still completes and its session id is kept.
func (r *Runner) Run(ctx context.Context, req *openbb.QueryRequest, token string, opts ...RunOption) (<-chan *openbb.Event, error) {
	if req == nil {
		return nil, errors.New("runner: request is nil")
	}
	j := &job{
		ctx:   ctx,
		req:   req,
		token: token,
		out:   make(chan *openbb.Event, r.opts.eventBuffer),
	}
	for _, opt := range opts {
		opt(j)
	}
	if err := r.pool.Invoke(j); err != nil {
		return nil, fmt.Errorf("runner: schedule query: %w", err)
	}
	return j.out, nil
}

// Close releases the worker pool. Queries already running finish.
func (r *Runner) Close() {
	r.pool.Release()
}

func (r *Runner) execute(j *job) {
	defer close(j.out)
	defer func() {
		if rr := recover(); rr != nil {
			logger.Errorf("panic in query processing: %v\n%s", rr, string(debug.Stack()))
			j.emit(openbb.NewMessageChunk(fmt.Sprintf("An unexpected error occurred: %v", rr)))
		}
	}()
	r.process(j)
}

// emit delivers ev unless the caller went away.
func (j *job) emit(ev *openbb.Event) bool {
	select {
	case j.out <- ev:
		return true
	case <-j.ctx.Done():
		return false
	}
}

func (r *Runner) process(j *job) {
	ctx, req := j.ctx, j.req
	humans := req.HumanMessages()
	if len(humans) == 0 {
		metric.IncQuery(ctx, PhaseNoMessage)
		j.emit(openbb.NewMessageChunk(noMessageText))
		return
	}
	text := humans[len(humans)-1].Content.Text

	if isListCommand(text) {
		metric.IncQuery(ctx, PhaseListWidgets)
		j.emit(openbb.NewMessageChunk(r.catalogText()))
		return
	}

	last := req.LastMessage()
	if last.Role == openbb.RoleHuman {
		if primary := req.PrimaryWidgets(); len(primary) > 0 {
			metric.IncQuery(ctx, PhaseFetchWidgetData)
			j.emit(openbb.NewGetWidgetData(primary))
			return
		}
		if req.Widgets != nil && len(req.Widgets.Extra) > 0 {
			metric.IncQuery(ctx, PhaseFetchExtraData)
			j.emit(openbb.NewGetExtraWidgetData(req.Widgets.Extra))
			return
		}
	}

	var (
		dataContext string
		citations   []openbb.Citation
	)
	if last.Role == openbb.RoleTool {
		var ok bool
		dataContext, ok = toolDataContext(last)
		if !ok {
			metric.IncQuery(ctx, PhaseCommandResult)
			logger.Debugf("tool message %q carried no data items", last.Function)
			return
		}
		citations = collectCitations(req, last)
	}

	widgetContext := dataContext
	if block := widgetContextBlock(req); block != "" {
		widgetContext = block + "\n" + dataContext
	}

	metric.IncQuery(ctx, PhaseChat)
	sessionID := r.lookupSession(ctx, j.token)
	if sessionID == "" {
		sessionID = j.sessionID
	}
	resp, err := r.chat(ctx, j.token, sessionID, &backend.ChatRequest{
		Message:       text,
		ClientContext: backend.OpenBBClientContext,
		WidgetContext: widgetContext,
	})
	if err != nil {
		logger.Errorf("agent call failed: %v", err)
		j.emit(openbb.NewMessageChunk(chatErrorText(err)))
		return
	}

	for _, chunk := range splitChunks(resp.Response, r.opts.chunkSize) {
		j.emit(openbb.NewMessageChunk(chunk))
	}
	for i := range resp.Artifacts {
		if ev := r.convertArtifact(req, &resp.Artifacts[i]); ev != nil {
			j.emit(ev)
		}
	}

	newID := resp.SessionID
	if newID == "" {
		newID = sessionID
	}
	r.storeSession(ctx, j.token, newID)

	if len(citations) > 0 {
		j.emit(openbb.NewCitations(citations))
	}
}

// chat calls the agent on a context that outlives the client connection.
func (r *Runner) chat(ctx context.Context, token, sessionID string, req *backend.ChatRequest) (*backend.ChatResponse, error) {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.opts.callTimeout)
	defer cancel()
	resp, err := r.agent.Chat(callCtx, token, sessionID, req)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, errors.New("empty agent response")
	}
	return resp, nil
}

func (r *Runner) catalogText() string {
	if r.opts.catalog == nil {
		return "No widgets available. Make sure the widget backend is running."
	}
	return r.opts.catalog.FormatList()
}

func (r *Runner) lookupSession(ctx context.Context, token string) string {
	if r.sessions == nil || token == "" {
		return ""
	}
	id, ok, err := r.sessions.Get(context.WithoutCancel(ctx), token)
	if err != nil {
		logger.Warnf("session lookup failed, continuing without session: %v", err)
		return ""
	}
	if !ok {
		return ""
	}
	return id
}

func (r *Runner) storeSession(ctx context.Context, token, sessionID string) {
	if r.sessions == nil || token == "" || sessionID == "" {
		return
	}
	if err := r.sessions.Set(context.WithoutCancel(ctx), token, sessionID); err != nil {
		logger.Warnf("session store failed: %v", err)
	}
}

func isListCommand(text string) bool {
	_, ok := listCommands[strings.ToLower(strings.TrimSpace(text))]
	return ok
}

func chatErrorText(err error) string {
	var statusErr *backend.StatusError
	if errors.As(err, &statusErr) {
		return fmt.Sprintf("Error communicating with financial agent: %v", err)
	}
	var transportErr *backend.TransportError
	if errors.As(err, &transportErr) {
		return fmt.Sprintf("Failed to reach financial agent: %v", err)
	}
	return fmt.Sprintf("An unexpected error occurred: %v", err)
}

// splitChunks cuts text into pieces of at most size characters.
func splitChunks(text string, size int) []string {
	if text == "" {
		return nil
	}
	runes := []rune(text)
	chunks := make([]string, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := min(start+size, len(runes))
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
