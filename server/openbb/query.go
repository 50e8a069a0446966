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
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	obb "trpc.group/trpc-go/trpc-nexus-agent/openbb"
	"trpc.group/trpc-go/trpc-nexus-agent/runner"
	"trpc.group/trpc-go/trpc-nexus-agent/telemetry/metric"
)

const missingTokenText = "Authentication token is required. Please configure a token when adding the agent."

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	reqID := uuid.NewString()
	defer r.Body.Close()

	sw, ok := newSSEWriter(w)
	if !ok {
		http.Error(w, "Streaming unsupported!", http.StatusInternalServerError)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.maxBodyBytes))
	if err != nil {
		logger.Warnf("query %s: read body: %v", reqID, err)
		s.writeSingle(r, sw, fmt.Sprintf("Error parsing request: %v", err))
		return
	}
	req, err := obb.ParseQueryRequest(body)
	if err != nil {
		logger.Errorf("query %s: invalid request: %v", reqID, err)
		var syntaxErr *obb.SyntaxError
		if errors.As(err, &syntaxErr) {
			s.writeSingle(r, sw, fmt.Sprintf("Invalid JSON in request body: %v", err))
			return
		}
		s.writeSingle(r, sw, fmt.Sprintf("Error parsing request: %v", err))
		return
	}

	token := extractToken(r)
	if token == "" {
		logger.Warnf("query %s: no token supplied", reqID)
		s.writeSingle(r, sw, missingTokenText)
		return
	}
	logger.Debugf("query %s: %d messages, token ...%s", reqID, len(req.Messages), tokenSuffix(token))

	events, err := s.runner.Run(r.Context(), req, token, runner.WithSessionID(r.URL.Query().Get("session_id")))
	if err != nil {
		logger.Errorf("query %s: %v", reqID, err)
		s.writeSingle(r, sw, fmt.Sprintf("An unexpected error occurred: %v", err))
		return
	}
	broken := false
	for ev := range events {
		if broken {
			continue
		}
		if err := sw.write(ev); err != nil {
			logger.Warnf("query %s: write %s event: %v", reqID, ev.Name, err)
			broken = true
			continue
		}
		metric.IncEvent(r.Context(), ev.Name)
	}
	logger.Debugf("query %s finished", reqID)
}

func (s *Server) writeSingle(r *http.Request, sw *sseWriter, text string) {
	ev := obb.NewMessageChunk(text)
	if err := sw.write(ev); err != nil {
		logger.Warnf("write %s event: %v", ev.Name, err)
		return
	}
	metric.IncEvent(r.Context(), ev.Name)
}

// extractToken reads the caller token from the query string, then the
// token and X-Token headers, then a bearer Authorization header.
func extractToken(r *http.Request) string {
	if t := r.URL.Query().Get("token"); t != "" {
		return t
	}
	if t := r.Header.Get("token"); t != "" {
		return t
	}
	if t := r.Header.Get("X-Token"); t != "" {
		return t
	}
	auth := r.Header.Get("Authorization")
	if len(auth) > len("Bearer ") && strings.EqualFold(auth[:len("Bearer ")], "Bearer ") {
		return strings.TrimSpace(auth[len("Bearer "):])
	}
	return ""
}

func tokenSuffix(token string) string {
	if len(token) <= 4 {
		return ""
	}
	return token[len(token)-4:]
}
