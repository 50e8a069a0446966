//
// Tencent is pleased to support the open source community by making trpc-nexus-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nexus-agent is licensed under the Apache License Version 2.0.
//
//

// Package openbb serves the OpenBB Workspace custom agent and widget
// backend endpoints.
package openbb

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"trpc.group/trpc-go/trpc-nexus-agent/log"
	obb "trpc.group/trpc-go/trpc-nexus-agent/openbb"
	"trpc.group/trpc-go/trpc-nexus-agent/runner"
	"trpc.group/trpc-go/trpc-nexus-agent/widget"
)

var logger = log.Named("server")

// QueryRunner turns a parsed query into dashboard events.
// *runner.Runner implements it.
type QueryRunner interface {
	Run(ctx context.Context, req *obb.QueryRequest, token string, opts ...runner.RunOption) (<-chan *obb.Event, error)
}

// Server routes OpenBB Workspace requests.
type Server struct {
	router   *mux.Router
	handler  http.Handler
	runner   QueryRunner
	registry *widget.Registry
	opts     options
}

// New creates a server answering queries with qr and serving the widgets
// of registry.
func New(qr QueryRunner, registry *widget.Registry, opts ...Option) (*Server, error) {
	if qr == nil {
		return nil, errors.New("openbb: query runner is nil")
	}
	if registry == nil {
		registry = widget.NewRegistry()
	}
	o := options{
		agentKey:         defaultAgentKey,
		agentName:        defaultAgentName,
		agentDescription: defaultAgentDescription,
		agentImage:       defaultAgentImage,
		allowedOrigins:   defaultAllowedOrigins,
		maxBodyBytes:     defaultMaxBodyBytes,
		apps:             widget.Apps,
	}
	for _, opt := range opts {
		opt(&o)
	}
	s := &Server{
		router:   mux.NewRouter(),
		runner:   qr,
		registry: registry,
		opts:     o,
	}
	s.registerRoutes()
	c := cors.New(cors.Options{
		AllowedOrigins:   o.allowedOrigins,
		AllowCredentials: true,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions, http.MethodHead,
		},
		AllowedHeaders: []string{"*"},
	})
	s.handler = c.Handler(s.router)
	return s, nil
}

// Handler returns the HTTP handler of the server, CORS included.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/query", s.handleQuery).Methods(http.MethodPost)
	s.router.HandleFunc("/agents.json", s.handleAgents).Methods(http.MethodGet)
	s.router.HandleFunc("/widgets.json", s.handleWidgets).Methods(http.MethodGet)
	s.router.HandleFunc("/apps.json", s.handleApps).Methods(http.MethodGet)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	for _, e := range s.registry.Entries() {
		s.router.HandleFunc("/"+e.Metadata.Endpoint, s.widgetHandler(e)).Methods(http.MethodGet)
	}
}

type agentFeatures struct {
	Streaming             bool `json:"streaming"`
	WidgetDashboardSelect bool `json:"widget-dashboard-select"`
	WidgetDashboardSearch bool `json:"widget-dashboard-search"`
}

type agentDescriptor struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Image       string            `json:"image"`
	Endpoints   map[string]string `json:"endpoints"`
	Features    agentFeatures     `json:"features"`
}

func (s *Server) handleAgents(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]agentDescriptor{
		s.opts.agentKey: {
			Name:        s.opts.agentName,
			Description: s.opts.agentDescription,
			Image:       s.opts.agentImage,
			Endpoints:   map[string]string{"query": "/query"},
			Features: agentFeatures{
				Streaming:             true,
				WidgetDashboardSelect: true,
				WidgetDashboardSearch: true,
			},
		},
	})
}

func (s *Server) handleWidgets(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.registry)
}

func (s *Server) handleApps(w http.ResponseWriter, _ *http.Request) {
	if s.opts.apps == nil {
		s.writeJSON(w, http.StatusOK, []any{})
		return
	}
	apps, err := s.opts.apps()
	if err != nil {
		logger.Errorf("load apps: %v", err)
		s.writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, apps)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(headerContentType, contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorf("encode response: %v", err)
	}
}

func (s *Server) writeDetail(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, map[string]string{"detail": detail})
}
