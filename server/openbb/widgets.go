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
	"net/http"

	"trpc.group/trpc-go/trpc-nexus-agent/telemetry/metric"
	"trpc.group/trpc-go/trpc-nexus-agent/widget"
)

func (s *Server) widgetHandler(e *widget.Entry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := e.Handler(r.Context(), r.URL.Query())
		metric.IncWidget(r.Context(), e.ID, err)
		if err != nil {
			status := widget.HTTPStatus(err)
			if status >= http.StatusInternalServerError {
				logger.Errorf("widget %s: %v", e.ID, err)
			} else {
				logger.Warnf("widget %s: %v", e.ID, err)
			}
			s.writeDetail(w, status, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, out)
	}
}
