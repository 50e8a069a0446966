//
// Tencent is pleased to support the open source community by making trpc-nexus-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nexus-agent is licensed under the Apache License Version 2.0.
//
//

package runner

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"trpc.group/trpc-go/trpc-nexus-agent/backend"
	"trpc.group/trpc-go/trpc-nexus-agent/openbb"
)

// Artifact types produced by the agent.
const (
	ArtifactChart        = backend.ArtifactChart
	ArtifactTable        = backend.ArtifactTable
	ArtifactWidgetUpdate = backend.ArtifactWidgetUpdate
	ArtifactWidgetAdd    = backend.ArtifactWidgetAdd
)

const (
	defaultXKey      = "x"
	defaultYKey      = "y"
	defaultChartType = "line"
	defaultChartName = "Chart"
	defaultTableName = "Table"
)

// Plausible timestamp bounds: 2000-01-01 to 2100-01-01.
const (
	minEpochMillis  = 946684800000
	maxEpochMillis  = 4102444800000
	minEpochSeconds = 946684800
	maxEpochSeconds = 4102444800
)

// convertArtifact maps one agent artifact to a dashboard event. It returns
// nil for artifacts that are skipped.
func (r *Runner) convertArtifact(req *openbb.QueryRequest, a *backend.Artifact) *openbb.Event {
	switch a.ArtifactType {
	case ArtifactChart:
		return chartEvent(a)
	case ArtifactTable:
		name := a.Name
		if name == "" {
			name = defaultTableName
		}
		return openbb.NewTable(a.Data, name, a.Description)
	case ArtifactWidgetUpdate:
		return updateEvent(req, a)
	case ArtifactWidgetAdd:
		if a.WidgetID == "" {
			logger.Errorf("widget_add artifact without widget_id, skipped")
			return nil
		}
		origin := a.Origin
		if origin == "" {
			origin = r.opts.defaultOrigin
		}
		return openbb.NewAddWidget(origin, a.WidgetID, a.InputArgs)
	default:
		logger.Warnf("unknown artifact type %q, skipped", a.ArtifactType)
		return nil
	}
}

func chartEvent(a *backend.Artifact) *openbb.Event {
	xKey := a.XKey
	if xKey == "" {
		xKey = defaultXKey
	}
	yKeys := a.YKeys
	if yKeys == nil {
		yKeys = []string{defaultYKey}
	}
	chartType := a.ChartType
	if chartType == "" {
		chartType = defaultChartType
	}
	name := a.Name
	if name == "" {
		name = defaultChartName
	}

	keep := make(map[string]struct{}, len(yKeys)+1)
	keep[xKey] = struct{}{}
	for _, k := range yKeys {
		keep[k] = struct{}{}
	}
	rows := make([]map[string]any, 0, len(a.Data))
	for _, row := range a.Data {
		filtered := make(map[string]any, len(keep))
		for k, v := range row {
			if _, ok := keep[k]; ok {
				filtered[k] = v
			}
		}
		if v, ok := filtered[xKey]; ok {
			filtered[xKey] = FormatTimestamp(v)
		}
		rows = append(rows, filtered)
	}
	return openbb.NewChart(chartType, rows, xKey, yKeys, name, a.Description)
}

func updateEvent(req *openbb.QueryRequest, a *backend.Artifact) *openbb.Event {
	if a.WidgetUUID == "" {
		logger.Errorf("widget_update artifact without widget_uuid")
		return openbb.NewMessageChunk("\n\n*Error: Widget update requested without a widget UUID.*")
	}
	if w, ok := req.FindPrimaryWidget(a.WidgetUUID); ok {
		return openbb.NewUpdateWidget(a.WidgetUUID, w.Origin, w.WidgetID, a.InputArgs)
	}
	if a.Origin != "" && a.WidgetID != "" {
		return openbb.NewUpdateWidget(a.WidgetUUID, a.Origin, a.WidgetID, a.InputArgs)
	}
	logger.Warnf("widget %s not found in dashboard context", a.WidgetUUID)
	return openbb.NewMessageChunk(fmt.Sprintf("\n\n*Error: Widget %s not found in dashboard context.*", a.WidgetUUID))
}

// FormatTimestamp renders numeric Unix timestamps in milliseconds or seconds
// between 2000 and 2100 as a UTC YYYY-MM-DD date. Other values are returned
// unchanged.
func FormatTimestamp(v any) any {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return v
		}
		f = parsed
	default:
		return v
	}
	switch {
	case f >= minEpochMillis && f <= maxEpochMillis:
		return time.UnixMilli(int64(math.Floor(f))).UTC().Format(time.DateOnly)
	case f >= minEpochSeconds && f <= maxEpochSeconds:
		return time.Unix(int64(math.Floor(f)), 0).UTC().Format(time.DateOnly)
	}
	return v
}
