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
	"github.com/google/uuid"
)

// SSE event names understood by the dashboard.
const (
	EventMessageChunk       = "copilotMessageChunk"
	EventFunctionCall       = "copilotFunctionCall"
	EventMessageArtifact    = "copilotMessageArtifact"
	EventCitationCollection = "copilotCitationCollection"
)

// Function call names.
const (
	FunctionGetWidgetData      = "get_widget_data"
	FunctionGetExtraWidgetData = "get_extra_widget_data"
	FunctionAddWidget          = "add_widget_to_dashboard"
	FunctionUpdateWidget       = "update_widget_in_dashboard"
)

// Artifact types.
const (
	ArtifactChart = "chart"
	ArtifactTable = "table"
)

// Event is a single server sent event: Name goes to the "event:" line and
// Data is encoded as JSON on the "data:" line.
type Event struct {
	Name string
	Data any
}

// MessageChunk carries a fragment of the streamed answer.
type MessageChunk struct {
	Delta string `json:"delta"`
}

// FunctionCall asks the dashboard to run a client side function.
type FunctionCall struct {
	Function       string         `json:"function"`
	InputArguments map[string]any `json:"input_arguments"`
	ExtraState     map[string]any `json:"extra_state,omitempty"`
}

// DataSource addresses one widget in a function call.
type DataSource struct {
	WidgetUUID string         `json:"widget_uuid,omitempty"`
	Origin     string         `json:"origin"`
	ID         string         `json:"id"`
	InputArgs  map[string]any `json:"input_args"`
}

// updateDataSource adds the explicit null ssm_request the update call expects.
type updateDataSource struct {
	WidgetUUID string         `json:"widget_uuid"`
	Origin     string         `json:"origin"`
	ID         string         `json:"id"`
	InputArgs  map[string]any `json:"input_args"`
	SSMRequest *struct{}      `json:"ssm_request"`
}

// Artifact is an inline chart or table attached to the answer.
type Artifact struct {
	Type        string       `json:"type"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	UUID        string       `json:"uuid"`
	Content     any          `json:"content"`
	ChartParams *ChartParams `json:"chart_params,omitempty"`
}

// ChartParams configures a chart artifact.
type ChartParams struct {
	ChartType string   `json:"chartType"`
	XKey      string   `json:"xKey"`
	YKey      []string `json:"yKey"`
}

// CitationCollection lists the sources an answer was built from.
type CitationCollection struct {
	Citations []Citation `json:"citations"`
}

// Citation points at one widget used as a source.
type Citation struct {
	SourceInfo SourceInfo       `json:"source_info"`
	Details    []map[string]any `json:"details,omitempty"`
	ID         string           `json:"id"`
}

// SourceInfo identifies the cited widget.
type SourceInfo struct {
	Type        string         `json:"type"`
	UUID        string         `json:"uuid,omitempty"`
	Origin      string         `json:"origin,omitempty"`
	WidgetID    string         `json:"widget_id,omitempty"`
	Name        string         `json:"name,omitempty"`
	Description string         `json:"description,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// NewMessageChunk builds a text event.
func NewMessageChunk(text string) *Event {
	return &Event{Name: EventMessageChunk, Data: MessageChunk{Delta: text}}
}

// NewGetWidgetData asks the dashboard to fetch the data of the given widgets
// with their current parameter values.
func NewGetWidgetData(widgets []Widget) *Event {
	sources := make([]DataSource, 0, len(widgets))
	for i := range widgets {
		w := &widgets[i]
		sources = append(sources, DataSource{
			WidgetUUID: w.UUID,
			Origin:     w.Origin,
			ID:         w.WidgetID,
			InputArgs:  w.CurrentArgs(),
		})
	}
	return newFunctionCall(FunctionGetWidgetData, sources)
}

// NewGetExtraWidgetData asks the dashboard for the data of extra widgets such
// as uploaded files.
func NewGetExtraWidgetData(widgets []Widget) *Event {
	ev := NewGetWidgetData(widgets)
	ev.Data.(*FunctionCall).Function = FunctionGetExtraWidgetData
	return ev
}

// NewAddWidget asks the dashboard to add a widget from origin's catalog.
func NewAddWidget(origin, widgetID string, inputArgs map[string]any) *Event {
	return newFunctionCall(FunctionAddWidget, []DataSource{{
		Origin:    origin,
		ID:        widgetID,
		InputArgs: nonNilArgs(inputArgs),
	}})
}

// NewUpdateWidget asks the dashboard to change the parameters of a widget.
func NewUpdateWidget(widgetUUID, origin, widgetID string, inputArgs map[string]any) *Event {
	return newFunctionCall(FunctionUpdateWidget, []updateDataSource{{
		WidgetUUID: widgetUUID,
		Origin:     origin,
		ID:         widgetID,
		InputArgs:  nonNilArgs(inputArgs),
	}})
}

func newFunctionCall(name string, sources any) *Event {
	return &Event{
		Name: EventFunctionCall,
		Data: &FunctionCall{
			Function:       name,
			InputArguments: map[string]any{"data_sources": sources},
		},
	}
}

func nonNilArgs(args map[string]any) map[string]any {
	if args == nil {
		return map[string]any{}
	}
	return args
}

// NewChart builds a chart artifact event.
func NewChart(chartType string, rows []map[string]any, xKey string, yKeys []string, name, description string) *Event {
	if rows == nil {
		rows = []map[string]any{}
	}
	return &Event{Name: EventMessageArtifact, Data: &Artifact{
		Type:        ArtifactChart,
		Name:        name,
		Description: description,
		UUID:        uuid.NewString(),
		Content:     rows,
		ChartParams: &ChartParams{ChartType: chartType, XKey: xKey, YKey: yKeys},
	}}
}

// NewTable builds a table artifact event.
func NewTable(rows []map[string]any, name, description string) *Event {
	if rows == nil {
		rows = []map[string]any{}
	}
	return &Event{Name: EventMessageArtifact, Data: &Artifact{
		Type:        ArtifactTable,
		Name:        name,
		Description: description,
		UUID:        uuid.NewString(),
		Content:     rows,
	}}
}

// Cite builds a citation of widget fetched with inputArgs. A non empty
// details map is attached as extra details.
func Cite(w *Widget, inputArgs, details map[string]any) Citation {
	c := Citation{
		SourceInfo: SourceInfo{
			Type:        "widget",
			UUID:        w.UUID,
			Origin:      w.Origin,
			WidgetID:    w.WidgetID,
			Name:        w.Name,
			Description: w.Description,
			Metadata:    map[string]any{"input_args": nonNilArgs(inputArgs)},
		},
		ID: uuid.NewString(),
	}
	if len(details) > 0 {
		c.Details = []map[string]any{details}
	}
	return c
}

// NewCitations builds the citation collection event.
func NewCitations(citations []Citation) *Event {
	return &Event{Name: EventCitationCollection, Data: &CitationCollection{Citations: citations}}
}
