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
	"bytes"
	"encoding/json"
	"reflect"
	"strings"

	"trpc.group/trpc-go/trpc-nexus-agent/openbb"
)

const dataContextHeader = "Use the following data to answer the question:\n\n"

// toolDataContext joins the data items of a tool message. ok is false when
// the message only carries command results.
func toolDataContext(msg *openbb.Message) (string, bool) {
	var b strings.Builder
	b.WriteString(dataContextHeader)
	found := false
	for i := range msg.Data {
		for _, item := range msg.Data[i].Items {
			b.WriteString(item.Content)
			b.WriteString("\n---\n")
			found = true
		}
	}
	return b.String(), found
}

// collectCitations cites each primary widget the tool message fetched, once.
func collectCitations(req *openbb.QueryRequest, msg *openbb.Message) []openbb.Citation {
	sources, _ := msg.InputArguments["data_sources"].([]any)
	var (
		citations []openbb.Citation
		seen      = make(map[string]struct{})
	)
	for _, s := range sources {
		src, ok := s.(map[string]any)
		if !ok {
			continue
		}
		id, _ := src["widget_uuid"].(string)
		if _, dup := seen[id]; dup || id == "" {
			continue
		}
		w, ok := req.FindPrimaryWidget(id)
		if !ok {
			continue
		}
		seen[id] = struct{}{}
		args, _ := src["input_args"].(map[string]any)
		citations = append(citations, openbb.Cite(w, args, args))
	}
	return citations
}

// widgetContextBlock describes the dashboard to the agent so it can target
// widget updates. It is empty when the request carries no widgets or context.
func widgetContextBlock(req *openbb.QueryRequest) string {
	var b strings.Builder
	if primary := req.PrimaryWidgets(); len(primary) > 0 {
		b.WriteString("\n\n## Available Widgets for Updates\n")
		for _, w := range primary {
			b.WriteString("\n### " + w.Name + "\n")
			b.WriteString("- UUID: `" + w.UUID + "`\n")
			b.WriteString("- Origin: `" + w.Origin + "`\n")
			b.WriteString("- Widget ID: `" + w.WidgetID + "`\n")
			if len(w.Params) > 0 {
				b.WriteString("- Current Parameters: `" + encodeParams(setParams(w.Params, false)) + "`\n")
			}
		}
	}
	if secondary := req.SecondaryWidgets(); len(secondary) > 0 {
		b.WriteString("\n\n## Other Dashboard Widgets\n")
		for _, w := range secondary {
			b.WriteString("\nDashboard Widget: " + w.Name + "\n")
			if params := setParams(w.Params, true); len(params) > 0 {
				b.WriteString("Parameters: " + encodeParams(params) + "\n")
			}
		}
	}
	if data := requestContext(req.Context); data != "" {
		b.WriteString("\n\nWidget Data:\n" + data + "\n")
	}
	return b.String()
}

// setParams keeps the parameters that carry a value. With withDefaults a
// missing current value falls back to the default one.
func setParams(params []openbb.WidgetParam, withDefaults bool) map[string]any {
	out := make(map[string]any, len(params))
	for _, p := range params {
		v := p.CurrentValue
		if withDefaults {
			if v == nil {
				v = p.DefaultValue
			}
			if v != nil {
				out[p.Name] = v
			}
			continue
		}
		if !isEmptyValue(v) {
			out[p.Name] = v
		}
	}
	return out
}

func encodeParams(params map[string]any) string {
	b, err := json.Marshal(params)
	if err != nil {
		logger.Warnf("encode widget params: %v", err)
		return "{}"
	}
	return string(b)
}

func requestContext(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	switch string(trimmed) {
	case "", "null", "{}", "[]", `""`:
		return ""
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, trimmed, "", "  "); err != nil {
		return string(trimmed)
	}
	return buf.String()
}

// isEmptyValue reports JSON values that read as unset: null, false, zero,
// the empty string and empty collections.
func isEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Map:
		return rv.Len() == 0
	case reflect.Bool:
		return !rv.Bool()
	case reflect.Float32, reflect.Float64:
		return rv.Float() == 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() == 0
	}
	return false
}
