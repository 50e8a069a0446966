//
// Tencent is pleased to support the open source community by making trpc-nexus-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nexus-agent is licensed under the Apache License Version 2.0.
//
//

package widget

// Metadata is the widgets.json description of a widget.
type Metadata struct {
	Name            string      `json:"name"`
	Description     string      `json:"description"`
	Category        string      `json:"category,omitempty"`
	Type            string      `json:"type"`
	Endpoint        string      `json:"endpoint"`
	RefetchInterval int         `json:"refetchInterval,omitempty"`
	GridData        GridData    `json:"gridData"`
	Raw             bool        `json:"raw,omitempty"`
	Source          string      `json:"source,omitempty"`
	Params          []Param     `json:"params,omitempty"`
	Data            *DataConfig `json:"data,omitempty"`
}

// GridData is the default widget size on the dashboard grid.
type GridData struct {
	W int `json:"w"`
	H int `json:"h"`
}

// Param describes a widget input.
type Param struct {
	ParamName   string `json:"paramName"`
	Label       string `json:"label"`
	Type        string `json:"type"`
	Value       any    `json:"value"`
	Description string `json:"description,omitempty"`
	MultiSelect bool   `json:"multiSelect,omitempty"`
}

// DataConfig holds rendering options.
type DataConfig struct {
	Table *TableConfig `json:"table,omitempty"`
}

// TableConfig lists the table columns.
type TableConfig struct {
	ColumnsDefs []Column `json:"columnsDefs"`
}

// Column is a table column definition.
type Column struct {
	Field        string `json:"field"`
	HeaderName   string `json:"headerName"`
	CellDataType string `json:"cellDataType,omitempty"`
	Width        int    `json:"width,omitempty"`
	Pinned       string `json:"pinned,omitempty"`
	Hide         bool   `json:"hide,omitempty"`
	FormatterFn  string `json:"formatterFn,omitempty"`
	RenderFn     string `json:"renderFn,omitempty"`
}
