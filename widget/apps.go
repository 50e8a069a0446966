//
// Tencent is pleased to support the open source community by making trpc-nexus-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nexus-agent is licensed under the Apache License Version 2.0.
//
//

package widget

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed apps.yaml
var appsYAML []byte

// Apps returns the dashboard app layouts as JSON.
func Apps() (json.RawMessage, error) {
	return appsJSON(appsYAML)
}

func appsJSON(src []byte) (json.RawMessage, error) {
	var doc any
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return nil, fmt.Errorf("apps: parse yaml: %w", err)
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("apps: encode json: %w", err)
	}
	return b, nil
}
