//
// Tencent is pleased to support the open source community by making trpc-nexus-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nexus-agent is licensed under the Apache License Version 2.0.
//
//

// Command nexus-agent serves the viaNexus financial agent and widgets to
// OpenBB Workspace.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
