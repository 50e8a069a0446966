//
// Tencent is pleased to support the open source community by making trpc-nexus-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nexus-agent is licensed under the Apache License Version 2.0.
//
//

package main

import (
	"github.com/spf13/cobra"

	"trpc.group/trpc-go/trpc-nexus-agent/log"
	"trpc.group/trpc-go/trpc-nexus-agent/widget"
)

var version = "v0.1.0"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "nexus-agent",
		Short: "OpenBB Workspace agent and widget backend for viaNexus",
		Long: `nexus-agent bridges OpenBB Workspace and the viaNexus financial agent.

It streams agent answers to the dashboard as server sent events, turns agent
artifacts into charts, tables and widget directives, and serves viaNexus
market data widgets.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newWidgetsCmd())
	return root
}

func newWidgetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "widgets",
		Short: "Print the widget catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := widget.NewDefaultRegistry(nil)
			_, err := cmd.OutOrStdout().Write([]byte(reg.FormatList() + "\n"))
			if err != nil {
				log.Errorf("write catalog: %v", err)
			}
			return err
		},
	}
}
