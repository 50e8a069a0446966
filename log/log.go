//
// Tencent is pleased to support the open source community by making trpc-nexus-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nexus-agent is licensed under the Apache License Version 2.0.
//
//

// Package log provides the zap backed logging helpers used across the agent.
//
// A single global level applies to every logger. Components obtain their own
// named logger through Named, and the level of a named logger can be
// overridden independently with SetModuleLevels.
package log

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log level constants.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
	LevelFatal = "fatal"
)

var (
	zapLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)

	overridesMu sync.RWMutex
	overrides   = map[string]zapcore.Level{}
)

// Default is the process wide logger. Tests may replace it with any
// implementation of Logger.
var Default Logger = newSugared("", zapLevel, 1)

// ContextDefault backs the *Context helpers. Its caller skip accounts for the
// extra function value indirection.
var ContextDefault Logger = newSugared("", zapLevel, 2)

// Logger is the logging surface used by every package in the module.
type Logger interface {
	// Debugf logs to DEBUG log. Arguments are handled in the manner of fmt.Printf.
	Debugf(format string, args ...any)
	// Infof logs to INFO log. Arguments are handled in the manner of fmt.Printf.
	Infof(format string, args ...any)
	// Warnf logs to WARNING log. Arguments are handled in the manner of fmt.Printf.
	Warnf(format string, args ...any)
	// Errorf logs to ERROR log. Arguments are handled in the manner of fmt.Printf.
	Errorf(format string, args ...any)
	// Fatalf logs to FATAL log and exits. Arguments are handled in the manner of fmt.Printf.
	Fatalf(format string, args ...any)
}

var encoderConfig = zapcore.EncoderConfig{
	TimeKey:        "ts",
	LevelKey:       "lvl",
	NameKey:        "name",
	CallerKey:      "caller",
	MessageKey:     "message",
	StacktraceKey:  "stacktrace",
	LineEnding:     zapcore.DefaultLineEnding,
	EncodeLevel:    zapcore.CapitalColorLevelEncoder,
	EncodeTime:     zapcore.RFC3339TimeEncoder,
	EncodeDuration: zapcore.SecondsDurationEncoder,
	EncodeCaller:   zapcore.ShortCallerEncoder,
}

func newSugared(name string, enabler zapcore.LevelEnabler, skip int) *zap.SugaredLogger {
	l := zap.New(
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.AddSync(os.Stdout),
			enabler,
		),
		zap.AddCaller(),
		zap.AddCallerSkip(skip),
	)
	if name != "" {
		l = l.Named(name)
	}
	return l.Sugar()
}

// ParseLevel maps a level name to a zap level. Besides the Level* constants
// it accepts "warning" and "critical" in any case. ok is false when the name
// is not recognized.
func ParseLevel(level string) (zapcore.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case LevelDebug:
		return zapcore.DebugLevel, true
	case LevelInfo:
		return zapcore.InfoLevel, true
	case LevelWarn, "warning":
		return zapcore.WarnLevel, true
	case LevelError:
		return zapcore.ErrorLevel, true
	case LevelFatal, "critical":
		return zapcore.FatalLevel, true
	default:
		return zapcore.InfoLevel, false
	}
}

// SetLevel sets the global log level. Unrecognized levels fall back to info.
func SetLevel(level string) {
	lvl, _ := ParseLevel(level)
	zapLevel.SetLevel(lvl)
}

// componentLevel enables a level for a named logger, honoring a module
// override when one is registered and the global level otherwise.
type componentLevel string

func (c componentLevel) Enabled(l zapcore.Level) bool {
	overridesMu.RLock()
	lvl, ok := overrides[string(c)]
	overridesMu.RUnlock()
	if ok {
		return l >= lvl
	}
	return zapLevel.Enabled(l)
}

// Named returns a logger tagged with the component name. Its level follows
// the global level unless SetModuleLevels registered an override for name.
func Named(name string) Logger {
	return newSugared(name, componentLevel(name), 1)
}

// SetModuleLevels parses a comma separated list of name:level pairs such as
// "backend:info,marketdata:warn" and replaces the current module overrides.
// Well formed entries are applied even when others are rejected; the returned
// error lists the rejected ones.
func SetModuleLevels(levels string) error {
	parsed := make(map[string]zapcore.Level)
	var bad []string
	for _, entry := range strings.Split(levels, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, level, found := strings.Cut(entry, ":")
		name = strings.TrimSpace(name)
		lvl, ok := ParseLevel(level)
		if !found || name == "" || !ok {
			bad = append(bad, entry)
			continue
		}
		parsed[name] = lvl
	}
	overridesMu.Lock()
	overrides = parsed
	overridesMu.Unlock()
	if len(bad) > 0 {
		return fmt.Errorf("log: invalid module levels %q", bad)
	}
	return nil
}

// Debugf logs to DEBUG log. Arguments are handled in the manner of fmt.Printf.
func Debugf(format string, args ...any) {
	Default.Debugf(format, args...)
}

// Infof logs to INFO log. Arguments are handled in the manner of fmt.Printf.
func Infof(format string, args ...any) {
	Default.Infof(format, args...)
}

// Warnf logs to WARNING log. Arguments are handled in the manner of fmt.Printf.
func Warnf(format string, args ...any) {
	Default.Warnf(format, args...)
}

// Errorf logs to ERROR log. Arguments are handled in the manner of fmt.Printf.
func Errorf(format string, args ...any) {
	Default.Errorf(format, args...)
}

// Fatalf logs to FATAL log and exits. Arguments are handled in the manner of fmt.Printf.
func Fatalf(format string, args ...any) {
	Default.Fatalf(format, args...)
}

// DebugfContext logs to DEBUG log with context.
// By default, context is ignored and logs are delegated to ContextDefault.
var DebugfContext = func(_ context.Context, format string, args ...any) {
	ContextDefault.Debugf(format, args...)
}

// InfofContext logs to INFO log with context.
var InfofContext = func(_ context.Context, format string, args ...any) {
	ContextDefault.Infof(format, args...)
}

// WarnfContext logs to WARNING log with context.
var WarnfContext = func(_ context.Context, format string, args ...any) {
	ContextDefault.Warnf(format, args...)
}

// ErrorfContext logs to ERROR log with context.
var ErrorfContext = func(_ context.Context, format string, args ...any) {
	ContextDefault.Errorf(format, args...)
}
