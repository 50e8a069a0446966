//
// Tencent is pleased to support the open source community by making trpc-nexus-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nexus-agent is licensed under the Apache License Version 2.0.
//
//

// Package config loads the agent settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Session store kinds.
const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// Config holds every tunable of the process.
type Config struct {
	FinancialAgentURL string `env:"FINANCIAL_AGENT_URL" envDefault:"https://financial-chat-agent-857389207619.us-central1.run.app"`
	AgentName         string `env:"AGENT_NAME" envDefault:"viaNexus Financial Agent"`
	AgentDescription  string `env:"AGENT_DESCRIPTION" envDefault:"A financial assistant powered by viaNexus with access to market data, analytics, and visualization capabilities."`
	Environment       string `env:"ENVIRONMENT" envDefault:"production"`

	ViaNexusAPIKey  string `env:"VIANEXUS_API_KEY" envDefault:"RETRIEVE_FROM_ENV"`
	ViaNexusBaseURL string `env:"VIANEXUS_BASE_URL" envDefault:"https://api.blueskyapi.com/v1"`

	LogLevel        string `env:"LOG_LEVEL" envDefault:"debug"`
	ModuleLogLevels string `env:"MODULE_LOG_LEVELS" envDefault:"marketdata:warn,backend:warn"`

	Host string `env:"HOST" envDefault:"0.0.0.0"`
	Port int    `env:"PORT" envDefault:"8001"`

	SessionStore      string        `env:"SESSION_STORE" envDefault:"memory"`
	SessionRedisURL   string        `env:"SESSION_REDIS_URL"`
	SessionTTL        time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	SessionMaxEntries int           `env:"SESSION_MAX_ENTRIES" envDefault:"10000"`

	RunnerPoolSize int `env:"RUNNER_POOL_SIZE" envDefault:"64"`

	MetricsEnabled  bool   `env:"METRICS_ENABLED" envDefault:"false"`
	MetricsProtocol string `env:"METRICS_PROTOCOL" envDefault:"grpc"`
	MetricsEndpoint string `env:"METRICS_ENDPOINT"`
}

// Load reads the given .env files (missing files are ignored; with no names
// ".env" in the working directory is tried) and then parses the environment.
// Variables already present in the environment win over .env values.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	switch c.SessionStore {
	case SessionStoreMemory:
	case SessionStoreRedis:
		if c.SessionRedisURL == "" {
			return errors.New("config: SESSION_REDIS_URL is required when SESSION_STORE=redis")
		}
	default:
		return fmt.Errorf("config: unknown SESSION_STORE %q", c.SessionStore)
	}
	if c.RunnerPoolSize <= 0 {
		return fmt.Errorf("config: RUNNER_POOL_SIZE must be positive, got %d", c.RunnerPoolSize)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: PORT out of range: %d", c.Port)
	}
	if c.SessionTTL < 0 {
		return fmt.Errorf("config: SESSION_TTL must not be negative, got %s", c.SessionTTL)
	}
	if c.FinancialAgentURL == "" {
		return errors.New("config: FINANCIAL_AGENT_URL is empty")
	}
	return nil
}

// IsDevelopment reports whether the process runs in a development environment.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, "development")
}

// Addr is the listen address built from Host and Port.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
