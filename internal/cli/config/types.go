// Package config provides configuration management for the leapplan CLI.
//
// Values are layered with koanf, lowest to highest precedence: built-in
// defaults, leapplan.yaml, LEAPPLAN_* environment variables and explicitly
// set command-line flags.
package config

import (
	"fmt"
	"time"

	"github.com/leapstack-labs/leapplan/pkg/core"
)

// Config holds all CLI configuration options.
type Config struct {
	StatePath    string         `koanf:"state_path"`
	Verbose      bool           `koanf:"verbose"`
	OutputFormat string         `koanf:"output"`
	Target       TargetConfig   `koanf:"target"`
	Pool         PoolConfig     `koanf:"pool"`
	Executor     ExecutorConfig `koanf:"executor"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
}

// TargetConfig describes the database plans run against.
type TargetConfig struct {
	Type     string            `koanf:"type"`
	Host     string            `koanf:"host"`
	Port     int               `koanf:"port"`
	User     string            `koanf:"user"`
	Password string            `koanf:"password"`
	Database string            `koanf:"database"`
	Options  map[string]string `koanf:"options"`
}

// Credentials converts the target into pool credentials.
func (t TargetConfig) Credentials() core.Credentials {
	return core.Credentials{
		Adapter:  t.Type,
		User:     t.User,
		Password: t.Password,
		Host:     t.Host,
		Port:     t.Port,
		Database: t.Database,
		Options:  t.Options,
	}
}

// PoolConfig sizes the per-identity connection pool.
type PoolConfig struct {
	Size           int           `koanf:"size"`
	AcquireTimeout time.Duration `koanf:"acquire_timeout"`
	IdleTimeout    time.Duration `koanf:"idle_timeout"`
	MaxLifetime    time.Duration `koanf:"max_lifetime"`
}

// ExecutorConfig bounds statement execution.
type ExecutorConfig struct {
	MaxRows          int           `koanf:"max_rows"`
	StatementTimeout time.Duration `koanf:"statement_timeout"`
}

// Default configuration values.
const (
	DefaultStateFile      = ".leapplan/state.db"
	DefaultOutput         = "auto" // Auto-detect: TTY=table, non-TTY=markdown
	DefaultTargetType     = "mysql"
	DefaultAcquireTimeout = 30 * time.Second
	DefaultIdleTimeout    = 5 * time.Minute
	DefaultMaxLifetime    = 30 * time.Minute
)

// OutputFormats lists the accepted values of the output key.
var OutputFormats = []string{"auto", "table", "json", "csv", "md", "markdown", "yaml"}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Target.Type == "" {
		return fmt.Errorf("target.type is required")
	}
	if c.Pool.Size < 1 {
		return fmt.Errorf("pool.size must be at least 1, got %d", c.Pool.Size)
	}
	if c.Executor.MaxRows < 1 {
		return fmt.Errorf("executor.max_rows must be at least 1, got %d", c.Executor.MaxRows)
	}
	if c.Pool.AcquireTimeout < 0 || c.Executor.StatementTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}

	for _, f := range OutputFormats {
		if c.OutputFormat == f {
			return nil
		}
	}
	return fmt.Errorf("unknown output format %q\nHint: use one of %v", c.OutputFormat, OutputFormats)
}
