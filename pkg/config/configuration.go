// Copyright 2024 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/matrixorigin/primcoll/pkg/common/moerr"
	"github.com/matrixorigin/primcoll/pkg/container/hashtable"
	"github.com/matrixorigin/primcoll/pkg/logutil"
)

type ConfigurationKeyType int

const (
	ConfigKey ConfigurationKeyType = 1
)

const (
	defaultLogLevel    = "info"
	defaultLogFormat   = "console"
	defaultWorkers     = 4
	defaultOps         = 100000
	defaultKeySpace    = 1 << 12
	defaultMaxCapacity = 256
	defaultSeed        = 20240101
)

// Config is the configuration of the primcoll command.
type Config struct {
	Log         logutil.LogConfig `toml:"log"`
	Collections CollectionsConfig `toml:"collections"`
	Stress      StressConfig      `toml:"stress"`
}

// CollectionsConfig holds defaults for collections created by the command.
type CollectionsConfig struct {
	// InitialCapacity is the number of entries a new collection holds
	// before its first resize.
	InitialCapacity int `toml:"initial-capacity"`
	// LoadFactor is the fill ratio at which hash tables double, in (0, 1).
	LoadFactor float32 `toml:"load-factor"`
	// Seed seeds cuckoo eviction and the stress workload.
	Seed uint64 `toml:"seed"`
	// AllocateIterators hands out a new iterator per request instead of
	// reusing the two pooled ones.
	AllocateIterators bool `toml:"allocate-iterators"`
}

// StressConfig drives the randomized stress run.
type StressConfig struct {
	Workers int `toml:"workers"`
	// Ops is the number of operations every worker performs.
	Ops int `toml:"ops"`
	// KeySpace bounds the keys drawn by workers to [-KeySpace/2, KeySpace/2).
	KeySpace int `toml:"key-space"`
	// MaxCapacity bounds the eviction maps.
	MaxCapacity int `toml:"max-capacity"`
}

// LoadConfig decodes the TOML file at path and fills unset values.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, moerr.NewBadConfigNoCtx("decode %s: %v", path, err)
	}
	cfg.FillDefaults()
	return cfg, nil
}

// Default returns a config with every value at its default.
func Default() *Config {
	cfg := &Config{}
	cfg.FillDefaults()
	return cfg
}

// FillDefaults sets every zero value to its default.
func (c *Config) FillDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = defaultLogFormat
	}
	if c.Collections.InitialCapacity == 0 {
		c.Collections.InitialCapacity = hashtable.DefaultCapacity
	}
	if c.Collections.LoadFactor == 0 {
		c.Collections.LoadFactor = hashtable.DefaultLoadFactor
	}
	if c.Collections.Seed == 0 {
		c.Collections.Seed = defaultSeed
	}
	if c.Stress.Workers == 0 {
		c.Stress.Workers = defaultWorkers
	}
	if c.Stress.Ops == 0 {
		c.Stress.Ops = defaultOps
	}
	if c.Stress.KeySpace == 0 {
		c.Stress.KeySpace = defaultKeySpace
	}
	if c.Stress.MaxCapacity == 0 {
		c.Stress.MaxCapacity = defaultMaxCapacity
	}
}

func (c *Config) Validate() error {
	switch c.Log.Format {
	case "console", "json":
	default:
		return moerr.NewBadConfigNoCtx("log format %q, want console or json", c.Log.Format)
	}
	if c.Collections.InitialCapacity < 0 {
		return moerr.NewBadConfigNoCtx("collections.initial-capacity %d is negative", c.Collections.InitialCapacity)
	}
	if lf := c.Collections.LoadFactor; lf <= 0 || lf >= 1 {
		return moerr.NewBadConfigNoCtx("collections.load-factor %v is not in (0, 1)", lf)
	}
	if c.Stress.Workers <= 0 {
		return moerr.NewBadConfigNoCtx("stress.workers %d must be positive", c.Stress.Workers)
	}
	if c.Stress.Ops < 0 {
		return moerr.NewBadConfigNoCtx("stress.ops %d is negative", c.Stress.Ops)
	}
	if c.Stress.KeySpace < 2 {
		return moerr.NewBadConfigNoCtx("stress.key-space %d must be at least 2", c.Stress.KeySpace)
	}
	if c.Stress.MaxCapacity <= 0 {
		return moerr.NewBadConfigNoCtx("stress.max-capacity %d must be positive", c.Stress.MaxCapacity)
	}
	return nil
}

// Encode writes cfg as TOML.
func Encode(w io.Writer, cfg *Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}

// WriteFile writes cfg as TOML to path, or to stdout if path is empty.
func WriteFile(path string, cfg *Config) error {
	if path == "" {
		return Encode(os.Stdout, cfg)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err = Encode(f, cfg); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// NewContext returns a context carrying cfg.
func NewContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, ConfigKey, cfg)
}

// GetConfig gets the configuration from the context.
func GetConfig(ctx context.Context) *Config {
	cfg, ok := ctx.Value(ConfigKey).(*Config)
	if !ok || cfg == nil {
		panic("config is not set in context")
	}
	return cfg
}
