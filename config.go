/*
 * Copyright 2025 The RuleGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package routego

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rulego/routego/api/types"
	"github.com/rulego/routego/component/undertow"
	"github.com/rulego/routego/engine"
	"github.com/rulego/routego/utils/fs"
)

// EnvPrefix prefixes environment overrides, e.g. ROUTEGO_POOL_MAXWORKERS.
const EnvPrefix = "ROUTEGO"

// FileConfig is the file configuration of a route context.
//
// FileConfig 配置文件
type FileConfig struct {
	Logger struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"logger"`
	Pool struct {
		MaxWorkers int           `mapstructure:"maxWorkers"`
		MaxIdle    time.Duration `mapstructure:"maxIdle"`
	} `mapstructure:"pool"`
	// Properties replace ${name} placeholders in endpoint URIs.
	Properties map[string]string `mapstructure:"properties"`
	// Routes selects the YAML routes files: a file, a directory or a glob.
	Routes   string `mapstructure:"routes"`
	Undertow struct {
		AccessLogFile string `mapstructure:"accessLogFile"`
	} `mapstructure:"undertow"`
	Metrics struct {
		// Addr serves /metrics when set, e.g. :9100
		Addr string `mapstructure:"addr"`
	} `mapstructure:"metrics"`
}

// LoadConfig reads a yaml or json config file. An empty path reads only
// defaults and the environment.
func LoadConfig(path string) (*FileConfig, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("logger.level", "info")
	v.SetDefault("pool.maxWorkers", engine.DefaultMaxWorkers)
	v.SetDefault("pool.maxIdle", engine.DefaultMaxIdleWorkerDuration)
	v.SetDefault("routes", "")
	v.SetDefault("undertow.accessLogFile", "")
	v.SetDefault("metrics.addr", "")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	var c FileConfig
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if c.Properties == nil {
		c.Properties = make(map[string]string)
	}
	return &c, nil
}

// Options turns the file configuration into route context options.
func (c *FileConfig) Options() []types.Option {
	logger := types.DefaultLogger(c.Logger.Level)
	return []types.Option{
		types.WithLogger(logger),
		types.WithPool(engine.NewWorkerPool(c.Pool.MaxWorkers, c.Pool.MaxIdle, logger)),
		types.WithProperties(c.Properties),
	}
}

// NewFromConfig creates a route context from the file configuration and loads
// its routes file, if any.
func NewFromConfig(c *FileConfig, opts ...types.Option) (*RouteContext, error) {
	ctx := New(append(c.Options(), opts...)...)
	if c.Undertow.AccessLogFile != "" {
		if u, ok := ctx.Component(undertow.Scheme); ok {
			u.(*undertow.Component).AccessLogFile = c.Undertow.AccessLogFile
		}
	}
	if c.Routes == "" {
		return ctx, nil
	}
	files, err := fs.FindFiles(c.Routes)
	if err != nil {
		return nil, fmt.Errorf("find routes %s: %w", c.Routes, err)
	}
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read routes %s: %w", file, err)
		}
		if err = ctx.LoadRoutes(data); err != nil {
			return nil, fmt.Errorf("load routes %s: %w", file, err)
		}
	}
	return ctx, nil
}
