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

// Package engine turns route definitions into processors and provides the
// runtime pieces they need: unit of work, pipeline, async dispatch, wire tap,
// onCompletion and the bean registry.
//
// Package engine 路由运行时：工作单元、管道、异步分发、窃听器、完成回调和Bean注册表
package engine

import (
	"runtime"
	"time"

	"github.com/rulego/routego/api/types"
	"github.com/rulego/routego/typeconv"
	"github.com/rulego/routego/utils/pool"
)

// DefaultMaxWorkers is the worker pool size used when Config.Pool is not set.
var DefaultMaxWorkers = runtime.GOMAXPROCS(0) * 256

// DefaultMaxIdleWorkerDuration idle workers are cleaned up after this duration.
var DefaultMaxIdleWorkerDuration = pool.DefaultMaxIdleWorkerDuration

// NewConfig creates a config with every runtime collaborator set.
// Options take precedence over the defaults.
//
// NewConfig 创建配置，未设置的协作者使用默认值
func NewConfig(opts ...types.Option) types.Config {
	c := types.NewConfig(opts...)
	if c.Pool == nil {
		c.Pool = NewWorkerPool(DefaultMaxWorkers, DefaultMaxIdleWorkerDuration, c.Logger)
	}
	if c.TypeConverter == nil {
		c.TypeConverter = typeconv.Default()
	}
	if c.ExceptionHandler == nil {
		c.ExceptionHandler = &LoggingExceptionHandler{Logger: c.Logger}
	}
	if c.UnitOfWorkFactory == nil {
		c.UnitOfWorkFactory = NewUnitOfWork
	}
	return c
}

// NewWorkerPool creates and starts a worker pool whose panics are logged.
// Workers idle for maxIdle are cleaned up.
func NewWorkerPool(maxWorkers int, maxIdle time.Duration, logger types.Logger) *pool.WorkerPool {
	wp := &pool.WorkerPool{
		MaxWorkersCount:       maxWorkers,
		MaxIdleWorkerDuration: maxIdle,
		PanicHandler: func(v interface{}) {
			if logger != nil {
				logger.Printf("worker panic: %v", v)
			}
		},
	}
	wp.Start()
	return wp
}
