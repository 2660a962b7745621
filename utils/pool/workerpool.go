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


// Package pool provides the worker pool that runs blocking work off the
// server I/O goroutines: exchange processing, response writing, wire taps and
// asynchronous routing.
//
// The FILO idle stack follows fasthttp's workerpool.go
// (https://github.com/valyala/fasthttp/blob/master/workerpool.go),
// taking functions instead of connections and recovering task panics.
package pool

import (
	"errors"
	"sort"
	"sync"
	"time"
)

// DefaultMaxIdleWorkerDuration is used when MaxIdleWorkerDuration is not set.
const DefaultMaxIdleWorkerDuration = 10 * time.Second

// ErrNoIdleWorkers is returned by Submit when every worker is busy and
// MaxWorkersCount has been reached, or after Stop.
var ErrNoIdleWorkers = errors.New("no idle workers")

// WorkerPool runs submitted functions on a bounded set of goroutines.
// The most recently parked worker serves the next function and workers idle
// for longer than MaxIdleWorkerDuration exit.
//
// WorkerPool 使用有限数量的协程执行提交的函数。
// 最近空闲的协程优先执行下一个任务，空闲超过MaxIdleWorkerDuration的协程会退出。
//
//	pool := &WorkerPool{MaxWorkersCount: 100}
//	pool.Start()
//	defer pool.Stop()
//	err := pool.Submit(func() {})
type WorkerPool struct {
	// MaxWorkersCount is the maximum number of workers that can be created.
	MaxWorkersCount int

	// MaxIdleWorkerDuration is how long a worker may stay idle before it is
	// cleaned up.
	MaxIdleWorkerDuration time.Duration

	// PanicHandler receives values recovered from panicking tasks.
	PanicHandler func(v interface{})

	mu      sync.Mutex
	idle    []*worker // oldest first
	workers int
	busy    int
	stopped bool

	startOnce sync.Once
	done      chan struct{}
}

type worker struct {
	tasks     chan func()
	idleSince time.Time
}

// Start starts the idle worker reaper. Calling it more than once is a no-op.
func (wp *WorkerPool) Start() {
	wp.startOnce.Do(func() {
		done := make(chan struct{})
		wp.mu.Lock()
		wp.done = done
		wp.mu.Unlock()
		go wp.reap(done)
	})
}

// Stop stops accepting tasks and terminates idle workers.
// Busy workers exit after their current task.
func (wp *WorkerPool) Stop() {
	wp.mu.Lock()
	if wp.stopped {
		wp.mu.Unlock()
		return
	}
	wp.stopped = true
	if wp.done != nil {
		close(wp.done)
	}
	idle := wp.idle
	wp.idle = nil
	wp.mu.Unlock()

	for _, w := range idle {
		close(w.tasks)
	}
}

// Release is an alias for Stop, it satisfies types.Pool.
func (wp *WorkerPool) Release() {
	wp.Stop()
}

// Busy returns the number of workers currently running a task.
func (wp *WorkerPool) Busy() int {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	return wp.busy
}

// Submit hands fn to an idle worker, starting a new one when under the limit.
func (wp *WorkerPool) Submit(fn func()) error {
	var w *worker
	spawn := false

	wp.mu.Lock()
	if wp.stopped {
		wp.mu.Unlock()
		return ErrNoIdleWorkers
	}
	if n := len(wp.idle); n > 0 {
		w = wp.idle[n-1]
		wp.idle[n-1] = nil
		wp.idle = wp.idle[:n-1]
	} else if wp.workers < wp.MaxWorkersCount {
		wp.workers++
		w = &worker{tasks: make(chan func(), 1)}
		spawn = true
	} else {
		wp.mu.Unlock()
		return ErrNoIdleWorkers
	}
	wp.busy++
	wp.mu.Unlock()

	if spawn {
		go wp.loop(w)
	}
	w.tasks <- fn
	return nil
}

func (wp *WorkerPool) maxIdle() time.Duration {
	if wp.MaxIdleWorkerDuration <= 0 {
		return DefaultMaxIdleWorkerDuration
	}
	return wp.MaxIdleWorkerDuration
}

func (wp *WorkerPool) reap(done chan struct{}) {
	ticker := time.NewTicker(wp.maxIdle())
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case now := <-ticker.C:
			wp.evict(now.Add(-wp.maxIdle()))
		}
	}
}

// evict stops the workers parked before deadline.
func (wp *WorkerPool) evict(deadline time.Time) {
	wp.mu.Lock()
	n := sort.Search(len(wp.idle), func(i int) bool {
		return !wp.idle[i].idleSince.Before(deadline)
	})
	if n == 0 {
		wp.mu.Unlock()
		return
	}
	expired := make([]*worker, n)
	copy(expired, wp.idle[:n])
	remaining := copy(wp.idle, wp.idle[n:])
	clear(wp.idle[remaining:])
	wp.idle = wp.idle[:remaining]
	wp.mu.Unlock()

	for _, w := range expired {
		close(w.tasks)
	}
}

func (wp *WorkerPool) loop(w *worker) {
	defer func() {
		wp.mu.Lock()
		wp.workers--
		wp.mu.Unlock()
	}()
	for fn := range w.tasks {
		wp.run(fn)
		if !wp.park(w) {
			return
		}
	}
}

// park returns w to the idle stack, or reports false once the pool is stopped.
func (wp *WorkerPool) park(w *worker) bool {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	wp.busy--
	if wp.stopped {
		return false
	}
	w.idleSince = time.Now()
	wp.idle = append(wp.idle, w)
	return true
}

func (wp *WorkerPool) run(fn func()) {
	defer func() {
		if e := recover(); e != nil && wp.PanicHandler != nil {
			wp.PanicHandler(e)
		}
	}()
	fn()
}
