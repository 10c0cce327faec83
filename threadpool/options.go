// File: threadpool/options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package threadpool

import (
	"go.uber.org/zap"

	"github.com/momentics/taskpool/api"
)

// Option configures a Pool at construction.
type Option func(*Pool)

// WithQueue supplies the task queue the pool drains. When omitted a
// default bin queue sized to the worker count is constructed.
func WithQueue(q api.TaskQueue) Option {
	return func(p *Pool) { p.queue = q }
}

// WithAffinity enables CPU pinning. fn maps a worker index to the logical
// CPU the worker should pin itself to. Pinning failures are logged and
// the worker proceeds unpinned.
func WithAffinity(fn func(workerIndex int) int) Option {
	return func(p *Pool) { p.affinityFn = fn }
}

// WithLogger overrides the verbosity-derived logger.
func WithLogger(log *zap.Logger) Option {
	return func(p *Pool) { p.log = log }
}

// WithInitFunc sets the per-worker initializer, invoked once on each
// worker before its run loop.
func WithInitFunc(fn func()) Option {
	return func(p *Pool) { p.initFn = fn }
}

// newLogger builds a logger from the PTL_VERBOSE level: silent at 0,
// structured info at 1, development debug above that.
func newLogger(verbose int) *zap.Logger {
	var (
		log *zap.Logger
		err error
	)
	switch {
	case verbose <= 0:
		return zap.NewNop()
	case verbose == 1:
		log, err = zap.NewProduction()
	default:
		log, err = zap.NewDevelopment()
	}
	if err != nil {
		return zap.NewNop()
	}
	return log
}
