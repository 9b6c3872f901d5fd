package graph

import "github.com/deppcyan/agent-service/graph/emit"

// executorConfig holds the Executor's configurable collaborators. Zero value
// of each field has a safe default applied in NewExecutor.
type executorConfig struct {
	emitter    emit.Emitter
	metrics    *PrometheusMetrics
	maxWorkers int // ForEach default max_workers when parallel=true and unset
}

// Option configures an Executor. Follows the functional-options idiom: each
// Option mutates the config in place and returns no error, since none of the
// current options can fail validation at construction time.
type Option func(*executorConfig)

// WithEmitter attaches an observability sink. Nil is equivalent to
// emit.NewNullEmitter().
func WithEmitter(e emit.Emitter) Option {
	return func(c *executorConfig) {
		if e == nil {
			e = emit.NewNullEmitter()
		}
		c.emitter = e
	}
}

// WithMetrics attaches Prometheus instrumentation.
func WithMetrics(m *PrometheusMetrics) Option {
	return func(c *executorConfig) { c.metrics = m }
}

// WithDefaultMaxWorkers overrides the default ForEach concurrency cap applied
// when a ForEach node has parallel=true but no explicit max_workers. The
// suggested default is min(len(items), 64).
func WithDefaultMaxWorkers(n int) Option {
	return func(c *executorConfig) {
		if n > 0 {
			c.maxWorkers = n
		}
	}
}

// defaultMaxWorkers returns the default ForEach concurrency cap applied
// when a ForEach node has parallel=true but no explicit max_workers.
func (c *executorConfig) defaultMaxWorkers() int {
	return c.maxWorkers
}

func defaultExecutorConfig() *executorConfig {
	return &executorConfig{
		emitter:    emit.NewNullEmitter(),
		maxWorkers: 64,
	}
}
