package datatables

import "go.uber.org/zap"

// Option configures a Runner.
type Option func(*Runner)

// WithLogger installs a structured logger. The Runner logs one debug line
// per executed request; the default logger is a nop.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) { r.log = l }
}

// WithConcurrentCounts issues the total and filtered counts in parallel.
// The two counts are independent store queries either way, so observable
// semantics do not change.
func WithConcurrentCounts() Option {
	return func(r *Runner) { r.concurrent = true }
}

// WithMaxLength caps the requested page size. Requests asking for more rows,
// or for an unbounded page (negative length), are clamped to n.
func WithMaxLength(n int64) Option {
	return func(r *Runner) { r.maxLength = n }
}
