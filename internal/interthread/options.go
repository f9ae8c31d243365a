package interthread

import "github.com/prometheus/client_golang/prometheus"

// Releaser is implemented by elements that hold resources. Containers call
// Release on elements they discard when no release hook is configured.
type Releaser interface {
	Release()
}

type options struct {
	release func(any)
	gauge   prometheus.Gauge
	counter prometheus.Counter
}

// Option configures a container.
type Option func(*options)

// WithRelease sets the hook that receives every element the container
// discards instead of handing it to a reader.
func WithRelease[T any](fn func(T)) Option {
	return func(o *options) {
		o.release = func(v any) {
			t, _ := v.(T)
			fn(t)
		}
	}
}

// WithGauge reports the number of owned elements to g.
func WithGauge(g prometheus.Gauge) Option {
	return func(o *options) {
		o.gauge = g
	}
}

// WithReleaseCounter counts discarded elements in c.
func WithReleaseCounter(c prometheus.Counter) Option {
	return func(o *options) {
		o.counter = c
	}
}

func newOptions(opts []Option) options {
	o := options{release: defaultRelease}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func defaultRelease(v any) {
	if r, ok := v.(Releaser); ok {
		r.Release()
	}
}

func (o *options) setDepth(n int) {
	if o.gauge != nil {
		o.gauge.Set(float64(n))
	}
}

func releaseAll[T any](o *options, items []T) {
	for _, v := range items {
		o.release(v)
	}
	if o.counter != nil && len(items) > 0 {
		o.counter.Add(float64(len(items)))
	}
}
