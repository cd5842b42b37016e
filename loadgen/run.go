package loadgen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/vearutop/dynhist-go"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// ErrInterrupted is returned when run is stopped by context cancellation.
var ErrInterrupted = errors.New("interrupted")

// Progress renders live status of a run.
type Progress interface {
	Update(status string)
	Close()
}

// Observer is optionally implemented by Progress to receive every datapoint.
type Observer interface {
	Observe(dp Datapoint)
}

// Result describes a finished run.
type Result struct {
	// Bodies has trimmed response bodies by original query index.
	Bodies     []string
	Datapoints []Datapoint
	Elapsed    time.Duration
	QPS        float64
	Stable     bool

	Slow          int64
	SlowThreshold time.Duration

	RoundTrip        *dynhist.Collector
	RoundTripPrecise *dynhist.Collector
}

// PrintLatency prints request latency distribution.
func (r Result) PrintLatency(w io.Writer) {
	if r.RoundTrip == nil || r.RoundTrip.Count == 0 {
		return
	}

	_, _ = fmt.Fprintln(w, "Request latency distribution in ms:")
	_, _ = fmt.Fprintln(w, r.RoundTrip.String())
	_, _ = fmt.Fprintln(w, "Request latency percentiles:")
	_, _ = fmt.Fprintf(w, "99%%: %.2fms\n", r.RoundTripPrecise.Percentile(99))
	_, _ = fmt.Fprintf(w, "95%%: %.2fms\n", r.RoundTripPrecise.Percentile(95))
	_, _ = fmt.Fprintf(w, "90%%: %.2fms\n", r.RoundTripPrecise.Percentile(90))
	_, _ = fmt.Fprintf(w, "50%%: %.2fms\n\n", r.RoundTripPrecise.Percentile(50))
	_, _ = fmt.Fprintln(w, "Requests with latency more than "+r.SlowThreshold.String()+":", r.Slow)
}

type runner struct {
	bodies  []string
	order   []int
	results []string
	jp      JobProducer
	d       *Dispatcher
	rl      *rate.Limiter

	active atomic.Int64
	failed atomic.Bool
	slow   atomic.Int64
	err    error

	slowThreshold    time.Duration
	roundTrip        *dynhist.Collector
	roundTripPrecise *dynhist.Collector
}

// Run sends every body once using a fixed pool of workers traversing bodies in order.
//
// Response of bodies[i] is stored at Result.Bodies[i] regardless of traversal order.
// First failure stops the run and is returned, progress is sampled on the calling goroutine.
func Run(ctx context.Context, lf Flags, bodies []string, order []int, jp JobProducer, progress Progress) (Result, error) {
	lf.Prepare()

	if lf.Threads == 0 {
		return Result{}, errors.New("number of threads must be positive")
	}

	if len(order) != len(bodies) {
		return Result{}, fmt.Errorf("traversal order has %d items for %d bodies", len(order), len(bodies))
	}

	n := len(bodies)
	threads := int(lf.Threads)

	r := &runner{
		bodies:           bodies,
		order:            order,
		results:          make([]string, n),
		jp:               jp,
		d:                NewDispatcher(n),
		slowThreshold:    lf.SlowResponse,
		roundTrip:        &dynhist.Collector{BucketsLimit: 10, WeightFunc: dynhist.LatencyWidth},
		roundTripPrecise: &dynhist.Collector{BucketsLimit: 100, WeightFunc: dynhist.LatencyWidth},
	}

	if lf.RateLimit > 0 {
		r.rl = rate.NewLimiter(rate.Limit(lf.RateLimit), threads)
	}

	observer, _ := progress.(Observer)
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	for t := 0; t < threads; t++ {
		g.Go(func() error {
			return r.work(gctx)
		})
	}

	var datapoints []Datapoint

	for r.d.Claimed() < n && !r.failed.Load() {
		dp := Datapoint{
			Elapsed: time.Since(start),
			Claimed: min(r.d.Claimed(), n),
			Active:  int(r.active.Load()),
		}
		datapoints = append(datapoints, dp)

		if observer != nil {
			observer.Observe(dp)
		}

		select {
		case <-time.After(lf.SampleInterval):
		case <-ctx.Done():
			r.fail(ErrInterrupted)
		}

		if r.failed.Load() {
			break
		}

		qps, ok := SteadyStateQPS(datapoints, threads)
		progress.Update(ProgressReport(n, dp) + ", " + QPSReport(qps, ok) + ".")
	}

	_ = g.Wait() // r.err holds the first error.

	res := Result{
		Bodies:           r.results,
		Datapoints:       datapoints,
		Elapsed:          time.Since(start),
		Slow:             r.slow.Load(),
		SlowThreshold:    r.slowThreshold,
		RoundTrip:        r.roundTrip,
		RoundTripPrecise: r.roundTripPrecise,
	}
	res.QPS, res.Stable = SteadyStateQPS(datapoints, threads)

	return res, r.err
}

func (r *runner) work(ctx context.Context) (err error) {
	r.active.Add(1)
	defer r.active.Add(-1)

	defer func() {
		if p := recover(); p != nil {
			err = r.fail(fmt.Errorf("panic: %v", p))
		}
	}()

	for !r.failed.Load() {
		pos, ok := r.d.ClaimNext()
		if !ok {
			return nil
		}

		i := r.order[pos]

		if r.rl != nil {
			if err := r.rl.Wait(ctx); err != nil {
				return r.fail(ErrInterrupted)
			}
		}

		start := time.Now()

		body, err := r.jp.Job(ctx, i, r.bodies[i])
		if err != nil {
			if ctx.Err() != nil {
				return r.fail(ErrInterrupted)
			}

			return r.fail(err)
		}

		elapsed := time.Since(start)
		ms := elapsed.Seconds() * 1000

		if elapsed >= r.slowThreshold {
			r.slow.Add(1)
		}

		r.roundTrip.Add(ms)
		r.roundTripPrecise.Add(ms)

		r.results[i] = strings.TrimSpace(body)
	}

	return nil
}

// fail latches the first error of the run and stops dispatching, later errors are dropped.
func (r *runner) fail(err error) error {
	if !r.failed.CompareAndSwap(false, true) {
		return nil
	}

	r.d.Exhaust()

	switch {
	case errors.Is(err, ErrInterrupted):
		r.err = err
	case IsTransport(err):
		r.err = fmt.Errorf("request failed: %w", err)
	default:
		r.err = fmt.Errorf("unexpected failure: %w", err)
	}

	return r.err
}
