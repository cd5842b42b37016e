package perftest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/vearutop/dperf/blob"
	"github.com/vearutop/dperf/fasthttp"
	"github.com/vearutop/dperf/golden"
	"github.com/vearutop/dperf/loadgen"
	"github.com/vearutop/dperf/nethttp"
	"github.com/vearutop/dperf/queries"
	"github.com/vearutop/dperf/report"
)

// Process exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitStartup = -1
)

type jobProducer interface {
	loadgen.JobProducer
	RequestCounts() map[string]int
	Print(w io.Writer)
}

// discarder is implemented by progress renderers that can drop status of a failed run.
type discarder interface {
	Discard()
}

type runner struct {
	lf    loadgen.Flags
	f     Flags
	files *blob.Store
	out   io.Writer
	log   *logrus.Logger
}

func newLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	return l
}

// Run replays queries and returns process exit code.
func Run(ctx context.Context, lf loadgen.Flags, f Flags, files *blob.Store) int {
	lf.Prepare()

	if files == nil {
		files = &blob.Store{}
	}

	r := runner{
		lf:    lf,
		f:     f,
		files: files,
		out:   lf.Output,
		log:   newLogger(lf.Output),
	}

	if err := r.validate(); err != nil {
		r.log.Error(err.Error())

		return ExitFailure
	}

	return r.run(ctx)
}

func (r *runner) validate() error {
	switch {
	case r.f.URL == "":
		return errors.New("the `--url` parameter is required")
	case r.f.Queries == "":
		return errors.New("the `--queries` parameter is required")
	case r.lf.Threads == 0:
		return errors.New("the `--threads` parameter must be positive")
	case r.f.Fast && r.f.HTTP3:
		return errors.New("the `--fast` and `--http3` parameters can not be used together")
	}

	if r.f.Goldens != "" && r.f.WriteGoldens != "" {
		r.log.Warn("Both `--goldens` and `--write_goldens` are set, they are meant to be used separately.")
	}

	return nil
}

func (r *runner) run(ctx context.Context) int {
	data, err := r.files.ReadFile(ctx, r.f.Queries)
	if err != nil {
		r.log.Errorf("Failed to read `--queries`: %v.", err)

		return ExitStartup
	}

	store := queries.Parse(data)

	var goldens []string

	if r.f.Goldens != "" {
		data, err := r.files.ReadFile(ctx, r.f.Goldens)
		if err != nil {
			r.log.Errorf("Failed to read `--goldens`: %v.", err)

			return ExitStartup
		}

		goldens = queries.SplitLines(data)
	}

	jp, err := r.jobProducer()
	if err != nil {
		r.log.Errorf("Failed to init job producer: %v.", err)

		return ExitStartup
	}

	res, err := r.replay(ctx, store, jp)
	if err != nil {
		r.log.Error(err.Error())

		return ExitFailure
	}

	r.printf("Done, %s on %s total queries.\n",
		loadgen.QPSReport(res.QPS, res.Stable), report.Yellow(strconv.Itoa(store.Len())))
	res.PrintLatency(r.out)
	jp.Print(r.out)

	code := ExitOK

	if r.f.Goldens == "" {
		r.printf("Not comparing the results against the goldens as `--goldens` were not provided.\n")
	} else if !r.compare(goldens, res.Bodies) {
		code = ExitFailure
	}

	if r.f.WriteGoldens != "" && !r.writeGoldens(ctx, res.Bodies) {
		code = ExitFailure
	}

	return code
}

func (r *runner) jobProducer() (jobProducer, error) {
	headers, err := nethttp.ParseHeaders(r.f.Headers)
	if err != nil {
		return nil, err
	}

	f := nethttp.Flags{
		HeaderMap:   headers,
		URL:         r.f.URL,
		ContentType: r.f.ContentType,
		NoKeepalive: r.f.NoKeepalive,
		HTTP3:       r.f.HTTP3,
	}

	var jp jobProducer

	if r.f.Fast {
		jp, err = fasthttp.NewJobProducer(f, r.lf)
	} else {
		jp, err = nethttp.NewJobProducer(f, r.lf)
	}

	if err != nil {
		return nil, err
	}

	return jp, nil
}

// replay runs the load with a progress renderer that is closed before returning.
func (r *runner) replay(ctx context.Context, store *queries.Store, jp jobProducer) (loadgen.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var progress loadgen.Progress = report.NewProgressLine(r.out)

	if r.lf.LiveUI {
		d, err := loadgen.NewDashboard(cancel, jp.RequestCounts)
		if err != nil {
			return loadgen.Result{}, err
		}

		progress = d
	}

	defer progress.Close()

	res, err := loadgen.Run(ctx, r.lf, store.Bodies(), store.Shuffle(r.f.ShuffleSeed), jp, progress)
	if err != nil {
		if d, ok := progress.(discarder); ok {
			d.Discard()
		}
	}

	return res, err
}

func (r *runner) compare(goldens, results []string) bool {
	c := golden.Compare(goldens, results, int(r.f.MaxErrors))

	if c.LengthMismatch() {
		r.log.Warnf("`--queries` contains %d lines, while `--goldens` contains %d lines.", c.Results, c.Goldens)
	}

	if c.Compared == 0 {
		r.printf("Nothing to compare against the goldens.\n")

		return true
	}

	if c.Passed() {
		r.printf("%s, results match on %s queries.\n", report.Green("PASSED"), report.Magenta(c.Compared))

		return true
	}

	lines := make([]string, 0, len(c.Lines))
	for _, l := range c.Lines {
		lines = append(lines, strconv.Itoa(l))
	}

	r.printf("%s, mismatch on %s out of %s queries, deltas in queries %s.\n",
		report.Red("FAILED"), report.Red(c.Mismatches), report.Magenta(c.Compared),
		report.Cyan("["+strings.Join(lines, ",")+"]"))

	return false
}

func (r *runner) writeGoldens(ctx context.Context, results []string) bool {
	if r.f.WriteGoldens == r.f.Goldens {
		r.log.Errorf("Refusing to overwrite `--goldens` file %s with `--write_goldens`.", r.f.Goldens)

		return false
	}

	data, s := golden.Marshal(results)

	if err := r.files.WriteFile(ctx, r.f.WriteGoldens, data); err != nil {
		r.log.Errorf("Failed to write `--write_goldens`: %v.", err)

		return false
	}

	if s.HasEmpty() {
		r.log.Warnf("%d empty results were written as `%s`.", s.Empty, golden.Empty)
	}

	if s.HasMultiline() {
		r.log.Warnf("%d multi-line results were written as `%s` with escaped newlines.", s.Multiline, golden.Multiline)
	}

	r.printf("Wrote %s goldens to %s.\n", report.Magenta(s.Records), r.f.WriteGoldens)

	return true
}

func (r *runner) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}
