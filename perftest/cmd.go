// Package perftest replays queries against an HTTP endpoint and verifies results with goldens.
package perftest

import (
	"github.com/alecthomas/kingpin/v2"
)

// Flags describes query replay parameters.
type Flags struct {
	URL          string
	Queries      string
	ContentType  string
	Goldens      string
	WriteGoldens string
	MaxErrors    uint
	ShuffleSeed  uint64

	Headers     []string
	Fast        bool
	HTTP3       bool
	NoKeepalive bool
}

// Register sets up flags as command line options.
func (f *Flags) Register(app *kingpin.Application) {
	app.Flag("url", "The URL to POST the queries to.").StringVar(&f.URL)
	app.Flag("queries", "The input queries file, one POST body per line, local path or s3://bucket/key.").
		StringVar(&f.Queries)
	app.Flag("content_type", "The Content-Type header of POST requests.").StringVar(&f.ContentType)
	app.Flag("goldens", "The input golden results file, optional.").StringVar(&f.Goldens)
	app.Flag("write_goldens", "The output golden results file, optional.").StringVar(&f.WriteGoldens)
	app.Flag("max_errors", "The number of first erroneous results to report.").
		Default("5").UintVar(&f.MaxErrors)
	app.Flag("shuffle_random_seed", "The random seed to use to randomize the order of queries.").
		Default("42").Uint64Var(&f.ShuffleSeed)

	app.Flag("header", "Extra request header, 'Name: value', can be repeated.").
		Short('H').StringsVar(&f.Headers)
	app.Flag("fast", "Use fasthttp to achieve higher request rate.").BoolVar(&f.Fast)
	app.Flag("http3", "Use quic-go http3, requires https URL.").BoolVar(&f.HTTP3)
	app.Flag("no_keepalive", "Open a new connection for every request.").BoolVar(&f.NoKeepalive)
}
