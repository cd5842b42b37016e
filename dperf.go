// Package main implements dperf, a tool to replay queries against an HTTP endpoint,
// measure steady state throughput and verify responses with goldens.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/vearutop/dperf/blob"
	"github.com/vearutop/dperf/loadgen"
	"github.com/vearutop/dperf/perftest"
)

func main() {
	app := kingpin.New("dperf", "Replays POST bodies against a URL, measures QPS and checks results against goldens.")

	lf := loadgen.Flags{}
	lf.Register(app)

	f := perftest.Flags{}
	f.Register(app)

	files := blob.Store{}
	files.S3.Register(app)

	kingpin.MustParse(app.Parse(os.Args[1:]))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, os.Interrupt)

	// Second signal gets default handling and kills the process.
	go func() {
		<-ctx.Done()
		stop()
	}()

	code := perftest.Run(ctx, lf, f, &files)

	stop()
	os.Exit(code)
}
