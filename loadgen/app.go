package loadgen

import (
	"github.com/alecthomas/kingpin/v2"
	"github.com/bool64/dev/version"
)

// Register sets up flags as command line options.
func (lf *Flags) Register(app *kingpin.Application) {
	app.Version(version.Info().Version)

	app.Flag("threads", "The number of threads to use, 16 should be a safe default.").
		Default("16").UintVar(&lf.Threads)
	app.Flag("seconds", "The number of seconds to run the test for (accepted, not enforced).").
		Default("5.0").Float64Var(&lf.Seconds)
	app.Flag("rate_limit", "Rate limit, in requests per second, 0 disables limit (default).").
		Default("0").IntVar(&lf.RateLimit)
	app.Flag("slow", "Min duration of slow response.").
		Default("1s").DurationVar(&lf.SlowResponse)
	app.Flag("live_ui", "Show live ui with statistics.").BoolVar(&lf.LiveUI)
}
