package loadgen

import (
	"io"
	"os"
	"time"
)

// DefaultSampleInterval is a period of progress sampling.
const DefaultSampleInterval = 50 * time.Millisecond

// Flags control load testing.
type Flags struct {
	Threads      uint
	RateLimit    int
	SlowResponse time.Duration
	LiveUI       bool

	// Seconds is accepted for compatibility, the run always goes through all queries.
	Seconds float64

	SampleInterval time.Duration
	Output         io.Writer
}

// Prepare sets conditional defaults.
func (lf *Flags) Prepare() {
	if lf.SampleInterval <= 0 {
		lf.SampleInterval = DefaultSampleInterval
	}

	if lf.SlowResponse <= 0 {
		lf.SlowResponse = time.Second
	}

	if lf.Output == nil {
		lf.Output = os.Stdout
	}
}
