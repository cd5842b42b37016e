package loadgen

import (
	"fmt"
	"time"

	"github.com/vearutop/dperf/report"
)

// Datapoint is a progress snapshot.
type Datapoint struct {
	Elapsed time.Duration
	Claimed int
	Active  int
}

// SteadyStateQPS computes throughput over the first contiguous window of datapoints
// where all threads are active.
//
// Result is not ok when there are less than two such datapoints or no progress was made.
func SteadyStateQPS(datapoints []Datapoint, threads int) (float64, bool) {
	i0 := 0
	for i0 < len(datapoints) && datapoints[i0].Active != threads {
		i0++
	}

	if i0 == len(datapoints) {
		return 0, false
	}

	i1 := i0
	for i1+1 < len(datapoints) && datapoints[i1+1].Active == threads {
		i1++
	}

	queries := datapoints[i1].Claimed - datapoints[i0].Claimed
	seconds := (datapoints[i1].Elapsed - datapoints[i0].Elapsed).Seconds()

	if queries <= 0 || seconds <= 0 {
		return 0, false
	}

	return float64(queries) / seconds, true
}

// QPSReport formats steady state throughput.
func QPSReport(qps float64, ok bool) string {
	if !ok {
		return "no long enough stable run to compute QPS"
	}

	return report.Green(report.RoundSignificant(qps, 3) + "QPS")
}

// ProgressReport formats completion status at the datapoint.
func ProgressReport(total int, dp Datapoint) string {
	n := min(dp.Claimed, total)

	return fmt.Sprintf("Done %s (%d / %d) queries in %s seconds",
		report.Yellow(report.Percent(n, total)), n, total,
		report.Blue(fmt.Sprintf("%.1f", dp.Elapsed.Seconds())))
}
