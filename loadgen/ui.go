package loadgen

import (
	"fmt"
	"sync"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"
	"github.com/vearutop/dperf/report"
)

const plotTailSize = 48

// Dashboard is a full screen Progress with throughput and active threads plots.
type Dashboard struct {
	mu sync.Mutex

	status      *widgets.Paragraph
	qpsPlot     *widgets.Plot
	threadsPlot *widgets.Plot
	counts      *widgets.Paragraph

	requestCounts func() map[string]int

	last    Datapoint
	hasLast bool
	closed  bool
	done    chan struct{}
}

// NewDashboard initializes terminal UI, interrupt is called on q or Ctrl+C.
//
// Optional requestCounts provides request counts by response status for a panel.
func NewDashboard(interrupt func(), requestCounts func() map[string]int) (*Dashboard, error) {
	if err := ui.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize termui: %w", err)
	}

	d := &Dashboard{
		requestCounts: requestCounts,
		done:          make(chan struct{}),
	}

	d.status = widgets.NewParagraph()
	d.status.Title = "Progress (press q or ctrl+c to quit)"
	d.status.SetRect(0, 0, 100, 3)

	d.qpsPlot = widgets.NewPlot()
	d.qpsPlot.Title = "Queries per second"
	d.qpsPlot.SetRect(0, 3, 100, 15)
	d.qpsPlot.Data = [][]float64{0: {}}
	d.qpsPlot.HorizontalScale = 2

	d.threadsPlot = widgets.NewPlot()
	d.threadsPlot.Title = "Active threads"
	d.threadsPlot.SetRect(0, 15, 100, 25)
	d.threadsPlot.Data = [][]float64{0: {}}
	d.threadsPlot.HorizontalScale = 2

	d.counts = widgets.NewParagraph()
	d.counts.Title = "Responses by status code"
	d.counts.SetRect(0, 25, 100, 33)

	go handleEvents(ui.PollEvents(), d.done, interrupt)

	return d, nil
}

// Observe adds datapoint to plots.
func (d *Dashboard) Observe(dp Datapoint) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.hasLast && dp.Elapsed > d.last.Elapsed {
		qps := float64(dp.Claimed-d.last.Claimed) / (dp.Elapsed - d.last.Elapsed).Seconds()
		d.qpsPlot.Data[0] = tail(append(d.qpsPlot.Data[0], qps))
	}

	d.threadsPlot.Data[0] = tail(append(d.threadsPlot.Data[0], float64(dp.Active)))

	d.last = dp
	d.hasLast = true
}

// Update renders status with plots.
func (d *Dashboard) Update(status string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}

	d.status.Text = report.StripANSI(status)

	drawables := []ui.Drawable{d.status}

	// Plot can not be rendered with less than two points.
	if len(d.qpsPlot.Data[0]) > 1 {
		drawables = append(drawables, d.qpsPlot)
	}

	if len(d.threadsPlot.Data[0]) > 1 {
		drawables = append(drawables, d.threadsPlot)
	}

	if d.requestCounts != nil {
		d.counts.Text = report.StatusCounts(d.requestCounts())
		drawables = append(drawables, d.counts)
	}

	ui.Render(drawables...)
}

// Close restores terminal.
func (d *Dashboard) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}

	d.closed = true
	close(d.done)

	ui.Close()
}

// handleEvents calls interrupt on quit keys, it returns after interrupt or when done is closed.
func handleEvents(events <-chan ui.Event, done <-chan struct{}, interrupt func()) {
	for {
		select {
		case <-done:
			return
		case e, ok := <-events:
			if !ok {
				return
			}

			if e.ID == "q" || e.ID == "<C-c>" {
				if interrupt != nil {
					interrupt()
				}

				return
			}
		}
	}
}

func tail(data []float64) []float64 {
	if len(data) > plotTailSize {
		return data[len(data)-plotTailSize:]
	}

	return data
}
