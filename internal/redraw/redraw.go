// Package redraw drives the periodic refresh of the figure from the state
// holders and handles terminal input.
package redraw

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/mapshow/planplot/internal/localization"
	"github.com/mapshow/planplot/internal/planning"
	"github.com/mapshow/planplot/internal/plot"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/mapshow/planplot/internal/redraw"

// DefaultInterval is the redraw period used when none is configured.
const DefaultInterval = 100 * time.Millisecond

// State is the driver's redraw state.
type State int32

const (
	Idle State = iota
	Redrawing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Redrawing:
		return "redrawing"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Screen is the terminal the driver draws on and reads input from.
type Screen interface {
	plot.Screen
	PollEvent() tcell.Event
	Sync()
}

// Config wires a Driver to its figure and state holders.
type Config struct {
	Figure *plot.Figure
	Screen Screen

	// Main autoscales every frame; Speed and ST keep fixed limits.
	Main, Speed, ST *plot.Axes

	Pools    planning.Pools
	Position *plot.Line
	Outline  *plot.Line

	Planning     *planning.Holder
	Localization *localization.Holder

	Interval time.Duration
	Logger   *slog.Logger
}

// Driver redraws the figure on a fixed interval. Tick must only be called
// from one goroutine at a time.
type Driver struct {
	cfg   Config
	state atomic.Int32
	frame atomic.Uint64

	frames   metric.Int64Counter
	duration metric.Float64Histogram
}

// New validates cfg and returns an idle driver.
func New(cfg Config) (*Driver, error) {
	if cfg.Figure == nil || cfg.Screen == nil || cfg.Main == nil || cfg.Speed == nil || cfg.ST == nil {
		return nil, errors.New("redraw: figure, screen and axes are required")
	}
	if cfg.Planning == nil || cfg.Localization == nil || cfg.Position == nil || cfg.Outline == nil {
		return nil, errors.New("redraw: holders and vehicle lines are required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	d := &Driver{cfg: cfg}
	m := otel.Meter(instrumentationName)

	var err error
	if d.frames, err = m.Int64Counter("redraw.frames",
		metric.WithDescription("Total frames drawn")); err != nil {
		return nil, fmt.Errorf("creating frames counter: %w", err)
	}
	if d.duration, err = m.Float64Histogram("redraw.tick.duration",
		metric.WithDescription("Time spent in one redraw tick"),
		metric.WithUnit("ms")); err != nil {
		return nil, fmt.Errorf("creating tick duration histogram: %w", err)
	}
	return d, nil
}

// State reports whether a tick is in progress.
func (d *Driver) State() State {
	return State(d.state.Load())
}

// Frame returns the number of frames presented so far.
func (d *Driver) Frame() uint64 {
	return d.frame.Load()
}

// LogAttrs describes the driver's current frame and state for log records.
func (d *Driver) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.Uint64("frame", d.Frame()),
		slog.String("redraw", d.State().String()),
	}
}

// Tick hides every dynamic primitive, repopulates them from the holders,
// rescales the main axes, refreshes the legends and presents the frame.
func (d *Driver) Tick() {
	d.state.Store(int32(Redrawing))
	defer d.state.Store(int32(Idle))
	start := time.Now()

	c := d.cfg
	c.Pools.HideAll()
	c.Position.Hide()
	c.Outline.Hide()

	c.Planning.Replot(c.Pools)
	c.Localization.Replot(c.Position, c.Outline)

	c.Main.Relim()
	c.Main.AutoscaleView()

	c.Main.Legend(plot.UpperLeft)
	c.Speed.Legend(plot.UpperCenter)
	c.ST.Legend(plot.UpperCenter)

	c.Figure.Show(c.Screen)

	d.frame.Add(1)
	ctx := context.Background()
	d.frames.Add(ctx, 1)
	d.duration.Record(ctx, float64(time.Since(start).Microseconds())/1000)
}

// Run ticks every interval until ctx is cancelled or the user quits with
// q, Esc or Ctrl-C. A tick that overruns the interval delays the next one;
// missed ticks are not queued.
func (d *Driver) Run(ctx context.Context) error {
	events := make(chan tcell.Event, 8)
	go d.pollEvents(ctx, events)

	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()

	d.cfg.Logger.Info("Redraw loop started", "interval", d.cfg.Interval)
	d.Tick()
	for {
		select {
		case <-ctx.Done():
			d.cfg.Logger.Info("Redraw loop stopped", "reason", ctx.Err())
			return nil
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			switch ev := ev.(type) {
			case *tcell.EventResize:
				d.cfg.Screen.Sync()
				d.Tick()
			case *tcell.EventKey:
				if quitKey(ev.Key(), ev.Rune()) {
					d.cfg.Logger.Info("Display closed by user")
					return nil
				}
			}
		case <-ticker.C:
			d.Tick()
		}
	}
}

// pollEvents forwards screen events until the screen is finalized (PollEvent
// returns nil) or ctx is cancelled.
func (d *Driver) pollEvents(ctx context.Context, out chan<- tcell.Event) {
	defer close(out)
	for {
		ev := d.cfg.Screen.PollEvent()
		if ev == nil {
			return
		}
		select {
		case out <- ev:
		case <-ctx.Done():
			return
		}
	}
}

func quitKey(k tcell.Key, r rune) bool {
	switch k {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		return r == 'q' || r == 'Q'
	}
	return false
}
