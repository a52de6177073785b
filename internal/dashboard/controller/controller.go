package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"gexdash/internal/dashboard/alert"
	"gexdash/internal/dashboard/chart"
	"gexdash/internal/dashboard/panel"
	"gexdash/internal/dashboard/state"
	"gexdash/internal/dashboard/tracker"
	"gexdash/internal/metrics"
	"gexdash/pkg/gex"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrThrottled is returned by TriggerRefresh when manual refreshes come in
// faster than the configured rate.
var ErrThrottled = errors.New("manual refresh throttled")

// Fetcher is the snapshot source, normally *gex.RESTClient.
type Fetcher interface {
	FetchSnapshot(ctx context.Context, q gex.Query) (*gex.Snapshot, error)
}

// Sink receives rendered frames and status changes.
type Sink interface {
	Render(f Frame)
	Status(s Status)
}

// Deliverer hands alerts to the notification layer.
type Deliverer interface {
	Deliver(alerts []alert.Alert)
}

// Rearmer restarts the refresh period.
type Rearmer interface {
	Restart()
}

// Frame is everything the renderer needs for one applied snapshot.
type Frame struct {
	Chart chart.Model   `json:"chart"`
	Panel panel.Panel   `json:"panel"`
	Delta tracker.Delta `json:"delta"`
}

type Deps struct {
	Fetcher   Fetcher
	Sink      Sink
	Deliverer Deliverer
	Settings  *state.Settings
	Recorder  *metrics.Recorder
	Logger    *zap.Logger
}

type Options struct {
	DefaultTicker string
	Location      *time.Location
	FetchTimeout  time.Duration
	ManualRate    float64 // refreshes per second; <= 0 disables throttling
	ManualBurst   int
}

// Controller runs the fetch-and-update cycle. DashboardState is only touched
// under mu, so cycles started by the scheduler and by user actions apply in
// arrival order.
type Controller struct {
	fetcher   Fetcher
	sink      Sink
	deliverer Deliverer
	settings  *state.Settings
	recorder  *metrics.Recorder
	logger    *zap.Logger

	tracker *tracker.Tracker
	engine  *alert.Engine
	limiter *rate.Limiter
	loc     *time.Location
	timeout time.Duration
	now     func() time.Time

	mu        sync.Mutex
	state     *state.DashboardState
	selection Selection
	frame     *Frame
	status    Status
	rearmer   Rearmer
}

func New(deps Deps, opts Options) *Controller {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	limit := rate.Inf
	if opts.ManualRate > 0 {
		limit = rate.Limit(opts.ManualRate)
	}
	burst := opts.ManualBurst
	if burst <= 0 {
		burst = 1
	}
	settings := deps.Settings
	if settings == nil {
		settings = state.NewSettings(true, false, state.DefaultProximityThreshold)
	}

	c := &Controller{
		fetcher:   deps.Fetcher,
		sink:      deps.Sink,
		deliverer: deps.Deliverer,
		settings:  settings,
		recorder:  deps.Recorder,
		logger:    deps.Logger,
		tracker:   tracker.New(settings),
		engine:    alert.NewEngine(),
		limiter:   rate.NewLimiter(limit, burst),
		loc:       loc,
		timeout:   opts.FetchTimeout,
		now:       time.Now,
		state:     state.New(),
		status:    Status{State: StatusIdle},
	}
	c.selection = Selection{
		Ticker: strings.TrimSpace(opts.DefaultTicker),
		Expiry: c.today(),
	}
	return c
}

// SetRearmer wires the scheduler restarted by ticker submits.
func (c *Controller) SetRearmer(r Rearmer) {
	c.mu.Lock()
	c.rearmer = r
	c.mu.Unlock()
}

// Tick is the scheduler callback. Failures are reported through the status.
func (c *Controller) Tick() {
	_ = c.Refresh(context.Background())
}

// TriggerRefresh is a user-initiated refresh subject to the manual limiter.
func (c *Controller) TriggerRefresh(ctx context.Context) error {
	if !c.limiter.Allow() {
		return ErrThrottled
	}
	return c.Refresh(ctx)
}

// Refresh fetches the current selection and applies it. A failed fetch only
// moves the status to error; state, render and alerts are left alone.
func (c *Controller) Refresh(ctx context.Context) error {
	// Snapshot the selection before going to the network
	q := c.query()
	c.publishStatus(Status{State: StatusFetching, Time: c.now()})

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	// Fetch and time the upstream call
	start := c.now()
	snap, err := c.fetcher.FetchSnapshot(ctx, q)
	took := c.now().Sub(start)
	if err != nil {
		c.recorder.RecordFetch(resultLabel(err), took)
		c.logger.Warn("snapshot fetch failed",
			zap.String("ticker", q.Ticker),
			zap.String("date", q.Expiry.String()),
			zap.Error(err))
		c.publishStatus(Status{State: StatusError, Message: err.Error(), Time: c.now()})
		return fmt.Errorf("refresh: %w", err)
	}
	c.recorder.RecordFetch(resultOK, took)

	c.apply(snap)
	return nil
}

func (c *Controller) apply(snap *gex.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Diff against the previous cycle and decide alerts
	d := c.tracker.Observe(snap, c.state)
	alerts := c.engine.Decide(d, snap, c.state)

	// Build the render frame
	frame := Frame{
		Chart: chart.Project(snap),
		Panel: panel.Build(snap, d),
		Delta: d,
	}
	c.frame = &frame
	if !snap.Expiry.IsZero() {
		c.selection.Expiry = snap.Expiry
	}
	c.status = Status{State: StatusOK, Time: c.now()}

	// Publish to clients
	c.sink.Render(frame)
	c.deliverer.Deliver(alerts)
	c.sink.Status(c.status)
	c.recorder.RecordSnapshot(snap.Ticker, snap.Price, snap.TotalExposure)

	c.logger.Debug("snapshot applied",
		zap.String("ticker", snap.Ticker),
		zap.Float64("price", snap.Price),
		zap.String("direction", string(d.PriceDirection)),
		zap.Int("alerts", len(alerts)))
}

// Select updates the ticker and/or expiry and fetches right away. A ticker
// submit also restarts the refresh period.
func (c *Controller) Select(ctx context.Context, u SelectionUpdate) error {
	c.mu.Lock()
	if u.Ticker != nil {
		c.selection.Ticker = strings.TrimSpace(*u.Ticker)
	}
	if u.Expiry != nil {
		c.selection.Expiry = *u.Expiry
	}
	rearmer := c.rearmer
	c.mu.Unlock()

	if u.Ticker != nil && rearmer != nil {
		rearmer.Restart()
	}
	return c.Refresh(ctx)
}

// DismissBanner clears the active banner on user request.
func (c *Controller) DismissBanner() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.ClearBanner()
	c.deliverer.Deliver([]alert.Alert{c.engine.Dismissal()})
}

// View is a consistent copy of the controller's current state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := View{
		Status:    c.status,
		Settings:  c.settings.View(),
		Selection: c.selection,
		Dashboard: c.state.Copy(),
	}
	if c.frame != nil {
		f := *c.frame
		v.Frame = &f
	}
	return v
}

func (c *Controller) Selection() Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection
}

func (c *Controller) Settings() *state.Settings { return c.settings }

func (c *Controller) query() gex.Query {
	sel := c.Selection()
	return gex.Query{Ticker: sel.Ticker, Expiry: sel.Expiry}
}

func (c *Controller) publishStatus(s Status) {
	c.mu.Lock()
	c.status = s
	c.mu.Unlock()
	c.sink.Status(s)
}

func (c *Controller) today() gex.Date {
	return gex.NewDate(c.now().In(c.loc))
}

const resultOK = "ok"

func resultLabel(err error) string {
	var pe *gex.ParseError
	if errors.As(err, &pe) {
		return "parse_error"
	}
	return "fetch_error"
}
