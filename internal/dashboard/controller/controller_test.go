package controller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gexdash/internal/dashboard/alert"
	"gexdash/internal/dashboard/state"
	"gexdash/pkg/gex"

	"go.uber.org/zap"
)

type fakeFetcher struct {
	mu      sync.Mutex
	results []result
	queries []gex.Query
}

type result struct {
	snap *gex.Snapshot
	err  error
}

func (f *fakeFetcher) push(snap *gex.Snapshot, err error) {
	f.mu.Lock()
	f.results = append(f.results, result{snap, err})
	f.mu.Unlock()
}

func (f *fakeFetcher) FetchSnapshot(_ context.Context, q gex.Query) (*gex.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if len(f.results) == 0 {
		return nil, &gex.FetchError{Err: errors.New("no more results")}
	}
	r := f.results[0]
	f.results = f.results[1:]
	return r.snap, r.err
}

type recordingSink struct {
	frames   []Frame
	statuses []string
}

func (s *recordingSink) Render(f Frame)   { s.frames = append(s.frames, f) }
func (s *recordingSink) Status(st Status) { s.statuses = append(s.statuses, st.State) }

type recordingDeliverer struct {
	alerts []alert.Alert
}

func (d *recordingDeliverer) Deliver(a []alert.Alert) { d.alerts = append(d.alerts, a...) }

type countingRearmer struct{ n int }

func (r *countingRearmer) Restart() { r.n++ }

func ptr(v float64) *float64 { return &v }

func snapshot(price float64, signal string, expiry string) *gex.Snapshot {
	d, _ := gex.ParseDate(expiry)
	s := &gex.Snapshot{
		Ticker:   "SPX",
		Expiry:   d,
		Price:    price,
		Strikes:  []float64{95, 100, 105},
		Exposure: []float64{-1, 2, 3},
		CallWall: ptr(105),
		PutWall:  ptr(95),
	}
	if signal != "" {
		s.Strategy = &gex.Strategy{Name: "Iron Condor", Signal: &gex.Signal{Text: signal}}
	}
	return s
}

func newTestController(opts Options) (*Controller, *fakeFetcher, *recordingSink, *recordingDeliverer) {
	f := &fakeFetcher{}
	sink := &recordingSink{}
	d := &recordingDeliverer{}
	c := New(Deps{
		Fetcher:   f,
		Sink:      sink,
		Deliverer: d,
		Settings:  state.NewSettings(true, false, 10),
		Logger:    zap.NewNop(),
	}, opts)
	return c, f, sink, d
}

// go test -v --run TestRefreshAppliesSnapshot
func TestRefreshAppliesSnapshot(t *testing.T) {
	c, f, sink, d := newTestController(Options{DefaultTicker: "SPX"})
	f.push(snapshot(120, "BUY THE DIP", "2026-10-23"), nil)

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if len(sink.frames) != 1 || sink.frames[0].Chart.Spot == nil {
		t.Fatalf("expected one rendered frame, got %d", len(sink.frames))
	}
	if got := sink.statuses; len(got) != 2 || got[0] != StatusFetching || got[1] != StatusOK {
		t.Fatalf("statuses got %v", got)
	}
	// first snapshot: no signal-change notification, banner raised once
	if len(d.alerts) != 1 || d.alerts[0].Kind != alert.KindBanner || d.alerts[0].Action != alert.BannerShow {
		t.Fatalf("alerts got %+v", d.alerts)
	}

	v := c.View()
	if v.Frame == nil || v.Status.State != StatusOK {
		t.Fatalf("view not updated: %+v", v)
	}
	if v.Dashboard.PreviousPrice == nil || *v.Dashboard.PreviousPrice != 120 {
		t.Fatalf("previous price not recorded: %+v", v.Dashboard)
	}
	if v.Selection.Expiry.String() != "2026-10-23" {
		t.Fatalf("expiry should re-sync to the snapshot, got %s", v.Selection.Expiry)
	}
}

// go test -v --run TestRefreshFailureLeavesStateAlone
func TestRefreshFailureLeavesStateAlone(t *testing.T) {
	c, f, sink, d := newTestController(Options{})
	f.push(snapshot(100, "NEUTRAL", "2026-10-19"), nil)
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	before := c.View()
	frames, alerts := len(sink.frames), len(d.alerts)

	f.push(nil, &gex.ParseError{Err: errors.New("strikes and gex differ in length")})
	err := c.Refresh(context.Background())
	var pe *gex.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}

	after := c.View()
	if after.Status.State != StatusError || after.Status.Message == "" {
		t.Fatalf("status got %+v", after.Status)
	}
	if *after.Dashboard.PreviousPrice != *before.Dashboard.PreviousPrice ||
		*after.Dashboard.PreviousSignalText != *before.Dashboard.PreviousSignalText {
		t.Fatalf("state changed on failure: %+v", after.Dashboard)
	}
	if len(sink.frames) != frames || len(d.alerts) != alerts {
		t.Fatal("failed fetch must not render or alert")
	}
}

// go test -v --run TestSignalTransitionAlerts
func TestSignalTransitionAlerts(t *testing.T) {
	c, f, _, d := newTestController(Options{})
	f.push(snapshot(120, "BUY THE DIP", "2026-10-19"), nil)
	f.push(snapshot(121, "BUY THE DIP", "2026-10-19"), nil)
	f.push(snapshot(122, "SELL RIPS", "2026-10-19"), nil)
	for i := 0; i < 3; i++ {
		if err := c.Refresh(context.Background()); err != nil {
			t.Fatalf("refresh %d: %v", i, err)
		}
	}

	var titles []string
	for _, a := range d.alerts {
		titles = append(titles, a.Title)
	}
	want := []string{"TRADE ALERT", "🔴 SELL SIGNAL", "TRADE ALERT"}
	if len(titles) != len(want) {
		t.Fatalf("alerts got %v want %v", titles, want)
	}
	for i := range want {
		if titles[i] != want[i] {
			t.Fatalf("alert %d got %q want %q", i, titles[i], want[i])
		}
	}
	if sel := d.alerts[2]; sel.Tone != "sell" {
		t.Fatalf("second banner tone got %q", sel.Tone)
	}
}

// go test -v --run TestQueryUsesSelection
func TestQueryUsesSelection(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}
	c, f, _, _ := newTestController(Options{DefaultTicker: " NDX ", Location: ny})
	c.now = func() time.Time { return time.Date(2026, 10, 20, 2, 0, 0, 0, time.UTC) }
	c.selection.Expiry = c.today()

	f.push(snapshot(100, "", ""), nil)
	_ = c.Refresh(context.Background())

	q := f.queries[0]
	if q.Ticker != "NDX" || q.Expiry.String() != "2026-10-19" {
		t.Fatalf("query got %s %s", q.Ticker, q.Expiry)
	}
	// a snapshot without expiry keeps the selection
	if got := c.Selection().Expiry.String(); got != "2026-10-19" {
		t.Fatalf("selection got %s", got)
	}
}

// go test -v --run TestSelectRearmsOnTicker
func TestSelectRearmsOnTicker(t *testing.T) {
	c, f, _, _ := newTestController(Options{})
	r := &countingRearmer{}
	c.SetRearmer(r)

	date, _ := gex.ParseDate("2026-11-20")
	f.push(snapshot(100, "", ""), nil)
	if err := c.Select(context.Background(), SelectionUpdate{Expiry: &date}); err != nil {
		t.Fatalf("select date: %v", err)
	}
	if r.n != 0 {
		t.Fatal("date change must not restart the period")
	}

	ticker := "QQQ"
	f.push(snapshot(100, "", ""), nil)
	if err := c.Select(context.Background(), SelectionUpdate{Ticker: &ticker}); err != nil {
		t.Fatalf("select ticker: %v", err)
	}
	if r.n != 1 {
		t.Fatalf("ticker submit should restart the period once, got %d", r.n)
	}
	last := f.queries[len(f.queries)-1]
	if last.Ticker != "QQQ" || last.Expiry.String() != "2026-11-20" {
		t.Fatalf("query got %s %s", last.Ticker, last.Expiry)
	}
}

// go test -v --run TestTriggerRefreshThrottled
func TestTriggerRefreshThrottled(t *testing.T) {
	c, f, _, _ := newTestController(Options{ManualRate: 0.001, ManualBurst: 1})
	f.push(snapshot(100, "", ""), nil)

	if err := c.TriggerRefresh(context.Background()); err != nil {
		t.Fatalf("first trigger: %v", err)
	}
	if err := c.TriggerRefresh(context.Background()); !errors.Is(err, ErrThrottled) {
		t.Fatalf("expected ErrThrottled, got %v", err)
	}
	if len(f.queries) != 1 {
		t.Fatalf("throttled trigger must not fetch, got %d fetches", len(f.queries))
	}
}

// go test -v --run TestDismissBanner
func TestDismissBanner(t *testing.T) {
	c, f, _, d := newTestController(Options{})
	f.push(snapshot(100, "BUY CALLS", ""), nil)
	_ = c.Refresh(context.Background())
	if c.View().Dashboard.ActiveAlertBannerSignal == nil {
		t.Fatal("banner should be active")
	}

	c.DismissBanner()
	if c.View().Dashboard.ActiveAlertBannerSignal != nil {
		t.Fatal("banner should be cleared")
	}
	last := d.alerts[len(d.alerts)-1]
	if last.Kind != alert.KindBanner || last.Action != alert.BannerDismiss {
		t.Fatalf("expected dismiss event, got %+v", last)
	}

	// the same signal raises the banner again after a manual dismiss
	f.push(snapshot(101, "BUY CALLS", ""), nil)
	_ = c.Refresh(context.Background())
	if last := d.alerts[len(d.alerts)-1]; last.Action != alert.BannerShow {
		t.Fatalf("expected banner re-show, got %+v", last)
	}
}
