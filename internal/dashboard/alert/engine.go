package alert

import (
	"fmt"
	"strconv"
	"time"

	"gexdash/internal/dashboard/state"
	"gexdash/internal/dashboard/tracker"
	"gexdash/pkg/gex"

	"github.com/google/uuid"
)

// Engine turns a delta into notifications and banner events.
type Engine struct {
	now   func() time.Time
	newID func() string
}

func NewEngine() *Engine {
	return &Engine{
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
}

// Decide evaluates every rule independently, so one snapshot can raise several
// alerts. Order: signal change, call wall, put wall, banner. It updates
// st.ActiveAlertBannerSignal and must run under the same lock as Observe.
func (e *Engine) Decide(d tracker.Delta, snap *gex.Snapshot, st *state.DashboardState) []Alert {
	var out []Alert

	if d.SignalChanged {
		text, _ := snap.SignalText()
		switch d.NewSignalCategory {
		case tracker.CategoryBuy:
			out = append(out, e.notification(SourceSignal, "🟢 BUY SIGNAL",
				fmt.Sprintf("Entry signal triggered for %s", snap.Ticker), true))
		case tracker.CategorySell:
			out = append(out, e.notification(SourceSignal, "🔴 SELL SIGNAL",
				fmt.Sprintf("Entry signal triggered for %s", snap.Ticker), true))
		case tracker.CategoryCaution:
			out = append(out, e.notification(SourceSignal, "⚠️ CAUTION", text, false))
		}
	}

	if d.CallWallProximity != nil && snap.CallWall != nil {
		distance := *snap.CallWall - snap.Price
		out = append(out, e.notification(SourceCallWall, "⚠️ CALL WALL NEARBY",
			fmt.Sprintf("Price is %s points from Call Wall at %s", fixed2(distance), number(*snap.CallWall)), true))
	}
	if d.PutWallProximity != nil && snap.PutWall != nil {
		distance := snap.Price - *snap.PutWall
		out = append(out, e.notification(SourcePutWall, "⚠️ PUT WALL NEARBY",
			fmt.Sprintf("Price is %s points from Put Wall at %s", fixed2(distance), number(*snap.PutWall)), true))
	}

	if banner, ok := e.banner(snap, st); ok {
		out = append(out, banner)
	}
	return out
}

// banner raises the trade alert banner once per actionable signal text and
// dismisses it whenever the current signal is not actionable. Snapshots
// without a signal leave the banner untouched.
func (e *Engine) banner(snap *gex.Snapshot, st *state.DashboardState) (Alert, bool) {
	text, ok := snap.SignalText()
	if !ok {
		return Alert{}, false
	}

	category := tracker.Classify(text)
	if !category.Actionable() {
		st.ClearBanner()
		return e.Dismissal(), true
	}
	if st.BannerIs(text) {
		return Alert{}, false
	}
	st.SetBanner(text)

	a := Alert{
		ID:     e.newID(),
		Kind:   KindBanner,
		Title:  "TRADE ALERT",
		Urgent: true,
		Source: SourceBanner,
		Action: BannerShow,
		Tone:   string(category),
		Time:   e.now(),
	}
	if category == tracker.CategoryBuy {
		a.Body = fmt.Sprintf("🚀 %s BUY SIGNAL ACTIVE - %s", snap.Ticker, text)
	} else {
		a.Body = fmt.Sprintf("⚡ %s SELL SIGNAL ACTIVE - %s", snap.Ticker, text)
	}
	return a, true
}

// Dismissal builds a banner-dismiss event.
func (e *Engine) Dismissal() Alert {
	return Alert{
		ID:     e.newID(),
		Kind:   KindBanner,
		Source: SourceBanner,
		Action: BannerDismiss,
		Time:   e.now(),
	}
}

func (e *Engine) notification(source, title, body string, urgent bool) Alert {
	return Alert{
		ID:     e.newID(),
		Kind:   KindNotification,
		Title:  title,
		Body:   body,
		Urgent: urgent,
		Source: source,
		Time:   e.now(),
	}
}

// fixed2 formats with two decimals from the exact binary value.
func fixed2(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// number prints the shortest representation, so 108 renders as "108".
func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
