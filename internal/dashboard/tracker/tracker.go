package tracker

import (
	"math"
	"strings"

	"gexdash/internal/dashboard/state"
	"gexdash/pkg/gex"
)

// Direction of the price relative to the previous snapshot.
type Direction string

const (
	DirectionUnknown   Direction = "unknown"
	DirectionUp        Direction = "up"
	DirectionDown      Direction = "down"
	DirectionUnchanged Direction = "unchanged"
)

// Category of a signal text. Classification is by literal substring.
type Category string

const (
	CategoryNone    Category = "none"
	CategoryBuy     Category = "buy"
	CategorySell    Category = "sell"
	CategoryCaution Category = "caution"
)

// Classify maps signal text to a category. "BUY" wins over "SELL", which wins
// over "CAUTION", so "SELLER EXHAUSTION" is sell-class.
func Classify(text string) Category {
	switch {
	case strings.Contains(text, "BUY"):
		return CategoryBuy
	case strings.Contains(text, "SELL"):
		return CategorySell
	case strings.Contains(text, "CAUTION"):
		return CategoryCaution
	default:
		return CategoryNone
	}
}

// Actionable reports whether the category raises the trade alert banner.
func (c Category) Actionable() bool {
	return c == CategoryBuy || c == CategorySell
}

// Delta is produced once per snapshot and consumed by the alert engine.
type Delta struct {
	PriceDirection    Direction `json:"priceDirection"`
	SignalChanged     bool      `json:"signalChanged"`
	NewSignalCategory Category  `json:"newSignalCategory"`
	CallWallProximity *float64  `json:"callWallProximity,omitempty"`
	PutWallProximity  *float64  `json:"putWallProximity,omitempty"`
}

// ThresholdSource supplies the current wall-proximity threshold.
type ThresholdSource interface {
	ProximityThreshold() float64
}

type Tracker struct {
	threshold ThresholdSource
}

func New(threshold ThresholdSource) *Tracker {
	return &Tracker{threshold: threshold}
}

// Observe computes the delta of snap against st and then records snap into st.
// Callers must not run Observe concurrently on the same state.
func (t *Tracker) Observe(snap *gex.Snapshot, st *state.DashboardState) Delta {
	d := Delta{
		PriceDirection:    direction(st.PreviousPrice, snap.Price),
		NewSignalCategory: CategoryNone,
	}

	text, hasSignal := snap.SignalText()
	if hasSignal && hasPrior(st.PreviousSignalText) && text != *st.PreviousSignalText {
		d.SignalChanged = true
		d.NewSignalCategory = Classify(text)
	}

	limit := state.DefaultProximityThreshold
	if t.threshold != nil {
		limit = t.threshold.ProximityThreshold()
	}
	d.CallWallProximity = proximity(snap.Price, snap.CallWall, limit)
	d.PutWallProximity = proximity(snap.Price, snap.PutWall, limit)

	st.SetPreviousPrice(snap.Price)
	if hasSignal {
		st.SetPreviousSignal(text)
	}
	return d
}

func direction(prev *float64, price float64) Direction {
	switch {
	case prev == nil:
		return DirectionUnknown
	case price > *prev:
		return DirectionUp
	case price < *prev:
		return DirectionDown
	default:
		return DirectionUnchanged
	}
}

// hasPrior treats an empty previous text like no prior signal.
func hasPrior(prev *string) bool {
	return prev != nil && *prev != ""
}

func proximity(price float64, wall *float64, limit float64) *float64 {
	if wall == nil {
		return nil
	}
	dist := math.Abs(price - *wall)
	if dist > limit {
		return nil
	}
	return &dist
}
