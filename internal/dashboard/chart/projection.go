package chart

import (
	"fmt"
	"math"

	"gexdash/pkg/gex"
)

// spanFactor widens the spot line beyond the tallest bars.
const spanFactor = 1.1

// Project maps a snapshot to a render model. It is pure: the result shares no
// memory with snap and depends on nothing else.
func Project(snap *gex.Snapshot) Model {
	n := len(snap.Strikes)
	m := Model{
		Labels:      make([]float64, n),
		Values:      make([]float64, n),
		Colors:      make([]string, n),
		Aux:         Aux{OpenInterest: make([]int64, n), Volume: make([]int64, n)},
		Annotations: map[string]ReferenceLine{},
	}
	copy(m.Labels, snap.Strikes)
	copy(m.Values, snap.Exposure)
	copy(m.Aux.OpenInterest, snap.OpenInterest)
	copy(m.Aux.Volume, snap.Volume)

	for i, strike := range m.Labels {
		m.Colors[i] = barColor(strike, m.Values[i], snap.CallWall, snap.PutWall)
	}

	if n == 0 {
		return m
	}

	idx := closestStrike(m.Labels, snap.Price)
	lo, hi := bounds(m.Values)
	m.Spot = &SpotMarker{
		Strike: m.Labels[idx],
		Index:  idx,
		YMin:   lo * spanFactor,
		YMax:   hi * spanFactor,
		Color:  ColorSpotLine,
		Label:  fmt.Sprintf("SPOT: %.2f", snap.Price),
	}

	if snap.CallWall != nil {
		m.Annotations[AnnotationCallWall] = ReferenceLine{
			Value:         *snap.CallWall,
			Label:         "CALL WALL",
			LineColor:     "rgba(0, 255, 157, 0.4)",
			LabelColor:    ColorPositiveBar,
			LabelPosition: "end",
		}
	}
	if snap.PutWall != nil {
		m.Annotations[AnnotationPutWall] = ReferenceLine{
			Value:         *snap.PutWall,
			Label:         "PUT WALL",
			LineColor:     "rgba(255, 51, 102, 0.4)",
			LabelColor:    ColorNegativeBar,
			LabelPosition: "end",
		}
	}
	if snap.MaxOpenInterestStrike != nil {
		m.Annotations[AnnotationMaxOI] = ReferenceLine{
			Value:         *snap.MaxOpenInterestStrike,
			Label:         "MAX OI",
			LineColor:     ColorMaxOI,
			LabelColor:    ColorMaxOI,
			LabelPosition: "center",
			Dash:          []int{2, 4},
		}
	}
	return m
}

// barColor compares strikes and walls exactly; near-misses get sign coloring.
func barColor(strike, value float64, callWall, putWall *float64) string {
	switch {
	case callWall != nil && strike == *callWall:
		return ColorCallWallBar
	case putWall != nil && strike == *putWall:
		return ColorPutWallBar
	case value >= 0:
		return ColorPositiveBar
	default:
		return ColorNegativeBar
	}
}

// closestStrike returns the index of the strike nearest to price; the first
// one wins ties.
func closestStrike(strikes []float64, price float64) int {
	best := 0
	for i := 1; i < len(strikes); i++ {
		if math.Abs(strikes[i]-price) < math.Abs(strikes[best]-price) {
			best = i
		}
	}
	return best
}

func bounds(values []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}
