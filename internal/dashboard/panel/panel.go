package panel

import (
	"fmt"
	"strconv"
	"strings"

	"gexdash/internal/dashboard/tracker"
	"gexdash/pkg/gex"
)

// Tones are renderer-defined styling hints.
const (
	TonePositive = "positive"
	ToneNegative = "negative"
	ToneBull     = "bull"
	ToneBear     = "bear"
	ToneNeutral  = "neutral"

	placeholder = "--"
)

// Put/call ratio sentiment bands: above bearishAbove is bearish, below bullishBelow bullish.
const (
	bearishAbove = 1.2
	bullishBelow = 0.8
)

// Panel is the stats side of the dashboard. Empty strings mean "leave as is".
type Panel struct {
	Ticker        string        `json:"ticker"`
	Expiry        string        `json:"expiry"`
	Price         string        `json:"price"`
	PriceArrow    string        `json:"priceArrow"`
	PriceTone     string        `json:"priceTone,omitempty"`
	TotalExposure string        `json:"totalExposure"`
	ExposureTone  string        `json:"exposureTone"`
	Signal        *SignalView   `json:"signal,omitempty"`
	Strategy      *StrategyView `json:"strategy,omitempty"`
	CallWall      string        `json:"callWall,omitempty"`
	PutWall       string        `json:"putWall,omitempty"`
	MaxOI         string        `json:"maxOI,omitempty"`
	ImpliedVol    string        `json:"impliedVol,omitempty"`
	ExpectedMove  string        `json:"expectedMove,omitempty"`
	PutCallRatio  *RatioView    `json:"putCallRatio,omitempty"`
	AI            *AIView       `json:"ai,omitempty"`

	PriceDirection tracker.Direction `json:"priceDirection"`
}

type SignalView struct {
	Text   string `json:"text"`
	Color  string `json:"color"`
	Regime string `json:"regime,omitempty"`
	Note   string `json:"note,omitempty"`
}

type StrategyView struct {
	Name      string   `json:"name"`
	NameTone  string   `json:"nameTone"`
	Rationale string   `json:"rationale"`
	Legs      []string `json:"legs"`
	Premium   string   `json:"premium"`
	PoP       string   `json:"pop"`
}

type RatioView struct {
	Text      string `json:"text"`
	Sentiment string `json:"sentiment"`
	Tone      string `json:"tone"`
}

type AIView struct {
	Pin         string `json:"pin"`
	Trade       string `json:"trade"`
	Probability string `json:"probability"`
	RiskReward  string `json:"riskReward"`
	Context     string `json:"context"`
}

// Build renders the stats panel. Like chart.Project it keeps no state; the
// price arrow comes from the tracker delta.
func Build(snap *gex.Snapshot, d tracker.Delta) Panel {
	p := Panel{
		Ticker:         snap.Ticker,
		Expiry:         snap.Expiry.String(),
		Price:          "$" + fixed2(snap.Price),
		TotalExposure:  "$" + fixed2(snap.TotalExposure) + "B",
		ExposureTone:   TonePositive,
		PriceDirection: d.PriceDirection,
	}
	if snap.TotalExposure < 0 {
		p.ExposureTone = ToneNegative
	}

	switch d.PriceDirection {
	case tracker.DirectionUp:
		p.PriceArrow, p.PriceTone = "▲", TonePositive
	case tracker.DirectionDown:
		p.PriceArrow, p.PriceTone = "▼", ToneNegative
	}

	if s := snap.Strategy; s != nil {
		if sig := s.Signal; sig != nil {
			p.Signal = &SignalView{Text: sig.Text, Color: sig.Color}
			if sig.Regime != nil {
				p.Signal.Regime = *sig.Regime
				if sig.Note != nil {
					p.Signal.Note = *sig.Note
				}
			}
		}
		p.Strategy = &StrategyView{
			Name:      s.Name,
			NameTone:  nameTone(s.Name),
			Rationale: s.Rationale,
			Legs:      append([]string{}, s.Legs...),
			Premium:   "$" + fixed2(s.Premium),
			PoP:       number(s.ProbabilityOfProfit) + "%",
		}
	}

	p.CallWall = optional(snap.CallWall, "", "")
	p.PutWall = optional(snap.PutWall, "", "")
	p.MaxOI = optional(snap.MaxOpenInterestStrike, "", "")
	p.ImpliedVol = optional(snap.ImpliedVol, "", "%")
	p.ExpectedMove = optional(snap.ExpectedMove, "±$", "")

	if r := snap.PutCallRatio; r != nil {
		p.PutCallRatio = ratio(*r)
	}
	if ai := snap.AIAnalysis; ai != nil {
		p.AI = &AIView{
			Pin:         orPlaceholder(ai.PinRecommendation),
			Trade:       orPlaceholder(ai.TradeSetup),
			Probability: placeholder + "%",
			RiskReward:  orPlaceholder(ai.RiskReward),
			Context:     orPlaceholder(ai.Context),
		}
		if ai.Probability != 0 {
			p.AI.Probability = number(ai.Probability) + "%"
		}
	}
	return p
}

func ratio(r float64) *RatioView {
	v := &RatioView{Sentiment: "Neutral", Tone: ToneNeutral}
	switch {
	case r > bearishAbove:
		v.Sentiment, v.Tone = "Bearish", ToneBear
	case r < bullishBelow:
		v.Sentiment, v.Tone = "Bullish", ToneBull
	}
	v.Text = fmt.Sprintf("%s (%s)", fixed2(r), v.Sentiment)
	return v
}

func nameTone(name string) string {
	switch {
	case strings.Contains(name, "Bull"):
		return ToneBull
	case strings.Contains(name, "Bear"):
		return ToneBear
	default:
		return ToneNeutral
	}
}

func optional(v *float64, prefix, suffix string) string {
	if v == nil {
		return ""
	}
	return prefix + number(*v) + suffix
}

func orPlaceholder(s string) string {
	if s == "" {
		return placeholder
	}
	return s
}

func fixed2(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

func number(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
