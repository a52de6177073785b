package gex

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format of the expiry date (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// Date is a calendar date without a time component. The zero value means "absent".
type Date struct {
	t time.Time
}

// NewDate truncates t to its calendar date in t's location.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string. An empty string yields the zero Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t: t}, nil
}

func (d Date) IsZero() bool { return d.t.IsZero() }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Snapshot is the derived-metrics payload returned by GET /api/gex.
// Strikes, Exposure, OpenInterest and Volume are positionally aligned.
type Snapshot struct {
	Ticker                string      `json:"ticker"`
	Expiry                Date        `json:"expiry"`
	Price                 float64     `json:"price"`
	TotalExposure         float64     `json:"total_gex"`
	Strikes               []float64   `json:"strikes"`
	Exposure              []float64   `json:"gex"`
	OpenInterest          []int64     `json:"oi,omitempty"`
	Volume                []int64     `json:"volume,omitempty"`
	CallWall              *float64    `json:"call_wall,omitempty"`
	PutWall               *float64    `json:"put_wall,omitempty"`
	MaxOpenInterestStrike *float64    `json:"max_oi,omitempty"`
	ImpliedVol            *float64    `json:"zero_dte_iv,omitempty"`
	ExpectedMove          *float64    `json:"expected_move,omitempty"`
	PutCallRatio          *float64    `json:"put_call_ratio,omitempty"`
	VIX                   *float64    `json:"vix,omitempty"`
	Strategy              *Strategy   `json:"strategy,omitempty"`
	AIAnalysis            *AIAnalysis `json:"ai_analysis,omitempty"`
}

// Strategy is the upstream strategy recommendation.
type Strategy struct {
	Name                string   `json:"name"`
	Rationale           string   `json:"rationale"`
	Legs                []string `json:"legs"`
	Premium             float64  `json:"premium"`
	ProbabilityOfProfit float64  `json:"pop"`
	Signal              *Signal  `json:"signal,omitempty"`
}

// Signal is a short categorical trading recommendation plus styling metadata.
type Signal struct {
	Text   string  `json:"text"`
	Color  string  `json:"color"`
	Regime *string `json:"regime,omitempty"`
	Note   *string `json:"note,omitempty"`
}

// AIAnalysis is an optional narrative block produced upstream.
type AIAnalysis struct {
	PinRecommendation string  `json:"pin_recommendation"`
	TradeSetup        string  `json:"trade_setup"`
	Probability       float64 `json:"probability"`
	RiskReward        string  `json:"risk_reward"`
	Context           string  `json:"context"`
}

// SignalText returns the strategy signal text and whether a signal is present at all.
func (s *Snapshot) SignalText() (string, bool) {
	if s == nil || s.Strategy == nil || s.Strategy.Signal == nil {
		return "", false
	}
	return s.Strategy.Signal.Text, true
}

// Validate checks the shape invariants and fills the optional per-strike arrays
// (open interest, volume) with zeros up to the number of strikes.
func (s *Snapshot) Validate() error {
	if len(s.Strikes) != len(s.Exposure) {
		return fmt.Errorf("strikes/gex length mismatch: %d != %d", len(s.Strikes), len(s.Exposure))
	}
	for i := 1; i < len(s.Strikes); i++ {
		if s.Strikes[i] <= s.Strikes[i-1] {
			return fmt.Errorf("strikes must be ascending and unique: index %d (%v after %v)", i, s.Strikes[i], s.Strikes[i-1])
		}
	}
	s.OpenInterest = alignInts(s.OpenInterest, len(s.Strikes))
	s.Volume = alignInts(s.Volume, len(s.Strikes))
	if s.Strategy != nil && s.Strategy.Legs == nil {
		s.Strategy.Legs = []string{}
	}
	return nil
}

func alignInts(in []int64, n int) []int64 {
	out := make([]int64, n)
	copy(out, in)
	return out
}

// snapshotEnvelope detects fields whose absence makes the payload unusable.
type snapshotEnvelope struct {
	Price   *float64        `json:"price"`
	Strikes json.RawMessage `json:"strikes"`
	Gex     json.RawMessage `json:"gex"`
	Error   string          `json:"error"`
}
