package state

import (
	"math"
	"sync/atomic"
)

// DefaultProximityThreshold is the wall-proximity distance in price units.
const DefaultProximityThreshold = 10.0

// Settings holds the user toggles shared by the HTTP API, the tracker and the
// notification layer. All accessors are safe for concurrent use.
type Settings struct {
	alertsEnabled atomic.Bool
	speechEnabled atomic.Bool
	threshold     atomic.Uint64 // math.Float64bits
}

func NewSettings(alertsEnabled, speechEnabled bool, threshold float64) *Settings {
	s := &Settings{}
	s.alertsEnabled.Store(alertsEnabled)
	s.speechEnabled.Store(speechEnabled)
	s.SetProximityThreshold(threshold)
	return s
}

func (s *Settings) AlertsEnabled() bool     { return s.alertsEnabled.Load() }
func (s *Settings) SetAlertsEnabled(v bool) { s.alertsEnabled.Store(v) }

func (s *Settings) SpeechEnabled() bool     { return s.speechEnabled.Load() }
func (s *Settings) SetSpeechEnabled(v bool) { s.speechEnabled.Store(v) }

func (s *Settings) ProximityThreshold() float64 {
	return math.Float64frombits(s.threshold.Load())
}

// SetProximityThreshold stores v; non-positive or NaN values fall back to the default.
func (s *Settings) SetProximityThreshold(v float64) {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		v = DefaultProximityThreshold
	}
	s.threshold.Store(math.Float64bits(v))
}

// View is a JSON-friendly copy of the settings.
type View struct {
	AlertsEnabled      bool    `json:"alertsEnabled"`
	SpeechEnabled      bool    `json:"speechEnabled"`
	ProximityThreshold float64 `json:"proximityThreshold"`
}

func (s *Settings) View() View {
	return View{
		AlertsEnabled:      s.AlertsEnabled(),
		SpeechEnabled:      s.SpeechEnabled(),
		ProximityThreshold: s.ProximityThreshold(),
	}
}
