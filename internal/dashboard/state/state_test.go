package state

import "testing"

// go test -v --run TestNewStateIsAbsent
func TestNewStateIsAbsent(t *testing.T) {
	s := New()
	if s.PreviousPrice != nil || s.PreviousSignalText != nil || s.ActiveAlertBannerSignal != nil {
		t.Fatalf("fresh state should be all-absent: %+v", s)
	}
}

// go test -v --run TestCopyIsDeep
func TestCopyIsDeep(t *testing.T) {
	s := New()
	s.SetPreviousPrice(100)
	s.SetPreviousSignal("BUY")
	s.SetBanner("BUY")

	cp := s.Copy()
	s.SetPreviousPrice(101)
	s.ClearBanner()

	if *cp.PreviousPrice != 100 {
		t.Errorf("copy aliased previous price: %v", *cp.PreviousPrice)
	}
	if cp.ActiveAlertBannerSignal == nil || *cp.ActiveAlertBannerSignal != "BUY" {
		t.Errorf("copy lost banner: %v", cp.ActiveAlertBannerSignal)
	}
	if s.BannerIs("BUY") {
		t.Error("banner should be cleared on the original")
	}
}

// go test -v --run TestSettings
func TestSettings(t *testing.T) {
	s := NewSettings(true, false, 0)
	if s.ProximityThreshold() != DefaultProximityThreshold {
		t.Fatalf("non-positive threshold should fall back to default, got %v", s.ProximityThreshold())
	}
	s.SetProximityThreshold(2.5)
	if s.ProximityThreshold() != 2.5 {
		t.Fatalf("threshold got %v", s.ProximityThreshold())
	}
	s.SetAlertsEnabled(false)
	s.SetSpeechEnabled(true)
	v := s.View()
	if v.AlertsEnabled || !v.SpeechEnabled || v.ProximityThreshold != 2.5 {
		t.Fatalf("unexpected view %+v", v)
	}
}
