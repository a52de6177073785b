package state

// DashboardState is the cross-snapshot memory of the dashboard. It is owned by
// a single controller and mutated only by the tracker and the alert engine
// while the controller holds its cycle lock.
type DashboardState struct {
	PreviousPrice           *float64 `json:"previousPrice"`
	PreviousSignalText      *string  `json:"previousSignalText"`
	ActiveAlertBannerSignal *string  `json:"activeAlertBannerSignal"`
}

// New returns a state with every field absent.
func New() *DashboardState {
	return &DashboardState{}
}

func (s *DashboardState) SetPreviousPrice(p float64) {
	s.PreviousPrice = &p
}

func (s *DashboardState) SetPreviousSignal(text string) {
	s.PreviousSignalText = &text
}

func (s *DashboardState) SetBanner(text string) {
	s.ActiveAlertBannerSignal = &text
}

func (s *DashboardState) ClearBanner() {
	s.ActiveAlertBannerSignal = nil
}

// BannerIs reports whether the active banner was raised for text.
func (s *DashboardState) BannerIs(text string) bool {
	return s.ActiveAlertBannerSignal != nil && *s.ActiveAlertBannerSignal == text
}

// Copy returns a deep copy safe to hand out of the cycle lock.
func (s *DashboardState) Copy() DashboardState {
	var out DashboardState
	if s.PreviousPrice != nil {
		p := *s.PreviousPrice
		out.PreviousPrice = &p
	}
	if s.PreviousSignalText != nil {
		t := *s.PreviousSignalText
		out.PreviousSignalText = &t
	}
	if s.ActiveAlertBannerSignal != nil {
		b := *s.ActiveAlertBannerSignal
		out.ActiveAlertBannerSignal = &b
	}
	return out
}
