package controller

import (
	"time"

	"gexdash/internal/dashboard/state"
	"gexdash/pkg/gex"
)

// Status indicator states.
const (
	StatusIdle     = "idle"
	StatusFetching = "fetching"
	StatusOK       = "ok"
	StatusError    = "error"
)

type Status struct {
	State   string    `json:"state"`
	Message string    `json:"message,omitempty"`
	Time    time.Time `json:"time"`
}

// Selection is what the next fetch asks for. Empty ticker and zero expiry mean
// "server default".
type Selection struct {
	Ticker string   `json:"ticker"`
	Expiry gex.Date `json:"date"`
}

// SelectionUpdate changes only the fields that are set.
type SelectionUpdate struct {
	Ticker *string
	Expiry *gex.Date
}

// View backs GET /api/state. The frame is inlined once a snapshot was applied.
type View struct {
	*Frame
	Status    Status               `json:"status"`
	Settings  state.View           `json:"settings"`
	Selection Selection            `json:"selection"`
	Dashboard state.DashboardState `json:"dashboard"`
}
