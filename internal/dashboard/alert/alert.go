package alert

import "time"

// Kind separates transient notifications from the persistent trade banner.
type Kind string

const (
	KindNotification Kind = "notification"
	KindBanner       Kind = "banner"
)

// BannerAction is set on banner alerts only.
type BannerAction string

const (
	BannerShow    BannerAction = "show"
	BannerDismiss BannerAction = "dismiss"
)

// Alert is a decision of the engine, delivered by the notification layer.
type Alert struct {
	ID     string       `json:"id"`
	Kind   Kind         `json:"kind"`
	Title  string       `json:"title"`
	Body   string       `json:"body"`
	Urgent bool         `json:"urgent"`
	Source string       `json:"source"`
	Action BannerAction `json:"action,omitempty"`
	Tone   string       `json:"tone,omitempty"` // "buy" / "sell" for banners
	Time   time.Time    `json:"time"`
}

// Tag mirrors the notification tag the browser groups by.
func (a Alert) Tag() string {
	if a.Urgent {
		return "urgent"
	}
	return "info"
}

// Alert sources, used for metrics labels and logs.
const (
	SourceSignal   = "signal"
	SourceCallWall = "call_wall"
	SourcePutWall  = "put_wall"
	SourceBanner   = "banner"
)
