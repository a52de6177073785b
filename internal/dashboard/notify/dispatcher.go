package notify

import (
	"gexdash/internal/dashboard/alert"

	"go.uber.org/zap"
)

// Transport delivers alerts to the user. The websocket hub implements it.
type Transport interface {
	Notify(a alert.Alert)
	Speak(text string)
	Banner(a alert.Alert)
}

// Toggles are the user switches consulted on every delivery.
type Toggles interface {
	AlertsEnabled() bool
	SpeechEnabled() bool
}

// Recorder is the metrics subset used here.
type Recorder interface {
	RecordAlert(kind, source string)
	RecordSuppressed(source string)
}

// Dispatcher applies the alertsEnabled gate to notifications and fans them out
// to the notification and speech channels. Banner events are not gated.
type Dispatcher struct {
	transport Transport
	toggles   Toggles
	recorder  Recorder
	logger    *zap.Logger
}

func NewDispatcher(transport Transport, toggles Toggles, recorder Recorder, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		transport: transport,
		toggles:   toggles,
		recorder:  recorder,
		logger:    logger,
	}
}

// Deliver sends alerts in order.
func (d *Dispatcher) Deliver(alerts []alert.Alert) {
	for _, a := range alerts {
		switch a.Kind {
		case alert.KindBanner:
			d.transport.Banner(a)
			d.record(a)
			d.logger.Info("banner", zap.String("action", string(a.Action)), zap.String("body", a.Body))

		case alert.KindNotification:
			if !d.toggles.AlertsEnabled() {
				if d.recorder != nil {
					d.recorder.RecordSuppressed(a.Source)
				}
				d.logger.Debug("notification dropped, alerts disabled",
					zap.String("title", a.Title), zap.String("source", a.Source))
				continue
			}
			d.transport.Notify(a)
			if a.Urgent && d.toggles.SpeechEnabled() {
				d.transport.Speak(Utterance(a))
			}
			d.record(a)
			d.logger.Info("notification",
				zap.String("title", a.Title),
				zap.String("body", a.Body),
				zap.String("tag", a.Tag()))

		default:
			d.logger.Warn("unknown alert kind", zap.String("kind", string(a.Kind)))
		}
	}
}

func (d *Dispatcher) record(a alert.Alert) {
	if d.recorder != nil {
		d.recorder.RecordAlert(string(a.Kind), a.Source)
	}
}

// Utterance is the spoken form of an alert.
func Utterance(a alert.Alert) string {
	return a.Title + ". " + a.Body
}
