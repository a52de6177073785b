package notify

import (
	"reflect"
	"testing"

	"gexdash/internal/dashboard/alert"
	"gexdash/internal/dashboard/state"

	"go.uber.org/zap"
)

type recordingTransport struct {
	notified []string
	spoken   []string
	banners  []alert.BannerAction
}

func (r *recordingTransport) Notify(a alert.Alert) { r.notified = append(r.notified, a.Title) }
func (r *recordingTransport) Speak(text string)    { r.spoken = append(r.spoken, text) }
func (r *recordingTransport) Banner(a alert.Alert) { r.banners = append(r.banners, a.Action) }

type countingRecorder struct {
	delivered  int
	suppressed int
}

func (c *countingRecorder) RecordAlert(kind, source string) { c.delivered++ }
func (c *countingRecorder) RecordSuppressed(source string)  { c.suppressed++ }

func batch() []alert.Alert {
	return []alert.Alert{
		{Kind: alert.KindNotification, Title: "🟢 BUY SIGNAL", Body: "Entry signal triggered for SPX", Urgent: true, Source: alert.SourceSignal},
		{Kind: alert.KindNotification, Title: "⚠️ CAUTION", Body: "CAUTION: chop", Source: alert.SourceSignal},
		{Kind: alert.KindBanner, Action: alert.BannerShow, Source: alert.SourceBanner},
	}
}

// go test -v --run TestDeliverEnabled
func TestDeliverEnabled(t *testing.T) {
	tr := &recordingTransport{}
	rec := &countingRecorder{}
	d := NewDispatcher(tr, state.NewSettings(true, false, 10), rec, zap.NewNop())

	d.Deliver(batch())

	if !reflect.DeepEqual(tr.notified, []string{"🟢 BUY SIGNAL", "⚠️ CAUTION"}) {
		t.Errorf("notified got %v", tr.notified)
	}
	if len(tr.spoken) != 0 {
		t.Errorf("speech is off by default, got %v", tr.spoken)
	}
	if !reflect.DeepEqual(tr.banners, []alert.BannerAction{alert.BannerShow}) {
		t.Errorf("banners got %v", tr.banners)
	}
	if rec.delivered != 3 || rec.suppressed != 0 {
		t.Errorf("recorder got %+v", rec)
	}
}

// go test -v --run TestDeliverSpeaksUrgentOnly
func TestDeliverSpeaksUrgentOnly(t *testing.T) {
	tr := &recordingTransport{}
	d := NewDispatcher(tr, state.NewSettings(true, true, 10), nil, zap.NewNop())

	d.Deliver(batch())

	want := []string{"🟢 BUY SIGNAL. Entry signal triggered for SPX"}
	if !reflect.DeepEqual(tr.spoken, want) {
		t.Fatalf("spoken got %v want %v", tr.spoken, want)
	}
}

// go test -v --run TestDeliverAlertsDisabled
func TestDeliverAlertsDisabled(t *testing.T) {
	tr := &recordingTransport{}
	rec := &countingRecorder{}
	d := NewDispatcher(tr, state.NewSettings(false, true, 10), rec, zap.NewNop())

	d.Deliver(batch())

	if len(tr.notified) != 0 || len(tr.spoken) != 0 {
		t.Fatalf("gated notifications leaked: %v %v", tr.notified, tr.spoken)
	}
	if len(tr.banners) != 1 {
		t.Fatalf("banner must pass the gate, got %v", tr.banners)
	}
	if rec.suppressed != 2 || rec.delivered != 1 {
		t.Fatalf("recorder got %+v", rec)
	}
}
