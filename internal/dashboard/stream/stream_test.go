package stream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gexdash/internal/dashboard/alert"
	"gexdash/internal/dashboard/controller"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type fakeCommands struct {
	refreshErr error
	refreshes  int
	dismisses  int
}

func (f *fakeCommands) TriggerRefresh(ctx context.Context) error {
	f.refreshes++
	return f.refreshErr
}

func (f *fakeCommands) DismissBanner() { f.dismisses++ }

type recordingBroadcaster struct {
	types []string
	data  []any
}

func (r *recordingBroadcaster) Broadcast(msgType string, v any) {
	r.types = append(r.types, msgType)
	r.data = append(r.data, v)
}

type rawMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func readMessage(t *testing.T, conn *websocket.Conn) rawMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var m rawMessage
	if err := conn.ReadJSON(&m); err != nil {
		t.Fatalf("read: %v", err)
	}
	return m
}

// go test -v --run TestHubRoundTrip
func TestHubRoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	inbound := make(chan []byte, 1)
	hub := NewHub(zap.NewNop(),
		func() Message { return Message{Type: TypeState, Data: map[string]string{"status": "idle"}} },
		func(msg []byte) { inbound <- msg },
		nil)
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if m := readMessage(t, conn); m.Type != TypeState || !strings.Contains(string(m.Data), "idle") {
		t.Fatalf("greeting got %s %s", m.Type, m.Data)
	}

	hub.Broadcast(TypeSpeech, Speech{Text: "hello"})
	m := readMessage(t, conn)
	if m.Type != TypeSpeech || string(m.Data) != `{"text":"hello"}` {
		t.Fatalf("broadcast got %s %s", m.Type, m.Data)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"op":"dismiss"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case msg := <-inbound:
		if string(msg) != `{"op":"dismiss"}` {
			t.Fatalf("inbound got %s", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("inbound message not delivered")
	}
}

// go test -v --run TestCommandHandler
func TestCommandHandler(t *testing.T) {
	cmds := &fakeCommands{}
	handle := MakeCommandHandler(zap.NewNop(), cmds, time.Second)

	handle([]byte(`{"op":"refresh"}`))
	handle([]byte(`{"op":"dismiss"}`))
	handle([]byte(`{"op":"reboot"}`))
	handle([]byte(`not json`))

	if cmds.refreshes != 1 || cmds.dismisses != 1 {
		t.Fatalf("commands got %+v", cmds)
	}

	cmds.refreshErr = controller.ErrThrottled
	handle([]byte(`{"op":"refresh"}`))
	cmds.refreshErr = errors.New("upstream down")
	handle([]byte(`{"op":"refresh"}`))
	if cmds.refreshes != 3 {
		t.Fatalf("refreshes got %d", cmds.refreshes)
	}
}

// go test -v --run TestPublisher
func TestPublisher(t *testing.T) {
	out := &recordingBroadcaster{}
	p := NewPublisher(out)

	p.Notify(alert.Alert{ID: "n1", Kind: alert.KindNotification, Title: "⚠️ CAUTION", Body: "CAUTION", Source: alert.SourceSignal})
	p.Speak("🟢 BUY SIGNAL. Entry signal triggered for SPX")
	p.Banner(alert.Alert{ID: "b1", Kind: alert.KindBanner, Action: alert.BannerShow, Body: "🚀 SPX BUY SIGNAL ACTIVE - BUY", Tone: "buy"})
	p.Status(controller.Status{State: controller.StatusError})
	p.Render(controller.Frame{})

	want := []string{TypeNotification, TypeSpeech, TypeBanner, TypeStatus, TypeRender}
	if strings.Join(out.types, ",") != strings.Join(want, ",") {
		t.Fatalf("types got %v want %v", out.types, want)
	}
	if n := out.data[0].(Notification); n.Tag != "info" || n.Urgent {
		t.Errorf("notification got %+v", n)
	}
	if b := out.data[2].(Banner); b.Action != "show" || b.Tone != "buy" || b.Text == "" {
		t.Errorf("banner got %+v", b)
	}
}
