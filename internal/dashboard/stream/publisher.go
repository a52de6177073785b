package stream

import (
	"gexdash/internal/dashboard/alert"
	"gexdash/internal/dashboard/controller"
)

// Broadcaster is satisfied by *Hub.
type Broadcaster interface {
	Broadcast(msgType string, v any)
}

// Publisher adapts a broadcaster to the controller sink and the notification
// transport.
type Publisher struct {
	out Broadcaster
}

func NewPublisher(out Broadcaster) *Publisher {
	return &Publisher{out: out}
}

func (p *Publisher) Render(f controller.Frame) { p.out.Broadcast(TypeRender, f) }

func (p *Publisher) Status(s controller.Status) { p.out.Broadcast(TypeStatus, s) }

func (p *Publisher) Notify(a alert.Alert) {
	p.out.Broadcast(TypeNotification, Notification{
		ID:     a.ID,
		Title:  a.Title,
		Body:   a.Body,
		Urgent: a.Urgent,
		Tag:    a.Tag(),
		Source: a.Source,
	})
}

func (p *Publisher) Speak(text string) { p.out.Broadcast(TypeSpeech, Speech{Text: text}) }

func (p *Publisher) Banner(a alert.Alert) {
	p.out.Broadcast(TypeBanner, Banner{
		ID:     a.ID,
		Action: string(a.Action),
		Text:   a.Body,
		Tone:   a.Tone,
	})
}

type Notification struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	Urgent bool   `json:"urgent"`
	Tag    string `json:"tag"`
	Source string `json:"source"`
}

type Speech struct {
	Text string `json:"text"`
}

type Banner struct {
	ID     string `json:"id"`
	Action string `json:"action"`
	Text   string `json:"text,omitempty"`
	Tone   string `json:"tone,omitempty"`
}
