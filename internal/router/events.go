package router

import "time"

// EventKind is the shape of an inbound chat event.
type EventKind int

const (
	EventUnknown EventKind = iota
	EventFollow
	EventMessage
	EventPostback
)

func (k EventKind) String() string {
	switch k {
	case EventFollow:
		return "follow"
	case EventMessage:
		return "message"
	case EventPostback:
		return "postback"
	default:
		return "unknown"
	}
}

// Event is a transport-neutral view of one webhook event.
type Event struct {
	ID         string
	Kind       EventKind
	ReplyToken string
	LineUserID string
	Timestamp  time.Time

	// MessageType is "text", "image", "sticker" and so on for EventMessage.
	MessageType string
	Text        string

	// PostbackData is the raw query-string payload of EventPostback.
	PostbackData string
}
