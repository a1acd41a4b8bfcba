package domain

// EventType tags a stream event.
type EventType string

const (
	EventProgress EventType = "progress"
	EventResult   EventType = "result"
	EventError    EventType = "error"
	EventComplete EventType = "complete"
	EventDone     EventType = "done"
)

// Event is one item pushed to a generation stream. Field names follow the
// browser client contract.
type Event struct {
	Type      EventType `json:"type"`
	StyleID   string    `json:"styleId,omitempty"`
	StyleName string    `json:"styleName,omitempty"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	Message   string    `json:"error,omitempty"`
}

func ProgressEvent(styleID string) Event {
	return Event{Type: EventProgress, StyleID: styleID}
}

func ResultEvent(styleID, styleName, imageURL string) Event {
	return Event{Type: EventResult, StyleID: styleID, StyleName: styleName, ImageURL: imageURL}
}

func ErrorEvent(styleID, message string) Event {
	return Event{Type: EventError, StyleID: styleID, Message: message}
}

func CompleteEvent(styleID string) Event {
	return Event{Type: EventComplete, StyleID: styleID}
}

func DoneEvent() Event {
	return Event{Type: EventDone}
}
