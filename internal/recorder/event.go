package recorder

import (
	"time"

	"github.com/google/uuid"
)

// Kind classifies an outcome event.
type Kind string

const (
	KindQuarantined  Kind = "quarantined"
	KindForwarded    Kind = "forwarded"
	KindReplayed     Kind = "replayed"
	KindReplayFailed Kind = "replay_failed"
)

// Event is one terminal decision about a capture file or flow.
type Event struct {
	ID          uuid.UUID     `json:"id"`
	Time        time.Time     `json:"time"`
	Kind        Kind          `json:"kind"`
	Category    string        `json:"category,omitempty"` // quarantine category
	Files       []string      `json:"files,omitempty"`    // base names in the working directory
	Dest        []string      `json:"dest,omitempty"`     // paths after the move
	Flow        string        `json:"flow,omitempty"`     // client->server of the request direction
	Conn        uint64        `json:"conn,omitempty"`
	RequestLine string        `json:"request_line,omitempty"`
	Artifact    string        `json:"artifact,omitempty"` // replay artifact ID
	Shadow      string        `json:"shadow,omitempty"`   // shadow server address
	Bytes       int64         `json:"bytes,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// NewEvent stamps a new event with an ID and time.
func NewEvent(kind Kind, at time.Time) Event {
	return Event{ID: uuid.New(), Time: at, Kind: kind}
}

// Observer receives events as they happen.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(ev Event) { f(ev) }
