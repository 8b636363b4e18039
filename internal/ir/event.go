package ir

import "fmt"

// Event is the value object b-threads synchronize on: a name plus an
// optional opaque payload. Two events are equal when their names are equal
// and either both carry no payload or their payloads canonically marshal
// to the same bytes.
type Event struct {
	Name    string
	Payload IRValue // nil when the event carries no payload
}

// NewEvent constructs an Event with no payload.
func NewEvent(name string) Event {
	return Event{Name: name}
}

// NewEventWithPayload constructs an Event carrying an opaque payload.
func NewEventWithPayload(name string, payload IRValue) Event {
	return Event{Name: name, Payload: payload}
}

// String renders the event for logs and trace output.
func (e Event) String() string {
	if e.Payload == nil {
		return e.Name
	}
	b, err := MarshalCanonical(e.Payload)
	if err != nil {
		return fmt.Sprintf("%s(<unmarshalable payload: %v>)", e.Name, err)
	}
	return fmt.Sprintf("%s(%s)", e.Name, b)
}

// Equal reports whether e and other identify the same event: same name,
// and payloads that are both absent or canonically identical.
func (e Event) Equal(other Event) bool {
	if e.Name != other.Name {
		return false
	}
	if (e.Payload == nil) != (other.Payload == nil) {
		return false
	}
	if e.Payload == nil {
		return true
	}
	a, errA := MarshalCanonical(e.Payload)
	b, errB := MarshalCanonical(other.Payload)
	if errA != nil || errB != nil {
		return false
	}
	return string(a) == string(b)
}

// Hash returns a content-addressed identity for the event, suitable for use
// as a map key or for snapshot-deduplication by model-checking layers.
func (e Event) Hash() string {
	return MustEventHash(e)
}
