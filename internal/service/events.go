package service

// Live update event names.
const (
	EventRequestCreated  = "request.created"
	EventRequestExported = "request.exported"
	EventRequestDeleted  = "request.deleted"
)

// EventPublisher fans events out to connected clients.
type EventPublisher interface {
	Publish(event string, data interface{})
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, interface{}) {}

func publisherOrNoop(p EventPublisher) EventPublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}
