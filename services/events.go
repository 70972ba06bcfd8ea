package services

// Event types pushed to clients watching a session.
const (
	EventRoundCreated   = "ROUND_CREATED"
	EventRoundActivated = "ROUND_ACTIVATED"
	EventRoundCompleted = "ROUND_COMPLETED"
	EventRoundDiscarded = "ROUND_DISCARDED"
	EventPoolCreated    = "POOL_CREATED"
	EventMatchScored    = "MATCH_SCORED"
	EventMatchRecorded  = "MATCH_RECORDED"
)

// EventPublisher delivers session events to live subscribers. Publish must not
// block the caller.
type EventPublisher interface {
	Publish(sessionID int, eventType string, payload interface{})
}

type noopPublisher struct{}

func (noopPublisher) Publish(int, string, interface{}) {}

func publisherOrNoop(p EventPublisher) EventPublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}
