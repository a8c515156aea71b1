package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// InvokingService identifies this service on every event it emits.
const InvokingService = "MissionService"

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// OutputEvent is the serialized form destined for the sink.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// Envelope is the message wrapper shared by commands and events.
type Envelope struct {
	ID              string `json:"id"`
	InvokingService string `json:"invokingService"`
	Timestamp       int64  `json:"timestamp"`
	MessageType     string `json:"messageType"`
	Body            any    `json:"body"`
}

var clock = clockwork.NewRealClock()

// SetClock swaps the time source for event timestamps. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// NewMissionStartedEvent wraps the mission in a fresh MissionStartedEvent envelope
// keyed by its incident id. The id and timestamp are generated per call.
func NewMissionStartedEvent(m *Mission) (OutputEvent, error) {
	env := Envelope{
		ID:              uuid.NewString(),
		InvokingService: InvokingService,
		Timestamp:       clock.Now().UnixMilli(),
		MessageType:     MissionStartedEvent,
		Body:            m,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize mission started event: %w", err)
	}
	return OutputEvent{
		Key:   []byte(m.IncidentID),
		Value: data,
		Headers: map[string]string{
			"messageType":     MissionStartedEvent,
			"invokingService": InvokingService,
		},
	}, nil
}
