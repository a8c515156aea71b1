package kafka

import (
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"

	"github.com/couchcryptid/mission-service/internal/domain"
)

func TestMapMessageToRawEvent(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("incident123"),
		Value:     []byte(`{"messageType":"CreateMissionCommand"}`),
		Topic:     "topic-mission-command",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte("incident-process")},
		},
	}

	raw := mapMessageToRawEvent(msg)

	assert.Equal(t, []byte("incident123"), raw.Key)
	assert.Equal(t, []byte(`{"messageType":"CreateMissionCommand"}`), raw.Value)
	assert.Equal(t, "topic-mission-command", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "incident-process", raw.Headers["source"])
	assert.Nil(t, raw.Commit)
}

func TestMapOutputEventToMessage(t *testing.T) {
	event := domain.OutputEvent{
		Key:   []byte("incident123"),
		Value: []byte(`{"messageType":"MissionStartedEvent"}`),
		Headers: map[string]string{
			"messageType":     "MissionStartedEvent",
			"invokingService": "MissionService",
		},
	}

	msg := mapOutputEventToMessage(event)

	assert.Equal(t, []byte("incident123"), msg.Key)
	assert.Equal(t, []byte(`{"messageType":"MissionStartedEvent"}`), msg.Value)
	assert.Equal(t, []kafkago.Header{
		{Key: "invokingService", Value: []byte("MissionService")},
		{Key: "messageType", Value: []byte("MissionStartedEvent")},
	}, msg.Headers)
}
