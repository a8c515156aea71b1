//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kafkaadapter "github.com/couchcryptid/mission-service/internal/adapter/kafka"
	"github.com/couchcryptid/mission-service/internal/adapter/memory"
	"github.com/couchcryptid/mission-service/internal/config"
	"github.com/couchcryptid/mission-service/internal/domain"
	"github.com/couchcryptid/mission-service/internal/observability"
	"github.com/couchcryptid/mission-service/internal/pipeline"
)

const (
	sourceTopic = "topic-mission-command"
	sinkTopic   = "topic-mission-event"
)

func TestKafkaPipeline_Integration(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopics(t, broker, sourceTopic, sinkTopic)

	// Noise ahead of the valid command must be consumed without output.
	produce(ctx, t, broker, sourceTopic,
		[]byte(`not json`),
		[]byte(`{"messageType":"UpdateMissionCommand","body":{}}`),
		[]byte(`{"messageType":"CreateMissionCommand","body":{"incidentId":""}}`),
		fixture(t),
	)

	cfg := &config.Config{
		KafkaBrokers:     []string{broker},
		KafkaSourceTopic: sourceTopic,
		KafkaSinkTopic:   sinkTopic,
		KafkaGroupID:     "mission-service-it",
	}
	logger := discardLogger()
	metrics := observability.NewMetricsForTesting()

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	store := memory.NewMissionStore()

	p := pipeline.New(
		pipeline.NewExtractor(reader, logger),
		pipeline.NewTransformer(memory.RoutePlanner{}, store, logger, metrics),
		pipeline.NewLoader(writer, logger),
		logger, metrics,
	)

	runCtx, stop := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, p.Run(runCtx))
	}()
	t.Cleanup(func() {
		stop()
		wg.Wait()
		_ = reader.Close()
		_ = writer.Close()
	})

	msg := readEvent(ctx, t, broker, sinkTopic)

	assert.Equal(t, "incident123", string(msg.Key))
	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, domain.MissionStartedEvent, headers["messageType"])
	assert.Equal(t, domain.InvokingService, headers["invokingService"])

	event := decode(t, msg.Value)
	assert.Equal(t, domain.MissionStartedEvent, event["messageType"])
	assert.Equal(t, domain.InvokingService, event["invokingService"])
	assert.NotEmpty(t, event["id"])

	body, ok := event["body"].(map[string]any)
	require.True(t, ok, "body must be an object")
	assert.Equal(t, "incident123", body["incidentId"])
	assert.Equal(t, "responder123", body["responderId"])
	assert.Equal(t, string(domain.StatusCreated), body["status"])
	assert.Equal(t, "0", body["processId"])
	assert.Equal(t, []any{}, body["steps"])
	assert.Equal(t, []any{}, body["responderLocationHistory"])
	assert.Equal(t, json.Number("30.12345"), body["incidentLat"])
	assert.Equal(t, json.Number("-90.98765"), body["destinationLong"])

	require.Eventually(t, func() bool { return store.Len() == 1 }, 5*time.Second, 50*time.Millisecond)
	stored, ok := store.Get("incident123")
	require.True(t, ok)
	assert.Equal(t, domain.StatusCreated, stored.Status)
	assert.Eventually(t, p.Ready, 5*time.Second, 50*time.Millisecond)
}
