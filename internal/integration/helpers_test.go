//go:build integration

package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	tcKafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

// startKafka spins up a Kafka container and returns the broker address.
// The container is terminated via t.Cleanup.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	kc, err := tcKafka.Run(ctx, "confluentinc/confluent-local:7.6.0")
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = kc.Terminate(context.Background()) })

	brokers, err := kc.Brokers(ctx)
	require.NoError(t, err, "get kafka brokers")
	return brokers[0]
}

// createTopics creates single-partition topics through the cluster controller.
func createTopics(t *testing.T, broker string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial kafka for topic creation")
	defer func() { _ = conn.Close() }()

	controller, err := conn.Controller()
	require.NoError(t, err, "get controller")
	cc, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer func() { _ = cc.Close() }()

	configs := make([]kafkago.TopicConfig, 0, len(topics))
	for _, topic := range topics {
		configs = append(configs, kafkago.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1})
	}
	require.NoError(t, cc.CreateTopics(configs...), "create topics")
}

// produce writes raw payloads to topic in order.
func produce(ctx context.Context, t *testing.T, broker, topic string, payloads ...[]byte) {
	t.Helper()
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(broker),
		Topic:                  topic,
		Balancer:               &kafkago.LeastBytes{},
		AllowAutoTopicCreation: false,
	}
	defer func() { _ = w.Close() }()

	msgs := make([]kafkago.Message, 0, len(payloads))
	for _, p := range payloads {
		msgs = append(msgs, kafkago.Message{Value: p})
	}
	require.NoError(t, w.WriteMessages(ctx, msgs...), "produce to %s", topic)
}

// readEvent reads the next message from the sink topic using a throwaway group.
func readEvent(ctx context.Context, t *testing.T, broker, topic string) kafkago.Message {
	t.Helper()
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       topic,
		GroupID:     fmt.Sprintf("integration-test-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = r.Close() }()

	readCtx, cancel := context.WithTimeout(ctx, 45*time.Second)
	defer cancel()
	msg, err := r.ReadMessage(readCtx)
	require.NoError(t, err, "read from %s", topic)
	return msg
}

// fixture loads the sample CreateMissionCommand shared with the pipeline tests.
func fixture(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("../pipeline/testdata/create_mission_command.json")
	require.NoError(t, err, "read fixture")
	return data
}

// decode unmarshals an event envelope keeping numbers exact.
func decode(t *testing.T, value []byte) map[string]any {
	t.Helper()
	dec := json.NewDecoder(bytes.NewReader(value))
	dec.UseNumber()
	var out map[string]any
	require.NoError(t, dec.Decode(&out))
	return out
}

// discardLogger returns a logger that discards all output.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
