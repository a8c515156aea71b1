package pipeline_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/couchcryptid/mission-service/internal/domain"
	"github.com/stretchr/testify/require"
)

const commandID = "91cf5e82-8135-476d-ade4-5fe00dca2cc6"

type directionsCall struct {
	origin, destination, waypoint domain.Location
}

type stubPlanner struct {
	mu    sync.Mutex
	calls []directionsCall
	steps []domain.MissionStep
	err   error
}

func (p *stubPlanner) GetDirections(_ context.Context, origin, destination, waypoint domain.Location) ([]domain.MissionStep, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, directionsCall{origin: origin, destination: destination, waypoint: waypoint})
	return p.steps, p.err
}

func (p *stubPlanner) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

type recordingStore struct {
	mu   sync.Mutex
	puts []domain.Mission
	err  error
}

func (s *recordingStore) Put(_ context.Context, m *domain.Mission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts = append(s.puts, *m)
	return s.err
}

func (s *recordingStore) putCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.puts)
}

// readCommand returns the fixture command, optionally edited through mutate.
func readCommand(t *testing.T, mutate func(msg map[string]any, body map[string]any)) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "create_mission_command.json"))
	require.NoError(t, err)
	if mutate == nil {
		return data
	}

	var msg map[string]any
	require.NoError(t, json.Unmarshal(data, &msg))
	body, _ := msg["body"].(map[string]any)
	mutate(msg, body)

	out, err := json.Marshal(msg)
	require.NoError(t, err)
	return out
}

type emittedEvent struct {
	ID              string         `json:"id"`
	InvokingService string         `json:"invokingService"`
	Timestamp       int64          `json:"timestamp"`
	MessageType     string         `json:"messageType"`
	Body            map[string]any `json:"body"`
}

func decodeEvent(t *testing.T, value []byte) emittedEvent {
	t.Helper()
	dec := json.NewDecoder(bytes.NewReader(value))
	dec.UseNumber()
	var ev emittedEvent
	require.NoError(t, dec.Decode(&ev))
	return ev
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
