package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/couchcryptid/mission-service/internal/domain"
	"github.com/couchcryptid/mission-service/internal/observability"
)

const schema = `CREATE TABLE IF NOT EXISTS missions (
	incident_id                TEXT PRIMARY KEY,
	responder_id               TEXT NOT NULL,
	responder_start_lat        NUMERIC NOT NULL,
	responder_start_long       NUMERIC NOT NULL,
	incident_lat               NUMERIC NOT NULL,
	incident_long              NUMERIC NOT NULL,
	destination_lat            NUMERIC NOT NULL,
	destination_long           NUMERIC NOT NULL,
	status                     TEXT NOT NULL,
	steps                      JSONB NOT NULL,
	responder_location_history JSONB NOT NULL,
	process_id                 TEXT NOT NULL DEFAULT '',
	updated_at                 TIMESTAMPTZ NOT NULL
)`

const upsertMission = `INSERT INTO missions (
	incident_id, responder_id,
	responder_start_lat, responder_start_long,
	incident_lat, incident_long,
	destination_lat, destination_long,
	status, steps, responder_location_history, process_id, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (incident_id) DO UPDATE SET
	responder_id = EXCLUDED.responder_id,
	responder_start_lat = EXCLUDED.responder_start_lat,
	responder_start_long = EXCLUDED.responder_start_long,
	incident_lat = EXCLUDED.incident_lat,
	incident_long = EXCLUDED.incident_long,
	destination_lat = EXCLUDED.destination_lat,
	destination_long = EXCLUDED.destination_long,
	status = EXCLUDED.status,
	steps = EXCLUDED.steps,
	responder_location_history = EXCLUDED.responder_location_history,
	process_id = EXCLUDED.process_id,
	updated_at = EXCLUDED.updated_at`

// MissionStore upserts mission snapshots into the missions table.
type MissionStore struct {
	db      *sql.DB
	metrics *observability.Metrics
	now     func() time.Time
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return db, nil
}

// NewMissionStore creates a MissionStore on an open database.
func NewMissionStore(db *sql.DB, metrics *observability.Metrics) *MissionStore {
	return &MissionStore{db: db, metrics: metrics, now: time.Now}
}

// EnsureSchema creates the missions table if it does not exist.
func (s *MissionStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create missions table: %w", err)
	}
	return nil
}

// Put upserts the mission keyed by its incident id.
func (s *MissionStore) Put(ctx context.Context, m *domain.Mission) error {
	steps, err := json.Marshal(nonNil(m.Steps))
	if err != nil {
		return fmt.Errorf("encode steps: %w", err)
	}
	history, err := json.Marshal(nonNil(m.ResponderLocationHistory))
	if err != nil {
		return fmt.Errorf("encode location history: %w", err)
	}

	_, err = s.db.ExecContext(ctx, upsertMission,
		m.Key(), m.ResponderID,
		m.ResponderStartLocation.Lat(), m.ResponderStartLocation.Long(),
		m.IncidentLocation.Lat(), m.IncidentLocation.Long(),
		m.DestinationLocation.Lat(), m.DestinationLocation.Long(),
		string(m.Status), steps, history, m.ProcessID, s.now().UTC(),
	)
	if err != nil {
		s.metrics.StoreWrites.WithLabelValues("error").Inc()
		return fmt.Errorf("upsert mission %s: %w", m.Key(), err)
	}
	s.metrics.StoreWrites.WithLabelValues("success").Inc()
	return nil
}

// Name identifies the store in readiness checks.
func (s *MissionStore) Name() string { return "postgres" }

// Check pings the database.
func (s *MissionStore) Check(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
