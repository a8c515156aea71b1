package memory

import (
	"context"
	"sync"

	"github.com/couchcryptid/mission-service/internal/domain"
)

// MissionStore keeps the latest snapshot of each mission in memory, keyed by
// mission key. Safe for concurrent use.
type MissionStore struct {
	mu       sync.RWMutex
	missions map[string]domain.Mission
}

// NewMissionStore creates an empty MissionStore.
func NewMissionStore() *MissionStore {
	return &MissionStore{missions: make(map[string]domain.Mission)}
}

// Put upserts a copy of the mission.
func (s *MissionStore) Put(_ context.Context, m *domain.Mission) error {
	snapshot := *m
	snapshot.Steps = append([]domain.MissionStep(nil), m.Steps...)
	snapshot.ResponderLocationHistory = append([]domain.Location(nil), m.ResponderLocationHistory...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.missions[m.Key()] = snapshot
	return nil
}

// Get returns the stored snapshot for key.
func (s *MissionStore) Get(key string) (domain.Mission, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.missions[key]
	return m, ok
}

// Len returns the number of stored missions.
func (s *MissionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.missions)
}
