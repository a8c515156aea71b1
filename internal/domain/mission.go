package domain

import "encoding/json"

// MissionStatus is the lifecycle state of a mission.
type MissionStatus string

const (
	StatusCreated   MissionStatus = "CREATED"
	StatusUpdated   MissionStatus = "UPDATED"
	StatusCompleted MissionStatus = "COMPLETED"
)

// MissionStep is one step of a responder's route. WayPoint marks arrival at the
// incident and Destination marks arrival at the final destination.
type MissionStep struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	WayPoint    bool    `json:"wayPoint"`
	Destination bool    `json:"destination"`
}

// Mission is one dispatch of a responder to an incident and on to a destination.
type Mission struct {
	IncidentID               string
	ResponderID              string
	ResponderStartLocation   Location
	IncidentLocation         Location
	DestinationLocation      Location
	Status                   MissionStatus
	Steps                    []MissionStep
	ResponderLocationHistory []Location
	ProcessID                string

	stepsAdded bool
}

// Key identifies the mission in a MissionStore. One mission per incident is assumed.
func (m *Mission) Key() string {
	return m.IncidentID
}

// AddSteps appends the computed route. It may be called once per mission.
func (m *Mission) AddSteps(steps []MissionStep) error {
	if m.stepsAdded {
		return ErrStepsAlreadyAdded
	}
	m.Steps = append(m.Steps, steps...)
	m.stepsAdded = true
	return nil
}

type missionJSON struct {
	IncidentID               string        `json:"incidentId"`
	ResponderID              string        `json:"responderId"`
	ResponderStartLat        json.Number   `json:"responderStartLat"`
	ResponderStartLong       json.Number   `json:"responderStartLong"`
	IncidentLat              json.Number   `json:"incidentLat"`
	IncidentLong             json.Number   `json:"incidentLong"`
	DestinationLat           json.Number   `json:"destinationLat"`
	DestinationLong          json.Number   `json:"destinationLong"`
	Status                   MissionStatus `json:"status"`
	Steps                    []MissionStep `json:"steps"`
	ResponderLocationHistory []Location    `json:"responderLocationHistory"`
	ProcessID                string        `json:"processId"`
}

// MarshalJSON encodes the mission in its flat wire form. Coordinates are JSON
// numbers and both sequences are always arrays, never null.
func (m Mission) MarshalJSON() ([]byte, error) {
	steps := m.Steps
	if steps == nil {
		steps = []MissionStep{}
	}
	history := m.ResponderLocationHistory
	if history == nil {
		history = []Location{}
	}
	return json.Marshal(missionJSON{
		IncidentID:               m.IncidentID,
		ResponderID:              m.ResponderID,
		ResponderStartLat:        number(m.ResponderStartLocation.Lat()),
		ResponderStartLong:       number(m.ResponderStartLocation.Long()),
		IncidentLat:              number(m.IncidentLocation.Lat()),
		IncidentLong:             number(m.IncidentLocation.Long()),
		DestinationLat:           number(m.DestinationLocation.Lat()),
		DestinationLong:          number(m.DestinationLocation.Long()),
		Status:                   m.Status,
		Steps:                    steps,
		ResponderLocationHistory: history,
		ProcessID:                m.ProcessID,
	})
}
