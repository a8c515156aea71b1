package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Message types exchanged with the incident process.
const (
	CreateMissionCommand = "CreateMissionCommand"
	MissionStartedEvent  = "MissionStartedEvent"
)

// AcceptCommand parses an inbound message and returns its body when the
// messageType is CreateMissionCommand. Anything else wraps ErrMessageIgnored.
func AcceptCommand(payload []byte) (json.RawMessage, error) {
	var msg struct {
		MessageType *string         `json:"messageType"`
		Body        json.RawMessage `json:"body"`
	}
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, fmt.Errorf("%w: not a JSON message: %v", ErrMessageIgnored, err)
	}
	if msg.MessageType == nil {
		return nil, fmt.Errorf("%w: missing messageType", ErrMessageIgnored)
	}
	if *msg.MessageType != CreateMissionCommand {
		return nil, fmt.Errorf("%w: unsupported messageType %q", ErrMessageIgnored, *msg.MessageType)
	}
	body := bytes.TrimSpace(msg.Body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil, fmt.Errorf("%w: missing body", ErrMessageIgnored)
	}
	return msg.Body, nil
}

// createMissionBody is the body of a CreateMissionCommand. Coordinates arrive as
// decimal strings; NullDecimal records whether each one was present.
type createMissionBody struct {
	IncidentID         string              `json:"incidentId"`
	ResponderID        string              `json:"responderId"`
	ResponderStartLat  decimal.NullDecimal `json:"responderStartLat"`
	ResponderStartLong decimal.NullDecimal `json:"responderStartLong"`
	IncidentLat        decimal.NullDecimal `json:"incidentLat"`
	IncidentLong       decimal.NullDecimal `json:"incidentLong"`
	DestinationLat     decimal.NullDecimal `json:"destinationLat"`
	DestinationLong    decimal.NullDecimal `json:"destinationLong"`
	ProcessID          string              `json:"processId"`
}

type bodyCheck struct {
	reason string
	passes func(b *createMissionBody) bool
}

// bodyChecks run in order; the first failure rejects the command.
var bodyChecks = []bodyCheck{
	{"incidentId is blank", func(b *createMissionBody) bool {
		return strings.TrimSpace(b.IncidentID) != ""
	}},
	{"responderId is blank", func(b *createMissionBody) bool {
		return strings.TrimSpace(b.ResponderID) != ""
	}},
	{"incident location is incomplete", func(b *createMissionBody) bool {
		return b.IncidentLat.Valid && b.IncidentLong.Valid
	}},
	{"responder start location is incomplete", func(b *createMissionBody) bool {
		return b.ResponderStartLat.Valid && b.ResponderStartLong.Valid
	}},
	{"destination location is incomplete", func(b *createMissionBody) bool {
		return b.DestinationLat.Valid && b.DestinationLong.Valid
	}},
	{"incident location is out of range", func(b *createMissionBody) bool {
		return validCoordinates(b.IncidentLat.Decimal, b.IncidentLong.Decimal)
	}},
	{"responder start location is out of range", func(b *createMissionBody) bool {
		return validCoordinates(b.ResponderStartLat.Decimal, b.ResponderStartLong.Decimal)
	}},
	{"destination location is out of range", func(b *createMissionBody) bool {
		return validCoordinates(b.DestinationLat.Decimal, b.DestinationLong.Decimal)
	}},
}

const maxCoordinateScale = 15

var (
	maxLatitude  = decimal.NewFromInt(90)
	maxLongitude = decimal.NewFromInt(180)
)

func validCoordinates(lat, long decimal.Decimal) bool {
	return withinBound(lat, maxLatitude) && withinBound(long, maxLongitude)
}

// withinBound reports whether |d| <= bound with at most maxCoordinateScale
// decimal places. The exponent is checked first: decimal accepts exponents up
// to 2^31 and rescaling such a value allocates one digit per unit of exponent.
func withinBound(d, bound decimal.Decimal) bool {
	exp := d.Exponent()
	if exp < -maxCoordinateScale || exp > 2 {
		return false
	}
	return d.Abs().LessThanOrEqual(bound)
}

// ParseCreateMissionCommand decodes and validates a CreateMissionCommand body
// into a fresh Mission with empty steps and location history. Failures are
// returned as *RejectionError.
func ParseCreateMissionCommand(body []byte) (*Mission, error) {
	var b createMissionBody
	if err := json.Unmarshal(body, &b); err != nil {
		return nil, &RejectionError{Reason: "malformed body", Err: err}
	}
	for _, check := range bodyChecks {
		if !check.passes(&b) {
			return nil, &RejectionError{Reason: check.reason}
		}
	}

	return &Mission{
		IncidentID:               b.IncidentID,
		ResponderID:              b.ResponderID,
		ResponderStartLocation:   NewLocation(b.ResponderStartLat.Decimal, b.ResponderStartLong.Decimal),
		IncidentLocation:         NewLocation(b.IncidentLat.Decimal, b.IncidentLong.Decimal),
		DestinationLocation:      NewLocation(b.DestinationLat.Decimal, b.DestinationLong.Decimal),
		Steps:                    []MissionStep{},
		ResponderLocationHistory: []Location{},
		ProcessID:                b.ProcessID,
	}, nil
}
