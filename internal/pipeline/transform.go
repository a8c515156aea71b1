package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/mission-service/internal/domain"
	"github.com/couchcryptid/mission-service/internal/observability"
)

// RoutePlanner computes the ordered route from origin to destination through waypoint.
// It returns an empty slice when there is no route.
type RoutePlanner interface {
	GetDirections(ctx context.Context, origin, destination, waypoint domain.Location) ([]domain.MissionStep, error)
}

// MissionStore upserts mission snapshots by mission key.
type MissionStore interface {
	Put(ctx context.Context, mission *domain.Mission) error
}

// Stages that can fail after a command has been accepted and validated.
const (
	stageEnrich  = "enrich"
	stagePersist = "persist"
	stageEmit    = "emit"
)

// stageError is a collaborator or encoding failure for an accepted mission.
type stageError struct {
	stage      string
	incidentID string
	err        error
}

func (e *stageError) Error() string {
	return fmt.Sprintf("%s mission %s: %v", e.stage, e.incidentID, e.err)
}

func (e *stageError) Unwrap() error { return e.err }

// MissionTransformer turns CreateMissionCommand messages into MissionStartedEvents.
// It keeps no state between calls.
type MissionTransformer struct {
	planner RoutePlanner
	store   MissionStore
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewTransformer creates a MissionTransformer.
func NewTransformer(planner RoutePlanner, store MissionStore, logger *slog.Logger, metrics *observability.Metrics) *MissionTransformer {
	return &MissionTransformer{planner: planner, store: store, logger: logger, metrics: metrics}
}

// Process transforms one inbound payload. It returns false whenever no event
// should be emitted; the cause is logged and counted but never returned.
func (t *MissionTransformer) Process(ctx context.Context, payload []byte) (domain.OutputEvent, bool) {
	out, err := t.transform(ctx, payload)
	if err == nil {
		t.metrics.CommandOutcomes.WithLabelValues(observability.OutcomeEmitted).Inc()
		return out, true
	}

	var rejection *domain.RejectionError
	var fault *stageError
	switch {
	case errors.Is(err, domain.ErrMessageIgnored):
		t.logger.Debug("message ignored", "reason", err.Error())
		t.metrics.CommandOutcomes.WithLabelValues(observability.OutcomeIgnored).Inc()
	case errors.As(err, &rejection):
		attrs := []any{"reason", rejection.Reason}
		if rejection.Err != nil {
			attrs = append(attrs, "error", rejection.Err)
		}
		t.logger.Warn("invalid mission command, ignoring", attrs...)
		t.metrics.CommandOutcomes.WithLabelValues(observability.OutcomeRejected).Inc()
	case errors.Is(err, context.Canceled) && errors.As(err, &fault):
		t.logger.Info("mission processing interrupted",
			"stage", fault.stage,
			"incident_id", fault.incidentID,
		)
		t.metrics.CommandOutcomes.WithLabelValues(observability.OutcomeCancelled).Inc()
	case errors.As(err, &fault):
		t.logger.Error("mission processing failed",
			"stage", fault.stage,
			"incident_id", fault.incidentID,
			"error", fault.err,
		)
		t.metrics.CommandOutcomes.WithLabelValues(observability.OutcomeFailed).Inc()
	default:
		t.logger.Error("mission processing failed", "error", err)
		t.metrics.CommandOutcomes.WithLabelValues(observability.OutcomeFailed).Inc()
	}
	return domain.OutputEvent{}, false
}

func (t *MissionTransformer) transform(ctx context.Context, payload []byte) (domain.OutputEvent, error) {
	body, err := domain.AcceptCommand(payload)
	if err != nil {
		return domain.OutputEvent{}, err
	}

	mission, err := domain.ParseCreateMissionCommand(body)
	if err != nil {
		return domain.OutputEvent{}, err
	}
	t.logger.Debug("processing mission command",
		"incident_id", mission.IncidentID,
		"responder_id", mission.ResponderID,
	)

	mission.Status = domain.StatusCreated

	fail := func(stage string, err error) (domain.OutputEvent, error) {
		return domain.OutputEvent{}, &stageError{stage: stage, incidentID: mission.IncidentID, err: err}
	}

	if err := ctx.Err(); err != nil {
		return fail(stageEnrich, err)
	}
	// Waypoint is the incident: the responder drives there first, then on to the destination.
	steps, err := t.planner.GetDirections(ctx,
		mission.ResponderStartLocation,
		mission.DestinationLocation,
		mission.IncidentLocation,
	)
	if err != nil {
		return fail(stageEnrich, err)
	}
	if err := mission.AddSteps(steps); err != nil {
		return fail(stageEnrich, err)
	}

	if err := ctx.Err(); err != nil {
		return fail(stagePersist, err)
	}
	if err := t.store.Put(ctx, mission); err != nil {
		return fail(stagePersist, err)
	}

	if err := ctx.Err(); err != nil {
		return fail(stageEmit, err)
	}
	out, err := domain.NewMissionStartedEvent(mission)
	if err != nil {
		return fail(stageEmit, err)
	}
	return out, nil
}
