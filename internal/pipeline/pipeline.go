package pipeline

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/couchcryptid/mission-service/internal/domain"
	"github.com/couchcryptid/mission-service/internal/observability"
)

// Extractor reads a single raw command from the source.
type Extractor interface {
	Extract(ctx context.Context) (domain.RawEvent, error)
}

// Transformer converts a raw command payload into at most one output event.
type Transformer interface {
	Process(ctx context.Context, payload []byte) (domain.OutputEvent, bool)
}

// Loader writes an output event to the destination.
type Loader interface {
	Load(ctx context.Context, event domain.OutputEvent) error
}

// Pipeline orchestrates the read-process-write loop.
type Pipeline struct {
	extractor   Extractor
	transformer Transformer
	loader      Loader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
}

// New creates a Pipeline with the given stages and observability.
func New(e Extractor, t Transformer, l Loader, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
	}
}

// Ready reports whether the pipeline has committed at least one message.
func (p *Pipeline) Ready() bool {
	return p.ready.Load()
}

// Run executes the loop until the context is cancelled.
//
// Commands that produce no event are committed like any other: redelivering
// them would only repeat the same rejection or collaborator fault.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started")
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	retry := newRetryBackoff()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		start := time.Now()

		raw, err := p.extractor.Extract(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.logger.Error("extract failed", "error", err)
			if !sleepWithContext(ctx, retry.NextBackOff()) {
				return nil
			}
			continue
		}
		p.metrics.MessagesConsumed.Inc()

		if out, ok := p.transformer.Process(ctx, raw.Value); ok {
			if !p.load(ctx, raw, out, retry) {
				return nil
			}
			p.metrics.MessagesProduced.Inc()
		}

		if raw.Commit != nil {
			if err := raw.Commit(ctx); err != nil {
				p.logger.Warn("commit offset failed", "error", err, "topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
			}
		}

		p.metrics.ProcessingDuration.Observe(time.Since(start).Seconds())
		retry.Reset()
		p.ready.Store(true)
	}
}

// load writes out, retrying the same event until it succeeds. The mission is
// already persisted, so the command is not processed again. Returns false only
// when ctx ends first, leaving the offset uncommitted.
func (p *Pipeline) load(ctx context.Context, raw domain.RawEvent, out domain.OutputEvent, retry backoff.BackOff) bool {
	for {
		err := p.loader.Load(ctx, out)
		if err == nil {
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("load failed",
			"error", err,
			"key", string(out.Key),
			"topic", raw.Topic,
			"partition", raw.Partition,
			"offset", raw.Offset,
		)
		if !sleepWithContext(ctx, retry.NextBackOff()) {
			return false
		}
	}
}

// newRetryBackoff doubles from 200ms up to a 5s ceiling and never gives up.
func newRetryBackoff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0
	bo.Reset()
	return bo
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
