// Package generation runs a validated request through the image model one
// style at a time and reports progress as a stream of events.
package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"

	"headshot/internal/domain"
	"headshot/internal/imagegen"
	"headshot/internal/infra"
	"headshot/internal/metrics"
	"headshot/internal/providers/image"
	"headshot/internal/storage"
)

// Emitter receives events in order. A non-nil error means the consumer is
// gone and the run must stop.
type Emitter func(domain.Event) error

// ResultSink stores a generated image and returns its public reference.
type ResultSink interface {
	Put(ctx context.Context, requestID, styleID string, data []byte, mime string) (storage.StoredResult, error)
}

// Options tunes an Orchestrator.
type Options struct {
	// MinInterval spaces consecutive model calls. Zero disables pacing.
	MinInterval time.Duration
	Logger      *infra.Logger
	GearForYear func(int) imagegen.GearPreset
}

// Orchestrator is safe for concurrent use; each Run is independent.
type Orchestrator struct {
	styles      domain.StyleLookup
	generator   image.Generator
	results     ResultSink
	minInterval time.Duration
	gearFor     func(int) imagegen.GearPreset
	logger      zerolog.Logger
}

func New(styles domain.StyleLookup, generator image.Generator, results ResultSink, opts Options) *Orchestrator {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	gearFor := opts.GearForYear
	if gearFor == nil {
		gearFor = imagegen.GearForYear
	}
	return &Orchestrator{
		styles:      styles,
		generator:   generator,
		results:     results,
		minInterval: opts.MinInterval,
		gearFor:     gearFor,
		logger:      logger,
	}
}

// Run processes every style of req in order. For each style it emits
// Progress, then Result and Complete or a single Error; a final Done follows
// the last style. A failed style never stops its siblings. When ctx is
// cancelled or emit fails, Run stops without further model calls and
// returns domain.ErrStreamClosed.
func (o *Orchestrator) Run(ctx context.Context, req *domain.GenerationRequest, emit Emitter) error {
	log := o.logger.With().Str("request_id", req.ID).Logger()
	metrics.RequestsInFlight.Inc()
	defer metrics.RequestsInFlight.Dec()

	var pacer *rate.Limiter
	if o.minInterval > 0 {
		pacer = rate.NewLimiter(rate.Every(o.minInterval), 1)
	}

	gear := o.gearFor(req.Year)
	start := time.Now()
	var failed int
	for i, styleID := range req.StyleIDs {
		if err := ctx.Err(); err != nil {
			return o.closed(log, styleID, err)
		}
		if err := emit(domain.ProgressEvent(styleID)); err != nil {
			return o.closed(log, styleID, err)
		}

		if pacer != nil {
			if err := pacer.Wait(ctx); err != nil {
				return o.closed(log, styleID, err)
			}
		}

		t := task{index: i, styleID: styleID, req: req, gear: gear}
		out := o.runTask(ctx, t)
		if out.err != nil && ctx.Err() != nil {
			metrics.GenerationTotal.WithLabelValues(styleID, metrics.OutcomeCanceled).Inc()
			return o.closed(log, styleID, ctx.Err())
		}

		if out.err != nil {
			failed++
			log.Warn().Err(out.err).Str("style_id", styleID).Msg("style generation failed")
			if err := emit(domain.ErrorEvent(styleID, userMessage(out.err))); err != nil {
				return o.closed(log, styleID, err)
			}
			continue
		}
		if err := emit(domain.ResultEvent(styleID, out.styleName, out.result.URL)); err != nil {
			return o.closed(log, styleID, err)
		}
		if err := emit(domain.CompleteEvent(styleID)); err != nil {
			return o.closed(log, styleID, err)
		}
	}

	if err := emit(domain.DoneEvent()); err != nil {
		return o.closed(log, "", err)
	}
	log.Info().
		Int("styles", len(req.StyleIDs)).
		Int("failed", failed).
		Dur("elapsed", time.Since(start)).
		Msg("generation finished")
	return nil
}

func (o *Orchestrator) closed(log zerolog.Logger, styleID string, cause error) error {
	log.Info().Err(cause).Str("style_id", styleID).Msg("generation stream closed")
	return fmt.Errorf("%w: %v", domain.ErrStreamClosed, cause)
}

// task is the unit of work for one style.
type task struct {
	index   int
	styleID string
	req     *domain.GenerationRequest
	gear    imagegen.GearPreset
}

type taskResult struct {
	styleName string
	result    storage.StoredResult
	err       error
}

func (o *Orchestrator) runTask(ctx context.Context, t task) (out taskResult) {
	ctx, span := infra.StartSpan(ctx, "generation.style")
	span.SetAttributes(
		attribute.String("style.id", t.styleID),
		attribute.Int("style.index", t.index),
		attribute.Int("images.count", len(t.req.Images)),
		attribute.String("face.mode", string(t.req.FaceMode)),
	)
	start := time.Now()
	defer func() {
		metrics.GenerationDuration.WithLabelValues(t.styleID).Observe(time.Since(start).Seconds())
		if out.err != nil {
			span.RecordError(out.err)
			span.SetStatus(codes.Error, out.err.Error())
			if ctx.Err() == nil {
				metrics.GenerationTotal.WithLabelValues(t.styleID, metrics.OutcomeFailure).Inc()
			}
		} else {
			metrics.GenerationTotal.WithLabelValues(t.styleID, metrics.OutcomeSuccess).Inc()
		}
		span.End()
	}()

	style, _ := o.styles.Lookup(t.styleID)
	plan := imagegen.Compose(style, t.req, t.gear)
	name := t.styleID
	if style != nil {
		name = style.DisplayName
	}

	asset, err := o.generate(ctx, image.GenerateRequest{
		RequestID:   t.req.ID,
		StyleID:     t.styleID,
		Prompt:      plan.Prompt,
		Images:      plan.Images,
		AspectRatio: t.req.AspectRatio,
	})
	if err != nil {
		return taskResult{err: &domain.StyleError{StyleID: t.styleID, Err: fmt.Errorf("%w: %w", domain.ErrProviderFailure, err)}}
	}
	if asset == nil || len(asset.Data) == 0 {
		return taskResult{err: &domain.StyleError{StyleID: t.styleID, Err: fmt.Errorf("%w: empty image", domain.ErrProviderFailure)}}
	}

	stored, err := o.results.Put(ctx, t.req.ID, t.styleID, asset.Data, asset.Format)
	if err != nil {
		return taskResult{err: &domain.StyleError{StyleID: t.styleID, Err: fmt.Errorf("store result: %w", err)}}
	}
	return taskResult{styleName: name, result: stored}
}

// errGeneratorPanic replaces a generator panic so its value never reaches
// the client.
var errGeneratorPanic = errors.New("image generator crashed")

func (o *Orchestrator) generate(ctx context.Context, req image.GenerateRequest) (asset *image.Asset, err error) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error().
				Str("request_id", req.RequestID).
				Str("style_id", req.StyleID).
				Interface("panic", r).
				Msg("image generator panicked")
			asset, err = nil, errGeneratorPanic
		}
	}()
	return o.generator.Generate(ctx, req)
}

// userMessage is the text shown to the client for a failed style.
func userMessage(err error) string {
	var styleErr *domain.StyleError
	if errors.As(err, &styleErr) {
		return styleErr.Err.Error()
	}
	return err.Error()
}
