// Package pipeline runs one item through the complete vetting flow:
// normalize, classifier fan-out, fusion, aggregation, assembly.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/Craigmindset/prevetta/internal/cache"
	"github.com/Craigmindset/prevetta/internal/classifier"
	"github.com/Craigmindset/prevetta/internal/fusion"
	"github.com/Craigmindset/prevetta/internal/metrics"
	"github.com/Craigmindset/prevetta/internal/model"
	"github.com/Craigmindset/prevetta/internal/normalize"
	"github.com/Craigmindset/prevetta/internal/worker"
)

// Pipeline wires the vetting stages together.
type Pipeline struct {
	normalizer  *normalize.Normalizer
	classifiers *classifier.Set
	engine      *fusion.Engine
	limiter     *worker.Limiter
	verdicts    *cache.VerdictCache
	config      *model.Config
}

// New creates a pipeline with the given configuration.
func New(cfg *model.Config) *Pipeline {
	return &Pipeline{
		normalizer:  normalize.New(cfg.Limits.MaxPayloadBytes),
		classifiers: classifier.NewSet(cfg.OpenAI),
		engine:      fusion.NewEngine(),
		limiter:     worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize),
		verdicts:    cache.FromConfig(cfg.Cache),
		config:      cfg,
	}
}

// VetItem processes one item to a terminal result. Input errors (oversized
// payload, missing transcript) return before any classifier is invoked.
func (p *Pipeline) VetItem(ctx context.Context, item model.Item) (*model.ItemResult, error) {
	if cached, found := p.verdicts.Get(item); found {
		return cached, nil
	}

	route, err := p.normalizer.Normalize(item)
	if err != nil {
		return nil, err
	}

	verdicts := p.fanOut(ctx, item, route)

	verdict := p.engine.Fuse(item, route.Kind, verdicts)
	fusion.Aggregate(&verdict)

	result := assemble(item, route, verdicts, verdict)
	p.verdicts.Put(item, result)
	return result, nil
}

// AnalyzeScript vets free-form script content through the text path.
func (p *Pipeline) AnalyzeScript(ctx context.Context, content string, campaign model.CampaignType) (*model.ItemResult, error) {
	return p.VetItem(ctx, model.NewScriptItem(content, campaign))
}

// Transcribe converts an audio item to text via the transcription model.
func (p *Pipeline) Transcribe(ctx context.Context, item model.Item) (string, error) {
	if err := p.limiter.Wait(ctx, "transcriber"); err != nil {
		return "", err
	}
	return p.classifiers.Transcriber.Transcribe(ctx, item)
}

// fanOut dispatches the selected adapters in parallel and joins before
// returning: fusion never fires on a partially-returned parallel call.
// Every selected adapter contributes exactly one verdict, even on failure.
func (p *Pipeline) fanOut(ctx context.Context, item model.Item, route normalize.Route) []*model.ClassifierVerdict {
	type call struct {
		source string
		run    func(ctx context.Context) *model.ClassifierVerdict
	}

	var calls []call
	if route.Moderation {
		calls = append(calls, call{model.SourceModeration, func(ctx context.Context) *model.ClassifierVerdict {
			switch {
			case route.ModerateTranscript:
				return p.classifiers.Moderation.ClassifyText(ctx, item.Transcription)
			case route.Kind == model.MediaImage:
				return p.classifiers.Moderation.ClassifyImage(ctx, item)
			default:
				return p.classifiers.Moderation.ClassifyText(ctx, item.Text())
			}
		}})
	}
	if route.VisionJudge {
		calls = append(calls, call{model.SourceVisionJudge, func(ctx context.Context) *model.ClassifierVerdict {
			return p.classifiers.Vision.Judge(ctx, item)
		}})
	}
	if route.Generative {
		calls = append(calls, call{model.SourceGenerative, func(ctx context.Context) *model.ClassifierVerdict {
			return p.classifiers.Generative.Analyze(ctx, item.Text(), item.Campaign)
		}})
	}
	if len(calls) == 0 {
		return nil
	}

	verdicts := make([]*model.ClassifierVerdict, len(calls))
	var wg sync.WaitGroup
	for i, c := range calls {
		wg.Add(1)
		go func(idx int, c call) {
			defer wg.Done()
			verdicts[idx] = p.invoke(ctx, c.source, c.run)
		}(i, c)
	}
	wg.Wait()
	return verdicts
}

// invoke wraps one adapter call with rate limiting and instrumentation.
func (p *Pipeline) invoke(ctx context.Context, source string, run func(ctx context.Context) *model.ClassifierVerdict) *model.ClassifierVerdict {
	if err := p.limiter.Wait(ctx, source); err != nil {
		v := model.FailedVerdict(source, model.CodeTimeout)
		metrics.ClassifierCallsTotal.WithLabelValues(source, string(v.State)).Inc()
		return v
	}

	start := time.Now()
	v := run(ctx)
	metrics.ClassifierLatency.WithLabelValues(source).Observe(time.Since(start).Seconds())
	metrics.ClassifierCallsTotal.WithLabelValues(source, string(v.State)).Inc()
	return v
}
