// Package worker runs the per-item vetting pipeline across an ordered batch
// with bounded concurrency, per-item failure isolation and live progress
// reporting.
package worker

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Craigmindset/prevetta/internal/metrics"
	"github.com/Craigmindset/prevetta/internal/model"
)

// Vetter processes one item to a terminal result.
type Vetter interface {
	VetItem(ctx context.Context, item model.Item) (*model.ItemResult, error)
}

// Orchestrator fans a batch out over a bounded set of workers. Results are
// written by submission index so the output order always matches input
// order even when completion order differs; the progress counter is the
// only shared mutable state and is updated under a single lock.
type Orchestrator struct {
	vetter      Vetter
	concurrency int
	progress    model.ProgressFunc
}

// NewOrchestrator creates an orchestrator. A nil progress func disables
// progress reporting.
func NewOrchestrator(vetter Vetter, concurrency int, progress model.ProgressFunc) *Orchestrator {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Orchestrator{vetter: vetter, concurrency: concurrency, progress: progress}
}

// RunBatch processes every item to a terminal outcome. A failure for item i
// yields a synthetic error verdict for that item only and never halts items
// i+1..n. When ctx is cancelled, not-yet-started items are not dispatched
// (no classifier calls are issued for them) but still receive terminal
// outcomes; in-flight items are allowed to complete.
func (o *Orchestrator) RunBatch(ctx context.Context, items []model.Item) *model.BatchRun {
	run := model.NewBatchRun(len(items))
	if len(items) == 0 {
		return run
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex // guards run.Completed and the progress callback
		semaphore = make(chan struct{}, o.concurrency)
	)

	complete := func(idx int, result model.ItemResult) {
		run.Results[idx] = result
		mu.Lock()
		run.Completed++
		completed := run.Completed
		mu.Unlock()
		if o.progress != nil {
			o.progress(completed, run.Total)
		}
		metrics.VerdictsTotal.WithLabelValues(string(result.Verdict.Status)).Inc()
	}

	for i, item := range items {
		wg.Add(1)
		go func(idx int, it model.Item) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				complete(idx, syntheticErrorResult(it, "batch cancelled before item was processed"))
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			if ctx.Err() != nil {
				complete(idx, syntheticErrorResult(it, "batch cancelled before item was processed"))
				return
			}

			metrics.BatchItemsInFlight.Inc()
			defer metrics.BatchItemsInFlight.Dec()

			complete(idx, o.vetOne(ctx, it))
		}(i, item)
	}

	wg.Wait()
	return run
}

// vetOne runs one item through the pipeline, converting any error or panic
// into a synthetic error verdict at the item-task boundary.
func (o *Orchestrator) vetOne(ctx context.Context, item model.Item) (result model.ItemResult) {
	defer func() {
		if r := recover(); r != nil {
			result = syntheticErrorResult(item, fmt.Sprintf("internal error: %v", r))
		}
	}()

	res, err := o.vetter.VetItem(ctx, item)
	if err != nil {
		return syntheticErrorResult(item, err.Error())
	}
	return *res
}

// ScriptFallback wraps free-form script text as the single synthetic item
// of a batch, used when a bulk caller submits zero files but non-empty
// script content.
func ScriptFallback(items []model.Item, script string, campaign model.CampaignType) []model.Item {
	if len(items) > 0 || strings.TrimSpace(script) == "" {
		return items
	}
	return []model.Item{model.NewScriptItem(script, campaign)}
}

// syntheticErrorResult is the terminal outcome for an item whose processing
// failed outright: score 0, status error, one high-severity system issue.
func syntheticErrorResult(item model.Item, detail string) model.ItemResult {
	return model.ItemResult{
		ItemID:   item.ID,
		FileName: item.Name,
		FileType: item.ContentType,
		FileSize: item.Size,
		Verdict: model.ComplianceVerdict{
			Score:  0,
			Status: model.StatusError,
			Issues: []model.Issue{{
				Type:     model.IssueSystem,
				Severity: model.SeverityHigh,
				Message:  fmt.Sprintf("Failed to analyze %s: %s", item.Name, detail),
			}},
			Recommendations: []string{"Check file format", "Try re-uploading the file"},
			CopyrightIssues: []model.CopyrightIssue{},
			Summary:         "Analysis could not be completed",
		},
	}
}
