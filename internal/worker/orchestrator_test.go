package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Craigmindset/prevetta/internal/model"
)

// stubVetter returns canned results, failing (or panicking) on configured
// item names.
type stubVetter struct {
	failOn  map[string]bool
	panicOn map[string]bool
	delay   time.Duration

	mu      sync.Mutex
	started []string
}

func (s *stubVetter) VetItem(ctx context.Context, item model.Item) (*model.ItemResult, error) {
	s.mu.Lock()
	s.started = append(s.started, item.Name)
	s.mu.Unlock()

	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.panicOn[item.Name] {
		panic("stub panic for " + item.Name)
	}
	if s.failOn[item.Name] {
		return nil, errors.New("stub failure")
	}
	return &model.ItemResult{
		ItemID:   item.ID,
		FileName: item.Name,
		FileType: item.ContentType,
		FileSize: item.Size,
		Verdict:  model.ComplianceVerdict{Score: 90, Status: model.StatusApproved},
	}, nil
}

func (s *stubVetter) startedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.started)
}

func makeItems(n int) []model.Item {
	items := make([]model.Item, n)
	for i := 0; i < n; i++ {
		items[i] = model.NewScriptItem(fmt.Sprintf("script %d", i), model.CampaignGeneric)
		items[i].Name = fmt.Sprintf("item-%d", i)
	}
	return items
}

func TestOrchestrator_RunBatch_OrderPreserved(t *testing.T) {
	vetter := &stubVetter{}
	orch := NewOrchestrator(vetter, 4, nil)

	items := makeItems(10)
	run := orch.RunBatch(context.Background(), items)

	if run.Total != 10 || run.Completed != 10 {
		t.Fatalf("Expected 10/10 completed, got %d/%d", run.Completed, run.Total)
	}
	for i, res := range run.Results {
		if res.FileName != fmt.Sprintf("item-%d", i) {
			t.Errorf("Result %d out of order: got %s", i, res.FileName)
		}
	}
}

// One item's failure yields a synthetic error verdict for that item only;
// every other item still reaches its own terminal outcome.
func TestOrchestrator_RunBatch_FailureIsolation(t *testing.T) {
	vetter := &stubVetter{failOn: map[string]bool{"item-2": true}}
	orch := NewOrchestrator(vetter, 2, nil)

	items := makeItems(5)
	run := orch.RunBatch(context.Background(), items)

	if run.Completed != 5 {
		t.Fatalf("Expected all 5 items completed, got %d", run.Completed)
	}
	for i, res := range run.Results {
		if i == 2 {
			if res.Verdict.Status != model.StatusError {
				t.Errorf("Expected item-2 to have error status, got %s", res.Verdict.Status)
			}
			if res.Verdict.Score != 0 {
				t.Errorf("Expected score 0 for failed item, got %d", res.Verdict.Score)
			}
			if len(res.Verdict.Issues) != 1 || res.Verdict.Issues[0].Type != model.IssueSystem {
				t.Errorf("Expected one system issue, got %+v", res.Verdict.Issues)
			}
			continue
		}
		if res.Verdict.Status != model.StatusApproved {
			t.Errorf("Item %d: expected approved, got %s", i, res.Verdict.Status)
		}
	}
}

func TestOrchestrator_RunBatch_PanicIsolation(t *testing.T) {
	vetter := &stubVetter{panicOn: map[string]bool{"item-1": true}}
	orch := NewOrchestrator(vetter, 2, nil)

	run := orch.RunBatch(context.Background(), makeItems(3))

	if run.Completed != 3 {
		t.Fatalf("Expected all items completed despite the panic, got %d", run.Completed)
	}
	if run.Results[1].Verdict.Status != model.StatusError {
		t.Errorf("Expected the panicking item to end in error, got %s", run.Results[1].Verdict.Status)
	}
	if !strings.Contains(run.Results[1].Verdict.Issues[0].Message, "internal error") {
		t.Errorf("Expected the panic surfaced in the issue message, got %q", run.Results[1].Verdict.Issues[0].Message)
	}
}

// Progress is reported once per item and counts monotonically to the total.
func TestOrchestrator_RunBatch_ProgressMonotonic(t *testing.T) {
	var mu sync.Mutex
	var seen []int
	progress := func(completed, total int) {
		mu.Lock()
		seen = append(seen, completed)
		mu.Unlock()
		if total != 6 {
			t.Errorf("Expected total 6, got %d", total)
		}
	}

	orch := NewOrchestrator(&stubVetter{}, 3, progress)
	orch.RunBatch(context.Background(), makeItems(6))

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 6 {
		t.Fatalf("Expected 6 progress callbacks, got %d", len(seen))
	}
	for i := 1; i < len(seen); i++ {
		if seen[i] <= seen[i-1] {
			t.Errorf("Progress not monotonic: %v", seen)
		}
	}
	if seen[len(seen)-1] != 6 {
		t.Errorf("Expected final progress 6, got %d", seen[len(seen)-1])
	}
}

// Cancellation stops dispatching new items but every item still gets a
// terminal outcome.
func TestOrchestrator_RunBatch_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var fired int32
	vetter := &stubVetter{delay: 50 * time.Millisecond}
	progress := func(completed, total int) {
		if atomic.AddInt32(&fired, 1) == 1 {
			cancel()
		}
	}

	orch := NewOrchestrator(vetter, 1, progress)
	run := orch.RunBatch(ctx, makeItems(8))

	if run.Completed != 8 {
		t.Fatalf("Expected terminal outcomes for all 8 items, got %d", run.Completed)
	}
	cancelled := 0
	for _, res := range run.Results {
		if res.Verdict.Status == model.StatusError {
			cancelled++
		}
	}
	if cancelled == 0 {
		t.Error("Expected some items to end as cancelled errors")
	}
	if vetter.startedCount() == 8 {
		t.Error("Expected cancellation to prevent dispatching every item")
	}
}

func TestOrchestrator_RunBatch_Empty(t *testing.T) {
	orch := NewOrchestrator(&stubVetter{}, 4, nil)
	run := orch.RunBatch(context.Background(), nil)

	if run.Total != 0 || run.Completed != 0 || len(run.Results) != 0 {
		t.Errorf("Expected empty run, got %+v", run)
	}
}

func TestOrchestrator_RunBatch_BoundedConcurrency(t *testing.T) {
	var inFlight, peak int32
	vetter := &countingVetter{inFlight: &inFlight, peak: &peak}
	orch := NewOrchestrator(vetter, 3, nil)

	orch.RunBatch(context.Background(), makeItems(12))

	if p := atomic.LoadInt32(&peak); p > 3 {
		t.Errorf("Expected at most 3 concurrent items, observed %d", p)
	}
}

type countingVetter struct {
	inFlight *int32
	peak     *int32
	mu       sync.Mutex
}

func (c *countingVetter) VetItem(ctx context.Context, item model.Item) (*model.ItemResult, error) {
	n := atomic.AddInt32(c.inFlight, 1)
	c.mu.Lock()
	if n > *c.peak {
		*c.peak = n
	}
	c.mu.Unlock()
	time.Sleep(10 * time.Millisecond)
	atomic.AddInt32(c.inFlight, -1)
	return &model.ItemResult{Verdict: model.ComplianceVerdict{Status: model.StatusApproved}}, nil
}

func TestScriptFallback(t *testing.T) {
	items := ScriptFallback(nil, "some script", model.CampaignRadio)
	if len(items) != 1 {
		t.Fatalf("Expected 1 synthetic item, got %d", len(items))
	}
	if items[0].ContentType != "text/plain" || items[0].Text() != "some script" {
		t.Errorf("Unexpected synthetic item: %+v", items[0])
	}

	if got := ScriptFallback(nil, "   ", model.CampaignRadio); len(got) != 0 {
		t.Errorf("Expected no items for blank script, got %d", len(got))
	}

	existing := makeItems(2)
	if got := ScriptFallback(existing, "script", model.CampaignRadio); len(got) != 2 {
		t.Errorf("Expected existing items untouched, got %d", len(got))
	}
}
