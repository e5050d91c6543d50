package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dropship-tools/go-product-verify/models"
	"github.com/dropship-tools/go-product-verify/rules"
)

type fakeClient struct {
	configured bool
	fail       bool
	calls      int
	batches    [][]string
	respond    func(asins []string) []models.EnrichmentRecord
	onFetch    func()
}

func (f *fakeClient) FetchBatch(_ context.Context, asins []string) ([]models.EnrichmentRecord, error) {
	f.calls++
	f.batches = append(f.batches, asins)
	if f.onFetch != nil {
		f.onFetch()
	}
	if f.fail {
		return nil, errors.New("service unavailable")
	}
	if f.respond != nil {
		return f.respond(asins), nil
	}
	return nil, nil
}

func (f *fakeClient) IsConfigured() bool { return f.configured }

func makeCandidates(n int) []models.ParsedProduct {
	price := 12.50
	out := make([]models.ParsedProduct, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.ParsedProduct{
			RowIndex: i + 1,
			ASIN:     fmt.Sprintf("B%09d", i),
			Title:    fmt.Sprintf("Widget %d", i),
			Price:    &price,
		})
	}
	return out
}

func testRules() rules.RuleSet {
	return rules.RuleSet{MinPrice: 5, MaxPrice: 50, MarkupMultiplier: 1.5}
}

func newOrchestrator(client *fakeClient, progress ProgressFunc) *Orchestrator {
	return New(client, testRules(), Options{
		BatchSize: 100,
		Pacer:     NopPacer{},
		Progress:  progress,
	})
}

// Every batch failing must degrade fidelity, never completion: all
// candidates are verified unenriched and the job still completes.
func TestRunAllBatchesFailing(t *testing.T) {
	client := &fakeClient{configured: true, fail: true}
	orch := newOrchestrator(client, nil)

	job, results := orch.Run(context.Background(), makeCandidates(250), nil)

	if client.calls != 3 {
		t.Fatalf("batch calls = %d, want 3", client.calls)
	}
	if job.Status != models.JobCompleted {
		t.Fatalf("job status = %s, want completed", job.Status)
	}
	if job.Processed != 250 || len(results) != 250 {
		t.Fatalf("processed = %d, results = %d, want 250", job.Processed, len(results))
	}
	for i, r := range results {
		if r.Enrichment != nil {
			t.Fatalf("result %d carries enrichment after batch failure", i)
		}
	}
}

func TestRunProgressAndBatchSizes(t *testing.T) {
	client := &fakeClient{configured: true}
	var progress [][2]int
	orch := newOrchestrator(client, func(processed, total int) {
		progress = append(progress, [2]int{processed, total})
	})

	job, _ := orch.Run(context.Background(), makeCandidates(250), nil)

	if job.Status != models.JobCompleted {
		t.Fatalf("job status = %s, want completed", job.Status)
	}

	wantBatches := []int{100, 100, 50}
	if len(client.batches) != len(wantBatches) {
		t.Fatalf("batches = %d, want %d", len(client.batches), len(wantBatches))
	}
	for i, want := range wantBatches {
		if len(client.batches[i]) != want {
			t.Errorf("batch %d size = %d, want %d", i, len(client.batches[i]), want)
		}
	}

	wantProgress := [][2]int{{100, 250}, {200, 250}, {250, 250}}
	if len(progress) != len(wantProgress) {
		t.Fatalf("progress calls = %v, want %v", progress, wantProgress)
	}
	for i, want := range wantProgress {
		if progress[i] != want {
			t.Errorf("progress[%d] = %v, want %v", i, progress[i], want)
		}
	}
}

func TestRunUnconfiguredClientSkipsEnrichment(t *testing.T) {
	client := &fakeClient{configured: false}
	var progress [][2]int
	orch := newOrchestrator(client, func(processed, total int) {
		progress = append(progress, [2]int{processed, total})
	})

	job, results := orch.Run(context.Background(), makeCandidates(42), nil)

	if client.calls != 0 {
		t.Fatalf("client called %d times, want 0", client.calls)
	}
	if job.Status != models.JobCompleted {
		t.Fatalf("job status = %s, want completed", job.Status)
	}
	if len(results) != 42 {
		t.Fatalf("results = %d, want 42", len(results))
	}
	if len(progress) != 1 || progress[0] != [2]int{42, 42} {
		t.Fatalf("progress = %v, want one (42,42) call", progress)
	}
}

func TestRunAttachesEnrichmentByIdentifier(t *testing.T) {
	enrichedPrice := 25.0
	client := &fakeClient{
		configured: true,
		respond: func(asins []string) []models.EnrichmentRecord {
			// Only the first identifier of each batch gets data.
			return []models.EnrichmentRecord{{ASIN: asins[0], Price: &enrichedPrice}}
		},
	}
	orch := newOrchestrator(client, nil)

	_, results := orch.Run(context.Background(), makeCandidates(3), nil)

	if results[0].Enrichment == nil {
		t.Fatal("first candidate should carry enrichment")
	}
	if results[1].Enrichment != nil || results[2].Enrichment != nil {
		t.Fatal("candidates without a matching record must verify with no data")
	}
}

// Output order equals input order, across batch boundaries.
func TestRunPreservesInputOrder(t *testing.T) {
	client := &fakeClient{configured: true}
	orch := New(client, testRules(), Options{BatchSize: 2, Pacer: NopPacer{}})

	candidates := makeCandidates(7)
	_, results := orch.Run(context.Background(), candidates, nil)

	if len(results) != len(candidates) {
		t.Fatalf("results = %d, want %d", len(results), len(candidates))
	}
	for i, r := range results {
		if r.Product.ASIN != candidates[i].ASIN {
			t.Fatalf("result %d = %s, want %s", i, r.Product.ASIN, candidates[i].ASIN)
		}
	}
}

func TestRunJobCounts(t *testing.T) {
	client := &fakeClient{configured: true}
	orch := newOrchestrator(client, nil)

	candidates := makeCandidates(4)
	candidates[1].Price = nil // hard fail: no price from either source
	known := map[string]struct{}{candidates[2].ASIN: {}}

	job, _ := orch.Run(context.Background(), candidates, known)

	if job.PassCount != 2 || job.WarningCount != 1 || job.FailCount != 1 {
		t.Fatalf("counts pass=%d warning=%d fail=%d, want 2/1/1",
			job.PassCount, job.WarningCount, job.FailCount)
	}
	if job.CompletedAt == nil {
		t.Fatal("completed job missing completion timestamp")
	}
}

func TestRunCancelledContext(t *testing.T) {
	client := &fakeClient{configured: true}
	orch := newOrchestrator(client, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job, results := orch.Run(ctx, makeCandidates(10), nil)

	if job.Status != models.JobFailed {
		t.Fatalf("job status = %s, want failed", job.Status)
	}
	if job.Error == "" {
		t.Fatal("failed job should carry the context error")
	}
	if client.calls != 0 {
		t.Fatalf("cancelled job made %d enrichment calls, want 0", client.calls)
	}
	if len(results) != 10 {
		t.Fatalf("cancelled job produced %d results, want 10 pending placeholders", len(results))
	}
	for i, r := range results {
		if r.Status != models.StatusPending {
			t.Fatalf("result %d status = %s, want pending", i, r.Status)
		}
	}
}

func TestRunCancelledMidJobKeepsVerifiedAndMarksRestPending(t *testing.T) {
	client := &fakeClient{configured: true}
	orch := New(client, testRules(), Options{
		BatchSize: 5,
		Pacer:     NopPacer{},
	})

	ctx, cancel := context.WithCancel(context.Background())
	client.onFetch = func() { cancel() }

	candidates := makeCandidates(12)
	job, results := orch.Run(ctx, candidates, nil)

	if job.Status != models.JobFailed {
		t.Fatalf("job status = %s, want failed", job.Status)
	}
	if client.calls != 1 {
		t.Fatalf("made %d enrichment calls, want 1", client.calls)
	}
	if len(results) != 12 {
		t.Fatalf("got %d results, want all 12 candidates accounted for", len(results))
	}
	for i, r := range results {
		if r.Product.ASIN != candidates[i].ASIN {
			t.Fatalf("result %d identifier = %s, want input order preserved", i, r.Product.ASIN)
		}
		if i < 5 && r.Status == models.StatusPending {
			t.Fatalf("verified result %d marked pending", i)
		}
		if i >= 5 && r.Status != models.StatusPending {
			t.Fatalf("unprocessed result %d status = %s, want pending", i, r.Status)
		}
	}
}

func TestRunEmptyInput(t *testing.T) {
	client := &fakeClient{configured: true}
	orch := newOrchestrator(client, nil)

	job, results := orch.Run(context.Background(), nil, nil)

	if job.Status != models.JobCompleted {
		t.Fatalf("job status = %s, want completed", job.Status)
	}
	if len(results) != 0 || client.calls != 0 {
		t.Fatalf("empty input: results=%d calls=%d", len(results), client.calls)
	}
}
