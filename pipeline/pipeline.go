// Package pipeline drives parsing output through batched enrichment and
// rule evaluation. Batches run strictly sequentially: the only shared
// resource is the enrichment service's rate budget, and the pacer is the
// sole coordination mechanism. A single orchestrator instance holds no
// global state, so many jobs may run concurrently from separate callers.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dropship-tools/go-product-verify/enrich"
	"github.com/dropship-tools/go-product-verify/models"
	"github.com/dropship-tools/go-product-verify/rules"
)

// DefaultBatchSize is the number of identifiers sent per enrichment request.
const DefaultBatchSize = 100

// DefaultBatchInterval is the pacing interval between enrichment batches.
const DefaultBatchInterval = time.Second

// ProgressFunc receives (processed, total) after every batch so a caller
// can render progress. It runs on the orchestration goroutine; keep it cheap.
type ProgressFunc func(processed, total int)

// Options tunes one orchestrator. Zero values select the defaults.
type Options struct {
	BatchSize int
	Pacer     Pacer
	Metrics   *Metrics
	Progress  ProgressFunc
}

// Orchestrator runs verification jobs end to end.
type Orchestrator struct {
	client    enrich.Client
	rules     rules.RuleSet
	batchSize int
	pacer     Pacer
	metrics   *Metrics
	progress  ProgressFunc
}

// New builds an orchestrator. The client may be nil when enrichment is
// disabled outright.
func New(client enrich.Client, rs rules.RuleSet, opts Options) *Orchestrator {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Pacer == nil {
		opts.Pacer = NewTokenBucketPacer(DefaultBatchInterval)
	}
	return &Orchestrator{
		client:    client,
		rules:     rs,
		batchSize: opts.BatchSize,
		pacer:     opts.Pacer,
		metrics:   opts.Metrics,
		progress:  opts.Progress,
	}
}

// Run verifies every candidate and returns the job record plus results in
// input order. Batch-level enrichment failures degrade only that batch to
// unenriched verification; they never abort the job. Cancellation is
// observed at the top of each batch iteration and marks the job failed;
// verified results are kept and every unprocessed candidate is emitted
// with a pending status so downstream counts account for the whole input.
func (o *Orchestrator) Run(ctx context.Context, products []models.ParsedProduct, known map[string]struct{}) (*models.VerificationJob, []models.VerifiedProduct) {
	if ctx == nil {
		ctx = context.Background()
	}

	job := &models.VerificationJob{
		ID:        uuid.NewString(),
		Total:     len(products),
		Status:    models.JobProcessing,
		StartedAt: time.Now(),
	}
	results := make([]models.VerifiedProduct, 0, len(products))

	if o.client == nil || !o.client.IsConfigured() {
		slog.Info("enrichment unavailable, verifying without market data",
			slog.String("job_id", job.ID),
			slog.Int("total", job.Total),
		)
		for _, p := range products {
			results = append(results, o.verify(job, p, nil, known))
		}
		job.Processed = len(results)
		o.reportProgress(job)
		o.complete(job)
		return job, results
	}

	for start := 0; start < len(products); start += o.batchSize {
		if err := ctx.Err(); err != nil {
			return o.fail(job, err), markPending(results, products[start:])
		}
		if err := o.pacer.Pace(ctx); err != nil {
			return o.fail(job, err), markPending(results, products[start:])
		}

		end := min(start+o.batchSize, len(products))
		batch := products[start:end]

		asins := make([]string, 0, len(batch))
		for _, p := range batch {
			asins = append(asins, p.ASIN)
		}

		var byASIN map[string]*models.EnrichmentRecord
		records, err := o.client.FetchBatch(ctx, asins)
		if err != nil {
			// Degrade this batch only; the job still completes.
			o.metrics.IncBatchFailure()
			slog.Error("enrichment batch failed, verifying batch without market data",
				slog.String("job_id", job.ID),
				slog.Int("batch_start", start),
				slog.Int("batch_size", len(batch)),
				slog.Any("error", err),
			)
		} else {
			byASIN = enrich.RecordsByASIN(records)
		}

		for _, p := range batch {
			results = append(results, o.verify(job, p, byASIN[p.ASIN], known))
		}

		o.metrics.IncBatch()
		job.Processed = len(results)
		o.reportProgress(job)
	}

	o.complete(job)
	return job, results
}

func (o *Orchestrator) verify(job *models.VerificationJob, p models.ParsedProduct, record *models.EnrichmentRecord, known map[string]struct{}) models.VerifiedProduct {
	vp := rules.Verify(p, record, known, o.rules)

	switch vp.Status {
	case models.StatusPass:
		job.PassCount++
	case models.StatusWarning:
		job.WarningCount++
	case models.StatusFail:
		job.FailCount++
	}
	o.metrics.IncVerified(string(vp.Status))
	return vp
}

// markPending appends placeholder results for candidates a terminated job
// never reached, preserving input order.
func markPending(results []models.VerifiedProduct, remaining []models.ParsedProduct) []models.VerifiedProduct {
	for _, p := range remaining {
		results = append(results, models.VerifiedProduct{
			Product: p,
			Status:  models.StatusPending,
		})
	}
	return results
}

func (o *Orchestrator) reportProgress(job *models.VerificationJob) {
	if o.progress != nil {
		o.progress(job.Processed, job.Total)
	}
}

func (o *Orchestrator) complete(job *models.VerificationJob) {
	now := time.Now()
	job.Status = models.JobCompleted
	job.CompletedAt = &now
	o.metrics.IncJob(string(models.JobCompleted))
	slog.Info("verification job completed",
		slog.String("job_id", job.ID),
		slog.Int("total", job.Total),
		slog.Int("pass", job.PassCount),
		slog.Int("warning", job.WarningCount),
		slog.Int("fail", job.FailCount),
	)
}

func (o *Orchestrator) fail(job *models.VerificationJob, err error) *models.VerificationJob {
	now := time.Now()
	job.Status = models.JobFailed
	job.Error = err.Error()
	job.CompletedAt = &now
	o.metrics.IncJob(string(models.JobFailed))
	slog.Error("verification job failed",
		slog.String("job_id", job.ID),
		slog.Int("processed", job.Processed),
		slog.Any("error", err),
	)
	return job
}
