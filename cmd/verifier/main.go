package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dropship-tools/go-product-verify/catalog"
	"github.com/dropship-tools/go-product-verify/config"
	"github.com/dropship-tools/go-product-verify/enrich"
	"github.com/dropship-tools/go-product-verify/export"
	"github.com/dropship-tools/go-product-verify/mapper"
	"github.com/dropship-tools/go-product-verify/models"
	"github.com/dropship-tools/go-product-verify/parser"
	"github.com/dropship-tools/go-product-verify/pipeline"
	"github.com/dropship-tools/go-product-verify/report"
)

func main() {
	defaultCfg := config.DefaultConfig()
	batchDefault := defaultCfg.BatchSize
	if value, ok, err := config.EnvInt("VERIFIER_BATCH_SIZE"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid VERIFIER_BATCH_SIZE: %v\n", err)
		os.Exit(1)
	} else if ok {
		batchDefault = value
	}
	enrichURLDefault, _ := config.EnvString("VERIFIER_ENRICH_URL")
	apiKeyDefault, _ := config.EnvString("VERIFIER_API_KEY")
	metricsDefault, _ := config.EnvString("VERIFIER_METRICS_ADDR")

	inputFile := flag.String("input", "", "Input CSV sheet of product candidates")
	outputFile := flag.String("output", defaultCfg.OutputFile, "Output file path")
	outputFormat := flag.String("format", defaultCfg.OutputFormat, "Output format: csv, json, or dual")
	batchSize := flag.Int("batch-size", batchDefault, "Identifiers per enrichment batch")
	batchIntervalMs := flag.Int("batch-interval", int(defaultCfg.BatchInterval/time.Millisecond), "Pacing interval between batches (milliseconds)")
	enrichURL := flag.String("enrich-url", enrichURLDefault, "Enrichment service base URL (empty disables enrichment)")
	apiKey := flag.String("api-key", apiKeyDefault, "Enrichment service API key")
	catalogFile := flag.String("catalog", "", "File of known catalog identifiers, one per line")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	minPrice := flag.Float64("min-price", defaultCfg.Rules.MinPrice, "Minimum acceptable price")
	maxPrice := flag.Float64("max-price", defaultCfg.Rules.MaxPrice, "Maximum acceptable price (0 disables)")
	minReviews := flag.Int("min-reviews", defaultCfg.Rules.MinReviews, "Minimum review count (0 disables)")
	minRating := flag.Float64("min-rating", defaultCfg.Rules.MinRating, "Minimum rating (0 disables)")
	requireFulfillment := flag.Bool("require-fulfillment", false, "Require premium fulfillment eligibility")
	maxRank := flag.Int("max-rank", defaultCfg.Rules.MaxSalesRank, "Sales rank ceiling, warning only (0 disables)")
	excludeBrands := flag.String("exclude-brands", "", "Comma-separated excluded brand names")
	markup := flag.Float64("markup", defaultCfg.Rules.MarkupMultiplier, "Retail markup multiplier")
	passRate := flag.Float64("pass-rate", report.DefaultCostOptions().EstimatedPassRate, "Estimated pass rate for the cost model")

	idColumn := flag.String("id-column", "", "Override the inferred identifier column")
	titleColumn := flag.String("title-column", "", "Override the inferred title column")
	priceColumn := flag.String("price-column", "", "Override the inferred price column")

	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	cfg := defaultCfg
	cfg.InputFile = *inputFile
	cfg.OutputFile = *outputFile
	cfg.OutputFormat = strings.ToLower(*outputFormat)
	cfg.BatchSize = *batchSize
	cfg.BatchInterval = time.Duration(*batchIntervalMs) * time.Millisecond
	cfg.EnrichBaseURL = *enrichURL
	cfg.EnrichAPIKey = *apiKey
	cfg.CatalogFile = *catalogFile
	cfg.MetricsAddr = *metricsAddr
	cfg.Verbose = *verbose
	cfg.Rules.MinPrice = *minPrice
	cfg.Rules.MaxPrice = *maxPrice
	cfg.Rules.MinReviews = *minReviews
	cfg.Rules.MinRating = *minRating
	cfg.Rules.RequireFulfillment = *requireFulfillment
	cfg.Rules.MaxSalesRank = *maxRank
	cfg.Rules.MarkupMultiplier = *markup
	if *excludeBrands != "" {
		cfg.Rules.ExcludedBrands = strings.Split(*excludeBrands, ",")
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	headers, rows, err := readSheet(cfg.InputFile)
	if err != nil {
		slog.Error("reading input sheet", slog.Any("error", err))
		os.Exit(1)
	}

	mapping := mapper.Infer(headers)
	for _, s := range mapper.Suggest(headers) {
		slog.Debug("column suggestion",
			slog.String("header", s.Header),
			slog.String("field", s.Field),
			slog.String("confidence", s.Confidence),
		)
	}
	if *idColumn != "" {
		mapping.Identifier = *idColumn
	}
	if *titleColumn != "" {
		mapping.Title = *titleColumn
	}
	if *priceColumn != "" {
		mapping.Price = *priceColumn
	}

	products, stats, err := parser.Parse(rows, mapping)
	if err != nil {
		slog.Error("parsing sheet", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("sheet parsed",
		slog.Int("rows", len(rows)),
		slog.Int("parsed", stats.Parsed),
		slog.Int("skipped", stats.Skipped),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	known, err := loadKnown(ctx, cfg.CatalogFile, cfg.CatalogTTL)
	if err != nil {
		slog.Error("loading catalog identifiers", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := pipeline.NewMetrics()
	client := enrich.NewHTTPClient(cfg.EnrichBaseURL, cfg.EnrichAPIKey, cfg.EnrichTimeout, enrich.NewMetrics(metrics.Registry))

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	estimate := report.EstimateCost(len(products), report.CostOptions{
		CheapCostPerItem:  report.DefaultCostOptions().CheapCostPerItem,
		DeepCostPerItem:   report.DefaultCostOptions().DeepCostPerItem,
		EstimatedPassRate: *passRate,
	})

	orch := pipeline.New(client, cfg.Rules, pipeline.Options{
		BatchSize: cfg.BatchSize,
		Pacer:     pipeline.NewTokenBucketPacer(cfg.BatchInterval),
		Metrics:   metrics,
		Progress: func(processed, total int) {
			slog.Info("verification progress", slog.Int("processed", processed), slog.Int("total", total))
		},
	})

	startTime := time.Now()
	job, results := orch.Run(ctx, products, known)
	duration := time.Since(startTime)

	if job.Status == models.JobFailed {
		slog.Error("job did not complete", slog.String("error", job.Error))
	}

	if err := writeOutputs(cfg.OutputFormat, cfg.OutputFile, results); err != nil {
		slog.Error("writing output", slog.Any("error", err))
		os.Exit(1)
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	summary := report.Summarize(results)
	printSummary(job, summary, estimate, duration, cfg.OutputFile, stats.Skipped)

	if job.Status == models.JobFailed {
		os.Exit(1)
	}
}

// readSheet loads a CSV file into an ordered header list plus row objects,
// playing the file-parsing collaborator role at the pipeline boundary.
func readSheet(path string) ([]string, []models.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open sheet: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("sheet %q is empty", path)
	}

	headers := records[0]
	rows := make([]models.Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(models.Row, len(headers))
		for i, header := range headers {
			if i < len(rec) {
				row[header] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return headers, rows, nil
}

func loadKnown(ctx context.Context, path string, ttl time.Duration) (map[string]struct{}, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	var asins []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			asins = append(asins, strings.ToUpper(line))
		}
	}

	cache := catalog.NewCache(catalog.SliceLister(asins), ttl)
	return cache.Known(ctx)
}

func writeOutputs(format, filename string, results []models.VerifiedProduct) error {
	if err := ensureDir(filename); err != nil {
		return err
	}

	writeOne := func(path, content string) error {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		return nil
	}

	switch format {
	case "csv":
		out, err := export.ToCSV(results)
		if err != nil {
			return err
		}
		return writeOne(filename, out)
	case "json":
		out, err := export.ToJSON(results)
		if err != nil {
			return err
		}
		return writeOne(filename, out)
	case "dual":
		csvOut, err := export.ToCSV(results)
		if err != nil {
			return err
		}
		if err := writeOne(filename, csvOut); err != nil {
			return err
		}
		jsonOut, err := export.ToJSON(results)
		if err != nil {
			return err
		}
		return writeOne(strings.TrimSuffix(filename, ".csv")+".json", jsonOut)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}

func printSummary(job *models.VerificationJob, s models.VerificationSummary, est models.CostEstimate, duration time.Duration, outputFile string, skippedRows int) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Verification complete")

	fmt.Printf("  Job:             %s (%s)\n", job.ID, job.Status)
	fmt.Printf("  Candidates:      %d\n", s.Total)
	fmt.Printf("  Pass:            %d\n", s.Pass)
	fmt.Printf("  Warning:         %d\n", s.Warning)
	fmt.Printf("  Fail:            %d\n", s.Fail)
	if s.Pending > 0 {
		fmt.Printf("  Pending:         %d\n", s.Pending)
	}
	fmt.Printf("  Already known:   %d\n", s.AlreadyKnown)
	if skippedRows > 0 {
		fmt.Printf("  Dropped rows:    %d\n", skippedRows)
	}
	fmt.Printf("  Pass rate:       %.0f%%\n", s.PassRate)
	fmt.Printf("  Token cost:      %d\n", s.TokenCost)
	fmt.Printf("  Time estimate:   %s\n", s.TimeEstimate)
	fmt.Printf("  Phased cost:     %.0f credits (saves %.0f, %.1f%%)\n", est.PhasedCost, est.Savings, est.SavingsPercent)
	fmt.Printf("  Duration:        %v\n", duration)
	fmt.Printf("  Output file:     %s\n", outputFile)
	fmt.Println(separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
