// Package enrich wraps the external price/reputation service. The adapter
// is a pure I/O boundary: it batches identifiers, classifies transport
// failures, and leaves all verification logic to callers.
package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dropship-tools/go-product-verify/models"
)

// Client is the enrichment service boundary consumed by the orchestrator.
// Identifiers absent from a FetchBatch response carry no data; that is not
// an error condition.
type Client interface {
	FetchBatch(ctx context.Context, asins []string) ([]models.EnrichmentRecord, error)
	IsConfigured() bool
}

// HTTPClient talks to the market-data service over its JSON batch endpoint.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	metrics *Metrics
}

type batchRequest struct {
	IDs []string `json:"ids"`
}

type batchResponse struct {
	Products []models.EnrichmentRecord `json:"products"`
}

// NewHTTPClient builds an enrichment client. Metrics may be nil.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, metrics *Metrics) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &HTTPClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		metrics: metrics,
	}
}

// WithTransport swaps the underlying transport. Used by tests.
func (c *HTTPClient) WithTransport(rt http.RoundTripper) {
	c.client.Transport = rt
}

// IsConfigured reports whether credentials are present. When false, the
// orchestrator skips enrichment entirely instead of failing the job.
func (c *HTTPClient) IsConfigured() bool {
	return c.baseURL != "" && c.apiKey != ""
}

// FetchBatch requests market data for a batch of identifiers.
func (c *HTTPClient) FetchBatch(ctx context.Context, asins []string) ([]models.EnrichmentRecord, error) {
	if !c.IsConfigured() {
		return nil, ErrAuth{Err: fmt.Errorf("enrichment service not configured")}
	}
	if len(asins) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(batchRequest{IDs: asins})
	if err != nil {
		return nil, fmt.Errorf("encode batch request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/products/batch", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build batch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	start := time.Now()
	resp, err := c.client.Do(req)
	c.metrics.ObserveDuration(time.Since(start))
	if err != nil {
		return nil, c.fail(classifyError(err, 0))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, c.fail(classifyError(nil, resp.StatusCode))
	}

	var decoded batchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, c.fail(ErrService{Err: fmt.Errorf("decode batch response: %w", err)})
	}

	c.metrics.IncBatch("success")
	c.metrics.AddRecords(len(decoded.Products))
	slog.Debug("enrichment batch fetched",
		slog.Int("requested", len(asins)),
		slog.Int("returned", len(decoded.Products)),
	)
	return decoded.Products, nil
}

func (c *HTTPClient) fail(err error) error {
	c.metrics.IncBatch("error")
	c.metrics.IncError(errorTypeLabel(err))
	return err
}

// RecordsByASIN indexes a batch response by identifier for lookup during
// verification.
func RecordsByASIN(records []models.EnrichmentRecord) map[string]*models.EnrichmentRecord {
	out := make(map[string]*models.EnrichmentRecord, len(records))
	for i := range records {
		out[records[i].ASIN] = &records[i]
	}
	return out
}
