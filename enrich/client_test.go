package enrich

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/prometheus/client_golang/prometheus"
)

func newTestClient(t *testing.T) (*HTTPClient, *httpmock.MockTransport) {
	t.Helper()

	client := NewHTTPClient("http://market.test", "test-key", 5*time.Second, NewMetrics(prometheus.NewRegistry()))
	transport := httpmock.NewMockTransport()
	client.WithTransport(transport)
	return client, transport
}

func TestFetchBatch(t *testing.T) {
	client, transport := newTestClient(t)

	transport.RegisterResponder("POST", "http://market.test/products/batch",
		httpmock.NewStringResponder(http.StatusOK, `{
			"products": [
				{"asin": "B00TESTXXX", "price": 19.99, "rating": 4.4, "review_count": 210, "premium_fulfilled": true, "sales_rank": 1200, "price_stability": "stable"},
				{"asin": "B00OTHERXX", "price": 7.50}
			]
		}`))

	records, err := client.FetchBatch(context.Background(), []string{"B00TESTXXX", "B00OTHERXX", "B00MISSING"})
	if err != nil {
		t.Fatalf("fetch batch: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	byASIN := RecordsByASIN(records)
	first := byASIN["B00TESTXXX"]
	if first == nil {
		t.Fatal("missing record for B00TESTXXX")
	}
	if first.Price == nil || *first.Price != 19.99 {
		t.Errorf("price = %v, want 19.99", first.Price)
	}
	if first.ReviewCount == nil || *first.ReviewCount != 210 {
		t.Errorf("review count = %v, want 210", first.ReviewCount)
	}
	if !first.PremiumFulfilled {
		t.Error("premium_fulfilled not decoded")
	}

	// An identifier absent from the response is no data, not an error.
	if byASIN["B00MISSING"] != nil {
		t.Error("absent identifier should have no record")
	}
}

func TestFetchBatchStatusClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(error) bool
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, check: func(err error) bool {
			var e ErrRateLimited
			return errors.As(err, &e)
		}},
		{name: "unauthorized", status: http.StatusUnauthorized, check: func(err error) bool {
			var e ErrAuth
			return errors.As(err, &e)
		}},
		{name: "forbidden", status: http.StatusForbidden, check: func(err error) bool {
			var e ErrAuth
			return errors.As(err, &e)
		}},
		{name: "server error", status: http.StatusInternalServerError, check: func(err error) bool {
			var e ErrService
			return errors.As(err, &e)
		}},
		// Client-side rejections must surface as errors too, never as an
		// empty successful batch.
		{name: "bad request", status: http.StatusBadRequest, check: func(err error) bool {
			var e ErrService
			return errors.As(err, &e)
		}},
		{name: "not found", status: http.StatusNotFound, check: func(err error) bool {
			var e ErrService
			return errors.As(err, &e)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, transport := newTestClient(t)
			transport.RegisterResponder("POST", "http://market.test/products/batch",
				httpmock.NewStringResponder(tt.status, ""))

			_, err := client.FetchBatch(context.Background(), []string{"B00TESTXXX"})
			if err == nil {
				t.Fatal("expected an error")
			}
			if !tt.check(err) {
				t.Fatalf("status %d: wrong error type: %v", tt.status, err)
			}
		})
	}
}

func TestFetchBatchMalformedBody(t *testing.T) {
	client, transport := newTestClient(t)
	transport.RegisterResponder("POST", "http://market.test/products/batch",
		httpmock.NewStringResponder(http.StatusOK, `{"products": [`))

	_, err := client.FetchBatch(context.Background(), []string{"B00TESTXXX"})
	var svcErr ErrService
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected ErrService, got %v", err)
	}
}

func TestFetchBatchEmptyInput(t *testing.T) {
	client, _ := newTestClient(t)

	records, err := client.FetchBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("empty batch: %v", err)
	}
	if records != nil {
		t.Fatalf("expected no records, got %v", records)
	}
}

func TestIsConfigured(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())

	tests := []struct {
		name     string
		baseURL  string
		apiKey   string
		expected bool
	}{
		{name: "fully configured", baseURL: "http://market.test", apiKey: "k", expected: true},
		{name: "missing key", baseURL: "http://market.test", apiKey: "", expected: false},
		{name: "missing url", baseURL: "", apiKey: "k", expected: false},
		{name: "unconfigured", baseURL: "", apiKey: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewHTTPClient(tt.baseURL, tt.apiKey, time.Second, metrics)
			if got := client.IsConfigured(); got != tt.expected {
				t.Fatalf("IsConfigured() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		statusCode int
		expected   string
	}{
		{name: "nil", err: nil, statusCode: 0, expected: "unknown"},
		{name: "context timeout", err: context.DeadlineExceeded, statusCode: 0, expected: "timeout"},
		{name: "net timeout", err: &net.DNSError{IsTimeout: true}, statusCode: 0, expected: "timeout"},
		{name: "connection", err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, statusCode: 0, expected: "connection"},
		{name: "unauthorized", err: nil, statusCode: http.StatusUnauthorized, expected: "auth"},
		{name: "rate limited", err: nil, statusCode: http.StatusTooManyRequests, expected: "rate_limited"},
		{name: "bad gateway", err: nil, statusCode: http.StatusBadGateway, expected: "service"},
		{name: "not found", err: nil, statusCode: http.StatusNotFound, expected: "service"},
		{name: "other", err: errors.New("some other error"), statusCode: 0, expected: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorTypeLabel(classifyError(tt.err, tt.statusCode)); got != tt.expected {
				t.Fatalf("classifyError(%v, %d) = %q, want %q", tt.err, tt.statusCode, got, tt.expected)
			}
		})
	}
}
