// Command rescore recalculates the health score of every asset of one tenant
// through the running service's HTTP API.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type assetList struct {
	TenantID string   `json:"tenant_id"`
	AssetIDs []string `json:"asset_ids"`
	Count    int      `json:"count"`
}

type calculateRequest struct {
	AssetID  string `json:"asset_id"`
	TenantID string `json:"tenant_id"`
}

type calculateResult struct {
	Success                   bool    `json:"success"`
	Score                     int     `json:"score"`
	RiskLevel                 string  `json:"risk_level"`
	Trend                     string  `json:"trend"`
	FailureProbability        float64 `json:"failure_probability"`
	DaysUntilPredictedFailure *int    `json:"days_until_predicted_failure"`
}

type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("api returned %d: %s", e.Status, e.Message)
}

const defaultMaxRetries = 10

// apiClient talks to the asset health API. Rate-limited requests are retried
// after the server's Retry-After delay, at most maxRetries times.
type apiClient struct {
	baseURL    string
	authToken  string
	maxRetries int
	http       *http.Client
}

func newAPIClient(baseURL, authToken string, timeout time.Duration) *apiClient {
	return &apiClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		authToken:  authToken,
		maxRetries: defaultMaxRetries,
		http:       &http.Client{Timeout: timeout},
	}
}

func (c *apiClient) do(ctx context.Context, method, path string, body any, out any) error {
	var data []byte
	if body != nil {
		var err error
		if data, err = json.Marshal(body); err != nil {
			return err
		}
	}

	for attempt := 0; ; attempt++ {
		resp, err := c.send(ctx, method, path, data)
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusTooManyRequests && attempt < c.maxRetries {
			delay := retryDelay(resp.Header.Get("Retry-After"))
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			log.WithFields(log.Fields{"path": path, "delay": delay, "attempt": attempt + 1}).Debug("Rate limited, retrying")
			if err := sleepCtx(ctx, delay); err != nil {
				return err
			}
			continue
		}
		return decodeResponse(resp, out)
	}
}

func (c *apiClient) send(ctx context.Context, method, path string, data []byte) (*http.Response, error) {
	var reader io.Reader
	if data != nil {
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
	return c.http.Do(req)
}

func decodeResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &apiError{Status: resp.StatusCode, Message: e.Error}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// retryDelay reads a Retry-After value in seconds, falling back to one second.
func retryDelay(header string) time.Duration {
	if n, err := strconv.Atoi(strings.TrimSpace(header)); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return time.Second
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (c *apiClient) listAssets(ctx context.Context, tenantID string) ([]string, error) {
	var list assetList
	if err := c.do(ctx, http.MethodGet, "/assets?tenant_id="+url.QueryEscape(tenantID), nil, &list); err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	return list.AssetIDs, nil
}

func (c *apiClient) calculate(ctx context.Context, tenantID, assetID string) (*calculateResult, error) {
	var res calculateResult
	err := c.do(ctx, http.MethodPost, "/assets/health/calculate", calculateRequest{AssetID: assetID, TenantID: tenantID}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// summary tallies one rescore run.
type summary struct {
	mu       sync.Mutex
	Total    int
	Failed   int
	ByRisk   map[string]int
	Failures map[string]string
}

func (s *summary) record(assetID string, res *calculateResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.Failed++
		s.Failures[assetID] = err.Error()
		return
	}
	s.ByRisk[res.RiskLevel]++
}

// rescore triggers a calculation for every asset of tenantID with at most
// concurrency requests in flight. Per-asset failures are tallied, not returned.
func rescore(ctx context.Context, c *apiClient, tenantID string, concurrency int) (*summary, error) {
	ids, err := c.listAssets(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	sum := &summary{Total: len(ids), ByRisk: map[string]int{}, Failures: map[string]string{}}

	var g errgroup.Group
	g.SetLimit(max(1, concurrency))
	for _, id := range ids {
		g.Go(func() error {
			if ctx.Err() != nil {
				sum.record(id, nil, ctx.Err())
				return nil
			}
			res, err := c.calculate(ctx, tenantID, id)
			sum.record(id, res, err)
			entry := log.WithFields(log.Fields{"tenant_id": tenantID, "asset_id": id})
			if err != nil {
				entry.WithError(err).Warn("Health calculation failed")
				return nil
			}
			entry.WithFields(log.Fields{
				"score":      res.Score,
				"risk_level": res.RiskLevel,
				"trend":      res.Trend,
			}).Info("Health score recalculated")
			return nil
		})
	}
	_ = g.Wait()
	return sum, nil
}

func main() {
	_ = godotenv.Load()

	tenantID := os.Getenv("RESCORE_TENANT_ID")
	if tenantID == "" {
		log.Fatal("RESCORE_TENANT_ID is required")
	}

	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080/api"
	}

	concurrency := 4
	if v := os.Getenv("RESCORE_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			concurrency = n
		}
	}

	timeout := 30 * time.Second
	if v := os.Getenv("RESCORE_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			timeout = time.Duration(n) * time.Second
		}
	}

	log.WithFields(log.Fields{
		"tenant_id":   tenantID,
		"api_url":     apiURL,
		"concurrency": concurrency,
	}).Info("Starting asset rescore")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := newAPIClient(apiURL, os.Getenv("RESCORE_AUTH_TOKEN"), timeout)
	if v := os.Getenv("RESCORE_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			client.maxRetries = n
		}
	}
	sum, err := rescore(ctx, client, tenantID, concurrency)
	if err != nil {
		log.WithError(err).Fatal("Rescore aborted")
	}

	log.WithFields(log.Fields{
		"assets":  sum.Total,
		"failed":  sum.Failed,
		"by_risk": sum.ByRisk,
	}).Info("Rescore completed")
	if sum.Failed > 0 {
		os.Exit(1)
	}
}
