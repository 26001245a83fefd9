// Package evaluator is a thin client for the external listing scoring service
package evaluator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/bramble/pkg/models"
	"github.com/Ramsey-B/bramble/pkg/tracing"
)

// Client calls the external evaluation service. Scoring is expensive and
// slow, so requests run in bounded-concurrency batches, and per-listing
// failures are logged and skipped rather than aborting the batch.
type Client struct {
	http      *http.Client
	logger    ectologger.Logger
	baseURL   string
	apiKey    string
	batchSize int
}

// Config holds evaluator client configuration
type Config struct {
	BaseURL   string
	APIKey    string
	BatchSize int
	Timeout   time.Duration
}

// NewClient creates a new evaluator client
func NewClient(logger ectologger.Logger, cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 5
	}

	return &Client{
		http:      &http.Client{Timeout: timeout},
		logger:    logger,
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		batchSize: batchSize,
	}
}

type evaluateRequest struct {
	Listing *models.Listing `json:"listing"`
}

type evaluateResponse struct {
	OverallScore int      `json:"overall_score"`
	MatchSummary string   `json:"match_summary"`
	Highlights   []string `json:"highlights"`
	Concerns     []string `json:"concerns"`
}

// EvaluateBatch scores the given listings, at most batchSize at a time.
// The result only contains listings that were scored successfully; callers
// keep whatever evaluation they already had for the rest.
func (c *Client) EvaluateBatch(ctx context.Context, listings []models.Listing) map[string]models.Evaluation {
	ctx, span := tracing.StartSpan(ctx, "evaluator.Client.EvaluateBatch")
	defer span.End()

	results := make(map[string]models.Evaluation, len(listings))
	if c.baseURL == "" || len(listings) == 0 {
		return results
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, c.batchSize)

	for i := range listings {
		l := &listings[i]
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			eval, err := c.Evaluate(ctx, l)
			if err != nil {
				c.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
					"listing_id": l.ID,
				}).Warn("Evaluation failed; keeping existing score")
				return
			}

			mu.Lock()
			results[l.ID] = *eval
			mu.Unlock()
		}()
	}
	wg.Wait()

	c.logger.WithContext(ctx).WithFields(map[string]any{
		"requested": len(listings),
		"scored":    len(results),
	}).Info("Evaluation batch completed")

	return results
}

// Evaluate scores a single listing.
func (c *Client) Evaluate(ctx context.Context, l *models.Listing) (*models.Evaluation, error) {
	ctx, span := tracing.StartSpan(ctx, "evaluator.Client.Evaluate")
	defer span.End()

	body, err := json.Marshal(evaluateRequest{Listing: l})
	if err != nil {
		return nil, fmt.Errorf("failed to encode evaluation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/evaluate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build evaluation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("evaluation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("evaluator returned status %d", resp.StatusCode)
	}

	var payload evaluateResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode evaluation response: %w", err)
	}

	return &models.Evaluation{
		ListingID:     l.ID,
		OverallScore:  payload.OverallScore,
		MatchSummary:  payload.MatchSummary,
		Highlights:    payload.Highlights,
		Concerns:      payload.Concerns,
		DateEvaluated: time.Now().UTC(),
	}, nil
}
