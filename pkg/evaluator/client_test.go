package evaluator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/bramble/pkg/models"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func testListing(id string) models.Listing {
	return models.Listing{
		ID:        id,
		Source:    "test",
		SourceURL: "https://test.example/" + id,
		Title:     "Listing " + id,
	}
}

func TestEvaluateBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req evaluateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		// Fail one listing to exercise the skip path
		if req.Listing.ID == "bad" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}

		json.NewEncoder(w).Encode(evaluateResponse{
			OverallScore: 17,
			MatchSummary: fmt.Sprintf("summary for %s", req.Listing.ID),
		})
	}))
	defer server.Close()

	c := NewClient(testLogger(), Config{
		BaseURL:   server.URL,
		APIKey:    "secret",
		BatchSize: 2,
		Timeout:   time.Second,
	})

	listings := []models.Listing{testListing("a"), testListing("bad"), testListing("c")}
	results := c.EvaluateBatch(context.Background(), listings)

	// The failed listing is skipped, not fatal
	require.Len(t, results, 2)
	assert.Equal(t, 17, results["a"].OverallScore)
	assert.Equal(t, "summary for c", results["c"].MatchSummary)
	_, ok := results["bad"]
	assert.False(t, ok)
}

func TestEvaluateBatch_Unconfigured(t *testing.T) {
	c := NewClient(testLogger(), Config{})
	results := c.EvaluateBatch(context.Background(), []models.Listing{testListing("a")})
	assert.Empty(t, results)
}
