package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

type InsightRequest struct {
	UserID           string `json:"user_id"`
	DailyTotal       int    `json:"dailyTotal"`
	RecommendedLimit int    `json:"recommendedLimit"`
	Timeframe        string `json:"timeframe"`
}

type Insight struct {
	Summary         string   `json:"summary"`
	Recommendations []string `json:"recommendations"`
	Concerns        []string `json:"concerns"`
}

// Client calls a hosted caffeine-analysis function. URL is the full
// function endpoint.
type Client struct {
	URL        string
	APIKey     string
	HTTPClient *http.Client
	Limiter    *rate.Limiter
}

func (c *Client) GenerateInsight(ctx context.Context, in InsightRequest) (Insight, []byte, error) {
	endpoint := strings.TrimSpace(c.URL)
	if endpoint == "" {
		return Insight{}, nil, fmt.Errorf("missing analysis function URL")
	}
	if strings.TrimSpace(in.UserID) == "" {
		return Insight{}, nil, fmt.Errorf("analysis request requires a user id")
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 12 * time.Second}
	}
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return Insight{}, nil, fmt.Errorf("wait for analysis rate limit: %w", err)
		}
	}
	if strings.TrimSpace(in.Timeframe) == "" {
		in.Timeframe = "day"
	}

	payload, err := json.Marshal(in)
	if err != nil {
		return Insight{}, nil, fmt.Errorf("marshal analysis payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return Insight{}, nil, fmt.Errorf("create analysis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "caffinity-cli/1.0")
	if key := strings.TrimSpace(c.APIKey); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return Insight{}, nil, fmt.Errorf("execute analysis request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Insight{}, nil, fmt.Errorf("read analysis response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Insight{}, body, fmt.Errorf("analysis request failed with status %d", resp.StatusCode)
	}

	var parsed struct {
		Summary         string    `json:"summary"`
		Insights        string    `json:"insights"`
		Recommendations *[]string `json:"recommendations"`
		Concerns        []string  `json:"concerns"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Insight{}, body, fmt.Errorf("decode analysis response: %w", err)
	}
	summary := strings.TrimSpace(parsed.Summary)
	if summary == "" {
		summary = strings.TrimSpace(parsed.Insights)
	}
	if summary == "" {
		return Insight{}, body, fmt.Errorf("analysis response is missing summary")
	}
	if parsed.Recommendations == nil {
		return Insight{}, body, fmt.Errorf("analysis response is missing recommendations")
	}
	out := Insight{Summary: summary, Recommendations: *parsed.Recommendations, Concerns: parsed.Concerns}
	if out.Concerns == nil {
		out.Concerns = []string{}
	}
	return out, body, nil
}
