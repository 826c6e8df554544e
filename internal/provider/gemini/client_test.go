package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func candidateBody(text string) string {
	payload, _ := json.Marshal(map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": text}}}},
		},
	})
	return string(payload)
}

func TestGenerateInsightParsesFencedJSON(t *testing.T) {
	t.Parallel()

	var gotPath, gotKey, gotQuery, gotPrompt string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		gotQuery = r.URL.RawQuery
		raw, _ := io.ReadAll(r.Body)
		var req generateRequest
		_ = json.Unmarshal(raw, &req)
		if len(req.Contents) > 0 && len(req.Contents[0].Parts) > 0 {
			gotPrompt = req.Contents[0].Parts[0].Text
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(candidateBody("```json\n{\"summary\":\"Steady intake.\",\"recommendations\":[\"Drink water\"],\"concerns\":[]}\n```")))
	}))
	defer ts.Close()

	c := &Client{APIKey: "demo", BaseURL: ts.URL, HTTPClient: ts.Client()}
	insight, _, err := c.GenerateInsight(context.Background(), InsightRequest{UserID: "u1", DailyTotal: 255, RecommendedLimit: 400, Timeframe: "day"})
	if err != nil {
		t.Fatalf("generate insight: %v", err)
	}
	if gotPath != "/v1beta/models/gemini-pro:generateContent" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotKey != "demo" {
		t.Fatalf("expected api key header, got %q", gotKey)
	}
	if gotQuery != "" {
		t.Fatalf("expected no query string, got %q", gotQuery)
	}
	if !strings.Contains(gotPrompt, "Current daily intake: 255 mg") || !strings.Contains(gotPrompt, "Recommended daily limit: 400 mg") {
		t.Fatalf("prompt missing intake numbers:\n%s", gotPrompt)
	}
	if insight.Summary != "Steady intake." || len(insight.Recommendations) != 1 || len(insight.Concerns) != 0 {
		t.Fatalf("unexpected insight: %+v", insight)
	}
}

func TestGenerateInsightAcceptsLegacyInsightsKey(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(candidateBody(`{"insights":"Over the limit.","recommendations":["Switch to decaf"]}`)))
	}))
	defer ts.Close()

	c := &Client{APIKey: "demo", BaseURL: ts.URL, HTTPClient: ts.Client()}
	insight, _, err := c.GenerateInsight(context.Background(), InsightRequest{DailyTotal: 500, RecommendedLimit: 400})
	if err != nil {
		t.Fatalf("generate insight: %v", err)
	}
	if insight.Summary != "Over the limit." {
		t.Fatalf("expected legacy insights key to fill summary, got %q", insight.Summary)
	}
	if insight.Concerns == nil {
		t.Fatalf("expected non-nil concerns slice")
	}
}

func TestGenerateInsightFailures(t *testing.T) {
	t.Parallel()
	cases := map[string]http.HandlerFunc{
		"non-2xx": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		"api error": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`))
		},
		"no candidates": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"candidates":[]}`))
		},
		"prose reply": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(candidateBody("You are doing great!")))
		},
		"missing summary": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(candidateBody(`{"recommendations":[],"concerns":[]}`)))
		},
		"missing recommendations": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(candidateBody(`{"summary":"ok","concerns":[]}`)))
		},
	}
	for name, handler := range cases {
		ts := httptest.NewServer(handler)
		c := &Client{APIKey: "demo", BaseURL: ts.URL, HTTPClient: ts.Client()}
		if _, _, err := c.GenerateInsight(context.Background(), InsightRequest{DailyTotal: 100, RecommendedLimit: 400}); err == nil {
			t.Errorf("%s: expected error", name)
		}
		ts.Close()
	}
}

func TestGenerateInsightRequiresAPIKey(t *testing.T) {
	t.Parallel()
	c := &Client{}
	if _, _, err := c.GenerateInsight(context.Background(), InsightRequest{}); err == nil {
		t.Fatalf("expected missing key error")
	}
}

func TestGenerateInsightTransportErrorOmitsKey(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := ts.URL
	ts.Close()

	c := &Client{APIKey: "SUPER-SECRET-KEY", BaseURL: base}
	_, _, err := c.GenerateInsight(context.Background(), InsightRequest{UserID: "u1"})
	if err == nil {
		t.Fatalf("expected transport error")
	}
	if strings.Contains(err.Error(), "SUPER-SECRET-KEY") {
		t.Fatalf("api key leaked into error: %v", err)
	}
}

func TestGenerateInsightHonorsLimiterContext(t *testing.T) {
	t.Parallel()
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	limiter.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	c := &Client{APIKey: "demo", BaseURL: "http://127.0.0.1:0", Limiter: limiter}
	if _, _, err := c.GenerateInsight(ctx, InsightRequest{}); err == nil {
		t.Fatalf("expected rate limit wait to fail")
	}
}

func TestBuildPromptUnknownIntake(t *testing.T) {
	t.Parallel()
	prompt := BuildPrompt(InsightRequest{})
	if !strings.Contains(prompt, "Current daily intake: Unknown mg") {
		t.Fatalf("expected unknown intake, got:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Recommended daily limit: 400 mg") {
		t.Fatalf("expected default limit, got:\n%s", prompt)
	}
}
