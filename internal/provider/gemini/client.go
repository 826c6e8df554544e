package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-pro"
)

type InsightRequest struct {
	UserID           string
	DailyTotal       int
	RecommendedLimit int
	Timeframe        string
}

type Insight struct {
	Summary         string   `json:"summary"`
	Recommendations []string `json:"recommendations"`
	Concerns        []string `json:"concerns"`
}

type Client struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	// Limiter throttles outbound calls when set.
	Limiter *rate.Limiter
}

// GenerateInsight asks the model for a JSON advisory and decodes it. The raw
// response body is returned alongside for logging.
func (c *Client) GenerateInsight(ctx context.Context, in InsightRequest) (Insight, []byte, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return Insight{}, nil, fmt.Errorf("missing Gemini API key")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(c.Model)
	if model == "" {
		model = defaultModel
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 12 * time.Second}
	}
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return Insight{}, nil, fmt.Errorf("wait for Gemini rate limit: %w", err)
		}
	}

	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: BuildPrompt(in)}}}},
		GenerationConfig: generationConfig{
			Temperature:     0.7,
			MaxOutputTokens: 500,
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return Insight{}, nil, fmt.Errorf("marshal Gemini payload: %w", err)
	}

	// Keep the key out of the URL; transport errors quote it.
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", baseURL, url.PathEscape(model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return Insight{}, nil, fmt.Errorf("create Gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.APIKey)

	resp, err := httpClient.Do(req)
	if err != nil {
		return Insight{}, nil, fmt.Errorf("execute Gemini request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Insight{}, nil, fmt.Errorf("read Gemini response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Insight{}, body, fmt.Errorf("Gemini request failed with status %d", resp.StatusCode)
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Insight{}, body, fmt.Errorf("decode Gemini response: %w", err)
	}
	if parsed.Error != nil {
		return Insight{}, body, fmt.Errorf("Gemini API error %d: %s", parsed.Error.Code, parsed.Error.Message)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return Insight{}, body, fmt.Errorf("Gemini response has no candidates")
	}

	insight, err := decodeInsight(parsed.Candidates[0].Content.Parts[0].Text)
	if err != nil {
		return Insight{}, body, err
	}
	return insight, body, nil
}

func BuildPrompt(in InsightRequest) string {
	daily := "Unknown"
	if in.DailyTotal > 0 {
		daily = fmt.Sprintf("%d", in.DailyTotal)
	}
	limit := in.RecommendedLimit
	if limit <= 0 {
		limit = 400
	}
	timeframe := strings.TrimSpace(in.Timeframe)
	if timeframe == "" {
		timeframe = "day"
	}

	var sb strings.Builder
	sb.WriteString("I'm tracking a user's caffeine consumption. Here's their data:\n")
	fmt.Fprintf(&sb, "- Current daily intake: %s mg\n", daily)
	fmt.Fprintf(&sb, "- Recommended daily limit: %d mg\n", limit)
	fmt.Fprintf(&sb, "- Timeframe requested: %s\n\n", timeframe)
	sb.WriteString("Based on this information, please provide:\n")
	sb.WriteString("1. A brief summary of their caffeine habits\n")
	sb.WriteString("2. 2-4 recommendations to help them manage their caffeine intake better\n")
	sb.WriteString("3. Any concerns based on their consumption pattern\n\n")
	sb.WriteString(`Format your response as a JSON object with the keys "summary", "recommendations" (array), and "concerns" (array).` + "\n")
	sb.WriteString("Keep the summary concise and helpful. If they've exceeded their limit, emphasize moderation.\n")
	return sb.String()
}

// decodeInsight parses model text that may be wrapped in a markdown code
// fence. "insights" is accepted for "summary"; recommendations are required.
func decodeInsight(text string) (Insight, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	var raw struct {
		Summary         string    `json:"summary"`
		Insights        string    `json:"insights"`
		Recommendations *[]string `json:"recommendations"`
		Concerns        []string  `json:"concerns"`
	}
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return Insight{}, fmt.Errorf("decode Gemini insight JSON: %w", err)
	}
	summary := strings.TrimSpace(raw.Summary)
	if summary == "" {
		summary = strings.TrimSpace(raw.Insights)
	}
	if summary == "" {
		return Insight{}, fmt.Errorf("Gemini insight is missing summary")
	}
	if raw.Recommendations == nil {
		return Insight{}, fmt.Errorf("Gemini insight is missing recommendations")
	}
	out := Insight{
		Summary:         summary,
		Recommendations: *raw.Recommendations,
		Concerns:        raw.Concerns,
	}
	if out.Concerns == nil {
		out.Concerns = []string{}
	}
	return out, nil
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
