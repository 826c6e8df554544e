package service

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/time/rate"

	"github.com/saadjs/caffinity-cli/internal/metrics"
	"github.com/saadjs/caffinity-cli/internal/model"
	"github.com/saadjs/caffinity-cli/internal/provider/analysis"
	"github.com/saadjs/caffinity-cli/internal/provider/gemini"
)

const (
	AdvisoryProviderAuto     = "auto"
	AdvisoryProviderRules    = "rules"
	AdvisoryProviderGemini   = "gemini"
	AdvisoryProviderAnalysis = "analysis"

	defaultAdvisoryTimeout = 12 * time.Second
	defaultTimeframe       = "day"
)

type AdvisoryRequest struct {
	UserID           string `json:"user_id"`
	DailyTotal       int    `json:"daily_total"`
	RecommendedLimit int    `json:"recommended_limit"`
	Timeframe        string `json:"timeframe"`
}

type AdvisoryStrategy interface {
	Name() string
	Advise(ctx context.Context, req AdvisoryRequest) (model.Advisory, error)
}

type IntakeLevel string

const (
	IntakeNone        IntakeLevel = "none"
	IntakeWithin      IntakeLevel = "within"
	IntakeApproaching IntakeLevel = "approaching"
	IntakeOver        IntakeLevel = "over"
)

// ClassifyIntake buckets a daily total against limit. The approaching band
// starts at 75% of the limit inclusive and runs up to the limit itself; only
// totals strictly above the limit are over.
func ClassifyIntake(total, limit int) IntakeLevel {
	if limit <= 0 {
		limit = RecommendedLimit()
	}
	switch {
	case total <= 0:
		return IntakeNone
	case total > limit:
		return IntakeOver
	case total*4 >= limit*3:
		return IntakeApproaching
	default:
		return IntakeWithin
	}
}

// RuleBasedStrategy answers from fixed thresholds and never fails.
type RuleBasedStrategy struct{}

func (RuleBasedStrategy) Name() string { return AdvisoryProviderRules }

func (RuleBasedStrategy) Advise(_ context.Context, req AdvisoryRequest) (model.Advisory, error) {
	req = normalizeAdvisoryRequest(req)
	out := model.Advisory{Source: model.AdvisorySourceRules, Concerns: []string{}}
	switch ClassifyIntake(req.DailyTotal, req.RecommendedLimit) {
	case IntakeNone:
		out.Summary = "No caffeine data recorded yet for today."
		out.Recommendations = []string{
			"Start tracking your caffeine intake regularly.",
			"Try logging each drink as you consume it for accurate tracking.",
		}
	case IntakeOver:
		out.Summary = fmt.Sprintf("You've consumed %dmg of caffeine today, which exceeds the recommended daily limit of %dmg.", req.DailyTotal, req.RecommendedLimit)
		out.Recommendations = []string{
			"Consider switching to decaffeinated options for the rest of the day.",
			"Stay hydrated by drinking plenty of water.",
			"Be mindful of potential effects on sleep quality tonight.",
		}
		out.Concerns = []string{
			"Exceeding the recommended caffeine limit may cause jitteriness, anxiety, or sleep disturbances.",
			"High caffeine intake can increase heart rate and blood pressure temporarily.",
		}
	case IntakeApproaching:
		out.Summary = fmt.Sprintf("You're at %dmg of caffeine today, which is approaching the recommended daily limit.", req.DailyTotal)
		out.Recommendations = []string{
			"Consider lower-caffeine alternatives for your next drink.",
			"Space out remaining caffeine intake throughout the day.",
			"Stay hydrated with water alongside caffeinated beverages.",
		}
		out.Concerns = []string{
			"Consuming caffeine too late in the day may affect sleep quality.",
		}
	default:
		out.Summary = fmt.Sprintf("Your caffeine intake today (%dmg) is within the recommended daily limit.", req.DailyTotal)
		out.Recommendations = []string{
			"Continue to space out your caffeine intake for consistent energy.",
			"Remember to stay hydrated throughout the day.",
			"Tracking patterns over time can help you optimize your caffeine consumption.",
		}
	}
	return out, nil
}

// InsightGenerator is a remote advisory backend. The raw reply body is
// returned for debug logging.
type InsightGenerator interface {
	GenerateInsight(ctx context.Context, req AdvisoryRequest) (model.Advisory, []byte, error)
}

type geminiGeneratorAdapter struct {
	client *gemini.Client
}

func (a *geminiGeneratorAdapter) GenerateInsight(ctx context.Context, req AdvisoryRequest) (model.Advisory, []byte, error) {
	insight, raw, err := a.client.GenerateInsight(ctx, gemini.InsightRequest{
		UserID:           req.UserID,
		DailyTotal:       req.DailyTotal,
		RecommendedLimit: req.RecommendedLimit,
		Timeframe:        req.Timeframe,
	})
	if err != nil {
		return model.Advisory{}, raw, err
	}
	return model.Advisory{
		Summary:         insight.Summary,
		Recommendations: insight.Recommendations,
		Concerns:        insight.Concerns,
	}, raw, nil
}

type analysisGeneratorAdapter struct {
	client *analysis.Client
}

func (a *analysisGeneratorAdapter) GenerateInsight(ctx context.Context, req AdvisoryRequest) (model.Advisory, []byte, error) {
	insight, raw, err := a.client.GenerateInsight(ctx, analysis.InsightRequest{
		UserID:           req.UserID,
		DailyTotal:       req.DailyTotal,
		RecommendedLimit: req.RecommendedLimit,
		Timeframe:        req.Timeframe,
	})
	if err != nil {
		return model.Advisory{}, raw, err
	}
	return model.Advisory{
		Summary:         insight.Summary,
		Recommendations: insight.Recommendations,
		Concerns:        insight.Concerns,
	}, raw, nil
}

// RemoteStrategy asks an InsightGenerator and strips any markup from what it
// says. Every failure comes back as *model.AdvisoryError.
type RemoteStrategy struct {
	Provider  string
	Generator InsightGenerator
	Timeout   time.Duration
	Logger    *slog.Logger
}

var plainText = bluemonday.StrictPolicy()

func (s *RemoteStrategy) Name() string { return s.Provider }

func (s *RemoteStrategy) Advise(ctx context.Context, req AdvisoryRequest) (model.Advisory, error) {
	if s.Generator == nil {
		return model.Advisory{}, &model.AdvisoryError{Provider: s.Provider, Err: fmt.Errorf("no generator configured")}
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultAdvisoryTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	adv, raw, err := s.Generator.GenerateInsight(ctx, normalizeAdvisoryRequest(req))
	if err != nil {
		if s.Logger != nil && len(raw) > 0 {
			s.Logger.Debug("remote advisory reply", "provider", s.Provider, "body", string(raw))
		}
		return model.Advisory{}, &model.AdvisoryError{Provider: s.Provider, Err: err}
	}

	out := model.Advisory{
		Summary:         sanitizeText(adv.Summary),
		Recommendations: sanitizeList(adv.Recommendations),
		Concerns:        sanitizeList(adv.Concerns),
		Source:          model.AdvisorySourceRemote,
	}
	if out.Summary == "" {
		return model.Advisory{}, &model.AdvisoryError{Provider: s.Provider, Err: fmt.Errorf("summary is empty after sanitizing")}
	}
	return out, nil
}

func sanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(plainText.Sanitize(s)))
}

func sanitizeList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if clean := sanitizeText(item); clean != "" {
			out = append(out, clean)
		}
	}
	return out
}

// AdvisoryOptions selects and configures the remote backend.
type AdvisoryOptions struct {
	Provider          string
	GeminiAPIKey      string
	GeminiModel       string
	GeminiBaseURL     string
	AnalysisURL       string
	AnalysisKey       string
	Timeout           time.Duration
	RequestsPerMinute int
	HTTPClient        *http.Client
	Logger            *slog.Logger
}

// BuildRemoteStrategy returns nil without error when the rules are the only
// backend to use. "auto" prefers Gemini, then the analysis function.
func BuildRemoteStrategy(opts AdvisoryOptions) (AdvisoryStrategy, error) {
	provider := strings.ToLower(strings.TrimSpace(opts.Provider))
	if provider == "" || provider == AdvisoryProviderAuto {
		switch {
		case strings.TrimSpace(opts.GeminiAPIKey) != "":
			provider = AdvisoryProviderGemini
		case strings.TrimSpace(opts.AnalysisURL) != "":
			provider = AdvisoryProviderAnalysis
		default:
			provider = AdvisoryProviderRules
		}
	}

	var limiter *rate.Limiter
	if opts.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 1)
	}

	var generator InsightGenerator
	switch provider {
	case AdvisoryProviderRules:
		return nil, nil
	case AdvisoryProviderGemini:
		generator = &geminiGeneratorAdapter{client: &gemini.Client{
			APIKey:     opts.GeminiAPIKey,
			Model:      opts.GeminiModel,
			BaseURL:    opts.GeminiBaseURL,
			HTTPClient: opts.HTTPClient,
			Limiter:    limiter,
		}}
	case AdvisoryProviderAnalysis:
		generator = &analysisGeneratorAdapter{client: &analysis.Client{
			URL:        opts.AnalysisURL,
			APIKey:     opts.AnalysisKey,
			HTTPClient: opts.HTTPClient,
			Limiter:    limiter,
		}}
	default:
		return nil, fmt.Errorf("unsupported advisory provider %q (use rules, gemini, analysis, or auto)", opts.Provider)
	}
	return &RemoteStrategy{
		Provider:  provider,
		Generator: generator,
		Timeout:   opts.Timeout,
		Logger:    opts.Logger,
	}, nil
}

// AdvisoryEngine tries the remote strategy when one is set and falls back to
// the rules on any failure, so Advise always has an answer.
type AdvisoryEngine struct {
	remote  AdvisoryStrategy
	rules   AdvisoryStrategy
	logger  *slog.Logger
	metrics metrics.MetricsCollector
	seq     atomic.Uint64
}

func NewAdvisoryEngine(remote AdvisoryStrategy, logger *slog.Logger, collector metrics.MetricsCollector) *AdvisoryEngine {
	if logger == nil {
		logger = slog.Default()
	}
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &AdvisoryEngine{
		remote:  remote,
		rules:   RuleBasedStrategy{},
		logger:  logger,
		metrics: collector,
	}
}

func (e *AdvisoryEngine) Advise(ctx context.Context, req AdvisoryRequest) model.Advisory {
	req = normalizeAdvisoryRequest(req)
	if e.remote != nil {
		start := time.Now()
		adv, err := e.remote.Advise(ctx, req)
		if err == nil {
			e.metrics.RecordAdvisory(e.remote.Name(), metrics.OutcomeSuccess, time.Since(start))
			return adv
		}
		e.metrics.RecordAdvisory(e.remote.Name(), metrics.OutcomeFailure, time.Since(start))
		e.logger.Warn("remote advisory failed, using rules",
			"provider", e.remote.Name(),
			"daily_total", req.DailyTotal,
			"error", err,
		)
		adv, _ = e.rules.Advise(ctx, req)
		e.metrics.RecordAdvisory(e.rules.Name(), metrics.OutcomeFallback, 0)
		return adv
	}

	start := time.Now()
	adv, _ := e.rules.Advise(ctx, req)
	e.metrics.RecordAdvisory(e.rules.Name(), metrics.OutcomeSuccess, time.Since(start))
	return adv
}

// Ticket identifies one advisory request. A result whose ticket is no longer
// current was overtaken by a later request and should be dropped.
type Ticket struct {
	engine *AdvisoryEngine
	seq    uint64
}

func (e *AdvisoryEngine) Begin() Ticket {
	return Ticket{engine: e, seq: e.seq.Add(1)}
}

func (t Ticket) Current() bool {
	return t.engine != nil && t.engine.seq.Load() == t.seq
}

func normalizeAdvisoryRequest(req AdvisoryRequest) AdvisoryRequest {
	if req.RecommendedLimit <= 0 {
		req.RecommendedLimit = RecommendedLimit()
	}
	if req.DailyTotal < 0 {
		req.DailyTotal = 0
	}
	if strings.TrimSpace(req.Timeframe) == "" {
		req.Timeframe = defaultTimeframe
	}
	return req
}
