package source

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"

	"github.com/sitepulse/sitepulse/internal/httpcall"
)

// Strategy selects the emulated device for a lab measurement.
type Strategy string

const (
	StrategyMobile  Strategy = "mobile"
	StrategyDesktop Strategy = "desktop"
)

// Lab audit IDs consumed from the synthetic-audit channel.
const (
	auditLCP = "largest-contentful-paint"
	auditCLS = "cumulative-layout-shift"
	auditTBT = "total-blocking-time" // lab-side interactivity proxy
)

// Field metric keys consumed from the field-experience channel.
const (
	fieldLCP = "LARGEST_CONTENTFUL_PAINT_MS"
	fieldCLS = "CUMULATIVE_LAYOUT_SHIFT_SCORE"
	fieldINP = "INTERACTION_TO_NEXT_PAINT"
	fieldFCP = "FIRST_CONTENTFUL_PAINT_MS"
)

// Optimization-opportunity audits summed into the savings estimates.
// An unlisted or absent audit contributes zero.
var (
	imageSavingsAudits = []string{
		"uses-optimized-images",
		"uses-responsive-images",
		"efficient-animated-content",
		"modern-image-formats",
	}
	jsSavingsAudits  = []string{"unused-javascript", "unminified-javascript"}
	cssSavingsAudits = []string{"unused-css-rules", "unminified-css"}
)

// PerformanceSample is the normalized lab result for one strategy.
// Category scores are integer strings 0–100; LCP/FCP are seconds, CLS is
// unitless, the interactivity proxy is milliseconds; savings are KB with
// one decimal. Every field degrades to NA independently.
type PerformanceSample struct {
	Performance   string
	Accessibility string
	BestPractices string
	SEO           string

	LabLCP string
	LabCLS string
	LabINP string

	FieldLCP string
	FieldCLS string
	FieldINP string
	FieldFCP string

	ImgSavingsKB string
	JSSavingsKB  string
	CSSSavingsKB string
}

// DefaultPerformance returns the all-NA sample used for failed measurements.
func DefaultPerformance() *PerformanceSample {
	return &PerformanceSample{
		Performance:   NA,
		Accessibility: NA,
		BestPractices: NA,
		SEO:           NA,
		LabLCP:        NA,
		LabCLS:        NA,
		LabINP:        NA,
		FieldLCP:      NA,
		FieldCLS:      NA,
		FieldINP:      NA,
		FieldFCP:      NA,
		ImgSavingsKB:  NA,
		JSSavingsKB:   NA,
		CSSSavingsKB:  NA,
	}
}

// PageSpeed runs synthetic audits through a PageSpeed Insights-style API.
type PageSpeed struct {
	exec     *httpcall.Executor
	endpoint string
	key      string
}

// NewPageSpeed returns a lab adapter calling endpoint with key.
func NewPageSpeed(exec *httpcall.Executor, endpoint, key string) *PageSpeed {
	return &PageSpeed{exec: exec, endpoint: endpoint, key: key}
}

// Measure audits pageURL under the given strategy. pageURL must be a
// reachable URL established by the prober; an empty value fails immediately
// without calling the provider. Unlike the other adapters, Measure reports
// failure to the caller: the pipeline must not merge a partial lab result.
func (ps *PageSpeed) Measure(ctx context.Context, pageURL string, strategy Strategy) (*PerformanceSample, error) {
	if pageURL == "" {
		return nil, fmt.Errorf("pagespeed: no reachable URL to measure")
	}

	q := url.Values{}
	q.Set("url", pageURL)
	q.Set("strategy", string(strategy))
	q.Set("key", ps.key)
	q["category"] = []string{"performance", "accessibility", "best-practices", "seo"}

	resp, err := ps.exec.Get(ctx, ps.endpoint+"?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("pagespeed %s audit: %w", strategy, err)
	}
	defer resp.Body.Close()

	var body psiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("pagespeed %s audit: decode response: %w", strategy, err)
	}
	return newSample(&body), nil
}

type psiResponse struct {
	LighthouseResult struct {
		Categories map[string]struct {
			Score *float64 `json:"score"`
		} `json:"categories"`
		Audits map[string]psiAudit `json:"audits"`
	} `json:"lighthouseResult"`
	LoadingExperience struct {
		Metrics map[string]fieldMetric `json:"metrics"`
	} `json:"loadingExperience"`
}

type fieldMetric struct {
	Percentile *float64 `json:"percentile"`
}

type psiAudit struct {
	NumericValue *float64 `json:"numericValue"`
	Details      struct {
		OverallSavingsBytes *float64 `json:"overallSavingsBytes"`
	} `json:"details"`
}

func newSample(body *psiResponse) *PerformanceSample {
	s := DefaultPerformance()

	s.Performance = categoryScore(body, "performance")
	s.Accessibility = categoryScore(body, "accessibility")
	s.BestPractices = categoryScore(body, "best-practices")
	s.SEO = categoryScore(body, "seo")

	audits := body.LighthouseResult.Audits
	if v, ok := auditValue(audits, auditLCP); ok {
		s.LabLCP = strconv.FormatFloat(v/1000, 'f', 2, 64) // ms → s
	}
	if v, ok := auditValue(audits, auditCLS); ok {
		s.LabCLS = strconv.FormatFloat(v, 'f', -1, 64)
	}
	if v, ok := auditValue(audits, auditTBT); ok {
		s.LabINP = strconv.Itoa(int(math.Round(v)))
	}

	metrics := body.LoadingExperience.Metrics
	if v, ok := fieldValue(metrics, fieldLCP); ok {
		s.FieldLCP = strconv.FormatFloat(v/1000, 'f', 2, 64)
	}
	if v, ok := fieldValue(metrics, fieldCLS); ok {
		s.FieldCLS = strconv.FormatFloat(v/100, 'f', -1, 64)
	}
	if v, ok := fieldValue(metrics, fieldINP); ok {
		s.FieldINP = strconv.Itoa(int(math.Round(v)))
	}
	if v, ok := fieldValue(metrics, fieldFCP); ok {
		s.FieldFCP = strconv.FormatFloat(v/1000, 'f', 2, 64)
	}

	s.ImgSavingsKB = savingsKB(audits, imageSavingsAudits)
	s.JSSavingsKB = savingsKB(audits, jsSavingsAudits)
	s.CSSSavingsKB = savingsKB(audits, cssSavingsAudits)
	return s
}

// categoryScore renders a 0–1 category score as an integer 0–100 string.
func categoryScore(body *psiResponse, name string) string {
	cat, ok := body.LighthouseResult.Categories[name]
	if !ok || cat.Score == nil {
		return NA
	}
	return strconv.Itoa(int(math.Round(*cat.Score * 100)))
}

func auditValue(audits map[string]psiAudit, id string) (float64, bool) {
	a, ok := audits[id]
	if !ok || a.NumericValue == nil {
		return 0, false
	}
	return *a.NumericValue, true
}

func fieldValue(metrics map[string]fieldMetric, key string) (float64, bool) {
	m, ok := metrics[key]
	if !ok || m.Percentile == nil {
		return 0, false
	}
	return *m.Percentile, true
}

// savingsKB sums the reported byte savings of the given audits and renders
// kilobytes with one decimal. A sample with none of the audits present
// reports 0.0, not NA: the provider answered, there is just nothing to save.
func savingsKB(audits map[string]psiAudit, ids []string) string {
	var bytes float64
	for _, id := range ids {
		if a, ok := audits[id]; ok && a.Details.OverallSavingsBytes != nil {
			bytes += *a.Details.OverallSavingsBytes
		}
	}
	return strconv.FormatFloat(bytes/1024, 'f', 1, 64)
}
