package compute

import (
	"math"
	"strconv"
	"strings"

	"github.com/sitepulse/sitepulse/internal/source"
)

// Penalty and bonus weights for the composite score formula.
// Empirically chosen; consumers depend on the resulting scale.
const (
	penaltyLCP = 5.0
	penaltyCLS = 3.0
	penaltyINP = 2.5

	bonusMobile  = 2.0
	bonusDesktop = 2.0
)

// Thresholds that trigger the penalties and bonuses.
const (
	thresholdLCPSeconds = 2.5
	thresholdCLS        = 0.1
	thresholdINPMillis  = 300.0

	thresholdMobileBonus  = 75.0
	thresholdDesktopBonus = 80.0
)

// Rating buckets for the final score.
const (
	RatingGood             = "Good"
	RatingNeedsImprovement = "Needs Improvement"
	RatingPoor             = "Poor"
)

// Issue strings appended per triggered condition, in evaluation order.
const (
	IssueHighLCP      = "High LCP (-5)"
	IssueHighCLS      = "High CLS (-3)"
	IssueHighINP      = "High INP (-2.5)"
	IssueMobileBonus  = "Mobile bonus (+2)"
	IssueDesktopBonus = "Desktop bonus (+2)"

	// NoIssues is reported when no condition triggered.
	NoIssues = "None"
)

// Score is the output of the composite formula.
type Score struct {
	// Base is the average of the two lab performance scores, before
	// penalties and bonuses.
	Base float64

	// Final is the rounded, clamped 0–100 composite.
	Final int

	// Rating is the bucket Final falls into.
	Rating string

	// Issues lists one string per triggered condition, in fixed order:
	// LCP, CLS, INP, mobile bonus, desktop bonus. Empty when none fired.
	Issues []string
}

// IssueSummary joins the issue list for the output row, or NoIssues.
func (s Score) IssueSummary() string {
	if len(s.Issues) == 0 {
		return NoIssues
	}
	return strings.Join(s.Issues, "; ")
}

// Compose computes the composite score from the two strategy samples.
//
// base    = avg(mobile perf, desktop perf)
// avgLCP  > 2.5 s → −5    avgCLS > 0.1 → −3    avgINP > 300 ms → −2.5
// mobile  > 75   → +2     desktop > 80 → +2
// final   = clamp(round(base − penalties + bonuses), 0, 100)
//
// Sentinel ("n/a") inputs never panic: a threshold only triggers when its
// value parses, and an unparsable performance score contributes 0 to base.
func Compose(mobile, desktop *source.PerformanceSample) Score {
	mobilePerf, _ := Num(mobile.Performance)
	desktopPerf, _ := Num(desktop.Performance)
	base := (mobilePerf + desktopPerf) / 2

	avgLCP := average(mobile.LabLCP, desktop.LabLCP)
	avgCLS := average(mobile.LabCLS, desktop.LabCLS)
	avgINP := average(mobile.LabINP, desktop.LabINP)

	var issues []string
	var penalties, bonuses float64

	if avgLCP > thresholdLCPSeconds {
		penalties += penaltyLCP
		issues = append(issues, IssueHighLCP)
	}
	if avgCLS > thresholdCLS {
		penalties += penaltyCLS
		issues = append(issues, IssueHighCLS)
	}
	if avgINP > thresholdINPMillis {
		penalties += penaltyINP
		issues = append(issues, IssueHighINP)
	}
	if mobilePerf > thresholdMobileBonus {
		bonuses += bonusMobile
		issues = append(issues, IssueMobileBonus)
	}
	if desktopPerf > thresholdDesktopBonus {
		bonuses += bonusDesktop
		issues = append(issues, IssueDesktopBonus)
	}

	final := int(math.Round(base - penalties + bonuses))
	if final < 0 {
		final = 0
	}
	if final > 100 {
		final = 100
	}

	return Score{
		Base:   base,
		Final:  final,
		Rating: rating(final),
		Issues: issues,
	}
}

// rating maps a final score to its bucket.
func rating(final int) string {
	switch {
	case final >= 90:
		return RatingGood
	case final >= 50:
		return RatingNeedsImprovement
	default:
		return RatingPoor
	}
}

// Num parses a snapshot value, reporting false for the NA sentinel or any
// other non-numeric content.
func Num(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// average is the arithmetic mean of the values that parse; values that do
// not parse are excluded rather than treated as zero, so a single missing
// strategy value cannot mask a real threshold breach.
func average(values ...string) float64 {
	var sum float64
	var n int
	for _, s := range values {
		if v, ok := Num(s); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
