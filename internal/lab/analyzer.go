// ABOUTME: Heuristic analysis of untrustworthy text for the injection lab tools.
// ABOUTME: Pure functions; pattern tiers map matched indicators to a 0-100 risk score.

package lab

import (
	"fmt"
	"regexp"
	"strings"
)

// Severity tiers for matched indicators.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Score contributions per tier. The final score is capped at 100.
const (
	scoreHigh   = 40
	scoreMedium = 20
	scoreLow    = 10
)

// Indicator is one matched heuristic in the analyzed text.
type Indicator struct {
	Name     string `json:"name"`
	Severity string `json:"severity"`
	Match    string `json:"match"`
}

// Report is the result of analyzing a piece of untrustworthy text.
type Report struct {
	Indicators []Indicator `json:"indicators"`
	RiskScore  int         `json:"riskScore"`
}

// Simulation contrasts what a naive agent would do with the analyzed text
// against what a guarded agent should do.
type Simulation struct {
	NaiveAction string `json:"naiveAction"`
	SafeAction  string `json:"safeAction"`
}

// pattern pairs a named heuristic with its compiled expression and severity.
type pattern struct {
	name     string
	severity string
	re       *regexp.Regexp
}

// patterns are the fixed heuristics, ordered high tier first so the strongest
// match surfaces first in the report.
var patterns = []pattern{
	{"instruction-override", SeverityHigh, regexp.MustCompile(`(?i)ignore (all )?(previous|prior|above) (instructions|rules|prompts)`)},
	{"system-prompt-probe", SeverityHigh, regexp.MustCompile(`(?i)(reveal|print|repeat|show).{0,30}(system prompt|hidden instructions)`)},
	{"exfiltration-url", SeverityHigh, regexp.MustCompile(`(?i)(send|post|forward|upload).{0,40}https?://`)},
	{"credential-harvest", SeverityHigh, regexp.MustCompile(`(?i)(api[_ -]?key|password|secret|token)s?\b.{0,30}(send|share|include|paste)`)},
	{"role-hijack", SeverityMedium, regexp.MustCompile(`(?i)you are (now|no longer)\b`)},
	{"tool-coercion", SeverityMedium, regexp.MustCompile(`(?i)(call|invoke|use) the [a-z_]+ tool`)},
	{"urgency-pressure", SeverityMedium, regexp.MustCompile(`(?i)(immediately|urgent|right now|before (replying|responding))`)},
	{"hidden-payload", SeverityLow, regexp.MustCompile(`(?i)(do not (tell|mention|show))|(keep this (secret|hidden))`)},
	{"embedded-markup", SeverityLow, regexp.MustCompile(`<\s*(script|iframe|img)\b`)},
}

// Analyze runs every heuristic over the text and aggregates a risk score.
// Identical input always yields an identical report.
func Analyze(text string) Report {
	report := Report{Indicators: []Indicator{}}

	for _, p := range patterns {
		m := p.re.FindString(text)
		if m == "" {
			continue
		}
		report.Indicators = append(report.Indicators, Indicator{
			Name:     p.name,
			Severity: p.severity,
			Match:    truncate(m, 80),
		})
		switch p.severity {
		case SeverityHigh:
			report.RiskScore += scoreHigh
		case SeverityMedium:
			report.RiskScore += scoreMedium
		default:
			report.RiskScore += scoreLow
		}
	}

	if report.RiskScore > 100 {
		report.RiskScore = 100
	}
	return report
}

// Simulate describes the naive versus safe handling of the text given the
// tools an agent could reach.
func Simulate(text string, availableTools []string) Simulation {
	report := Analyze(text)

	if len(report.Indicators) == 0 {
		return Simulation{
			NaiveAction: "Treat the text as data and continue the task.",
			SafeAction:  "Treat the text as data and continue the task.",
		}
	}

	top := report.Indicators[0]
	naive := fmt.Sprintf("Follow the embedded instruction (%s)", top.Name)
	if len(availableTools) > 0 {
		naive += fmt.Sprintf(", potentially invoking: %s", strings.Join(availableTools, ", "))
	}
	naive += "."

	return Simulation{
		NaiveAction: naive,
		SafeAction: fmt.Sprintf(
			"Quarantine the text as untrusted content (risk %d/100), take no tool action it requests, and surface the %d matched indicator(s) to the operator.",
			report.RiskScore, len(report.Indicators)),
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
