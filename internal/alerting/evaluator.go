package alerting

import (
	"fmt"
	"strings"
	"time"
)

// AlertType identifies a threshold rule and the alert records it produces.
type AlertType string

// Alert types recognised by the evaluator.
const (
	AlertHeavyRain       AlertType = "HEAVY_RAIN"
	AlertStrongWind      AlertType = "STRONG_WIND"
	AlertExtremeTempLow  AlertType = "EXTREME_TEMP_LOW"
	AlertExtremeTempHigh AlertType = "EXTREME_TEMP_HIGH"
)

// AllAlertTypes lists every alert type in evaluation order.
var AllAlertTypes = []AlertType{
	AlertHeavyRain,
	AlertStrongWind,
	AlertExtremeTempLow,
	AlertExtremeTempHigh,
}

// Title renders an alert type for email subjects and tables,
// e.g. "HEAVY_RAIN" becomes "Heavy Rain".
func (t AlertType) Title() string {
	words := strings.Split(strings.ToLower(string(t)), "_")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

// Severity grades how far conditions sit past a threshold.
type Severity string

// Severity levels, mildest first.
const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// ParseSeverity maps a configuration string onto a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch sev := Severity(strings.ToUpper(strings.TrimSpace(s))); sev {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return sev, nil
	}
	return "", fmt.Errorf("unknown severity %q", s)
}

// Conditions captures the observed values the threshold rules test against.
type Conditions struct {
	Temperature   float64 // °C
	Precipitation float64 // mm/h
	WindSpeed     float64 // km/h
	Humidity      float64 // %
}

// Rule is one configured threshold check. BaseSeverity is emitted on a plain
// breach; values clearing CriticalMargin past the threshold escalate to
// CRITICAL. A zero margin disables escalation.
type Rule struct {
	Type           AlertType
	Threshold      float64
	BaseSeverity   Severity
	CriticalMargin float64
}

// Candidate is an alert the evaluator decided should fire now.
type Candidate struct {
	Type      AlertType
	Severity  Severity
	Message   string
	Value     float64
	Threshold float64
}

// Evaluator applies threshold rules and per-type cooldowns to observed
// conditions. Evaluation is pure: all state it consults is passed in, so the
// same inputs always yield the same candidates.
type Evaluator struct {
	rules    []Rule
	cooldown time.Duration
}

// NewEvaluator builds an evaluator over the given rules.
func NewEvaluator(rules []Rule, cooldown time.Duration) *Evaluator {
	return &Evaluator{rules: rules, cooldown: cooldown}
}

// Evaluate tests conditions against every rule and returns the candidates
// that breach their threshold and sit outside their type's cooldown window.
// last maps alert types to the timestamp of their most recent alert record;
// a type whose last record is newer than now minus the cooldown is suppressed.
// Rules are independent: each breach is checked only against its own type's
// history.
func (e *Evaluator) Evaluate(c Conditions, last map[AlertType]time.Time, now time.Time) []Candidate {
	candidates := make([]Candidate, 0, len(e.rules))
	for _, rule := range e.rules {
		value, breached := rule.test(c)
		if !breached {
			continue
		}
		if ts, ok := last[rule.Type]; ok && now.Sub(ts) < e.cooldown {
			continue
		}
		candidates = append(candidates, Candidate{
			Type:      rule.Type,
			Severity:  rule.severityFor(value),
			Message:   rule.message(value),
			Value:     value,
			Threshold: rule.Threshold,
		})
	}
	return candidates
}

// test selects the observed value a rule watches and applies its comparison.
// Rain, wind, and heat breach above the threshold; cold breaches below it.
// Boundary equality never breaches.
func (r Rule) test(c Conditions) (float64, bool) {
	switch r.Type {
	case AlertHeavyRain:
		return c.Precipitation, c.Precipitation > r.Threshold
	case AlertStrongWind:
		return c.WindSpeed, c.WindSpeed > r.Threshold
	case AlertExtremeTempLow:
		return c.Temperature, c.Temperature < r.Threshold
	case AlertExtremeTempHigh:
		return c.Temperature, c.Temperature > r.Threshold
	}
	return 0, false
}

func (r Rule) severityFor(value float64) Severity {
	if r.CriticalMargin <= 0 {
		return r.BaseSeverity
	}
	critical := value > r.Threshold+r.CriticalMargin
	if r.Type == AlertExtremeTempLow {
		critical = value < r.Threshold-r.CriticalMargin
	}
	if critical {
		return SeverityCritical
	}
	return r.BaseSeverity
}

func (r Rule) message(value float64) string {
	switch r.Type {
	case AlertHeavyRain:
		return fmt.Sprintf("Heavy rainfall detected: %.1f mm/h (Threshold: %.1f mm/h)", value, r.Threshold)
	case AlertStrongWind:
		return fmt.Sprintf("Strong wind detected: %.1f km/h (Threshold: %.1f km/h)", value, r.Threshold)
	case AlertExtremeTempLow:
		return fmt.Sprintf("Extreme cold detected: %.1f°C (Threshold: %.1f°C)", value, r.Threshold)
	case AlertExtremeTempHigh:
		return fmt.Sprintf("Extreme heat detected: %.1f°C (Threshold: %.1f°C)", value, r.Threshold)
	}
	return fmt.Sprintf("Threshold breached: %.1f (Threshold: %.1f)", value, r.Threshold)
}
