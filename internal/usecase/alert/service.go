// Package alert decides whether a diagnosis report warrants an emergency
// notification and dispatches it through a pluggable notifier.
package alert

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/medisearch/casedex/internal/domain"
	"github.com/medisearch/casedex/internal/logger"
)

// emergencyKeywords trigger an alert when found in the diagnosis or
// findings text.
var emergencyKeywords = []string{
	"hemorrhage", "bleeding", "hematoma",
	"stroke", "infarction",
	"tumor", "cancer", "malignant",
	"rupture", "perforation",
	"emergency", "critical",
}

// seriousKeywords trigger an alert in the diagnosis alone when paired
// with high confidence.
var seriousKeywords = []string{"tumor", "bleeding", "stroke"}

// highConfidenceThreshold is the percent above which a serious diagnosis
// alone is alert-worthy.
const highConfidenceThreshold = 80

// Decision is the outcome of one alert evaluation.
type Decision struct {
	AlertNeeded bool      `json:"alert_needed"`
	Reasons     []string  `json:"reasons"`
	Confidence  int       `json:"confidence"`
	NotifySent  bool      `json:"notify_sent"`
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// Notifier delivers an emergency alert to the configured recipient.
type Notifier interface {
	Notify(ctx context.Context, report domain.DiagnosisReport, reasons []string) error
}

// Service evaluates diagnosis reports against the emergency rules.
type Service struct {
	notifier Notifier
}

// New creates an alert evaluator. notifier may be nil to evaluate without
// dispatching.
func New(notifier Notifier) *Service {
	return &Service{notifier: notifier}
}

// Evaluate applies the keyword and confidence rules and, when an alert is
// needed and a notifier is configured, dispatches it. Notification
// failures are logged, not returned: the decision itself still stands.
func (s *Service) Evaluate(ctx context.Context, report domain.DiagnosisReport) Decision {
	log := logger.FromContext(ctx)

	diagnosis := strings.ToLower(report.Diagnosis)
	findings := strings.ToLower(report.Findings)
	confidence := confidencePercent(report.Confidence)

	decision := Decision{
		Confidence:  confidence,
		EvaluatedAt: time.Now().UTC(),
	}

	for _, kw := range emergencyKeywords {
		if strings.Contains(diagnosis, kw) || strings.Contains(findings, kw) {
			decision.AlertNeeded = true
			decision.Reasons = append(decision.Reasons, fmt.Sprintf("emergency keyword: %s", kw))
		}
	}

	if confidence >= highConfidenceThreshold {
		for _, kw := range seriousKeywords {
			if strings.Contains(diagnosis, kw) {
				decision.AlertNeeded = true
				decision.Reasons = append(decision.Reasons,
					fmt.Sprintf("high-confidence serious diagnosis: %s (%d%%)", kw, confidence))
			}
		}
	}

	if decision.AlertNeeded && s.notifier != nil {
		if err := s.notifier.Notify(ctx, report, decision.Reasons); err != nil {
			log.Error("alert notification failed", zap.Error(err))
		} else {
			decision.NotifySent = true
		}
	}

	return decision
}

var digitsPattern = regexp.MustCompile(`\d+`)

// confidencePercent pulls the first integer out of a confidence string
// like "85%", defaulting to 0.
func confidencePercent(s string) int {
	m := digitsPattern.FindString(s)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// LogNotifier is the default notifier: it records the alert in the log
// instead of paging anyone.
type LogNotifier struct {
	Logger *zap.Logger
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(_ context.Context, report domain.DiagnosisReport, reasons []string) error {
	n.Logger.Warn("emergency alert",
		zap.String("diagnosis", report.Diagnosis),
		zap.String("confidence", report.Confidence),
		zap.Strings("reasons", reasons))
	return nil
}
