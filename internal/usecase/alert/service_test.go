package alert

import (
	"context"
	"errors"
	"testing"

	"github.com/medisearch/casedex/internal/domain"
)

type mockNotifier struct {
	called  bool
	reasons []string
	err     error
}

func (m *mockNotifier) Notify(_ context.Context, _ domain.DiagnosisReport, reasons []string) error {
	m.called = true
	m.reasons = reasons
	return m.err
}

func TestEvaluate_EmergencyKeywordInDiagnosis(t *testing.T) {
	svc := New(nil)
	d := svc.Evaluate(context.Background(), domain.DiagnosisReport{
		Diagnosis:  "Acute subdural hematoma",
		Confidence: "40%",
	})
	if !d.AlertNeeded {
		t.Fatal("hematoma must trigger an alert")
	}
	if len(d.Reasons) != 1 {
		t.Errorf("reasons = %v", d.Reasons)
	}
}

func TestEvaluate_HemorrhageDiagnosisAlerts(t *testing.T) {
	svc := New(nil)
	d := svc.Evaluate(context.Background(), domain.DiagnosisReport{
		Diagnosis:  "acute hemorrhage",
		Confidence: "90%",
	})
	if !d.AlertNeeded {
		t.Fatal("hemorrhage must trigger an alert")
	}
	if d.Confidence != 90 {
		t.Errorf("confidence = %d", d.Confidence)
	}
}

func TestEvaluate_EmergencyKeywordInFindings(t *testing.T) {
	svc := New(nil)
	d := svc.Evaluate(context.Background(), domain.DiagnosisReport{
		Diagnosis: "Indeterminate lesion",
		Findings:  "active bleeding near the ventricle",
	})
	if !d.AlertNeeded {
		t.Fatal("findings keyword must trigger an alert")
	}
}

func TestEvaluate_HighConfidenceSeriousDiagnosis(t *testing.T) {
	svc := New(nil)
	d := svc.Evaluate(context.Background(), domain.DiagnosisReport{
		Diagnosis:  "brain tumor",
		Confidence: "85%",
	})
	if !d.AlertNeeded {
		t.Fatal("high-confidence tumor must trigger an alert")
	}
	if d.Confidence != 85 {
		t.Errorf("confidence = %d", d.Confidence)
	}
	// keyword rule and confidence rule both fire
	if len(d.Reasons) != 2 {
		t.Errorf("reasons = %v", d.Reasons)
	}
}

func TestEvaluate_BenignReportNoAlert(t *testing.T) {
	svc := New(nil)
	d := svc.Evaluate(context.Background(), domain.DiagnosisReport{
		Diagnosis:  "Normal study",
		Confidence: "95%",
		Findings:   "no abnormality",
	})
	if d.AlertNeeded {
		t.Fatalf("benign report must not alert: %+v", d)
	}
}

func TestEvaluate_LowConfidenceSeriousWithoutKeywordHit(t *testing.T) {
	svc := New(nil)
	// "stroke" is also an emergency keyword, so use confidence below the
	// threshold and a diagnosis matching no keyword list
	d := svc.Evaluate(context.Background(), domain.DiagnosisReport{
		Diagnosis:  "chronic small vessel disease",
		Confidence: "79%",
	})
	if d.AlertNeeded {
		t.Fatal("no rule should fire")
	}
}

func TestEvaluate_DispatchesNotifier(t *testing.T) {
	n := &mockNotifier{}
	svc := New(n)
	d := svc.Evaluate(context.Background(), domain.DiagnosisReport{Diagnosis: "stroke"})
	if !n.called || !d.NotifySent {
		t.Errorf("notifier not dispatched: %+v", d)
	}
}

func TestEvaluate_NotifierFailureKeepsDecision(t *testing.T) {
	n := &mockNotifier{err: errors.New("smtp down")}
	svc := New(n)
	d := svc.Evaluate(context.Background(), domain.DiagnosisReport{Diagnosis: "stroke"})
	if !d.AlertNeeded {
		t.Fatal("decision must stand")
	}
	if d.NotifySent {
		t.Error("NotifySent must be false on dispatch failure")
	}
}

func TestConfidencePercent(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"85%", 85},
		{"about 70 percent", 70},
		{"", 0},
		{"unknown", 0},
	}
	for _, tt := range tests {
		if got := confidencePercent(tt.in); got != tt.want {
			t.Errorf("confidencePercent(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
