package diagnose

import "testing"

func TestParseReport_NumberedLabels(t *testing.T) {
	report := ParseReport(`1. Diagnosis: Glioblastoma multiforme
2. Confidence: 85% certain
3. Findings: ring-enhancing mass with edema
4. Location: left frontal lobe`)

	if report.Diagnosis != "Glioblastoma multiforme" {
		t.Errorf("diagnosis = %q", report.Diagnosis)
	}
	if report.Confidence != "85%" {
		t.Errorf("confidence = %q", report.Confidence)
	}
	if report.Findings != "ring-enhancing mass with edema" {
		t.Errorf("findings = %q", report.Findings)
	}
	if report.Location != "left frontal lobe" {
		t.Errorf("location = %q", report.Location)
	}
}

func TestParseReport_DiseaseLabelAccepted(t *testing.T) {
	report := ParseReport("Disease name: Hydrocephalus")
	if report.Diagnosis != "Hydrocephalus" {
		t.Errorf("diagnosis = %q", report.Diagnosis)
	}
}

func TestParseReport_FirstValueWins(t *testing.T) {
	report := ParseReport("Diagnosis: Stroke\nDiagnosis: Tumor")
	if report.Diagnosis != "Stroke" {
		t.Errorf("diagnosis = %q", report.Diagnosis)
	}
}

func TestParseReport_IgnoresUnlabeledText(t *testing.T) {
	report := ParseReport("The scan shows an abnormality.\n\nno colon here")
	if report != (ParseReport("")) {
		t.Errorf("report = %+v", report)
	}
}
