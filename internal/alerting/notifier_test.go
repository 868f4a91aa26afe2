package alerting

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func sampleNotification() Notification {
	return Notification{
		Alert: Candidate{
			Type:      AlertHeavyRain,
			Severity:  SeverityHigh,
			Message:   "Heavy rainfall detected: 15.0 mm/h (Threshold: 10.0 mm/h)",
			Value:     15,
			Threshold: 10,
		},
		Location: "Vancouver",
		Observed: time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
		Current:  Conditions{Temperature: 12.3, Precipitation: 15, WindSpeed: 22.5, Humidity: 91},
		Summary:  "Heavy rain",
	}
}

func TestRenderSubject(t *testing.T) {
	got := renderSubject(sampleNotification())
	if got != "Weather Alert: Heavy Rain" {
		t.Fatalf("wrong subject: %q", got)
	}
}

func TestRenderBody(t *testing.T) {
	body := renderBody(sampleNotification())
	for _, want := range []string{
		"Location: Vancouver",
		"Time: 2026-03-14 10:30 UTC",
		"Alert Type: HEAVY_RAIN",
		"Severity: HIGH",
		"- Temperature: 12.3°C",
		"- Precipitation: 15.0 mm/h",
		"- Wind Speed: 22.5 km/h",
		"- Humidity: 91%",
		"- Condition: Heavy rain",
		"Action Required: Heavy rainfall detected",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}
}

func TestRenderBodyWithoutSummary(t *testing.T) {
	note := sampleNotification()
	note.Summary = ""
	if strings.Contains(renderBody(note), "- Condition:") {
		t.Fatal("condition line should be omitted when no summary is set")
	}
}

func TestNewEmailNotifierValidation(t *testing.T) {
	valid := EmailOptions{
		Host: "smtp.example.com",
		Port: 587,
		From: "alerts@example.com",
		To:   []string{"ops@example.com"},
	}

	if _, err := NewEmailNotifier(valid, testLogger()); err != nil {
		t.Fatalf("valid options should build: %v", err)
	}

	missingHost := valid
	missingHost.Host = ""
	if _, err := NewEmailNotifier(missingHost, testLogger()); err == nil {
		t.Fatal("missing host should error")
	}

	missingFrom := valid
	missingFrom.From = ""
	if _, err := NewEmailNotifier(missingFrom, testLogger()); err == nil {
		t.Fatal("missing sender should error")
	}

	missingTo := valid
	missingTo.To = nil
	if _, err := NewEmailNotifier(missingTo, testLogger()); err == nil {
		t.Fatal("missing recipients should error")
	}
}
