package alerting

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Notification carries everything a delivery channel needs to describe one
// alert: the candidate itself plus the observation it was evaluated from.
type Notification struct {
	Alert    Candidate
	Location string
	Observed time.Time
	Current  Conditions
	Summary  string // human text for the observed weather code, optional
}

// Notifier delivers alert notifications. Implementations must respect the
// context deadline and return an error when delivery did not happen.
type Notifier interface {
	Notify(ctx context.Context, note Notification) error
}

func renderSubject(note Notification) string {
	return "Weather Alert: " + note.Alert.Type.Title()
}

func renderBody(note Notification) string {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("Location: %s\n", note.Location))
	builder.WriteString(fmt.Sprintf("Time: %s\n", note.Observed.UTC().Format("2006-01-02 15:04 UTC")))
	builder.WriteString(fmt.Sprintf("Alert Type: %s\n", note.Alert.Type))
	builder.WriteString(fmt.Sprintf("Severity: %s\n", note.Alert.Severity))
	builder.WriteString("\nCurrent Conditions:\n")
	builder.WriteString(fmt.Sprintf("- Temperature: %.1f°C\n", note.Current.Temperature))
	builder.WriteString(fmt.Sprintf("- Precipitation: %.1f mm/h\n", note.Current.Precipitation))
	builder.WriteString(fmt.Sprintf("- Wind Speed: %.1f km/h\n", note.Current.WindSpeed))
	builder.WriteString(fmt.Sprintf("- Humidity: %.0f%%\n", note.Current.Humidity))
	if note.Summary != "" {
		builder.WriteString(fmt.Sprintf("- Condition: %s\n", note.Summary))
	}
	builder.WriteString(fmt.Sprintf("\nAction Required: %s\n", note.Alert.Message))
	builder.WriteString("\nThis is an automated message from the weather alert pipeline.\n")
	return builder.String()
}
