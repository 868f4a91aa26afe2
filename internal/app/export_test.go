package app

import (
	"testing"
	"time"

	"weather-alert-pipeline/internal/storage"
)

func sampleReadings(n int) []storage.Reading {
	base := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	readings := make([]storage.Reading, n)
	for i := range readings {
		readings[i] = storage.Reading{
			ID:        int64(i + 1),
			Timestamp: base.Add(time.Duration(i) * time.Hour),
		}
	}
	return readings
}

func TestDownsampleReadingsKeepsSmallSets(t *testing.T) {
	readings := sampleReadings(5)

	if got := downsampleReadings(readings, 5); len(got) != 5 {
		t.Fatalf("max equal to len should keep all readings, got %d", len(got))
	}
	if got := downsampleReadings(readings, 100); len(got) != 5 {
		t.Fatalf("max above len should keep all readings, got %d", len(got))
	}
	if got := downsampleReadings(readings, 0); len(got) != 5 {
		t.Fatalf("max 0 disables downsampling, got %d readings", len(got))
	}
}

func TestDownsampleReadingsSinglePoint(t *testing.T) {
	readings := sampleReadings(2)

	got := downsampleReadings(readings, 1)
	if len(got) != 1 {
		t.Fatalf("expected 1 reading, got %d", len(got))
	}
	if got[0].ID != readings[1].ID {
		t.Fatalf("expected the most recent reading, got id %d", got[0].ID)
	}
}

func TestDownsampleReadingsKeepsEndpoints(t *testing.T) {
	readings := sampleReadings(10)

	got := downsampleReadings(readings, 4)
	if len(got) != 4 {
		t.Fatalf("expected 4 readings, got %d", len(got))
	}
	if got[0].ID != readings[0].ID {
		t.Fatalf("first point should be the oldest reading, got id %d", got[0].ID)
	}
	if got[len(got)-1].ID != readings[len(readings)-1].ID {
		t.Fatalf("last point should be the newest reading, got id %d", got[len(got)-1].ID)
	}
}
