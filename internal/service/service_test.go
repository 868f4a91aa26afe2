package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"weather-alert-pipeline/internal/alerting"
	"weather-alert-pipeline/internal/config"
	"weather-alert-pipeline/internal/fetcher"
	"weather-alert-pipeline/internal/storage"
)

type fakeFetcher struct {
	obs fetcher.Observation
	err error
}

func (f *fakeFetcher) FetchCurrent(ctx context.Context) (fetcher.Observation, error) {
	return f.obs, f.err
}

type fakeReadingStore struct {
	inserted  []storage.Reading
	insertErr error
}

func (f *fakeReadingStore) InsertReading(ctx context.Context, reading storage.Reading) (storage.Reading, error) {
	if f.insertErr != nil {
		return storage.Reading{}, f.insertErr
	}
	reading.ID = int64(len(f.inserted) + 1)
	reading.CreatedAt = time.Now().UTC()
	f.inserted = append(f.inserted, reading)
	return reading, nil
}

func (f *fakeReadingStore) ListRecentReadings(ctx context.Context, limit int) ([]storage.Reading, error) {
	return f.inserted, nil
}

func (f *fakeReadingStore) ListReadingsBetween(ctx context.Context, from, to time.Time) ([]storage.Reading, error) {
	return f.inserted, nil
}

func (f *fakeReadingStore) CountReadings(ctx context.Context) (int64, error) {
	return int64(len(f.inserted)), nil
}

func (f *fakeReadingStore) DeleteReadingsBefore(ctx context.Context, olderThan time.Time) (int64, error) {
	return 0, nil
}

type fakeAlertStore struct {
	records   []storage.AlertRecord
	latest    map[string]time.Time
	latestErr error
	insertErr error
}

func (f *fakeAlertStore) InsertAlert(ctx context.Context, alert storage.AlertRecord) (storage.AlertRecord, error) {
	if f.insertErr != nil {
		return storage.AlertRecord{}, f.insertErr
	}
	alert.ID = int64(len(f.records) + 1)
	alert.CreatedAt = time.Now().UTC()
	f.records = append(f.records, alert)
	return alert, nil
}

func (f *fakeAlertStore) LatestAlertTimes(ctx context.Context, types []string) (map[string]time.Time, error) {
	if f.latestErr != nil {
		return nil, f.latestErr
	}
	return f.latest, nil
}

func (f *fakeAlertStore) ListRecentAlerts(ctx context.Context, limit int) ([]storage.AlertRecord, error) {
	return f.records, nil
}

func (f *fakeAlertStore) DeleteAlertsBefore(ctx context.Context, olderThan time.Time) (int64, error) {
	return 0, nil
}

type fakeNotifier struct {
	notes []alerting.Notification
	err   error
}

func (f *fakeNotifier) Notify(ctx context.Context, note alerting.Notification) error {
	f.notes = append(f.notes, note)
	return f.err
}

func testRules() []alerting.Rule {
	return []alerting.Rule{
		{Type: alerting.AlertHeavyRain, Threshold: 10, BaseSeverity: alerting.SeverityHigh, CriticalMargin: 10},
		{Type: alerting.AlertStrongWind, Threshold: 50, BaseSeverity: alerting.SeverityHigh, CriticalMargin: 20},
		{Type: alerting.AlertExtremeTempLow, Threshold: 0, BaseSeverity: alerting.SeverityMedium, CriticalMargin: 10},
		{Type: alerting.AlertExtremeTempHigh, Threshold: 35, BaseSeverity: alerting.SeverityHigh, CriticalMargin: 5},
	}
}

func testConfig(alertsOn bool) *config.Config {
	cfg := &config.Config{}
	cfg.Location = config.LocationConfig{Name: "Vancouver", Latitude: 49.2827, Longitude: -123.1207}
	cfg.Alerting.Enabled = alertsOn
	return cfg
}

func newTestService(cfg *config.Config, fetch fetcher.CurrentWeatherFetcher, readings storage.ReadingStore, alerts storage.AlertStore, notifier alerting.Notifier) *Service {
	eval := alerting.NewEvaluator(testRules(), 6*time.Hour)
	return New(cfg, nil, fetch, readings, alerts, eval, notifier, zerolog.Nop())
}

func stormyObservation() fetcher.Observation {
	return fetcher.Observation{
		Time:          time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
		Temperature:   30,
		Precipitation: 15,
		WindSpeed:     60,
		Humidity:      85,
		WeatherCode:   65,
	}
}

func TestRunTickStoresReadingAndAlerts(t *testing.T) {
	readings := &fakeReadingStore{}
	alerts := &fakeAlertStore{}
	notifier := &fakeNotifier{}
	svc := newTestService(testConfig(true), &fakeFetcher{obs: stormyObservation()}, readings, alerts, notifier)

	if err := svc.RunTick(context.Background(), time.Now()); err != nil {
		t.Fatalf("tick should succeed: %v", err)
	}

	if len(readings.inserted) != 1 {
		t.Fatalf("expected 1 reading, got %d", len(readings.inserted))
	}
	if readings.inserted[0].Location != "Vancouver" {
		t.Fatalf("reading should carry the location, got %q", readings.inserted[0].Location)
	}
	if len(alerts.records) != 2 {
		t.Fatalf("expected 2 alert records, got %d", len(alerts.records))
	}
	for _, rec := range alerts.records {
		if !rec.Delivered {
			t.Fatalf("record %s should be delivered", rec.AlertType)
		}
	}
	if len(notifier.notes) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(notifier.notes))
	}
	if notifier.notes[0].Summary == "" {
		t.Fatal("notification should carry a weather summary")
	}
}

func TestRunTickFetchFailureAborts(t *testing.T) {
	readings := &fakeReadingStore{}
	alerts := &fakeAlertStore{}
	svc := newTestService(testConfig(true), &fakeFetcher{err: errors.New("503")}, readings, alerts, nil)

	err := svc.RunTick(context.Background(), time.Now())
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
	if len(readings.inserted) != 0 || len(alerts.records) != 0 {
		t.Fatal("nothing should be persisted when the fetch fails")
	}
}

func TestRunTickStoreFailureAborts(t *testing.T) {
	readings := &fakeReadingStore{insertErr: errors.New("connection refused")}
	alerts := &fakeAlertStore{}
	notifier := &fakeNotifier{}
	svc := newTestService(testConfig(true), &fakeFetcher{obs: stormyObservation()}, readings, alerts, notifier)

	err := svc.RunTick(context.Background(), time.Now())
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if len(notifier.notes) != 0 || len(alerts.records) != 0 {
		t.Fatal("evaluation must not run when the reading was not stored")
	}
}

func TestRunTickNotifyFailureRecordsUndelivered(t *testing.T) {
	readings := &fakeReadingStore{}
	alerts := &fakeAlertStore{}
	notifier := &fakeNotifier{err: errors.New("smtp timeout")}
	svc := newTestService(testConfig(true), &fakeFetcher{obs: stormyObservation()}, readings, alerts, notifier)

	err := svc.RunTick(context.Background(), time.Now())
	if !errors.Is(err, ErrNotifyFailed) {
		t.Fatalf("expected ErrNotifyFailed, got %v", err)
	}
	if len(readings.inserted) != 1 {
		t.Fatal("reading must stay stored when delivery fails")
	}
	if len(alerts.records) != 2 {
		t.Fatalf("expected 2 undelivered records, got %d", len(alerts.records))
	}
	for _, rec := range alerts.records {
		if rec.Delivered {
			t.Fatalf("record %s should be marked undelivered", rec.AlertType)
		}
	}
}

func TestRunTickCooldownSuppresses(t *testing.T) {
	obs := stormyObservation()
	readings := &fakeReadingStore{}
	alerts := &fakeAlertStore{latest: map[string]time.Time{
		string(alerting.AlertHeavyRain): obs.Time.Add(-1 * time.Hour),
	}}
	notifier := &fakeNotifier{}
	svc := newTestService(testConfig(true), &fakeFetcher{obs: obs}, readings, alerts, notifier)

	if err := svc.RunTick(context.Background(), time.Now()); err != nil {
		t.Fatalf("tick should succeed: %v", err)
	}

	if len(alerts.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(alerts.records))
	}
	if alerts.records[0].AlertType != string(alerting.AlertStrongWind) {
		t.Fatalf("rain is inside its cooldown, only wind should fire, got %s", alerts.records[0].AlertType)
	}
}

func TestRunTickLatestTimesFailureAborts(t *testing.T) {
	readings := &fakeReadingStore{}
	alerts := &fakeAlertStore{latestErr: errors.New("connection reset")}
	notifier := &fakeNotifier{}
	svc := newTestService(testConfig(true), &fakeFetcher{obs: stormyObservation()}, readings, alerts, notifier)

	err := svc.RunTick(context.Background(), time.Now())
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if len(readings.inserted) != 1 {
		t.Fatal("the reading stays stored even when evaluation aborts")
	}
	if len(notifier.notes) != 0 || len(alerts.records) != 0 {
		t.Fatal("no alerts may fire without cooldown history")
	}
}

func TestRunTickAlertsDisabled(t *testing.T) {
	readings := &fakeReadingStore{}
	alerts := &fakeAlertStore{}
	notifier := &fakeNotifier{}
	svc := newTestService(testConfig(false), &fakeFetcher{obs: stormyObservation()}, readings, alerts, notifier)

	if err := svc.RunTick(context.Background(), time.Now()); err != nil {
		t.Fatalf("tick should succeed: %v", err)
	}
	if len(readings.inserted) != 1 {
		t.Fatal("readings are stored even with alerting disabled")
	}
	if len(alerts.records) != 0 || len(notifier.notes) != 0 {
		t.Fatal("no alerts may fire while alerting is disabled")
	}
}

func TestRunTickQuietConditions(t *testing.T) {
	obs := fetcher.Observation{
		Time:          time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
		Temperature:   18,
		Precipitation: 0.2,
		WindSpeed:     12,
		Humidity:      60,
		WeatherCode:   2,
	}
	readings := &fakeReadingStore{}
	alerts := &fakeAlertStore{}
	notifier := &fakeNotifier{}
	svc := newTestService(testConfig(true), &fakeFetcher{obs: obs}, readings, alerts, notifier)

	if err := svc.RunTick(context.Background(), time.Now()); err != nil {
		t.Fatalf("tick should succeed: %v", err)
	}
	if len(alerts.records) != 0 || len(notifier.notes) != 0 {
		t.Fatal("calm conditions should produce no alerts")
	}
	if len(readings.inserted) != 1 {
		t.Fatal("the reading is stored regardless of alerts")
	}
}
