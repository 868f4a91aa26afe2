package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"weather-alert-pipeline/internal/fetcher"
	"weather-alert-pipeline/internal/storage"
)

// Show prints recent readings, or the alert log with opts.Alerts set.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show history")
	}
	defer closeStore()

	if opts.Alerts {
		return showAlerts(ctx, store, opts.Limit)
	}
	return showReadings(ctx, store, opts.Limit)
}

func showReadings(ctx context.Context, store *storage.Store, limit int) error {
	readings, err := store.ListRecentReadings(ctx, limit)
	if err != nil {
		return err
	}
	if len(readings) == 0 {
		fmt.Fprintln(os.Stdout, "no readings found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tLocation\tTemp °C\tRain mm/h\tWind km/h\tHumidity %\tCondition")

	for _, reading := range readings {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%.1f\t%.1f\t%.1f\t%.0f\t%s\n",
			reading.Timestamp.UTC().Format(time.RFC3339),
			reading.Location,
			reading.Temperature,
			reading.Precipitation,
			reading.WindSpeed,
			reading.Humidity,
			fetcher.DescribeWeatherCode(reading.WeatherCode),
		)
	}

	writer.Flush()
	return nil
}

func showAlerts(ctx context.Context, store *storage.Store, limit int) error {
	alerts, err := store.ListRecentAlerts(ctx, limit)
	if err != nil {
		return err
	}
	if len(alerts) == 0 {
		fmt.Fprintln(os.Stdout, "no alerts found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tType\tSeverity\tDelivered\tMessage")

	for _, rec := range alerts {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%t\t%s\n",
			rec.Timestamp.UTC().Format(time.RFC3339),
			rec.AlertType,
			rec.Severity,
			rec.Delivered,
			sanitizeInline(rec.Message),
		)
	}

	writer.Flush()
	return nil
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	return cleaned
}
