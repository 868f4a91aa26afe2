package app

import (
	"context"
	"fmt"
	"os"

	"weather-alert-pipeline/internal/fetcher"
)

// Check verifies connectivity to the database and the weather source and
// prints what it finds. It never writes anything.
func (a *App) Check(ctx context.Context) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		fmt.Fprintln(os.Stdout, "database: not configured")
	} else {
		defer closeStore()
		if err := store.Ping(ctx); err != nil {
			return fmt.Errorf("database check failed: %w", err)
		}
		count, err := store.CountReadings(ctx)
		fmt.Fprintln(os.Stdout, databaseStatusLine(count, err))
	}

	obs, err := a.newFetcher().FetchCurrent(ctx)
	if err != nil {
		return fmt.Errorf("weather source check failed: %w", err)
	}

	fmt.Fprintf(os.Stdout, "source: ok (%s)\n", a.Config.Source.BaseURL)
	fmt.Fprintf(
		os.Stdout,
		"current at %s: %.1f°C, %.1f mm/h rain, %.1f km/h wind, %.0f%% humidity, %s\n",
		a.Config.Location.Name,
		obs.Temperature,
		obs.Precipitation,
		obs.WindSpeed,
		obs.Humidity,
		fetcher.DescribeWeatherCode(obs.WeatherCode),
	)
	return nil
}

// databaseStatusLine reports the readings count, or the query failure with a
// migrate hint when the count is unavailable.
func databaseStatusLine(count int64, err error) string {
	if err != nil {
		return fmt.Sprintf("database: ok (readings query failed: %v; run migrate if the schema is missing)", err)
	}
	return fmt.Sprintf("database: ok (%d readings)", count)
}
