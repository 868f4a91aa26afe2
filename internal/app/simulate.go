package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"weather-alert-pipeline/internal/alerting"
	"weather-alert-pipeline/internal/storage"
)

// SimulateAlert evaluates synthetic conditions against the configured rules
// and prints the alerts that would fire. With opts.Send set it also delivers
// them and, when a database is configured, records them in the alert log so
// the cooldown window starts. Cooldown history is honoured either way.
func (a *App) SimulateAlert(ctx context.Context, opts SimulateOptions) error {
	if !a.Config.Alerting.Enabled {
		return errors.New("alerting is disabled")
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	now := time.Now().UTC()
	last := map[alerting.AlertType]time.Time{}
	if store != nil {
		types := make([]string, 0, len(alerting.AllAlertTypes))
		for _, t := range alerting.AllAlertTypes {
			types = append(types, string(t))
		}
		rawLatest, err := store.LatestAlertTimes(ctx, types)
		if err != nil {
			return err
		}
		for typ, ts := range rawLatest {
			last[alerting.AlertType(typ)] = ts
		}
	}

	conditions := alerting.Conditions{
		Temperature:   opts.Temperature,
		Precipitation: opts.Precipitation,
		WindSpeed:     opts.WindSpeed,
		Humidity:      opts.Humidity,
	}

	candidates := a.newEvaluator().Evaluate(conditions, last, now)
	if len(candidates) == 0 {
		fmt.Fprintln(os.Stdout, "no alerts would fire for these conditions")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Type\tSeverity\tMessage")
	for _, candidate := range candidates {
		fmt.Fprintf(writer, "%s\t%s\t%s\n", candidate.Type, candidate.Severity, candidate.Message)
	}
	writer.Flush()

	if !opts.Send {
		return nil
	}

	notifier, err := a.newNotifier()
	if err != nil {
		return err
	}
	if notifier == nil {
		return errors.New("email notifications are disabled; nothing to send")
	}

	var deliverErr error
	for _, candidate := range candidates {
		note := alerting.Notification{
			Alert:    candidate,
			Location: a.Config.Location.Name,
			Observed: now,
			Current:  conditions,
		}

		delivered := true
		if err := notifier.Notify(ctx, note); err != nil {
			a.Logger.Error().Err(err).Str("type", string(candidate.Type)).Msg("failed to deliver simulated alert")
			delivered = false
			if deliverErr == nil {
				deliverErr = err
			}
		}

		if store != nil {
			record := storage.AlertRecord{
				Timestamp: now,
				AlertType: string(candidate.Type),
				Severity:  string(candidate.Severity),
				Message:   candidate.Message,
				Delivered: delivered,
			}
			if _, err := store.InsertAlert(ctx, record); err != nil {
				a.Logger.Error().Err(err).Str("type", string(candidate.Type)).Msg("failed to record simulated alert")
			}
		}
	}

	return deliverErr
}
