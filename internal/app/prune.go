package app

import (
	"context"
	"errors"
	"time"
)

// Prune deletes alert records older than the cutoff, and with opts.Readings
// set the readings too.
func (a *App) Prune(ctx context.Context, opts PruneOptions) error {
	if opts.OlderThan <= 0 {
		return errors.New("--older-than must be positive")
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot prune")
	}
	defer closeStore()

	cutoff := time.Now().UTC().Add(-opts.OlderThan)

	alerts, err := store.DeleteAlertsBefore(ctx, cutoff)
	if err != nil {
		return err
	}

	var readings int64
	if opts.Readings {
		readings, err = store.DeleteReadingsBefore(ctx, cutoff)
		if err != nil {
			return err
		}
	}

	a.Logger.Info().
		Time("cutoff", cutoff).
		Int64("alerts_deleted", alerts).
		Int64("readings_deleted", readings).
		Msg("prune finished")
	return nil
}
