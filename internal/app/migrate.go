package app

import (
	"context"
	"errors"
)

// Migrate creates the database tables and indexes if they do not exist.
func (a *App) Migrate(ctx context.Context) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot migrate")
	}
	defer closeStore()

	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	a.Logger.Info().Msg("schema is up to date")
	return nil
}
