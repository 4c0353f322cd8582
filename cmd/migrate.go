package cmd

import (
	"errors"
	"event-registration/db"
	"log"
	"log/slog"
)

func runMigrateCmd() {
	cfg := newCfg("env")

	err := db.Migrate(dbConnString(cfg, "pgx5"))
	if err != nil {
		if errors.Is(err, db.ErrNoChange) {
			slog.Info("database schema already up to date")
			return
		}
		log.Fatalln("migration failed", err)
	}

	slog.Info("database schema migrated")
}
