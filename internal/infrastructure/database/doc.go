// Package database provides SQLite connection management and schema
// migrations for local gateway persistence.
//
// # Overview
//
// The gateway keeps a small local database for the frame journal. This
// package owns the connection lifecycle and applies embedded schema
// migrations at startup.
//
// # Usage
//
//	db, err := database.Open(database.Config{
//		Path:        "/var/lib/lora2mqtt/gateway.db",
//		WALMode:     true,
//		BusyTimeout: 5,
//	})
//	if err != nil {
//		return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//		return err
//	}
//
// # Migrations
//
// Migration files live in the top-level migrations directory and are
// embedded into the binary. They are applied in lexicographic order,
// one transaction per file, and recorded in schema_migrations.
package database
