// Package database provides SQLite and PostgreSQL connectivity for the
// inventory service.
//
// This package manages:
//   - Connections for the sqlite3 (go-sqlite3) and postgres (lib/pq) drivers
//   - Schema migrations embedded per driver, tracked in schema_migrations
//   - Connection pooling and lifecycle management
//
// Security Considerations:
//   - All queries use parameterised statements (no SQL injection)
//   - SQLite database file permissions are set to 0600
//   - PostgreSQL DSNs carry credentials and must not be logged
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{
//	    Driver: cfg.Database.Driver,
//	    Path:   cfg.Database.Path,
//	    DSN:    cfg.Database.DSN,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Migration Strategy:
//
// Migrations are additive-only. Each migration has an .up.sql and a .down.sql
// file named YYYYMMDD_HHMMSS_description, one copy per driver directory.
package database
