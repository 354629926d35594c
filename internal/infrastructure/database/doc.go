// Package database provides SQLite connectivity for the controller.
//
// This package manages:
//   - Database connection with WAL mode and a busy timeout
//   - Schema migrations embedded in the binary
//   - Transaction helpers and health checks
//
// Security Considerations:
//   - All queries use parameterised statements
//   - The database file is restricted to 0600; it holds the credential hash and salt
//
// Usage:
//
//	db, err := database.Open(ctx, database.FromConfig(cfg.Database))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Migrations are additive. Files are named YYYYMMDD_HHMMSS_description.up.sql
// and registered by the migrations package.
package database
