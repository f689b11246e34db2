// Package database handles database connections and the soft-delete convention.
//
// It provides a wrapper around GORM (Go Object Relational Mapping) to properly configure
// PostgreSQL, MySQL or SQLite connections based on the application's configuration.
//
// # Connect
//
// Connect opens the configured driver, sets pool limits and pings the server with the
// configured timeout. SQLite is used by tests with the ":memory:" name.
//
// # Soft delete
//
// Models embed Model, which carries gorm.DeletedAt. Deleting such a model only sets
// deleted_at, default queries exclude those rows, Unscoped queries include them and
// Restore clears the flag again.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	err = database.Migrate(db, &auth.User{}, &auth.Session{})
package database
