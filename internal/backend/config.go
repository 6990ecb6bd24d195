package backend

import (
	"errors"
	"fmt"

	"fintrack/internal/config"
	"fintrack/internal/storage"
)

// ErrNoSchema is returned by MigrationTarget for backends without a database.
var ErrNoSchema = errors.New("backend has no schema to migrate")

// FromAppConfig picks the store settings out of the application config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	c := Config{
		Type:         BackendType(appConfig.DataBackend),
		SQLiteDBPath: appConfig.SQLiteDBPath,
		PostgresURL:  appConfig.PostgresURL,
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks that the settings the chosen backend needs are present.
func (c Config) Validate() error {
	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return errors.New("SQLite database path is required for sqlite backend")
		}
	case PostgresBackend:
		if c.PostgresURL == "" {
			return errors.New("Postgres URL is required for postgres backend")
		}
	case MemoryBackend:
	default:
		return fmt.Errorf("invalid backend type %q: must be one of %v", c.Type, BackendTypeStrings())
	}
	return nil
}

// MigrationTarget returns the migration dialect and connection string for
// database-backed stores.
func (c Config) MigrationTarget() (storage.Dialect, string, error) {
	switch c.Type {
	case SQLiteBackend:
		return storage.DialectSQLite, c.SQLiteDBPath, nil
	case PostgresBackend:
		return storage.DialectPostgres, c.PostgresURL, nil
	default:
		return "", "", fmt.Errorf("%w: %s", ErrNoSchema, c.Type)
	}
}

// BackendTypes lists every supported store.
func BackendTypes() []BackendType {
	return []BackendType{MemoryBackend, SQLiteBackend, PostgresBackend}
}

func BackendTypeStrings() []string {
	types := BackendTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
