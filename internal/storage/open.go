package storage

import (
	"fmt"
	"os"
)

// Open creates the Provider for driver. For the json driver path is a
// directory (created if missing); for sqlite it is the database file.
func Open(driver, path string) (Provider, error) {
	switch driver {
	case DriverJSON:
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("storage: create dir: %w", err)
		}
		return NewFS(path)
	case DriverSQLite:
		return OpenSQLite(path)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", driver)
	}
}
