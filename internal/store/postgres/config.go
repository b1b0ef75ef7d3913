package postgres

import "fmt"

// StorageConfig holds storage-specific configuration for the PostgreSQL key-value storage.
// Pool configuration is handled separately via PoolConfig.
type StorageConfig struct {
	// Table is the key-value table name.
	// Default: kv_entries
	Table string

	// AutoMigrate runs the embedded migrations when the storage is created.
	AutoMigrate bool

	// QueryTimeoutSeconds is the maximum time a query can run before timing out.
	// Default: 10 seconds
	// Set to -1 to use context timeouts only (no additional timeout)
	QueryTimeoutSeconds int32
}

// Validate checks that the configuration is valid.
func (c *StorageConfig) Validate() error {
	if c.Table != defaultTable {
		return fmt.Errorf("unsupported table %q: only %q is created by migrations", c.Table, defaultTable)
	}
	return nil
}

// ApplyDefaults applies default values to unset configuration fields.
func (c *StorageConfig) ApplyDefaults() {
	if c.Table == "" {
		c.Table = defaultTable
	}
	if c.QueryTimeoutSeconds == 0 {
		c.QueryTimeoutSeconds = 10
	}
}
