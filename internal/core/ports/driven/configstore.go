package driven

// ConfigStore provides persisted key-value configuration.
// Keys use dotted lowercase names, e.g. "chunk.size".
type ConfigStore interface {
	// Get retrieves a raw configuration value by key.
	Get(key string) (any, bool)

	// GetString retrieves a string value, empty when absent.
	GetString(key string) string

	// GetInt retrieves an integer value, zero when absent.
	GetInt(key string) int

	// GetBool retrieves a boolean value, false when absent.
	GetBool(key string) bool

	// Set stores a configuration value and persists it.
	Set(key string, value any) error

	// Delete removes a configuration value and persists the change.
	Delete(key string) error

	// Load re-reads configuration from the backing file.
	Load() error
}
