package keyvalue

// Repo defines the interface for the key-value storage that backs the
// session store. Values are persisted independently per key, but the session
// store always writes and clears its keys as a unit.
type Repo interface {
	// Get retrieves the value stored under key. The boolean is false when
	// the key is absent.
	Get(key string) (string, bool, error)

	// Set stores value under key, overwriting any existing value.
	Set(key, value string) error

	// Remove deletes the value stored under key. Removing an absent key is
	// not an error.
	Remove(key string) error
}
