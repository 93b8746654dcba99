package storage

import "errors"

// ErrUnavailable is returned by backends that cannot currently persist anything
// (disabled storage, closed database). The TokenStore logs and swallows it.
var ErrUnavailable = errors.New("storage unavailable")

// Backend is the raw key-value persistence behind a TokenStore.
// Keys arrive already namespaced; implementations must not interpret them.
type Backend interface {
	// Get returns the stored value and whether the key exists.
	Get(key string) (string, bool, error)

	// Set creates or replaces the value for key.
	Set(key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
}
