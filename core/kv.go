package core

// TokenKey is the slot the bearer token is persisted under.
const TokenKey = "token"

// KeyValueStore is a small persistent key-value slot store.
// Get returns an empty string and no error when the key is not set.
type KeyValueStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}
