package session

// Durable storage keys. Each is an independent entry; a missing key means that token is absent.
const (
	AccessTokenKey  = "accessToken"
	RefreshTokenKey = "refreshToken"
)

// TokenRepo is durable client-side key/value storage for the session tokens.
// Writes are synchronous: when Set or Remove returns, the change is durable.
type TokenRepo interface {
	// Get returns the stored value, or "" if the key is absent
	Get(key string) (string, error)

	// Set stores value under key
	Set(key, value string) error

	// Remove deletes the keys. Removing an absent key is not an error.
	Remove(keys ...string) error
}
