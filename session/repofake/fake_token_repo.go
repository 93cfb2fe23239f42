package repofake

import (
	"errors"
	"sync"

	"github.com/jrsteele09/go-studio-client/session"
)

var _ session.TokenRepo = (*FakeTokenRepo)(nil)

// FakeTokenRepo is an in-memory TokenRepo. FailWrites makes Set and Remove return an error.
type FakeTokenRepo struct {
	entries    map[string]string
	lock       sync.RWMutex
	FailWrites bool
}

func NewFakeTokenRepo() *FakeTokenRepo {
	return &FakeTokenRepo{
		entries: make(map[string]string),
	}
}

// Seed pre-populates storage, as if written by a previous run
func (r *FakeTokenRepo) Seed(accessToken, refreshToken string) *FakeTokenRepo {
	r.lock.Lock()
	defer r.lock.Unlock()
	if accessToken != "" {
		r.entries[session.AccessTokenKey] = accessToken
	}
	if refreshToken != "" {
		r.entries[session.RefreshTokenKey] = refreshToken
	}
	return r
}

func (r *FakeTokenRepo) Get(key string) (string, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.entries[key], nil
}

func (r *FakeTokenRepo) Set(key, value string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.FailWrites {
		return errors.New("storage unavailable")
	}
	r.entries[key] = value
	return nil
}

func (r *FakeTokenRepo) Remove(keys ...string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.FailWrites {
		return errors.New("storage unavailable")
	}
	for _, k := range keys {
		delete(r.entries, k)
	}
	return nil
}

// Has reports whether key is present
func (r *FakeTokenRepo) Has(key string) bool {
	r.lock.RLock()
	defer r.lock.RUnlock()
	_, ok := r.entries[key]
	return ok
}
