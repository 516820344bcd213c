package fakekvrepo

import (
	"sync"

	"github.com/jrsteele09/go-invoice-client/keyvalue"
)

var _ keyvalue.Repo = (*FakeKVRepo)(nil)

// FakeKVRepo is an in-memory keyvalue.Repo for tests.
type FakeKVRepo struct {
	values map[string]string
	lock   sync.RWMutex
}

func NewFakeKVRepo() *FakeKVRepo {
	return &FakeKVRepo{
		values: make(map[string]string),
	}
}

func (r *FakeKVRepo) Get(key string) (string, bool, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	value, ok := r.values[key]
	return value, ok, nil
}

func (r *FakeKVRepo) Set(key, value string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.values[key] = value
	return nil
}

func (r *FakeKVRepo) Remove(key string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	delete(r.values, key)
	return nil
}

// Len reports the number of stored keys.
func (r *FakeKVRepo) Len() int {
	r.lock.RLock()
	defer r.lock.RUnlock()

	return len(r.values)
}
