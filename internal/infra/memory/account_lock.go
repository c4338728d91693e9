package memory

import (
	"context"
	"sync"
)

// AccountLock serializes profile writers within one process. The
// distributed deployments use the Redis lock instead.
type AccountLock struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewAccountLock() *AccountLock {
	return &AccountLock{locks: make(map[string]*sync.Mutex)}
}

func (l *AccountLock) Lock(_ context.Context, accountID string) (func(), error) {
	l.mu.Lock()
	m, ok := l.locks[accountID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[accountID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock, nil
}
