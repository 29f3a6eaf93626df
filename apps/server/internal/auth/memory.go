package auth

import (
	"sync"
	"time"
)

// memoryStore 单进程部署用的内存账号表。
type memoryStore struct {
	mu            sync.Mutex
	nextAccountID uint64
	accountsByKey map[string]*memoryAccount
}

type memoryAccount struct {
	Account
	passwordHash []byte
	createdAt    time.Time
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		// 账号号段从可读的非平凡区间开始。
		nextAccountID: 100000,
		accountsByKey: make(map[string]*memoryAccount),
	}
}

func (s *memoryStore) create(username string, passwordHash []byte) (Account, error) {
	key := normalizeUsername(username)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accountsByKey[key]; exists {
		return Account{}, ErrUsernameTaken
	}
	s.nextAccountID++
	acc := &memoryAccount{
		Account:      Account{ID: s.nextAccountID, Username: username},
		passwordHash: passwordHash,
		createdAt:    time.Now(),
	}
	s.accountsByKey[key] = acc
	return acc.Account, nil
}

func (s *memoryStore) byUsername(username string) (Account, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accountsByKey[normalizeUsername(username)]
	if !ok {
		return Account{}, nil, ErrInvalidCredentials
	}
	return acc.Account, acc.passwordHash, nil
}

func (s *memoryStore) close() error { return nil }
