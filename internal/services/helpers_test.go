package services

import (
	"context"
	"errors"
	"sync"

	"github.com/AnshRaj112/leadcrm-backend/internal/models"
	"github.com/AnshRaj112/leadcrm-backend/internal/repository/memstore"
	"github.com/AnshRaj112/leadcrm-backend/pkg/utils"
)

var _ SessionCache = (*memSessionCache)(nil)

// memSessionCache is an in-process SessionCache with the same eviction
// contract as the Redis one.
type memSessionCache struct {
	mu       sync.Mutex
	sessions map[string]models.User
	evicted  []string
}

func newMemSessionCache() *memSessionCache {
	return &memSessionCache{sessions: map[string]models.User{}}
}

func (c *memSessionCache) Get(_ context.Context, token string) (*models.User, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	u, ok := c.sessions[token]
	if !ok {
		return nil, false, nil
	}
	return &u, true, nil
}

func (c *memSessionCache) Set(_ context.Context, token string, user *models.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[token] = *user
	return nil
}

func (c *memSessionCache) EvictUser(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evicted = append(c.evicted, userID)
	for token, u := range c.sessions {
		if u.ID.Hex() == userID {
			delete(c.sessions, token)
		}
	}
	return nil
}

func (c *memSessionCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

type testEnv struct {
	store    *memstore.Records[models.User, *models.User]
	cache    *memSessionCache
	users    *UserService
	sessions *SessionManager
}

func newTestEnv() *testEnv {
	store := memstore.New[models.User]("cpf", "email")
	cache := newMemSessionCache()
	return &testEnv{
		store:    store,
		cache:    cache,
		users:    NewUserService(store, cache),
		sessions: NewSessionManager(store, utils.NewTokenSigner("test-secret", 0), cache),
	}
}

func signup(cpf, password string) SignupInput {
	return SignupInput{Profile: Profile{CPF: cpf}, Password: password}
}

// brokenEvictCache serves reads and writes but fails every eviction, like a
// Redis that dropped out mid-request.
type brokenEvictCache struct {
	*memSessionCache
}

func (brokenEvictCache) EvictUser(context.Context, string) error {
	return errors.New("redis down")
}

func newTestEnvWithCache(cache SessionCache) *testEnv {
	env := newTestEnv()
	env.users = NewUserService(env.store, cache)
	env.sessions = NewSessionManager(env.store, utils.NewTokenSigner("test-secret", 0), cache)
	return env
}
