package user

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryRepository struct {
	mu      sync.RWMutex
	users   map[uuid.UUID]User
	byEmail map[string]uuid.UUID
	byLogin map[loginKey]uuid.UUID
}

type loginKey struct {
	provider string
	key      string
}

// NewMemoryRepository returns a Repository held in process memory. It applies the same
// uniqueness rules as the GORM repository.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		users:   make(map[uuid.UUID]User),
		byEmail: make(map[string]uuid.UUID),
		byLogin: make(map[loginKey]uuid.UUID),
	}
}

func (r *memoryRepository) Create(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[u.NormalizedEmail]; taken {
		return ErrDuplicateEmail
	}
	for _, l := range u.Logins {
		if _, taken := r.byLogin[loginKey{l.Provider, l.ProviderKey}]; taken {
			return ErrDuplicateLogin
		}
	}

	now := time.Now()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt, u.UpdatedAt = now, now
	for i := range u.Logins {
		l := &u.Logins[i]
		if l.ID == uuid.Nil {
			l.ID = uuid.New()
		}
		l.UserID = u.ID
		l.CreatedAt, l.UpdatedAt = now, now
		r.byLogin[loginKey{l.Provider, l.ProviderKey}] = u.ID
	}
	r.byEmail[u.NormalizedEmail] = u.ID
	r.users[u.ID] = cloneUser(u)
	return nil
}

func (r *memoryRepository) FindByEmail(_ context.Context, normalizedEmail string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[normalizedEmail]
	if !ok {
		return nil, ErrNotFound
	}
	return r.get(id)
}

func (r *memoryRepository) FindByID(_ context.Context, id uuid.UUID) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.get(id)
}

func (r *memoryRepository) FindByLogin(_ context.Context, provider, providerKey string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byLogin[loginKey{provider, providerKey}]
	if !ok {
		return nil, ErrNotFound
	}
	return r.get(id)
}

func (r *memoryRepository) AddLogin(_ context.Context, login *ExternalLogin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[login.UserID]
	if !ok {
		return ErrNotFound
	}
	k := loginKey{login.Provider, login.ProviderKey}
	if _, taken := r.byLogin[k]; taken {
		return ErrDuplicateLogin
	}
	now := time.Now()
	if login.ID == uuid.Nil {
		login.ID = uuid.New()
	}
	login.CreatedAt, login.UpdatedAt = now, now
	u.Logins = append(append([]ExternalLogin(nil), u.Logins...), *login)
	r.users[u.ID] = u
	r.byLogin[k] = u.ID
	return nil
}

// get must be called with the lock held.
func (r *memoryRepository) get(id uuid.UUID) (*User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneUser(&u)
	return &out, nil
}

func cloneUser(u *User) User {
	out := *u
	out.Logins = append([]ExternalLogin(nil), u.Logins...)
	if u.PasswordHash != nil {
		h := *u.PasswordHash
		out.PasswordHash = &h
	}
	return out
}
