package repofake

import (
	"sync"

	"github.com/jrsteele09/go-queue-client/users"
)

var _ users.ProviderRepo = (*FakeProviderRepo)(nil)

type FakeProviderRepo struct {
	providers map[int]*users.Provider
	emailIDs  map[string]int // email to provider id
	nextID    int
	lock      sync.RWMutex
}

func NewFakeProviderRepo() *FakeProviderRepo {
	return &FakeProviderRepo{
		providers: make(map[int]*users.Provider),
		emailIDs:  make(map[string]int),
		nextID:    1,
	}
}

func (r *FakeProviderRepo) Create(p *users.Provider) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	email := users.NormalizeEmail(p.Email)
	if _, ok := r.emailIDs[email]; ok {
		return users.ErrEmailExists
	}
	p.ID = r.nextID
	p.Email = email
	r.nextID++

	stored := *p
	r.providers[p.ID] = &stored
	r.emailIDs[email] = p.ID
	return nil
}

func (r *FakeProviderRepo) GetByEmail(email string) (*users.Provider, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	id, ok := r.emailIDs[users.NormalizeEmail(email)]
	if !ok {
		return nil, users.ErrNotFound
	}
	p := *r.providers[id]
	return &p, nil
}

func (r *FakeProviderRepo) GetByID(id int) (*users.Provider, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	stored, ok := r.providers[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	p := *stored
	return &p, nil
}

func (r *FakeProviderRepo) SetLoggedIn(id int, loggedIn bool) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	p, ok := r.providers[id]
	if !ok {
		return users.ErrNotFound
	}
	p.LoggedIn = loggedIn
	return nil
}
