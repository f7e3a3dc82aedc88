package queuerepo

import (
	"crypto/rand"
	"sort"
	"strings"
	"sync"

	"github.com/jrsteele09/go-queue-client/apimodel"
	"github.com/jrsteele09/go-queue-client/internal/utils"
	"github.com/pkg/errors"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6
	maxCodeTries = 16
)

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepo is a thread-safe in-memory implementation of Repo.
type InMemoryRepo struct {
	mu       sync.RWMutex
	queues   map[string]apimodel.Queue
	seq      map[string]int // code to insertion sequence
	next     int
	codeFunc func() (string, error)
}

type Option func(*InMemoryRepo)

// WithCodeFunc replaces the random code generator.
func WithCodeFunc(f func() (string, error)) Option {
	return func(r *InMemoryRepo) {
		r.codeFunc = f
	}
}

func NewInMemoryRepo(opts ...Option) *InMemoryRepo {
	r := &InMemoryRepo{
		queues:   make(map[string]apimodel.Queue),
		seq:      make(map[string]int),
		codeFunc: randomCode,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *InMemoryRepo) Create(q apimodel.Queue) (apimodel.Queue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := 0; i < maxCodeTries; i++ {
		code, err := r.codeFunc()
		if err != nil {
			return apimodel.Queue{}, errors.Wrap(err, "InMemoryRepo.Create codeFunc")
		}
		if _, taken := r.queues[code]; taken {
			continue
		}
		q.Code = code
		r.queues[code] = q
		r.seq[code] = r.next
		r.next++
		return q, nil
	}
	return apimodel.Queue{}, errors.New("InMemoryRepo.Create: could not allocate a unique code")
}

func (r *InMemoryRepo) Get(code string) (*apimodel.Queue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q, ok := r.queues[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return nil, ErrNotFound
	}
	return &q, nil
}

// List orders matches by name, case-insensitively, then by insertion.
func (r *InMemoryRepo) List(query ListQuery) ([]apimodel.Queue, int, error) {
	if query.Offset < 0 || query.Limit < 0 {
		return nil, 0, errors.New("InMemoryRepo.List: negative offset or limit")
	}
	search := strings.ToLower(strings.TrimSpace(query.Search))

	r.mu.RLock()
	matched := make([]apimodel.Queue, 0, len(r.queues))
	for _, q := range r.queues {
		if !utils.PointsTo(q.ServiceProviderID, query.OwnerID) {
			continue
		}
		if search != "" && !matches(q, search) {
			continue
		}
		matched = append(matched, q)
	}
	seq := make(map[string]int, len(matched))
	for _, q := range matched {
		seq[q.Code] = r.seq[q.Code]
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := strings.ToLower(matched[i].Name), strings.ToLower(matched[j].Name)
		if a != b {
			return a < b
		}
		return seq[matched[i].Code] < seq[matched[j].Code]
	})

	total := len(matched)
	if query.Offset >= total {
		return []apimodel.Queue{}, total, nil
	}
	end := total
	if query.Limit > 0 && query.Offset+query.Limit < total {
		end = query.Offset + query.Limit
	}
	page := make([]apimodel.Queue, end-query.Offset)
	copy(page, matched[query.Offset:end])
	return page, total, nil
}

func matches(q apimodel.Queue, search string) bool {
	for _, field := range []string{q.Code, q.Name, q.Description} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}

func randomCode() (string, error) {
	b := make([]byte, codeLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = codeAlphabet[int(b[i])%len(codeAlphabet)]
	}
	return string(b), nil
}
