// Package registry implements the in-memory account store of a single region.
//
// Accounts are grouped by the first character of the username and, inside a
// partition, bucketed by the xxhash of the full username. Every read-then-write
// sequence runs under a single registry lock, so create, sign-in, sign-out and
// counting are mutually exclusive.
package registry

import (
	"errors"
	"sync"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
	"github.com/woozymasta/playerhub/internal/models"
)

// Registry errors. Callers distinguish outcomes with errors.Is.
var (
	ErrInvalidUsername    = errors.New("invalid username")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrAccountExists      = errors.New("account already exists")
	ErrAccountNotFound    = errors.New("account not found")
	ErrCredentialMismatch = errors.New("credential mismatch")
	ErrAlreadyOnline      = errors.New("account already online")
	ErrAlreadyOffline     = errors.New("account already offline")
)

// partition holds the accounts whose usernames share a first character.
// Buckets are keyed by the xxhash of the full username. find scans a bucket for the
// exact name, so a hash collision never merges two accounts.
type partition struct {
	buckets map[uint64][]*models.Account
}

// Registry owns all accounts of one region.
type Registry struct {
	partitions map[rune]*partition
	mu         sync.Mutex
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{partitions: make(map[rune]*partition)}
}

func partitionKey(username string) rune {
	r, _ := utf8.DecodeRuneInString(username)
	return r
}

// find returns the account stored under username. Caller holds r.mu.
func (r *Registry) find(username string) *models.Account {
	p, ok := r.partitions[partitionKey(username)]
	if !ok {
		return nil
	}

	for _, acc := range p.buckets[xxhash.Sum64String(username)] {
		if acc.Username == username {
			return acc
		}
	}

	return nil
}

// Create validates fields and inserts a new offline account.
// The uniqueness check and the insert happen in one critical section.
func (r *Registry) Create(fields models.AccountFields) error {
	if !models.ValidUsername(fields.Username) {
		return ErrInvalidUsername
	}
	if !models.ValidPassword(fields.Password) {
		return ErrInvalidPassword
	}

	acc := models.NewAccount(fields)
	key := partitionKey(acc.Username)
	hash := xxhash.Sum64String(acc.Username)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.find(acc.Username) != nil {
		return ErrAccountExists
	}

	p, ok := r.partitions[key]
	if !ok {
		p = &partition{buckets: make(map[uint64][]*models.Account)}
		r.partitions[key] = p
	}
	p.buckets[hash] = append(p.buckets[hash], &acc)

	return nil
}

// SignIn flips an offline account to online after checking the password.
func (r *Registry) SignIn(username, password string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	acc := r.find(username)
	if acc == nil {
		return ErrAccountNotFound
	}
	if acc.Password != password {
		return ErrCredentialMismatch
	}
	if acc.Online {
		return ErrAlreadyOnline
	}

	acc.Online = true
	return nil
}

// SignOut flips an online account to offline.
func (r *Registry) SignOut(username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	acc := r.find(username)
	if acc == nil {
		return ErrAccountNotFound
	}
	if !acc.Online {
		return ErrAlreadyOffline
	}

	acc.Online = false
	return nil
}

// Get returns a copy of the account stored under username.
func (r *Registry) Get(username string) (models.Account, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	acc := r.find(username)
	if acc == nil {
		return models.Account{}, false
	}

	return *acc, true
}

// CountByStatus tallies non-administrator accounts while holding the lock,
// so the result is a consistent snapshot.
func (r *Registry) CountByStatus() (online, offline int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.partitions {
		for _, bucket := range p.buckets {
			for _, acc := range bucket {
				if acc.Kind == models.KindAdmin {
					continue
				}
				if acc.Online {
					online++
				} else {
					offline++
				}
			}
		}
	}

	return online, offline
}

// Len returns the number of stored accounts, administrators included.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, p := range r.partitions {
		for _, bucket := range p.buckets {
			n += len(bucket)
		}
	}

	return n
}
