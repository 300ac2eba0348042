// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/jeranaias/gpthelper/internal/model"
)

// Error variables for common store errors.
var (
	// ErrUserExists indicates a user is already registered.
	ErrUserExists = errors.New("user already registered")

	// ErrUserNotFound indicates the user is not registered.
	ErrUserNotFound = errors.New("user not found")
)

// =============================================================================
// STORE
// =============================================================================

// Store owns the user table and the per-user request ledger. All access goes
// through its methods; callers never hold references into the maps.
type Store struct {
	mu       sync.Mutex
	db       persister
	users    map[string]model.User
	requests map[string][]model.Request
}

// persister writes a full snapshot of both tables.
type persister interface {
	Snapshot(users map[string]model.User, requests map[string][]model.Request) error
	Close() error
}

// Open loads the store from the sqlite database at path, creating the
// schema on first run.
func Open(path string) (*Store, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	users, requests, err := db.Load()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load store: %w", err)
	}

	return &Store{
		db:       db,
		users:    users,
		requests: requests,
	}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// mutate applies fn to the in-memory state and synchronously snapshots the
// whole store. The lock is held across both, so concurrent mutations cannot
// interleave with persistence.
func (s *Store) mutate(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(); err != nil {
		return err
	}
	return s.db.Snapshot(s.users, s.requests)
}

// =============================================================================
// USER TABLE
// =============================================================================

// AddUser registers a user. The user's channel settings start at the
// catalogue defaults.
func (s *Store) AddUser(userID, channelID string) error {
	return s.mutate(func() error {
		if _, ok := s.users[userID]; ok {
			return fmt.Errorf("%w: %s", ErrUserExists, userID)
		}
		s.users[userID] = model.User{
			ID:      userID,
			Channel: model.NewChannel(channelID),
		}
		return nil
	})
}

// RemoveUser drops the user record and all their ledger entries together.
func (s *Store) RemoveUser(userID string) error {
	return s.mutate(func() error {
		if _, ok := s.users[userID]; !ok {
			return fmt.Errorf("%w: %s", ErrUserNotFound, userID)
		}
		delete(s.users, userID)
		delete(s.requests, userID)
		return nil
	})
}

// UpdateUser applies fn to a user record under the store lock and persists
// the result. The state machine and the settings command funnel every user
// mutation through here.
func (s *Store) UpdateUser(userID string, fn func(*model.User)) error {
	return s.mutate(func() error {
		u, ok := s.users[userID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUserNotFound, userID)
		}
		fn(&u)
		s.users[userID] = u
		return nil
	})
}

// User returns the user record for an ID.
func (s *Store) User(userID string) (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	return u, ok
}

// Find returns the user only when the given channel is their home channel.
// This is the ownership check the event handlers run on every inbound
// message.
func (s *Store) Find(userID, channelID string) (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok || u.Channel.ID != channelID {
		return model.User{}, false
	}
	return u, true
}

// Users returns a copy of all registered users.
func (s *Store) Users() []model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	return users
}

// =============================================================================
// USAGE LEDGER
// =============================================================================

// AddRequest appends a request to the user's ledger, creating the list on
// first use. An empty request ID is filled in.
func (s *Store) AddRequest(userID string, req model.Request) error {
	return s.mutate(func() error {
		if req.ID == "" {
			req.ID = uuid.NewString()
		}
		s.requests[userID] = append(s.requests[userID], req)
		return nil
	})
}

// Requests returns a copy of the user's ledger entries.
func (s *Store) Requests(userID string) []model.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	reqs := s.requests[userID]
	out := make([]model.Request, len(reqs))
	copy(out, reqs)
	return out
}
