// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Skwela Contributors

package auth_test

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/Aytsuu/Skwela/internal/auth"
)

// memoryUsers is an in-memory UserRepository that stores copies, like a database would.
type memoryUsers struct {
	mu    sync.Mutex
	users map[ulid.ULID]auth.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: make(map[ulid.ULID]auth.User)}
}

func (m *memoryUsers) Create(_ context.Context, user *auth.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return auth.ErrEmailTaken
		}
		if u.Username != nil && user.Username != nil && strings.EqualFold(*u.Username, *user.Username) {
			return auth.ErrUsernameTaken
		}
	}
	m.users[user.ID] = *user
	return nil
}

func (m *memoryUsers) GetByID(_ context.Context, id ulid.ULID) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	return &u, nil
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (m *memoryUsers) GetByRefreshToken(_ context.Context, token string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.RefreshToken != nil && *u.RefreshToken == token {
			return &u, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (m *memoryUsers) Update(_ context.Context, user *auth.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return auth.ErrNotFound
	}
	m.users[user.ID] = *user
	return nil
}

func (m *memoryUsers) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

// memoryOTPs is an in-memory OTPCache with a controllable clock.
type memoryOTPs struct {
	mu      sync.Mutex
	now     func() time.Time
	entries  map[string]otpEntry
	failures map[string]int64
	saves    int
}

type otpEntry struct {
	code      string
	expiresAt time.Time
}

func newMemoryOTPs(now func() time.Time) *memoryOTPs {
	return &memoryOTPs{now: now, entries: make(map[string]otpEntry), failures: make(map[string]int64)}
}

func (m *memoryOTPs) Save(_ context.Context, email, code string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[email] = otpEntry{code: code, expiresAt: m.now().Add(ttl)}
	delete(m.failures, email)
	m.saves++
	return nil
}

func (m *memoryOTPs) Get(_ context.Context, email string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[email]
	if !ok || !m.now().Before(e.expiresAt) {
		return "", auth.ErrNotFound
	}
	return e.code, nil
}

func (m *memoryOTPs) Delete(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, email)
	delete(m.failures, email)
	return nil
}

func (m *memoryOTPs) RecordFailure(_ context.Context, email string, _ time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[email]++
	return m.failures[email], nil
}

func (m *memoryOTPs) code(email string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[email]
	return e.code, ok
}

// recordingNotifier records every code handed to it.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentCode
	err  error
}

type sentCode struct {
	email string
	code  string
}

func (n *recordingNotifier) SendOTP(_ context.Context, email, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentCode{email: email, code: code})
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

// testClock is a manually advanced clock.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
