// Package uploadcode issues short numeric codes that let a bearer upload on
// behalf of a user without a password.
//
// Per user the code is ABSENT, LIVE or EXPIRED. Expiry is detected lazily
// whenever a code is read or validated; there is no background sweep.
package uploadcode

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"filedrive/internal/common"
)

const (
	DefaultLength = 4
	DefaultTTL    = 2 * time.Minute

	digits      = "0123456789"
	maxAttempts = 64
)

type (
	Code struct {
		Value     string
		Owner     string
		IssuedAt  time.Time
		ExpiresAt time.Time
	}

	Manager struct {
		mu      sync.Mutex
		length  int
		ttl     time.Duration
		now     func() time.Time
		rand    io.Reader
		byOwner map[string]*Code
		byValue map[string]*Code
	}

	Option func(*Manager)
)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithRand replaces crypto/rand.Reader as the source of digits.
func WithRand(r io.Reader) Option {
	return func(m *Manager) { m.rand = r }
}

func New(length int, ttl time.Duration, opts ...Option) *Manager {
	if length <= 0 {
		length = DefaultLength
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m := &Manager{
		length:  length,
		ttl:     ttl,
		now:     time.Now,
		rand:    rand.Reader,
		byOwner: make(map[string]*Code),
		byValue: make(map[string]*Code),
	}
	for _, opt := range opts {
		opt(m)
	}

	return m
}

func (m *Manager) TTL() time.Duration { return m.ttl }
func (m *Manager) Length() int        { return m.length }

// Current returns the owner's live code, minting a new one when the previous
// code is absent or expired.
func (m *Manager) Current(owner string) (Code, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if c, ok := m.byOwner[owner]; ok {
		if now.Before(c.ExpiresAt) {
			return *c, nil
		}
		m.forget(c)
	}

	value, err := m.mint(now)
	if err != nil {
		return Code{}, err
	}
	c := &Code{
		Value:     value,
		Owner:     owner,
		IssuedAt:  now,
		ExpiresAt: now.Add(m.ttl),
	}
	m.byOwner[owner] = c
	m.byValue[value] = c

	return *c, nil
}

// Resolve returns the owner of a live code without consuming it.
func (m *Manager) Resolve(value string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.live(value)
	if !ok {
		return "", false
	}
	return c.Owner, true
}

// Consume resolves a live code and invalidates it in the same step, so two
// concurrent callers can never both succeed with one code.
func (m *Manager) Consume(value string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.live(value)
	if !ok {
		return "", false
	}
	m.forget(c)

	return c.Owner, true
}

// Renew drops the owner's code; the next Current call mints a fresh one.
func (m *Manager) Renew(owner string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.byOwner[owner]; ok {
		m.forget(c)
	}
}

// ExpiresIn reports the remaining lifetime of the owner's code, zero when
// there is none.
func (m *Manager) ExpiresIn(owner string) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.byOwner[owner]
	if !ok {
		return 0
	}
	if d := c.ExpiresAt.Sub(m.now()); d > 0 {
		return d
	}
	return 0
}

func (m *Manager) live(value string) (*Code, bool) {
	c, ok := m.byValue[value]
	if !ok {
		return nil, false
	}
	if !m.now().Before(c.ExpiresAt) {
		m.forget(c)
		return nil, false
	}
	// a stale value left behind by a rotation must not resolve
	if cur := m.byOwner[c.Owner]; cur != c {
		delete(m.byValue, value)
		return nil, false
	}
	return c, true
}

func (m *Manager) forget(c *Code) {
	if m.byOwner[c.Owner] == c {
		delete(m.byOwner, c.Owner)
	}
	if m.byValue[c.Value] == c {
		delete(m.byValue, c.Value)
	}
}

func (m *Manager) mint(now time.Time) (string, error) {
	for range maxAttempts {
		v, err := common.RandomString(m.rand, digits, m.length)
		if err != nil {
			return "", err
		}
		c, taken := m.byValue[v]
		if !taken {
			return v, nil
		}
		if !now.Before(c.ExpiresAt) {
			m.forget(c)
			return v, nil
		}
	}
	return "", common.ErrCodeSpaceExhausted
}
