package llm

import (
	"errors"
	"sync"
	"time"
)

// CredentialStats are advisory per-credential usage counters. They track
// quota consumption for diagnostics and are not an authorization mechanism.
type CredentialStats struct {
	Name         string    `json:"name"`
	Provider     string    `json:"provider"`
	RequestCount int64     `json:"request_count"`
	SuccessCount int64     `json:"success_count"`
	ErrorCount   int64     `json:"error_count"`
	LastUsedAt   time.Time `json:"last_used_at"`
	LastError    string    `json:"last_error,omitempty"`
}

// credential binds one API key's provider client to its usage counters.
type credential struct {
	name     string
	provider Provider

	mu    sync.Mutex
	stats CredentialStats
}

func (c *credential) record(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.RequestCount++
	c.stats.LastUsedAt = time.Now()
	if err != nil {
		c.stats.ErrorCount++
		c.stats.LastError = err.Error()
		return
	}
	c.stats.SuccessCount++
}

func (c *credential) snapshot() CredentialStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.Name = c.name
	s.Provider = c.provider.Name()
	return s
}

// PoolEntry names one credential and its provider client.
type PoolEntry struct {
	Name     string
	Provider Provider
}

// Pool holds the credential set and the round-robin rotation cursor. The
// cursor is process-global shared state; concurrent calls may interleave
// selection, which only skews the advisory stats.
type Pool struct {
	mu      sync.Mutex
	creds   []*credential
	current int
}

// NewPool creates a credential pool. At least one entry is required.
func NewPool(entries []PoolEntry) (*Pool, error) {
	if len(entries) == 0 {
		return nil, errors.New("credential pool requires at least one entry")
	}

	creds := make([]*credential, len(entries))
	for i, e := range entries {
		creds[i] = &credential{name: e.Name, provider: e.Provider}
	}

	return &Pool{creds: creds}, nil
}

// Size returns the number of credentials in the pool.
func (p *Pool) Size() int {
	return len(p.creds)
}

// pick returns the currently selected credential.
func (p *Pool) pick() *credential {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.creds[p.current]
}

// advance rotates to the next credential, wrapping at the end of the pool.
func (p *Pool) advance() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = (p.current + 1) % len(p.creds)
}

// Snapshot returns usage stats for every credential.
func (p *Pool) Snapshot() []CredentialStats {
	out := make([]CredentialStats, len(p.creds))
	for i, c := range p.creds {
		out[i] = c.snapshot()
	}
	return out
}
