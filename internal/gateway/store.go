// Package gateway proxies chat completion requests to a runtime-configurable
// OpenAI-compatible upstream API.
package gateway

import (
	"strings"
	"sync"
	"time"
)

// Policy holds the fixed request policy for upstream calls. It is set once at
// process start and is not client-settable.
type Policy struct {
	Timeout       time.Duration
	MaxRetries    int
	BackoffFactor float64
}

// Snapshot is the non-secret view of the current upstream configuration.
// The API key is deliberately absent so it can never be echoed back.
type Snapshot struct {
	Endpoint     string `json:"api_base"`
	DefaultModel string `json:"default_model"`
}

// Store holds the mutable upstream configuration. Readers take an atomic
// snapshot so a request never observes a half-updated triple.
type Store struct {
	mu       sync.RWMutex
	endpoint string
	apiKey   string
	model    string

	policy Policy
}

// NewStore creates a store seeded with the boot-time defaults. The endpoint
// and model defaults are advisory until the first successful Update; the key
// always starts empty.
func NewStore(endpoint, model string, policy Policy) *Store {
	if policy.MaxRetries < 1 {
		policy.MaxRetries = 1
	}
	return &Store{
		endpoint: endpoint,
		model:    model,
		policy:   policy,
	}
}

// Update atomically replaces the endpoint, key and default model. It fails
// without touching the store when endpoint or key is empty. An empty model
// keeps the current default.
func (s *Store) Update(endpoint, apiKey, model string) (Snapshot, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" || apiKey == "" {
		return Snapshot{}, ErrMissingCredentials
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.endpoint = strings.TrimSuffix(endpoint, "/")
	s.apiKey = apiKey
	if model != "" {
		s.model = model
	}

	return Snapshot{Endpoint: s.endpoint, DefaultModel: s.model}, nil
}

// Snapshot returns the non-secret view of the current configuration.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Endpoint: s.endpoint, DefaultModel: s.model}
}

// Policy returns the fixed timeout/retry policy.
func (s *Store) Policy() Policy {
	return s.policy
}

// credentials returns a consistent copy of the full triple for a single
// outbound call.
func (s *Store) credentials() (endpoint, apiKey, model string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.endpoint, s.apiKey, s.model
}
