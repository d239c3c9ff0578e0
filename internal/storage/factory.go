package storage

import (
	"fmt"
	"sync"
)

// Provider status values reported by the factory.
const (
	StatusAvailable    = "available"
	StatusUnavailable  = "unavailable"
	StatusUnconfigured = "unconfigured"
)

// Factory creates providers and tracks their lifecycle so the API can report
// whether a backend is usable, broken, or simply never set up.
type Factory struct {
	mu          sync.RWMutex
	initialized map[string]bool
	unavailable map[string]string
}

// NewFactory creates a storage factory
func NewFactory() *Factory {
	return &Factory{
		initialized: make(map[string]bool),
		unavailable: make(map[string]string),
	}
}

// canonicalType collapses provider type aliases onto one name so status
// tracking doesn't split across spellings.
func canonicalType(providerType string) string {
	switch providerType {
	case "amazon", "aws":
		return "s3"
	case "google":
		return "gcs"
	}
	return providerType
}

// MarkUnavailable records a provider type as unavailable with a reason
func (f *Factory) MarkUnavailable(providerType, reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unavailable[canonicalType(providerType)] = reason
}

// IsAvailable checks whether a provider type is available
func (f *Factory) IsAvailable(providerType string) (bool, string) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	reason, unavailable := f.unavailable[canonicalType(providerType)]
	return !unavailable, reason
}

// Status reports the lifecycle state of a provider type: unavailable with the
// initialization failure reason, available after a successful Create, or
// unconfigured when no Create was ever attempted.
func (f *Factory) Status(providerType string) (string, string) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	key := canonicalType(providerType)
	if reason, unavailable := f.unavailable[key]; unavailable {
		return StatusUnavailable, reason
	}
	if f.initialized[key] {
		return StatusAvailable, ""
	}
	return StatusUnconfigured, ""
}

// Create builds and initializes a provider of the given type
func (f *Factory) Create(providerType string, config map[string]string) (Provider, error) {
	key := canonicalType(providerType)

	f.mu.RLock()
	if reason, unavailable := f.unavailable[key]; unavailable {
		f.mu.RUnlock()
		return nil, fmt.Errorf("%s provider is currently unavailable: %s", key, reason)
	}
	f.mu.RUnlock()

	var provider Provider

	switch key {
	case "local":
		provider = NewLocal()
	case "s3":
		provider = NewAmazonS3()
	case "gcs":
		provider = NewGoogleCloud()
	default:
		return nil, fmt.Errorf("unsupported storage provider type: %s", providerType)
	}

	if err := provider.Initialize(config); err != nil {
		f.MarkUnavailable(key, err.Error())
		return nil, fmt.Errorf("failed to initialize %s storage provider: %w", key, err)
	}

	f.mu.Lock()
	f.initialized[key] = true
	f.mu.Unlock()

	return provider, nil
}

// DefaultFactory is the default storage factory instance
var DefaultFactory = NewFactory()

// Create builds a provider using the default factory
func Create(providerType string, config map[string]string) (Provider, error) {
	return DefaultFactory.Create(providerType, config)
}

// IsAvailable checks provider availability using the default factory
func IsAvailable(providerType string) (bool, string) {
	return DefaultFactory.IsAvailable(providerType)
}

// Status reports provider lifecycle state using the default factory
func Status(providerType string) (string, string) {
	return DefaultFactory.Status(providerType)
}
