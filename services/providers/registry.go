package providers

import (
	"errors"
	"fmt"
)

var (
	// ErrProviderNotFound is returned when a provider is not registered
	ErrProviderNotFound = errors.New("provider not found")

	// ErrProviderAlreadyRegistered is returned when two providers serve the same service
	ErrProviderAlreadyRegistered = errors.New("provider already registered")
)

// Registry holds the adapters that initialized successfully.
// It is read-only once built; a service with no adapter is treated as unavailable.
type Registry struct {
	providers map[Service]Provider
}

// NewRegistry builds a registry from the given adapters
func NewRegistry(adapters ...Provider) (*Registry, error) {
	providers := make(map[Service]Provider, len(adapters))
	for _, provider := range adapters {
		if provider == nil {
			return nil, errors.New("provider cannot be nil")
		}

		name := provider.Name()
		if _, ok := ParseService(string(name)); !ok {
			return nil, fmt.Errorf("provider serves an unknown service: %s", name)
		}
		if _, exists := providers[name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrProviderAlreadyRegistered, name)
		}
		providers[name] = provider
	}
	return &Registry{providers: providers}, nil
}

// GetProvider retrieves a provider by service
func (r *Registry) GetProvider(service Service) (Provider, error) {
	provider, exists := r.providers[service]
	if !exists {
		return nil, ErrProviderNotFound
	}
	return provider, nil
}

// ListProviders returns registered services in KnownServices order
func (r *Registry) ListProviders() []Service {
	names := make([]Service, 0, len(r.providers))
	for _, service := range KnownServices() {
		if _, ok := r.providers[service]; ok {
			names = append(names, service)
		}
	}
	return names
}

// GetProviderCount returns the number of registered providers
func (r *Registry) GetProviderCount() int {
	return len(r.providers)
}
