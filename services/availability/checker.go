package availability

import (
	"os"
	"strings"

	"github.com/upb/multiai-chatbot/services/providers"
)

// NewsKey is the availability entry for the news passthrough
const NewsKey = "news"

const (
	placeholderPrefix    = "your_"
	placeholderSubstring = "example"
)

// ServiceAvailability maps a service name to whether it can currently be used
type ServiceAvailability map[string]bool

// IsAvailable reports whether service is marked available
func (a ServiceAvailability) IsAvailable(service providers.Service) bool {
	return a[string(service)]
}

// Available lists the available chat services in KnownServices order
func (a ServiceAvailability) Available() []providers.Service {
	available := make([]providers.Service, 0, len(providers.KnownServices()))
	for _, service := range providers.KnownServices() {
		if a[string(service)] {
			available = append(available, service)
		}
	}
	return available
}

// CredentialSource returns the configured credential for a service
type CredentialSource interface {
	Credential(service providers.Service) string
}

// EnvSource reads credentials from the process environment on every call
type EnvSource struct {
	vars map[providers.Service]string
}

// NewEnvSource creates an EnvSource using the standard variable names
func NewEnvSource() *EnvSource {
	return &EnvSource{
		vars: map[providers.Service]string{
			providers.ServiceGroq:       "GROQ_API_KEY",
			providers.ServiceDatabricks: "DATABRICKS_API_KEY",
		},
	}
}

// Credential implements CredentialSource
func (s *EnvSource) Credential(service providers.Service) string {
	name, ok := s.vars[service]
	if !ok {
		return ""
	}
	return os.Getenv(name)
}

// StaticSource is a fixed credential map
type StaticSource map[providers.Service]string

// Credential implements CredentialSource
func (s StaticSource) Credential(service providers.Service) string {
	return s[service]
}

// Checker reports which services have usable credentials
type Checker struct {
	source CredentialSource
}

// NewChecker creates a new Checker
func NewChecker(source CredentialSource) *Checker {
	if source == nil {
		source = NewEnvSource()
	}
	return &Checker{source: source}
}

// Check recomputes availability from the current credentials. News is always available.
func (c *Checker) Check() ServiceAvailability {
	result := make(ServiceAvailability, len(providers.KnownServices())+1)
	for _, service := range providers.KnownServices() {
		result[string(service)] = IsValidCredential(c.source.Credential(service))
	}
	result[NewsKey] = true
	return result
}

// IsValidCredential rejects empty values and recognizable placeholders
func IsValidCredential(value string) bool {
	if value == "" {
		return false
	}
	if strings.HasPrefix(value, placeholderPrefix) {
		return false
	}
	return !strings.Contains(value, placeholderSubstring)
}
