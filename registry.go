// Package reportgate selects and constructs the configured LLM backend.
//
// Provider packages register a Factory for their kind from init, so a binary
// only needs to blank-import the backends it wants:
//
//	import _ "github.com/shillcollin/reportgate/providers/openai"
package reportgate

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/shillcollin/reportgate/core"
)

// Factory builds adapters for one backend kind.
type Factory interface {
	// New constructs an adapter. It returns a configuration error when the
	// config fails validation, e.g. when the credential is empty.
	New(cfg core.ProviderConfig) (core.Provider, error)

	// Defaults returns the configuration derived from the environment and
	// the kind's hard-coded defaults.
	Defaults(getenv func(string) string) core.ProviderConfig

	// SupportsTemperature reports whether the model family accepts a
	// sampling temperature.
	SupportsTemperature(model string) bool
}

var (
	registryMu sync.RWMutex
	registry   = make(map[core.Kind]Factory)
)

// RegisterProvider registers a provider factory. Panics if the kind is
// already registered.
func RegisterProvider(kind core.Kind, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[kind]; exists {
		panic(fmt.Sprintf("reportgate: provider %q already registered", kind))
	}
	registry[kind] = factory
}

// GetProviderFactory returns the factory for a registered kind.
func GetProviderFactory(kind core.Kind) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	factory, ok := registry[kind]
	return factory, ok
}

// RegisteredProviders returns the registered kinds, sorted.
func RegisteredProviders() []core.Kind {
	registryMu.RLock()
	defer registryMu.RUnlock()

	kinds := make([]core.Kind, 0, len(registry))
	for kind := range registry {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Resolve computes the effective configuration for kind: explicit overrides
// win over environment values, which win over hard-coded defaults. Temperature
// is cleared when the resolved model does not accept one. A nil getenv reads
// the process environment.
func Resolve(kind core.Kind, o core.Overrides, getenv func(string) string) (core.ProviderConfig, error) {
	factory, ok := GetProviderFactory(kind)
	if !ok {
		return core.ProviderConfig{}, core.NewError(core.ErrConfiguration, fmt.Sprintf("provider %q not registered", kind))
	}
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := factory.Defaults(getenv).Apply(o)
	cfg.Kind = kind
	cfg.SupportsTemperature = factory.SupportsTemperature(cfg.Model)
	if !cfg.SupportsTemperature {
		cfg.Temperature = nil
	}
	return cfg, nil
}

// NewProvider resolves the configuration for kind and constructs its adapter.
// The resolved configuration is returned even when construction fails so
// callers can report which model was selected.
func NewProvider(kind core.Kind, o core.Overrides, getenv func(string) string) (core.Provider, core.ProviderConfig, error) {
	cfg, err := Resolve(kind, o, getenv)
	if err != nil {
		return nil, cfg, err
	}
	factory, _ := GetProviderFactory(kind)
	p, err := factory.New(cfg)
	if err != nil {
		return nil, cfg, err
	}
	return p, cfg, nil
}

// clearRegistry removes all registered providers. For testing only.
func clearRegistry() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[core.Kind]Factory)
}
