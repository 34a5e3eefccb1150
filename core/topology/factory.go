package topology

import "github.com/kilianp07/trackdispatch/core/factory"

var providerRegistry = factory.NewRegistry[Provider]()

// RegisterProvider adds a topology provider factory identified by name.
func RegisterProvider(name string, f factory.Factory[Provider]) error {
	return providerRegistry.Register(name, f)
}

// NewProvider creates the provider described by cfg.
func NewProvider(cfg factory.ModuleConfig) (Provider, error) {
	return providerRegistry.Create(cfg)
}

// ProviderTypes lists the registered provider names.
func ProviderTypes() []string { return providerRegistry.Types() }
