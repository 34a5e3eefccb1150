package snapshot

import "github.com/kilianp07/trackdispatch/core/factory"

func factoryConfig(typ string) factory.ModuleConfig { return factory.ModuleConfig{Type: typ} }
