package snapshot

import (
	"github.com/kilianp07/trackdispatch/core/factory"
	coresnap "github.com/kilianp07/trackdispatch/core/snapshot"
)

// init registers the durable snapshot stores.
func init() {
	_ = coresnap.RegisterStore("json", func(conf map[string]any) (coresnap.Store, error) {
		var c struct {
			Path string `json:"path"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewFileStore(c.Path)
	})
	_ = coresnap.RegisterStore("sqlite", func(conf map[string]any) (coresnap.Store, error) {
		var c struct {
			Path string `json:"path"`
			Keep int    `json:"keep"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewSQLiteStore(c.Path, c.Keep)
	})
}
