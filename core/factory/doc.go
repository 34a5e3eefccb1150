// Package factory provides the generic registry used to pick pluggable
// backends (snapshot stores, metrics sinks) from configuration. A backend is
// named by a type string and configured by a map of raw settings which its
// factory decodes into a typed struct.
//
//	reg := factory.NewRegistry[snapshot.Store]()
//	reg.Register("json", func(conf map[string]any) (snapshot.Store, error) {
//	    var c struct{ Path string `json:"path"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return jsonstore.New(c.Path)
//	})
//	st, err := reg.Create(factory.ModuleConfig{Type: "json", Conf: map[string]any{"path": "state.json"}})
package factory
