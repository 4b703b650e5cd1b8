// Package factory provides a small generic registry used to instantiate modules
// from configuration. Modules are defined by a type string and a map of raw
// settings. Factories decode the settings into typed structs and return the
// concrete implementation.
//
// Solver backends and metrics sinks are both created this way:
//
//	reg := factory.NewRegistry[mip.Solver]()
//	reg.Register("bnb", func(conf map[string]any) (mip.Solver, error) {
//	    var c solver.Config
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return solver.New(c, nil)
//	})
//	s, err := reg.Create(factory.ModuleConfig{Type: "bnb", Conf: map[string]any{"max_nodes": 5000}})
package factory
