// Package plugins holds the named optimization backends selectable through
// solver.backend in the configuration.
package plugins

import (
	"github.com/kilianp07/clsprm/core/factory"
	"github.com/kilianp07/clsprm/core/mip"
)

var solvers = factory.NewRegistry[mip.Solver]()

// RegisterSolver adds a backend factory identified by name.
func RegisterSolver(name string, f factory.Factory[mip.Solver]) error {
	return solvers.Register(name, f)
}

// NewSolver creates the backend named by backend with its raw settings.
func NewSolver(backend string, conf map[string]any) (mip.Solver, error) {
	return solvers.Create(factory.ModuleConfig{Type: backend, Conf: conf})
}

// Solvers lists the registered backends.
func Solvers() []string { return solvers.Names() }
