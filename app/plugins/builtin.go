package plugins

import (
	"github.com/kilianp07/clsprm/core/factory"
	"github.com/kilianp07/clsprm/core/mip"
	"github.com/kilianp07/clsprm/infra/logger"
	"github.com/kilianp07/clsprm/infra/solver"
)

func init() {
	_ = RegisterSolver("bnb", func(conf map[string]any) (mip.Solver, error) {
		var c solver.Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return solver.New(c, logger.New("solver"))
	})
}
