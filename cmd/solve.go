package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/clsprm/app"
	"github.com/kilianp07/clsprm/core/lotsizing"
	"github.com/kilianp07/clsprm/core/model"
	"github.com/kilianp07/clsprm/pkg/export"
)

var solveOpts struct {
	format    string
	out       string
	setupCost string
	linkage   string
	verify    bool
}

var solveCmd = &cobra.Command{
	Use:   "solve <problem.json>",
	Short: "Build and solve a problem, then print the plan",
	Args:  cobra.ExactArgs(1),
	RunE:  runSolve,
}

func init() {
	f := solveCmd.Flags()
	f.StringVar(&solveOpts.format, "format", "json", "output format: json or csv")
	f.StringVarP(&solveOpts.out, "out", "o", "", "write the plan to this file instead of stdout")
	f.StringVar(&solveOpts.setupCost, "setup-cost", "", "remanufacturing setup cost: baseline or corrected")
	f.StringVar(&solveOpts.linkage, "linkage", "", "setup linkage: indicator or big_m")
	f.BoolVar(&solveOpts.verify, "verify", false, "check the plan against the problem constraints")
	rootCmd.AddCommand(solveCmd)
}

// ErrNoPlan is returned when the solve ends without a usable plan.
var ErrNoPlan = errors.New("no plan found")

func runSolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if solveOpts.setupCost != "" {
		cfg.Model.SetupCostMode = lotsizing.SetupCostMode(solveOpts.setupCost)
	}
	if solveOpts.linkage != "" {
		cfg.Model.Linkage = lotsizing.Linkage(solveOpts.linkage)
	}
	if err := cfg.Model.Validate(); err != nil {
		return err
	}
	p, err := model.Load(args[0])
	if err != nil {
		return err
	}

	return withService(cfg, func(ctx context.Context, svc *app.Service) error {
		plan, err := svc.Solve(ctx, p, args[0])
		if err != nil {
			return err
		}
		if err := writePlan(cmd.OutOrStdout(), plan); err != nil {
			return err
		}
		if !plan.Status.HasSolution() {
			return fmt.Errorf("%w: status %s", ErrNoPlan, plan.Status)
		}
		if solveOpts.verify {
			if err := lotsizing.Verify(p, plan); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "plan verified")
		}
		return nil
	})
}

func writePlan(stdout io.Writer, plan *lotsizing.Plan) error {
	w := stdout
	if solveOpts.out != "" {
		f, err := os.Create(solveOpts.out)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		w = f
	}
	return export.Write(w, plan, export.Format(solveOpts.format))
}
