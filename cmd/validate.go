package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/clsprm/core/lotsizing"
	"github.com/kilianp07/clsprm/core/model"
	"github.com/kilianp07/clsprm/infra/logger"
)

var validateCmd = &cobra.Command{
	Use:   "validate <problem.json>",
	Short: "Check a problem file and report the model size",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := model.Load(args[0])
	if err != nil {
		return err
	}
	f, err := lotsizing.Build(p, cfg.Model, logger.New("lotsizing"))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %d products, %d periods, %d variables, %d constraints, %d indicators\n",
		args[0], p.NProducts(), p.NPeriods(), f.Model.NumVars(), len(f.Model.Constraints()), len(f.Model.Indicators()))
	return err
}
