package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/posched/app"
	"github.com/kilianp07/posched/config"
	"github.com/kilianp07/posched/core/validation"
)

var validateCmd = &cobra.Command{
	Use:   "validate <scenario>",
	Short: "Check a scenario for overlaps and capacity without solving",
	Args:  cobra.ExactArgs(1),
	RunE:  validateScenario,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateScenario(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	out := cmd.OutOrStdout()
	sc, report, err := svc.Check(args[0])
	var capErr *validation.CapacityError
	if errors.As(err, &capErr) {
		for _, v := range report.Violations() {
			fmt.Fprintf(out, "tick %d: demand %d > capacity %d", v.Tick, v.TotalDemand, v.TotalCapacity)
			for _, need := range v.Overloaded() {
				bal := v.PerNeed[need]
				fmt.Fprintf(out, " [%s %d/%d]", need, bal.Demand, bal.Supply)
			}
			fmt.Fprintln(out)
		}
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "scenario %q is consistent: %d jobs (%d waiting) over %d ticks\n",
		sc.Name, len(sc.Input.Jobs), sc.Waiting, len(report.Ticks))
	return nil
}
