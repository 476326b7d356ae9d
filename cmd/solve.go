package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/posched/app"
	"github.com/kilianp07/posched/config"
	"github.com/kilianp07/posched/infra/logger"
)

var (
	outDir     string
	noExport   bool
	serveAfter bool
)

var solveCmd = &cobra.Command{
	Use:   "solve <scenario>",
	Short: "Solve a scenario and write the schedule",
	Args:  cobra.ExactArgs(1),
	RunE:  solve,
}

func init() {
	solveCmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (overrides output.dir)")
	solveCmd.Flags().BoolVar(&noExport, "no-export", false, "do not write result files")
	solveCmd.Flags().BoolVar(&serveAfter, "serve", false, "keep serving Prometheus metrics after solving until interrupted")
	rootCmd.AddCommand(solveCmd)
}

func solve(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	log := logger.New("main")
	defer func() {
		if err := svc.Close(); err != nil {
			log.Errorf("service close: %v", err)
		}
	}()

	serveCtx, stopServe := context.WithCancel(ctx)
	defer stopServe()
	served := make(chan error, 1)
	go func() { served <- svc.ServeMetrics(serveCtx) }()

	res, err := svc.Solve(ctx, app.Request{ScenarioPath: args[0], OutputDir: outDir, SkipExport: noExport})
	if err != nil {
		return err
	}
	m := res.Solution.Metrics
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run:        %s\n", res.RunID)
	fmt.Fprintf(out, "status:     %s\n", m.Status)
	if m.IsFeasible {
		fmt.Fprintf(out, "objective:  %d (bound %d)\n", m.Objective, m.BestBound)
		fmt.Fprintf(out, "movements:  %d\n", len(res.Solution.Movements))
	}
	fmt.Fprintf(out, "wall time:  %s\n", m.WallTime)
	for _, f := range res.Files {
		fmt.Fprintf(out, "wrote       %s\n", f)
	}

	if serveAfter && cfg.Metrics.PrometheusAddr != "" {
		<-ctx.Done()
	}
	stopServe()
	return <-served
}
