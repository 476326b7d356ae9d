package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/posched/config"
	coremetrics "github.com/kilianp07/posched/core/metrics"
	coremon "github.com/kilianp07/posched/core/monitoring"
	"github.com/kilianp07/posched/core/planner"
	"github.com/kilianp07/posched/core/progress"
	"github.com/kilianp07/posched/core/scenario"
	"github.com/kilianp07/posched/core/solution"
	"github.com/kilianp07/posched/core/solver"
	"github.com/kilianp07/posched/core/validation"
	"github.com/kilianp07/posched/infra/cpsolver"
	"github.com/kilianp07/posched/infra/logger"
	"github.com/kilianp07/posched/infra/metrics"
	"github.com/kilianp07/posched/infra/monitoring"
	"github.com/kilianp07/posched/internal/eventbus"
	"github.com/kilianp07/posched/pkg/export"
)

// Service wires the planner with the engine, the progress log, metrics sinks
// and error monitoring.
type Service struct {
	cfg     *config.Config
	log     logger.Logger
	engine  solver.Engine
	sink    coremetrics.MetricsSink
	store   progress.Store
	bus     *eventbus.TypedBus[coremetrics.ProgressEvent]
	stopCol context.CancelFunc
	colDone <-chan struct{}
}

// Request describes one solve.
type Request struct {
	ScenarioPath string
	// OutputDir overrides the configured output directory.
	OutputDir string
	// SkipExport disables writing result files.
	SkipExport bool
}

// Result is the outcome of one solve.
type Result struct {
	RunID    string
	Scenario string
	Solution *solution.Solution
	Progress []progress.Record
	Files    []string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")
	if err := logger.SetLevel(cfg.Logging.Level); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	store, err := progress.Open(progress.Options{
		Backend:    cfg.Logging.Backend,
		Path:       cfg.Logging.Path,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		return nil, fmt.Errorf("progress store: %w", err)
	}

	engine := cpsolver.New(cpsolver.Config{
		LPBound:    cfg.Solver.LPBound == nil || *cfg.Solver.LPBound,
		LPMaxCells: cfg.Solver.LPMaxCells,
	}, logger.New("cpsolver"))

	bus := eventbus.NewTyped[coremetrics.ProgressEvent]()
	colCtx, stop := context.WithCancel(context.Background())
	done := metrics.StartProgressCollector(colCtx, bus, sink, logg)

	return &Service{
		cfg:     cfg,
		log:     logg,
		engine:  engine,
		sink:    sink,
		store:   store,
		bus:     bus,
		stopCol: stop,
		colDone: done,
	}, nil
}

// ServeMetrics exposes Prometheus metrics until ctx is done. It returns
// immediately when no address is configured.
func (s *Service) ServeMetrics(ctx context.Context) error {
	if s.cfg.Metrics.PrometheusAddr == "" {
		return nil
	}
	return metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusAddr, s.log)
}

// PlannerOptions maps configuration onto planner options.
func (s *Service) PlannerOptions() planner.Options {
	return planner.Options{
		HorizonTicks:     s.cfg.Horizon.Ticks,
		HoldAtHorizonEnd: s.cfg.Horizon.HoldAtEnd,
		Objective:        planner.ObjectiveKind(s.cfg.Objective.Kind),
		CountBoundary:    s.cfg.Objective.CountBoundary,
	}
}

// Check loads a scenario and runs pre-processing only.
func (s *Service) Check(path string) (*scenario.Scenario, validation.CapacityReport, error) {
	doc, err := scenario.Load(path)
	if err != nil {
		return nil, validation.CapacityReport{}, err
	}
	sc, err := doc.Build(s.PlannerOptions(), logger.New("scenario"))
	if err != nil {
		return nil, validation.CapacityReport{}, err
	}
	p, err := planner.NewProblem(sc.Input, sc.Options, logger.New("planner"))
	if err != nil {
		return sc, validation.CapacityReport{}, err
	}
	report, err := p.Preprocess()
	if err != nil {
		return sc, report, err
	}
	if len(sc.Initial) > 0 {
		if err := p.ApplyInitialConditions(sc.Initial); err != nil {
			return sc, report, err
		}
	}
	return sc, report, nil
}

// Solve runs the whole pipeline for one scenario.
func (s *Service) Solve(ctx context.Context, req Request) (*Result, error) {
	runID := uuid.NewString()
	res := &Result{RunID: runID}
	fail := func(stage string, err error) (*Result, error) {
		coremon.CaptureException(err, coremon.RunTags(runID, res.Scenario, stage))
		return res, err
	}

	doc, err := scenario.Load(req.ScenarioPath)
	if err != nil {
		return fail("load", err)
	}
	sc, err := doc.Build(s.PlannerOptions(), logger.New("scenario"))
	if err != nil {
		return fail("load", err)
	}
	res.Scenario = sc.Name
	s.log.Infof("run %s: scenario %q with %d jobs", runID, sc.Name, len(sc.Input.Jobs))

	p, err := planner.NewProblem(sc.Input, sc.Options, logger.New("planner"))
	if err != nil {
		return fail("construct", err)
	}
	if err := p.BuildVariables(); err != nil {
		var capErr *validation.CapacityError
		if errors.As(err, &capErr) {
			for _, v := range capErr.Report.Violations() {
				s.log.Warnf("capacity violation: %s", v.Describe())
			}
		}
		return fail("build", err)
	}
	if len(sc.Initial) > 0 {
		if err := p.ApplyInitialConditions(sc.Initial); err != nil {
			return fail("initial_conditions", err)
		}
	}
	if err := p.Build(); err != nil {
		return fail("build", err)
	}

	recordStart(s.sink, coremetrics.RunStarted{
		RunID:       runID,
		Scenario:    sc.Name,
		Jobs:        len(p.Jobs()),
		Ticks:       p.Timeline().Len(),
		Variables:   p.Model().NumVars(),
		Constraints: len(p.Model().Constraints()),
		Time:        time.Now(),
	}, s.log)

	record := progress.Recorder(ctx, s.store, runID, logger.New("progress"))
	_, err = p.Solve(ctx, s.engine, planner.SolveOptions{
		TimeLimit:         s.cfg.Solver.TimeLimit(),
		NodeLimit:         s.cfg.Solver.NodeLimit,
		InactivityTimeout: s.cfg.Solver.InactivityTimeout(),
		PollInterval:      s.cfg.Solver.PollInterval(),
		OnProgress: func(pr planner.Progress) {
			record(pr)
			s.bus.Publish(coremetrics.ProgressEvent{
				RunID:     runID,
				Iteration: pr.Iteration,
				Elapsed:   pr.Elapsed,
				Objective: pr.Objective,
				Bound:     pr.Bound,
				Time:      time.Now(),
			})
		},
	})
	if err != nil {
		return fail("solve", err)
	}

	sol, err := solution.Extract(p)
	if err != nil {
		return fail("extract", err)
	}
	res.Solution = sol
	if err := s.sink.RecordRunResult(coremetrics.RunResult{
		RunID:     runID,
		Scenario:  sc.Name,
		Status:    sol.Metrics.Status,
		Objective: sol.Metrics.Objective,
		BestBound: sol.Metrics.BestBound,
		WallTime:  sol.Metrics.WallTime,
		Movements: len(sol.Movements),
		Solutions: sol.Metrics.Solutions,
		Nodes:     sol.Metrics.Nodes,
		Time:      time.Now(),
	}); err != nil {
		s.log.Warnf("record run result: %v", err)
	}

	recs, err := s.store.Query(ctx, progress.Query{RunID: runID})
	if err != nil {
		s.log.Warnf("query progress log: %v", err)
	}
	res.Progress = recs

	if !req.SkipExport {
		dir := req.OutputDir
		if dir == "" {
			dir = s.cfg.Output.Dir
		}
		files, err := export.WriteDir(dir, s.cfg.Output.Format, sol, recs)
		if err != nil {
			return fail("export", err)
		}
		res.Files = files
	}
	s.log.Infof("run %s: %s, objective %d, %d movements", runID, sol.Metrics.Status, sol.Metrics.Objective, len(sol.Movements))
	return res, nil
}

// recordStart reports a run start to sinks that support it. Failures are
// logged and never abort the solve.
func recordStart(sink coremetrics.MetricsSink, ev coremetrics.RunStarted, log logger.Logger) {
	rec, ok := sink.(coremetrics.RunStartRecorder)
	if !ok {
		return
	}
	if err := rec.RecordRunStarted(ev); err != nil {
		log.Warnf("record run start: %v", err)
	}
}

// Close stops the collector, flushes monitoring and closes the progress store.
func (s *Service) Close() error {
	s.bus.Close()
	s.stopCol()
	<-s.colDone
	if n := s.bus.Dropped(); n > 0 {
		s.log.Warnf("%d progress events dropped by the metrics collector", n)
	}
	coremon.Flush(2 * time.Second)
	return s.store.Close()
}
