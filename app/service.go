package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/clsprm/app/plugins"
	"github.com/kilianp07/clsprm/config"
	corehistory "github.com/kilianp07/clsprm/core/history"
	"github.com/kilianp07/clsprm/core/lotsizing"
	coremetrics "github.com/kilianp07/clsprm/core/metrics"
	"github.com/kilianp07/clsprm/core/mip"
	"github.com/kilianp07/clsprm/core/model"
	coremon "github.com/kilianp07/clsprm/core/monitoring"
	"github.com/kilianp07/clsprm/infra/history"
	"github.com/kilianp07/clsprm/infra/logger"
	_ "github.com/kilianp07/clsprm/infra/metrics" // registers metrics sinks
	"github.com/kilianp07/clsprm/infra/monitoring"
	"github.com/kilianp07/clsprm/infra/solver"
)

// incumbentSource is implemented by backends that report progress.
type incumbentSource interface {
	Incumbents() (<-chan solver.Incumbent, func())
}

// Service builds and solves lot-sizing problems with the configured backend,
// reporting every run to the metrics sinks and the run history.
type Service struct {
	cfg     *config.Config
	solver  mip.Solver
	sink    coremetrics.MetricsSink
	history corehistory.Store
	log     logger.Logger
	now     func() time.Time
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	if err := logger.SetLevel(cfg.Logging.Level); err != nil {
		return nil, err
	}
	logg := logger.New("service")
	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)
	s, err := plugins.NewSolver(cfg.Solver.Backend, cfg.Solver.Conf)
	if err != nil {
		return nil, fmt.Errorf("solver backend: %w", err)
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	store, err := history.Open(cfg.Logging.History())
	if err != nil {
		return nil, fmt.Errorf("history store: %w", err)
	}
	return &Service{cfg: cfg, solver: s, sink: sink, history: store, log: logg, now: time.Now}, nil
}

// Solve builds the model for p and solves it. input names the problem source
// in the run history. A plan is returned for every status the backend
// reports; backend failures are returned as errors after being recorded.
func (s *Service) Solve(ctx context.Context, p *model.Problem, input string) (*lotsizing.Plan, error) {
	start := s.now()
	f, err := lotsizing.Build(p, s.cfg.Model, logger.New("lotsizing"))
	if err != nil {
		return nil, err
	}
	if s.cfg.Solver.TimeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Solver.TimeLimit)
		defer cancel()
	}
	ctx, stopWatch := s.watchIncumbents(ctx, input)
	plan, solveErr := f.Solve(ctx, s.solver)
	stopWatch()

	ev := coremetrics.SolveEvent{
		Model:       f.Model.Name(),
		SetupCost:   string(f.Config.SetupCostMode),
		Linkage:     string(f.Config.Linkage),
		Status:      mip.StatusError,
		Duration:    s.now().Sub(start),
		Products:    p.NProducts(),
		Periods:     p.NPeriods(),
		Variables:   f.Model.NumVars(),
		Constraints: len(f.Model.Constraints()) + len(f.Model.Indicators()),
		Err:         solveErr,
		Time:        start,
	}
	if plan != nil {
		ev.RunID, ev.Status, ev.Objective, ev.Nodes = plan.RunID, plan.Status, plan.Objective, plan.Nodes
	} else {
		ev.RunID = uuid.NewString()
	}
	s.record(ctx, ev, input)
	if plan != nil && plan.Status.HasSolution() {
		s.recordUtilization(p, plan)
	}
	if solveErr != nil {
		s.log.Errorf("solve %s: %v", input, solveErr)
		coremon.CaptureException(solveErr, map[string]string{
			"input":   input,
			"backend": s.cfg.Solver.Backend,
			"run_id":  ev.RunID,
		})
		return nil, solveErr
	}
	return plan, nil
}

// watchIncumbents tags ctx for one solve and logs the incumbents published
// under that tag. The returned function ends the watch and reports how many
// incumbents were seen.
func (s *Service) watchIncumbents(ctx context.Context, input string) (context.Context, func() int) {
	src, ok := s.solver.(incumbentSource)
	if !ok {
		return ctx, func() int { return 0 }
	}
	tag := uuid.NewString()
	ch, cancel := src.Incumbents()
	done := make(chan int)
	go func() {
		seen := 0
		for inc := range ch {
			if inc.Tag != tag {
				continue
			}
			seen++
			s.log.Infof("%s: incumbent %g at node %d after %s", input, inc.Objective, inc.Node, inc.Elapsed)
		}
		done <- seen
	}()
	return solver.WithTag(ctx, tag), func() int {
		cancel()
		return <-done
	}
}

// record reports ev to metrics and history. Failures are logged only so a
// broken sink never hides a plan.
func (s *Service) record(ctx context.Context, ev coremetrics.SolveEvent, input string) {
	if err := s.sink.RecordSolve(ev); err != nil {
		s.log.Warnf("record metrics: %v", err)
	}
	rec := corehistory.Record{
		RunID:     ev.RunID,
		Timestamp: ev.Time,
		Input:     input,
		SetupCost: ev.SetupCost,
		Linkage:   ev.Linkage,
		Status:    ev.Status,
		Objective: ev.Objective,
		Nodes:     ev.Nodes,
		Duration:  ev.Duration.Seconds(),
		Products:  ev.Products,
		Periods:   ev.Periods,
	}
	if ev.Err != nil {
		rec.Error = ev.Err.Error()
	}
	// the run is recorded even when ctx expired during the solve
	if err := s.history.Append(context.WithoutCancel(ctx), rec); err != nil {
		s.log.Warnf("append history: %v", err)
	}
}

func (s *Service) recordUtilization(p *model.Problem, plan *lotsizing.Plan) {
	r, ok := s.sink.(coremetrics.UtilizationRecorder)
	if !ok {
		return
	}
	us := make([]coremetrics.Utilization, p.NPeriods())
	for _, t := range p.Periods() {
		us[t] = coremetrics.Utilization{
			RunID:           plan.RunID,
			Period:          t,
			Production:      plan.UsedProduction[t],
			ProductionCap:   p.ProductionCapacity(t),
			Remanufacturing: plan.UsedRemanufacturing[t],
			RemanufactCap:   p.RemanufacturingCapacity(t),
		}
	}
	if err := r.RecordUtilization(us); err != nil {
		s.log.Warnf("record utilization: %v", err)
	}
}

// History returns past runs matching q.
func (s *Service) History(ctx context.Context, q corehistory.Query) ([]corehistory.Record, error) {
	return s.history.Query(ctx, q)
}

// Close flushes metrics and error reports and releases the history store.
func (s *Service) Close() error {
	coremon.Flush(2 * time.Second)
	var errs []error
	if f, ok := s.sink.(coremetrics.Flusher); ok {
		errs = append(errs, f.Flush())
	}
	errs = append(errs, s.history.Close())
	return errors.Join(errs...)
}
