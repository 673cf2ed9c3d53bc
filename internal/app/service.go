// Package service runs a roster batch: rule files and roster in, updated
// roster and audit out.
package service

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/okian/rosterfix/internal/adapters/csvio"
	"github.com/okian/rosterfix/internal/adapters/logic"
	"github.com/okian/rosterfix/internal/adapters/mq/worker"
	"github.com/okian/rosterfix/internal/config"
	"github.com/okian/rosterfix/internal/domain/allocation"
	"github.com/okian/rosterfix/internal/domain/eligibility"
	"github.com/okian/rosterfix/internal/domain/equipment"
	"github.com/okian/rosterfix/internal/domain/roster"
	"github.com/okian/rosterfix/pkg/logger"
	"github.com/okian/rosterfix/pkg/metrics"
)

// Service processes roster files.
type Service struct {
	workerCount int
	seed        int64
	inputDir    string
	outputDir   string
	logicDir    string
	equipment   bool
	audit       bool
	rules       equipment.Rules
	now         func() time.Time

	logger logger.Logger
}

// Result describes a finished run.
type Result struct {
	RunID      string
	Seed       int64
	InputPath  string
	OutputPath string
	// AuditPath is empty when the audit export is disabled.
	AuditPath string
	Rows      int
	Equipment equipment.Stats
	Summary   allocation.Summary
	Duration  time.Duration
}

// Check describes an existing roster without changing it.
type Check struct {
	InputPath string
	Report    allocation.Report
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		inputDir:    "input",
		outputDir:   "output",
		logicDir:    "logic",
		equipment:   true,
		audit:       true,
		rules:       equipment.DefaultRules(),
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger = s.logger.Named("service")

	return s
}

// NewFromConfig constructs a Service from loaded configuration. Later options
// override the configuration.
func NewFromConfig(cfg *config.Config, opts ...Option) *Service {
	rules := equipment.DefaultRules()
	rules.SockMax = cfg.SockMax
	rules.ForceValue = map[string]int{equipment.HelmetColumn: cfg.HelmetValue}

	base := []Option{
		WithWorkerCount(cfg.WorkerCount),
		WithSeed(cfg.Seed),
		WithInputDir(cfg.InputDir),
		WithOutputDir(cfg.OutputDir),
		WithLogicDir(cfg.LogicDir),
		WithEquipment(cfg.Equipment),
		WithEquipmentRules(rules),
		WithAudit(cfg.Audit),
	}
	return New(append(base, opts...)...)
}

// runSeed returns the configured seed, or a time-based one when it is 0.
func (s *Service) runSeed() int64 {
	if s.seed != 0 {
		return s.seed
	}
	return s.now().UnixNano()
}

// AllocateRoster assigns jersey numbers to every row of t in place.
func (s *Service) AllocateRoster(ctx context.Context, rules *eligibility.Table, t *roster.Table) (allocation.Summary, error) {
	return s.allocate(ctx, s.logger, rules, t, s.runSeed())
}

func (s *Service) allocate(ctx context.Context, log logger.Logger, rules *eligibility.Table, t *roster.Table, seed int64) (allocation.Summary, error) {
	players, err := t.Players()
	if err != nil {
		return allocation.Summary{}, fmt.Errorf("%w: %w", ErrInput, err)
	}

	teams := allocation.PartitionTeams(players)
	pool := worker.NewPool(s.workerCount, allocation.New(rules),
		worker.WithSeed(seed),
		worker.WithPoolLogger(log),
	)
	results, err := pool.Run(ctx, teams)
	if err != nil {
		return allocation.Summary{}, fmt.Errorf("allocate teams: %w", err)
	}

	if err := t.ApplyNumbers(allocation.Merge(players, results)); err != nil {
		return allocation.Summary{}, fmt.Errorf("apply numbers: %w", err)
	}
	return allocation.Summarize(results), nil
}

// resolveInput returns path, or the first roster in the input directory.
func (s *Service) resolveInput(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	found, err := csvio.FindFirstCSV(s.inputDir)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInput, err)
	}
	return found, nil
}

// Process runs equipment rules, jersey allocation and the exports over the
// roster at inputPath. An empty inputPath picks the first CSV of the input
// directory. Nothing is written when the rules or the roster are invalid.
func (s *Service) Process(ctx context.Context, inputPath string) (*Result, error) {
	start := s.now()
	res := &Result{RunID: uuid.NewString(), Seed: s.runSeed()}
	log := s.logger.With(logger.String("run_id", res.RunID))

	path, err := s.resolveInput(inputPath)
	if err != nil {
		metrics.RecordRunError(kindInput)
		return nil, err
	}
	res.InputPath = path

	bundle, err := logic.NewLoader(s.logicDir, logic.WithLogger(log)).Load(ctx)
	if err != nil {
		metrics.RecordRunError(kindConfig)
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	table, err := csvio.ReadRoster(path)
	if err == nil {
		err = table.Require(roster.RequiredColumns...)
	}
	if err != nil {
		metrics.RecordRunError(kindInput)
		return nil, fmt.Errorf("%w: %w", ErrInput, err)
	}
	res.Rows = table.Len()

	log.Info(ctx, "processing roster",
		logger.String("input", path),
		logger.Int("rows", res.Rows),
		logger.Int64("seed", res.Seed),
	)

	if s.equipment {
		applier := equipment.NewApplier(s.rules, bundle.Templates)
		stats, err := applier.Apply(table, allocation.NewSeededRandom(res.Seed))
		if err != nil {
			metrics.RecordRunError(kindInput)
			return nil, fmt.Errorf("%w: %w", ErrInput, err)
		}
		metrics.AddTemplates(stats.TemplatesApplied, stats.TemplatesMissing)
		res.Equipment = stats
	}

	summary, err := s.allocate(ctx, log, bundle.Eligibility, table, res.Seed)
	if err != nil {
		metrics.RecordRunError(kindAllocation)
		return nil, err
	}
	res.Summary = summary

	out, err := csvio.WriteOutputs(s.outputDir, table, start, s.audit)
	if err != nil {
		metrics.RecordRunError(kindOutput)
		return nil, fmt.Errorf("%w: %w", ErrOutput, err)
	}
	res.OutputPath, res.AuditPath = out.RosterPath, out.AuditPath

	end := s.now()
	res.Duration = end.Sub(start)
	metrics.RecordRun(res.Rows, float64(res.Duration.Microseconds())/1000, end.Unix())

	if len(summary.MissingPositions) > 0 {
		log.Warn(ctx, "positions without jersey rules",
			logger.Ints("positions", summary.MissingPositions),
			logger.Int("unassigned", summary.Unassigned),
		)
	}
	if summary.ForcedDuplicates > 0 {
		log.Warn(ctx, "number pools exhausted", logger.Int("forced_duplicates", summary.ForcedDuplicates))
	}
	log.Info(ctx, "roster updated",
		logger.String("output", res.OutputPath),
		logger.String("audit", res.AuditPath),
		logger.Int("teams", summary.Teams),
		logger.Int("forced_duplicates", summary.ForcedDuplicates),
		logger.Duration("duration", res.Duration),
	)
	return res, nil
}

// Check validates the jersey numbers of the roster at inputPath against the
// rule files without writing anything.
func (s *Service) Check(ctx context.Context, inputPath string) (*Check, error) {
	path, err := s.resolveInput(inputPath)
	if err != nil {
		return nil, err
	}

	rules, err := logic.NewLoader(s.logicDir, logic.WithLogger(s.logger)).LoadEligibility(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	table, err := csvio.ReadRoster(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInput, err)
	}
	players, err := table.Players()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInput, err)
	}

	report := allocation.Validate(players, rules)
	s.logger.Info(ctx, "roster checked",
		logger.String("input", path),
		logger.Int("players", report.Players),
		logger.Int("out_of_range", report.OutOfRange),
		logger.Int("duplicates", report.Duplicates),
		logger.Int("unassigned", report.Unassigned),
	)
	return &Check{InputPath: path, Report: report}, nil
}
