package service

import (
	"time"

	"github.com/okian/rosterfix/internal/domain/equipment"
	"github.com/okian/rosterfix/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of team allocation workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithSeed fixes the run seed. 0 keeps a time-based seed per run.
func WithSeed(seed int64) Option {
	return func(s *Service) {
		s.seed = seed
	}
}

// WithInputDir sets the directory searched for a roster when none is given.
func WithInputDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.inputDir = dir
		}
	}
}

// WithOutputDir sets the directory receiving the updated roster and audit.
func WithOutputDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.outputDir = dir
		}
	}
}

// WithLogicDir sets the directory holding the rule files.
func WithLogicDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.logicDir = dir
		}
	}
}

// WithEquipment toggles the equipment rules and templates.
func WithEquipment(enabled bool) Option {
	return func(s *Service) {
		s.equipment = enabled
	}
}

// WithEquipmentRules replaces the global equipment rules.
func WithEquipmentRules(rules equipment.Rules) Option {
	return func(s *Service) {
		s.rules = rules
	}
}

// WithAudit toggles the jersey audit export.
func WithAudit(enabled bool) Option {
	return func(s *Service) {
		s.audit = enabled
	}
}

// WithClock sets the time source used for timestamps and durations.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}
