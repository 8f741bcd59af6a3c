package lifecycle

import (
	"context"

	"go.uber.org/zap"

	"launchpad-ledger/internal/domain"
	"launchpad-ledger/internal/ledger"
	"launchpad-ledger/internal/observability"
)

// Options configures a Service.
type Options struct {
	Runner *ledger.Runner
	Rules  Rules // zero fields fall back to the defaults
	Logger *zap.Logger
}

// Service runs tracker operations as atomic units.
type Service struct {
	runner *ledger.Runner
	rules  Rules
	logger *zap.Logger
}

// New creates a Service.
func New(opts Options) *Service {
	s := &Service{
		runner: opts.Runner,
		rules:  opts.Rules.withDefaults(),
		logger: opts.Logger,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Rules returns the effective transition rules.
func (s *Service) Rules() Rules { return s.rules }

// Initialize starts tracking mint.
func (s *Service) Initialize(ctx context.Context, mint, updater string) (*domain.LifecycleTracker, error) {
	var t *domain.LifecycleTracker
	err := s.runner.Run(ctx, "lifecycle_initialize", func(a *ledger.Accounts) error {
		var err error
		t, err = InitializeTracker(ctx, a, mint, updater)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("tracker initialized", zap.String("mint", mint), zap.Int64("launch_time", t.LaunchTime))
	return t, nil
}

// UpdateStats reports a trade's quote volume and the resulting price.
func (s *Service) UpdateStats(ctx context.Context, mint, caller string, volumeDelta, price uint64) error {
	return s.runner.Run(ctx, "lifecycle_update_stats", func(a *ledger.Accounts) error {
		_, err := RecordStats(ctx, a, mint, caller, volumeDelta, price)
		return err
	})
}

// CheckAndFlagDead evaluates the transition rules and returns the
// resulting status.
func (s *Service) CheckAndFlagDead(ctx context.Context, mint string) (domain.Status, error) {
	var from, to domain.Status
	err := s.runner.Run(ctx, "lifecycle_check", func(a *ledger.Accounts) error {
		var err error
		from, to, err = Evaluate(ctx, a, mint, s.rules)
		return err
	})
	if err != nil {
		return 0, err
	}

	if from != to {
		observability.RecordStatusTransition(from.String(), to.String())
		s.logger.Info("status changed",
			zap.String("mint", mint),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	}
	return to, nil
}

// ValidateTradeDirection rejects buys of a dead token.
func (s *Service) ValidateTradeDirection(ctx context.Context, mint string, isBuy bool) error {
	return s.runner.View(ctx, func(a *ledger.Accounts) error {
		return CheckTradeDirection(ctx, a, mint, isBuy)
	})
}

// Tracker returns a snapshot of mint's tracker.
func (s *Service) Tracker(ctx context.Context, mint string) (*domain.LifecycleTracker, error) {
	var t *domain.LifecycleTracker
	err := s.runner.View(ctx, func(a *ledger.Accounts) error {
		var err error
		t, err = LoadTracker(ctx, a, mint)
		return err
	})
	return t, err
}
