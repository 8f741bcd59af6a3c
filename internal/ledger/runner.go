package ledger

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"launchpad-ledger/internal/domain"
	"launchpad-ledger/internal/fault"
	"launchpad-ledger/internal/observability"
	"launchpad-ledger/internal/storage"
)

// Publisher receives the events of committed units.
type Publisher interface {
	Publish(ctx context.Context, events []*domain.Event)
}

// Options configures a Runner.
type Options struct {
	Ledger    storage.Ledger
	Publisher Publisher        // optional
	Logger    *zap.Logger      // optional, defaults to no-op
	Clock     func() time.Time // optional, defaults to time.Now
	// MaxAttempts bounds how often a unit is run when the backend reports
	// storage.ErrConflict. Defaults to 1: the conflict is returned to the
	// caller. A conflicted unit has committed nothing.
	MaxAttempts int
}

// Runner executes operations as atomic units against a storage.Ledger and
// publishes their events once they commit.
type Runner struct {
	ledger      storage.Ledger
	pub         Publisher
	logger      *zap.Logger
	clock       func() time.Time
	maxAttempts int
}

// NewRunner creates a Runner.
func NewRunner(opts Options) *Runner {
	r := &Runner{
		ledger:      opts.Ledger,
		pub:         opts.Publisher,
		logger:      opts.Logger,
		clock:       opts.Clock,
		maxAttempts: opts.MaxAttempts,
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	if r.clock == nil {
		r.clock = time.Now
	}
	if r.maxAttempts <= 0 {
		r.maxAttempts = 1
	}
	return r
}

// Ledger returns the underlying ledger.
func (r *Runner) Ledger() storage.Ledger { return r.ledger }

// Now returns the runner clock's current unix time in seconds.
func (r *Runner) Now() int64 { return r.clock().Unix() }

// Run executes fn as one atomic unit named op. Either every write fn made
// is committed or none is. Events fn emitted are published after the commit.
func (r *Runner) Run(ctx context.Context, op string, fn func(a *Accounts) error) error {
	start := time.Now()
	var (
		acc *Accounts
		err error
	)
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		now := r.Now()
		err = r.ledger.Atomic(ctx, func(tx storage.Tx) error {
			acc = NewAccounts(tx, now)
			return fn(acc)
		})
		if !errors.Is(err, storage.ErrConflict) {
			break
		}
		r.logger.Debug("unit conflicted, retrying", zap.String("operation", op), zap.Int("attempt", attempt))
	}
	if err != nil {
		observability.RecordUnit(op, time.Since(start).Seconds(), fault.KindOf(err).String())
		return err
	}
	observability.RecordUnit(op, time.Since(start).Seconds(), "")

	if r.pub != nil && len(acc.events) > 0 {
		r.pub.Publish(ctx, acc.events)
	}
	return nil
}

// View runs fn as a unit whose writes are discarded and whose events are
// never published. It reads a consistent snapshot.
func (r *Runner) View(ctx context.Context, fn func(a *Accounts) error) error {
	err := r.ledger.Atomic(ctx, func(tx storage.Tx) error {
		if err := fn(NewAccounts(tx, r.Now())); err != nil {
			return err
		}
		return errDiscard
	})
	if errors.Is(err, errDiscard) {
		return nil
	}
	return err
}

var errDiscard = errors.New("discard view unit")

// Trackers returns every lifecycle tracker, ordered by address.
func (r *Runner) Trackers(ctx context.Context) ([]*domain.LifecycleTracker, error) {
	return scan[domain.LifecycleTracker](ctx, r.ledger, storage.KindTracker)
}

// Pools returns every swap pool, ordered by address.
func (r *Runner) Pools(ctx context.Context) ([]*domain.SwapPool, error) {
	return scan[domain.SwapPool](ctx, r.ledger, storage.KindPool)
}

// Vaults returns every liquidity vault, ordered by address.
func (r *Runner) Vaults(ctx context.Context) ([]*domain.LiquidityVault, error) {
	return scan[domain.LiquidityVault](ctx, r.ledger, storage.KindVault)
}

// Claims returns every claim record, ordered by address.
func (r *Runner) Claims(ctx context.Context) ([]*domain.ClaimRecord, error) {
	return scan[domain.ClaimRecord](ctx, r.ledger, storage.KindClaim)
}

// Balances returns every balance record, ordered by address.
func (r *Runner) Balances(ctx context.Context) ([]*domain.Balance, error) {
	return scan[domain.Balance](ctx, r.ledger, storage.KindBalance)
}

// Distributions returns every distribution keyed by its address.
func (r *Runner) Distributions(ctx context.Context) (map[string]*domain.Distribution, error) {
	records, err := r.ledger.Scan(ctx, storage.KindDistribution)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*domain.Distribution, len(records))
	for _, rec := range records {
		d, err := decode[domain.Distribution](rec.Data)
		if err != nil {
			return nil, err
		}
		out[rec.Address] = d
	}
	return out, nil
}

func scan[T any](ctx context.Context, l storage.Ledger, kind storage.RecordKind) ([]*T, error) {
	records, err := l.Scan(ctx, kind)
	if err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(records))
	for _, rec := range records {
		v, err := decode[T](rec.Data)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
