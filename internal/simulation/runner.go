// Package simulation drives a deterministic market through the platform:
// launches, trading, death, liquidation, holder claims and a daily prize
// pool. Every run ends with a conservation audit of the ledger.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"go.uber.org/zap"

	"launchpad-ledger/internal/claims"
	"launchpad-ledger/internal/domain"
	"launchpad-ledger/internal/events"
	"launchpad-ledger/internal/fault"
	"launchpad-ledger/internal/ledger"
	"launchpad-ledger/internal/lifecycle"
	"launchpad-ledger/internal/platform"
	"launchpad-ledger/internal/storage/memory"
	"launchpad-ledger/internal/swap"
	"launchpad-ledger/internal/verification"
)

const (
	lamportsPerSOL = 1_000_000_000
	treasury       = "sim-treasury"
	authority      = "sim-platform"
)

// Scenario describes one run.
type Scenario struct {
	Seed  int64
	Start int64 // unix seconds of the first launch

	Tokens int
	// LiveTokens keep trading for the whole run; the rest stop after
	// FadeSteps and die once they reach the minimum age.
	LiveTokens    int
	FadeSteps     int
	Traders       int
	Steps         int
	StepInterval  time.Duration
	TradesPerStep int

	TokenSupply  uint64
	LaunchQuote  uint64
	TraderBudget uint64
	MaxBuy       uint64

	FeeRateBps         uint16
	PlatformCutPercent uint64
	Rules              lifecycle.Rules
	// PrizeFraction is the share of the treasury, in percent, paid into the
	// daily prize pool.
	PrizeFraction uint64
}

// DefaultScenario returns a small run that exercises every path.
func DefaultScenario() Scenario {
	return Scenario{
		Seed:               1,
		Start:              1_700_000_000,
		Tokens:             4,
		LiveTokens:         2,
		FadeSteps:          4,
		Traders:            20,
		Steps:              48,
		StepInterval:       time.Hour,
		TradesPerStep:      3,
		TokenSupply:        1_000_000_000,
		LaunchQuote:        10 * lamportsPerSOL,
		TraderBudget:       20 * lamportsPerSOL,
		MaxBuy:             lamportsPerSOL / 2,
		FeeRateBps:         30,
		PlatformCutPercent: 20,
		Rules:              lifecycle.DefaultRules(),
		PrizeFraction:      10,
	}
}

// Validate reports the first setting that makes the run meaningless.
func (s Scenario) Validate() error {
	switch {
	case s.Tokens <= 0 || s.Traders <= 0:
		return errors.New("scenario needs tokens and traders")
	case s.LiveTokens < 0 || s.LiveTokens > s.Tokens:
		return fmt.Errorf("live tokens %d out of range [0, %d]", s.LiveTokens, s.Tokens)
	case s.StepInterval <= 0:
		return errors.New("step interval must be positive")
	case s.TokenSupply == 0 || s.LaunchQuote == 0 || s.MaxBuy == 0:
		return errors.New("token supply, launch quote and max buy must be positive")
	case s.PrizeFraction > 100:
		return fmt.Errorf("prize fraction %d%% exceeds 100", s.PrizeFraction)
	}
	return nil
}

// Result summarizes a run.
type Result struct {
	Launched     int
	Trades       int
	FailedTrades int
	Volume       uint64

	Liquidated       []string
	HolderPools      uint64
	HolderTokenPools uint64
	PlatformFee      uint64

	Claims        int
	SkippedClaims int
	Claimed       uint64
	TokenClaims   int
	TokenClaimed  uint64

	PrizePool    string
	PrizeFunded  uint64
	PrizeWinners map[string]string // category -> wallet
	PrizePaid    uint64

	Events map[domain.EventKind]int
	Audit  *verification.Report
}

// Runner executes scenarios against a fresh in-memory ledger.
type Runner struct {
	logger *zap.Logger
}

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	Logger *zap.Logger
}

// NewRunner creates a simulation runner.
func NewRunner(opts RunnerOptions) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{logger: logger}
}

// run carries the state of one scenario.
type run struct {
	sc       Scenario
	rng      *rand.Rand
	now      int64
	p        *platform.Platform
	recorder *events.Recorder
	logger   *zap.Logger

	mints    []string
	traders  []string
	supplies map[string]uint64
	trades   map[string]int
	early    string
	result   *Result
}

func (r *run) clock() time.Time { return time.Unix(r.now, 0) }

func (r *run) advance(d time.Duration) { r.now += int64(d / time.Second) }

// Run executes sc and audits the resulting ledger.
func (r *Runner) Run(ctx context.Context, sc Scenario) (*Result, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	st := &run{
		sc:       sc,
		rng:      rand.New(rand.NewSource(sc.Seed)),
		now:      sc.Start,
		recorder: &events.Recorder{},
		logger:   r.logger,
		supplies: make(map[string]uint64),
		trades:   make(map[string]int),
		result:   &Result{PrizeWinners: make(map[string]string)},
	}
	runner := ledger.NewRunner(ledger.Options{
		Ledger:    memory.NewLedger(),
		Publisher: events.NewBus(r.logger.Named("events"), st.recorder),
		Logger:    r.logger.Named("ledger"),
		Clock:     st.clock,
	})
	st.p = platform.New(platform.Options{
		Runner:             runner,
		Authority:          authority,
		Treasury:           treasury,
		FeeRateBps:         sc.FeeRateBps,
		Rules:              sc.Rules,
		PlatformCutPercent: sc.PlatformCutPercent,
		Logger:             r.logger,
	})

	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"launch", st.launch},
		{"fund traders", st.fundTraders},
		{"trade", st.trade},
		{"sweep", st.sweep},
		{"prize", st.prize},
	}
	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			return st.result, fmt.Errorf("%s: %w", step.name, err)
		}
	}

	audit, err := verification.New(runner).Verify(ctx, st.supplies)
	if err != nil {
		return st.result, fmt.Errorf("audit: %w", err)
	}
	st.result.Audit = audit

	st.result.Events = make(map[domain.EventKind]int)
	for _, e := range st.recorder.Events() {
		st.result.Events[e.Kind]++
	}
	return st.result, nil
}

func (r *run) faucet(ctx context.Context, owner, asset string, amount uint64) error {
	if err := r.p.Faucet(ctx, owner, asset, amount); err != nil {
		return err
	}
	r.supplies[asset] += amount
	return nil
}

func (r *run) launch(ctx context.Context) error {
	for i := 0; i < r.sc.Tokens; i++ {
		mint := fmt.Sprintf("sim-token-%02d", i)
		creator := fmt.Sprintf("sim-creator-%02d", i)
		if err := r.faucet(ctx, creator, mint, r.sc.TokenSupply); err != nil {
			return err
		}
		if err := r.faucet(ctx, creator, domain.QuoteAsset, r.sc.LaunchQuote); err != nil {
			return err
		}
		if _, err := r.p.Launch(ctx, platform.LaunchParams{
			Mint:        mint,
			Creator:     creator,
			TokenAmount: r.sc.TokenSupply,
			QuoteAmount: r.sc.LaunchQuote,
		}); err != nil {
			return err
		}
		r.mints = append(r.mints, mint)
		r.result.Launched++
	}
	return nil
}

func (r *run) fundTraders(ctx context.Context) error {
	for i := 0; i < r.sc.Traders; i++ {
		trader := fmt.Sprintf("sim-trader-%03d", i)
		if err := r.faucet(ctx, trader, domain.QuoteAsset, r.sc.TraderBudget); err != nil {
			return err
		}
		r.traders = append(r.traders, trader)
	}
	return nil
}

func (r *run) trade(ctx context.Context) error {
	for step := 0; step < r.sc.Steps; step++ {
		r.advance(r.sc.StepInterval)
		for i, mint := range r.mints {
			if i >= r.sc.LiveTokens && step >= r.sc.FadeSteps {
				continue
			}
			for n := 0; n < r.sc.TradesPerStep; n++ {
				if err := r.tradeOnce(ctx, mint); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// tradeOnce buys with a random trader, or sells half of its holdings.
// Economic and validation rejections are counted, not fatal.
func (r *run) tradeOnce(ctx context.Context, mint string) error {
	trader := r.traders[r.rng.Intn(len(r.traders))]
	held, err := r.p.Balance(ctx, trader, mint)
	if err != nil {
		return err
	}

	params := swap.SwapParams{Mint: mint, Trader: trader, Direction: domain.QuoteToToken}
	if held > 1 && r.rng.Intn(100) < 40 {
		params.Direction = domain.TokenToQuote
		params.AmountIn = held / 2
	} else {
		params.AmountIn = 1 + uint64(r.rng.Int63n(int64(r.sc.MaxBuy)))
	}

	res, err := r.p.Trade(ctx, params)
	if err != nil {
		switch fault.KindOf(err) {
		case fault.KindEconomic, fault.KindValidation:
			r.result.FailedTrades++
			return nil
		}
		return err
	}
	r.result.Trades++
	r.result.Volume += res.QuoteVolume()
	r.trades[trader]++
	if r.early == "" && res.Direction.IsBuy() {
		r.early = trader
	}
	return nil
}

func (r *run) sweep(ctx context.Context) error {
	deadline := r.sc.Start + int64(r.p.Lifecycle().Rules().MinAge/time.Second) + 1
	if r.now < deadline {
		r.now = deadline
	}

	report, err := r.p.Sweep(ctx)
	if err != nil {
		return err
	}
	if len(report.Failed) > 0 {
		mints := make([]string, 0, len(report.Failed))
		for mint := range report.Failed {
			mints = append(mints, mint)
		}
		sort.Strings(mints)
		return fmt.Errorf("%s: %w", mints[0], report.Failed[mints[0]])
	}
	r.result.Liquidated = report.Liquidated

	for _, res := range report.Liquidations {
		r.result.HolderPools += res.HolderPool
		r.result.HolderTokenPools += res.HolderTokenPool
		r.result.PlatformFee += res.PlatformFee
		if err := r.claimHolders(ctx, res.Mint); err != nil {
			return fmt.Errorf("claim %s: %w", res.Mint, err)
		}
	}
	return nil
}

// claimHolders pays every trader holding mint at death its share of the
// holder pool, using the traders' combined holdings as the supply.
func (r *run) claimHolders(ctx context.Context, mint string) error {
	holdings := make(map[string]uint64)
	var supply uint64
	for _, trader := range r.traders {
		bal, err := r.p.Balance(ctx, trader, mint)
		if err != nil {
			return err
		}
		if bal > 0 {
			holdings[trader] = bal
			supply += bal
		}
	}

	for _, trader := range r.traders {
		bal, ok := holdings[trader]
		if !ok {
			continue
		}
		claim, err := r.p.Custody().ClaimHolderShare(ctx, mint, trader, bal, supply)
		if errors.Is(err, claims.ErrShareTooSmall) {
			r.result.SkippedClaims++
			continue
		}
		if err != nil {
			return err
		}
		r.result.Claims++
		r.result.Claimed += claim.QuoteAmount()
		r.result.TokenClaimed += claim.TokenAmount()
		if claim.Token != nil {
			r.result.TokenClaims++
		}
	}
	return nil
}

// prize funds the day's prize pool from the treasury and pays the most
// active trader and the first buyer.
func (r *run) prize(ctx context.Context) error {
	funds, err := r.p.Balance(ctx, treasury, domain.QuoteAsset)
	if err != nil {
		return err
	}
	amount := funds * r.sc.PrizeFraction / 100
	if amount == 0 || len(r.trades) == 0 {
		return nil
	}

	svc := r.p.Claims()
	addr, err := svc.Open(ctx, domain.DistributionPrize, claims.DayScope(r.now), domain.QuoteAsset)
	if err != nil {
		return err
	}
	if _, err := svc.Fund(ctx, addr, treasury, amount); err != nil {
		return err
	}
	r.result.PrizePool = addr
	r.result.PrizeFunded = amount

	winners := []struct {
		category domain.PrizeCategory
		wallet   string
		metric   uint64
	}{
		{domain.CategoryMostTraded, r.mostTraded(), uint64(r.trades[r.mostTraded()])},
		{domain.CategoryEarlyBuyer, r.early, 1},
	}
	for _, w := range winners {
		if w.wallet == "" {
			continue
		}
		if _, err := svc.RecordWinner(ctx, addr, w.category, w.wallet, w.metric); err != nil {
			return err
		}
		r.result.PrizeWinners[w.category.String()] = w.wallet
	}
	if _, err := svc.Seal(ctx, addr); err != nil {
		return err
	}

	paid := make(map[string]bool)
	for _, w := range winners {
		if w.wallet == "" || paid[w.wallet] {
			continue
		}
		rec, err := svc.ClaimPrize(ctx, addr, w.wallet)
		if err != nil {
			return err
		}
		paid[w.wallet] = true
		r.result.PrizePaid += rec.Amount
	}
	return nil
}

// mostTraded returns the trader with the most successful trades; ties go
// to the lowest name.
func (r *run) mostTraded() string {
	names := make([]string, 0, len(r.trades))
	for name := range r.trades {
		names = append(names, name)
	}
	sort.Strings(names)
	best := ""
	for _, name := range names {
		if best == "" || r.trades[name] > r.trades[best] {
			best = name
		}
	}
	return best
}
