package platform

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launchpad-ledger/internal/custody"
	"launchpad-ledger/internal/domain"
	"launchpad-ledger/internal/events"
	"launchpad-ledger/internal/idhash"
	"launchpad-ledger/internal/ledger"
	"launchpad-ledger/internal/lifecycle"
	"launchpad-ledger/internal/storage/memory"
	"launchpad-ledger/internal/swap"
)

const (
	testMint      = "TokenMint111"
	testCreator   = "Creator111"
	testTrader    = "Trader111"
	testTreasury  = "Treasury111"
	testAuthority = "Platform111"
	launchTime    = int64(1_700_000_000)
)

type testEnv struct {
	mu  sync.Mutex
	now int64

	recorder *events.Recorder
	p        *Platform
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	e := &testEnv{now: launchTime, recorder: &events.Recorder{}}
	runner := ledger.NewRunner(ledger.Options{
		Ledger:    memory.NewLedger(),
		Publisher: events.NewBus(nil, e.recorder),
		Clock:     e.clock,
	})
	e.p = New(Options{
		Runner:    runner,
		Authority: testAuthority,
		Treasury:  testTreasury,
	})
	return e
}

func (e *testEnv) clock() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return time.Unix(e.now, 0)
}

func (e *testEnv) advance(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now += int64(d / time.Second)
}

func (e *testEnv) launch(t *testing.T) *Launch {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.p.Faucet(ctx, testCreator, testMint, 1_000_000))
	require.NoError(t, e.p.Faucet(ctx, testCreator, domain.QuoteAsset, 10_000_000_000))

	l, err := e.p.Launch(ctx, LaunchParams{
		Mint:        testMint,
		Creator:     testCreator,
		TokenAmount: 1_000_000,
		QuoteAmount: 10_000_000_000,
	})
	require.NoError(t, err)
	return l
}

func (e *testEnv) balance(t *testing.T, owner, asset string) uint64 {
	t.Helper()
	bal, err := e.p.Balance(context.Background(), owner, asset)
	require.NoError(t, err)
	return bal
}

func TestLaunch(t *testing.T) {
	env := newTestEnv(t)
	l := env.launch(t)

	assert.Equal(t, idhash.VaultAddress(testMint), l.Pool.CustodyAuthority)
	assert.Equal(t, testAuthority, l.Tracker.Updater)
	assert.Equal(t, uint64(100_000_000), l.Vault.TotalDeposited)
	assert.Equal(t, uint64(100_000_000), env.balance(t, idhash.VaultAddress(testMint), domain.LPAsset(testMint)))
	assert.Zero(t, env.balance(t, testCreator, domain.LPAsset(testMint)))

	mints, err := env.p.Mints(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{testMint}, mints)

	assert.Equal(t, 1, env.recorder.Count(domain.EventPoolInitialized))
	assert.Equal(t, 1, env.recorder.Count(domain.EventTrackerInitialized))
	assert.Equal(t, 1, env.recorder.Count(domain.EventDeposit))
}

func TestLaunch_IsAtomic(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.p.Faucet(ctx, testCreator, testMint, 1_000_000))

	_, err := env.p.Launch(ctx, LaunchParams{
		Mint: testMint, Creator: testCreator, TokenAmount: 1_000_000, QuoteAmount: 1,
	})
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	mints, err := env.p.Mints(ctx)
	require.NoError(t, err)
	assert.Empty(t, mints, "failed launch must not leave a tracker")
	_, err = env.p.Custody().Vault(ctx, testMint)
	assert.ErrorIs(t, err, custody.ErrVaultNotFound)
	assert.Zero(t, env.recorder.Count(domain.EventTrackerInitialized))
}

func TestTrade_ReportsStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.launch(t)
	require.NoError(t, env.p.Faucet(ctx, testTrader, domain.QuoteAsset, 100_000))

	env.advance(time.Minute)
	res, err := env.p.Trade(ctx, swap.SwapParams{
		Mint: testMint, Trader: testTrader, AmountIn: 100_000, Direction: domain.QuoteToToken,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(9), res.AmountOut)

	tr, err := env.p.Lifecycle().Tracker(ctx, testMint)
	require.NoError(t, err)
	assert.Equal(t, uint64(100_000), tr.VolumeWindow)
	assert.Equal(t, res.PriceAfter, tr.CurrentPrice)
	assert.Equal(t, launchTime+60, tr.LastTradeTime)

	res, err = env.p.Trade(ctx, swap.SwapParams{
		Mint: testMint, Trader: testTrader, AmountIn: 9, Direction: domain.TokenToQuote,
	})
	require.NoError(t, err)

	tr, _ = env.p.Lifecycle().Tracker(ctx, testMint)
	assert.Equal(t, 100_000+res.AmountOut, tr.VolumeWindow)
}

func TestTrade_FailedSwapReportsNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.launch(t)
	require.NoError(t, env.p.Faucet(ctx, testTrader, domain.QuoteAsset, 100_000))

	_, err := env.p.Trade(ctx, swap.SwapParams{
		Mint: testMint, Trader: testTrader, AmountIn: 100_000, MinAmountOut: 10, Direction: domain.QuoteToToken,
	})
	assert.ErrorIs(t, err, swap.ErrSlippageExceeded)

	tr, _ := env.p.Lifecycle().Tracker(ctx, testMint)
	assert.Zero(t, tr.VolumeWindow)
}

func TestTrade_DeadToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.launch(t)
	require.NoError(t, env.p.Faucet(ctx, testTrader, domain.QuoteAsset, 100_000))
	require.NoError(t, env.p.Faucet(ctx, testTrader, testMint, 1_000))

	env.advance(lifecycle.DefaultMinAge)
	status, err := env.p.Lifecycle().CheckAndFlagDead(ctx, testMint)
	require.NoError(t, err)
	require.Equal(t, domain.StatusDead, status)

	_, err = env.p.Trade(ctx, swap.SwapParams{
		Mint: testMint, Trader: testTrader, AmountIn: 100_000, Direction: domain.QuoteToToken,
	})
	assert.ErrorIs(t, err, lifecycle.ErrBuysDisabledForDeadToken)

	// Sells still go through and are not reported.
	_, err = env.p.Trade(ctx, swap.SwapParams{
		Mint: testMint, Trader: testTrader, AmountIn: 1_000, Direction: domain.TokenToQuote,
	})
	require.NoError(t, err)
	tr, _ := env.p.Lifecycle().Tracker(ctx, testMint)
	assert.Zero(t, tr.VolumeWindow)
}

func TestSweep_LiquidatesDeadTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.launch(t)

	report, err := env.p.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Checked)
	assert.Zero(t, report.Transitions)
	assert.Empty(t, report.Liquidated)

	env.advance(lifecycle.DefaultMinAge + time.Second)
	report, err = env.p.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Transitions)
	assert.Equal(t, []string{testMint}, report.Liquidated)
	require.Len(t, report.Liquidations, 1)
	assert.Equal(t, uint64(8_000_000_000), report.Liquidations[0].HolderPool)
	assert.Empty(t, report.Failed)

	v, err := env.p.Custody().Vault(ctx, testMint)
	require.NoError(t, err)
	assert.True(t, v.Liquidated)
	assert.Equal(t, uint64(8_000_000_000), v.ClaimablePool)
	assert.Equal(t, uint64(2_000_000_000), env.balance(t, testTreasury, domain.QuoteAsset))

	// Sweeping again neither transitions nor liquidates twice.
	report, err = env.p.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Transitions)
	assert.Empty(t, report.Liquidated)
	assert.Equal(t, 1, env.recorder.Count(domain.EventLiquidation))

	claim, err := env.p.Custody().ClaimHolderShare(ctx, testMint, "holder", 250_000, 1_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(2_000_000_000), claim.QuoteAmount())
	assert.Equal(t, uint64(200_000), claim.TokenAmount())
}

func TestSweep_Warning(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.launch(t)

	env.advance(2 * 24 * time.Hour)
	report, err := env.p.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Transitions)
	assert.Empty(t, report.Liquidated)

	status, err := env.p.Lifecycle().CheckAndFlagDead(ctx, testMint)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusWarning, status)
}

func TestSweep_Cancelled(t *testing.T) {
	env := newTestEnv(t)
	env.launch(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := env.p.Sweep(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
