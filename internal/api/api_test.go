package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launchpad-ledger/internal/domain"
	"launchpad-ledger/internal/events"
	"launchpad-ledger/internal/ledger"
	"launchpad-ledger/internal/lifecycle"
	"launchpad-ledger/internal/platform"
	"launchpad-ledger/internal/storage/memory"
)

const (
	testMint     = "TokenMint111"
	testCreator  = "Creator111"
	testTrader   = "Trader111"
	testTreasury = "Treasury111"
	launchTime   = int64(1_700_000_000)
)

type testEnv struct {
	mu  sync.Mutex
	now int64

	router *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	e := &testEnv{now: launchTime}
	journal := memory.NewEventJournal()
	runner := ledger.NewRunner(ledger.Options{
		Ledger:    memory.NewLedger(),
		Publisher: events.NewBus(nil, events.NewJournalSink(journal)),
		Clock:     e.clock,
	})
	p := platform.New(platform.Options{
		Runner:    runner,
		Authority: "Platform111",
		Treasury:  testTreasury,
	})
	e.router = NewRouter(Options{
		Platform:     p,
		Journal:      journal,
		EnableFaucet: true,
		Status:       func() interface{} { return gin.H{"backend": "memory"} },
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

// do sends a request and decodes the envelope's result into out when set.
func (e *testEnv) do(t *testing.T, method, path string, body interface{}, out interface{}) (int, string) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var resp struct {
		Result jsoniter.RawMessage `json:"result"`
		Error  *string             `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	if resp.Error != nil {
		return w.Code, *resp.Error
	}
	if out != nil {
		require.NoError(t, json.Unmarshal(resp.Result, out))
	}
	return w.Code, ""
}

func (e *testEnv) faucet(t *testing.T, owner, asset string, amount uint64) {
	t.Helper()
	code, msg := e.do(t, http.MethodPost, "/v1/faucet", faucetRequest{Owner: owner, Asset: asset, Amount: amount}, nil)
	require.Equal(t, http.StatusOK, code, msg)
}

func (e *testEnv) launch(t *testing.T) {
	t.Helper()
	e.faucet(t, testCreator, testMint, 1_000_000)
	e.faucet(t, testCreator, domain.QuoteAsset, 10_000_000_000)
	code, msg := e.do(t, http.MethodPost, "/v1/launch", launchRequest{
		Mint:        testMint,
		Creator:     testCreator,
		TokenAmount: 1_000_000,
		QuoteAmount: 10_000_000_000,
	}, nil)
	require.Equal(t, http.StatusOK, code, msg)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())

	var status map[string]string
	code, _ := env.do(t, http.MethodGet, "/status", nil, &status)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "memory", status["backend"])
}

func TestLaunchAndTrade(t *testing.T) {
	env := newTestEnv(t)
	env.launch(t)

	var pool poolResponse
	code, msg := env.do(t, http.MethodGet, "/v1/pools/"+testMint, nil, &pool)
	require.Equal(t, http.StatusOK, code, msg)
	assert.Equal(t, uint64(1_000_000), pool.TokenReserve)
	assert.Equal(t, uint64(10_000_000_000), pool.QuoteReserve)
	assert.Equal(t, "10", pool.QuoteSOL)
	assert.True(t, pool.Active)

	env.faucet(t, testTrader, domain.QuoteAsset, 1_000_000_000)
	var quoted struct {
		AmountOut uint64 `json:"amount_out"`
	}
	code, msg = env.do(t, http.MethodGet, "/v1/quote?mint="+testMint+"&side=buy&amount=1000000000", nil, &quoted)
	require.Equal(t, http.StatusOK, code, msg)
	require.NotZero(t, quoted.AmountOut)

	var trade tradeResponse
	code, msg = env.do(t, http.MethodPost, "/v1/trade", tradeRequest{
		Mint:     testMint,
		Trader:   testTrader,
		Side:     "buy",
		AmountIn: 1_000_000_000,
	}, &trade)
	require.Equal(t, http.StatusOK, code, msg)
	assert.Equal(t, "buy", trade.Side)
	assert.Equal(t, quoted.AmountOut, trade.AmountOut)
	assert.Equal(t, "1", trade.QuoteVolume)

	var bal struct {
		Amount uint64 `json:"amount"`
	}
	code, _ = env.do(t, http.MethodGet, "/v1/balances/"+testTrader+"/"+testMint, nil, &bal)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, trade.AmountOut, bal.Amount)

	var tracker trackerResponse
	code, _ = env.do(t, http.MethodGet, "/v1/tokens/"+testMint, nil, &tracker)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "active", tracker.Status)
	assert.Equal(t, uint64(1_000_000_000), tracker.Volume)

	var swaps []*domain.Event
	code, msg = env.do(t, http.MethodGet, "/v1/events?kind=swap", nil, &swaps)
	require.Equal(t, http.StatusOK, code, msg)
	require.Len(t, swaps, 1)
	assert.Equal(t, testTrader, swaps[0].Actor)
}

func TestErrorStatus(t *testing.T) {
	env := newTestEnv(t)
	env.launch(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		want   int
	}{
		{"unknown pool", http.MethodGet, "/v1/pools/Nope", nil, http.StatusNotFound},
		{"unknown vault", http.MethodGet, "/v1/vaults/Nope", nil, http.StatusNotFound},
		{"bad side", http.MethodPost, "/v1/trade", tradeRequest{Mint: testMint, Trader: testTrader, Side: "hold", AmountIn: 1}, http.StatusBadRequest},
		{"zero amount", http.MethodPost, "/v1/trade", tradeRequest{Mint: testMint, Trader: testTrader, Side: "buy"}, http.StatusBadRequest},
		{"insufficient funds", http.MethodPost, "/v1/trade", tradeRequest{Mint: testMint, Trader: testTrader, Side: "buy", AmountIn: 1_000}, http.StatusUnprocessableEntity},
		{"bad quote amount", http.MethodGet, "/v1/quote?mint=" + testMint + "&side=buy&amount=x", nil, http.StatusBadRequest},
		{"liquidate active", http.MethodPost, "/v1/vaults/" + testMint + "/liquidate", nil, http.StatusConflict},
		{"unknown kind", http.MethodPost, "/v1/distributions", openDistributionRequest{Kind: "bonus", Scope: "x"}, http.StatusBadRequest},
		{"events without filter", http.MethodGet, "/v1/events", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, msg := env.do(t, tt.method, tt.path, tt.body, nil)
			assert.Equal(t, tt.want, code, msg)
			assert.NotEmpty(t, msg)
		})
	}
}

func TestMalformedBody(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/launch", strings.NewReader("{"))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSweepAndHolderClaim(t *testing.T) {
	env := newTestEnv(t)
	env.launch(t)
	env.advance(lifecycle.DefaultMinAge + time.Second)

	var report struct {
		Checked    int      `json:"checked"`
		Liquidated []string `json:"liquidated"`
	}
	code, msg := env.do(t, http.MethodPost, "/v1/sweep", nil, &report)
	require.Equal(t, http.StatusOK, code, msg)
	assert.Equal(t, 1, report.Checked)
	assert.Equal(t, []string{testMint}, report.Liquidated)

	var vault vaultResponse
	code, _ = env.do(t, http.MethodGet, "/v1/vaults/"+testMint, nil, &vault)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, vault.Liquidated)
	assert.Equal(t, uint64(8_000_000_000), vault.ClaimablePool)
	assert.Equal(t, "8", vault.ClaimableSOL)
	assert.Equal(t, uint64(800_000), vault.ClaimableTokenPool)

	claim := holderClaimRequest{Holder: "Holder111", BalanceAtDeath: 250_000, SupplyAtDeath: 1_000_000}
	var rec holderClaimResponse
	code, msg = env.do(t, http.MethodPost, "/v1/vaults/"+testMint+"/claims", claim, &rec)
	require.Equal(t, http.StatusOK, code, msg)
	assert.Equal(t, uint64(2_000_000_000), rec.Amount)
	assert.Equal(t, "2", rec.AmountSOL)
	assert.Equal(t, uint64(200_000), rec.TokenAmount)
	assert.Equal(t, vault.TokenDistribution, rec.TokenDistribution)

	code, _ = env.do(t, http.MethodPost, "/v1/vaults/"+testMint+"/claims", claim, nil)
	assert.Equal(t, http.StatusForbidden, code)

	// Buys are rejected once the token is dead.
	env.faucet(t, testTrader, domain.QuoteAsset, 1_000)
	code, _ = env.do(t, http.MethodPost, "/v1/trade", tradeRequest{Mint: testMint, Trader: testTrader, Side: "buy", AmountIn: 1_000}, nil)
	assert.Equal(t, http.StatusConflict, code)
}

func TestDistributionFlow(t *testing.T) {
	env := newTestEnv(t)
	env.faucet(t, "Funder111", domain.QuoteAsset, 1_000)

	var opened struct {
		Address string `json:"address"`
	}
	code, msg := env.do(t, http.MethodPost, "/v1/distributions", openDistributionRequest{Kind: "fee_reward", Scope: "2023-11-14"}, &opened)
	require.Equal(t, http.StatusOK, code, msg)
	require.NotEmpty(t, opened.Address)
	base := "/v1/distributions/" + opened.Address

	code, msg = env.do(t, http.MethodPost, base+"/fund", fundRequest{Funder: "Funder111", Amount: 1_000}, nil)
	require.Equal(t, http.StatusOK, code, msg)

	// Claims wait for the seal.
	code, _ = env.do(t, http.MethodPost, base+"/claims", claimRequest{Claimant: "Alice", Weight: 3, TotalWeight: 10}, nil)
	assert.Equal(t, http.StatusConflict, code)

	var dist distributionResponse
	code, msg = env.do(t, http.MethodPost, base+"/seal", nil, &dist)
	require.Equal(t, http.StatusOK, code, msg)
	assert.True(t, dist.Sealed)
	assert.Equal(t, uint64(1_000), dist.Total)

	var rec claimResponse
	code, msg = env.do(t, http.MethodPost, base+"/claims", claimRequest{Claimant: "Alice", Weight: 3, TotalWeight: 10}, &rec)
	require.Equal(t, http.StatusOK, code, msg)
	assert.Equal(t, uint64(300), rec.Amount)

	code, _ = env.do(t, http.MethodGet, base+"/claims/Alice", nil, &rec)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Alice", rec.Claimant)

	code, _ = env.do(t, http.MethodGet, base, nil, &dist)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, uint64(700), dist.Remaining)
	assert.Equal(t, uint64(1), dist.ClaimCount)
}

func TestPrizeFlow(t *testing.T) {
	env := newTestEnv(t)
	env.faucet(t, "Funder111", domain.QuoteAsset, 10_000)

	var opened struct {
		Address string `json:"address"`
	}
	code, msg := env.do(t, http.MethodPost, "/v1/distributions", openDistributionRequest{Kind: "prize", Scope: "2023-11-14"}, &opened)
	require.Equal(t, http.StatusOK, code, msg)
	base := "/v1/distributions/" + opened.Address

	code, msg = env.do(t, http.MethodPost, base+"/fund", fundRequest{Funder: "Funder111", Amount: 10_000}, nil)
	require.Equal(t, http.StatusOK, code, msg)
	code, msg = env.do(t, http.MethodPost, base+"/winners", winnerRequest{Category: "most_traded", Wallet: "Alice", Metric: 42}, nil)
	require.Equal(t, http.StatusOK, code, msg)
	code, _ = env.do(t, http.MethodPost, base+"/winners", winnerRequest{Category: "nope", Wallet: "Alice"}, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	code, msg = env.do(t, http.MethodPost, base+"/seal", nil, nil)
	require.Equal(t, http.StatusOK, code, msg)

	var rec claimResponse
	code, msg = env.do(t, http.MethodPost, base+"/prize-claims", prizeClaimRequest{Wallet: "Alice"}, &rec)
	require.Equal(t, http.StatusOK, code, msg)
	// most_traded carries 30 of 100 weight.
	assert.Equal(t, uint64(3_000), rec.Amount)

	code, _ = env.do(t, http.MethodPost, base+"/prize-claims", prizeClaimRequest{Wallet: "Bob"}, nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestFaucetDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(Options{Platform: platform.New(platform.Options{
		Runner:   ledger.NewRunner(ledger.Options{Ledger: memory.NewLedger()}),
		Treasury: testTreasury,
	})})
	req := httptest.NewRequest(http.MethodPost, "/v1/faucet", strings.NewReader("{}"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "1.5", SOL(1_500_000_000))
	assert.Equal(t, "0.000000001", SOL(1))
	assert.Equal(t, "0", SOL(0))
	assert.Equal(t, "10000", Price(10_000_000_000_000))
	assert.Equal(t, "0.5", Price(500_000_000))
}
