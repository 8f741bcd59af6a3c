// Command simulate runs a deterministic market scenario against an
// in-memory ledger and audits the result. It exits non-zero when the audit
// finds a divergence.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"launchpad-ledger/internal/api"
	"launchpad-ledger/internal/domain"
	"launchpad-ledger/internal/simulation"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func main() {
	sc := simulation.DefaultScenario()

	flag.Int64Var(&sc.Seed, "seed", sc.Seed, "Random seed")
	flag.IntVar(&sc.Tokens, "tokens", sc.Tokens, "Tokens to launch")
	flag.IntVar(&sc.LiveTokens, "live-tokens", sc.LiveTokens, "Tokens that keep trading for the whole run")
	flag.IntVar(&sc.FadeSteps, "fade-steps", sc.FadeSteps, "Steps the other tokens trade before going quiet")
	flag.IntVar(&sc.Traders, "traders", sc.Traders, "Trader wallets")
	flag.IntVar(&sc.Steps, "steps", sc.Steps, "Trading steps")
	flag.DurationVar(&sc.StepInterval, "step-interval", sc.StepInterval, "Simulated time per step")
	flag.IntVar(&sc.TradesPerStep, "trades-per-step", sc.TradesPerStep, "Trades per live token per step")
	flag.Uint64Var(&sc.MaxBuy, "max-buy", sc.MaxBuy, "Largest buy in lamports")
	flag.Uint64Var(&sc.PlatformCutPercent, "platform-cut-percent", sc.PlatformCutPercent, "Treasury share of liquidated liquidity")
	flag.Uint64Var(&sc.PrizeFraction, "prize-percent", sc.PrizeFraction, "Share of the treasury paid into the prize pool")
	outputJSON := flag.Bool("json", false, "Output as JSON")
	verbose := flag.Bool("verbose", false, "Log every ledger unit")
	flag.Parse()

	logger := zap.NewNop()
	if *verbose {
		var err error
		if logger, err = zap.NewDevelopment(); err != nil {
			fmt.Fprintf(os.Stderr, "logger: %v\n", err)
			os.Exit(1)
		}
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	start := time.Now()
	res, err := simulation.NewRunner(simulation.RunnerOptions{Logger: logger}).Run(ctx, sc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "simulation failed: %v\n", err)
		os.Exit(1)
	}

	if *outputJSON {
		output, _ := json.MarshalIndent(res, "", "  ")
		fmt.Println(string(output))
	} else {
		printResult(res, time.Since(start))
	}

	if !res.Audit.OK() {
		os.Exit(3)
	}
}

// printResult outputs a human-readable summary.
func printResult(r *simulation.Result, elapsed time.Duration) {
	fmt.Println()
	fmt.Println("=== Simulation Result ===")
	fmt.Printf("Launched:           %d\n", r.Launched)
	fmt.Printf("Trades:             %d (%d rejected)\n", r.Trades, r.FailedTrades)
	fmt.Printf("Volume:             %s SOL\n", api.SOL(r.Volume))
	fmt.Println()

	fmt.Println("Liquidation:")
	fmt.Printf("  Tokens:           %v\n", r.Liquidated)
	fmt.Printf("  Platform Fee:     %s SOL\n", api.SOL(r.PlatformFee))
	fmt.Printf("  Holder Pools:     %s SOL\n", api.SOL(r.HolderPools))
	fmt.Printf("  Holder Tokens:    %d\n", r.HolderTokenPools)
	fmt.Printf("  Claims:           %d (%d too small)\n", r.Claims, r.SkippedClaims)
	fmt.Printf("  Claimed:          %s SOL, %d tokens\n", api.SOL(r.Claimed), r.TokenClaimed)
	fmt.Println()

	if r.PrizePool != "" {
		fmt.Println("Prize Pool:")
		fmt.Printf("  Address:          %s\n", r.PrizePool)
		fmt.Printf("  Funded:           %s SOL\n", api.SOL(r.PrizeFunded))
		fmt.Printf("  Paid:             %s SOL\n", api.SOL(r.PrizePaid))
		categories := make([]string, 0, len(r.PrizeWinners))
		for c := range r.PrizeWinners {
			categories = append(categories, c)
		}
		sort.Strings(categories)
		for _, c := range categories {
			fmt.Printf("  %-18s%s\n", c+":", r.PrizeWinners[c])
		}
		fmt.Println()
	}

	fmt.Println("Events:")
	kinds := make([]string, 0, len(r.Events))
	for k := range r.Events {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Printf("  %-18s%d\n", k+":", r.Events[domain.EventKind(k)])
	}
	fmt.Println()

	fmt.Println("Audit:")
	fmt.Printf("  Pools:            %d\n", r.Audit.Pools)
	fmt.Printf("  Vaults:           %d\n", r.Audit.Vaults)
	fmt.Printf("  Distributions:    %d\n", r.Audit.Distributions)
	fmt.Printf("  Balances:         %d\n", r.Audit.Balances)
	if r.Audit.OK() {
		fmt.Println("  Result:           OK")
	} else {
		fmt.Printf("  Result:           %d divergences\n", len(r.Audit.Divergences))
		for _, d := range r.Audit.Divergences {
			fmt.Printf("    %s\n", d)
		}
	}
	fmt.Printf("\nCompleted in %v\n", elapsed.Round(time.Millisecond))
}
