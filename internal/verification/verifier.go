// Package verification audits a ledger for conservation: every pool,
// vault and distribution must be backed by the balances it claims to hold,
// and asset supplies must match what was minted.
package verification

import (
	"context"
	"fmt"
	"sort"

	"launchpad-ledger/internal/domain"
	"launchpad-ledger/internal/idhash"
	"launchpad-ledger/internal/ledger"
	"launchpad-ledger/internal/wide"
)

// Divergence is one mismatch between a record and the balances backing it.
type Divergence struct {
	Subject  string // mint, distribution address or asset
	Field    string
	Expected uint64
	Actual   uint64
}

func (d Divergence) String() string {
	return fmt.Sprintf("%s %s: expected %d, got %d", d.Subject, d.Field, d.Expected, d.Actual)
}

// Report is the result of one audit.
type Report struct {
	Pools         int
	Vaults        int
	Distributions int
	Balances      int
	Divergences   []Divergence
}

// OK reports whether the audit found no divergence.
func (r *Report) OK() bool { return len(r.Divergences) == 0 }

func (r *Report) expect(subject, field string, expected, actual uint64) {
	if expected != actual {
		r.Divergences = append(r.Divergences, Divergence{
			Subject:  subject,
			Field:    field,
			Expected: expected,
			Actual:   actual,
		})
	}
}

type balanceKey struct {
	owner string
	asset string
}

// Verifier audits the ledger behind a runner.
type Verifier struct {
	runner *ledger.Runner
}

// New creates a Verifier.
func New(runner *ledger.Runner) *Verifier {
	return &Verifier{runner: runner}
}

// Verify audits pools, vaults and distributions. supplies maps an asset to
// its expected circulating amount; assets not listed are not summed.
func (v *Verifier) Verify(ctx context.Context, supplies map[string]uint64) (*Report, error) {
	balances, err := v.runner.Balances(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan balances: %w", err)
	}
	held := make(map[balanceKey]uint64, len(balances))
	totals := make(map[string]uint64)
	for _, b := range balances {
		held[balanceKey{b.Owner, b.Asset}] = b.Amount
		if totals[b.Asset], err = wide.Add(totals[b.Asset], b.Amount); err != nil {
			return nil, fmt.Errorf("sum %s: %w", b.Asset, err)
		}
	}

	report := &Report{Balances: len(balances)}

	pools, err := v.runner.Pools(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan pools: %w", err)
	}
	for _, p := range pools {
		custody := idhash.PoolAddress(p.Mint)
		report.expect(p.Mint, "token_reserve", p.TokenReserve, held[balanceKey{custody, p.Mint}])
		report.expect(p.Mint, "quote_reserve", p.QuoteReserve, held[balanceKey{custody, domain.QuoteAsset}])
		report.expect(p.Mint, "lp_supply", p.LPSupply, totals[domain.LPAsset(p.Mint)])
	}
	report.Pools = len(pools)

	dists, err := v.runner.Distributions(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan distributions: %w", err)
	}
	claims, err := v.runner.Claims(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan claims: %w", err)
	}
	claimed := make(map[string]uint64)
	counts := make(map[string]uint64)
	for _, c := range claims {
		claimed[c.Distribution] += c.Amount
		counts[c.Distribution]++
	}
	addresses := make([]string, 0, len(dists))
	for addr := range dists {
		addresses = append(addresses, addr)
	}
	sort.Strings(addresses)
	for _, addr := range addresses {
		d := dists[addr]
		if d.Claimed > d.Total {
			report.expect(addr, "claimed", d.Total, d.Claimed)
			continue
		}
		report.expect(addr, "remaining", d.Remaining(), held[balanceKey{addr, d.Asset}])
		report.expect(addr, "claimed", d.Claimed, claimed[addr])
		report.expect(addr, "claim_count", d.ClaimCount, counts[addr])
	}
	report.Distributions = len(dists)

	vaults, err := v.runner.Vaults(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan vaults: %w", err)
	}
	for _, vault := range vaults {
		lp := held[balanceKey{idhash.VaultAddress(vault.Mint), domain.LPAsset(vault.Mint)}]
		if !vault.Liquidated {
			report.expect(vault.Mint, "vault_lp", vault.TotalDeposited, lp)
			continue
		}
		report.expect(vault.Mint, "vault_lp", 0, lp)
		d, ok := dists[vault.Distribution]
		if !ok {
			report.expect(vault.Mint, "distribution", 1, 0)
			continue
		}
		report.expect(vault.Mint, "claimable_pool", d.Remaining(), vault.ClaimablePool)
		report.expect(vault.Mint, "total_claimed", d.Claimed, vault.TotalClaimed)
		report.expect(vault.Mint, "claim_count", d.ClaimCount, vault.ClaimCount)

		if vault.TokenDistribution == "" {
			report.expect(vault.Mint, "token_pool", 0, vault.TokenPoolAtLiquidation)
			continue
		}
		td, ok := dists[vault.TokenDistribution]
		if !ok {
			report.expect(vault.Mint, "token_distribution", 1, 0)
			continue
		}
		report.expect(vault.Mint, "claimable_token_pool", td.Remaining(), vault.ClaimableTokenPool)
		report.expect(vault.Mint, "total_token_claimed", td.Claimed, vault.TotalTokenClaimed)
	}
	report.Vaults = len(vaults)

	assets := make([]string, 0, len(supplies))
	for asset := range supplies {
		assets = append(assets, asset)
	}
	sort.Strings(assets)
	for _, asset := range assets {
		report.expect(asset, "supply", supplies[asset], totals[asset])
	}
	return report, nil
}
