package ledger

import (
	"context"
	"sort"
	"testing"

	"launchpad-ledger/internal/domain"
)

func TestRunner_Scans(t *testing.T) {
	r := newTestRunner(nil)
	ctx := context.Background()

	var distAddr string
	err := r.Run(ctx, "seed", func(a *Accounts) error {
		for _, mint := range []string{"mint-b", "mint-a", "mint-c"} {
			if err := a.InsertPool(ctx, &domain.SwapPool{Mint: mint, Active: true}); err != nil {
				return err
			}
			if err := a.InsertTracker(ctx, &domain.LifecycleTracker{Mint: mint, Status: domain.StatusActive}); err != nil {
				return err
			}
		}
		var err error
		distAddr, err = a.InsertDistribution(ctx, &domain.Distribution{Kind: domain.DistributionHolder, Scope: "s", Asset: domain.QuoteAsset})
		return err
	})
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	pools, err := r.Pools(ctx)
	if err != nil {
		t.Fatalf("Pools failed: %v", err)
	}
	trackers, err := r.Trackers(ctx)
	if err != nil {
		t.Fatalf("Trackers failed: %v", err)
	}
	var poolMints, trackerMints []string
	for _, p := range pools {
		poolMints = append(poolMints, p.Mint)
	}
	for _, tr := range trackers {
		trackerMints = append(trackerMints, tr.Mint)
	}
	sort.Strings(poolMints)
	sort.Strings(trackerMints)
	want := []string{"mint-a", "mint-b", "mint-c"}
	for i := range want {
		if i >= len(poolMints) || poolMints[i] != want[i] {
			t.Fatalf("Pools = %v, want %v", poolMints, want)
		}
		if i >= len(trackerMints) || trackerMints[i] != want[i] {
			t.Fatalf("Trackers = %v, want %v", trackerMints, want)
		}
	}

	dists, err := r.Distributions(ctx)
	if err != nil {
		t.Fatalf("Distributions failed: %v", err)
	}
	if len(dists) != 1 || dists[distAddr] == nil {
		t.Fatalf("Distributions = %v, want one at %s", dists, distAddr)
	}
	if dists[distAddr].Kind != domain.DistributionHolder {
		t.Errorf("Kind = %v, want holder", dists[distAddr].Kind)
	}
}
