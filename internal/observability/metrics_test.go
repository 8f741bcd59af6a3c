package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

// counterValue gathers reg and returns the value of the named counter with
// the given label value, or -1 if absent.
func counterValue(t *testing.T, reg *prometheus.Registry, name, labelValue string) float64 {
	t.Helper()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetValue() == labelValue {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return -1
}

func TestNewMetrics_CustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)

	m.SwapsTotal.WithLabelValues("buy").Inc()
	m.SwapsTotal.WithLabelValues("buy").Inc()
	m.ClaimedAmount.WithLabelValues("holder").Add(300)

	if got := counterValue(t, reg, "test_swap_swaps_total", "buy"); got != 2 {
		t.Errorf("swaps_total{side=buy} = %v, want 2", got)
	}
	if got := counterValue(t, reg, "test_claims_claimed_amount_total", "holder"); got != 300 {
		t.Errorf("claimed_amount_total{kind=holder} = %v, want 300", got)
	}
}

func TestNewMetrics_DefaultNamespace(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("", reg)
	m.ClaimsTotal.WithLabelValues("prize").Inc()

	if got := counterValue(t, reg, "launchpad_ledger_claims_claims_total", "prize"); got != 1 {
		t.Errorf("claims_total{kind=prize} = %v, want 1", got)
	}
}

func TestRecordHelpers_DoNotPanic(t *testing.T) {
	RecordUnit("test_op", 0.01, "")
	RecordUnit("test_op", 0.01, "state")
	RecordSwap("buy", 100000)
	RecordLiquidityChange("add")
	RecordPoolDisabled()
	RecordStatusTransition("active", "dead")
	UpdateTrackedTokens(map[string]int{"active": 2, "dead": 1})
	RecordLiquidation(1000, 200, 800)
	RecordClaim("liquidation", 300)
	RecordEventPublished("swap")
	RecordEventDropped("websocket")
	SetWSClients(3)
	RecordSweep(1700000000)
}
