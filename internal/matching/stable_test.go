package matching

import (
	"testing"

	"dispatchsim/internal/ids"
)

// TestDeferredAcceptanceS5 reproduces the stable-matching scenario from the
// testable-properties appendix: two agents, two resources, with benefit
// (resource-side preference) and reach (agent-side preference) fixed to
// specific values, and checks the result has no blocking pair.
func TestDeferredAcceptanceS5(t *testing.T) {
	benefit := map[ids.ResourceID]map[ids.AgentID]float64{
		"r1": {"a1": 0.9, "a2": 0.8},
		"r2": {"a1": 0.1, "a2": 0.2},
	}
	reach := map[ids.AgentID]map[ids.ResourceID]int64{
		"a1": {"r1": 100, "r2": 10},
		"a2": {"r1": 50, "r2": 200},
	}

	agentPref := map[ids.AgentID][]ids.ResourceID{
		"a1": {"r2", "r1"}, // a1 prefers r2 (reach 10) over r1 (reach 100)
		"a2": {"r1", "r2"}, // a2 prefers r1 (reach 50) over r2 (reach 200)
	}
	resourcePref := map[ids.ResourceID][]ids.AgentID{
		"r1": {"a1", "a2"}, // r1 prefers a1 (benefit 0.9) over a2 (benefit 0.8)
		"r2": {"a2", "a1"}, // r2 prefers a2 (benefit 0.2) over a1 (benefit 0.1)
	}

	holder := deferredAcceptance(
		[]ids.AgentID{"a1", "a2"}, agentPref, resourcePref,
		func(r ids.ResourceID, a ids.AgentID) float64 { return benefit[r][a] },
	)

	if len(holder) != 2 {
		t.Fatalf("expected both resources matched, got %d", len(holder))
	}

	matchedResourceOf := make(map[ids.AgentID]ids.ResourceID, len(holder))
	for r, a := range holder {
		matchedResourceOf[a] = r
	}

	// A blocking pair (a, r) exists if a prefers r over its match AND r
	// prefers a over its match. Check every off-diagonal combination.
	agents := []ids.AgentID{"a1", "a2"}
	resources := []ids.ResourceID{"r1", "r2"}
	for _, a := range agents {
		matchedR := matchedResourceOf[a]
		for _, r := range resources {
			if r == matchedR {
				continue
			}
			aPrefersR := reach[a][r] < reach[a][matchedR]
			matchedA := holder[r]
			rPrefersA := benefit[r][a] > benefit[r][matchedA]
			if aPrefersR && rPrefersA {
				t.Errorf("blocking pair found: agent %s and resource %s both prefer each other over their match", a, r)
			}
		}
	}
}

func TestDeferredAcceptanceEverySideMatchedWhenCountsEqual(t *testing.T) {
	proposerPref := map[ids.AgentID][]ids.ResourceID{
		"a1": {"r1", "r2"},
		"a2": {"r1", "r2"},
	}
	receiverPref := map[ids.ResourceID][]ids.AgentID{
		"r1": {"a1", "a2"},
		"r2": {"a2", "a1"},
	}
	score := map[ids.ResourceID]map[ids.AgentID]float64{
		"r1": {"a1": 1, "a2": 0},
		"r2": {"a1": 0, "a2": 1},
	}

	holder := deferredAcceptance(
		[]ids.AgentID{"a1", "a2"}, proposerPref, receiverPref,
		func(r ids.ResourceID, a ids.AgentID) float64 { return score[r][a] },
	)

	if len(holder) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(holder))
	}
	if holder["r1"] != "a1" || holder["r2"] != "a2" {
		t.Errorf("expected r1->a1 r2->a2 (top choices all around), got %+v", holder)
	}
}
