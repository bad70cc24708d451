package matching

import (
	"sort"

	"dispatchsim/internal/agent"
	"dispatchsim/internal/citymap"
	"dispatchsim/internal/ids"
	"dispatchsim/internal/resource"
)

// pairKey holds the precomputed benefit and reach for one (agent,
// resource) combination, the two quantities the preference orders are
// built from.
type pairKey struct {
	benefit float64
	reach   int64
}

// Match runs deferred-acceptance stable matching between the agents
// snapshotted at pool close and the resources batched during the window.
// The shorter side proposes, which guarantees |M| = min(len(agents),
// len(pooled)) and that the result is stable against blocking pairs under
// the preferences defined by benefit (resource side) and reach time
// (agent side).
func Match(m *citymap.Map, pooled []*resource.Resource, agents []*agent.Agent) Result {
	if len(pooled) == 0 || len(agents) == 0 {
		return Result{Unmatched: pooled}
	}

	pairs := make(map[ids.ResourceID]map[ids.AgentID]pairKey, len(pooled))
	tripDist := make(map[ids.ResourceID]float64, len(pooled))
	for _, r := range pooled {
		tripDist[r.ID] = m.Oracle.GreatCircleDistance(m.Coordinate(r.Pickup), m.Coordinate(r.Dropoff))
		pairs[r.ID] = make(map[ids.AgentID]pairKey, len(agents))
	}
	for _, a := range agents {
		for _, r := range pooled {
			pairs[r.ID][a.ID] = pairKey{
				benefit: benefit(m, a.Loc, r, tripDist[r.ID]),
				reach:   reachTime(m, a.Loc, r),
			}
		}
	}

	resourcePref := make(map[ids.ResourceID][]ids.AgentID, len(pooled))
	for _, r := range pooled {
		order := make([]ids.AgentID, len(agents))
		for i, a := range agents {
			order[i] = a.ID
		}
		rid := r.ID
		sort.SliceStable(order, func(i, j int) bool {
			pi, pj := pairs[rid][order[i]], pairs[rid][order[j]]
			if pi.benefit != pj.benefit {
				return pi.benefit > pj.benefit
			}
			return order[i] < order[j] // lexicographic; see ids.AgentID/ResourceID
		})
		resourcePref[r.ID] = order
	}

	agentPref := make(map[ids.AgentID][]ids.ResourceID, len(agents))
	for _, a := range agents {
		order := make([]ids.ResourceID, len(pooled))
		for i, r := range pooled {
			order[i] = r.ID
		}
		aid := a.ID
		sort.SliceStable(order, func(i, j int) bool {
			pi, pj := pairs[order[i]][aid], pairs[order[j]][aid]
			if pi.reach != pj.reach {
				return pi.reach < pj.reach
			}
			return order[i] < order[j] // lexicographic; see ids.AgentID/ResourceID
		})
		agentPref[a.ID] = order
	}

	agentByID := make(map[ids.AgentID]*agent.Agent, len(agents))
	for _, a := range agents {
		agentByID[a.ID] = a
	}
	resourceByID := make(map[ids.ResourceID]*resource.Resource, len(pooled))
	for _, r := range pooled {
		resourceByID[r.ID] = r
	}

	var holderOfResource map[ids.ResourceID]ids.AgentID
	var holderOfAgent map[ids.AgentID]ids.ResourceID

	if len(agents) <= len(pooled) {
		holderOfResource = deferredAcceptance(
			agentIDsOf(agents), agentPref, resourcePref,
			func(r ids.ResourceID, a ids.AgentID) float64 { return pairs[r][a].benefit },
		)
	} else {
		holderOfAgent = deferredAcceptance(
			resourceIDsOf(pooled), resourcePref, agentPref,
			func(a ids.AgentID, r ids.ResourceID) float64 { return -float64(pairs[r][a].reach) },
		)
		holderOfResource = make(map[ids.ResourceID]ids.AgentID, len(holderOfAgent))
		for a, r := range holderOfAgent {
			holderOfResource[r] = a
		}
	}

	var result Result
	matchedResources := make(map[ids.ResourceID]bool, len(holderOfResource))
	for rid, aid := range holderOfResource {
		pk := pairs[rid][aid]
		result.Pairs = append(result.Pairs, Pair{
			Agent:    agentByID[aid],
			Resource: resourceByID[rid],
			Benefit:  pk.benefit,
			Reach:    pk.reach,
		})
		result.PoolBenefit += pk.benefit
		matchedResources[rid] = true
	}
	for _, r := range pooled {
		if !matchedResources[r.ID] {
			result.Unmatched = append(result.Unmatched, r)
		}
	}
	sort.Slice(result.Pairs, func(i, j int) bool { return result.Pairs[i].Resource.ID < result.Pairs[j].Resource.ID })
	return result
}

func agentIDsOf(agents []*agent.Agent) []ids.AgentID {
	out := make([]ids.AgentID, len(agents))
	for i, a := range agents {
		out[i] = a.ID
	}
	return out
}

func resourceIDsOf(resources []*resource.Resource) []ids.ResourceID {
	out := make([]ids.ResourceID, len(resources))
	for i, r := range resources {
		out[i] = r.ID
	}
	return out
}

// deferredAcceptance runs the generic Gale-Shapley proposal loop for the
// side identified by P (the proposers, type P) against receivers of type
// Rc. proposerPref[p] lists every receiver in p's preference order;
// receiverPref[rc] lists every proposer in rc's preference order (used
// only to rank candidates, via score). score(rc, p) must agree with
// receiverPref's ordering: higher score means rc prefers p more.
//
// Returns, keyed by receiver, the proposer it ends up holding. Every
// proposer ends up matched since every receiver's preference list is
// total over all proposers and len(proposers) <= len(receivers's
// preference lists) by construction of the two call sites above.
func deferredAcceptance[P comparable, Rc comparable](
	proposers []P,
	proposerPref map[P][]Rc,
	receiverPref map[Rc][]P,
	score func(rc Rc, p P) float64,
) map[Rc]P {
	holder := make(map[Rc]P, len(receiverPref))
	nextIdx := make(map[P]int, len(proposers))
	free := make([]P, len(proposers))
	copy(free, proposers)

	for len(free) > 0 {
		p := free[0]
		free = free[1:]

		pref := proposerPref[p]
		idx := nextIdx[p]
		if idx >= len(pref) {
			continue // exhausted every candidate; leaves this proposer unmatched
		}
		rc := pref[idx]
		nextIdx[p] = idx + 1

		cur, held := holder[rc]
		if !held {
			holder[rc] = p
			continue
		}
		if score(rc, p) > score(rc, cur) {
			holder[rc] = p
			free = append(free, cur)
		} else {
			free = append(free, p)
		}
	}
	return holder
}
