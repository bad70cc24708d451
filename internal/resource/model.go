// Package resource holds per-trip-request state and the ordered set of
// resources currently waiting to be matched.
package resource

import (
	"dispatchsim/internal/citymap"
	"dispatchsim/internal/ids"
	"dispatchsim/internal/orderedset"
)

// Cause tags why a resource event fired, mirroring the lifecycle a
// resource moves through: it becomes available, and is then either picked
// up or expires unmatched.
type Cause string

const (
	CauseBecomesAvailable Cause = "becomes_available"
	CauseExpired          Cause = "expired"
	CausePickedUp         Cause = "picked_up"
)

// Resource is a trip request: a pickup, a dropoff, and a deadline by which
// it must be matched or it expires.
type Resource struct {
	ID             ids.ResourceID
	Pickup         citymap.LocationOnRoad
	Dropoff        citymap.LocationOnRoad
	AvailableTime  int64
	TripTime       int64
	ExpirationTime int64
	Cause          Cause
	NextEventID    uint64
}

// WaitingSet is the ordered set of resources that have arrived, are
// unmatched, and have not yet expired, keyed by resource id.
type WaitingSet struct {
	set *orderedset.Set[ids.ResourceID, *Resource]
}

// NewWaitingSet creates an empty WaitingSet.
func NewWaitingSet() *WaitingSet {
	return &WaitingSet{set: orderedset.New[ids.ResourceID, *Resource]()}
}

func (s *WaitingSet) Insert(r *Resource) { s.set.Put(r.ID, r) }
func (s *WaitingSet) Remove(id ids.ResourceID) { s.set.Remove(id) }
func (s *WaitingSet) Has(id ids.ResourceID) bool { return s.set.Has(id) }
func (s *WaitingSet) Get(id ids.ResourceID) (*Resource, bool) { return s.set.Get(id) }
func (s *WaitingSet) Len() int { return s.set.Len() }

// Snapshot returns the waiting resources in ascending id order.
func (s *WaitingSet) Snapshot() []*Resource {
	out := make([]*Resource, 0, s.set.Len())
	s.set.Each(func(_ ids.ResourceID, r *Resource) { out = append(out, r) })
	return out
}
