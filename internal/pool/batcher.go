// Package pool implements the fixed-window batching of newly available
// resources ahead of a stable match: rather than matching a resource the
// instant it appears, the kernel accumulates BECOMES_AVAILABLE resource
// events for WindowSeconds and matches the whole batch against every
// currently empty agent at once.
package pool

import "dispatchsim/internal/resource"

// WindowSeconds is the fixed pool batching window.
const WindowSeconds int64 = 30

// Batch is the buffer of resources accumulated in the currently open
// window. The window boundaries themselves are owned by the caller (the
// simulator's main loop), since the documented sequencing anomaly means
// the boundary can move for reasons other than simple elapsed time.
type Batch struct {
	resources []*resource.Resource
}

// New returns an empty batch.
func New() *Batch { return &Batch{} }

// Add appends r to the batch.
func (b *Batch) Add(r *resource.Resource) {
	b.resources = append(b.resources, r)
}

// Resources returns the resources accumulated so far, in arrival order.
func (b *Batch) Resources() []*resource.Resource {
	return b.resources
}

// Len reports how many resources are currently batched.
func (b *Batch) Len() int { return len(b.resources) }

// Reset empties the batch so it can be reused for the next window.
func (b *Batch) Reset() {
	b.resources = nil
}
