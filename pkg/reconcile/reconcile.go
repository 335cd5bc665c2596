// Package reconcile provides keyed reconciliation of a live set of render
// handles against a target collection.
//
// A [Keyed] remembers which handle was created for which key. [Sync] computes
// the symmetric difference between those keys and the keys of the target
// collection and calls back into the caller:
//
//   - Exit for every key that is no longer present (release resources)
//   - Enter for every key that is new (construct and initialize)
//   - Update for every key that is retained (refresh in place)
//
// A handle is never recreated while its key persists, so callers can rely on
// identity being stable across passes. Keys are visited in ascending order to
// keep output deterministic, but callers must not depend on any ordering
// between keys.
package reconcile

import (
	"cmp"
	"maps"
	"slices"
)

// Stats summarizes one reconciliation pass.
type Stats struct {
	Created  int `json:"created"`
	Retained int `json:"retained"`
	Removed  int `json:"removed"`
	Skipped  int `json:"skipped,omitempty"` // entries Enter declined to create
}

// Changed reports whether the pass created or removed anything.
func (s Stats) Changed() bool { return s.Created > 0 || s.Removed > 0 }

// Add returns the field-wise sum of s and o.
func (s Stats) Add(o Stats) Stats {
	return Stats{
		Created:  s.Created + o.Created,
		Retained: s.Retained + o.Retained,
		Removed:  s.Removed + o.Removed,
		Skipped:  s.Skipped + o.Skipped,
	}
}

// Ops are the lifecycle callbacks of a [Sync] pass.
type Ops[K cmp.Ordered, V, H any] struct {
	// Enter constructs the handle for a new key. Returning false skips the
	// entry for this pass; it is offered to Enter again on the next pass.
	Enter func(key K, v V) (H, bool)

	// Update refreshes a retained handle. Optional.
	Update func(key K, v V, h H)

	// Exit releases the handle of a key that left the collection. Optional.
	Exit func(key K, h H)
}

// Keyed maps keys to the handles created for them.
// The zero value is ready to use.
type Keyed[K cmp.Ordered, H any] struct {
	handles map[K]H
}

// Len returns the number of live handles.
func (k *Keyed[K, H]) Len() int { return len(k.handles) }

// Get returns the handle for key, if one is live.
func (k *Keyed[K, H]) Get(key K) (H, bool) {
	h, ok := k.handles[key]
	return h, ok
}

// Keys returns the live keys in ascending order.
func (k *Keyed[K, H]) Keys() []K {
	return slices.Sorted(maps.Keys(k.handles))
}

// Reset releases every live handle via exit (which may be nil) and forgets them.
func (k *Keyed[K, H]) Reset(exit func(key K, h H)) {
	for _, key := range k.Keys() {
		if exit != nil {
			exit(key, k.handles[key])
		}
	}
	k.handles = nil
}

// Sync reconciles k against items.
func Sync[K cmp.Ordered, V, H any](k *Keyed[K, H], items map[K]V, ops Ops[K, V, H]) Stats {
	if k.handles == nil {
		k.handles = make(map[K]H, len(items))
	}

	var st Stats
	for _, key := range k.Keys() {
		if _, ok := items[key]; ok {
			continue
		}
		if ops.Exit != nil {
			ops.Exit(key, k.handles[key])
		}
		delete(k.handles, key)
		st.Removed++
	}

	for _, key := range slices.Sorted(maps.Keys(items)) {
		v := items[key]
		if h, ok := k.handles[key]; ok {
			if ops.Update != nil {
				ops.Update(key, v, h)
			}
			st.Retained++
			continue
		}
		h, ok := ops.Enter(key, v)
		if !ok {
			st.Skipped++
			continue
		}
		k.handles[key] = h
		st.Created++
	}
	return st
}
