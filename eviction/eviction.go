package eviction

import (
	"errors"
	"fmt"
	"strings"
)

/*
This file defines how a cache decides what to remove when it runs out of space.
*/

/*
Policy is the interface that all eviction strategies must follow.

The cache does NOT care how eviction works internally. It calls these
methods while holding its write lock, so implementations need no locking of
their own.
*/
type Policy[K comparable] interface {

	// OnGet is called whenever a key is read from the cache.
	// Only called when TracksReads returns true.
	OnGet(K)

	// OnPut is called whenever a key is inserted or overwritten.
	OnPut(K)

	// Remove is called when a key is removed by invalidation (not evicted).
	Remove(K)

	// Evict picks the key to remove and forgets it. ok is false when
	// there is nothing to evict.
	Evict() (key K, ok bool)

	// Reset drops all bookkeeping. Called by Clear.
	Reset()

	// TracksReads reports whether OnGet must be called on every hit.
	// Policies that don't care keep the read path lock-free.
	TracksReads() bool
}

// PolicyType is a simple identifier for supported eviction strategies.
type PolicyType string

const (
	// Scan evicts the entry with the oldest last-access stamp, found by a
	// linear scan over the entries at eviction time. It keeps no state of its
	// own, so reads never take a lock. Under concurrent reads the scan can
	// race with a touch of the chosen key, which makes it approximate LRU.
	Scan PolicyType = "SCAN"

	// LRU evicts the least recently used key using a recency-ordered list:
	// O(1) eviction, but every hit takes the cache lock.
	LRU PolicyType = "LRU"

	// LFU evicts the key accessed the fewest times.
	LFU PolicyType = "LFU"

	// FIFO evicts the oldest inserted key, regardless of access.
	FIFO PolicyType = "FIFO"
)

// ErrUnknownPolicy is returned for a PolicyType this package does not implement.
var ErrUnknownPolicy = errors.New("unknown eviction policy")

// ParsePolicyType parses a policy name case-insensitively.
func ParsePolicyType(s string) (PolicyType, error) {
	t := PolicyType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case Scan, LRU, LFU, FIFO:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// New creates the policy for t. oldest is only used by Scan: it must return
// the key whose entry has the smallest last-access stamp.
func New[K comparable](t PolicyType, oldest func() (K, bool)) (Policy[K], error) {
	switch t {
	case Scan:
		if oldest == nil {
			return nil, errors.New("scan eviction needs an oldest-entry finder")
		}
		return &scan[K]{oldest: oldest}, nil
	case LRU:
		return newLRU[K](), nil
	case LFU:
		return newLFU[K](), nil
	case FIFO:
		return newFIFO[K](), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, string(t))
	}
}
