// This file implements LFU eviction.

package eviction

type lfu[K comparable] struct {
	// freq is the access count per key.
	freq map[K]int

	// buckets groups keys by access count.
	buckets map[int]map[K]struct{}

	// minFreq is the smallest count currently present, so eviction does not
	// scan every bucket.
	minFreq int
}

func newLFU[K comparable]() *lfu[K] {
	return &lfu[K]{
		freq:    make(map[K]int),
		buckets: make(map[int]map[K]struct{}),
	}
}

func (l *lfu[K]) TracksReads() bool { return true }

func (l *lfu[K]) OnGet(k K) {
	old, ok := l.freq[k]
	if !ok {
		return
	}
	l.unlink(k, old)
	if l.minFreq == old && len(l.buckets[old]) == 0 {
		l.minFreq++
	}
	l.link(k, old+1)
}

// OnPut counts an overwrite as an access.
func (l *lfu[K]) OnPut(k K) {
	if _, ok := l.freq[k]; ok {
		l.OnGet(k)
		return
	}
	l.link(k, 1)
	l.minFreq = 1
}

// Evict removes one key with the lowest count. Ties are broken arbitrarily.
func (l *lfu[K]) Evict() (K, bool) {
	for k := range l.buckets[l.minFreq] {
		l.unlink(k, l.minFreq)
		delete(l.freq, k)
		l.fixMin()
		return k, true
	}
	var zero K
	return zero, false
}

func (l *lfu[K]) Remove(k K) {
	n, ok := l.freq[k]
	if !ok {
		return
	}
	l.unlink(k, n)
	delete(l.freq, k)
	l.fixMin()
}

func (l *lfu[K]) Reset() {
	l.freq = make(map[K]int)
	l.buckets = make(map[int]map[K]struct{})
	l.minFreq = 0
}

func (l *lfu[K]) link(k K, n int) {
	l.freq[k] = n
	b := l.buckets[n]
	if b == nil {
		b = make(map[K]struct{})
		l.buckets[n] = b
	}
	b[k] = struct{}{}
}

func (l *lfu[K]) unlink(k K, n int) {
	delete(l.buckets[n], k)
	if len(l.buckets[n]) == 0 {
		delete(l.buckets, n)
	}
}

// fixMin recomputes minFreq after a removal emptied its bucket.
func (l *lfu[K]) fixMin() {
	if _, ok := l.buckets[l.minFreq]; ok || len(l.buckets) == 0 {
		return
	}
	lowest := 0
	for n := range l.buckets {
		if lowest == 0 || n < lowest {
			lowest = n
		}
	}
	l.minFreq = lowest
}
