package eviction

// scan delegates the choice to the cache, which owns the access stamps.
type scan[K comparable] struct {
	oldest func() (K, bool)
}

func (s *scan[K]) OnGet(K)           {}
func (s *scan[K]) OnPut(K)           {}
func (s *scan[K]) Remove(K)          {}
func (s *scan[K]) Reset()            {}
func (s *scan[K]) TracksReads() bool { return false }

func (s *scan[K]) Evict() (K, bool) {
	return s.oldest()
}
