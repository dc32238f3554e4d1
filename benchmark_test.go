package cache_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/go-kit/log"

	cache "github.com/Bruce-the-dev/Student-Grade-Management-Lab-3"
	"github.com/Bruce-the-dev/Student-Grade-Management-Lab-3/eviction"
	"github.com/Bruce-the-dev/Student-Grade-Management-Lab-3/types"
)

func newBenchmarkCache(b *testing.B, capacity int, policy eviction.PolicyType) *cache.Cache[string, int] {
	b.Helper()
	c, err := cache.New[string, int](cache.Config{
		Name:     "bench",
		Capacity: capacity,
		Eviction: policy,
	}, log.NewNopLogger(), nil)
	if err != nil {
		b.Fatalf("new cache: %v", err)
	}
	b.Cleanup(c.Close)
	return c
}

//
// ================= SINGLE THREAD BENCH =================
//

func BenchmarkCacheGetHit(b *testing.B) {
	c := newBenchmarkCache(b, 1000, eviction.Scan)
	c.Put("key", 1)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get("key")
	}
}

func BenchmarkCacheGetMiss(b *testing.B) {
	c := newBenchmarkCache(b, 1000, eviction.Scan)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get(fmt.Sprintf("miss-%d", i))
	}
}

//
// ================= PARALLEL BENCH =================
//

func BenchmarkCacheParallelGet(b *testing.B) {
	for _, policy := range []eviction.PolicyType{eviction.Scan, eviction.LRU} {
		b.Run(string(policy), func(b *testing.B) {
			c := newBenchmarkCache(b, 1000, policy)
			for i := 0; i < 1000; i++ {
				c.Put(fmt.Sprintf("key-%d", i), i)
			}

			b.ResetTimer()
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					c.Get("key-42")
				}
			})
		})
	}
}

//
// ================= WRITE BENCH =================
//

// Puts past capacity, so every iteration after warmup also evicts.
func BenchmarkCachePutEvicting(b *testing.B) {
	for _, policy := range []eviction.PolicyType{eviction.Scan, eviction.LRU, eviction.LFU, eviction.FIFO} {
		b.Run(string(policy), func(b *testing.B) {
			c := newBenchmarkCache(b, cache.DefaultCapacity, policy)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				c.Put(fmt.Sprintf("key-%d", i), i)
			}
		})
	}
}

func BenchmarkCacheGetOrLoad(b *testing.B) {
	c := newBenchmarkCache(b, cache.DefaultCapacity, eviction.Scan)
	loader := types.LoaderFunc[string, int](func(_ context.Context, key string) (int, error) {
		return len(key), nil
	})
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.GetOrLoad(ctx, fmt.Sprintf("STUDENT_STU%03d", i%300), loader); err != nil {
			b.Fatal(err)
		}
	}
}

//
// ================= HIGH CONCURRENCY TEST =================
//

func BenchmarkCacheHighConcurrency(b *testing.B) {
	c := newBenchmarkCache(b, 10000, eviction.Scan)

	keys := make([]string, 10000)
	for i := range keys {
		keys[i] = fmt.Sprintf("key-%d", i)
		c.Put(keys[i], i)
	}

	b.ResetTimer()

	wg := sync.WaitGroup{}
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < b.N/100; j++ {
				c.Get(keys[j%len(keys)])
			}
		}(i)
	}
	wg.Wait()
}
