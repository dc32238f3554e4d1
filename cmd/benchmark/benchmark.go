package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-kit/log"

	cache "github.com/Bruce-the-dev/Student-Grade-Management-Lab-3"
	"github.com/Bruce-the-dev/Student-Grade-Management-Lab-3/eviction"
	"github.com/Bruce-the-dev/Student-Grade-Management-Lab-3/types"
)

// ================= BACKING STORE =================

var _ types.Loader[string, any] = (*recordStore)(nil)

// recordStore stands in for the student records behind the cache.
type recordStore struct {
	mu   sync.RWMutex
	data map[string]any
}

func newRecordStore(n int) *recordStore {
	s := &recordStore{data: make(map[string]any, n)}
	for i := 0; i < n; i++ {
		s.data[studentKey(i)] = i
	}
	return s
}

func (s *recordStore) Load(_ context.Context, key string) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data[key], nil
}

func studentKey(i int) string {
	return fmt.Sprintf("STUDENT_STU%03d", i)
}

// ================= BENCHMARK =================

func main() {
	var (
		capacity   int
		students   int
		goroutines int
		opsPerG    int
		policy     string
	)
	flag.IntVar(&capacity, "capacity", cache.DefaultCapacity, "Cache capacity")
	flag.IntVar(&students, "students", 300, "Distinct student records behind the cache")
	flag.IntVar(&goroutines, "goroutines", 200, "Concurrent readers")
	flag.IntVar(&opsPerG, "ops", 5000, "Lookups per reader")
	flag.StringVar(&policy, "eviction", string(eviction.Scan), "Eviction policy: SCAN, LRU, LFU or FIFO")
	flag.Parse()

	if capacity <= 0 || students <= 0 {
		fmt.Fprintln(os.Stderr, "error: -capacity and -students must be positive")
		os.Exit(2)
	}

	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)

	ctx := context.Background()

	fmt.Println("\n================ CACHE LOAD BENCHMARK =================")

	// ---------------- Cache Config ----------------
	fmt.Println("CONFIG")
	fmt.Println("---------------------------------")
	fmt.Println("Capacity     :", capacity)
	fmt.Println("Eviction     :", policy)
	fmt.Println("Students     :", students)
	fmt.Println("Goroutines   :", goroutines)
	fmt.Println("Ops/Goroutine:", opsPerG)
	fmt.Println("---------------------------------")

	c, err := cache.New[string, any](cache.Config{
		Name:     "benchmark",
		Capacity: capacity,
		Eviction: eviction.PolicyType(policy),
	}, logger, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer c.Close()

	store := newRecordStore(students)

	// ---------------- Warmup ----------------
	fmt.Println("Warming up cache...")
	for i := 0; i < capacity && i < students; i++ {
		if _, err := c.GetOrLoad(ctx, studentKey(i), store); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Println("Warmup complete.")

	// ---------------- Load Test ----------------
	fmt.Println("Running concurrency benchmark...")

	start := time.Now()

	wg := sync.WaitGroup{}
	wg.Add(goroutines)

	for i := 0; i < goroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < opsPerG; j++ {
				// Skew reads toward the low IDs so the working set mostly fits.
				n := (id*7 + j*j) % students
				if j%4 != 0 {
					n %= capacity
				}
				_, _ = c.GetOrLoad(ctx, studentKey(n), store)
			}
		}(i)
	}

	wg.Wait()

	duration := time.Since(start)
	totalOps := goroutines * opsPerG

	fmt.Println("\n================ RESULTS =================")
	fmt.Printf("Total Operations : %d\n", totalOps)
	fmt.Printf("Total Time       : %v\n", duration)
	fmt.Printf("Throughput       : %.2f ops/sec\n", float64(totalOps)/duration.Seconds())
	fmt.Println("=========================================")
	cache.PrintStats(os.Stdout, c.Stats())
}
