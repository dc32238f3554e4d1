package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	cache "github.com/Bruce-the-dev/Student-Grade-Management-Lab-3"
	"github.com/Bruce-the-dev/Student-Grade-Management-Lab-3/audit"
	"github.com/Bruce-the-dev/Student-Grade-Management-Lab-3/metrics"
	"github.com/Bruce-the-dev/Student-Grade-Management-Lab-3/roster"
)

func main() {
	cfg, err := loadConfig(os.Args[0], os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	logger := newLogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		level.Info(logger).Log("msg", "received shutdown signal")
		cancel()
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a, err := newApp(cfg, logger, reg, os.Stdout)
	if err != nil {
		level.Error(logger).Log("msg", "failed to start", "err", err)
		os.Exit(1)
	}

	if cfg.MetricsAddr != "" {
		srv := metrics.NewServer(cfg.MetricsAddr, reg)
		errc := make(chan error, 1)
		srv.StartAsync(errc)
		go func() {
			if err := <-errc; err != nil {
				level.Error(logger).Log("msg", "metrics server failed", "err", err)
			}
		}()
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer stopCancel()
			_ = srv.Stop(stopCtx)
		}()
		level.Info(logger).Log("msg", "serving metrics", "addr", cfg.MetricsAddr)
	}

	a.run(ctx, readLines(ctx, bufio.NewScanner(os.Stdin)))
	a.shutdown()
}

func newLogger(lvl string) log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)

	var opt level.Option
	switch lvl {
	case "debug":
		opt = level.AllowDebug()
	case "warn":
		opt = level.AllowWarn()
	case "error":
		opt = level.AllowError()
	default:
		opt = level.AllowInfo()
	}
	return level.NewFilter(logger, opt)
}

// readLines feeds stdin to the menu until EOF or ctx is done.
func readLines(ctx context.Context, sc *bufio.Scanner) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

// wire builds the caches, the audit pipeline and the roster services.
func wire(cfg *Config, logger log.Logger, reg prometheus.Registerer) (*services, error) {
	vecs := metrics.NewCacheVecs(reg)

	records, err := cache.New[string, any](cfg.RecordsCache, logger, vecs.For(cfg.RecordsCache.Name))
	if err != nil {
		return nil, err
	}
	statistics, err := cache.New[string, any](cfg.StatisticsCache, logger, vecs.For(cfg.StatisticsCache.Name))
	if err != nil {
		return nil, err
	}

	pipeline, err := audit.Open(cfg.Audit, logger, reg)
	if err != nil {
		return nil, err
	}

	s := &services{
		records:    records,
		statistics: statistics,
		pipeline:   pipeline,
	}
	s.students = roster.NewDirectory(records, pipeline)
	s.grades = roster.NewGradebook(s.students, records, pipeline)
	s.class = roster.NewClassStatistics(s.students, s.grades, statistics, pipeline)
	return s, nil
}
