// Package scan sweeps ranges of battle seeds for outcomes that match a
// target metric.
package scan

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MJE43/rune-ration-replay-go/internal/battle"
	"github.com/MJE43/rune-ration-replay-go/internal/catalog"
	"github.com/MJE43/rune-ration-replay-go/internal/engine"
)

const (
	// MaxSeed is the largest normalized seed.
	MaxSeed = math.MaxUint32
	// MaxRange bounds the number of seeds in one scan.
	MaxRange = 5_000_000
	// DefaultTolerance is used when a request leaves tolerance at zero.
	DefaultTolerance = 1e-9

	batchSize = 1024
)

// Request represents a scan operation request. The seed of Battle is ignored;
// every seed in [SeedStart, SeedEnd] is simulated in turn.
type Request struct {
	Battle     battle.Request `json:"battle"`
	SeedStart  uint64         `json:"seed_start"`
	SeedEnd    uint64         `json:"seed_end"`
	Metric     Metric         `json:"metric"`
	TargetOp   TargetOp       `json:"target_op"`
	TargetVal  float64        `json:"target_val"`
	TargetVal2 float64        `json:"target_val2,omitempty"`
	Tolerance  float64        `json:"tolerance"`
	Winner     battle.Winner  `json:"winner,omitempty"`
	Limit      int            `json:"limit,omitempty"`
	TimeoutMs  int            `json:"timeout_ms,omitempty"`
}

// Hit represents a single matching seed
type Hit struct {
	Seed   uint32        `json:"seed"`
	Metric float64       `json:"metric"`
	Winner battle.Winner `json:"winner"`
	Rounds int           `json:"rounds"`
}

// Summary contains aggregate statistics
type Summary struct {
	TotalEvaluated uint64  `json:"total_evaluated"`
	HitsFound      int     `json:"hits_found"`
	MinMetric      float64 `json:"min_metric"`
	MaxMetric      float64 `json:"max_metric"`
	MeanMetric     float64 `json:"mean_metric"`
	Wins           uint64  `json:"wins"`
	Losses         uint64  `json:"losses"`
	Draws          uint64  `json:"draws"`
	TimedOut       bool    `json:"timed_out,omitempty"`
}

// Result contains the complete scan results. Hits are the lowest matching
// seeds, in ascending order, up to the request limit.
type Result struct {
	Hits          []Hit   `json:"hits"`
	Summary       Summary `json:"summary"`
	EngineVersion string  `json:"engine_version"`
	Echo          Request `json:"echo"`
}

// Scanner fans seed batches out to a pool of workers.
type Scanner struct {
	workerCount    int
	defaultTimeout time.Duration
	engineVersion  string
}

// NewScanner creates a scanner. A nonpositive worker count uses GOMAXPROCS.
func NewScanner(workers int, defaultTimeout time.Duration, engineVersion string) *Scanner {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Scanner{
		workerCount:    workers,
		defaultTimeout: defaultTimeout,
		engineVersion:  engineVersion,
	}
}

// Validate checks a request without running it.
func Validate(req Request) error {
	if req.SeedStart > req.SeedEnd {
		return fmt.Errorf("%w: start %d after end %d", ErrInvalidRange, req.SeedStart, req.SeedEnd)
	}
	if req.SeedEnd > MaxSeed {
		return fmt.Errorf("%w: end %d exceeds %d", ErrInvalidRange, req.SeedEnd, uint64(MaxSeed))
	}
	if size := req.SeedEnd - req.SeedStart + 1; size > MaxRange {
		return fmt.Errorf("%w: %d seeds exceeds limit of %d", ErrInvalidRange, size, MaxRange)
	}
	if _, ok := LookupMetric(req.Metric); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidMetric, req.Metric)
	}
	if !req.TargetOp.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTarget, req.TargetOp)
	}
	return nil
}

// Scan simulates every seed in the range against one catalog snapshot. When
// the timeout expires the partial result is returned together with a
// *TimeoutError.
func (s *Scanner) Scan(ctx context.Context, cat *catalog.Catalog, req Request) (*Result, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	metricFn, _ := LookupMetric(req.Metric)

	timeout := s.defaultTimeout
	if req.TimeoutMs > 0 {
		timeout = time.Duration(req.TimeoutMs) * time.Millisecond
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tolerance := req.Tolerance
	if tolerance == 0 {
		tolerance = DefaultTolerance
	}
	evaluator := NewTargetEvaluator(req.TargetOp, req.TargetVal, req.TargetVal2, tolerance)

	jobs := make(chan scanJob, s.workerCount*2)
	hits := make(chan Hit, 1024)
	var counters outcomeCounters
	var wg sync.WaitGroup

	for i := 0; i < s.workerCount; i++ {
		w := &scanWorker{
			jobs:      jobs,
			hits:      hits,
			catalog:   cat,
			template:  req.Battle,
			metric:    metricFn,
			winner:    req.Winner,
			evaluator: evaluator,
			counters:  &counters,
		}
		wg.Add(1)
		go w.run(ctx, &wg)
	}

	go generateJobs(ctx, jobs, req.SeedStart, req.SeedEnd)
	go func() {
		wg.Wait()
		close(hits)
	}()

	collector := newCollector(req.Limit)
	collector.collect(hits)

	total := req.SeedEnd - req.SeedStart + 1
	summary := collector.summary()
	summary.TotalEvaluated = counters.evaluated.Load()
	summary.Wins = counters.wins.Load()
	summary.Losses = counters.losses.Load()
	summary.Draws = counters.draws.Load()
	summary.TimedOut = summary.TotalEvaluated < total

	result := &Result{
		Hits:          collector.hits(),
		Summary:       summary,
		EngineVersion: s.engineVersion,
		Echo:          req,
	}
	if summary.TimedOut {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return result, &TimeoutError{Timeout: timeout}
		}
		return result, ctx.Err()
	}
	return result, nil
}

// scanJob is an inclusive batch of seeds
type scanJob struct {
	start uint64
	end   uint64
}

type outcomeCounters struct {
	evaluated atomic.Uint64
	wins      atomic.Uint64
	losses    atomic.Uint64
	draws     atomic.Uint64
}

type scanWorker struct {
	jobs      <-chan scanJob
	hits      chan<- Hit
	catalog   *catalog.Catalog
	template  battle.Request
	metric    MetricFunc
	winner    battle.Winner
	evaluator *TargetEvaluator
	counters  *outcomeCounters
}

func (w *scanWorker) run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case job, ok := <-w.jobs:
			if !ok {
				return
			}
			if !w.process(ctx, job) {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// process simulates one batch. It returns false once ctx is done.
func (w *scanWorker) process(ctx context.Context, job scanJob) bool {
	var evaluated, wins, losses, draws uint64
	defer func() {
		w.counters.evaluated.Add(evaluated)
		w.counters.wins.Add(wins)
		w.counters.losses.Add(losses)
		w.counters.draws.Add(draws)
	}()

	req := w.template
	for seed := job.start; seed <= job.end; seed++ {
		if ctx.Err() != nil {
			return false
		}

		req.Seed = engine.NumberSeed(float64(seed))
		res := battle.Simulate(w.catalog, req)
		evaluated++
		switch res.Winner {
		case battle.WinnerPlayer:
			wins++
		case battle.WinnerGhost:
			losses++
		default:
			draws++
		}

		if w.winner != "" && res.Winner != w.winner {
			continue
		}
		metric := w.metric(res)
		if !w.evaluator.Matches(metric) {
			continue
		}

		hit := Hit{Seed: uint32(seed), Metric: metric, Winner: res.Winner, Rounds: len(res.Rounds)}
		select {
		case w.hits <- hit:
		case <-ctx.Done():
			return false
		}
	}
	return true
}

func generateJobs(ctx context.Context, jobs chan<- scanJob, start, end uint64) {
	defer close(jobs)
	for current := start; current <= end; {
		batchEnd := min(current+batchSize-1, end)
		select {
		case jobs <- scanJob{start: current, end: batchEnd}:
			current = batchEnd + 1
		case <-ctx.Done():
			return
		}
	}
}

// collector keeps the lowest-seed hits and running statistics over all hits.
type collector struct {
	limit    int
	kept     []Hit
	count    int
	min, max float64
	sum      decimal.Decimal
}

func newCollector(limit int) *collector {
	return &collector{limit: limit, sum: decimal.Zero}
}

func (c *collector) collect(hits <-chan Hit) {
	for hit := range hits {
		c.add(hit)
	}
}

func (c *collector) add(hit Hit) {
	if c.count == 0 || hit.Metric < c.min {
		c.min = hit.Metric
	}
	if c.count == 0 || hit.Metric > c.max {
		c.max = hit.Metric
	}
	c.count++
	c.sum = c.sum.Add(decimal.NewFromFloat(hit.Metric))

	c.kept = append(c.kept, hit)
	if c.limit > 0 && len(c.kept) >= 4*c.limit {
		c.trim()
	}
}

func (c *collector) trim() {
	slices.SortFunc(c.kept, func(a, b Hit) int {
		switch {
		case a.Seed < b.Seed:
			return -1
		case a.Seed > b.Seed:
			return 1
		}
		return 0
	})
	if c.limit > 0 && len(c.kept) > c.limit {
		c.kept = c.kept[:c.limit]
	}
}

func (c *collector) hits() []Hit {
	c.trim()
	if c.kept == nil {
		return []Hit{}
	}
	return c.kept
}

func (c *collector) summary() Summary {
	s := Summary{HitsFound: c.count}
	if c.count == 0 {
		return s
	}
	s.MinMetric = c.min
	s.MaxMetric = c.max
	s.MeanMetric, _ = c.sum.Div(decimal.NewFromInt(int64(c.count))).Round(4).Float64()
	return s
}
