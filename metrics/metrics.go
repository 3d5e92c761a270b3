// Package metrics implements a pluggable metric collector: recorders
// expose sent/received byte counters or tuple counts; the whole thing
// collapses to a no-op sink when the caller doesn't register one.
package metrics

import (
	"fmt"
	"sort"
	"sync"

	"github.com/montanaflynn/stats"
	"golang.org/x/crypto/blake2b"
)

// Recorder is anything that can report traffic or tuple counts. Components
// (comm.Agent, tuplegen generators) call these methods as a side effect;
// nothing in the engine depends on their return values.
type Recorder interface {
	AddBytesSent(n int)
	AddBytesReceived(n int)
	AddTuples(n int)
}

// noop satisfies Recorder by discarding everything.
type noop struct{}

func (noop) AddBytesSent(int)     {}
func (noop) AddBytesReceived(int) {}
func (noop) AddTuples(int)        {}

// Noop is the default, correctness-preserving sink.
var Noop Recorder = noop{}

// Counting is a Recorder that accumulates totals and a latency sample set;
// the engine reports its batch timings into it.
type Counting struct {
	mu            sync.Mutex
	bytesSent     uint64
	bytesReceived uint64
	tuples        uint64
	latenciesMs   []float64
}

func NewCounting() *Counting { return &Counting{} }

func (c *Counting) AddBytesSent(n int) {
	c.mu.Lock()
	c.bytesSent += uint64(n)
	c.mu.Unlock()
}

func (c *Counting) AddBytesReceived(n int) {
	c.mu.Lock()
	c.bytesReceived += uint64(n)
	c.mu.Unlock()
}

func (c *Counting) AddTuples(n int) {
	c.mu.Lock()
	c.tuples += uint64(n)
	c.mu.Unlock()
}

// ObserveLatencyMs records one batch's wall-clock latency for later
// percentile aggregation (e.g. the engine's execute_scheduled_and reveal
// round).
func (c *Counting) ObserveLatencyMs(ms float64) {
	c.mu.Lock()
	c.latenciesMs = append(c.latenciesMs, ms)
	c.mu.Unlock()
}

// TrafficStats returns the (sent, received) monotonic byte counters.
func (c *Counting) TrafficStats() (sent, received uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bytesSent, c.bytesReceived
}

// Tuples returns the running tuple count.
func (c *Counting) Tuples() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tuples
}

// LatencySummary aggregates the recorded latencies into mean/p50/p95/p99,
// using montanaflynn/stats rather than hand-rolled percentile math.
type LatencySummary struct {
	Count      int
	MeanMs     float64
	P50Ms      float64
	P95Ms      float64
	P99Ms      float64
}

func (c *Counting) LatencySummary() (LatencySummary, error) {
	c.mu.Lock()
	samples := append([]float64(nil), c.latenciesMs...)
	c.mu.Unlock()

	if len(samples) == 0 {
		return LatencySummary{}, nil
	}
	mean, err := stats.Mean(samples)
	if err != nil {
		return LatencySummary{}, fmt.Errorf("metrics: mean: %w", err)
	}
	p50, err := stats.Percentile(samples, 50)
	if err != nil {
		return LatencySummary{}, fmt.Errorf("metrics: p50: %w", err)
	}
	p95, err := stats.Percentile(samples, 95)
	if err != nil {
		return LatencySummary{}, fmt.Errorf("metrics: p95: %w", err)
	}
	p99, err := stats.Percentile(samples, 99)
	if err != nil {
		return LatencySummary{}, fmt.Errorf("metrics: p99: %w", err)
	}
	return LatencySummary{Count: len(samples), MeanMs: mean, P50Ms: p50, P95Ms: p95, P99Ms: p99}, nil
}

// Fingerprint returns a short, stable identifier for a free-form channel
// tag used only for logging, so recorders and log lines can key on a
// fixed-width value instead of an arbitrary string.
func Fingerprint(tag string) string {
	sum := blake2b.Sum256([]byte(tag))
	return fmt.Sprintf("%x", sum[:6])
}

// Registry collects named recorders under an add_recorder(name, recorder)
// style contract.
type Registry struct {
	mu        sync.Mutex
	recorders map[string]Recorder
}

func NewRegistry() *Registry {
	return &Registry{recorders: make(map[string]Recorder)}
}

func (r *Registry) AddRecorder(name string, rec Recorder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recorders[name] = rec
}

func (r *Registry) Get(name string) Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.recorders[name]; ok {
		return rec
	}
	return Noop
}

// Names returns the registered recorder names, sorted for deterministic
// reporting.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.recorders))
	for n := range r.recorders {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
