package o11y

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot is a point-in-time copy of the instruments held by a Memory
// provider. Labels are not retained.
type Snapshot struct {
	Timestamp  time.Time            `json:"timestamp"`
	Counters   map[string]int64     `json:"counters"`
	Histograms map[string][]float64 `json:"histograms"`
	Gauges     map[string]float64   `json:"gauges"`
}

// Memory is a MetricsProvider that keeps every instrument in process. It is
// used by the serve command to log periodic snapshots and by tests.
type Memory struct {
	counters   sync.Map // map[string]*memoryCounter
	histograms sync.Map // map[string]*memoryHistogram
	gauges     sync.Map // map[string]*memoryGauge
}

// NewMemory returns an empty Memory provider.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Counter(name string) Counter {
	actual, _ := m.counters.LoadOrStore(name, &memoryCounter{})
	return actual.(*memoryCounter)
}

func (m *Memory) Histogram(name string) Histogram {
	actual, _ := m.histograms.LoadOrStore(name, &memoryHistogram{})
	return actual.(*memoryHistogram)
}

func (m *Memory) Gauge(name string) Gauge {
	actual, _ := m.gauges.LoadOrStore(name, &memoryGauge{})
	return actual.(*memoryGauge)
}

// CounterValue returns the current value of the named counter, or 0.
func (m *Memory) CounterValue(name string) int64 {
	if c, ok := m.counters.Load(name); ok {
		return atomic.LoadInt64(&c.(*memoryCounter).value)
	}
	return 0
}

// Snapshot copies the current state of every instrument.
func (m *Memory) Snapshot() Snapshot {
	snapshot := Snapshot{
		Timestamp:  time.Now(),
		Counters:   make(map[string]int64),
		Histograms: make(map[string][]float64),
		Gauges:     make(map[string]float64),
	}

	m.counters.Range(func(key, value any) bool {
		snapshot.Counters[key.(string)] = atomic.LoadInt64(&value.(*memoryCounter).value)
		return true
	})

	m.histograms.Range(func(key, value any) bool {
		h := value.(*memoryHistogram)
		h.mu.RLock()
		snapshot.Histograms[key.(string)] = append([]float64(nil), h.values...)
		h.mu.RUnlock()
		return true
	})

	m.gauges.Range(func(key, value any) bool {
		g := value.(*memoryGauge)
		g.mu.RLock()
		snapshot.Gauges[key.(string)] = g.value
		g.mu.RUnlock()
		return true
	})

	return snapshot
}

type memoryCounter struct {
	value int64
}

func (c *memoryCounter) Add(ctx context.Context, value int64, labels ...Label) {
	atomic.AddInt64(&c.value, value)
}

type memoryHistogram struct {
	mu     sync.RWMutex
	values []float64
}

func (h *memoryHistogram) Record(ctx context.Context, value float64, labels ...Label) {
	h.mu.Lock()
	h.values = append(h.values, value)
	h.mu.Unlock()
}

type memoryGauge struct {
	mu    sync.RWMutex
	value float64
}

func (g *memoryGauge) Set(ctx context.Context, value float64, labels ...Label) {
	g.mu.Lock()
	g.value = value
	g.mu.Unlock()
}
