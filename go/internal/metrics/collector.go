package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	// Histogram range: 1 microsecond to 60 seconds
	minIntervalUs = 1
	maxIntervalUs = 60_000_000
	sigFigs       = 3
)

// Collector defines the interface for collecting panel loop metrics.
type Collector interface {
	RecordTick(panelID string, elapsed time.Duration)
	RecordEvent(panelID string, event string)
}

// NoOpCollector is a no-op implementation for when metrics aren't needed.
type NoOpCollector struct{}

func (NoOpCollector) RecordTick(panelID string, elapsed time.Duration) {}
func (NoOpCollector) RecordEvent(panelID string, event string)         {}

// panelMetrics holds metrics for a single panel.
type panelMetrics struct {
	histogram *hdrhistogram.Histogram
	events    map[string]int64
}

// TickCollector records the committed tick interval of every panel in an
// HdrHistogram. The interval is what the engine actually subtracted, so the
// distribution shows scheduler jitter around the nominal cadence.
type TickCollector struct {
	mu        sync.Mutex
	panels    map[string]*panelMetrics
	startTime time.Time
}

// NewTickCollector creates a new TickCollector.
func NewTickCollector() *TickCollector {
	return &TickCollector{
		panels:    make(map[string]*panelMetrics),
		startTime: time.Now(),
	}
}

// getOrCreate returns metrics for a panel; callers hold c.mu.
func (c *TickCollector) getOrCreate(panelID string) *panelMetrics {
	pm, ok := c.panels[panelID]
	if !ok {
		pm = &panelMetrics{
			histogram: hdrhistogram.New(minIntervalUs, maxIntervalUs, sigFigs),
			events:    make(map[string]int64),
		}
		c.panels[panelID] = pm
	}
	return pm
}

// RecordTick records one committed tick interval.
func (c *TickCollector) RecordTick(panelID string, elapsed time.Duration) {
	us := elapsed.Microseconds()
	if us < minIntervalUs {
		us = minIntervalUs
	}
	if us > maxIntervalUs {
		us = maxIntervalUs
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// RecordValue only fails outside the trackable range, which is clamped above.
	_ = c.getOrCreate(panelID).histogram.RecordValue(us)
}

// RecordEvent counts an emitted engine event.
func (c *TickCollector) RecordEvent(panelID string, event string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.getOrCreate(panelID).events[event]++
}

// PanelSummary is a point-in-time view of one panel's metrics.
type PanelSummary struct {
	PanelID string           `json:"panel_id"`
	Ticks   int64            `json:"ticks"`
	MinMS   float64          `json:"min_ms"`
	P50MS   float64          `json:"p50_ms"`
	P99MS   float64          `json:"p99_ms"`
	MaxMS   float64          `json:"max_ms"`
	MeanMS  float64          `json:"mean_ms"`
	Events  map[string]int64 `json:"events"`
}

// Summary is the collector's exported state.
type Summary struct {
	Uptime time.Duration  `json:"-"`
	Panels []PanelSummary `json:"panels"`
}

// Summary returns metrics for every panel, ordered by panel id.
func (c *TickCollector) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Summary{Uptime: time.Since(c.startTime)}
	for id, pm := range c.panels {
		h := pm.histogram
		events := make(map[string]int64, len(pm.events))
		for k, v := range pm.events {
			events[k] = v
		}
		s.Panels = append(s.Panels, PanelSummary{
			PanelID: id,
			Ticks:   h.TotalCount(),
			MinMS:   usToMS(float64(h.Min())),
			P50MS:   usToMS(float64(h.ValueAtQuantile(50))),
			P99MS:   usToMS(float64(h.ValueAtQuantile(99))),
			MaxMS:   usToMS(float64(h.Max())),
			MeanMS:  usToMS(h.Mean()),
			Events:  events,
		})
	}
	sort.Slice(s.Panels, func(i, j int) bool { return s.Panels[i].PanelID < s.Panels[j].PanelID })
	return s
}

func usToMS(us float64) float64 {
	return us / 1000
}
