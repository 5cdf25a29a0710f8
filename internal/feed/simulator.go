package feed

import (
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"hunter/internal/events"
)

var (
	feedKeywords   = []string{"token", "leak", "api_key"}
	feedSeverities = []string{"low", "medium", "high", "critical"}
	feedSources    = []string{"t.me/darkmarket", "t.me/combolists", "t.me/breachtalk", "t.me/stealer_logs"}
)

// Simulator synthesizes channel-monitoring hits on a fixed interval and
// publishes them to the event bus for the live feed.
type Simulator struct {
	bus      *events.Bus
	interval time.Duration

	mu      sync.Mutex
	running bool
	stop    chan struct{}
}

// NewSimulator creates a feed simulator. interval is the period between
// synthetic entries; values below one second are clamped to one second.
func NewSimulator(bus *events.Bus, interval time.Duration) *Simulator {
	if interval < time.Second {
		interval = time.Second
	}
	return &Simulator{
		bus:      bus,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Start begins the generation loop.
func (s *Simulator) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	go s.loop()
	log.Printf("[Feed] Simulator started (interval=%s)", s.interval)
}

// Stop halts the generation loop and releases the ticker.
func (s *Simulator) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stop)
	log.Println("[Feed] Simulator stopped")
}

func (s *Simulator) loop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.emit()
		}
	}
}

// emit publishes one synthetic feed entry.
func (s *Simulator) emit() {
	keyword := feedKeywords[rand.Intn(len(feedKeywords))]
	severity := feedSeverities[rand.Intn(len(feedSeverities))]
	source := feedSources[rand.Intn(len(feedSources))]

	sev := events.SeverityInfo
	switch severity {
	case "high":
		sev = events.SeverityWarning
	case "critical":
		sev = events.SeverityCritical
	}

	s.bus.Publish(events.Event{
		Type:     events.FeedEntry,
		Severity: sev,
		Keyword:  keyword,
		Message:  fmt.Sprintf("Keyword %q mentioned in %s", keyword, source),
		Metadata: map[string]string{
			"keyword":  keyword,
			"severity": severity,
			"source":   source,
		},
	})
}
