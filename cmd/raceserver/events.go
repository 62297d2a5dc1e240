package main

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/mmporong/CatRace/internal/shared/types"
)

const eventRing = 1000

// eventStore keeps the most recent race events and per-type counters.
type eventStore struct {
	mu          sync.RWMutex
	recent      []types.RaceEvent
	totalIngest int64
	byType      map[string]int64
}

func newEventStore() *eventStore {
	return &eventStore{
		recent: make([]types.RaceEvent, 0, 512),
		byType: make(map[string]int64),
	}
}

func (s *eventStore) ingest(ev types.RaceEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalIngest++
	s.byType[ev.Type]++
	s.recent = append(s.recent, ev)
	if len(s.recent) > eventRing {
		s.recent = s.recent[len(s.recent)-eventRing:]
	}
}

func (s *eventStore) listRecent(limit int) []types.RaceEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.recent) {
		limit = len(s.recent)
	}
	out := make([]types.RaceEvent, limit)
	copy(out, s.recent[len(s.recent)-limit:])
	return out
}

type summary struct {
	Total  int64
	ByType map[string]int64
}

func (s *eventStore) summary() summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byType := make(map[string]int64, len(s.byType))
	for k, v := range s.byType {
		byType[k] = v
	}
	return summary{Total: s.totalIngest, ByType: byType}
}

// writeMetrics renders the counters in the text exposition format.
func (s *eventStore) writeMetrics(w io.Writer, snap types.RaceSnapshot, clients int) {
	sum := s.summary()
	_, _ = fmt.Fprintln(w, "# HELP catrace_events_total Total race events published")
	_, _ = fmt.Fprintln(w, "# TYPE catrace_events_total counter")
	_, _ = fmt.Fprintf(w, "catrace_events_total %d\n", sum.Total)
	kinds := make([]string, 0, len(sum.ByType))
	for k := range sum.ByType {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		_, _ = fmt.Fprintf(w, "catrace_events_by_type{event_type=\"%s\"} %d\n", k, sum.ByType[k])
	}
	_, _ = fmt.Fprintln(w, "# TYPE catrace_race_clock_seconds gauge")
	_, _ = fmt.Fprintf(w, "catrace_race_clock_seconds{race_id=\"%s\",state=\"%s\"} %f\n", snap.RaceID, snap.State, snap.Clock)
	_, _ = fmt.Fprintln(w, "# TYPE catrace_viewers gauge")
	_, _ = fmt.Fprintf(w, "catrace_viewers %d\n", clients)
}
