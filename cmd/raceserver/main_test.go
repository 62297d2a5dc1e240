package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mmporong/CatRace/internal/config"
	"github.com/mmporong/CatRace/internal/shared/logger"
	"github.com/mmporong/CatRace/internal/shared/types"
	"github.com/mmporong/CatRace/internal/simulation"
	"github.com/mmporong/CatRace/internal/stats"
)

func testServer(t *testing.T, restartDelay time.Duration) *server {
	t.Helper()
	rf := config.Default()
	rf.TotalLaps = 1
	rf.CountdownSeconds = -1
	rf.GoHoldSeconds = -1
	s, err := newServer(rf, stats.DefaultCatalog(), restartDelay, logger.Discard())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return s
}

func TestRaceEndpointReturnsSnapshot(t *testing.T) {
	s := testServer(t, -1)
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/race", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got=%d", rec.Code)
	}
	var snap types.RaceSnapshot
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.State != simulation.Racing.String() || len(snap.Agents) != 6 {
		t.Fatalf("expected a racing field of 6, got state=%s agents=%d", snap.State, len(snap.Agents))
	}
}

func TestBoostAndProgressEndpoints(t *testing.T) {
	s := testServer(t, -1)
	id := s.host.snapshot().Agents[0].AgentID

	body, _ := json.Marshal(types.BoostRequest{Delta: types.StatBlock{Strength: 5}})
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/race/boost/"+id, bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected boost accepted, got=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	s.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/race/boost/nobody", bytes.NewReader(body)))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown agent, got=%d", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/race/progress/"+id, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected progress row, got=%d", rec.Code)
	}
}

func TestHostRestartsAfterDelay(t *testing.T) {
	s := testServer(t, time.Second)
	now := time.Now()
	s.host.mu.Lock()
	s.host.race.Finish()
	s.host.mu.Unlock()

	s.host.tick(1.0/60, now)
	if got := s.host.snapshot().State; got != simulation.Finished.String() {
		t.Fatalf("expected finished hold, got=%s", got)
	}
	s.host.tick(1.0/60, now.Add(2*time.Second))
	if got := s.host.snapshot().State; got != simulation.Racing.String() {
		t.Fatalf("expected a new race after the delay, got=%s", got)
	}
}

func TestFieldLoadReplacesRoster(t *testing.T) {
	s := testServer(t, -1)
	body, _ := json.Marshal(types.RaceAssignment{
		RaceID: "race-from-lobby",
		Roster: []types.RosterEntry{
			{PlayerID: "p1", Name: "Tom", Stats: types.StatBlock{Speed: 12, Acceleration: 12, Health: 60, Intelligence: 60, Strength: 60}},
			{Name: "Tank", Preset: "Tank", IsBot: true, Stats: types.StatBlock{Speed: 8, Acceleration: 6, Health: 85, Intelligence: 30, Strength: 70}},
		},
	})
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/race/field", bytes.NewReader(body)))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got=%d body=%s", rec.Code, rec.Body.String())
	}
	snap := s.host.snapshot()
	if snap.RaceID != "race-from-lobby" || len(snap.Agents) != 2 {
		t.Fatalf("expected lobby field, got id=%s agents=%d", snap.RaceID, len(snap.Agents))
	}

	if _, err := s.host.boost("", "p1", types.StatBlock{Speed: 1}); err != nil {
		t.Fatalf("expected boost by player id, got=%v", err)
	}
}

func TestEventsAndMetrics(t *testing.T) {
	s := testServer(t, -1)
	for i := 0; i < 10; i++ {
		s.host.tick(1.0/60, time.Now())
	}

	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/events?limit=5", nil))
	var out struct {
		Count  int               `json:"count"`
		Events []types.RaceEvent `json:"events"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Count != 5 {
		t.Fatalf("expected 5 recent events, got=%d", out.Count)
	}

	rec = httptest.NewRecorder()
	s.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	if !strings.Contains(body, `catrace_events_by_type{event_type="started"} 1`) {
		t.Fatalf("expected started counter in metrics:\n%s", body)
	}
}

func TestEventStoreKeepsRing(t *testing.T) {
	st := newEventStore()
	for i := 0; i < eventRing+10; i++ {
		st.ingest(types.RaceEvent{Type: "lap_completed", Lap: i})
	}
	recent := st.listRecent(0)
	if len(recent) != eventRing || recent[0].Lap != 10 {
		t.Fatalf("expected ring of %d starting at 10, got len=%d first=%d", eventRing, len(recent), recent[0].Lap)
	}
	if st.summary().Total != int64(eventRing+10) {
		t.Fatal("total must count every ingest")
	}
}
