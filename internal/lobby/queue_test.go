package lobby

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/mmporong/CatRace/internal/shared/types"
	"github.com/mmporong/CatRace/internal/stats"
)

func newTestQueue() *Queue {
	return NewQueue("ws://localhost:9103/ws", stats.DefaultCatalog(), rand.New(rand.NewSource(7)), nil)
}

func backdate(q *Queue, ticketID string, d time.Duration) {
	q.mu.Lock()
	if t, ok := q.ticketIndex[ticketID]; ok {
		t.JoinedAt = time.Now().UTC().Add(-d)
	}
	q.mu.Unlock()
}

func TestQueueFormsFullField(t *testing.T) {
	q := newTestQueue()
	var tickets []string
	for _, id := range []string{"p1", "p2", "p3"} {
		resp, err := q.Join(types.EntryRequest{PlayerID: id, Preset: "Tank"})
		if err != nil {
			t.Fatalf("join %s: %v", id, err)
		}
		tickets = append(tickets, resp.TicketID)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx, 10*time.Millisecond, 3)
	time.Sleep(50 * time.Millisecond)

	var raceID string
	for _, id := range tickets {
		p := q.Poll(id)
		if p.Status != StatusAssigned || p.Assignment == nil {
			t.Fatalf("expected assigned ticket, got=%s", p.Status)
		}
		if raceID == "" {
			raceID = p.Assignment.RaceID
		}
		if p.Assignment.RaceID != raceID {
			t.Fatalf("expected one race: %s vs %s", raceID, p.Assignment.RaceID)
		}
		if p.Assignment.BotFill || len(p.Assignment.Roster) != 3 {
			t.Fatalf("expected three players and no bots, got=%+v", p.Assignment)
		}
	}
}

func TestQueueBotFillAfterWait(t *testing.T) {
	q := newTestQueue()
	a, err := q.Join(types.EntryRequest{PlayerID: "solo", DisplayName: "Solo"})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	backdate(q, a.TicketID, 10*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx, 10*time.Millisecond, 4)
	time.Sleep(50 * time.Millisecond)

	p := q.Poll(a.TicketID)
	if p.Status != StatusAssigned || p.Assignment == nil {
		t.Fatalf("expected bot-filled assignment, got=%s", p.Status)
	}
	if !p.Assignment.BotFill || len(p.Assignment.Roster) != 4 {
		t.Fatalf("expected field of 4 with bots, got=%+v", p.Assignment)
	}
	bots := 0
	for _, e := range p.Assignment.Roster {
		if e.IsBot {
			bots++
			if _, ok := stats.DefaultCatalog().Lookup(e.Preset); !ok {
				t.Fatalf("bot preset %q not in catalog", e.Preset)
			}
		}
	}
	if bots != 3 {
		t.Fatalf("expected 3 bots, got=%d", bots)
	}
}

func TestQueueHoldsFreshEntrants(t *testing.T) {
	q := newTestQueue()
	a, _ := q.Join(types.EntryRequest{PlayerID: "p1"})
	q.process(4)
	if q.Poll(a.TicketID).Status != StatusWaiting {
		t.Fatal("fresh entrant should keep waiting for a field")
	}
	if q.Waiting() != 1 {
		t.Fatalf("expected one waiting, got=%d", q.Waiting())
	}
}

func TestJoinResolvesStatsAndOffersCharms(t *testing.T) {
	q := newTestQueue()
	resp, err := q.Join(types.EntryRequest{
		PlayerID:    "p1",
		Preset:      "tank",
		Enhancement: &types.EnhancementRequest{Stat: "speed", Value: 50},
	})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if len(resp.Charms) != CharmOffers {
		t.Fatalf("expected %d charms, got=%d", CharmOffers, len(resp.Charms))
	}
	for i, c := range resp.Charms {
		if c.Index != i || c.Description == "" {
			t.Fatalf("bad offer %d: %+v", i, c)
		}
	}

	q.mu.RLock()
	got := q.ticketIndex[resp.TicketID].Stats
	q.mu.RUnlock()
	if got.Speed != stats.MaxSpeed || got.Health != 85 {
		t.Fatalf("expected clamped tank stats, got=%+v", got)
	}

	if _, err := q.Join(types.EntryRequest{PlayerID: "p2", Preset: "Garfield"}); err == nil {
		t.Fatal("expected unknown preset error")
	}
	if _, err := q.Join(types.EntryRequest{PlayerID: "p3", Enhancement: &types.EnhancementRequest{Stat: "luck"}}); err == nil {
		t.Fatal("expected unknown stat error")
	}
	if _, err := q.Join(types.EntryRequest{}); err == nil {
		t.Fatal("expected missing player error")
	}
}

func TestChooseCharmOnce(t *testing.T) {
	q := newTestQueue()
	resp, _ := q.Join(types.EntryRequest{PlayerID: "p1", Preset: "Balanced"})

	if _, err := q.ChooseCharm(resp.TicketID, CharmOffers); err == nil {
		t.Fatal("expected out of range error")
	}
	s, err := q.ChooseCharm(resp.TicketID, 1)
	if err != nil {
		t.Fatalf("choose: %v", err)
	}
	want := stats.Stats{Speed: 12, Acceleration: 12, Health: 60, Intelligence: 60, Strength: 60}
	want.Modify(stats.Modifier(resp.Charms[1].Delta))
	if s != types.StatBlock(want) {
		t.Fatalf("expected %+v, got=%+v", want, s)
	}
	if _, err := q.ChooseCharm(resp.TicketID, 0); err != ErrCharmTaken {
		t.Fatalf("expected ErrCharmTaken, got=%v", err)
	}
	if _, err := q.ChooseCharm("nope", 0); err != ErrUnknownTicket {
		t.Fatalf("expected ErrUnknownTicket, got=%v", err)
	}
}

func TestLeaveRemovesTicket(t *testing.T) {
	q := newTestQueue()
	a, _ := q.Join(types.EntryRequest{PlayerID: "p1"})
	if !q.Leave(a.TicketID) || q.Leave(a.TicketID) {
		t.Fatal("leave must succeed once")
	}
	if q.Poll(a.TicketID).Status != StatusNotFound {
		t.Fatal("expected not_found after leave")
	}
	if q.Waiting() != 0 {
		t.Fatalf("expected empty lobby, got=%d", q.Waiting())
	}
}

func TestOnAssignReceivesFormedField(t *testing.T) {
	q := newTestQueue()
	var got []types.RaceAssignment
	q.OnAssign(func(a types.RaceAssignment) { got = append(got, a) })
	q.Join(types.EntryRequest{PlayerID: "p1"})
	q.Join(types.EntryRequest{PlayerID: "p2"})
	q.process(2)
	if len(got) != 1 || len(got[0].Roster) != 2 || got[0].RaceID == "" {
		t.Fatalf("expected one field of two, got=%+v", got)
	}
	if got[0].TicketID != "" {
		t.Fatal("hook assignment is shared by the field and carries no ticket")
	}
}
