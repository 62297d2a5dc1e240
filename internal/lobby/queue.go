package lobby

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"

	"github.com/mmporong/CatRace/internal/shared/logger"
	"github.com/mmporong/CatRace/internal/shared/types"
	"github.com/mmporong/CatRace/internal/stats"
)

const (
	StatusWaiting   = "waiting"
	StatusAssigned  = "assigned"
	StatusCancelled = "cancelled"
	StatusNotFound  = "not_found"

	DefaultPreset  = "Balanced"
	CharmOffers    = 3
	DefaultBotWait = 4 * time.Second
	MinFieldSize   = 2
)

var (
	ErrUnknownTicket = errors.New("unknown ticket")
	ErrCharmTaken    = errors.New("charm already chosen")
	ErrNotWaiting    = errors.New("ticket is no longer waiting")
)

// Ticket is a lobby entry.
type Ticket struct {
	TicketID    string
	PlayerID    string
	DisplayName string
	Preset      string
	Stats       stats.Stats
	Charms      []stats.Charm
	CharmChosen bool
	JoinedAt    time.Time
	Status      string // waiting|assigned|cancelled
}

// Queue collects entrants into race fields, topping up with bots once the
// oldest entrant has waited long enough.
type Queue struct {
	mu          sync.RWMutex
	waiting     []*Ticket
	ticketIndex map[string]*Ticket
	assignment  map[string]*types.RaceAssignment
	serverAddr  string
	catalog     *stats.Catalog
	rng         *rand.Rand
	botWait     time.Duration
	onAssign    func(types.RaceAssignment)
	log         *logger.Logger
}

func NewQueue(serverAddr string, cat *stats.Catalog, rng *rand.Rand, log *logger.Logger) *Queue {
	if serverAddr == "" {
		serverAddr = "ws://localhost:9103/ws"
	}
	if cat == nil {
		cat = stats.DefaultCatalog()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Queue{
		ticketIndex: make(map[string]*Ticket),
		assignment:  make(map[string]*types.RaceAssignment),
		serverAddr:  serverAddr,
		catalog:     cat,
		rng:         rng,
		botWait:     DefaultBotWait,
		log:         log,
	}
}

// SetBotWait changes how long the oldest entrant waits before bots fill the field.
func (q *Queue) SetBotWait(d time.Duration) {
	q.mu.Lock()
	q.botWait = d
	q.mu.Unlock()
}

// OnAssign registers fn to receive every formed field. fn runs on the Run
// goroutine after the lobby lock is released.
func (q *Queue) OnAssign(fn func(types.RaceAssignment)) {
	q.mu.Lock()
	q.onAssign = fn
	q.mu.Unlock()
}

func nextID() string {
	return uuid.NewV4().String()
}

func (q *Queue) resolve(req types.EntryRequest) (string, stats.Stats, error) {
	var (
		preset string
		s      stats.Stats
	)
	if req.Stats != nil {
		s = stats.Stats(*req.Stats).Clamped()
	} else {
		name := req.Preset
		if name == "" {
			name = DefaultPreset
		}
		p, ok := q.catalog.Lookup(name)
		if !ok {
			return "", stats.Stats{}, errors.Errorf("unknown preset %q", name)
		}
		preset, s = p.Name, p.Stats
	}
	if e := req.Enhancement; e != nil {
		t, ok := stats.ParseType(e.Stat)
		if !ok {
			return "", stats.Stats{}, errors.Errorf("unknown stat %q", e.Stat)
		}
		s.Modify(stats.Enhancement{Stat: t, Value: e.Value}.Modifier())
	}
	return preset, s, nil
}

// Join adds an entrant and returns the charms they may pick from.
func (q *Queue) Join(req types.EntryRequest) (types.EntryResponse, error) {
	if req.PlayerID == "" {
		return types.EntryResponse{}, errors.New("player_id is required")
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	preset, s, err := q.resolve(req)
	if err != nil {
		return types.EntryResponse{}, errors.Wrapf(err, "join %s", req.PlayerID)
	}
	name := req.DisplayName
	if name == "" {
		name = req.PlayerID
	}
	ticket := &Ticket{
		TicketID:    nextID(),
		PlayerID:    req.PlayerID,
		DisplayName: name,
		Preset:      preset,
		Stats:       s,
		Charms:      stats.RandomCharms(q.rng, CharmOffers),
		JoinedAt:    time.Now().UTC(),
		Status:      StatusWaiting,
	}
	q.waiting = append(q.waiting, ticket)
	q.ticketIndex[ticket.TicketID] = ticket

	offers := make([]types.CharmOffer, len(ticket.Charms))
	for i, c := range ticket.Charms {
		offers[i] = types.CharmOffer{Index: i, Description: c.Describe(), Delta: types.StatBlock(c.Modifier)}
	}
	return types.EntryResponse{TicketID: ticket.TicketID, Status: ticket.Status, Charms: offers}, nil
}

// ChooseCharm applies one of the offered charms to the entrant's stats.
func (q *Queue) ChooseCharm(ticketID string, index int) (types.StatBlock, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	t, ok := q.ticketIndex[ticketID]
	if !ok {
		return types.StatBlock{}, ErrUnknownTicket
	}
	if t.Status != StatusWaiting {
		return types.StatBlock{}, ErrNotWaiting
	}
	if t.CharmChosen {
		return types.StatBlock{}, ErrCharmTaken
	}
	if index < 0 || index >= len(t.Charms) {
		return types.StatBlock{}, errors.Errorf("charm index %d out of range [0,%d)", index, len(t.Charms))
	}
	t.Stats.Modify(t.Charms[index].Modifier)
	t.CharmChosen = true
	return types.StatBlock(t.Stats), nil
}

// Leave removes a waiting ticket.
func (q *Queue) Leave(ticketID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	t, ok := q.ticketIndex[ticketID]
	if !ok {
		return false
	}
	for i := range q.waiting {
		if q.waiting[i].TicketID == ticketID {
			q.waiting = append(q.waiting[:i], q.waiting[i+1:]...)
			break
		}
	}
	t.Status = StatusCancelled
	delete(q.ticketIndex, ticketID)
	delete(q.assignment, ticketID)
	return true
}

// Poll returns current ticket status and assignment if available.
func (q *Queue) Poll(ticketID string) types.EntryPollResponse {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if a, ok := q.assignment[ticketID]; ok {
		copyA := *a
		copyA.Roster = append([]types.RosterEntry(nil), a.Roster...)
		return types.EntryPollResponse{TicketID: ticketID, Status: StatusAssigned, Assignment: &copyA}
	}

	t, ok := q.ticketIndex[ticketID]
	if !ok {
		return types.EntryPollResponse{TicketID: ticketID, Status: StatusNotFound}
	}
	return types.EntryPollResponse{TicketID: ticketID, Status: t.Status}
}

// Waiting is the number of entrants not yet placed.
func (q *Queue) Waiting() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.waiting)
}

// Run continuously evaluates the lobby and forms fields.
func (q *Queue) Run(ctx context.Context, cadence time.Duration, fieldSize int) {
	if cadence <= 0 {
		cadence = time.Second
	}
	if fieldSize < MinFieldSize {
		fieldSize = MinFieldSize
	}

	ticker := time.NewTicker(cadence)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			q.process(fieldSize)
		}
	}
}

func (q *Queue) process(fieldSize int) {
	q.mu.Lock()
	now := time.Now().UTC()
	sort.SliceStable(q.waiting, func(i, j int) bool {
		return q.waiting[i].JoinedAt.Before(q.waiting[j].JoinedAt)
	})

	var formed []types.RaceAssignment
	for len(q.waiting) >= fieldSize {
		formed = append(formed, q.assign(q.waiting[:fieldSize], 0, now))
		q.waiting = q.waiting[fieldSize:]
	}
	if len(q.waiting) > 0 && now.Sub(q.waiting[0].JoinedAt) >= q.botWait {
		formed = append(formed, q.assign(q.waiting, fieldSize-len(q.waiting), now))
		q.waiting = nil
	}
	hook := q.onAssign
	q.mu.Unlock()

	if hook == nil {
		return
	}
	for _, a := range formed {
		hook(a)
	}
}

// assign places field in one race and returns the assignment without a ticket.
func (q *Queue) assign(field []*Ticket, bots int, now time.Time) types.RaceAssignment {
	raceID := nextID()
	roster := make([]types.RosterEntry, 0, len(field)+bots)
	for _, t := range field {
		roster = append(roster, types.RosterEntry{
			PlayerID: t.PlayerID,
			Name:     t.DisplayName,
			Preset:   t.Preset,
			Stats:    types.StatBlock(t.Stats),
		})
	}
	for i := 0; i < bots; i++ {
		p, ok := q.catalog.Random(q.rng)
		if !ok {
			q.log.Printf("race %s: empty catalog, field short by %d", raceID, bots-i)
			break
		}
		roster = append(roster, types.RosterEntry{Name: p.Name, Preset: p.Name, IsBot: true, Stats: types.StatBlock(p.Stats)})
	}

	for _, t := range field {
		t.Status = StatusAssigned
		q.assignment[t.TicketID] = &types.RaceAssignment{
			TicketID:    t.TicketID,
			RaceID:      raceID,
			Roster:      roster,
			BotFill:     bots > 0,
			ServerAddr:  q.serverAddr,
			FoundAtUnix: now.Unix(),
		}
	}
	q.log.Printf("race %s formed players=%d bots=%d", raceID, len(field), bots)
	return types.RaceAssignment{
		RaceID:      raceID,
		Roster:      append([]types.RosterEntry(nil), roster...),
		BotFill:     bots > 0,
		ServerAddr:  q.serverAddr,
		FoundAtUnix: now.Unix(),
	}
}
