package types

import "time"

// Vec2 is a position or vector on the track plane.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// StatBlock mirrors the five agent stats on the wire.
type StatBlock struct {
	Speed        float64 `json:"speed"`
	Acceleration float64 `json:"acceleration"`
	Health       int     `json:"health"`
	Intelligence int     `json:"intelligence"`
	Strength     int     `json:"strength"`
}

// AgentState is the replicated state of one cat.
type AgentState struct {
	AgentID        string    `json:"agent_id"`
	Name           string    `json:"name"`
	Preset         string    `json:"preset,omitempty"`
	PlayerID       string    `json:"player_id,omitempty"`
	IsBot          bool      `json:"is_bot"`
	Position       Vec2      `json:"position"`
	Velocity       Vec2      `json:"velocity"`
	HeadingDeg     float64   `json:"heading_deg"`
	AIState        string    `json:"ai_state"` // moving|avoiding|overtaking|defending|recovery
	Moving         bool      `json:"moving"`
	Exhausted      bool      `json:"exhausted"`
	Enabled        bool      `json:"enabled"`
	Health         int       `json:"health"`
	MaxHealth      int       `json:"max_health"`
	TargetWaypoint int       `json:"target_waypoint"`
	Stats          StatBlock `json:"stats"`
}

// ProgressState is one row of the standings.
type ProgressState struct {
	AgentID         string  `json:"agent_id"`
	Name            string  `json:"name"`
	Rank            int     `json:"rank"`
	Lap             int     `json:"lap"`
	TrackedWaypoint int     `json:"tracked_waypoint"`
	LapProgress     float64 `json:"lap_progress"`
	TotalProgress   float64 `json:"total_progress"`
	Distance        float64 `json:"distance"`
	LapTime         float64 `json:"lap_time"`
	TotalTime       float64 `json:"total_time"`
	Finished        bool    `json:"finished"`
}

// RaceSnapshot is replicated to all viewers.
type RaceSnapshot struct {
	RaceID    string          `json:"race_id"`
	Tick      uint64          `json:"tick"`
	State     string          `json:"state"` // pre_race|countdown|racing|finished|post_race
	Clock     float64         `json:"clock"`
	TotalLaps int             `json:"total_laps"`
	Countdown int             `json:"countdown"` // seconds left, -1 outside the countdown
	CreatedAt time.Time       `json:"created_at"`
	Agents    []AgentState    `json:"agents"`
	Standings []ProgressState `json:"standings"`
}

// RaceEvent tracks lifecycle and progress changes worth UI feedback.
type RaceEvent struct {
	Type       string  `json:"type"` // prepared|countdown_tick|started|finished|lap_completed|...
	RaceID     string  `json:"race_id,omitempty"`
	AgentID    string  `json:"agent_id,omitempty"`
	Seconds    int     `json:"seconds,omitempty"`
	Lap        int     `json:"lap,omitempty"`
	Clock      float64 `json:"clock"`
	OccurredMS int64   `json:"occurred_ms"`
}

// BoostRequest is an in-race stat boost.
type BoostRequest struct {
	AgentID string    `json:"agent_id,omitempty"`
	Delta   StatBlock `json:"delta"`
}

// ClientEnvelope is sent from viewer to server.
type ClientEnvelope struct {
	Type  string        `json:"type"` // hello|ping|boost
	Boost *BoostRequest `json:"boost,omitempty"`
}

// ServerEnvelope is sent from server to viewer.
type ServerEnvelope struct {
	Type     string        `json:"type"` // welcome|state|event|pong|error
	Tick     uint64        `json:"tick,omitempty"`
	State    *RaceSnapshot `json:"state,omitempty"`
	Event    *RaceEvent    `json:"event,omitempty"`
	ServerMS int64         `json:"server_ms,omitempty"`
	Message  string        `json:"message,omitempty"`
}

// EnhancementRequest boosts one stat before the race.
type EnhancementRequest struct {
	Stat  string `json:"stat"`
	Value int    `json:"value"`
}

// EntryRequest requests a place in the next race.
type EntryRequest struct {
	PlayerID    string              `json:"player_id"`
	DisplayName string              `json:"display_name"`
	Preset      string              `json:"preset,omitempty"`
	Stats       *StatBlock          `json:"stats,omitempty"`
	Enhancement *EnhancementRequest `json:"enhancement,omitempty"`
}

// CharmOffer is one charm the entrant may pick.
type CharmOffer struct {
	Index       int       `json:"index"`
	Description string    `json:"description"`
	Delta       StatBlock `json:"delta"`
}

// EntryResponse returns a ticket for polling plus the charm offers.
type EntryResponse struct {
	TicketID string       `json:"ticket_id"`
	Status   string       `json:"status"`
	Charms   []CharmOffer `json:"charms"`
}

// CharmChoiceRequest picks one of the offered charms.
type CharmChoiceRequest struct {
	Index int `json:"index"`
}

// RosterEntry is one resolved racer in an assignment.
type RosterEntry struct {
	PlayerID string    `json:"player_id,omitempty"`
	Name     string    `json:"name"`
	Preset   string    `json:"preset,omitempty"`
	IsBot    bool      `json:"is_bot"`
	Stats    StatBlock `json:"stats"`
}

// RaceAssignment is returned once a ticket is placed in a field.
type RaceAssignment struct {
	TicketID    string        `json:"ticket_id"`
	RaceID      string        `json:"race_id"`
	Roster      []RosterEntry `json:"roster"`
	BotFill     bool          `json:"bot_fill"`
	ServerAddr  string        `json:"server_addr"`
	FoundAtUnix int64         `json:"found_at_unix"`
}

// EntryPollResponse represents current lobby status.
type EntryPollResponse struct {
	TicketID   string          `json:"ticket_id"`
	Status     string          `json:"status"` // waiting|assigned|not_found
	Assignment *RaceAssignment `json:"assignment,omitempty"`
}
