package main

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	uuid "github.com/satori/go.uuid"

	"github.com/mmporong/CatRace/internal/config"
	"github.com/mmporong/CatRace/internal/shared/logger"
	"github.com/mmporong/CatRace/internal/shared/types"
	"github.com/mmporong/CatRace/internal/simulation"
	"github.com/mmporong/CatRace/internal/stats"
)

type client struct {
	id       string
	playerID string
	conn     *websocket.Conn
	send     chan []byte
}

type server struct {
	log      *logger.Logger
	host     *host
	events   *eventStore
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*client
}

func main() {
	log := logger.New("raceserver")
	addr := getEnv("RACE_ADDR", ":9103")
	tickHz := getEnvInt("TICK_HZ", 60)
	replicateHz := getEnvInt("REPLICATE_HZ", 20)
	restartDelay := time.Duration(getEnvFloat("RESTART_DELAY_SEC", 10) * float64(time.Second))

	rf := config.Default()
	if path := os.Getenv("RACE_FILE"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			log.Fatalf("load race file: %v", err)
		}
		rf = loaded
	}
	if laps := getEnvInt("RACE_LAPS", 0); laps > 0 {
		rf.TotalLaps = laps
	}

	s, err := newServer(rf, stats.DefaultCatalog(), restartDelay, log)
	if err != nil {
		log.Fatalf("init race: %v", err)
	}

	go s.runSimulationLoop(tickHz)
	go s.runReplicationLoop(replicateHz)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handlers.CombinedLoggingHandler(os.Stdout, s.routes()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("race server listening on %s (race=%s laps=%d)", addr, s.host.snapshot().RaceID, rf.TotalLaps)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server failed: %v", err)
	}
}

func newServer(rf config.RaceFile, cat *stats.Catalog, restartDelay time.Duration, log *logger.Logger) (*server, error) {
	s := &server{
		log:    log,
		events: newEventStore(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients: make(map[string]*client),
	}
	h, err := newHost(rf, cat, restartDelay, log, s.handleRaceEvent)
	if err != nil {
		return nil, err
	}
	s.host = h
	return s, nil
}

func (s *server) routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/v1/race", s.handleRace).Methods(http.MethodGet)
	r.HandleFunc("/v1/race/progress/{id}", s.handleProgress).Methods(http.MethodGet)
	r.HandleFunc("/v1/race/restart", s.handleRestart).Methods(http.MethodPost)
	r.HandleFunc("/v1/race/abort", s.handleAbort).Methods(http.MethodPost)
	r.HandleFunc("/v1/race/field", s.handleField).Methods(http.MethodPost)
	r.HandleFunc("/v1/race/boost/{id}", s.handleBoost).Methods(http.MethodPost)
	r.HandleFunc("/v1/events", s.handleEvents).Methods(http.MethodGet)
	r.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.handleWS)

	return handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)(r)
}

// handleRaceEvent runs inside the race tick with the host lock held.
func (s *server) handleRaceEvent(ev types.RaceEvent) {
	s.events.ingest(ev)
	if ev.Type == simulation.EventRankingUpdated.String() {
		// standings ride along with every state frame
		return
	}
	payload, err := json.Marshal(types.ServerEnvelope{
		Type:     "event",
		Event:    &ev,
		ServerMS: ev.OccurredMS,
	})
	if err != nil {
		s.log.Printf("marshal event failed: %v", err)
		return
	}
	s.broadcast(payload)
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleRace(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.host.snapshot())
}

func (s *server) handleProgress(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	p, ok := s.host.progress(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "agent_not_found"})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *server) handleRestart(w http.ResponseWriter, _ *http.Request) {
	if !s.host.restart() {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "restart_rejected"})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "restarting"})
}

func (s *server) handleAbort(w http.ResponseWriter, _ *http.Request) {
	s.host.abort()
	writeJSON(w, http.StatusOK, map[string]string{"status": "aborted"})
}

func (s *server) handleField(w http.ResponseWriter, r *http.Request) {
	var a types.RaceAssignment
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_request"})
		return
	}
	if err := s.host.load(a); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "loaded", "race_id": s.host.snapshot().RaceID})
}

func (s *server) handleBoost(w http.ResponseWriter, r *http.Request) {
	var req types.BoostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_request"})
		return
	}
	id, err := s.host.boost(mux.Vars(r)["id"], "", req.Delta)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "boosted", "agent_id": id})
}

func (s *server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		limit = 100
	}
	recent := s.events.listRecent(limit)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(recent),
		"events": recent,
	})
}

func (s *server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	s.mu.RLock()
	viewers := len(s.clients)
	s.mu.RUnlock()
	s.events.writeMetrics(w, s.host.snapshot(), viewers)
}

func (s *server) handleWS(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("player_id")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Printf("websocket upgrade error: %v", err)
		return
	}

	c := &client{id: uuid.NewV4().String(), playerID: playerID, conn: conn, send: make(chan []byte, 64)}
	s.register(c)

	s.log.Printf("viewer connected id=%s player=%s remote=%s", c.id, playerID, r.RemoteAddr)
	state := s.host.snapshot()
	s.sendEnvelope(c, types.ServerEnvelope{
		Type:     "welcome",
		Tick:     state.Tick,
		State:    &state,
		ServerMS: time.Now().UTC().UnixMilli(),
		Message:  "connected",
	})

	go s.writePump(c)
	s.readPump(c)
}

func (s *server) readPump(c *client) {
	defer func() {
		s.unregister(c.id)
		_ = c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Printf("viewer disconnected id=%s", c.id)
				return
			}
			s.log.Printf("read error id=%s err=%v", c.id, err)
			return
		}

		var in types.ClientEnvelope
		if err := json.Unmarshal(msg, &in); err != nil {
			s.sendError(c, "bad_payload")
			continue
		}

		switch in.Type {
		case "hello":
			state := s.host.snapshot()
			s.sendEnvelope(c, types.ServerEnvelope{Type: "state", Tick: state.Tick, State: &state, ServerMS: time.Now().UTC().UnixMilli()})
		case "boost":
			if in.Boost == nil {
				s.sendError(c, "missing_boost")
				continue
			}
			if _, err := s.host.boost(in.Boost.AgentID, c.playerID, in.Boost.Delta); err != nil {
				s.sendError(c, "unknown_agent")
			}
		case "ping":
			s.sendEnvelope(c, types.ServerEnvelope{Type: "pong", ServerMS: time.Now().UTC().UnixMilli()})
		default:
			s.sendError(c, "unsupported_message_type")
		}
	}
}

func (s *server) writePump(c *client) {
	ticker := time.NewTicker(20 * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, []byte("keepalive")); err != nil {
				return
			}
		}
	}
}

func (s *server) register(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.id] = c
}

func (s *server) unregister(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.clients[id]; ok {
		close(c.send)
		delete(s.clients, id)
	}
}

func (s *server) sendEnvelope(c *client, env types.ServerEnvelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		s.log.Printf("marshal %s failed: %v", env.Type, err)
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

func (s *server) sendError(c *client, message string) {
	s.sendEnvelope(c, types.ServerEnvelope{Type: "error", Message: message})
}

func (s *server) broadcast(payload []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clients {
		select {
		case c.send <- payload:
		default:
		}
	}
}

func (s *server) runSimulationLoop(hz int) {
	if hz <= 0 {
		hz = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(hz))
	defer ticker.Stop()
	dt := 1.0 / float64(hz)

	for now := range ticker.C {
		s.host.tick(dt, now)
	}
}

func (s *server) runReplicationLoop(hz int) {
	if hz <= 0 {
		hz = 20
	}
	ticker := time.NewTicker(time.Second / time.Duration(hz))
	defer ticker.Stop()

	for range ticker.C {
		state := s.host.snapshot()
		payload, err := json.Marshal(types.ServerEnvelope{
			Type:     "state",
			Tick:     state.Tick,
			State:    &state,
			ServerMS: time.Now().UTC().UnixMilli(),
		})
		if err != nil {
			s.log.Printf("marshal state failed: %v", err)
			continue
		}
		s.broadcast(payload)
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
