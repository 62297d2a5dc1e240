package main

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/mmporong/CatRace/internal/lobby"
	"github.com/mmporong/CatRace/internal/shared/logger"
	"github.com/mmporong/CatRace/internal/shared/types"
	"github.com/mmporong/CatRace/internal/stats"
)

func main() {
	log := logger.New("lobby")
	addr := getenv("LOBBY_ADDR", ":9101")
	serverAddr := getenv("RACE_WS_ADDR", "ws://localhost:9103/ws")
	fieldURL := os.Getenv("RACE_FIELD_URL")
	fieldSize := getenvInt("FIELD_SIZE", 6)

	catalog := stats.DefaultCatalog()
	queue := lobby.NewQueue(serverAddr, catalog, rand.New(rand.NewSource(time.Now().UnixNano())), log)
	if wait := getenvInt("BOT_WAIT_SEC", 0); wait > 0 {
		queue.SetBotWait(time.Duration(wait) * time.Second)
	}
	if fieldURL != "" {
		client := &http.Client{Timeout: 5 * time.Second}
		queue.OnAssign(func(a types.RaceAssignment) {
			if err := pushField(client, fieldURL, a); err != nil {
				log.Printf("push field race=%s: %v", a.RaceID, err)
			}
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go queue.Run(ctx, time.Second, fieldSize)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handlers.CombinedLoggingHandler(os.Stdout, routes(queue, catalog)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("lobby listening on %s (race server=%s field=%d)", addr, serverAddr, fieldSize)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server failed: %v", err)
	}
}

func routes(queue *lobby.Queue, catalog *stats.Catalog) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	r.HandleFunc("/v1/presets", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, catalog.Presets())
	}).Methods(http.MethodGet)
	r.HandleFunc("/v1/lobby/join", func(w http.ResponseWriter, r *http.Request) {
		var req types.EntryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_request"})
			return
		}
		resp, err := queue.Join(req)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}).Methods(http.MethodPost)
	r.HandleFunc("/v1/lobby/poll", func(w http.ResponseWriter, r *http.Request) {
		ticketID := r.URL.Query().Get("ticket_id")
		if ticketID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "ticket_id_required"})
			return
		}
		writeJSON(w, http.StatusOK, queue.Poll(ticketID))
	}).Methods(http.MethodGet)
	r.HandleFunc("/v1/lobby/charm/{ticket}", func(w http.ResponseWriter, r *http.Request) {
		var req types.CharmChoiceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_request"})
			return
		}
		s, err := queue.ChooseCharm(mux.Vars(r)["ticket"], req.Index)
		switch {
		case errors.Cause(err) == lobby.ErrUnknownTicket:
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "ticket_not_found"})
		case err != nil:
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		default:
			writeJSON(w, http.StatusOK, s)
		}
	}).Methods(http.MethodPost)
	r.HandleFunc("/v1/lobby/leave", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			TicketID string `json:"ticket_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_request"})
			return
		}
		if body.TicketID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "ticket_id_required"})
			return
		}
		if !queue.Leave(body.TicketID) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "ticket_not_found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "left"})
	}).Methods(http.MethodPost)

	return handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)(r)
}

// pushField hands a formed field to the race server.
func pushField(client *http.Client, url string, a types.RaceAssignment) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return errors.Wrap(err, "marshal assignment")
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "post")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		return errors.Errorf("race server answered %s", resp.Status)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return fallback
}
