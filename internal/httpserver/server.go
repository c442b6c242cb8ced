package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/EchoPBX/activity-gateway/internal/activity"
	"github.com/EchoPBX/activity-gateway/internal/config"
	"github.com/EchoPBX/activity-gateway/internal/events"
	"github.com/EchoPBX/activity-gateway/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const maxBody = 1 << 20

type Server struct {
	log  *zap.Logger
	bus  *activity.Bus
	agg  *activity.Aggregator
	feed *events.Feed[activity.Update]
	m    *metrics.Metrics
	r    *chi.Mux
}

// New wires the REST facade. feed and m may be nil, in which case the
// stream and /metrics endpoints are not mounted.
func New(cfg *config.Config, log *zap.Logger, bus *activity.Bus, agg *activity.Aggregator,
	feed *events.Feed[activity.Update], m *metrics.Metrics) *Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.HTTP.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))
	s := &Server{log: log, bus: bus, agg: agg, feed: feed, m: m, r: r}
	s.routes()
	return s
}

func (s *Server) Router() http.Handler { return s.r }

func (s *Server) routes() {
	s.r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.m != nil {
		s.r.Method(http.MethodGet, "/metrics", s.m.Handler())
	}

	s.r.Route("/api", func(r chi.Router) {
		r.Post("/login", s.trigger("Login event emitted", func(b body) (activity.Payload, error) {
			return activity.Login{Username: b.Username}, b.require("username")
		}))
		r.Post("/logout", s.trigger("Logout event emitted", func(b body) (activity.Payload, error) {
			return activity.Logout{Username: b.Username}, b.require("username")
		}))
		r.Post("/purchase", s.trigger("Purchase event emitted", func(b body) (activity.Payload, error) {
			return activity.Purchase{Username: b.Username, Item: b.Item}, b.require("username", "item")
		}))
		r.Post("/profile-update", s.trigger("Profile update event emitted", func(b body) (activity.Payload, error) {
			return activity.ProfileChange{Username: b.Username, Field: b.Field}, b.require("username", "field")
		}))
		r.Get("/summary", s.summary)
		r.Post("/clear", s.clear)
		if s.feed != nil {
			r.Get("/stream", s.stream)
		}
	})
}

type ack struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// body is the union of every trigger request.
type body struct {
	Username string `json:"username"`
	Item     string `json:"item"`
	Field    string `json:"field"`
}

var errMissing = errors.New("missing required field")

func (b body) require(fields ...string) error {
	for _, f := range fields {
		var v string
		switch f {
		case "username":
			v = b.Username
		case "item":
			v = b.Item
		case "field":
			v = b.Field
		}
		if strings.TrimSpace(v) == "" {
			return &fieldError{field: f}
		}
	}
	return nil
}

type fieldError struct{ field string }

func (e *fieldError) Error() string { return e.field + " is required" }
func (e *fieldError) Unwrap() error { return errMissing }

func (s *Server) trigger(okMsg string, build func(body) (activity.Payload, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var b body
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
		if err := dec.Decode(&b); err != nil {
			writeJSON(w, http.StatusBadRequest, ack{Message: "invalid JSON body"})
			return
		}
		p, err := build(b)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ack{Message: err.Error()})
			return
		}
		if err := activity.Emit(s.bus, p); err != nil {
			s.log.Error("emit failed", zap.Stringer("kind", p.Kind()), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, ack{Message: "failed to emit event"})
			return
		}
		writeJSON(w, http.StatusOK, ack{Success: true, Message: okMsg})
	}
}

type summaryResponse struct {
	EventCount map[string]int    `json:"eventCount"`
	Logs       []activity.Record `json:"logs"`
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	sum := s.agg.Summary()
	logs := sum.Log
	switch r.URL.Query().Get("order") {
	case "", "asc":
	case "desc":
		logs = sum.Newest()
	default:
		writeJSON(w, http.StatusBadRequest, ack{Message: "order must be asc or desc"})
		return
	}
	counts := make(map[string]int, len(sum.Counts))
	for k, n := range sum.Counts {
		counts[k.String()] = n
	}
	writeJSON(w, http.StatusOK, summaryResponse{EventCount: counts, Logs: logs})
}

func (s *Server) clear(w http.ResponseWriter, r *http.Request) {
	s.agg.Reset()
	if s.m != nil {
		s.m.IncReset()
	}
	writeJSON(w, http.StatusOK, ack{Success: true, Message: "All events cleared"})
}

var upgrader = websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

const (
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	writeWait  = 10 * time.Second
)

func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}

	ch := s.feed.Subscribe()
	defer s.feed.Unsubscribe(ch)
	s.log.Debug("stream client connected", zap.String("remote", r.RemoteAddr), zap.Int("clients", s.feed.Len()))

	go func() {
		ping := time.NewTicker(pingPeriod)
		defer func() {
			ping.Stop()
			s.feed.Unsubscribe(ch)
			_ = conn.Close()
		}()
		for {
			select {
			case u, ok := <-ch:
				if !ok {
					_ = conn.WriteControl(websocket.CloseMessage, nil, time.Now().Add(writeWait))
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(u); err != nil {
					s.log.Debug("ws write error", zap.Error(err))
					return
				}
			case <-ping.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			}
		}
	}()

	// reader only watches for the client going away
	conn.SetReadLimit(1024)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
