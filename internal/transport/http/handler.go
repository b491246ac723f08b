package http

import (
	"encoding/json"
	"net/http"

	"quiz-server/internal/app"
	"quiz-server/internal/server"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Handler exposes health, stats and a websocket transport for quiz sessions.
type Handler struct {
	service      *app.QuizService
	dispatcher   *server.Dispatcher
	maxLineBytes int
	logger       logrus.FieldLogger
	upgrader     websocket.Upgrader
}

func NewHandler(service *app.QuizService, dispatcher *server.Dispatcher, maxLineBytes int, logger logrus.FieldLogger) *Handler {
	return &Handler{
		service:      service,
		dispatcher:   dispatcher,
		maxLineBytes: maxLineBytes,
		logger:       logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Routes registers the handler's endpoints on a new mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/stats", h.ServeStats)
	mux.HandleFunc("/ws", h.ServeWS)
	return mux
}

type statsResponse struct {
	app.Stats
	Questions int `json:"questions"`
	Workers   int `json:"workers"`
	Running   int `json:"running"`
	Waiting   int `json:"waiting"`
}

// ServeStats reports tracked sessions and pool occupancy as JSON.
func (h *Handler) ServeStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.logger.WithError(err).Warn("read session stats failed")
		http.Error(w, "stats unavailable", http.StatusServiceUnavailable)
		return
	}
	pool := h.dispatcher.Pool()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(statsResponse{
		Stats:     stats,
		Questions: h.service.Bank().Count(),
		Workers:   pool.Size(),
		Running:   pool.Running(),
		Waiting:   pool.Waiting(),
	})
}

// ServeWS upgrades the request and runs a quiz session over the websocket.
// The session waits for a pool slot like any TCP session.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("ws upgrade failed")
		return
	}
	done, err := h.dispatcher.Dispatch(r.Context(), "ws", newWSConn(conn, h.maxLineBytes))
	if err != nil {
		return
	}
	<-done
}
