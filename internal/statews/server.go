package statews

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"glmctl/internal/glm"
)

// InitState is the JSON `data` payload for the WS "state_init" event: the
// full controller snapshot plus the discovered monitor list.
type InitState struct {
	glm.Snapshot
	PowerOn  bool          `json:"power_on"`
	Monitors []glm.Monitor `json:"monitors"`
}

// volumeChangedData is the JSON `data` payload for "volume_changed".
type volumeChangedData struct {
	VolumeDB  float64 `json:"volume_db"`
	VolumePct float64 `json:"volume_pct"`
}

// muteChangedData is the JSON `data` payload for "mute_changed".
type muteChangedData struct {
	Muted bool `json:"muted"`
}

// connectionChangedData is the JSON `data` payload for "connection_changed".
type connectionChangedData struct {
	Connected    bool `json:"connected"`
	MonitorCount int  `json:"monitor_count"`
}

// monitorsChangedData is the JSON `data` payload for "monitors_changed".
type monitorsChangedData struct {
	Monitors []glm.Monitor `json:"monitors"`
}

// envelope is the wire format envelope for WS messages.
type envelope struct {
	Type string     `json:"type"`
	Ts   *time.Time `json:"ts,omitempty"`
	Data any        `json:"data,omitempty"`
}

// ============================================================================
// HTTP Handler + server wiring helpers
// ============================================================================

type Server struct {
	logger *slog.Logger

	hub *Hub

	// Produces the initial snapshot sent to every new client.
	initState func() InitState
}

type ServerConfig struct {
	Hub HubConfig
}

// NewServer constructs the WS state server components. Call Register on a mux
// and start hub.Run(ctx) plus RunBroadcaster.
func NewServer(logger *slog.Logger, initState func() InitState, cfg ServerConfig) *Server {
	hub := NewHub(logger, cfg.Hub)
	return &Server{
		logger:    logger,
		hub:       hub,
		initState: initState,
	}
}

func (s *Server) Hub() *Hub { return s.hub }

// Register registers the WS handler on the provided mux.
func (s *Server) Register(mux *http.ServeMux, path string) {
	if mux == nil {
		return
	}
	mux.HandleFunc(path, s.handleStateWS)
}

var upgrader = websocket.Upgrader{
	// NOTE: If you need stricter origin checks, implement them at integration time.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleStateWS upgrades and registers a client, then sends state_init.
func (s *Server) handleStateWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", "error", err)
		return
	}

	client := NewClient(s.hub, conn, r.RemoteAddr, s.logger)

	// Register client first so broadcasts can reach it.
	s.hub.register <- client

	// Start pumps.
	//
	// IMPORTANT:
	// Do not tie the pumps to the HTTP request context (r.Context()).
	// net/http cancels the request context when the handler returns, which would
	// prematurely stop the pumps and cause abnormal WS closures (e.g. code 1006).
	// The connection lifetime is instead managed by the hub (close/unregister) and
	// by the websocket read/write errors.
	go client.writePump(context.Background())
	go client.readPump(context.Background())

	if s.initState == nil {
		return
	}

	now := time.Now().UTC()
	initMsg, mErr := json.Marshal(envelope{
		Type: "state_init",
		Ts:   &now,
		Data: s.initState(),
	})
	if mErr != nil {
		s.logger.Warn("ws state_init marshal failed", "error", mErr)
		return
	}

	// Enqueue init message; if client is already slow, disconnect.
	select {
	case client.send <- initMsg:
	default:
		s.hub.unregister <- client
	}
}
