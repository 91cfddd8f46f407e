package main

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

// stateEvent mirrors the daemon's WS envelope.
type stateEvent struct {
	Type string          `json:"type"`
	Ts   *time.Time      `json:"ts,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var wsURL string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream state change events from the daemon's WebSocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()

			dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
			conn, _, err := dialer.Dial(wsURL, nil)
			if err != nil {
				return fmt.Errorf("connect to %s: %w", wsURL, err)
			}
			defer conn.Close()

			fmt.Fprintf(stdout, "connected to %s (press Ctrl+C to exit)\n", wsURL)

			// Writes come from the ping ticker and the close handshake.
			var writeMu sync.Mutex

			conn.SetReadDeadline(time.Now().Add(60 * time.Second)) //nolint:errcheck
			conn.SetPongHandler(func(string) error {
				return conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			})

			pingTicker := time.NewTicker(30 * time.Second)
			defer pingTicker.Stop()
			go func() {
				for range pingTicker.C {
					writeMu.Lock()
					err := conn.WriteMessage(websocket.PingMessage, nil)
					writeMu.Unlock()
					if err != nil {
						return
					}
				}
			}()

			done := make(chan error, 1)
			go func() {
				for {
					_, message, err := conn.ReadMessage()
					if err != nil {
						if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
							done <- err
						} else {
							done <- nil
						}
						return
					}
					fmt.Fprint(stdout, formatStateEvent(message))
				}
			}()

			select {
			case <-cmd.Context().Done():
				writeMu.Lock()
				conn.WriteMessage(websocket.CloseMessage, //nolint:errcheck
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				writeMu.Unlock()
				return nil
			case err := <-done:
				return err
			}
		},
	}
	cmd.Flags().StringVar(&wsURL, "url", "ws://127.0.0.1:3002/ws", "State WebSocket URL")
	return cmd
}

// formatStateEvent renders one WS message as a log-style line, or pretty JSON
// for the initial snapshot and unknown event types.
func formatStateEvent(message []byte) string {
	var ev stateEvent
	if err := json.Unmarshal(message, &ev); err != nil {
		return fmt.Sprintf("[RAW] %s\n", message)
	}

	switch ev.Type {
	case "volume_changed":
		var data struct {
			VolumeDB  float64 `json:"volume_db"`
			VolumePct float64 `json:"volume_pct"`
		}
		if err := json.Unmarshal(ev.Data, &data); err == nil {
			return fmt.Sprintf("[VOLUME] %.1f dB (%.0f%%)\n", data.VolumeDB, data.VolumePct)
		}
	case "mute_changed":
		var data struct {
			Muted bool `json:"muted"`
		}
		if err := json.Unmarshal(ev.Data, &data); err == nil {
			if data.Muted {
				return "[MUTE] MUTED\n"
			}
			return "[MUTE] UNMUTED\n"
		}
	case "connection_changed":
		var data struct {
			Connected    bool `json:"connected"`
			MonitorCount int  `json:"monitor_count"`
		}
		if err := json.Unmarshal(ev.Data, &data); err == nil {
			if data.Connected {
				return fmt.Sprintf("[CONNECTION] connected, %d monitors\n", data.MonitorCount)
			}
			return "[CONNECTION] disconnected\n"
		}
	case "monitors_changed":
		var data struct {
			Monitors []json.RawMessage `json:"monitors"`
		}
		if err := json.Unmarshal(ev.Data, &data); err == nil {
			return fmt.Sprintf("[MONITORS] %d on bus\n", len(data.Monitors))
		}
	}

	pretty, err := json.MarshalIndent(ev, "", "  ")
	if err != nil {
		return fmt.Sprintf("[RAW] %s\n", message)
	}
	return fmt.Sprintf("[%s]\n%s\n", ev.Type, pretty)
}
