package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
)

// ============================================================================
// IPC Server - Unix Domain Socket Interface
// ============================================================================
// The IPC server allows external clients to send JSON requests to the daemon
// via a Unix domain socket. This enables:
//   - Remote control via the glmctl command-line tool
//   - UI/Web interface control
//   - Scripting and automation
//
// Protocol: Line-delimited JSON
//   - Client sends: {"type": "request_name", "data": {...}}
//   - Server responds: {"status": "ok", "data": {...}} or
//     {"status": "error", "error": "msg"}
// ============================================================================

// Request is the envelope a client sends, with a type discriminator and an
// optional typed payload.
type Request struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Response represents the response sent back to IPC clients
type Response struct {
	Status string          `json:"status"`          // "ok" or "error"
	Error  string          `json:"error,omitempty"` // error message if status == "error"
	Data   json.RawMessage `json:"data,omitempty"`  // request-specific payload
}

// Handler executes one request and returns its payload (may be nil).
type Handler interface {
	Handle(req Request) (any, error)
}

// RunServer starts the Unix domain socket server.
// It runs until ctx is canceled, at which point it closes the listener and exits.
//
// This function is context-aware so the main program can implement proper shutdown semantics.
func RunServer(ctx context.Context, socketPath string, handler Handler, logger *slog.Logger) error {
	// Remove existing socket file if it exists
	if err := os.RemoveAll(socketPath); err != nil {
		return fmt.Errorf("remove existing socket: %w", err)
	}

	// Create Unix domain socket listener
	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", socketPath, err)
	}
	defer listener.Close()
	defer os.Remove(socketPath)

	// Make socket accessible (consider security implications in production)
	if err := os.Chmod(socketPath, 0666); err != nil {
		return fmt.Errorf("chmod socket: %w", err)
	}

	logger.Info("IPC listening", "socket", socketPath)

	// Close the listener on shutdown. This unblocks Accept().
	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			// Exit cleanly on shutdown/close.
			if ctx.Err() != nil {
				logger.Debug("IPC listener closed (shutdown)")
				return nil
			}

			// Some platforms return net.ErrClosed; keep this defensive.
			if errors.Is(err, net.ErrClosed) || strings.Contains(err.Error(), "use of closed network connection") {
				logger.Debug("IPC listener closed")
				return nil
			}

			logger.Error("IPC accept error", "error", err)
			continue
		}

		// Handle connection in a separate goroutine.
		go handleConnection(conn, handler, logger)
	}
}

// handleConnection processes a single IPC client connection
func handleConnection(conn net.Conn, handler Handler, logger *slog.Logger) {
	defer conn.Close()

	logger.Debug("IPC connection", "remote_addr", conn.RemoteAddr())

	scanner := bufio.NewScanner(conn)
	encoder := json.NewEncoder(conn)

	for scanner.Scan() {
		line := scanner.Text()
		logger.Debug("IPC received", "line", line)

		var req Request
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			writeResponse(encoder, Response{
				Status: "error",
				Error:  fmt.Sprintf("parse request: %v", err),
			}, logger)
			continue
		}

		payload, err := handler.Handle(req)
		if err != nil {
			writeResponse(encoder, Response{Status: "error", Error: err.Error()}, logger)
			continue
		}

		resp := Response{Status: "ok"}
		if payload != nil {
			data, err := json.Marshal(payload)
			if err != nil {
				writeResponse(encoder, Response{
					Status: "error",
					Error:  fmt.Sprintf("marshal response: %v", err),
				}, logger)
				continue
			}
			resp.Data = data
		}
		writeResponse(encoder, resp, logger)
	}

	logger.Debug("IPC connection closed")
}

func writeResponse(encoder *json.Encoder, resp Response, logger *slog.Logger) {
	if err := encoder.Encode(resp); err != nil {
		logger.Error("IPC failed to send response", "error", err)
	}
}
