package ipc

import (
	"encoding/json"
	"fmt"
	"net"
)

// ============================================================================
// IPC Client Utility Functions
// ============================================================================
// These functions can be used to send requests to the daemon from external
// programs or for testing.
// ============================================================================

// Call sends one request to the daemon via IPC and returns the response data.
func Call(socketPath string, req Request) (json.RawMessage, error) {
	// Connect to socket
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", socketPath, err)
	}
	defer conn.Close()

	// Marshal request
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	// Send request (line-delimited JSON)
	if _, err := fmt.Fprintf(conn, "%s\n", data); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	// Read response
	decoder := json.NewDecoder(conn)
	var resp Response
	if err := decoder.Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if resp.Status != "ok" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return resp.Data, nil
}

// CallInto is Call with the response data decoded into a typed value.
func CallInto(socketPath string, req Request, into any) error {
	data, err := Call(socketPath, req)
	if err != nil {
		return err
	}
	if into == nil {
		return nil
	}
	if len(data) == 0 {
		return fmt.Errorf("daemon returned no data for %s", req.Type)
	}
	if err := json.Unmarshal(data, into); err != nil {
		return fmt.Errorf("decode %s data: %w", req.Type, err)
	}
	return nil
}
