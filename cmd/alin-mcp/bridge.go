package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxMessageSize bounds a single JSON-RPC line read from stdin
const maxMessageSize = 10 << 20

// JSON-RPC error codes
const (
	codeParseError  = -32700
	codeServerError = -32000
)

// Bridge forwards newline-delimited JSON-RPC messages to an MCP HTTP
// endpoint and writes each reply as one line.
type Bridge struct {
	endpoint string
	client   *http.Client
}

// NewBridge creates a bridge posting to endpoint. A nil client uses
// http.DefaultClient.
func NewBridge(endpoint string, client *http.Client) *Bridge {
	if client == nil {
		client = http.DefaultClient
	}
	return &Bridge{endpoint: endpoint, client: client}
}

// Run copies messages from r to the server until r is exhausted or ctx is
// cancelled. Forwarding failures of requests are answered with a JSON-RPC
// error; failed notifications are dropped.
func (b *Bridge) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxMessageSize)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		id, ok := requestID(line)
		if !ok {
			if err := writeLine(w, rpcError(json.RawMessage("null"), codeParseError, "invalid JSON")); err != nil {
				return err
			}
			continue
		}

		reply, err := b.forward(ctx, line)
		if err != nil {
			if id == nil {
				continue
			}
			reply = rpcError(id, codeServerError, err.Error())
		}
		if len(reply) == 0 {
			continue
		}
		if err := writeLine(w, reply); err != nil {
			return err
		}
	}

	return scanner.Err()
}

// forward posts one message. Notifications are acknowledged with an empty
// body, which yields a nil reply.
func (b *Bridge) forward(ctx context.Context, msg []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(msg))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("server request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusAccepted || resp.StatusCode == http.StatusNoContent:
		return nil, nil
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	if strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream") {
		return lastEventData(body), nil
	}
	return bytes.TrimSpace(body), nil
}

// lastEventData returns the payload of the final data line of an SSE body
func lastEventData(body []byte) []byte {
	var last []byte
	for _, line := range bytes.Split(body, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if bytes.HasPrefix(line, []byte("data:")) {
			last = bytes.TrimSpace(line[len("data:"):])
		}
	}
	return last
}

// requestID returns the id of a JSON-RPC message, nil for a notification,
// and false when msg is not a JSON object.
func requestID(msg []byte) (json.RawMessage, bool) {
	var envelope struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(msg, &envelope); err != nil {
		return nil, false
	}
	return envelope.ID, true
}

func rpcError(id json.RawMessage, code int, message string) []byte {
	data, _ := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
	})
	return data
}

func writeLine(w io.Writer, data []byte) error {
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write reply: %w", err)
	}
	return nil
}
