// Command alin-mcp bridges an MCP client speaking stdio to the /mcp endpoint
// of a running alin-server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
)

const defaultServerURL = "http://localhost:8080"

func main() {
	serverURL := strings.TrimRight(os.Getenv("ALIN_SERVER_URL"), "/")
	if serverURL == "" {
		serverURL = defaultServerURL
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bridge := NewBridge(serverURL+"/mcp", &http.Client{Timeout: 120 * time.Second})
	if err := bridge.Run(ctx, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "alin-mcp: %v\n", err)
		os.Exit(1)
	}
}
