package player

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/PizzaHomicide/lectern/internal/log"
)

// MPVIPCClient provides communication with a running MPV instance
type MPVIPCClient struct {
	socketPath string
	conn       net.Conn
	writeMu    sync.Mutex
	events     chan MPVEvent
}

// MPVEvent represents an event from MPV.  Property changes carry the property in Name and its value in Data.
type MPVEvent struct {
	Event     string          `json:"event"`
	ID        int             `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Reason    string          `json:"reason,omitempty"`
	FileError string          `json:"file_error,omitempty"`
	RequestID int             `json:"request_id,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// NewMPVIPCClient creates a new MPV IPC client
func NewMPVIPCClient(socketPath string) *MPVIPCClient {
	return &MPVIPCClient{
		socketPath: socketPath,
		events:     make(chan MPVEvent, 100),
	}
}

// newConnectedIPCClient wraps an already established connection
func newConnectedIPCClient(conn net.Conn) *MPVIPCClient {
	c := NewMPVIPCClient("")
	c.conn = conn
	go c.readEvents()
	return c
}

// GetMPVSocketPath returns a socket path for MPV IPC communication that is unique to this process
func GetMPVSocketPath() string {
	if path := os.Getenv("LECTERN_MPV_SOCKET"); path != "" {
		return path
	}

	name := fmt.Sprintf("lectern-mpv-%d", os.Getpid())
	switch runtime.GOOS {
	case "windows":
		// Windows uses named pipes instead of unix sockets
		return `\\.\pipe\` + name
	default:
		runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
		if runtimeDir == "" {
			runtimeDir = os.TempDir()
		}
		return filepath.Join(runtimeDir, name+".sock")
	}
}

// WaitForConnection attempts to connect to MPV with retries
func (c *MPVIPCClient) WaitForConnection(ctx context.Context, maxAttempts int, retryDelay time.Duration) error {
	log.Debug("Waiting for MPV to create socket", "socket_path", c.socketPath, "max_attempts", maxAttempts)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		// Check if socket file exists for unix sockets
		if runtime.GOOS != "windows" {
			if _, err := os.Stat(c.socketPath); os.IsNotExist(err) {
				log.Trace("MPV socket does not exist yet", "attempt", attempt, "path", c.socketPath)
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(retryDelay):
					continue
				}
			}
		}

		err := c.Connect(ctx)
		if err == nil {
			log.Info("Successfully connected to MPV", "attempt", attempt)
			return nil
		}

		log.Debug("Failed to connect to MPV", "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryDelay):
		}
	}

	return fmt.Errorf("failed to connect to MPV after %d attempts", maxAttempts)
}

// Close closes the connection to MPV
func (c *MPVIPCClient) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// readEvents continuously reads events from MPV
func (c *MPVIPCClient) readEvents() {
	scanner := bufio.NewScanner(c.conn)
	for scanner.Scan() {
		line := scanner.Text()
		log.Trace("Raw MPV event", "data", line)

		var event MPVEvent
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			log.Error("Failed to unmarshal MPV event", "error", err)
			continue
		}

		// Command replies carry no event name
		if event.Event == "" {
			if event.Error != "" && event.Error != "success" {
				log.Warn("MPV command failed", "request_id", event.RequestID, "error", event.Error)
			}
			continue
		}

		c.events <- event
	}

	if err := scanner.Err(); err != nil {
		log.Debug("Error reading from MPV socket", "error", err)
	}

	log.Debug("MPV event reader stopped")
	close(c.events)
}

// Events returns the channel for MPV events
func (c *MPVIPCClient) Events() <-chan MPVEvent {
	return c.events
}

// SendCommand sends a command to MPV
func (c *MPVIPCClient) SendCommand(cmd []interface{}) error {
	if c.conn == nil {
		return fmt.Errorf("not connected to MPV")
	}

	data, err := json.Marshal(map[string]interface{}{
		"command": cmd,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal command: %w", err)
	}

	data = append(data, '\n')
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if _, err = c.conn.Write(data); err != nil {
		return fmt.Errorf("failed to send command: %w", err)
	}

	return nil
}

// ObserveProperty starts observing an MPV property
func (c *MPVIPCClient) ObserveProperty(id int, name string) error {
	return c.SendCommand([]interface{}{"observe_property", id, name})
}

// SetProperty sets an MPV property
func (c *MPVIPCClient) SetProperty(name string, value interface{}) error {
	return c.SendCommand([]interface{}{"set_property", name, value})
}
