package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	stdsync "sync"
	"time"

	"github.com/gorilla/websocket"

	"matetrip-backend/internal/protocol"
)

// EventHandler consumes the authoritative broadcast stream of one workspace.
// *Store implements it; wrappers may intercept events (e.g. to invalidate a
// RouteCache) before forwarding.
type EventHandler interface {
	HandleSync(pois []protocol.Poi)
	HandlePoiMarked(poi protocol.Poi)
	HandlePoiUnmarked(poiID string)
	HandleScheduleAdded(poiID string, planDayID int64)
	HandleScheduleRemoved(poiID string, planDayID int64)
	HandleReordered(planDayID int64, poiIDs []string)
}

var (
	// ErrNotConnected is returned when an intent is sent while the channel
	// has no live connection. Intents are not queued; the caller re-derives
	// them from current UI state if the user retries.
	ErrNotConnected = errors.New("channel not connected")
)

const (
	reconnectBaseDelay = time.Second
	reconnectMaxDelay  = 30 * time.Second
	writeTimeout       = 5 * time.Second
)

// Channel is the client side of the Transport Channel: one persistent
// WebSocket connection to the plan hub, scoped to one workspace. On every
// (re)connect the server pushes a full sync which the handler must treat as
// fully authoritative.
type Channel struct {
	url         string
	token       string
	workspaceID int64
	handler     EventHandler

	mu        stdsync.Mutex
	conn      *websocket.Conn
	connected bool

	cancel context.CancelFunc
	done   chan struct{}

	// OnConnectionChange, when set before Join, is called with the new
	// connection state ("syncing" indicator hook).
	OnConnectionChange func(connected bool)
}

// NewChannel creates a channel for one workspace. url is the full WebSocket
// endpoint, e.g. "ws://host:8080/ws/plan/42"; token is the access token used
// as a cookie during the upgrade.
func NewChannel(url, token string, workspaceID int64, handler EventHandler) *Channel {
	return &Channel{
		url:         url,
		token:       token,
		workspaceID: workspaceID,
		handler:     handler,
	}
}

// Join establishes the channel and starts the read/reconnect loop. Idempotent:
// a second call on a live channel is a no-op.
func (c *Channel) Join(ctx context.Context) error {
	c.mu.Lock()
	if c.done != nil {
		c.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done
	c.mu.Unlock()

	// First connect is synchronous so the caller learns about a dead server
	// immediately; reconnects happen in the background.
	if err := c.connect(runCtx); err != nil {
		c.mu.Lock()
		c.cancel = nil
		c.done = nil
		c.mu.Unlock()
		cancel()
		close(done)
		return fmt.Errorf("failed to join workspace %d: %w", c.workspaceID, err)
	}

	// run owns this done channel; Leave may detach c.done from the struct
	// before run ever observes it, so it is handed over here, not re-read.
	go c.run(runCtx, done)
	return nil
}

// SendIntent marshals and sends one intent. Fire-and-forget: correctness
// comes from the broadcast stream, not from any acknowledgment.
func (c *Channel) SendIntent(t protocol.MessageType, payload any) error {
	env, err := protocol.NewEnvelope(t, payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected || c.conn == nil {
		return ErrNotConnected
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Leave sends a best-effort leave notification and closes the channel.
func (c *Channel) Leave() {
	_ = c.SendIntent(protocol.IntentLeave, nil)

	c.mu.Lock()
	cancel := c.cancel
	done := c.done
	conn := c.conn
	c.cancel = nil
	c.done = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.Close()
	}
	if done != nil {
		<-done
	}
}

func (c *Channel) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	header := http.Header{}
	if c.token != "" {
		header.Set("Cookie", "access_token="+c.token)
	}

	conn, _, err := dialer.DialContext(ctx, c.url, header)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	if c.OnConnectionChange != nil {
		c.OnConnectionChange(true)
	}
	log.Printf("[Channel] connected to workspace %d", c.workspaceID)
	return nil
}

// run reads events until the connection drops, then reconnects with backoff
// until the channel is left or the context ends.
func (c *Channel) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		c.readLoop()

		c.mu.Lock()
		c.connected = false
		c.conn = nil
		c.mu.Unlock()
		if c.OnConnectionChange != nil {
			c.OnConnectionChange(false)
		}

		delay := reconnectBaseDelay
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			if err := c.connect(ctx); err != nil {
				log.Printf("[Channel] reconnect failed: %v (retrying in %s)", err, delay)
				if delay *= 2; delay > reconnectMaxDelay {
					delay = reconnectMaxDelay
				}
				continue
			}
			break
		}
	}
}

func (c *Channel) readLoop() {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Printf("[Channel] read error: %v", err)
			return
		}

		var env protocol.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		c.dispatch(env)
	}
}

func (c *Channel) dispatch(env protocol.Envelope) {
	payload, err := protocol.DecodeEvent(env)
	if err != nil {
		log.Printf("[Channel] dropping event: %v", err)
		return
	}

	switch p := payload.(type) {
	case *protocol.SyncPayload:
		c.handler.HandleSync(p.Pois)
	case *protocol.PoiMarkedPayload:
		c.handler.HandlePoiMarked(p.Poi)
	case *protocol.PoiUnmarkedPayload:
		c.handler.HandlePoiUnmarked(p.PoiID)
	case *protocol.ScheduleEventPayload:
		if env.Type == protocol.EventScheduleAdded {
			c.handler.HandleScheduleAdded(p.PoiID, p.PlanDayID)
		} else {
			c.handler.HandleScheduleRemoved(p.PoiID, p.PlanDayID)
		}
	case *protocol.ReorderedPayload:
		c.handler.HandleReordered(p.PlanDayID, p.PoiIDs)
	}
}
