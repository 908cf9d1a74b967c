// Package gateway maintains the websocket connection to the chat platform:
// it decodes inbound interaction events for the dispatcher and implements
// the outbound Publisher/Responder operations as gateway frames. This layer
// is a thin I/O wrapper; all decisions live behind the dispatcher.
package gateway

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"studytables/pkg/interfaces"
	"studytables/pkg/types"
)

// EventHandler consumes inbound interaction events.
type EventHandler interface {
	HandleEvent(ctx context.Context, event *types.InteractionEvent) error
}

// Config holds gateway connection settings.
type Config struct {
	URL            string
	Token          string
	CommandName    string
	GuildID        string
	PingInterval   time.Duration
	RequestTimeout time.Duration
}

// Client is the gateway connection. A single writer goroutine owns all
// socket writes; requests that need a response (publishing, which returns
// the new message ID) are correlated by nonce.
type Client struct {
	config  Config
	handler EventHandler

	mu      sync.Mutex
	conn    *websocket.Conn
	pending map[string]chan *frame
	names   map[string]string // "guildID/userID" -> display name
	closed  bool

	writes   chan *frame
	shutdown chan struct{}
	wg       sync.WaitGroup
}

// NewClient creates a gateway client that dispatches events to handler.
func NewClient(config Config, handler EventHandler) *Client {
	if config.PingInterval <= 0 {
		config.PingInterval = 30 * time.Second
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 10 * time.Second
	}
	return &Client{
		config:   config,
		handler:  handler,
		pending:  make(map[string]chan *frame),
		names:    make(map[string]string),
		writes:   make(chan *frame, 64),
		shutdown: make(chan struct{}),
	}
}

// Run connects and serves the gateway until ctx is cancelled or Close is
// called, reconnecting with capped exponential backoff on connection loss.
func (c *Client) Run(ctx context.Context) {
	backoff := time.Second
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.shutdown:
			return
		default:
		}

		if err := c.connectAndServe(ctx); err != nil {
			log.Printf("Gateway connection lost: %v (reconnecting in %s)", err, backoff)
		}

		select {
		case <-ctx.Done():
			return
		case <-c.shutdown:
			return
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

// connectAndServe dials the gateway, identifies, registers the setup
// command, and pumps frames until the connection drops.
func (c *Client) connectAndServe(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.config.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to dial gateway: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	c.enqueue(&frame{Op: opIdentify, Token: c.config.Token})
	c.registerCommands()

	log.Printf("Gateway connected to %s", c.config.URL)

	done := make(chan struct{})
	c.wg.Add(2)
	go c.writeLoop(conn, done)
	go c.pingLoop(conn, done)

	err = c.readLoop(ctx, conn)

	close(done)
	_ = conn.Close()
	c.wg.Wait()
	c.failPending()

	c.mu.Lock()
	c.conn = nil
	c.mu.Unlock()
	return err
}

// registerCommands registers the setup command once per connection. With a
// configured guild the command is scoped to it; otherwise it registers
// globally. A plain branch, decided by configuration at startup.
func (c *Client) registerCommands() {
	spec := commandSpec{
		Name:        c.config.CommandName,
		Description: "Open the Study Tables setup modal",
	}
	if c.config.GuildID != "" {
		spec.GuildID = c.config.GuildID
		log.Printf("Registering command %q for guild %s", spec.Name, spec.GuildID)
	} else {
		log.Printf("Registering command %q globally", spec.Name)
	}
	c.enqueue(&frame{Op: opRegister, Commands: []commandSpec{spec}})
}

// readLoop decodes inbound frames until the connection fails.
func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			return err
		}

		switch f.Op {
		case opDispatch:
			if f.Event == nil {
				log.Printf("Gateway dispatch frame without event, dropped")
				continue
			}
			c.rememberName(f.Event)
			go func(event *types.InteractionEvent) {
				if err := c.handler.HandleEvent(ctx, event); err != nil {
					log.Printf("Event %s failed: %v", event.ID, err)
				}
			}(f.Event)

		case opResult:
			c.deliverResult(&f)

		default:
			log.Printf("Gateway sent unknown op %q, dropped", f.Op)
		}
	}
}

// writeLoop is the single owner of socket writes.
func (c *Client) writeLoop(conn *websocket.Conn, done chan struct{}) {
	defer c.wg.Done()
	for {
		select {
		case f := <-c.writes:
			if err := conn.WriteJSON(f); err != nil {
				log.Printf("Gateway write failed: %v", err)
				return
			}
		case <-done:
			return
		}
	}
}

// pingLoop keeps the connection alive.
func (c *Client) pingLoop(conn *websocket.Conn, done chan struct{}) {
	defer c.wg.Done()
	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			deadline := time.Now().Add(10 * time.Second)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// enqueue hands a frame to the write loop, dropping it if the client is
// shutting down or the buffer is full.
func (c *Client) enqueue(f *frame) {
	select {
	case c.writes <- f:
	case <-c.shutdown:
	default:
		log.Printf("Gateway write buffer full, dropped %s frame", f.Op)
	}
}

// request sends a frame and waits for the result frame with the same nonce.
func (c *Client) request(ctx context.Context, f *frame) (*frame, error) {
	f.Nonce = uuid.New().String()
	result := make(chan *frame, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, interfaces.ErrGatewayClosed
	}
	c.pending[f.Nonce] = result
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, f.Nonce)
		c.mu.Unlock()
	}()

	c.enqueue(f)

	select {
	case res, ok := <-result:
		if !ok {
			return nil, interfaces.ErrGatewayClosed
		}
		if res.Error != "" {
			return nil, fmt.Errorf("gateway error: %s", res.Error)
		}
		return res, nil
	case <-time.After(c.config.RequestTimeout):
		return nil, interfaces.ErrGatewayTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// deliverResult hands a result frame to its waiting request.
func (c *Client) deliverResult(f *frame) {
	c.mu.Lock()
	result, exists := c.pending[f.Nonce]
	if exists {
		delete(c.pending, f.Nonce)
	}
	c.mu.Unlock()
	if exists {
		result <- f
	}
}

// failPending closes out requests stranded by a connection loss.
func (c *Client) failPending() {
	c.mu.Lock()
	for nonce, result := range c.pending {
		close(result)
		delete(c.pending, nonce)
	}
	c.mu.Unlock()
}

// rememberName caches the display name carried on an inbound event so
// volunteer lists can resolve users who have interacted.
func (c *Client) rememberName(event *types.InteractionEvent) {
	if event.UserName == "" {
		return
	}
	c.mu.Lock()
	c.names[event.GuildID+"/"+event.UserID] = event.UserName
	c.mu.Unlock()
}

// ResolveName implements interfaces.NameResolver from the name cache.
func (c *Client) ResolveName(guildID, userID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	name, ok := c.names[guildID+"/"+userID]
	return name, ok
}

// PublishMessage posts a public message and returns its platform-assigned
// ID. Implements interfaces.Publisher.
func (c *Client) PublishMessage(ctx context.Context, channelID string, payload *types.DisplayPayload, controls []types.Control) (string, error) {
	res, err := c.request(ctx, &frame{
		Op:        opPublish,
		ChannelID: channelID,
		Payload:   payload,
		Controls:  controls,
	})
	if err != nil {
		return "", err
	}
	if res.MessageID == "" {
		return "", fmt.Errorf("gateway publish result missing message ID")
	}
	return res.MessageID, nil
}

// EditMessage replaces a posted message's payload and controls.
func (c *Client) EditMessage(ctx context.Context, channelID, messageID string, payload *types.DisplayPayload, controls []types.Control) error {
	_, err := c.request(ctx, &frame{
		Op:        opEdit,
		ChannelID: channelID,
		MessageID: messageID,
		Payload:   payload,
		Controls:  controls,
	})
	return err
}

// RespondEphemeral sends a private text reply to an interaction.
func (c *Client) RespondEphemeral(ctx context.Context, interactionID, content string) error {
	c.enqueue(&frame{Op: opReply, InteractionID: interactionID, Content: content, Ephemeral: true})
	return nil
}

// RespondEphemeralPayload sends a private reply with a rendered payload and
// controls.
func (c *Client) RespondEphemeralPayload(ctx context.Context, interactionID, content string, payload *types.DisplayPayload, controls []types.Control) error {
	c.enqueue(&frame{
		Op:            opReply,
		InteractionID: interactionID,
		Content:       content,
		Ephemeral:     true,
		Payload:       payload,
		Controls:      controls,
	})
	return nil
}

// OpenModal shows a form to the interacting user.
func (c *Client) OpenModal(ctx context.Context, interactionID string, modal *types.ModalPrompt) error {
	c.enqueue(&frame{Op: opModal, InteractionID: interactionID, Modal: modal})
	return nil
}

// Connected reports whether a connection attempt has succeeded and not yet
// been torn down.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil && !c.closed
}

// Close stops the client and its reconnect loop.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	c.mu.Unlock()

	close(c.shutdown)
	if conn != nil {
		_ = conn.Close()
	}
	return nil
}
