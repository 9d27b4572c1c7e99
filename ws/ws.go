// Package ws submits info and action requests over the exchange websocket
// using its "post" method, as an alternative to the REST endpoints.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"sync"
	"time"

	"github.com/banky/go-hyperliquid-agent/internal/logger"
	"github.com/coder/websocket"
)

const defaultPingInterval = 50 * time.Second

// Client is a post-only websocket connection. Requests are matched to
// responses by id.
type Client struct {
	baseURL      string
	pingInterval time.Duration
	log          *slog.Logger

	conn    *websocket.Conn
	nextID  int64
	waiters map[int64]chan result
	mu      sync.Mutex

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type Option func(*Client)

func WithPingInterval(d time.Duration) Option {
	return func(c *Client) {
		c.pingInterval = d
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.log = logger.OrNop(l)
	}
}

// New creates a client for the API at baseURL (http(s) or ws(s)).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:      baseURL,
		pingInterval: defaultPingInterval,
		log:          logger.Nop(),
		waiters:      make(map[int64]chan result),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func wsURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base URL %q: %w", baseURL, err)
	}

	switch u.Scheme {
	case "https", "wss":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}

	// make sure we append "/ws" correctly, without double slashes
	u.Path = path.Join(u.Path, "ws")
	return u.String(), nil
}

// Start dials the connection and starts the read and ping loops.
func (c *Client) Start(ctx context.Context) error {
	target, err := wsURL(c.baseURL)
	if err != nil {
		return err
	}

	conn, _, err := websocket.Dial(ctx, target, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to websocket: %w", err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	c.conn = conn
	c.cancel = cancel
	c.mu.Unlock()

	c.wg.Add(2)
	go c.readLoop(loopCtx, conn)
	go c.pingLoop(loopCtx, conn)

	c.log.Debug("websocket connected", "url", target)
	return nil
}

// Stop closes the connection and fails any request still waiting.
func (c *Client) Stop() {
	c.mu.Lock()
	conn, cancel := c.conn, c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.Close(websocket.StatusNormalClosure, "closing")
	}

	c.wg.Wait()
	c.failAll(ErrClosed)
}

// Post satisfies the REST client contract so the websocket can stand in
// for it: "/exchange" becomes an action request, anything else an info
// request.
func (c *Client) Post(ctx context.Context, path string, body any, out any) error {
	reqType := RequestInfo
	if path == "/exchange" {
		reqType = RequestAction
	}
	return c.Request(ctx, reqType, body, out)
}

// Request sends one post request and waits for its response, decoding the
// response payload into out when non-nil.
func (c *Client) Request(ctx context.Context, reqType RequestType, payload any, out any) error {
	c.mu.Lock()
	conn := c.conn
	if conn == nil {
		c.mu.Unlock()
		return ErrNotConnected
	}
	c.nextID++
	id := c.nextID
	ch := make(chan result, 1)
	c.waiters[id] = ch
	c.mu.Unlock()

	data, err := json.Marshal(postRequest{
		Method:  "post",
		ID:      id,
		Request: postPayload{Type: reqType, Payload: payload},
	})
	if err != nil {
		c.dropWaiter(id)
		return err
	}

	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		c.dropWaiter(id)
		return fmt.Errorf("failed to write post request: %w", err)
	}

	select {
	case <-ctx.Done():
		c.dropWaiter(id)
		return ctx.Err()
	case res := <-ch:
		if res.err != nil {
			return res.err
		}
		if res.resp.Response.Type == responseError {
			return &PostError{ID: id, Msg: errorText(res.resp.Response.Payload)}
		}
		if out == nil {
			return nil
		}
		return json.Unmarshal(res.resp.Response.Payload, out)
	}
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) {
	defer c.wg.Done()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() == nil && websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				c.log.Warn("websocket read error", "error", err)
			}
			c.mu.Lock()
			if c.conn == conn {
				c.conn = nil
			}
			c.mu.Unlock()
			c.failAll(fmt.Errorf("%w: %w", ErrClosed, err))
			return
		}

		// "Websocket connection established." and similar banners
		if len(data) == 0 || data[0] != '{' {
			continue
		}

		var msg message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.log.Warn("failed to unmarshal ws message", "error", err)
			continue
		}

		switch msg.Channel {
		case "pong":
		case "post":
			c.deliver(msg.Data)
		default:
			c.log.Debug("ignoring websocket message", "channel", msg.Channel)
		}
	}
}

func (c *Client) deliver(data json.RawMessage) {
	var resp postResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		c.log.Warn("failed to unmarshal post response", "error", err)
		return
	}

	c.mu.Lock()
	ch, ok := c.waiters[resp.ID]
	delete(c.waiters, resp.ID)
	c.mu.Unlock()

	if !ok {
		c.log.Warn("post response for unknown request", "id", resp.ID)
		return
	}
	ch <- result{resp: resp}
}

// pingLoop sends periodic pings to keep the connection alive
func (c *Client) pingLoop(ctx context.Context, conn *websocket.Conn) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	ping := []byte(`{"method":"ping"}`)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Write(writeCtx, websocket.MessageText, ping)
			cancel()

			if err != nil {
				c.log.Warn("websocket ping error", "error", err)
				return
			}
		}
	}
}

func (c *Client) dropWaiter(id int64) {
	c.mu.Lock()
	delete(c.waiters, id)
	c.mu.Unlock()
}

func (c *Client) failAll(err error) {
	c.mu.Lock()
	waiters := c.waiters
	c.waiters = make(map[int64]chan result)
	c.mu.Unlock()

	for _, ch := range waiters {
		ch <- result{err: err}
	}
}

// errorText unwraps a JSON string payload; other payloads are returned raw.
func errorText(payload json.RawMessage) string {
	var s string
	if err := json.Unmarshal(payload, &s); err == nil {
		return s
	}
	return string(payload)
}
