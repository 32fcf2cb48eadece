package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sasha-s/go-deadlock"
	"github.com/sirupsen/logrus"
	"github.com/swz-git/zero-g-script/game"
	"github.com/swz-git/zero-g-script/mutation"
	"go.uber.org/atomic"
)

var (
	// ErrClosed is returned when the connection was closed, either by Close or by the match host.
	ErrClosed = errors.New("connection closed")
	// ErrMalformed is returned by ReadSnapshot when a frame could not be decoded. The connection
	// remains usable.
	ErrMalformed = errors.New("malformed message")
)

// Config holds what is needed to connect to a match host.
type Config struct {
	// URL is the websocket URL of the match host.
	URL     string
	AgentID string
	Codec   Codec
	// WriteTimeout bounds every frame written. Zero means 10 seconds.
	WriteTimeout time.Duration
	// ReadLimit is the maximum size of a frame read. Zero means 1MB.
	ReadLimit int64
}

// Conn is a connection to a match host. ReadSnapshot must only be called from one goroutine at a
// time. WriteCommands and Close may be called from any goroutine.
type Conn struct {
	log   logrus.FieldLogger
	ws    *websocket.Conn
	codec Codec

	writeTimeout time.Duration
	writeMu      deadlock.Mutex
	closed       atomic.Bool
}

// Dial connects to the match host and introduces the agent with a hello message.
func Dial(ctx context.Context, cfg Config, log logrus.FieldLogger) (*Conn, error) {
	if cfg.Codec == nil {
		cfg.Codec = JSON{}
	}
	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, cfg.URL, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %v: %w (status %v)", cfg.URL, err, resp.Status)
		}
		return nil, fmt.Errorf("dial %v: %w", cfg.URL, err)
	}

	c := NewConn(ws, cfg, log)
	if err := c.write(MsgHello, Hello{AgentID: cfg.AgentID, Version: ProtocolVersion}); err != nil {
		_ = ws.Close()
		return nil, fmt.Errorf("send hello: %w", err)
	}
	log.Debugf("connected to %v using %v codec", cfg.URL, cfg.Codec.Name())
	return c, nil
}

// NewConn wraps a websocket connection that was already established. No hello message is sent.
func NewConn(ws *websocket.Conn, cfg Config, log logrus.FieldLogger) *Conn {
	if cfg.Codec == nil {
		cfg.Codec = JSON{}
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.ReadLimit <= 0 {
		cfg.ReadLimit = 1 << 20
	}
	ws.SetReadLimit(cfg.ReadLimit)
	return &Conn{log: log, ws: ws, codec: cfg.Codec, writeTimeout: cfg.WriteTimeout}
}

// Codec returns the codec frames are encoded with.
func (c *Conn) Codec() Codec {
	return c.codec
}

// ReadSnapshot blocks until the next snapshot arrives. Messages other than snapshots are skipped.
// ErrClosed is returned once the match host says goodbye or the connection is closed.
func (c *Conn) ReadSnapshot() (*game.Snapshot, error) {
	for {
		_, frame, err := c.ws.ReadMessage()
		if err != nil {
			if c.closed.Load() || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil, ErrClosed
			}
			return nil, fmt.Errorf("read frame: %w", err)
		}

		t, payload, err := c.codec.Decode(frame)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		switch t {
		case MsgSnapshot:
			s := &game.Snapshot{}
			if err := c.codec.Unmarshal(payload, s); err != nil {
				return nil, fmt.Errorf("%w: snapshot: %v", ErrMalformed, err)
			}
			return s, nil
		case MsgBye:
			c.log.Debug("match host said goodbye")
			return nil, ErrClosed
		default:
			c.log.Debugf("ignoring %q message", t)
		}
	}
}

// WriteCommands sends every command as a separate state message, in order.
func (c *Conn) WriteCommands(cmds []mutation.Command) error {
	for _, cmd := range cmds {
		if err := c.write(MsgState, cmd); err != nil {
			return err
		}
	}
	return nil
}

func (c *Conn) write(t string, payload any) error {
	if c.closed.Load() {
		return ErrClosed
	}
	return c.send(t, payload)
}

func (c *Conn) send(t string, payload any) error {
	frame, err := c.codec.Encode(t, payload)
	if err != nil {
		return fmt.Errorf("encode %v: %w", t, err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	if err := c.ws.WriteMessage(c.codec.FrameType(), frame); err != nil {
		return fmt.Errorf("write %v: %w", t, err)
	}
	return nil
}

// Close says goodbye to the match host and closes the connection. Calling Close more than once is a
// no-op.
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	_ = c.send(MsgBye, nil)

	c.writeMu.Lock()
	deadline := time.Now().Add(c.writeTimeout)
	_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	c.writeMu.Unlock()
	return c.ws.Close()
}
