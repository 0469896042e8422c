// Package realtime is a minimal Socket.IO client over the Engine.IO
// WebSocket transport. It only receives events; the dashboard never emits.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"servodash/internal/models"
)

type Kind int

const (
	Connected Kind = iota
	Disconnected
	Failed
	DataUpdate
	Status
)

func (k Kind) String() string {
	switch k {
	case Connected:
		return "connect"
	case Disconnected:
		return "disconnect"
	case Failed:
		return "error"
	case DataUpdate:
		return "data_update"
	case Status:
		return "status"
	default:
		return "unknown"
	}
}

type Event struct {
	Kind    Kind
	Update  models.DataUpdate
	Message string
	Err     error
}

var errServerDisconnect = errors.New("server closed the socket")

type Client struct {
	url            string
	dialer         *websocket.Dialer
	reconnectDelay time.Duration
	log            *slog.Logger
}

// NewClient builds a client for the Socket.IO endpoint served under path on
// serverURL (http, https, ws or wss).
func NewClient(serverURL, path string, reconnectDelay time.Duration, logger *slog.Logger) (*Client, error) {
	u, err := EndpointURL(serverURL, path)
	if err != nil {
		return nil, err
	}
	return &Client{
		url:            u,
		dialer:         &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		reconnectDelay: reconnectDelay,
		log:            logger,
	}, nil
}

func EndpointURL(serverURL, path string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported server url scheme %q", u.Scheme)
	}
	if path == "" {
		path = "/socket.io/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = url.Values{"EIO": {"4"}, "transport": {"websocket"}}.Encode()
	return u.String(), nil
}

// Run keeps a session open until ctx ends, reconnecting after
// reconnectDelay. Events are emitted in arrival order from a single
// goroutine.
func (c *Client) Run(ctx context.Context, emit func(Event)) error {
	for {
		err := c.session(ctx, emit)
		if ctx.Err() != nil {
			return nil
		}
		c.log.Warn("realtime session ended", "err", err, "retry_in", c.reconnectDelay)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(c.reconnectDelay):
		}
	}
}

func (c *Client) session(ctx context.Context, emit func(Event)) error {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		if ctx.Err() == nil {
			emit(Event{Kind: Failed, Err: err})
		}
		return err
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = conn.Close()
	})
	defer stop()

	hs, err := c.handshake(conn)
	if err != nil {
		if ctx.Err() == nil {
			emit(Event{Kind: Failed, Err: err})
		}
		return err
	}
	deadline := time.Duration(hs.PingInterval+hs.PingTimeout) * time.Millisecond
	if err := conn.WriteMessage(websocket.TextMessage, messagePacket(SocketPacket{Type: SocketConnect})); err != nil {
		emit(Event{Kind: Failed, Err: err})
		return err
	}

	connected := false
	lost := func(err error) error {
		if ctx.Err() != nil {
			return err
		}
		if connected {
			emit(Event{Kind: Disconnected, Err: err})
		} else {
			emit(Event{Kind: Failed, Err: err})
		}
		return err
	}
	for {
		if deadline > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(deadline))
		}
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return lost(err)
		}
		pkt, err := ParseEngine(msg)
		if err != nil {
			c.log.Warn("bad engine packet", "err", err)
			continue
		}
		switch pkt.Type {
		case EnginePing:
			if err := conn.WriteMessage(websocket.TextMessage, EnginePacket{Type: EnginePong, Data: pkt.Data}.Encode()); err != nil {
				return lost(err)
			}
		case EngineClose:
			return lost(errServerDisconnect)
		case EngineMessage:
			sp, err := ParseSocket(pkt.Data)
			if err != nil {
				c.log.Warn("bad socket packet", "err", err)
				continue
			}
			if sp.Namespace != "/" {
				continue
			}
			switch sp.Type {
			case SocketConnect:
				connected = true
				emit(Event{Kind: Connected})
			case SocketDisconnect:
				return lost(errServerDisconnect)
			case SocketConnectError:
				err := fmt.Errorf("connect refused: %s", string(sp.Data))
				emit(Event{Kind: Failed, Err: err})
				return err
			case SocketEvent:
				c.dispatch(sp, emit)
			}
		}
	}
}

func (c *Client) handshake(conn *websocket.Conn) (Handshake, error) {
	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return Handshake{}, fmt.Errorf("read open packet: %w", err)
	}
	pkt, err := ParseEngine(msg)
	if err != nil {
		return Handshake{}, err
	}
	if pkt.Type != EngineOpen {
		return Handshake{}, fmt.Errorf("expected open packet, got %q", byte(pkt.Type))
	}
	var hs Handshake
	if err := json.Unmarshal(pkt.Data, &hs); err != nil {
		return Handshake{}, fmt.Errorf("decode handshake: %w", err)
	}
	return hs, nil
}

func (c *Client) dispatch(sp SocketPacket, emit func(Event)) {
	name, args, err := sp.Event()
	if err != nil {
		c.log.Warn("bad event packet", "err", err)
		return
	}
	var arg json.RawMessage
	if len(args) > 0 {
		arg = args[0]
	}
	switch name {
	case "data_update":
		var u models.DataUpdate
		if err := json.Unmarshal(arg, &u); err != nil {
			c.log.Warn("bad data_update payload", "err", err)
			return
		}
		emit(Event{Kind: DataUpdate, Update: u})
	case "status":
		emit(Event{Kind: Status, Message: messageText(arg)})
	case "error":
		emit(Event{Kind: Failed, Err: fmt.Errorf("server error: %s", messageText(arg))})
	default:
		c.log.Debug("ignoring event", "event", name)
	}
}

// messageText reads a status or error argument sent either as
// {"message": "..."} or as a bare string. Anything else is returned raw.
func messageText(arg json.RawMessage) string {
	var st struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(arg, &st); err == nil && st.Message != "" {
		return st.Message
	}
	var s string
	if err := json.Unmarshal(arg, &s); err == nil {
		return s
	}
	return string(arg)
}
