package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Engine.IO v4 packet types.
type EngineType byte

const (
	EngineOpen    EngineType = '0'
	EngineClose   EngineType = '1'
	EnginePing    EngineType = '2'
	EnginePong    EngineType = '3'
	EngineMessage EngineType = '4'
	EngineUpgrade EngineType = '5'
	EngineNoop    EngineType = '6'
)

// Socket.IO v5 packet types, carried inside engine messages.
type SocketType byte

const (
	SocketConnect      SocketType = '0'
	SocketDisconnect   SocketType = '1'
	SocketEvent        SocketType = '2'
	SocketAck          SocketType = '3'
	SocketConnectError SocketType = '4'
	SocketBinaryEvent  SocketType = '5'
	SocketBinaryAck    SocketType = '6'
)

var (
	ErrEmptyPacket       = errors.New("empty packet")
	ErrUnsupportedBinary = errors.New("binary socket.io packets are not supported")
)

type EnginePacket struct {
	Type EngineType
	Data []byte
}

func ParseEngine(b []byte) (EnginePacket, error) {
	if len(b) == 0 {
		return EnginePacket{}, ErrEmptyPacket
	}
	t := EngineType(b[0])
	if t < EngineOpen || t > EngineNoop {
		return EnginePacket{}, fmt.Errorf("unknown engine packet type %q", b[0])
	}
	return EnginePacket{Type: t, Data: b[1:]}, nil
}

func (p EnginePacket) Encode() []byte {
	out := make([]byte, 0, len(p.Data)+1)
	out = append(out, byte(p.Type))
	return append(out, p.Data...)
}

// Handshake is the payload of the engine open packet.
type Handshake struct {
	SID          string   `json:"sid"`
	Upgrades     []string `json:"upgrades"`
	PingInterval int      `json:"pingInterval"`
	PingTimeout  int      `json:"pingTimeout"`
	MaxPayload   int      `json:"maxPayload"`
}

type SocketPacket struct {
	Type      SocketType
	Namespace string
	AckID     *int
	Data      json.RawMessage
}

func ParseSocket(b []byte) (SocketPacket, error) {
	if len(b) == 0 {
		return SocketPacket{}, ErrEmptyPacket
	}
	p := SocketPacket{Type: SocketType(b[0]), Namespace: "/"}
	if p.Type < SocketConnect || p.Type > SocketBinaryAck {
		return SocketPacket{}, fmt.Errorf("unknown socket packet type %q", b[0])
	}
	if p.Type == SocketBinaryEvent || p.Type == SocketBinaryAck {
		return SocketPacket{}, ErrUnsupportedBinary
	}
	rest := string(b[1:])
	if strings.HasPrefix(rest, "/") {
		i := strings.IndexByte(rest, ',')
		if i < 0 {
			p.Namespace = rest
			return p, nil
		}
		p.Namespace = rest[:i]
		rest = rest[i+1:]
	}
	digits := 0
	for digits < len(rest) && rest[digits] >= '0' && rest[digits] <= '9' {
		digits++
	}
	if digits > 0 {
		id, err := strconv.Atoi(rest[:digits])
		if err != nil {
			return SocketPacket{}, fmt.Errorf("ack id: %w", err)
		}
		p.AckID = &id
		rest = rest[digits:]
	}
	if rest != "" {
		if !json.Valid([]byte(rest)) {
			return SocketPacket{}, fmt.Errorf("invalid socket packet payload")
		}
		p.Data = json.RawMessage(rest)
	}
	return p, nil
}

func (p SocketPacket) Encode() []byte {
	var sb strings.Builder
	sb.WriteByte(byte(p.Type))
	if p.Namespace != "" && p.Namespace != "/" {
		sb.WriteString(p.Namespace)
		sb.WriteByte(',')
	}
	if p.AckID != nil {
		sb.WriteString(strconv.Itoa(*p.AckID))
	}
	sb.Write(p.Data)
	return []byte(sb.String())
}

// Event splits an EVENT payload into its name and arguments.
func (p SocketPacket) Event() (string, []json.RawMessage, error) {
	if p.Type != SocketEvent {
		return "", nil, fmt.Errorf("packet type %q is not an event", byte(p.Type))
	}
	var parts []json.RawMessage
	if err := json.Unmarshal(p.Data, &parts); err != nil {
		return "", nil, fmt.Errorf("event payload: %w", err)
	}
	if len(parts) == 0 {
		return "", nil, errors.New("event payload has no name")
	}
	var name string
	if err := json.Unmarshal(parts[0], &name); err != nil {
		return "", nil, fmt.Errorf("event name: %w", err)
	}
	return name, parts[1:], nil
}

// messagePacket wraps a socket packet in an engine message.
func messagePacket(p SocketPacket) []byte {
	return EnginePacket{Type: EngineMessage, Data: p.Encode()}.Encode()
}
