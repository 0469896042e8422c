package realtime

import (
	"errors"
	"testing"
)

func TestParseSocketEvent(t *testing.T) {
	p, err := ParseSocket([]byte(`2["data_update",{"servo_data":{"servo1_angle":12}}]`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p.Type != SocketEvent || p.Namespace != "/" || p.AckID != nil {
		t.Fatalf("packet = %+v", p)
	}
	name, args, err := p.Event()
	if err != nil {
		t.Fatalf("event: %v", err)
	}
	if name != "data_update" || len(args) != 1 {
		t.Fatalf("event = %q %d args", name, len(args))
	}
}

func TestParseSocketNamespaceAndAck(t *testing.T) {
	p, err := ParseSocket([]byte(`2/admin,13["ping"]`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p.Namespace != "/admin" {
		t.Fatalf("namespace = %q", p.Namespace)
	}
	if p.AckID == nil || *p.AckID != 13 {
		t.Fatalf("ack = %v", p.AckID)
	}
	if got := string(p.Encode()); got != `2/admin,13["ping"]` {
		t.Fatalf("encode = %q", got)
	}
}

func TestParseSocketRejectsBinary(t *testing.T) {
	if _, err := ParseSocket([]byte(`51-["x",{"_placeholder":true,"num":0}]`)); !errors.Is(err, ErrUnsupportedBinary) {
		t.Fatalf("err = %v, want ErrUnsupportedBinary", err)
	}
}

func TestParseEngine(t *testing.T) {
	if _, err := ParseEngine(nil); !errors.Is(err, ErrEmptyPacket) {
		t.Fatalf("err = %v", err)
	}
	if _, err := ParseEngine([]byte("9")); err == nil {
		t.Fatal("expected unknown type error")
	}
	p, err := ParseEngine([]byte("40"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p.Type != EngineMessage || string(p.Data) != "0" {
		t.Fatalf("packet = %+v", p)
	}
	if got := string(messagePacket(SocketPacket{Type: SocketConnect})); got != "40" {
		t.Fatalf("connect frame = %q, want 40", got)
	}
}

func TestEventOnNonEventPacket(t *testing.T) {
	if _, _, err := (SocketPacket{Type: SocketConnect}).Event(); err == nil {
		t.Fatal("expected error")
	}
}
