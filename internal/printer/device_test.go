package printer

import (
	"bytes"
	"errors"
	"io"
	"net"
	"testing"
	"time"
)

func TestTCPDevicePrint(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer ln.Close()

	received := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		data, _ := io.ReadAll(conn)
		received <- data
	}()

	dev := &TCPDevice{Addr: ln.Addr().String(), Timeout: 2 * time.Second}
	payload := []byte{0x1b, 0x40, 'h', 'i', '\n'}
	if err := dev.Print(payload); err != nil {
		t.Fatalf("print failed: %v", err)
	}

	select {
	case data := <-received:
		if !bytes.Equal(data, payload) {
			t.Errorf("device received % x, want % x", data, payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for device data")
	}
}

func TestTCPDeviceUnavailable(t *testing.T) {
	// Grab a free port and close it again so nothing is listening there.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	dev := &TCPDevice{Addr: addr, Timeout: 500 * time.Millisecond}
	err = dev.Print([]byte("data"))
	if err == nil {
		t.Fatal("expected error for unreachable device")
	}
	if !errors.Is(err, ErrDeviceUnavailable) {
		t.Errorf("expected ErrDeviceUnavailable, got: %v", err)
	}
}
