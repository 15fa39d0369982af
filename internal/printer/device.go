package printer

import (
	"errors"
	"fmt"
	"net"
	"time"
)

var (
	ErrDeviceUnavailable = errors.New("printer device unavailable")
	ErrWriteFailed       = errors.New("printer write failed")
)

const defaultWriteTimeout = 10 * time.Second

// Device accepts one fully built command sequence per call.
type Device interface {
	Print(data []byte) error
}

// TCPDevice talks to a network-attached ESC/POS printer on its raw port
// (conventionally 9100). The connection is scoped to a single Print call:
// dial, write, close. A transiently unavailable device surfaces as a single
// failed call; retry policy belongs to the operator.
type TCPDevice struct {
	Addr    string
	Timeout time.Duration
}

func (d *TCPDevice) Print(data []byte) error {
	timeout := d.Timeout
	if timeout == 0 {
		timeout = defaultWriteTimeout
	}

	conn, err := net.DialTimeout("tcp", d.Addr, timeout)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(timeout))

	if _, err := conn.Write(data); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	return nil
}
