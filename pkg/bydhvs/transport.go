package bydhvs

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

// transport owns one TCP connection to the battery for the duration of a
// single poll cycle. Every operation carries an explicit deadline; Close
// is idempotent and safe on every exit path.
type transport struct {
	conn    net.Conn
	timeout time.Duration

	closeOnce sync.Once
}

// dialTransport opens the connection with the endpoint timeout. A
// cancelled ctx aborts the dial.
func dialTransport(ctx context.Context, ep Endpoint) (*transport, error) {
	timeout := ep.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	dialer := net.Dialer{Timeout: timeout}
	addr := net.JoinHostPort(ep.Host, fmt.Sprintf("%d", ep.Port))
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return &transport{conn: conn, timeout: timeout}, nil
}

// send writes the whole frame before the deadline.
func (t *transport) send(frame []byte) error {
	if err := t.conn.SetWriteDeadline(time.Now().Add(t.timeout)); err != nil {
		return err
	}
	_, err := t.conn.Write(frame)
	return err
}

// receive assembles one response frame. The device does not always send a
// frame in one segment, so reads are accumulated until at least min bytes
// arrived and the line then goes idle, or the overall deadline elapses.
// A clean close before min bytes is a premature EOF.
func (t *transport) receive(min int) ([]byte, error) {
	deadline := time.Now().Add(t.timeout)
	buf := make([]byte, 0, 512)
	chunk := make([]byte, 512)
	for {
		if len(buf) >= min {
			// drain whatever follows within a short idle window so a
			// frame split across segments is read completely
			if err := t.conn.SetReadDeadline(time.Now().Add(50 * time.Millisecond)); err != nil {
				return nil, err
			}
		} else {
			if err := t.conn.SetReadDeadline(deadline); err != nil {
				return nil, err
			}
		}
		n, err := t.conn.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() && len(buf) >= min {
				return buf, nil
			}
			if err == io.EOF && len(buf) >= min {
				return buf, nil
			}
			return nil, err
		}
	}
}

// Close shuts the connection down. Idempotent, never fails the caller.
func (t *transport) Close() {
	t.closeOnce.Do(func() {
		_ = t.conn.Close()
	})
}
