// Package notifications implements a WebSocket test client that observes the
// Todo service's push-notification channel. It buffers every inbound message
// in arrival order so tests can make deterministic assertions about what was
// — or was not — pushed during an operation.
package notifications

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/todoapp/todo-contract-tests/framework"
)

const closeGracePeriod = time.Second * 2

// ErrConnectTimeout is returned by Connect when the handshake does not
// complete within the allowed time.
var ErrConnectTimeout = errors.New("timed out establishing WebSocket connection")

// Buffer is a push-notification client for one test. It owns its message list
// and connection flag exclusively; create a new Buffer per test client rather
// than sharing one across tests.
//
// The reader goroutine appends to the buffer while the test goroutine takes
// snapshots, clears, or waits, so all shared state is guarded by one mutex.
// There is no automatic reconnection: a dropped connection simply marks the
// buffer disconnected, and callers decide whether to call Connect again.
type Buffer struct {
	url    string
	logger framework.Logger

	lock      sync.Mutex
	conn      *websocket.Conn
	connected bool
	messages  []string
	pending   *countdown
	readDone  chan struct{}
}

// countdown is a one-shot wait for N further messages. A new WaitForMessages
// call replaces any previous countdown; overlapping waits are not supported.
type countdown struct {
	remaining int
	satisfied chan struct{}
}

// NewBuffer creates a Buffer targeting the given ws:// URL. It does not
// connect; call Connect.
func NewBuffer(url string, logger framework.Logger) *Buffer {
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &Buffer{url: url, logger: logger}
}

// Connect opens the WebSocket connection, blocking until the handshake
// completes or timeout elapses. On success the buffer starts receiving
// messages immediately. Connecting an already-connected buffer is an error.
func (b *Buffer) Connect(timeout time.Duration) error {
	b.lock.Lock()
	if b.connected {
		b.lock.Unlock()
		return errors.New("already connected")
	}
	b.lock.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	b.logger.Printf("Connecting to %s", b.url)
	conn, _, err := dialer.Dial(b.url, nil)
	if err != nil {
		b.logger.Printf("WebSocket connection failed: %s", err)
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return fmt.Errorf("%w (%s)", ErrConnectTimeout, b.url)
		}
		return fmt.Errorf("could not connect to %s: %w", b.url, err)
	}

	readDone := make(chan struct{})
	b.lock.Lock()
	b.conn = conn
	b.connected = true
	b.readDone = readDone
	b.lock.Unlock()
	b.logger.Printf("WebSocket connection established")

	go b.readLoop(conn, readDone)
	return nil
}

// readLoop receives messages until the connection fails or is closed. It runs
// on its own goroutine, concurrently with the test's goroutine.
func (b *Buffer) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				b.logger.Printf("WebSocket read error: %s", err)
			} else {
				b.logger.Printf("WebSocket connection closed")
			}
			b.lock.Lock()
			if b.conn == conn {
				b.conn = nil
				b.connected = false
			}
			b.lock.Unlock()
			_ = conn.Close()
			return
		}
		message := string(data)
		b.logger.Printf("Received notification: %s", message)

		b.lock.Lock()
		b.messages = append(b.messages, message)
		if b.pending != nil {
			b.pending.remaining--
			if b.pending.remaining <= 0 {
				close(b.pending.satisfied)
				b.pending = nil
			}
		}
		b.lock.Unlock()
	}
}

// WaitForMessages blocks until at least count messages have arrived after the
// call, or until timeout elapses. It returns whether the count was reached; a
// timeout is a normal outcome, not an error. Each call arms a fresh counter.
//
// A message that arrives after the timeout is still appended to the buffer,
// but cannot change the result already returned.
func (b *Buffer) WaitForMessages(count int, timeout time.Duration) bool {
	if count <= 0 {
		return true
	}

	pending := &countdown{remaining: count, satisfied: make(chan struct{})}
	b.lock.Lock()
	b.pending = pending
	b.lock.Unlock()

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	select {
	case <-pending.satisfied:
		return true
	case <-deadline.C:
		b.lock.Lock()
		if b.pending == pending {
			b.pending = nil
		}
		b.lock.Unlock()
		return false
	}
}

// ReceivedMessages returns a snapshot of all buffered messages in arrival
// order. The returned slice is a copy; later deliveries do not modify it.
func (b *Buffer) ReceivedMessages() []string {
	b.lock.Lock()
	defer b.lock.Unlock()
	return append([]string(nil), b.messages...)
}

// ClearMessages empties the buffer. Connection state is unaffected.
func (b *Buffer) ClearMessages() {
	b.lock.Lock()
	b.messages = nil
	b.lock.Unlock()
}

// IsConnected reports the last-observed connection state. It trails the real
// socket state while a close is in flight, so treat it as eventually
// consistent rather than exact.
func (b *Buffer) IsConnected() bool {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.connected
}

// Reconnect closes any open connection and resets local state: the buffer is
// emptied and the client is marked disconnected, still bound to the original
// URL. It does not open a new connection; call Connect afterward. The split
// lets a test inspect post-disconnect state before starting a fresh session.
func (b *Buffer) Reconnect() error {
	err := b.Close()

	b.lock.Lock()
	b.messages = nil
	b.pending = nil
	b.lock.Unlock()

	return err
}

// Close performs a blocking close of the connection, if one is open.
func (b *Buffer) Close() error {
	b.lock.Lock()
	conn := b.conn
	readDone := b.readDone
	b.conn = nil
	b.connected = false
	b.lock.Unlock()

	if conn == nil {
		return nil
	}

	// Ask the peer to close, then wait for the reader to observe it.
	deadline := time.Now().Add(closeGracePeriod)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)

	select {
	case <-readDone:
	case <-time.After(closeGracePeriod):
	}
	return conn.Close()
}
