package notifications

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConnectTimeout = time.Second * 5

// pushServer is a minimal stand-in for the service's notification endpoint:
// it accepts WebSocket connections and can broadcast text messages to all of
// them.
type pushServer struct {
	server *httptest.Server
	lock   sync.Mutex
	conns  []*websocket.Conn
	dials  int
}

func newPushServer(t *testing.T) *pushServer {
	s := &pushServer{}
	upgrader := websocket.Upgrader{}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.lock.Lock()
		s.conns = append(s.conns, conn)
		s.dials++
		s.lock.Unlock()
		// Consume control frames so close handshakes complete.
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					_ = conn.Close()
					return
				}
			}
		}()
	}))
	t.Cleanup(s.close)
	return s
}

func (s *pushServer) url() string {
	return "ws" + strings.TrimPrefix(s.server.URL, "http")
}

func (s *pushServer) broadcast(message string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	for _, conn := range s.conns {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(message))
	}
}

func (s *pushServer) dialCount() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.dials
}

func (s *pushServer) closeConnections() {
	s.lock.Lock()
	conns := s.conns
	s.conns = nil
	s.lock.Unlock()
	for _, conn := range conns {
		_ = conn.Close()
	}
}

func (s *pushServer) close() {
	s.closeConnections()
	s.server.Close()
}

func connectedBuffer(t *testing.T, s *pushServer) *Buffer {
	b := NewBuffer(s.url(), nil)
	require.NoError(t, b.Connect(testConnectTimeout))
	t.Cleanup(func() { _ = b.Close() })
	return b
}

// awaitBuffered waits for the buffer to hold at least count messages,
// regardless of whether they arrived before or after the call. Tests use it
// when the broadcast has already happened, since WaitForMessages deliberately
// counts only arrivals after it is armed.
func awaitBuffered(t *testing.T, b *Buffer, count int) {
	require.Eventually(t, func() bool { return len(b.ReceivedMessages()) >= count },
		time.Second, 10*time.Millisecond, "expected %d buffered messages", count)
}

func TestConnectReportsErrorForUnreachableEndpoint(t *testing.T) {
	b := NewBuffer("ws://localhost:1/ws", nil)
	err := b.Connect(200 * time.Millisecond)
	require.Error(t, err)
	assert.False(t, b.IsConnected())
}

func TestConnectTwiceIsAnError(t *testing.T) {
	s := newPushServer(t)
	b := connectedBuffer(t, s)
	assert.Error(t, b.Connect(testConnectTimeout))
}

func TestMessagesAreBufferedInArrivalOrder(t *testing.T) {
	s := newPushServer(t)
	b := connectedBuffer(t, s)

	for i := 1; i <= 5; i++ {
		s.broadcast(fmt.Sprintf("message-%d", i))
	}
	awaitBuffered(t, b, 5)

	expected := []string{"message-1", "message-2", "message-3", "message-4", "message-5"}
	assert.Equal(t, expected, b.ReceivedMessages())
}

func TestSnapshotsAreStableAndIndependent(t *testing.T) {
	s := newPushServer(t)
	b := connectedBuffer(t, s)

	s.broadcast("one")
	s.broadcast("two")
	awaitBuffered(t, b, 2)

	first := b.ReceivedMessages()
	second := b.ReceivedMessages()
	assert.Equal(t, first, second)

	// Mutating a snapshot must not affect the buffer.
	first[0] = "tampered"
	assert.Equal(t, second, b.ReceivedMessages())
}

func TestClearMessagesEmptiesBufferWithoutDisconnecting(t *testing.T) {
	s := newPushServer(t)
	b := connectedBuffer(t, s)

	s.broadcast("before clear")
	awaitBuffered(t, b, 1)

	b.ClearMessages()
	assert.Empty(t, b.ReceivedMessages())
	assert.True(t, b.IsConnected())

	// Delivery continues after a clear.
	s.broadcast("after clear")
	awaitBuffered(t, b, 1)
	assert.Equal(t, []string{"after clear"}, b.ReceivedMessages())
}

func TestWaitForMessagesBlocksUntilEnoughArrive(t *testing.T) {
	s := newPushServer(t)
	b := connectedBuffer(t, s)

	go func() {
		time.Sleep(50 * time.Millisecond)
		s.broadcast("first")
		s.broadcast("second")
	}()

	require.True(t, b.WaitForMessages(2, time.Second*2))
	assert.Equal(t, []string{"first", "second"}, b.ReceivedMessages())
}

func TestWaitForMessagesCountsOnlyArrivalsAfterTheCall(t *testing.T) {
	s := newPushServer(t)
	b := connectedBuffer(t, s)

	s.broadcast("early")
	awaitBuffered(t, b, 1)

	// The earlier message is already buffered; a new wait must not count it.
	assert.False(t, b.WaitForMessages(1, 200*time.Millisecond))
}

func TestWaitForMessagesTimeoutIsNotRetroactivelySatisfied(t *testing.T) {
	s := newPushServer(t)
	b := connectedBuffer(t, s)

	satisfied := b.WaitForMessages(1, 100*time.Millisecond)
	assert.False(t, satisfied)

	// A late arrival still lands in the buffer but cannot change the result.
	s.broadcast("late")
	awaitBuffered(t, b, 1)
	assert.Equal(t, []string{"late"}, b.ReceivedMessages())
	assert.False(t, satisfied)
}

func TestWaitForMessagesZeroCountReturnsImmediately(t *testing.T) {
	s := newPushServer(t)
	b := connectedBuffer(t, s)
	assert.True(t, b.WaitForMessages(0, time.Nanosecond))
}

func TestIsConnectedTracksRemoteClose(t *testing.T) {
	s := newPushServer(t)
	b := connectedBuffer(t, s)
	require.True(t, b.IsConnected())

	s.closeConnections()

	require.Eventually(t, func() bool { return !b.IsConnected() },
		time.Second, 10*time.Millisecond, "buffer should observe the remote close")
}

func TestRemoteCloseReleasesConnection(t *testing.T) {
	s := newPushServer(t)
	b := connectedBuffer(t, s)

	s.closeConnections()
	require.Eventually(t, func() bool { return !b.IsConnected() },
		time.Second, 10*time.Millisecond)

	// The dead connection is already released, so a close is a no-op and a
	// fresh Connect opens a new session.
	require.NoError(t, b.Close())
	require.NoError(t, b.Connect(testConnectTimeout))
	assert.True(t, b.IsConnected())
	assert.Equal(t, 2, s.dialCount())
}

func TestReconnectResetsStateWithoutRedialing(t *testing.T) {
	s := newPushServer(t)
	b := connectedBuffer(t, s)

	s.broadcast("pre-reconnect")
	awaitBuffered(t, b, 1)
	dialsBefore := s.dialCount()

	require.NoError(t, b.Reconnect())

	assert.False(t, b.IsConnected())
	assert.Empty(t, b.ReceivedMessages())
	assert.Equal(t, dialsBefore, s.dialCount(), "Reconnect must not open a new connection")

	// The buffer stays bound to the original endpoint; an explicit Connect
	// starts a fresh session.
	require.NoError(t, b.Connect(testConnectTimeout))
	assert.True(t, b.IsConnected())
	assert.Equal(t, dialsBefore+1, s.dialCount())
}
