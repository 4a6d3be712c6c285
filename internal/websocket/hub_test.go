package websocket

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// mockClient is a test double for Client that captures sent messages
type mockClient struct {
	id       string
	account  string
	messages [][]byte
	mu       sync.Mutex
	closed   bool
}

func newMockClient(id string, account string) *mockClient {
	return &mockClient{
		id:       id,
		account:  account,
		messages: make([][]byte, 0),
	}
}

func (m *mockClient) ID() string {
	return m.id
}

func (m *mockClient) Account() string {
	return m.account
}

func (m *mockClient) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClientClosed
	}
	m.messages = append(m.messages, data)
	return nil
}

func (m *mockClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockClient) GetMessages() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := make([][]byte, len(m.messages))
	copy(copied, m.messages)
	return copied
}

func waitForMessages(t *testing.T, client *mockClient, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if len(client.GetMessages()) >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d messages, got %d", want, len(client.GetMessages()))
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub()
	client := newMockClient("c1", "acct-1")

	hub.Register(client)
	assert.Equal(t, 1, hub.ClientCount("acct-1"))

	hub.Unregister(client)
	assert.Equal(t, 0, hub.ClientCount("acct-1"))
}

func TestHub_BroadcastToAccount(t *testing.T) {
	hub := NewHub()
	mine := newMockClient("c1", "acct-1")
	otherDevice := newMockClient("c2", "acct-1")
	stranger := newMockClient("c3", "acct-2")

	hub.Register(mine)
	hub.Register(otherDevice)
	hub.Register(stranger)

	hub.Broadcast("acct-1", CartChanged(2))

	waitForMessages(t, mine, 1)
	waitForMessages(t, otherDevice, 1)
	assert.Empty(t, stranger.GetMessages())
}

func TestHub_BroadcastToEmptyAccount(t *testing.T) {
	hub := NewHub()
	// Must not panic or block.
	hub.Broadcast("nobody", WishlistChanged(1))
}

func TestHub_UnregisteredClientGetsNothing(t *testing.T) {
	hub := NewHub()
	client := newMockClient("c1", "acct-1")
	hub.Register(client)
	hub.Unregister(client)

	hub.Broadcast("acct-1", CartCleared())

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, client.GetMessages())
}

func TestHub_TotalClientCount(t *testing.T) {
	hub := NewHub()
	require.Equal(t, 0, hub.TotalClientCount())

	hub.Register(newMockClient("c1", "acct-1"))
	hub.Register(newMockClient("c2", "acct-2"))
	assert.Equal(t, 2, hub.TotalClientCount())
}

func TestHub_ConcurrentRegisterBroadcast(t *testing.T) {
	hub := NewHub()
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			hub.Register(newMockClient(string(rune('a'+n)), "acct-1"))
		}(i)
		go func() {
			defer wg.Done()
			hub.Broadcast("acct-1", CartChanged(1))
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, hub.ClientCount("acct-1"))
	// Let in-flight send goroutines drain before goleak runs.
	time.Sleep(50 * time.Millisecond)
}
