package websocket

import (
	"context"
	"encoding/json"
	"errors"
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

// fakeServer 模拟游戏服务端：记录收到的消息，并能主动推送
type fakeServer struct {
	t        *testing.T
	srv      *httptest.Server
	upgrader websocket.Upgrader

	mu         sync.Mutex
	conn       *websocket.Conn
	authHeader string

	connected chan struct{}
	received  chan outboundEnvelope
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()

	fs := &fakeServer{
		t: t,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		connected: make(chan struct{}, 1),
		received:  make(chan outboundEnvelope, 16),
	}

	fs.srv = httptest.NewServer(http.HandlerFunc(fs.handle))
	t.Cleanup(fs.srv.Close)

	return fs
}

func (fs *fakeServer) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := fs.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	fs.mu.Lock()
	fs.conn = conn
	fs.authHeader = r.Header.Get("Authorization")
	fs.mu.Unlock()

	fs.connected <- struct{}{}

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var envelope outboundEnvelope
		if err := json.Unmarshal(msg, &envelope); err == nil {
			fs.received <- envelope
		}
	}
}

func (fs *fakeServer) url() string {
	return "ws" + strings.TrimPrefix(fs.srv.URL, "http")
}

func (fs *fakeServer) push(t *testing.T, event string, data string) {
	t.Helper()

	fs.mu.Lock()
	defer fs.mu.Unlock()

	msg := `{"event":"` + event + `","data":` + data + `}`
	require.NoError(t, fs.conn.WriteMessage(websocket.TextMessage, []byte(msg)))
}

func (fs *fakeServer) dropConnection() {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.conn.Close()
}

func waitFor[T any](t *testing.T, ch <-chan T, within time.Duration) T {
	t.Helper()

	select {
	case v := <-ch:
		return v
	case <-time.After(within):
		t.Fatalf("timed out after %v", within)
		var zero T
		return zero
	}
}

func connect(t *testing.T, fs *fakeServer, opts Options) *Channel {
	t.Helper()

	opts.URL = fs.url()
	ch := NewChannel(opts)

	require.NoError(t, ch.Connect(context.Background()))
	waitFor(t, fs.connected, time.Second)
	t.Cleanup(func() { ch.Disconnect() })

	return ch
}

func TestChannel_SendBeforeConnectFailsFast(t *testing.T) {
	ch := NewChannel(Options{URL: "ws://127.0.0.1:1/ws"})

	err := ch.Send("room:join", "r1")
	assert.True(t, errors.Is(err, ErrChannelUnavailable))
	assert.False(t, ch.Connected())
}

func TestChannel_ConnectFailureIsUnavailable(t *testing.T) {
	ch := NewChannel(Options{URL: "ws://127.0.0.1:1/ws"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := ch.Connect(ctx)
	assert.True(t, errors.Is(err, ErrChannelUnavailable))
}

func TestChannel_HandshakeCarriesToken(t *testing.T) {
	fs := newFakeServer(t)

	header := http.Header{}
	header.Set("Authorization", "Bearer secret")
	connect(t, fs, Options{Header: header})

	fs.mu.Lock()
	defer fs.mu.Unlock()
	assert.Equal(t, "Bearer secret", fs.authHeader)
}

func TestChannel_SendWritesEnvelope(t *testing.T) {
	fs := newFakeServer(t)
	ch := connect(t, fs, Options{})

	require.NoError(t, ch.Send("game:submit_clue", map[string]string{"content": "Blue"}))

	got := waitFor(t, fs.received, time.Second)
	assert.Equal(t, "game:submit_clue", got.Event)
	assert.Equal(t, map[string]any{"content": "Blue"}, got.Data)
	assert.NotEmpty(t, got.ID)
}

func TestChannel_PushReachesSubscribers(t *testing.T) {
	fs := newFakeServer(t)
	ch := connect(t, fs, Options{})

	votes := make(chan json.RawMessage, 4)
	errorsCh := make(chan json.RawMessage, 4)

	ch.Subscribe("round:vote_update", func(data json.RawMessage) { votes <- data })
	unsubscribe := ch.Subscribe("error", func(data json.RawMessage) { errorsCh <- data })
	unsubscribe()
	unsubscribe()

	fs.push(t, "error", `{"message":"ignored"}`)
	fs.push(t, "round:vote_update", `{"voterId":"p1","voteCount":2}`)

	got := waitFor(t, votes, time.Second)
	assert.JSONEq(t, `{"voterId":"p1","voteCount":2}`, string(got))

	select {
	case data := <-errorsCh:
		t.Fatalf("unsubscribed handler fired: %s", data)
	default:
	}
}

func TestChannel_RateLimitFailsFast(t *testing.T) {
	fs := newFakeServer(t)
	ch := connect(t, fs, Options{SendRate: 0.001, SendBurst: 1})

	require.NoError(t, ch.Send("game:submit_vote", map[string]string{"targetPlayerId": "p2"}))

	err := ch.Send("game:submit_vote", map[string]string{"targetPlayerId": "p2"})
	assert.True(t, errors.Is(err, ErrChannelBusy))
}

func TestChannel_ServerDropNotifiesAndFailsFast(t *testing.T) {
	fs := newFakeServer(t)

	dropped := make(chan error, 1)
	ch := connect(t, fs, Options{OnDisconnect: func(err error) { dropped <- err }})

	fs.dropConnection()

	err := waitFor(t, dropped, 2*time.Second)
	assert.Error(t, err)
	assert.False(t, ch.Connected())
	assert.True(t, errors.Is(ch.Send("room:leave", nil), ErrChannelUnavailable))
}

func TestChannel_DisconnectIsQuiet(t *testing.T) {
	fs := newFakeServer(t)

	dropped := make(chan error, 1)
	ch := connect(t, fs, Options{OnDisconnect: func(err error) { dropped <- err }})

	require.NoError(t, ch.Disconnect())
	require.NoError(t, ch.Disconnect())

	select {
	case err := <-dropped:
		t.Fatalf("OnDisconnect fired on deliberate disconnect: %v", err)
	case <-time.After(100 * time.Millisecond):
	}
}
