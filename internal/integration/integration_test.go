package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devaloi/quoteboard/internal/domain"
	"github.com/devaloi/quoteboard/internal/handler"
	"github.com/devaloi/quoteboard/internal/hub"
	"github.com/devaloi/quoteboard/internal/quote"
	"github.com/devaloi/quoteboard/internal/store"
)

func setupServer(t *testing.T, s store.Store) *httptest.Server {
	t.Helper()
	board := quote.NewBoard(s, quote.WithLogger(zerolog.Nop()))
	h := hub.New(board, 100, "quotebot")
	go h.Run()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handler.ServeWS(h))
	mux.HandleFunc("/health", handler.Health())
	mux.HandleFunc("/api/rooms", handler.ListRooms(h))
	mux.HandleFunc("/api/rooms/", handler.RoomInfo(h))
	mux.HandleFunc("/api/quotes/", handler.ListQuotes(board))
	mux.HandleFunc("/api/usage", handler.Usage(board))
	mux.HandleFunc("/api/command", handler.Command(board))

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		h.Stop()
		s.Close()
	})
	return server
}

func fileServer(t *testing.T) *httptest.Server {
	t.Helper()
	return setupServer(t, store.NewFile(filepath.Join(t.TempDir(), "var")))
}

func dialWS(t *testing.T, serverURL, user string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(serverURL, "http") + "/ws?user=" + user
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err, user)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readUntilType(t *testing.T, conn *websocket.Conn, msgType string, maxReads int) domain.Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for i := 0; i < maxReads; i++ {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err, "read while looking for %s", msgType)
		msg, err := domain.DecodeMessage(data)
		require.NoError(t, err)
		if msg.Type == msgType {
			return msg
		}
	}
	t.Fatalf("did not find message type %s in %d reads", msgType, maxReads)
	return domain.Message{}
}

func command(t *testing.T, serverURL, sender, text string) (int, string) {
	t.Helper()
	body, err := json.Marshal(handler.CommandRequest{Sender: sender, Text: text})
	require.NoError(t, err)
	resp, err := http.Post(serverURL+"/api/command", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out handler.CommandResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out.Reply
}

func TestQuoteSessionOverWebSocket(t *testing.T) {
	t.Parallel()
	server := fileServer(t)

	alice := dialWS(t, server.URL, "alice")
	bob := dialWS(t, server.URL, "bob")
	for _, c := range []*websocket.Conn{alice, bob} {
		require.NoError(t, c.WriteMessage(websocket.TextMessage, []byte(`{"type":"join","room":"general"}`)))
	}
	time.Sleep(300 * time.Millisecond)

	steps := []struct {
		from *websocket.Conn
		text string
		want string
	}{
		{alice, "q", quote.ReplyEmpty},
		{alice, "aq foo bar", "Quote added (number 1)"},
		{bob, "aq baz qux", "Quote added (number 2)"},
		{bob, "q bar", "[0/2] (added by alice)\nfoo bar"},
		{alice, "q 2", "[2/2] (added by bob)\nbaz qux"},
		{alice, "dq 1", "Quote 1 deleted."},
		{bob, "q 1", "[1/1] (added by bob)\nbaz qux"},
		{bob, "dq 5", quote.ReplyNotFound},
	}
	for _, step := range steps {
		msg, err := domain.Encode(domain.Message{Type: domain.MsgChat, Room: "general", Text: step.text})
		require.NoError(t, err)
		require.NoError(t, step.from.WriteMessage(websocket.TextMessage, msg))

		for _, c := range []*websocket.Conn{alice, bob} {
			reply := readUntilType(t, c, domain.MsgSystem, 10)
			assert.Equal(t, step.want, reply.Text, step.text)
			assert.Equal(t, "quotebot", reply.User)
		}
	}
}

func TestCommandEndpointSharesState(t *testing.T) {
	t.Parallel()
	server := fileServer(t)

	status, reply := command(t, server.URL, "general/alice", "aq line one\nline two")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Quote added (number 1)", reply)

	alice := dialWS(t, server.URL, "carol")
	require.NoError(t, alice.WriteMessage(websocket.TextMessage, []byte(`{"type":"join","room":"general"}`)))
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, alice.WriteMessage(websocket.TextMessage, []byte(`{"type":"chat","room":"general","text":"q 1"}`)))

	msg := readUntilType(t, alice, domain.MsgSystem, 10)
	assert.Equal(t, "[1/1] (added by alice)\nline one\nline two", msg.Text)

	resp, err := http.Get(server.URL + "/api/quotes/general")
	require.NoError(t, err)
	defer resp.Body.Close()
	var quotes []domain.Quote
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&quotes))
	assert.Equal(t, []domain.Quote{{Text: "line one\nline two", Author: "alice"}}, quotes)
}

func TestConcurrentAddsOverHTTP(t *testing.T) {
	t.Parallel()
	for name, s := range map[string]func(t *testing.T) store.Store{
		"file": func(t *testing.T) store.Store { return store.NewFile(t.TempDir()) },
		"sqlite": func(t *testing.T) store.Store {
			sq, err := store.NewSQLite(filepath.Join(t.TempDir(), "quotes.db"))
			require.NoError(t, err)
			return sq
		},
	} {
		s := s
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			server := setupServer(t, s(t))

			const callers = 10
			var wg sync.WaitGroup
			for i := 0; i < callers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					status, _ := command(t, server.URL, fmt.Sprintf("busy/user%d", i), fmt.Sprintf("aq quote %d", i))
					assert.Equal(t, http.StatusOK, status)
				}(i)
			}
			wg.Wait()

			status, reply := command(t, server.URL, "busy/check", fmt.Sprintf("q %d", callers))
			require.Equal(t, http.StatusOK, status)
			assert.True(t, strings.HasPrefix(reply, fmt.Sprintf("[%d/%d]", callers, callers)), reply)
		})
	}
}

func TestRoomsDoNotShareQuotes(t *testing.T) {
	t.Parallel()
	server := fileServer(t)

	_, reply := command(t, server.URL, "room1/alice", "aq only here")
	assert.Equal(t, "Quote added (number 1)", reply)
	_, reply = command(t, server.URL, "room2/alice", "q")
	assert.Equal(t, quote.ReplyEmpty, reply)
}

func TestPlainChatIsNotAnswered(t *testing.T) {
	t.Parallel()
	server := fileServer(t)

	alice := dialWS(t, server.URL, "alice")
	require.NoError(t, alice.WriteMessage(websocket.TextMessage, []byte(`{"type":"join","room":"general"}`)))
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, alice.WriteMessage(websocket.TextMessage, []byte(`{"type":"chat","room":"general","text":"quiet please"}`)))

	readUntilType(t, alice, domain.MsgChat, 10)
	alice.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	for {
		_, data, err := alice.ReadMessage()
		if err != nil {
			break
		}
		msg, _ := domain.DecodeMessage(data)
		assert.NotEqual(t, domain.MsgSystem, msg.Type)
	}
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()
	server := fileServer(t)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}
