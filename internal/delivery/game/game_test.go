package game

import (
	"context"
	"encoding/json"
	"goban/internal/ai"
	"goban/internal/bootstrap"
	"goban/internal/domain/game"
	gameuc "goban/internal/usecase/game"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type quickSelector struct {
	sel *ai.Selector
}

func (q quickSelector) SelectContext(_ context.Context, req ai.Request) (ai.Suggestion, error) {
	return q.sel.Select(req)
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	sel, err := ai.NewSelector(ai.DefaultConfig(), rand.NewSource(1))
	require.NoError(t, err)

	log := zap.NewNop().Sugar()
	uc := gameuc.NewGameUseCase(log, gameuc.Settings{DefaultBoardSize: 9, AllowedBoardSizes: []int{5, 9}}, nil, nil, quickSelector{sel})
	h := NewGameHandler(bootstrap.Config{}, log, uc)

	r := chi.NewRouter()
	h.Routes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

type envelope struct {
	Status int             `json:"Status"`
	Body   json.RawMessage `json:"Body"`
}

func call(t *testing.T, method, url string, body string) (int, json.RawMessage) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.Equal(t, resp.StatusCode, env.Status)
	return resp.StatusCode, env.Body
}

func createGame(t *testing.T, srv *httptest.Server, body string) string {
	t.Helper()
	status, raw := call(t, http.MethodPost, srv.URL+"/games/", body)
	require.Equal(t, http.StatusCreated, status, string(raw))
	var created GameCreateResponse
	require.NoError(t, json.Unmarshal(raw, &created))
	require.NotEmpty(t, created.ID)
	return created.ID
}

func TestCreateAndPlayOverHTTP(t *testing.T) {
	srv := newServer(t)
	id := createGame(t, srv, `{"size":5}`)
	base := srv.URL + "/games/" + id

	status, raw := call(t, http.MethodPost, base+"/move", `{"x":1,"y":0}`)
	require.Equal(t, http.StatusOK, status)
	var snap gameuc.Snapshot
	require.NoError(t, json.Unmarshal(raw, &snap))
	assert.Equal(t, 1, snap.MoveCount)
	assert.Equal(t, game.White, snap.CurrentPlayer)
	assert.Equal(t, game.Black, snap.Board[0][1])

	status, _ = call(t, http.MethodPost, base+"/move", `{"x":1,"y":0}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	status, _ = call(t, http.MethodPost, base+"/move", `{"x":1,"y":0,"color":"white"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, raw = call(t, http.MethodGet, base+"/legal?x=0&y=0", "")
	require.Equal(t, http.StatusOK, status)
	var legal legalResponse
	require.NoError(t, json.Unmarshal(raw, &legal))
	assert.True(t, legal.Legal)

	status, _ = call(t, http.MethodGet, base+"/legal?x=a", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, raw = call(t, http.MethodGet, base+"/score", "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(raw), `"result":"B+24"`)

	status, raw = call(t, http.MethodPost, base+"/resign", "")
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(raw, &snap))
	assert.Equal(t, "B+R", snap.Result)

	status, _ = call(t, http.MethodPost, base+"/pass", "")
	assert.Equal(t, http.StatusConflict, status)

	status, _ = call(t, http.MethodDelete, base, "")
	assert.Equal(t, http.StatusOK, status)
	status, _ = call(t, http.MethodGet, base, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCreateGameRejectsBadInput(t *testing.T) {
	srv := newServer(t)

	status, _ := call(t, http.MethodPost, srv.URL+"/games/", `{"size":7}`)
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = call(t, http.MethodPost, srv.URL+"/games/", `{"rule":"atari"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = call(t, http.MethodPost, srv.URL+"/games/", `{"size":`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = call(t, http.MethodGet, srv.URL+"/games/nope", "")
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = call(t, http.MethodGet, srv.URL+"/games/archive/nope", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestSGFAndRecordEndpoints(t *testing.T) {
	srv := newServer(t)
	id := createGame(t, srv, `{"size":9,"rule":"capture","capture_limit":5}`)
	base := srv.URL + "/games/" + id

	status, _ := call(t, http.MethodPost, base+"/move", `{"x":2,"y":3}`)
	require.Equal(t, http.StatusOK, status)
	status, _ = call(t, http.MethodPost, base+"/pass", "")
	require.Equal(t, http.StatusOK, status)

	resp, err := http.Get(base + "/sgf")
	require.NoError(t, err)
	defer resp.Body.Close()
	text, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "application/x-go-sgf", resp.Header.Get("Content-Type"))
	assert.Contains(t, string(text), "RU[capture]")
	assert.Contains(t, string(text), ";B[cd];W[])")

	pdf, err := http.Get(base + "/pdf")
	require.NoError(t, err)
	defer pdf.Body.Close()
	assert.Equal(t, "application/pdf", pdf.Header.Get("Content-Type"))
	head := make([]byte, 5)
	_, err = io.ReadFull(pdf.Body, head)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-", string(head))

	status, raw := call(t, http.MethodGet, base+"/record", "")
	require.Equal(t, http.StatusOK, status)
	var rec []game.RecordEntry
	require.NoError(t, json.Unmarshal(raw, &rec))
	assert.Equal(t, []game.RecordEntry{{Color: game.Black, X: 2, Y: 3}, {Color: game.White, X: -1, Y: -1}}, rec)
}

func TestAIMoveEndpoint(t *testing.T) {
	srv := newServer(t)
	id := createGame(t, srv, `{"size":9}`)

	status, _ := call(t, http.MethodPost, srv.URL+"/games/"+id+"/ai?tier=grandmaster", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, raw := call(t, http.MethodPost, srv.URL+"/games/"+id+"/ai?tier=advanced", "")
	require.Equal(t, http.StatusOK, status, string(raw))
	var res aiMoveResponse
	require.NoError(t, json.Unmarshal(raw, &res))
	assert.Equal(t, 1, res.State.MoveCount)
	assert.False(t, res.Pass)
	assert.NotEmpty(t, res.Rationale)
}

func readMessage(t *testing.T, conn *websocket.Conn, kind string) json.RawMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var msg wsMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == kind {
			return msg.Payload
		}
	}
}

func TestWatchBroadcastsState(t *testing.T) {
	srv := newServer(t)
	id := createGame(t, srv, `{"size":9}`)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/games/" + id + "/ws"
	player, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer player.Close()
	watcher, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer watcher.Close()

	var snap gameuc.Snapshot
	require.NoError(t, json.Unmarshal(readMessage(t, player, "state"), &snap))
	assert.Equal(t, 0, snap.MoveCount)
	readMessage(t, watcher, "state")

	require.NoError(t, player.WriteJSON(wsCommand{Type: "move", X: 4, Y: 4}))
	require.NoError(t, json.Unmarshal(readMessage(t, watcher, "state"), &snap))
	assert.Equal(t, 1, snap.MoveCount)
	assert.Equal(t, game.Black, snap.Board[4][4])

	// ход по HTTP тоже доходит до сокета
	status, _ := call(t, http.MethodPost, srv.URL+"/games/"+id+"/move", `{"x":2,"y":2}`)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(readMessage(t, player, "state"), &snap))
	require.Equal(t, 1, snap.MoveCount)
	require.NoError(t, json.Unmarshal(readMessage(t, player, "state"), &snap))
	assert.Equal(t, 2, snap.MoveCount)

	require.NoError(t, player.WriteJSON(wsCommand{Type: "move", X: 4, Y: 4}))
	raw := readMessage(t, player, "error")
	assert.Contains(t, string(raw), "illegal move")

	require.NoError(t, player.WriteJSON(wsCommand{Type: "ai", Tier: "beginner"}))
	var res aiMoveResponse
	require.NoError(t, json.Unmarshal(readMessage(t, watcher, "ai"), &res))
	assert.Equal(t, 3, res.State.MoveCount)
}
