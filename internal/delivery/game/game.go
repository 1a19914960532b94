package game

import (
	"context"
	"errors"
	"goban/internal/ai"
	"goban/internal/bootstrap"
	"goban/internal/domain/game"
	"goban/internal/httpresponse"
	"goban/internal/printout"
	gameuc "goban/internal/usecase/game"
	"goban/internal/utils"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type GameHandler struct {
	cfg    bootstrap.Config
	log    *zap.SugaredLogger
	gameUC *gameuc.GameUseCase
	hub    *hub
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func NewGameHandler(cfg bootstrap.Config, log *zap.SugaredLogger, gameUC *gameuc.GameUseCase) *GameHandler {
	return &GameHandler{
		cfg:    cfg,
		log:    log,
		gameUC: gameUC,
		hub:    newHub(),
	}
}

type createGameRequest struct {
	Size         int    `json:"size"`
	Rule         string `json:"rule"`
	CaptureLimit int    `json:"capture_limit"`
	MoveLimit    int    `json:"move_limit"`
}

type moveRequest struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type endGameRequest struct {
	Winner string `json:"winner"`
}

type GameCreateResponse struct {
	ID    string          `json:"id"`
	State gameuc.Snapshot `json:"state"`
}

type legalResponse struct {
	X     int  `json:"x"`
	Y     int  `json:"y"`
	Legal bool `json:"legal"`
}

type aiMoveResponse struct {
	Move       game.Position   `json:"move"`
	Pass       bool            `json:"pass"`
	Confidence float64         `json:"confidence"`
	Rationale  string          `json:"rationale"`
	State      gameuc.Snapshot `json:"state"`
}

// Routes mounts the game API on r.
func (g *GameHandler) Routes(r chi.Router) {
	r.Route("/games", func(r chi.Router) {
		r.Post("/", g.HandleNewGame)
		r.Post("/restore/{id}", g.HandleRestoreGame)
		r.Get("/archive/{id}", g.HandleArchivedGame)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", g.HandleGetGame)
			r.Delete("/", g.HandleForgetGame)
			r.Post("/move", g.HandleMove)
			r.Post("/pass", g.HandlePass)
			r.Post("/undo", g.HandleUndo)
			r.Post("/resign", g.HandleResign)
			r.Post("/pause", g.HandlePause)
			r.Post("/resume", g.HandleResume)
			r.Post("/end", g.HandleEndGame)
			r.Post("/ai", g.HandleAIMove)
			r.Get("/legal", g.HandleLegal)
			r.Get("/score", g.HandleScore)
			r.Get("/territory", g.HandleTerritory)
			r.Get("/record", g.HandleRecord)
			r.Get("/sgf", g.HandleSGF)
			r.Get("/pdf", g.HandlePDF)
			r.Get("/ws", g.HandleWatch)
		})
	})
}

func (g *GameHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if httpresponse.StatusFor(err) == http.StatusInternalServerError {
		g.log.Errorw("request failed", "path", r.URL.Path, "error", err)
	} else {
		g.log.Debugw("request rejected", "path", r.URL.Path, "error", err)
	}
	httpresponse.WriteError(w, err)
}

func (g *GameHandler) HandleNewGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		g.log.Error("JSON decode error:", err)
		httpresponse.WriteMalformed(w, err)
		return
	}

	ctx := r.Context()
	limits := game.Limits{CaptureLimit: req.CaptureLimit, MoveLimit: req.MoveLimit}
	id, err := g.gameUC.CreateSession(ctx, req.Size, game.RuleVariant(req.Rule), limits)
	if err != nil {
		g.fail(w, r, err)
		return
	}
	snap, err := g.gameUC.State(id)
	if err != nil {
		g.fail(w, r, err)
		return
	}

	g.log.Info("New Game Created with key: " + id)
	httpresponse.WriteResponseWithStatus(w, http.StatusCreated, GameCreateResponse{ID: id, State: snap})
}

func (g *GameHandler) HandleGetGame(w http.ResponseWriter, r *http.Request) {
	snap, err := g.gameUC.State(chi.URLParam(r, "id"))
	if err != nil {
		g.fail(w, r, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, snap)
}

func (g *GameHandler) HandleForgetGame(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := g.gameUC.Forget(r.Context(), id); err != nil {
		g.fail(w, r, err)
		return
	}
	g.hub.publish(id, "closed", map[string]string{"id": id})
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, map[string]string{"id": id})
}

func (g *GameHandler) HandleMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		httpresponse.WriteMalformed(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	g.respond(w, r, id)(g.gameUC.MakeMove(r.Context(), id, game.Position{X: req.X, Y: req.Y}))
}

func (g *GameHandler) HandlePass(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	g.respond(w, r, id)(g.gameUC.Pass(r.Context(), id))
}

func (g *GameHandler) HandleUndo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	g.respond(w, r, id)(g.gameUC.UndoLastMove(r.Context(), id))
}

func (g *GameHandler) HandleResign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	g.respond(w, r, id)(g.gameUC.Resign(r.Context(), id))
}

func (g *GameHandler) HandlePause(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	g.respond(w, r, id)(g.gameUC.Pause(r.Context(), id))
}

func (g *GameHandler) HandleResume(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	g.respond(w, r, id)(g.gameUC.Resume(r.Context(), id))
}

func (g *GameHandler) HandleEndGame(w http.ResponseWriter, r *http.Request) {
	var req endGameRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		httpresponse.WriteMalformed(w, err)
		return
	}
	winner := game.Empty
	if req.Winner != "" {
		c, err := game.ParseColor(req.Winner)
		if err != nil {
			httpresponse.WriteMalformed(w, err)
			return
		}
		winner = c
	}
	id := chi.URLParam(r, "id")
	g.respond(w, r, id)(g.gameUC.EndGame(r.Context(), id, winner))
}

// respond пишет снимок партии и рассылает его наблюдателям.
func (g *GameHandler) respond(w http.ResponseWriter, r *http.Request, id string) func(gameuc.Snapshot, error) {
	return func(snap gameuc.Snapshot, err error) {
		if err != nil {
			g.fail(w, r, err)
			return
		}
		g.hub.publish(id, "state", snap)
		httpresponse.WriteResponseWithStatus(w, http.StatusOK, snap)
	}
}

func (g *GameHandler) HandleAIMove(w http.ResponseWriter, r *http.Request) {
	tier := ai.Intermediate
	if v := r.URL.Query().Get("tier"); v != "" {
		t, err := ai.ParseTier(v)
		if err != nil {
			httpresponse.WriteMalformed(w, err)
			return
		}
		tier = t
	}

	id := chi.URLParam(r, "id")
	res, err := g.gameUC.PlayAI(r.Context(), id, tier)
	if err != nil {
		g.fail(w, r, err)
		return
	}
	g.hub.publish(id, "state", res.State)
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, aiResponse(res))
}

func aiResponse(res gameuc.AIResult) aiMoveResponse {
	return aiMoveResponse{
		Move:       res.Suggestion.Position,
		Pass:       res.Suggestion.Pass,
		Confidence: res.Suggestion.Confidence,
		Rationale:  res.Suggestion.Rationale,
		State:      res.State,
	}
}

func (g *GameHandler) HandleLegal(w http.ResponseWriter, r *http.Request) {
	x, errX := strconv.Atoi(r.URL.Query().Get("x"))
	y, errY := strconv.Atoi(r.URL.Query().Get("y"))
	if err := errors.Join(errX, errY); err != nil {
		httpresponse.WriteMalformed(w, err)
		return
	}
	legal, err := g.gameUC.IsLegalMove(chi.URLParam(r, "id"), game.Position{X: x, Y: y})
	if err != nil {
		g.fail(w, r, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, legalResponse{X: x, Y: y, Legal: legal})
}

func (g *GameHandler) HandleScore(w http.ResponseWriter, r *http.Request) {
	score, err := g.gameUC.CalculateScore(chi.URLParam(r, "id"))
	if err != nil {
		g.fail(w, r, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, struct {
		game.Score
		Result string `json:"result"`
	}{score, score.Result()})
}

func (g *GameHandler) HandleTerritory(w http.ResponseWriter, r *http.Request) {
	regions, summary, err := g.gameUC.Territory(chi.URLParam(r, "id"))
	if err != nil {
		g.fail(w, r, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, map[string]any{
		"regions": regions,
		"summary": summary,
	})
}

func (g *GameHandler) HandleRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := g.gameUC.ExportRecord(chi.URLParam(r, "id"))
	if err != nil {
		g.fail(w, r, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, rec)
}

func (g *GameHandler) HandleSGF(w http.ResponseWriter, r *http.Request) {
	text, err := g.gameUC.ExportSGF(chi.URLParam(r, "id"))
	if err != nil {
		g.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/x-go-sgf")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, text)
}

func (g *GameHandler) HandlePDF(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	snap, err := g.gameUC.State(id)
	if err != nil {
		g.fail(w, r, err)
		return
	}
	rec, err := g.gameUC.ExportRecord(id)
	if err != nil {
		g.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="`+id+`.pdf"`)
	err = printout.WriteGameSheet(w, printout.Sheet{
		ID:            id,
		Rule:          snap.Rule,
		Board:         snap.Board,
		Moves:         rec,
		BlackCaptures: snap.BlackCaptures,
		WhiteCaptures: snap.WhiteCaptures,
		Result:        snap.Result,
	})
	if err != nil {
		g.log.Errorw("failed to render game sheet", "game", id, "error", err)
	}
}

func (g *GameHandler) HandleRestoreGame(w http.ResponseWriter, r *http.Request) {
	snap, err := g.gameUC.RestoreSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		g.fail(w, r, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, snap)
}

func (g *GameHandler) HandleArchivedGame(w http.ResponseWriter, r *http.Request) {
	rec, err := g.gameUC.FinishedGame(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		g.fail(w, r, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, rec)
}

type wsCommand struct {
	Type string `json:"type"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
	Tier string `json:"tier,omitempty"`
}

type wsError struct {
	Error string `json:"error"`
}

// HandleWatch подключает веб-сокет к партии: клиент получает снимок после каждого
// изменения и может сам присылать ходы.
func (g *GameHandler) HandleWatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	snap, err := g.gameUC.State(id)
	if err != nil {
		g.fail(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Error("upgrade error:", err)
		return
	}
	c := &client{gameID: id, conn: conn, send: make(chan []byte, 16)}
	g.hub.register(c)
	c.sendJSON(wsMessage{Type: "state", Payload: mustMarshal(snap)})

	go func() {
		defer conn.Close()
		if err := writeWSWithHeartbeat(conn, c.send); err != nil {
			g.log.Debugw("ws write failed", "game", id, "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	defer g.hub.unregister(c)

	for {
		var cmd wsCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			g.log.Debugw("ws read stopped", "game", id, "error", err)
			return
		}
		g.handleCommand(ctx, c, cmd)
	}
}

func (g *GameHandler) handleCommand(ctx context.Context, c *client, cmd wsCommand) {
	var (
		snap gameuc.Snapshot
		err  error
	)
	switch cmd.Type {
	case "move":
		snap, err = g.gameUC.MakeMove(ctx, c.gameID, game.Position{X: cmd.X, Y: cmd.Y})
	case "pass":
		snap, err = g.gameUC.Pass(ctx, c.gameID)
	case "undo":
		snap, err = g.gameUC.UndoLastMove(ctx, c.gameID)
	case "resign":
		snap, err = g.gameUC.Resign(ctx, c.gameID)
	case "ai":
		g.startAIMove(ctx, c, cmd.Tier)
		return
	default:
		c.sendJSON(wsMessage{Type: "error", Payload: mustMarshal(wsError{Error: "unknown command " + strconv.Quote(cmd.Type)})})
		return
	}
	if err != nil {
		c.sendJSON(wsMessage{Type: "error", Payload: mustMarshal(wsError{Error: err.Error()})})
		return
	}
	g.hub.publish(c.gameID, "state", snap)
}

func (g *GameHandler) startAIMove(ctx context.Context, c *client, tierName string) {
	tier := ai.Intermediate
	if tierName != "" {
		t, err := ai.ParseTier(tierName)
		if err != nil {
			c.sendJSON(wsMessage{Type: "error", Payload: mustMarshal(wsError{Error: err.Error()})})
			return
		}
		tier = t
	}
	ch, err := g.gameUC.RequestAIMove(ctx, c.gameID, tier)
	if err != nil {
		c.sendJSON(wsMessage{Type: "error", Payload: mustMarshal(wsError{Error: err.Error()})})
		return
	}
	g.hub.publish(c.gameID, "thinking", map[string]string{"tier": string(tier)})

	go func() {
		res, ok := <-ch
		if !ok {
			return
		}
		if res.Err != nil {
			g.hub.publish(c.gameID, "error", wsError{Error: res.Err.Error()})
			return
		}
		g.hub.publish(c.gameID, "ai", aiResponse(res))
		g.hub.publish(c.gameID, "state", res.State)
	}()
}
