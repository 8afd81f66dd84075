/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Connect Four sessions
//
// Each game ID is an isolated hot-seat game: both players share the page
// and take turns clicking columns. Anyone who opens the same game URL sees
// the same board and may play the current turn.
//
// Features:
// - WebSockets per game ID: /path/:gameid and /path/:gameid/ws
// - Board state pushed to every connected page after each move or reset
// - Rejected moves reported only to the client that made them
// - JSON endpoints for clients without WebSockets: state, drop, reset
// - Games auto-reaped after configurable idle timeout
// - Random 8-char game IDs via crypto/rand, with server-side collision check
// - In-browser QR button to share the current game, backed by go-qrcode

package main

import (
	"crypto/rand"
	_ "embed"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Seednode/connectfour/games/connectfour"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
)

var errGameClosed = errors.New("game has ended")

// Messages coming from clients
type ClientMessage struct {
	Type   string `json:"type"`             // "drop", "reset"
	Column *int   `json:"column,omitempty"` // drop
}

// GameStateMessage carries the full board after every change.
type GameStateMessage struct {
	Type string `json:"type"` // "game_state"
	connectfour.Snapshot
}

// MoveRejectedMessage is sent only to the client whose move had no effect.
type MoveRejectedMessage struct {
	Type    string `json:"type"`   // "move_rejected"
	Reason  string `json:"reason"` // "column_full", "invalid_column", "game_over"
	Message string `json:"message"`
}

func rejection(err error) MoveRejectedMessage {
	msg := MoveRejectedMessage{Type: "move_rejected", Message: err.Error()}

	switch {
	case errors.Is(err, connectfour.ErrColumnFull):
		msg.Reason = "column_full"
		msg.Message = "That column is full. Pick another one."
	case errors.Is(err, connectfour.ErrInvalidColumn):
		msg.Reason = "invalid_column"
		msg.Message = "There is no such column."
	case errors.Is(err, connectfour.ErrGameOver):
		msg.Reason = "game_over"
		msg.Message = "The game is over. Press restart to play again."
	default:
		msg.Reason = "error"
	}

	return msg
}

type Client struct {
	conn     *websocket.Conn
	send     chan any
	playerID string
}

// moveRequest asks the hub to play a column or reset the board. reply, if
// set, receives the outcome; it must be buffered.
type moveRequest struct {
	client *Client
	column int
	reset  bool
	reply  chan moveResult
}

type moveResult struct {
	snapshot connectfour.Snapshot
	err      error
}

type Hub struct {
	id   string
	game *connectfour.Game

	clients map[*Client]bool

	register  chan *Client
	unreg     chan *Client
	moves     chan moveRequest
	snapshots chan chan connectfour.Snapshot
	done      chan struct{}
	closeOnce sync.Once

	mu sync.RWMutex

	closed     bool
	lastActive time.Time
}

func newHub(gameID string) *Hub {
	now := time.Now()
	return &Hub{
		id:         gameID,
		game:       connectfour.NewGame(),
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		moves:      make(chan moveRequest),
		snapshots:  make(chan chan connectfour.Snapshot),
		done:       make(chan struct{}),
		lastActive: now,
	}
}

// run owns h.game. Every request is handled to completion before the next.
func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			return

		case c := <-h.register:
			h.mu.Lock()
			if h.closed {
				close(c.send)
				_ = c.conn.Close()
				h.mu.Unlock()
				continue
			}
			h.lastActive = time.Now()
			h.clients[c] = true

			c.send <- GameStateMessage{Type: "game_state", Snapshot: h.game.Snapshot()}
			h.mu.Unlock()

		case c := <-h.unreg:
			h.mu.Lock()
			h.lastActive = time.Now()

			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

		case req := <-h.moves:
			h.handleMove(req)

		case reply := <-h.snapshots:
			reply <- h.game.Snapshot()
		}
	}
}

func (h *Hub) handleMove(req moveRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastActive = time.Now()

	var err error

	if req.reset {
		h.game.Reset()

		log.Info().Str("game", h.id).Msg("GAMES: Board reset")
	} else {
		var row int

		player := h.game.CurrentPlayer()
		row, err = h.game.Play(req.column)

		if err == nil {
			ev := log.Info().Str("game", h.id).Stringer("player", player).Int("column", req.column).Int("row", row)
			if st := h.game.Status(); st.Terminal() {
				ev = ev.Stringer("result", st.State)
			}
			ev.Msg("GAMES: Piece dropped")
		}
	}

	snapshot := h.game.Snapshot()

	if req.reply != nil {
		req.reply <- moveResult{snapshot: snapshot, err: err}
	}

	if err != nil {
		if req.client != nil && h.clients[req.client] {
			select {
			case req.client.send <- rejection(err):
			default:
				delete(h.clients, req.client)
				close(req.client.send)
			}
		}

		return
	}

	h.broadcastLocked(GameStateMessage{Type: "game_state", Snapshot: snapshot})
}

// broadcastLocked assumes h.mu is already held.
func (h *Hub) broadcastLocked(msg any) {
	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
			delete(h.clients, client)
			close(client.send)
		}
	}
}

// submit hands req to the hub and waits for the outcome.
func (h *Hub) submit(req moveRequest) moveResult {
	req.reply = make(chan moveResult, 1)

	if h.isClosed() {
		return moveResult{err: errGameClosed}
	}

	select {
	case h.moves <- req:
	case <-h.done:
		return moveResult{err: errGameClosed}
	}

	select {
	case res := <-req.reply:
		return res
	case <-h.done:
		return moveResult{err: errGameClosed}
	}
}

func (h *Hub) snapshot() (connectfour.Snapshot, error) {
	reply := make(chan connectfour.Snapshot, 1)

	if h.isClosed() {
		return connectfour.Snapshot{}, errGameClosed
	}

	select {
	case h.snapshots <- reply:
	case <-h.done:
		return connectfour.Snapshot{}, errGameClosed
	}

	select {
	case s := <-reply:
		return s, nil
	case <-h.done:
		return connectfour.Snapshot{}, errGameClosed
	}
}

func (h *Hub) isClosed() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

func (h *Hub) idleSince() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.lastActive
}

// closeAll stops the hub and disconnects all of its clients.
func (h *Hub) closeAll() {
	h.closeOnce.Do(func() {
		close(h.done)

		h.mu.Lock()
		defer h.mu.Unlock()

		h.closed = true
		for c := range h.clients {
			close(c.send)
			_ = c.conn.Close()
			delete(h.clients, c)
		}
	})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const playerCookieName = "connectfour_id"

func getOrSetPlayerID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(playerCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	id := uuid.NewString()

	http.SetCookie(w, &http.Cookie{
		Name:     playerCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return id
}

// GameManager holds a set of hubs keyed by game ID, so each $path/$gameid
// is its own isolated game.
type GameManager struct {
	mu          sync.Mutex
	hubs        map[string]*Hub
	idleTimeout time.Duration
	stop        chan struct{}
	stopOnce    sync.Once
}

func newGameManager(idleTimeout time.Duration) *GameManager {
	gm := &GameManager{
		hubs:        make(map[string]*Hub),
		idleTimeout: idleTimeout,
		stop:        make(chan struct{}),
	}
	if idleTimeout > 0 {
		go gm.reaperLoop()
	}
	return gm
}

// getHub returns the hub for gameID, starting one if none exists.
func (gm *GameManager) getHub(gameID string) *Hub {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if hub, ok := gm.hubs[gameID]; ok {
		return hub
	}

	hub := newHub(gameID)
	gm.hubs[gameID] = hub
	go hub.run()
	return hub
}

// lookupHub returns the hub for gameID without creating one.
func (gm *GameManager) lookupHub(gameID string) (*Hub, bool) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	hub, ok := gm.hubs[gameID]
	return hub, ok
}

const (
	gameIDLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	gameIDLength  = 8
	maxGameIDLen  = 32
)

// validGameID accepts the alphabet newGameID draws from, so bookmarked or
// hand-typed IDs keep working.
func validGameID(id string) bool {
	if id == "" || len(id) > maxGameIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if !strings.ContainsRune(gameIDLetters, rune(id[i])) {
			return false
		}
	}
	return true
}

// newGameID generates a crypto-random game ID and ensures it doesn't
// collide with existing games.
func (gm *GameManager) newGameID() string {
	for {
		buf := make([]byte, gameIDLength)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, gameIDLength)
		for i := range out {
			out[i] = gameIDLetters[int(buf[i])%len(gameIDLetters)]
		}
		id := string(out)

		gm.mu.Lock()
		_, exists := gm.hubs[id]
		gm.mu.Unlock()

		if !exists {
			return id
		}
	}
}

// reap removes hubs that have been idle since before cutoff.
func (gm *GameManager) reap(cutoff time.Time) int {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	reaped := 0
	for id, hub := range gm.hubs {
		if hub.idleSince().Before(cutoff) {
			delete(gm.hubs, id)
			go hub.closeAll()
			reaped++

			log.Info().Str("game", id).Msg("GAMES: Reaped idle game")
		}
	}
	return reaped
}

func (gm *GameManager) reaperLoop() {
	ticker := time.NewTicker(gm.idleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-gm.stop:
			return
		case now := <-ticker.C:
			gm.reap(now.Add(-gm.idleTimeout))
		}
	}
}

// shutdown stops the reaper and ends every game.
func (gm *GameManager) shutdown() {
	gm.stopOnce.Do(func() {
		close(gm.stop)
	})

	gm.mu.Lock()
	defer gm.mu.Unlock()

	for id, hub := range gm.hubs {
		delete(gm.hubs, id)
		hub.closeAll()
	}
}

// WebSocket handler that picks the hub based on :gameid
func serveWSForManager(gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")
		if !validGameID(gameID) {
			http.Error(w, "invalid game id", http.StatusBadRequest)
			return
		}

		playerID := getOrSetPlayerID(w, r)

		hub := gm.getHub(gameID)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Str("game", gameID).Msg("GAMES: WebSocket upgrade failed")
			return
		}

		client := &Client{
			conn:     conn,
			send:     make(chan any, 8),
			playerID: playerID,
		}

		select {
		case hub.register <- client:
		case <-hub.done:
			_ = conn.Close()
			return
		}

		log.Info().Str("game", gameID).Str("player", playerID).Str("remote", realIP(r)).Msg("GAMES: Client connected")

		go client.writePump()
		client.readPump(hub)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		var req moveRequest
		switch msg.Type {
		case "drop":
			col := -1
			if msg.Column != nil {
				col = *msg.Column
			}
			req = moveRequest{client: c, column: col}
		case "reset":
			req = moveRequest{client: c, reset: true}
		default:
			// ignore unknown types
			continue
		}

		select {
		case h.moves <- req:
		case <-h.done:
			return
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(cfg *Config, w http.ResponseWriter, status int, v any, errs chan<- error) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	securityHeaders(cfg, w)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		reportError(errs, err)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, connectfour.ErrInvalidColumn):
		return http.StatusBadRequest
	case errors.Is(err, connectfour.ErrColumnFull), errors.Is(err, connectfour.ErrGameOver):
		return http.StatusConflict
	case errors.Is(err, errGameClosed):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// existingHub resolves :gameid for the JSON endpoints, which never start games.
func existingHub(cfg *Config, gm *GameManager, w http.ResponseWriter, ps httprouter.Params, errs chan<- error) (*Hub, bool) {
	hub, ok := gm.lookupHub(ps.ByName("gameid"))
	if !ok {
		writeJSON(cfg, w, http.StatusNotFound, errorResponse{Error: "no such game"}, errs)
		return nil, false
	}
	return hub, true
}

func serveState(cfg *Config, gm *GameManager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		hub, ok := existingHub(cfg, gm, w, ps, errs)
		if !ok {
			return
		}

		s, err := hub.snapshot()
		if err != nil {
			writeJSON(cfg, w, statusFor(err), errorResponse{Error: err.Error()}, errs)
			return
		}

		writeJSON(cfg, w, http.StatusOK, s, errs)
	}
}

func serveDrop(cfg *Config, gm *GameManager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		col, err := strconv.Atoi(ps.ByName("column"))
		if err != nil {
			writeJSON(cfg, w, http.StatusBadRequest, errorResponse{Error: connectfour.ErrInvalidColumn.Error()}, errs)
			return
		}

		hub, ok := existingHub(cfg, gm, w, ps, errs)
		if !ok {
			return
		}

		res := hub.submit(moveRequest{column: col})
		if res.err != nil {
			writeJSON(cfg, w, statusFor(res.err), errorResponse{Error: res.err.Error()}, errs)
			return
		}

		writeJSON(cfg, w, http.StatusOK, res.snapshot, errs)
	}
}

func serveReset(cfg *Config, gm *GameManager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		hub, ok := existingHub(cfg, gm, w, ps, errs)
		if !ok {
			return
		}

		res := hub.submit(moveRequest{reset: true})
		if res.err != nil {
			writeJSON(cfg, w, statusFor(res.err), errorResponse{Error: res.err.Error()}, errs)
			return
		}

		writeJSON(cfg, w, http.StatusOK, res.snapshot, errs)
	}
}

// gameURL rebuilds the public URL of the game page from a request to one of
// its sub-routes, respecting TLS and X-Forwarded-Proto.
func gameURL(r *http.Request, suffix string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	return scheme + "://" + r.Host + strings.TrimSuffix(r.URL.Path, suffix)
}

// QR handler: generates a PNG QR code for the current game URL using go-qrcode.
func qrHandler(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if !validGameID(ps.ByName("gameid")) {
			http.Error(w, "invalid game id", http.StatusBadRequest)
			return
		}

		const qrSize = 320 // mobile-friendly size
		png, err := qrcode.Encode(gameURL(r, "/qr"), qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", strconv.Itoa(len(png)))
		securityHeaders(cfg, w)

		if _, err := w.Write(png); err != nil {
			reportError(errs, err)
		}
	}
}

//go:embed assets/connectfour/index.html
var indexHTML []byte

func getIndexHandler(cfg *Config, gm *GameManager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")
		if !validGameID(gameID) {
			http.NotFound(w, r)
			return
		}

		gm.getHub(gameID)

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		cacheFor(w, time.Hour)
		securityHeaders(cfg, w)

		_ = getOrSetPlayerID(w, r)

		if _, err := w.Write(indexHTML); err != nil {
			reportError(errs, err)
		}
	}
}

// redirectNewGame handles GET /path by generating a new random game ID
// (with server-side collision detection) and redirecting to /path/:gameid.
func redirectNewGame(path string, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		gameID := gm.newGameID()
		log.Info().Str("game", gameID).Str("remote", realIP(r)).Msg("GAMES: Created game")
		http.Redirect(w, r, path+"/"+gameID, http.StatusTemporaryRedirect)
	}
}

// registerConnectFour sets up routes so that:
//   - $path                       → redirects to new random game (8-char ID)
//   - $path/:gameid               → HTML client
//   - $path/:gameid/ws            → WebSocket for that game
//   - $path/:gameid/qr            → PNG QR code for that game URL
//   - $path/:gameid/state         → JSON snapshot
//   - $path/:gameid/drop/:column  → POST, play a column
//   - $path/:gameid/reset         → POST, start over
func registerConnectFour(cfg *Config, path string, mux *httprouter.Router, errs chan<- error) *GameManager {
	gm := newGameManager(cfg.sessionTimeout)

	base := cfg.prefix + path

	mux.GET(base, redirectNewGame(base, gm))

	mux.GET(base+"/:gameid", getIndexHandler(cfg, gm, errs))

	mux.GET(base+"/:gameid/ws", serveWSForManager(gm))

	mux.GET(base+"/:gameid/qr", qrHandler(cfg, errs))

	mux.GET(base+"/:gameid/state", serveState(cfg, gm, errs))

	mux.POST(base+"/:gameid/drop/:column", serveDrop(cfg, gm, errs))

	mux.POST(base+"/:gameid/reset", serveReset(cfg, gm, errs))

	return gm
}
