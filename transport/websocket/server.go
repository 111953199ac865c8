package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/tictactoe"
)

const SessionCookie = "user_session"

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrMissingCell   = errors.New("cell is required")
)

type gameManager interface {
	Connect(sessionID string, view tictactoe.View)
	Disconnect(sessionID string, view tictactoe.View)

	RequestMove(sessionID string, cell int) error
	Reset(sessionID string) error
	Refresh(sessionID string) error
}

type Server struct {
	logger       *slog.Logger
	games        gameManager
	upgrader     websocket.Upgrader
	writeTimeout time.Duration
	cookieTTL    time.Duration

	handlers map[string]func(sessionID string, message *Message) error

	connsMutex sync.Mutex
	conns      map[*websocket.Conn]struct{}
}

func New(logger *slog.Logger, games gameManager, writeTimeout, cookieTTL time.Duration) *Server {
	server := &Server{
		logger:       logger.With("component", "websocket"),
		games:        games,
		writeTimeout: writeTimeout,
		cookieTTL:    cookieTTL,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		conns: make(map[*websocket.Conn]struct{}),
	}

	server.handlers = map[string]func(string, *Message) error{
		ActionMove:    server.handleMove,
		ActionReset:   server.handleReset,
		ActionRefresh: server.handleRefresh,
	}

	return server
}

// ServeHTTP upgrades the request and plays the session bound to the user_session cookie.
func (that *Server) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "ServeHTTP")

	sessionID, header := that.sessionID(req)
	log = log.With("sessionID", sessionID)

	conn, err := that.upgrader.Upgrade(writer, req, header)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	that.track(conn)
	defer func() {
		that.untrack(conn)
		if err = conn.Close(); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
			log.Debug("failed to close connection", "error", err)
		}
	}()

	log.Info("WebSocket connection established")

	view := newConnView(log, conn, that.writeTimeout)
	that.games.Connect(sessionID, view)
	defer that.games.Disconnect(sessionID, view)

	if err = that.handleMessages(sessionID, conn, view); err != nil {
		log.Info("WebSocket connection closed", "reason", err)
	}
}

// Close drops every open connection.
func (that *Server) Close() {
	that.connsMutex.Lock()
	defer that.connsMutex.Unlock()

	for conn := range that.conns {
		_ = conn.Close()
	}
}

// handleMessages - processes messages from the client until the connection fails.
func (that *Server) handleMessages(sessionID string, conn *websocket.Conn, view *connView) error {
	log := that.logger.With("method", "handleMessages", "sessionID", sessionID)

	for {
		_, body, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("failed to read message: %w", err)
		}

		var message Message
		if err = json.Unmarshal(body, &message); err != nil {
			log.Warn("failed to unmarshal message", "error", err)
			view.sendError("invalid message")
			continue
		}

		if err = that.dispatch(sessionID, &message, view); err != nil {
			log.Warn("error processing message", "action", message.Action, "error", err)
			view.sendError(err.Error())
		}
	}
}

func (that *Server) dispatch(sessionID string, message *Message, view *connView) error {
	handler, ok := that.handlers[message.Action]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAction, message.Action)
	}

	err := handler(sessionID, message)
	if errors.Is(err, apperror.ErrSessionNotFound) {
		// the session was evicted while the socket stayed open
		that.games.Connect(sessionID, view)
		err = handler(sessionID, message)
	}

	return err
}

func (that *Server) handleMove(sessionID string, message *Message) error {
	if len(message.Payload) == 0 {
		return ErrMissingCell
	}

	var payload MovePayload
	if err := json.Unmarshal(message.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payload.Cell == nil {
		return ErrMissingCell
	}

	return that.games.RequestMove(sessionID, *payload.Cell)
}

func (that *Server) handleReset(sessionID string, _ *Message) error {
	return that.games.Reset(sessionID)
}

func (that *Server) handleRefresh(sessionID string, _ *Message) error {
	return that.games.Refresh(sessionID)
}

// sessionID reads the session cookie, or creates one and returns the header that sets it.
func (that *Server) sessionID(req *http.Request) (string, http.Header) {
	if cookie, err := req.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	cookie := &http.Cookie{
		Name:     SessionCookie,
		Value:    uuid.NewString(),
		Expires:  time.Now().Add(that.cookieTTL),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	header := http.Header{}
	header.Add("Set-Cookie", cookie.String())

	return cookie.Value, header
}

func (that *Server) track(conn *websocket.Conn) {
	that.connsMutex.Lock()
	defer that.connsMutex.Unlock()

	that.conns[conn] = struct{}{}
}

func (that *Server) untrack(conn *websocket.Conn) {
	that.connsMutex.Lock()
	defer that.connsMutex.Unlock()

	delete(that.conns, conn)
}
