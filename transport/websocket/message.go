package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/entity"
)

const (
	ActionMove    = "game:move"
	ActionReset   = "game:reset"
	ActionRefresh = "game:refresh"

	ActionBoard   = "board"
	ActionMessage = "message"
	ActionError   = "error"
)

// Message is the envelope for both directions.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type MovePayload struct {
	Cell *int `json:"cell"`
}

type BoardPayload struct {
	Board [entity.BoardSize]string `json:"board"`
}

type TextPayload struct {
	Text string `json:"text"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

// connView renders the game to one websocket connection.
type connView struct {
	logger       *slog.Logger
	conn         *websocket.Conn
	writeTimeout time.Duration

	mu sync.Mutex
}

func newConnView(logger *slog.Logger, conn *websocket.Conn, writeTimeout time.Duration) *connView {
	return &connView{
		logger:       logger,
		conn:         conn,
		writeTimeout: writeTimeout,
	}
}

func (that *connView) DisplayBoard(board entity.Board) {
	payload := BoardPayload{}
	for i, cell := range board.Cells() {
		payload.Board[i] = string(cell)
	}

	that.send(ActionBoard, payload)
}

func (that *connView) DisplayMessage(text string) {
	that.send(ActionMessage, TextPayload{Text: text})
}

func (that *connView) sendError(text string) {
	that.send(ActionError, ErrorPayload{Error: text})
}

func (that *connView) send(action string, payload any) {
	if err := that.sendMessage(action, payload); err != nil {
		that.logger.Error("failed to send message", "action", action, "error", err)
	}
}

func (that *connView) sendMessage(action string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if err = that.conn.SetWriteDeadline(time.Now().Add(that.writeTimeout)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if err = that.conn.WriteJSON(Message{Action: action, Payload: body}); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}
