package tictactoe

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/entity"
)

const (
	maxRounds = entity.BoardSize

	drawMessage    = "Draw"
	abortedMessage = "Computer could not move, press reset"
)

// State of a game session.
type State int

const (
	StateAwaitingMove State = iota
	StateGameOver
)

func (s State) String() string {
	switch s {
	case StateAwaitingMove:
		return "awaiting_move"
	case StateGameOver:
		return "game_over"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// View is the presentation layer the controller reports to.
type View interface {
	DisplayBoard(board entity.Board)
	DisplayMessage(text string)
}

type bot interface {
	ChooseMove(board *entity.Board) (int, error)
}

// GameController runs one game: X is always human, O is the bot unless bot is nil.
// It is not safe for concurrent use.
type GameController struct {
	logger *slog.Logger
	board  *entity.Board
	view   View
	bot    bot

	playerX entity.Player
	playerO entity.Player

	round   int
	current entity.Player
	state   State
	message string
}

// NewGameController builds a controller and resets it, so the view receives the initial board.
// A nil bot makes O a second human player.
func NewGameController(logger *slog.Logger, board *entity.Board, view View, botPlayer bot) *GameController {
	controller := &GameController{
		logger: logger.With("component", "game_controller"),
		board:  board,
		view:   view,
		bot:    botPlayer,
	}

	controller.Reset()

	return controller
}

func (that *GameController) Reset() {
	that.playerX = entity.NewPlayer(entity.MarkX, true)
	that.playerO = entity.NewPlayer(entity.MarkO, that.bot == nil)

	that.round = 1
	that.current = that.playerX
	that.state = StateAwaitingMove

	that.board.Reset()
	that.view.DisplayBoard(*that.board)
	that.setMessage(turnMessage(that.current))
}

// RequestMove marks cell for the current player. Moves on an occupied cell or after the game
// is over are ignored. When the turn passes to the bot its reply is played before returning.
func (that *GameController) RequestMove(cell int) {
	log := that.logger.With("method", "RequestMove", "cell", cell, "round", that.round)

	if err := that.validateMove(cell); err != nil {
		if errors.Is(err, apperror.ErrCellOutOfRange) {
			log.Warn("move ignored", "error", err)
			return
		}

		log.Debug("move ignored", "error", err)
		return
	}

	if err := that.board.SetCell(cell, that.current.Mark()); err != nil {
		log.Warn("move ignored", "error", err)
		return
	}

	that.view.DisplayBoard(*that.board)

	if winner := that.board.Winner(); winner != entity.EmptyCell {
		that.finish(fmt.Sprintf("Player %s wins!", winner))
		return
	}

	if that.round == maxRounds {
		that.finish(drawMessage)
		return
	}

	that.round++
	that.switchCurrentPlayer()
}

// Refresh pushes the current board and status message again.
func (that *GameController) Refresh() {
	that.view.DisplayBoard(*that.board)
	that.view.DisplayMessage(that.message)
}

func (that *GameController) Round() int {
	return that.round
}

func (that *GameController) State() State {
	return that.state
}

func (that *GameController) IsOver() bool {
	return that.state == StateGameOver
}

func (that *GameController) CurrentPlayer() entity.Player {
	return that.current
}

// Winner returns the winning mark, EmptyCell while playing or after a draw.
func (that *GameController) Winner() entity.Mark {
	return that.board.Winner()
}

func (that *GameController) Message() string {
	return that.message
}

// Board returns a snapshot of the grid.
func (that *GameController) Board() entity.Board {
	return *that.board
}

func (that *GameController) validateMove(cell int) error {
	if that.state == StateGameOver {
		return apperror.ErrGameFinished
	}

	if _, err := that.board.GetCell(cell); err != nil {
		return err
	}

	if that.board.IsOccupied(cell) {
		return apperror.ErrCellOccupied
	}

	return nil
}

func (that *GameController) switchCurrentPlayer() {
	if that.current == that.playerX {
		that.current = that.playerO
	} else {
		that.current = that.playerX
	}

	that.setMessage(turnMessage(that.current))

	if !that.current.IsHuman() {
		that.playBotRound()
	}
}

func (that *GameController) playBotRound() {
	log := that.logger.With("method", "playBotRound", "round", that.round)

	cell, err := that.bot.ChooseMove(that.board)
	if err != nil {
		log.Error("bot failed to choose a move", "error", err)
		that.finish(abortedMessage)
		return
	}

	log.Debug("bot chose move", "cell", cell)

	that.RequestMove(cell)
}

func (that *GameController) finish(message string) {
	that.state = StateGameOver
	that.setMessage(message)

	that.logger.Info("game over", "result", message, "round", that.round)
}

func (that *GameController) setMessage(message string) {
	that.message = message
	that.view.DisplayMessage(message)
}

func turnMessage(player entity.Player) string {
	return fmt.Sprintf("Player %s's turn", player.Mark())
}
