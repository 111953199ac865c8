package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/entity"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/tictactoe"
)

type bot interface {
	ChooseMove(board *entity.Board) (int, error)
}

// GameManager keeps one game per browser session in memory.
// Calls for the same session are serialized; different sessions run independently.
type GameManager struct {
	logger *slog.Logger
	bot    bot

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	mu         sync.Mutex
	view       relayView
	controller *tictactoe.GameController
	lastSeen   time.Time
}

// relayView forwards to whichever connection is attached to the session, if any.
type relayView struct {
	target tictactoe.View
}

func (that *relayView) DisplayBoard(board entity.Board) {
	if that.target != nil {
		that.target.DisplayBoard(board)
	}
}

func (that *relayView) DisplayMessage(text string) {
	if that.target != nil {
		that.target.DisplayMessage(text)
	}
}

// NewGameManager creates a manager; a nil bot gives hot-seat games with two humans.
func NewGameManager(logger *slog.Logger, botPlayer bot) *GameManager {
	return &GameManager{
		logger:   logger,
		bot:      botPlayer,
		sessions: make(map[string]*session),
	}
}

// Connect attaches view to the session, creating a new game for unknown ids.
// A resumed game pushes its current board and message to the new view.
func (that *GameManager) Connect(sessionID string, view tictactoe.View) {
	log := that.logger.With("method", "Connect", "sessionID", sessionID)

	that.mu.Lock()
	sess, ok := that.sessions[sessionID]
	if !ok {
		sess = &session{lastSeen: time.Now()}
		that.sessions[sessionID] = sess
	}
	that.mu.Unlock()

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.view.target = view
	sess.lastSeen = time.Now()

	if sess.controller == nil {
		sess.controller = tictactoe.NewGameController(that.logger.With("sessionID", sessionID), entity.NewBoard(), &sess.view, that.bot)
		log.Info("new game started")
		return
	}

	sess.controller.Refresh()
	log.Info("game resumed", "round", sess.controller.Round())
}

// Disconnect detaches view if it is still the one attached. The game stays until evicted.
func (that *GameManager) Disconnect(sessionID string, view tictactoe.View) {
	sess, ok := that.getSession(sessionID)
	if !ok {
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.view.target == view {
		sess.view.target = nil
	}
	sess.lastSeen = time.Now()
}

func (that *GameManager) RequestMove(sessionID string, cell int) error {
	return that.withController(sessionID, func(controller *tictactoe.GameController) {
		controller.RequestMove(cell)
	})
}

func (that *GameManager) Reset(sessionID string) error {
	return that.withController(sessionID, func(controller *tictactoe.GameController) {
		controller.Reset()
	})
}

func (that *GameManager) Refresh(sessionID string) error {
	return that.withController(sessionID, func(controller *tictactoe.GameController) {
		controller.Refresh()
	})
}

// EvictIdle drops detached sessions not seen for at least maxIdle and returns how many went.
func (that *GameManager) EvictIdle(maxIdle time.Duration) int {
	that.mu.Lock()
	defer that.mu.Unlock()

	evicted := 0
	for id, sess := range that.sessions {
		sess.mu.Lock()
		idle := sess.view.target == nil && time.Since(sess.lastSeen) >= maxIdle
		sess.mu.Unlock()

		if idle {
			delete(that.sessions, id)
			evicted++
		}
	}

	return evicted
}

// RunCleanup evicts idle sessions every interval until ctx is done.
func (that *GameManager) RunCleanup(ctx context.Context, interval, maxIdle time.Duration) {
	log := that.logger.With("method", "RunCleanup")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if evicted := that.EvictIdle(maxIdle); evicted > 0 {
				log.Info("idle sessions evicted", "count", evicted)
			}
		}
	}
}

// Sessions returns the number of games in memory.
func (that *GameManager) Sessions() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.sessions)
}

func (that *GameManager) withController(sessionID string, fn func(controller *tictactoe.GameController)) error {
	sess, ok := that.getSession(sessionID)
	if !ok {
		return apperror.ErrSessionNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.controller == nil {
		return apperror.ErrSessionNotFound
	}

	sess.lastSeen = time.Now()
	fn(sess.controller)

	return nil
}

func (that *GameManager) getSession(sessionID string) (*session, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	sess, ok := that.sessions[sessionID]

	return sess, ok
}
