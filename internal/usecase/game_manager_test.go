package usecase

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/entity"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/service"
)

type recordingView struct {
	mu       sync.Mutex
	boards   []entity.Board
	messages []string
}

func (v *recordingView) DisplayBoard(board entity.Board) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.boards = append(v.boards, board)
}

func (v *recordingView) DisplayMessage(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.messages = append(v.messages, text)
}

func (v *recordingView) lastBoard() entity.Board {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.boards[len(v.boards)-1]
}

func (v *recordingView) lastMessage() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.messages[len(v.messages)-1]
}

func (v *recordingView) pushes() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.boards) + len(v.messages)
}

func newManager() *GameManager {
	return NewGameManager(slog.New(slog.NewTextHandler(io.Discard, nil)), service.NewBotService())
}

func TestGameManager_Connect(t *testing.T) {
	t.Run("Starts a new game for an unknown session", func(t *testing.T) {
		// Given: an empty manager
		manager := newManager()
		view := &recordingView{}

		// When: a browser connects
		manager.Connect("session-1", view)

		// Then: a game exists and the initial state was pushed
		assert.Equal(t, 1, manager.Sessions())
		assert.Equal(t, entity.Board{}, view.lastBoard())
		assert.Equal(t, "Player X's turn", view.lastMessage())
	})

	t.Run("Resumes the game for a known session", func(t *testing.T) {
		// Given: a session where X played 0 and the bot replied
		manager := newManager()
		first := &recordingView{}
		manager.Connect("session-1", first)
		require.NoError(t, manager.RequestMove("session-1", 0))
		board := first.lastBoard()

		// When: the same session reconnects with a new view
		second := &recordingView{}
		manager.Connect("session-1", second)

		// Then: the new view receives the ongoing game, not a fresh one
		assert.Equal(t, 1, manager.Sessions())
		assert.Equal(t, board, second.lastBoard())
		assert.Equal(t, "Player X's turn", second.lastMessage())
		assert.Len(t, board.AvailableMoves(), entity.BoardSize-2)
	})

	t.Run("Only the latest view receives updates", func(t *testing.T) {
		// Given: a session taken over by a second view
		manager := newManager()
		first := &recordingView{}
		second := &recordingView{}
		manager.Connect("session-1", first)
		manager.Connect("session-1", second)
		firstPushes := first.pushes()

		// When: a move is played
		require.NoError(t, manager.RequestMove("session-1", 4))

		// Then: the first view heard nothing more
		assert.Equal(t, firstPushes, first.pushes())
		assert.Greater(t, second.pushes(), 2)
	})
}

func TestGameManager_Actions(t *testing.T) {
	t.Run("Unknown session is reported", func(t *testing.T) {
		manager := newManager()

		require.ErrorIs(t, manager.RequestMove("missing", 0), apperror.ErrSessionNotFound)
		require.ErrorIs(t, manager.Reset("missing"), apperror.ErrSessionNotFound)
		require.ErrorIs(t, manager.Refresh("missing"), apperror.ErrSessionNotFound)
	})

	t.Run("Reset starts the session over", func(t *testing.T) {
		// Given: a session with moves on the board
		manager := newManager()
		view := &recordingView{}
		manager.Connect("session-1", view)
		require.NoError(t, manager.RequestMove("session-1", 0))

		// When: the player resets
		require.NoError(t, manager.Reset("session-1"))

		// Then: the board is empty again
		assert.Equal(t, entity.Board{}, view.lastBoard())
		assert.Equal(t, "Player X's turn", view.lastMessage())
	})

	t.Run("Sessions do not share boards", func(t *testing.T) {
		// Given: two sessions
		manager := newManager()
		one := &recordingView{}
		two := &recordingView{}
		manager.Connect("one", one)
		manager.Connect("two", two)

		// When: only the first one plays
		require.NoError(t, manager.RequestMove("one", 8))

		// Then: the second board is still empty
		assert.Equal(t, entity.Board{}, two.lastBoard())
		assert.NotEqual(t, entity.Board{}, one.lastBoard())
	})
}

func TestGameManager_EvictIdle(t *testing.T) {
	t.Run("Detached sessions are evicted", func(t *testing.T) {
		// Given: one detached and one attached session
		manager := newManager()
		detached := &recordingView{}
		manager.Connect("detached", detached)
		manager.Disconnect("detached", detached)
		manager.Connect("attached", &recordingView{})

		// When: evicting everything idle
		evicted := manager.EvictIdle(0)

		// Then: only the detached session went away
		assert.Equal(t, 1, evicted)
		assert.Equal(t, 1, manager.Sessions())
		require.ErrorIs(t, manager.RequestMove("detached", 0), apperror.ErrSessionNotFound)
		require.NoError(t, manager.RequestMove("attached", 0))
	})

	t.Run("Recent sessions are kept", func(t *testing.T) {
		manager := newManager()
		view := &recordingView{}
		manager.Connect("session-1", view)
		manager.Disconnect("session-1", view)

		assert.Zero(t, manager.EvictIdle(time.Hour))
		assert.Equal(t, 1, manager.Sessions())
	})

	t.Run("Disconnect of a replaced view keeps the new one attached", func(t *testing.T) {
		// Given: a session whose first view was replaced
		manager := newManager()
		first := &recordingView{}
		second := &recordingView{}
		manager.Connect("session-1", first)
		manager.Connect("session-1", second)

		// When: the stale view disconnects
		manager.Disconnect("session-1", first)

		// Then: the session is still attached and not evictable
		assert.Zero(t, manager.EvictIdle(0))
	})
}

func TestGameManager_RunCleanup(t *testing.T) {
	// Given: a detached session and a cleanup loop
	manager := newManager()
	view := &recordingView{}
	manager.Connect("session-1", view)
	manager.Disconnect("session-1", view)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		manager.RunCleanup(ctx, 10*time.Millisecond, 0)
		close(done)
	}()

	// When / Then: the session is evicted and the loop stops on cancel
	assert.Eventually(t, func() bool { return manager.Sessions() == 0 }, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}
