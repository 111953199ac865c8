package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/entity"
)

const (
	x = entity.MarkX
	o = entity.MarkO
	e = entity.EmptyCell
)

func newBoard(t *testing.T, cells [entity.BoardSize]entity.Mark) *entity.Board {
	t.Helper()

	board := entity.NewBoard()
	for i, cell := range cells {
		require.NoError(t, board.SetCell(i, cell))
	}

	return board
}

func scoreOf(t *testing.T, scores []MoveScore, cell int) int {
	t.Helper()

	for _, move := range scores {
		if move.Cell == cell {
			return move.Score
		}
	}

	t.Fatalf("cell %d was not scored", cell)

	return 0
}

func firstBest(scores []MoveScore) int {
	best := scores[0]
	for _, move := range scores[1:] {
		if move.Score > best.Score {
			best = move
		}
	}

	return best.Cell
}

func TestBotService_ChooseMove_Openings(t *testing.T) {
	bot := NewBotService()

	t.Run("Center is the only safe reply to a corner opening", func(t *testing.T) {
		// Given: X opened in the top-left corner
		board := newBoard(t, [9]entity.Mark{x, e, e, e, e, e, e, e, e})

		// When: the bot chooses its reply
		move, err := bot.ChooseMove(board)
		require.NoError(t, err)

		// Then: it takes the center, scored no worse than any alternative
		assert.Equal(t, 4, move)

		scores := bot.ScoreMoves(board)
		assert.Equal(t, 0, scoreOf(t, scores, 4))
		for _, s := range scores {
			assert.LessOrEqual(t, s.Score, scoreOf(t, scores, move))
			if s.Cell != 4 {
				assert.Equal(t, lossScore, s.Score, "cell %d", s.Cell)
			}
		}
	})

	t.Run("A corner answers a center opening", func(t *testing.T) {
		// Given: X opened in the center
		board := newBoard(t, [9]entity.Mark{e, e, e, e, x, e, e, e, e})

		// When: the bot chooses its reply
		move, err := bot.ChooseMove(board)
		require.NoError(t, err)

		// Then: the first corner is picked, edges lose
		assert.Equal(t, 0, move)

		scores := bot.ScoreMoves(board)
		for _, edge := range []int{1, 3, 5, 7} {
			assert.Equal(t, lossScore, scoreOf(t, scores, edge), "edge %d", edge)
		}
	})

	t.Run("Every opening gets a non-losing reply", func(t *testing.T) {
		for opening := 0; opening < entity.BoardSize; opening++ {
			board := entity.NewBoard()
			require.NoError(t, board.SetCell(opening, x))

			scores := bot.ScoreMoves(board)
			move, err := bot.ChooseMove(board)
			require.NoError(t, err)

			assert.Equal(t, drawScore, scoreOf(t, scores, move), "opening %d", opening)
		}
	})
}

func TestBotService_ChooseMove_Positions(t *testing.T) {
	bot := NewBotService()

	t.Run("Blocks the only losing continuation", func(t *testing.T) {
		// Given: a board with two empty cells where X threatens the 2-4-6 diagonal
		board := newBoard(t, [9]entity.Mark{
			x, o, x,
			o, x, o,
			e, e, o,
		})

		// When: scoring every legal completion
		scores := bot.ScoreMoves(board)
		move, err := bot.ChooseMove(board)
		require.NoError(t, err)

		// Then: 6 draws, 7 lets X win, and the bot picks the draw
		assert.Equal(t, []MoveScore{{Cell: 6, Score: drawScore}, {Cell: 7, Score: lossScore}}, scores)
		assert.Equal(t, 6, move)
	})

	t.Run("Takes an immediate win when it is the first best move", func(t *testing.T) {
		// Given: O owns 3 and 4, cell 5 completes the row
		board := newBoard(t, [9]entity.Mark{
			x, x, o,
			o, o, e,
			x, e, x,
		})

		move, err := bot.ChooseMove(board)
		require.NoError(t, err)

		assert.Equal(t, 5, move)
	})

	t.Run("Forced slower win ranks equal to an immediate one", func(t *testing.T) {
		// Given: O can win at once on 7, while 2 blocks X and forks 6 and 7
		board := newBoard(t, [9]entity.Mark{
			x, o, e,
			e, o, x,
			e, e, x,
		})

		// When: scoring the moves
		scores := bot.ScoreMoves(board)
		move, err := bot.ChooseMove(board)
		require.NoError(t, err)

		// Then: both are wins and the lower index is kept
		assert.Equal(t, winScore, scoreOf(t, scores, 2))
		assert.Equal(t, winScore, scoreOf(t, scores, 7))
		assert.Equal(t, 2, move)
	})

	t.Run("Returns ErrNoAvailableMoves on a full board", func(t *testing.T) {
		board := newBoard(t, [9]entity.Mark{
			x, o, x,
			o, x, o,
			o, x, o,
		})

		_, err := bot.ChooseMove(board)

		require.ErrorIs(t, err, apperror.ErrNoAvailableMoves)
	})
}

func TestBotService_ChooseMove_PicksFirstOfEqualScores(t *testing.T) {
	bot := NewBotService()

	boards := [][9]entity.Mark{
		{e, x, e, e, e, e, e, e, e},
		{e, e, x, e, e, e, e, e, e},
		{x, e, e, e, o, e, e, e, x},
		{e, e, e, e, o, e, x, e, x},
	}

	for _, cells := range boards {
		board := newBoard(t, cells)

		scores := bot.ScoreMoves(board)
		move, err := bot.ChooseMove(board)
		require.NoError(t, err)

		assert.Equal(t, firstBest(scores), move, "board %v", cells)
	}
}

func TestBotService_LeavesBoardUntouched(t *testing.T) {
	// Given: a board in the middle of a game
	bot := NewBotService()
	board := newBoard(t, [9]entity.Mark{x, e, e, e, o, e, e, e, x})
	before := board.Cells()

	// When: the bot searches the whole tree
	_, err := bot.ChooseMove(board)
	require.NoError(t, err)
	Minimax(board, 0, true)

	// Then: every speculative move was undone
	assert.Equal(t, before, board.Cells())
}

func TestBotService_NeverLoses(t *testing.T) {
	// Given: an empty board and the bot playing O
	bot := NewBotService()
	board := entity.NewBoard()

	// When: every possible sequence of X moves is played against it
	var games, xWins, oWins int
	var play func()
	play = func() {
		for _, xMove := range board.AvailableMoves() {
			require.NoError(t, board.SetCell(xMove, x))

			switch {
			case board.HasLine(x):
				xWins++
				games++
			case board.IsFull():
				games++
			default:
				oMove, err := bot.ChooseMove(board)
				require.NoError(t, err)
				require.NoError(t, board.SetCell(oMove, o))

				switch {
				case board.HasLine(o):
					oWins++
					games++
				case board.IsFull():
					games++
				default:
					play()
				}

				require.NoError(t, board.SetCell(oMove, e))
			}

			require.NoError(t, board.SetCell(xMove, e))
		}
	}
	play()

	// Then: X never wins
	assert.Positive(t, games)
	assert.Positive(t, oWins)
	assert.Zero(t, xWins)
	assert.Len(t, board.AvailableMoves(), entity.BoardSize)
}
