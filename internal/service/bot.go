package service

import (
	"fmt"
	"math"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/entity"
)

const (
	winScore  = 10
	lossScore = -10
	drawScore = 0
)

// MoveScore is the minimax value of playing Cell for the bot.
type MoveScore struct {
	Cell  int
	Score int
}

type BotService interface {
	ChooseMove(board *entity.Board) (int, error)
	ScoreMoves(board *entity.Board) []MoveScore
}

// botService plays O as the maximizing side of a full-depth minimax search.
// The board is mutated in place while searching and restored before every return.
type botService struct{}

func NewBotService() BotService {
	return &botService{}
}

// ChooseMove returns the cell with the strictly greatest score; ties go to the lowest index.
func (that *botService) ChooseMove(board *entity.Board) (int, error) {
	scores := that.ScoreMoves(board)
	if len(scores) == 0 {
		return 0, apperror.ErrNoAvailableMoves
	}

	bestScore := math.MinInt
	bestMove := scores[0].Cell
	for _, move := range scores {
		if move.Score > bestScore {
			bestScore = move.Score
			bestMove = move.Cell
		}
	}

	return bestMove, nil
}

// ScoreMoves evaluates every available cell for O, in ascending index order.
func (that *botService) ScoreMoves(board *entity.Board) []MoveScore {
	moves := board.AvailableMoves()
	scores := make([]MoveScore, 0, len(moves))

	for _, move := range moves {
		score := try(board, move, entity.MarkO, func() int {
			return Minimax(board, 0, false)
		})
		scores = append(scores, MoveScore{Cell: move, Score: score})
	}

	return scores
}

// Minimax scores the board from O's point of view assuming optimal play from both sides.
// depth is carried through the recursion but does not bias the score, so a slower forced
// win is worth as much as an immediate one.
func Minimax(board *entity.Board, depth int, isMaximizing bool) int {
	switch board.Winner() {
	case entity.MarkX:
		return lossScore
	case entity.MarkO:
		return winScore
	}

	moves := board.AvailableMoves()
	if len(moves) == 0 {
		return drawScore
	}

	if isMaximizing {
		bestScore := math.MinInt
		for _, move := range moves {
			score := try(board, move, entity.MarkO, func() int {
				return Minimax(board, depth+1, false)
			})
			bestScore = max(score, bestScore)
		}

		return bestScore
	}

	bestScore := math.MaxInt
	for _, move := range moves {
		score := try(board, move, entity.MarkX, func() int {
			return Minimax(board, depth+1, true)
		})
		bestScore = min(score, bestScore)
	}

	return bestScore
}

// try places mark on cell, evaluates next and clears the cell again on every return path.
func try(board *entity.Board, cell int, mark entity.Mark, next func() int) int {
	if err := board.SetCell(cell, mark); err != nil {
		panic(fmt.Errorf("minimax: board refused generated move: %w", err))
	}

	defer func() {
		_ = board.SetCell(cell, entity.EmptyCell)
	}()

	return next()
}
