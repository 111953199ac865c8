package entity

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/apperror"
)

// Mark is the content of a board cell.
type Mark string

const (
	EmptyCell Mark = ""
	MarkX     Mark = "X"
	MarkO     Mark = "O"
)

const BoardSize = 9

// WinCombos lists the 3 rows, 3 columns and 2 diagonals as index triples.
var WinCombos = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Opponent returns the other player's mark. EmptyCell maps to itself.
func (m Mark) Opponent() Mark {
	switch m {
	case MarkX:
		return MarkO
	case MarkO:
		return MarkX
	default:
		return EmptyCell
	}
}

// Board is the 3x3 grid in row-major order. The zero value is an empty board.
type Board struct {
	cells [BoardSize]Mark
}

func NewBoard() *Board {
	return &Board{}
}

func (that *Board) GetCell(index int) (Mark, error) {
	if !inRange(index) {
		return EmptyCell, fmt.Errorf("%w: cell %d", apperror.ErrCellOutOfRange, index)
	}

	return that.cells[index], nil
}

// SetCell overwrites the cell, EmptyCell clears it.
func (that *Board) SetCell(index int, mark Mark) error {
	if !inRange(index) {
		return fmt.Errorf("%w: cell %d", apperror.ErrCellOutOfRange, index)
	}

	that.cells[index] = mark

	return nil
}

// IsOccupied reports false for indices outside the board.
func (that *Board) IsOccupied(index int) bool {
	return inRange(index) && that.cells[index] != EmptyCell
}

// AvailableMoves returns the empty cells in ascending order.
func (that *Board) AvailableMoves() []int {
	moves := make([]int, 0, BoardSize)
	for i, cell := range that.cells {
		if cell == EmptyCell {
			moves = append(moves, i)
		}
	}

	return moves
}

func (that *Board) IsFull() bool {
	for _, cell := range that.cells {
		if cell == EmptyCell {
			return false
		}
	}

	return true
}

func (that *Board) Reset() {
	that.cells = [BoardSize]Mark{}
}

// Cells returns a copy of the grid.
func (that *Board) Cells() [BoardSize]Mark {
	return that.cells
}

// Winner returns the mark owning a full line, or EmptyCell.
// X is checked before O; a board where both own a line is not a reachable state.
func (that *Board) Winner() Mark {
	for _, mark := range [2]Mark{MarkX, MarkO} {
		if that.HasLine(mark) {
			return mark
		}
	}

	return EmptyCell
}

// HasLine reports whether mark occupies all three cells of any winning line.
func (that *Board) HasLine(mark Mark) bool {
	if mark == EmptyCell {
		return false
	}

	for _, combo := range WinCombos {
		if that.cells[combo[0]] == mark && that.cells[combo[1]] == mark && that.cells[combo[2]] == mark {
			return true
		}
	}

	return false
}

func inRange(index int) bool {
	return index >= 0 && index < BoardSize
}
