package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/entity"
)

const (
	commandReset = "reset"
	commandQuit  = "quit"

	prompt = "> "
	help   = "Enter a cell 0-8, \"reset\" or \"quit\"."
)

var ErrUnknownCommand = errors.New("unknown command")

type gameController interface {
	RequestMove(cell int)
	Reset()
	Refresh()
}

// Console plays one game on a text terminal. It is the controller's view.
type Console struct {
	logger *slog.Logger
	in     io.Reader
	out    io.Writer
}

func New(logger *slog.Logger, in io.Reader, out io.Writer) *Console {
	return &Console{
		logger: logger.With("component", "console"),
		in:     in,
		out:    out,
	}
}

func (that *Console) DisplayBoard(board entity.Board) {
	that.print(renderBoard(board))
}

func (that *Console) DisplayMessage(text string) {
	that.print(text + "\n")
}

// Run reads commands until quit, end of input or ctx is done.
func (that *Console) Run(ctx context.Context, controller gameController) error {
	log := that.logger.With("method", "Run")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(that.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				readErr <- nil
				return
			}
		}
		readErr <- scanner.Err()
	}()

	that.print(help + "\n" + prompt)

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				if err := <-readErr; err != nil {
					return fmt.Errorf("failed to read input: %w", err)
				}
				return nil
			}

			quit, err := that.execute(strings.TrimSpace(line), controller)
			if err != nil {
				log.Debug("bad input", "line", line, "error", err)
				that.print(help + "\n")
			}

			if quit {
				return nil
			}

			that.print(prompt)
		}
	}
}

func (that *Console) execute(line string, controller gameController) (bool, error) {
	switch strings.ToLower(line) {
	case "":
		controller.Refresh()
		return false, nil
	case commandQuit:
		return true, nil
	case commandReset:
		controller.Reset()
		return false, nil
	}

	cell, err := strconv.Atoi(line)
	if err != nil {
		return false, fmt.Errorf("%w: %q", ErrUnknownCommand, line)
	}

	controller.RequestMove(cell)

	return false, nil
}

func (that *Console) print(text string) {
	if _, err := io.WriteString(that.out, text); err != nil {
		that.logger.Error("failed to write output", "error", err)
	}
}

// renderBoard draws the grid, showing the index of every free cell.
func renderBoard(board entity.Board) string {
	var sb strings.Builder

	cells := board.Cells()
	for row := 0; row < 3; row++ {
		if row > 0 {
			sb.WriteString("---+---+---\n")
		}

		for col := 0; col < 3; col++ {
			i := row*3 + col
			symbol := string(cells[i])
			if cells[i] == entity.EmptyCell {
				symbol = strconv.Itoa(i)
			}

			if col > 0 {
				sb.WriteString("|")
			}
			sb.WriteString(" " + symbol + " ")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
