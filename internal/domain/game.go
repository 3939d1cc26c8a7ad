package domain

import (
	"errors"
	"strings"
)

// Cell represents a board cell state.
type Cell uint8

const (
	Empty Cell = iota
	X
	O
)

func (c Cell) String() string {
	switch c {
	case X:
		return "X"
	case O:
		return "O"
	default:
		return ""
	}
}

// Other returns the opposing symbol. Empty has no opponent.
func (c Cell) Other() Cell {
	switch c {
	case X:
		return O
	case O:
		return X
	default:
		return Empty
	}
}

// Board is a fixed 3x3 board stored row-major.
type Board [9]Cell

// Game holds the current state of a Tic-Tac-Toe match.
type Game struct {
	Board  Board
	Turn   Cell
	Winner Cell
	Line   Line
	Over   bool
	Moves  int
}

// Errors returned by domain operations.
var (
	ErrOutOfBounds = errors.New("out of bounds")
	ErrOccupied    = errors.New("cell occupied")
	ErrGameOver    = errors.New("game over")
	ErrNotYourTurn = errors.New("not your turn")
)

// New returns a new game with X to move.
func New() Game {
	return Game{Turn: X}
}

// Reset restores the game to the value returned by New.
func (g *Game) Reset() {
	*g = New()
}

// Play attempts to play the current turn at row r, column c (0..2).
func (g *Game) Play(r, c int) error {
	if g.Over {
		return ErrGameOver
	}
	if r < 0 || r > 2 || c < 0 || c > 2 {
		return ErrOutOfBounds
	}
	return g.Apply(r*3+c, g.Turn)
}

// Apply places symbol at cell. Nothing changes when the move is rejected.
func (g *Game) Apply(cell int, symbol Cell) error {
	if g.Over {
		return ErrGameOver
	}
	if cell < 0 || cell >= len(g.Board) {
		return ErrOutOfBounds
	}
	if g.Board[cell] != Empty {
		return ErrOccupied
	}
	if symbol != g.Turn {
		return ErrNotYourTurn
	}

	g.Board[cell] = symbol
	g.Moves++
	g.Turn = symbol.Other()

	out := g.Board.Evaluate()
	switch out.Result {
	case Win:
		g.Winner = out.Winner
		g.Line = out.Line
		g.Over = true
	case Draw:
		g.Winner = Empty
		g.Over = true
	}
	return nil
}

// Evaluate reports the outcome of the current board.
func (g *Game) Evaluate() Outcome {
	return g.Board.Evaluate()
}

// Outcome is the outcome recorded by the last applied move.
func (g *Game) Outcome() Outcome {
	if !g.Over {
		return Outcome{}
	}
	if g.Winner == Empty {
		return Outcome{Result: Draw}
	}
	return Outcome{Result: Win, Winner: g.Winner, Line: g.Line}
}

// EmptyCells lists the empty cell indices in ascending order.
func (g *Game) EmptyCells() []int {
	return g.Board.EmptyCells()
}

// EmptyCells lists the empty cell indices in ascending order.
func (b Board) EmptyCells() []int {
	out := make([]int, 0, len(b))
	for i, c := range b {
		if c == Empty {
			out = append(out, i)
		}
	}
	return out
}

// Full reports whether every cell holds a symbol.
func (b Board) Full() bool {
	for _, c := range b {
		if c == Empty {
			return false
		}
	}
	return true
}

func (b Board) String() string {
	var sb strings.Builder
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			switch v := b[r*3+c]; v {
			case Empty:
				sb.WriteByte('.')
			default:
				sb.WriteString(v.String())
			}
		}
		if r < 2 {
			sb.WriteByte('/')
		}
	}
	return sb.String()
}

// Reason names a rejection returned by Apply or Play.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrGameOver):
		return "AlreadyFinished"
	case errors.Is(err, ErrOccupied):
		return "CellOccupied"
	case errors.Is(err, ErrNotYourTurn):
		return "NotYourTurn"
	case errors.Is(err, ErrOutOfBounds):
		return "OutOfBounds"
	default:
		return "Invalid"
	}
}
