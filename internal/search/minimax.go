// Package search picks moves by exhaustive minimax over the remaining game tree.
//
// Boards are passed by value, so every speculative placement lives in the
// callee's copy and the caller's game is never touched.
package search

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jaminalder/tic-tac-toe-minimax/internal/domain"
)

// ErrInvalidState is returned when a move is requested for a finished game,
// a full board, or an unusable pair of symbols.
var ErrInvalidState = errors.New("invalid search state")

// Scores from the computer's point of view.
const (
	Loss = -1
	Tie  = 0
	Won  = 1
)

// Result is the chosen cell with its minimax score.
type Result struct {
	Cell  int
	Score int
	Nodes int
}

// Engine runs the search. The zero value is usable and does not log.
type Engine struct {
	log *zap.SugaredLogger
}

// New returns an engine that logs a summary of every search at debug level.
func New(log *zap.SugaredLogger) *Engine {
	return &Engine{log: log}
}

// ChooseMove returns the cell computer should play in g.
func (e *Engine) ChooseMove(g domain.Game, computer, human domain.Cell) (int, error) {
	res, err := e.Search(g, computer, human)
	if err != nil {
		return -1, err
	}
	return res.Cell, nil
}

// Search evaluates every empty cell in ascending order and keeps the first
// one with the highest score. A cell that wins on the spot is preferred over
// any other cell of equal score.
func (e *Engine) Search(g domain.Game, computer, human domain.Cell) (Result, error) {
	if computer == domain.Empty || human == domain.Empty || computer == human {
		return Result{Cell: -1}, fmt.Errorf("%w: symbols %q and %q", ErrInvalidState, computer, human)
	}
	if g.Over || g.Board.Evaluate().Terminal() {
		return Result{Cell: -1}, fmt.Errorf("%w: game is over", ErrInvalidState)
	}
	cells := g.Board.EmptyCells()
	if len(cells) == 0 {
		return Result{Cell: -1}, fmt.Errorf("%w: no empty cells", ErrInvalidState)
	}

	start := time.Now()
	s := &searcher{computer: computer, human: human}
	best := Result{Cell: -1, Score: Loss - 1}
	immediate := false
	for _, cell := range cells {
		next := g.Board
		next[cell] = computer
		score := s.value(next, false)
		wins := score == Won && next.Evaluate().Result == domain.Win
		if score > best.Score || (wins && !immediate) {
			best.Cell, best.Score = cell, score
			immediate = wins
		}
	}
	best.Nodes = s.nodes

	if e.log != nil {
		e.log.Debugw("search finished",
			"board", g.Board.String(),
			"cell", best.Cell,
			"score", best.Score,
			"nodes", best.Nodes,
			"elapsed", time.Since(start),
		)
	}
	return best, nil
}

// Value is the minimax score of b with the next ply belonging to computer
// when maximizing is true, and to human otherwise.
func Value(b domain.Board, computer, human domain.Cell, maximizing bool) int {
	s := &searcher{computer: computer, human: human}
	return s.value(b, maximizing)
}

type searcher struct {
	computer domain.Cell
	human    domain.Cell
	nodes    int
}

func (s *searcher) value(b domain.Board, maximizing bool) int {
	s.nodes++
	out := b.Evaluate()
	switch out.Result {
	case domain.Win:
		if out.Winner == s.computer {
			return Won
		}
		return Loss
	case domain.Draw:
		return Tie
	}

	if maximizing {
		best := Loss
		for _, cell := range b.EmptyCells() {
			next := b
			next[cell] = s.computer
			if v := s.value(next, false); v > best {
				best = v
			}
		}
		return best
	}

	best := Won
	for _, cell := range b.EmptyCells() {
		next := b
		next[cell] = s.human
		if v := s.value(next, true); v < best {
			best = v
		}
	}
	return best
}
