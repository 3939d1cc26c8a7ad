// Package player provides the sources a session asks for its next move.
package player

import (
	"context"
	"errors"
	"sync"

	"github.com/jaminalder/tic-tac-toe-minimax/internal/domain"
	"github.com/jaminalder/tic-tac-toe-minimax/internal/search"
)

// Kind tells sessions how a source produces moves.
type Kind uint8

const (
	KindHuman Kind = iota
	KindComputer
)

func (k Kind) String() string {
	if k == KindComputer {
		return "computer"
	}
	return "human"
}

// ErrNoMove is returned by a human source with nothing submitted.
var ErrNoMove = errors.New("no move submitted")

// Source yields the next cell for the symbol it plays.
type Source interface {
	Kind() Kind
	NextMove(ctx context.Context, g domain.Game) (int, error)
}

// Human buffers the last cell submitted through the UI.
type Human struct {
	mu      sync.Mutex
	pending bool
	cell    int
}

func NewHuman() *Human {
	return &Human{}
}

func (h *Human) Kind() Kind { return KindHuman }

// Submit replaces any buffered move.
func (h *Human) Submit(cell int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cell = cell
	h.pending = true
}

// NextMove hands out the buffered move once.
func (h *Human) NextMove(ctx context.Context, _ domain.Game) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.pending {
		return -1, ErrNoMove
	}
	h.pending = false
	return h.cell, nil
}

// Computer plays Symbol using exhaustive search.
type Computer struct {
	Symbol domain.Cell
	engine *search.Engine
}

func NewComputer(symbol domain.Cell, engine *search.Engine) *Computer {
	if engine == nil {
		engine = &search.Engine{}
	}
	return &Computer{Symbol: symbol, engine: engine}
}

func (c *Computer) Kind() Kind { return KindComputer }

// NextMove runs the search to completion; ctx is only checked before it starts.
func (c *Computer) NextMove(ctx context.Context, g domain.Game) (int, error) {
	if err := ctx.Err(); err != nil {
		return -1, err
	}
	return c.engine.ChooseMove(g, c.Symbol, c.Symbol.Other())
}
