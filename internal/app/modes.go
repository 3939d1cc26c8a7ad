package app

import (
	"fmt"

	"github.com/jaminalder/tic-tac-toe-minimax/internal/domain"
	"github.com/jaminalder/tic-tac-toe-minimax/internal/player"
	"github.com/jaminalder/tic-tac-toe-minimax/internal/search"
)

// Mode selects who sits in each seat.
type Mode string

const (
	// ModeHumanVsHuman seats two players, X first.
	ModeHumanVsHuman Mode = "pvp"
	// ModeHumanVsComputer seats one player as X against the search engine as O.
	ModeHumanVsComputer Mode = "pvc"
	// ModeMinimal is hot-seat play: whoever is at the board plays the active symbol.
	ModeMinimal Mode = "minimal"
)

// AllModes lists the modes in menu order.
func AllModes() []Mode {
	return []Mode{ModeHumanVsComputer, ModeHumanVsHuman, ModeMinimal}
}

// ParseMode accepts the string form of a Mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeHumanVsHuman, ModeHumanVsComputer, ModeMinimal:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

func (m Mode) String() string { return string(m) }

// Label is the human readable name of the mode.
func (m Mode) Label() string {
	switch m {
	case ModeHumanVsComputer:
		return "Human vs computer"
	case ModeMinimal:
		return "Hot seat"
	default:
		return "Human vs human"
	}
}

// HasComputer reports whether the search engine holds a seat.
func (m Mode) HasComputer() bool { return m == ModeHumanVsComputer }

// seats builds fresh move sources for a game in mode m.
func (m Mode) seats(engine *search.Engine) map[domain.Cell]player.Source {
	seats := map[domain.Cell]player.Source{
		domain.X: player.NewHuman(),
		domain.O: player.NewHuman(),
	}
	if m.HasComputer() {
		seats[domain.O] = player.NewComputer(domain.O, engine)
	}
	return seats
}
