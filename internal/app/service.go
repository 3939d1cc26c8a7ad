package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jaminalder/tic-tac-toe-minimax/internal/domain"
	"github.com/jaminalder/tic-tac-toe-minimax/internal/player"
	"github.com/jaminalder/tic-tac-toe-minimax/internal/search"
)

// Errors exposed by the service layer.
var (
	ErrNotFound        = errors.New("game not found")
	ErrNotYourTurn     = domain.ErrNotYourTurn
	ErrNotAPlayer      = errors.New("not a player")
	ErrUnknownMode     = errors.New("unknown mode")
	ErrNoComputer      = errors.New("mode has no computer player")
	ErrNotComputerTurn = errors.New("not the computer's turn")
)

// Session is the in-memory state tracked per game.
type Session struct {
	ID      string
	Mode    Mode
	Game    domain.Game
	X       string
	O       string
	Last    int
	Pending bool
	Created time.Time
	Updated time.Time
}

// Outcome is the current outcome of the session's game.
func (s Session) Outcome() domain.Outcome { return s.Game.Outcome() }

// EventKind distinguishes board updates from the end-of-game notification.
type EventKind string

const (
	EventBoard    EventKind = "board"
	EventGameOver EventKind = "gameover"
)

// Event is published to subscribers after every state change.
type Event struct {
	Kind    EventKind
	Session Session
}

type session struct {
	Session
	seats map[domain.Cell]player.Source
	gen   int
	timer *time.Timer
}

type subscriber struct {
	ch        chan Event
	closeOnce sync.Once
}

func (s *subscriber) close() { s.closeOnce.Do(func() { close(s.ch) }) }

const subscriberBuffer = 8

// Service manages games and subscribers.
type Service struct {
	mu     sync.Mutex
	games  map[string]*session
	subs   map[string]map[*subscriber]struct{}
	engine *search.Engine
	delay  time.Duration
	log    *zap.SugaredLogger
}

// NewService creates a service. The computer answers a human move after
// delay; a zero delay makes it answer before Play returns.
func NewService(log *zap.SugaredLogger, delay time.Duration) *Service {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Service{
		games:  make(map[string]*session),
		subs:   make(map[string]map[*subscriber]struct{}),
		engine: search.New(log.Named("search")),
		delay:  delay,
		log:    log,
	}
}

// CreateGame creates and registers a new game.
func (s *Service) CreateGame(mode Mode) (*Session, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	gs := &session{
		Session: Session{ID: newID(), Mode: mode, Game: domain.New(), Last: -1, Created: now, Updated: now},
		seats:   mode.seats(s.engine),
	}
	s.games[gs.ID] = gs
	s.log.Infow("game created", "game", gs.ID, "mode", mode)
	cp := gs.Session
	return &cp, nil
}

// Get returns a copy of the game state if present.
func (s *Service) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs, ok := s.games[id]
	if !ok {
		return nil, false
	}
	cp := gs.Session
	return &cp, true
}

// Outcome reports how the game stands.
func (s *Service) Outcome(id string) (domain.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs, ok := s.games[id]
	if !ok {
		return domain.Outcome{}, ErrNotFound
	}
	return gs.Game.Outcome(), nil
}

// Join assigns a seat to the player if available; returns Empty for spectators.
// Hot-seat games have no seats, so everybody joins as Empty and may play.
func (s *Service) Join(id, playerID string) (domain.Cell, *Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs, ok := s.games[id]
	if !ok {
		return domain.Empty, nil, ErrNotFound
	}
	side := domain.Empty
	switch gs.Mode {
	case ModeMinimal:
	case ModeHumanVsComputer:
		if gs.X == "" || gs.X == playerID {
			gs.X = playerID
			side = domain.X
		}
	default:
		if gs.X == "" || gs.X == playerID {
			gs.X = playerID
			side = domain.X
		} else if gs.O == "" || gs.O == playerID {
			gs.O = playerID
			side = domain.O
		}
	}
	gs.Updated = time.Now()
	cp := gs.Session
	return side, &cp, nil
}

// seatOf returns the symbol playerID moves with.
func (gs *session) seatOf(playerID string) (domain.Cell, error) {
	switch {
	case gs.Mode == ModeMinimal:
		return gs.Game.Turn, nil
	case playerID != "" && gs.X == playerID:
		return domain.X, nil
	case playerID != "" && gs.O == playerID && gs.Mode == ModeHumanVsHuman:
		return domain.O, nil
	}
	return domain.Empty, ErrNotAPlayer
}

// Play validates the seat, applies a human move and broadcasts. In
// human-vs-computer games the reply is scheduled, or applied at once when
// the service has no delay.
func (s *Service) Play(id, playerID string, cell int) (*Session, error) {
	s.mu.Lock()
	gs, ok := s.games[id]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	seat, err := gs.seatOf(playerID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if gs.Pending {
		s.mu.Unlock()
		return nil, ErrNotYourTurn
	}
	human, ok := gs.seats[seat].(*player.Human)
	if !ok {
		s.mu.Unlock()
		return nil, ErrNotAPlayer
	}
	human.Submit(cell)
	events, err := s.step(gs, seat)
	if err != nil {
		s.mu.Unlock()
		s.log.Debugw("move rejected", "game", id, "cell", cell, "symbol", seat, "reason", domain.Reason(err))
		return nil, err
	}
	var reply error
	if !gs.Game.Over && gs.seats[gs.Game.Turn].Kind() == player.KindComputer {
		if s.delay > 0 {
			s.schedule(gs)
			for i := range events {
				events[i].Session.Pending = true
			}
		} else {
			more, err := s.step(gs, gs.Game.Turn)
			if err != nil {
				s.log.Errorw("computer move failed", "game", id, "error", err)
				reply = fmt.Errorf("computer reply: %w", err)
			}
			events = append(events, more...)
		}
	}
	cp, subs := s.snapshotLocked(gs)
	s.mu.Unlock()

	s.publish(id, subs, events)
	return &cp, reply
}

// ComputerMove asks the search engine for a move now, cancelling a scheduled one.
func (s *Service) ComputerMove(id string) (int, *Session, error) {
	s.mu.Lock()
	gs, ok := s.games[id]
	if !ok {
		s.mu.Unlock()
		return -1, nil, ErrNotFound
	}
	if !gs.Mode.HasComputer() {
		s.mu.Unlock()
		return -1, nil, ErrNoComputer
	}
	if gs.Game.Over {
		s.mu.Unlock()
		return -1, nil, fmt.Errorf("%w: game is over", search.ErrInvalidState)
	}
	seat := gs.Game.Turn
	if gs.seats[seat].Kind() != player.KindComputer {
		s.mu.Unlock()
		return -1, nil, ErrNotComputerTurn
	}
	s.cancelLocked(gs)
	events, err := s.step(gs, seat)
	if err != nil {
		s.mu.Unlock()
		s.log.Errorw("computer move failed", "game", id, "error", err)
		return -1, nil, err
	}
	cp, subs := s.snapshotLocked(gs)
	s.mu.Unlock()

	s.publish(id, subs, events)
	return cp.Last, &cp, nil
}

// Reset restores the initial game, keeping seats and dropping a scheduled move.
func (s *Service) Reset(id string) (*Session, error) {
	s.mu.Lock()
	gs, ok := s.games[id]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	s.cancelLocked(gs)
	gs.Game.Reset()
	gs.seats = gs.Mode.seats(s.engine)
	gs.Last = -1
	gs.Updated = time.Now()
	cp, subs := s.snapshotLocked(gs)
	s.mu.Unlock()

	s.log.Infow("game reset", "game", id)
	s.publish(id, subs, []Event{{Kind: EventBoard, Session: cp}})
	return &cp, nil
}

// step takes one move from the source seated at seat and applies it.
func (s *Service) step(gs *session, seat domain.Cell) ([]Event, error) {
	cell, err := gs.seats[seat].NextMove(context.Background(), gs.Game)
	if err != nil {
		return nil, err
	}
	if err := gs.Game.Apply(cell, seat); err != nil {
		return nil, err
	}
	gs.Last = cell
	gs.Updated = time.Now()
	s.log.Infow("move applied", "game", gs.ID, "cell", cell, "symbol", seat, "board", gs.Game.Board.String())

	events := []Event{{Kind: EventBoard, Session: gs.Session}}
	if gs.Game.Over {
		out := gs.Game.Outcome()
		s.log.Infow("game over", "game", gs.ID, "result", out.Result, "winner", out.Winner)
		events = append(events, Event{Kind: EventGameOver, Session: gs.Session})
	}
	return events, nil
}

func (s *Service) schedule(gs *session) {
	gs.Pending = true
	gen := gs.gen
	id := gs.ID
	gs.timer = time.AfterFunc(s.delay, func() { s.deferred(id, gen) })
}

// deferred runs a scheduled computer move unless the game was reset or the
// move was already made.
func (s *Service) deferred(id string, gen int) {
	s.mu.Lock()
	gs, ok := s.games[id]
	if !ok || gs.gen != gen || !gs.Pending {
		s.mu.Unlock()
		return
	}
	gs.Pending = false
	gs.timer = nil
	events, err := s.step(gs, gs.Game.Turn)
	if err != nil {
		s.mu.Unlock()
		s.log.Errorw("deferred computer move failed", "game", id, "error", err)
		return
	}
	_, subs := s.snapshotLocked(gs)
	s.mu.Unlock()

	s.publish(id, subs, events)
}

func (s *Service) cancelLocked(gs *session) {
	if gs.timer != nil {
		gs.timer.Stop()
		gs.timer = nil
	}
	gs.gen++
	gs.Pending = false
}

func (s *Service) snapshotLocked(gs *session) (Session, map[*subscriber]struct{}) {
	return gs.Session, s.copySubsLocked(gs.ID)
}
