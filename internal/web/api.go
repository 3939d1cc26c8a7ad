package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jaminalder/tic-tac-toe-minimax/internal/app"
	"github.com/jaminalder/tic-tac-toe-minimax/internal/domain"
	"github.com/jaminalder/tic-tac-toe-minimax/internal/search"
)

// gameDTO is the JSON view of a session.
type gameDTO struct {
	ID      string    `json:"id"`
	Mode    string    `json:"mode"`
	Board   [9]string `json:"board"`
	Turn    string    `json:"turn"`
	Moves   int       `json:"moves"`
	Last    int       `json:"last"`
	Pending bool      `json:"pending"`
	Over    bool      `json:"over"`
	Result  string    `json:"result"`
	Winner  string    `json:"winner,omitempty"`
	Line    []int     `json:"line,omitempty"`
	Status  string    `json:"status,omitempty"`
}

func toDTO(gs app.Session) gameDTO {
	out := gs.Outcome()
	dto := gameDTO{
		ID:      gs.ID,
		Mode:    gs.Mode.String(),
		Turn:    gs.Game.Turn.String(),
		Moves:   gs.Game.Moves,
		Last:    gs.Last,
		Pending: gs.Pending,
		Over:    gs.Game.Over,
		Result:  out.Result.String(),
		Status:  out.String(),
	}
	for i, c := range gs.Game.Board {
		dto.Board[i] = c.String()
	}
	if out.Result == domain.Win {
		dto.Winner = out.Winner.String()
		dto.Line = out.Line[:]
	}
	return dto
}

type createRequest struct {
	Mode string `json:"mode"`
}

type moveRequest struct {
	Cell *int `json:"cell"`
}

type joinResponse struct {
	Side string  `json:"side"`
	Game gameDTO `json:"game"`
}

type computerResponse struct {
	Cell int     `json:"cell"`
	Game gameDTO `json:"game"`
}

// reason names an error for API clients.
func reason(err error) string {
	switch {
	case errors.Is(err, app.ErrNoComputer):
		return "NoComputer"
	case errors.Is(err, app.ErrNotComputerTurn):
		return "NotComputerTurn"
	case errors.Is(err, search.ErrInvalidState):
		return "InvalidState"
	}
	return domain.Reason(err)
}

func (h *handlers) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error(), "")
	case errors.Is(err, app.ErrNotAPlayer):
		writeError(w, http.StatusForbidden, err.Error(), "")
	case errors.Is(err, app.ErrUnknownMode):
		writeError(w, http.StatusBadRequest, err.Error(), "")
	default:
		r := reason(err)
		if r == "Invalid" {
			h.log.Errorw("api request failed", "error", err)
			writeInternalError(w)
			return
		}
		writeError(w, http.StatusConflict, err.Error(), r)
	}
}

func (h *handlers) apiCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, malformedJSONDesc, "")
		return
	}
	mode := h.opts.DefaultMode
	if req.Mode != "" {
		m, err := app.ParseMode(req.Mode)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		mode = m
	}
	gs, err := h.svc.CreateGame(mode)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	pid := ensurePlayerCookie(w, r)
	if _, joined, err := h.svc.Join(gs.ID, pid); err == nil {
		gs = joined
	}
	writeJSON(w, http.StatusCreated, toDTO(*gs))
}

func (h *handlers) apiGet(w http.ResponseWriter, r *http.Request) {
	gs, ok := h.svc.Get(chi.URLParam(r, "id"))
	if !ok {
		h.writeServiceError(w, app.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toDTO(*gs))
}

func (h *handlers) apiJoin(w http.ResponseWriter, r *http.Request) {
	pid := ensurePlayerCookie(w, r)
	side, gs, err := h.svc.Join(chi.URLParam(r, "id"), pid)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, joinResponse{Side: side.String(), Game: toDTO(*gs)})
}

func (h *handlers) apiMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Cell == nil {
		writeError(w, http.StatusBadRequest, malformedJSONDesc, "")
		return
	}
	pid := ensurePlayerCookie(w, r)
	gs, err := h.svc.Play(chi.URLParam(r, "id"), pid, *req.Cell)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDTO(*gs))
}

func (h *handlers) apiComputer(w http.ResponseWriter, r *http.Request) {
	cell, gs, err := h.svc.ComputerMove(chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, computerResponse{Cell: cell, Game: toDTO(*gs)})
}

func (h *handlers) apiReset(w http.ResponseWriter, r *http.Request) {
	gs, err := h.svc.Reset(chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDTO(*gs))
}
