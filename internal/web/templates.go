package web

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/google/uuid"

	"github.com/jaminalder/tic-tac-toe-minimax/internal/app"
	"github.com/jaminalder/tic-tac-toe-minimax/internal/domain"
)

type templates struct {
	base  *template.Template
	game  *template.Template
	board *template.Template
	index *template.Template
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"iter": func(n int) []int {
			a := make([]int, n)
			for i := range a {
				a[i] = i
			}
			return a
		},
		"cellSymbol": func(c domain.Cell) string { return c.String() },
		"add":        func(a, b int) int { return a + b },
		"mul":        func(a, b int) int { return a * b },
	}
}

func loadTemplates() *templates {
	base := template.Must(template.New("base").Funcs(funcs()).Parse(`<!doctype html><html><head>
<meta charset="utf-8"/>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<script src="https://unpkg.com/htmx.org/dist/ext/sse.js"></script>
</head><body>{{template "content" .}}</body></html>`))
	// Define the board template within the same set so game can include it
	template.Must(base.New("board").Funcs(funcs()).Parse(boardTemplate))
	index := template.Must(template.Must(base.Clone()).New("content").Parse(`<h1>TicTacToe</h1>
<form action="/game" method="post">
  <select name="mode">
    {{range .Modes}}<option value="{{.}}"{{if eq . $.Default}} selected{{end}}>{{.Label}}</option>{{end}}
  </select>
  <button>Create</button>
</form>`))
	game := template.Must(template.Must(base.Clone()).New("content").Parse(`
<p class="mode">{{.Mode.Label}}</p>
<div hx-ext="sse" sse-connect="/game/{{.ID}}/events">
  <div id="board-container" sse-swap="board">{{template "board" .}}</div>
</div>
<form hx-post="/game/{{.ID}}/reset" hx-target="#board" hx-swap="outerHTML" method="post"><button>Reset</button></form>
{{if .Minimal}}
<script>
new EventSource("/game/{{.ID}}/events").addEventListener("gameover", function (e) {
  setTimeout(function () { alert(e.data) }, 50)
})
</script>
{{end}}`))
	// Standalone board template used for fragment rendering
	board := template.Must(template.New("board_only").Funcs(funcs()).Parse(boardTemplate))
	return &templates{base: base, game: game, board: board, index: index}
}

func renderTemplate(t *template.Template, name string, data any) []byte {
	var buf bytes.Buffer
	if name == "" {
		_ = t.Execute(&buf, data)
	} else {
		_ = t.ExecuteTemplate(&buf, name, data)
	}
	return buf.Bytes()
}

const boardTemplate = `
<div id="board">
  {{if .Error}}
  <div class="alert">{{.Error}}</div>
  {{end}}
  {{if .Status}}
  <div id="status-msg">{{.Status}}</div>
  {{else if .Pending}}
  <div id="status-msg">Computer is thinking...</div>
  {{end}}
  {{/* 3x3 grid */}}
  {{range $r := iter 3}}
  <div class="row">
    {{range $c := iter 3}}
      {{$i := add (mul $r 3) $c}}
      <form hx-post="/game/{{$.ID}}/play" hx-target="#board" hx-swap="outerHTML" method="post">
        <input type="hidden" name="r" value="{{$r}}">
        <input type="hidden" name="c" value="{{$c}}">
        <button type="submit" class="cell{{if $.OnLine $i}} win{{end}}">{{cellSymbol (index $.Board $i)}}</button>
      </form>
    {{end}}
  </div>
  {{end}}
</div>
`

// boardData is what the board fragment renders.
type boardData struct {
	ID      string
	Board   domain.Board
	Status  string
	Pending bool
	Error   string
	line    domain.Line
	won     bool
}

// OnLine reports whether cell belongs to the winning line.
func (b boardData) OnLine(cell int) bool {
	return b.won && (b.line[0] == cell || b.line[1] == cell || b.line[2] == cell)
}

func newBoardData(gs app.Session, errMsg string) boardData {
	out := gs.Outcome()
	return boardData{
		ID:      gs.ID,
		Board:   gs.Game.Board,
		Status:  out.String(),
		Pending: gs.Pending,
		Error:   errMsg,
		line:    out.Line,
		won:     out.Result == domain.Win,
	}
}

// Helper to set cookie
func ensurePlayerCookie(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie("player_id"); err == nil && c.Value != "" {
		return c.Value
	}
	// Generate UUIDv4 for player ID
	v := uuid.NewString()
	http.SetCookie(w, &http.Cookie{Name: "player_id", Value: v, Path: "/"})
	return v
}
