package domain

// Line is a triple of cell indices.
type Line [3]int

// Lines are the rows, columns and diagonals, in the order they are checked.
var Lines = [8]Line{
	// rows
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	// cols
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	// diags
	{0, 4, 8}, {2, 4, 6},
}

// Result tags an Outcome.
type Result uint8

const (
	None Result = iota
	Win
	Draw
)

func (r Result) String() string {
	switch r {
	case Win:
		return "win"
	case Draw:
		return "draw"
	default:
		return "none"
	}
}

// Outcome is the evaluation of a board. Winner and Line are only set for Win.
type Outcome struct {
	Result Result
	Winner Cell
	Line   Line
}

// Terminal reports whether the game has ended.
func (o Outcome) Terminal() bool { return o.Result != None }

// String is the status text shown to players.
func (o Outcome) String() string {
	switch o.Result {
	case Win:
		return o.Winner.String() + " won!"
	case Draw:
		return "It's a draw!"
	default:
		return ""
	}
}

// Evaluate returns the first completed line, Draw for a full board, or None.
func (b Board) Evaluate() Outcome {
	for _, ln := range Lines {
		if v := b[ln[0]]; v != Empty && b[ln[1]] == v && b[ln[2]] == v {
			return Outcome{Result: Win, Winner: v, Line: ln}
		}
	}
	if b.Full() {
		return Outcome{Result: Draw}
	}
	return Outcome{}
}
