/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package connectfour

import "errors"

var (
	ErrColumnFull    = errors.New("column is full")
	ErrInvalidColumn = errors.New("column out of range")
	ErrGameOver      = errors.New("game is over")
)

type State uint8

const (
	InProgress State = iota
	Won
	Drawn
)

func (s State) String() string {
	switch s {
	case Won:
		return "won"
	case Drawn:
		return "drawn"
	default:
		return "in_progress"
	}
}

// Status is the outcome so far. Winner is Empty unless State is Won.
type Status struct {
	State  State
	Winner Cell
}

func (s Status) Terminal() bool {
	return s.State != InProgress
}

// Game is a single session: the board, whose turn it is, and the outcome.
type Game struct {
	board   Board
	current Cell
	status  Status
	moves   int
	last    Position
	line    []Position
}

func NewGame() *Game {
	g := &Game{}
	g.Reset()
	return g
}

// Reset clears the board and hands the first move to PlayerOne.
func (g *Game) Reset() {
	g.board.Reset()
	g.current = PlayerOne
	g.status = Status{State: InProgress}
	g.moves = 0
	g.last = Position{Row: -1, Col: -1}
	g.line = nil
}

func (g *Game) Cell(row, col int) Cell {
	return g.board.Cell(row, col)
}

func (g *Game) CurrentPlayer() Cell {
	return g.current
}

func (g *Game) Status() Status {
	return g.status
}

func (g *Game) Moves() int {
	return g.moves
}

// DropPiece places the current player's piece in col and returns the row
// it landed in. The turn is not advanced and the result is not evaluated;
// Play does both. On error nothing changes.
func (g *Game) DropPiece(col int) (int, error) {
	if g.status.Terminal() {
		return ColumnFull, ErrGameOver
	}
	if col < 0 || col >= Cols {
		return ColumnFull, ErrInvalidColumn
	}

	row := g.board.Drop(col, g.current)
	if row == ColumnFull {
		return ColumnFull, ErrColumnFull
	}

	g.moves++
	g.last = Position{Row: row, Col: col}

	return row, nil
}

// AdvanceTurn hands the move to the other player.
func (g *Game) AdvanceTurn() {
	g.current = g.current.Opponent()
}

// Play runs one full move for the current player: drop, then check for a
// win, then for a draw, and otherwise pass the turn.
func (g *Game) Play(col int) (int, error) {
	row, err := g.DropPiece(col)
	if err != nil {
		return row, err
	}

	switch {
	case CheckWin(&g.board, row, col, g.current):
		g.status = Status{State: Won, Winner: g.current}
		g.line = WinningLine(&g.board, row, col, g.current)
	case CheckDraw(&g.board):
		g.status = Status{State: Drawn}
	default:
		g.AdvanceTurn()
	}

	return row, nil
}

// Snapshot is a point-in-time copy of a game, shaped for JSON clients.
// Board rows are ordered bottom-up.
type Snapshot struct {
	Board       [Rows][Cols]Cell `json:"board"`
	Current     Cell             `json:"current"`
	Status      string           `json:"status"`
	Winner      Cell             `json:"winner,omitempty"`
	Moves       int              `json:"moves"`
	LastMove    *Position        `json:"last_move,omitempty"`
	WinningLine []Position       `json:"winning_line,omitempty"`
}

func (g *Game) Snapshot() Snapshot {
	s := Snapshot{
		Board:   g.board.Grid(),
		Current: g.current,
		Status:  g.status.State.String(),
		Winner:  g.status.Winner,
		Moves:   g.moves,
	}

	if g.moves > 0 {
		last := g.last
		s.LastMove = &last
	}

	if len(g.line) > 0 {
		s.WinningLine = append([]Position(nil), g.line...)
	}

	return s
}
