/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package connectfour holds the board state and rules of a two-player
// Connect Four game on a fixed 6x7 grid.
//
// Row 0 is the bottom of the board; pieces fall to the lowest empty row
// of the column they are dropped into. Nothing in this package performs
// I/O or is safe for concurrent use: callers serialise access to a Game.
package connectfour

const (
	Rows      = 6
	Cols      = 7
	WinLength = 4

	// ColumnFull is returned by Board.Drop when the piece could not be placed.
	ColumnFull = -1
)

// Cell is the content of one grid position. PlayerOne and PlayerTwo double
// as player identifiers.
type Cell uint8

const (
	Empty Cell = iota
	PlayerOne
	PlayerTwo
)

func (c Cell) String() string {
	switch c {
	case PlayerOne:
		return "player one"
	case PlayerTwo:
		return "player two"
	default:
		return "empty"
	}
}

// Opponent returns the other player. Empty has no opponent.
func (c Cell) Opponent() Cell {
	switch c {
	case PlayerOne:
		return PlayerTwo
	case PlayerTwo:
		return PlayerOne
	default:
		return Empty
	}
}

// Position addresses a single cell.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func inBounds(row, col int) bool {
	return row >= 0 && row < Rows && col >= 0 && col < Cols
}

// Board is the grid. The zero value is an empty board.
type Board struct {
	grid [Rows][Cols]Cell
}

// Cell returns the content at (row, col), or Empty outside the grid.
func (b *Board) Cell(row, col int) Cell {
	if !inBounds(row, col) {
		return Empty
	}
	return b.grid[row][col]
}

// Drop places p in the lowest empty row of col and returns that row.
// It returns ColumnFull, leaving the board untouched, when col is full or
// outside the grid.
func (b *Board) Drop(col int, p Cell) int {
	if col < 0 || col >= Cols || p == Empty {
		return ColumnFull
	}

	for row := 0; row < Rows; row++ {
		if b.grid[row][col] == Empty {
			b.grid[row][col] = p
			return row
		}
	}

	return ColumnFull
}

// ColumnOpen reports whether col can take another piece.
func (b *Board) ColumnOpen(col int) bool {
	if col < 0 || col >= Cols {
		return false
	}
	return b.grid[Rows-1][col] == Empty
}

func (b *Board) Reset() {
	b.grid = [Rows][Cols]Cell{}
}

// Grid returns a copy of the cells, indexed [row][col] with row 0 at the bottom.
func (b *Board) Grid() [Rows][Cols]Cell {
	return b.grid
}
