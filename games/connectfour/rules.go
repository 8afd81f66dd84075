/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package connectfour

// axes are the four line directions through a cell: horizontal, vertical,
// and the two diagonals. Each is walked in both senses.
var axes = [4][2]int{
	{0, 1},
	{1, 0},
	{1, 1},
	{1, -1},
}

// run counts contiguous p cells starting next to (row, col) and moving by
// (dr, dc). The starting cell itself is not counted.
func run(b *Board, row, col, dr, dc int, p Cell) int {
	n := 0
	for r, c := row+dr, col+dc; inBounds(r, c) && b.grid[r][c] == p; r, c = r+dr, c+dc {
		n++
	}
	return n
}

// CheckWin reports whether the piece of p at (row, col) completes a line of
// at least WinLength. Only the four lines through that cell are examined.
func CheckWin(b *Board, row, col int, p Cell) bool {
	if p == Empty || !inBounds(row, col) {
		return false
	}

	for _, d := range axes {
		count := 1 + run(b, row, col, d[0], d[1], p) + run(b, row, col, -d[0], -d[1], p)
		if count >= WinLength {
			return true
		}
	}

	return false
}

// WinningLine returns the cells of the first line through (row, col) that
// is at least WinLength long, ordered end to end. It returns nil when
// CheckWin would report false.
func WinningLine(b *Board, row, col int, p Cell) []Position {
	if p == Empty || !inBounds(row, col) {
		return nil
	}

	for _, d := range axes {
		back := run(b, row, col, -d[0], -d[1], p)
		fwd := run(b, row, col, d[0], d[1], p)
		if 1+back+fwd < WinLength {
			continue
		}

		line := make([]Position, 0, 1+back+fwd)
		for i := -back; i <= fwd; i++ {
			line = append(line, Position{Row: row + i*d[0], Col: col + i*d[1]})
		}
		return line
	}

	return nil
}

// CheckDraw reports whether the board is full. Pieces stack from the
// bottom, so a full top row means every cell is taken.
func CheckDraw(b *Board) bool {
	for col := 0; col < Cols; col++ {
		if b.grid[Rows-1][col] == Empty {
			return false
		}
	}
	return true
}
