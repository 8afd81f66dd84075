/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package connectfour

import (
	"errors"
	"testing"
)

// drawSequence fills the board with alternating moves, never completing a
// line, and ends by filling (5,6).
var drawSequence = []int{
	2, 0, 0, 0, 0, 0, 0,
	1, 1, 1, 1, 1, 1,
	2, 2, 2, 2, 2,
	3, 3, 3, 3, 3, 3,
	6,
	4, 4, 4, 4, 4, 4,
	5, 5, 5, 5, 5, 5,
	6, 6, 6, 6, 6,
}

func play(t *testing.T, g *Game, cols ...int) {
	t.Helper()

	for i, col := range cols {
		if _, err := g.Play(col); err != nil {
			t.Fatalf("move %d (column %d): %v", i, col, err)
		}
	}
}

func TestNewGame(t *testing.T) {
	g := NewGame()

	if g.CurrentPlayer() != PlayerOne {
		t.Fatalf("expected player one to start, got %v", g.CurrentPlayer())
	}
	if g.Status() != (Status{State: InProgress}) {
		t.Fatalf("unexpected status %+v", g.Status())
	}
	for row := 0; row < Rows; row++ {
		for col := 0; col < Cols; col++ {
			if g.Cell(row, col) != Empty {
				t.Fatalf("cell (%d,%d) not empty", row, col)
			}
		}
	}
}

func TestTurnAlternates(t *testing.T) {
	g := NewGame()

	want := []Cell{PlayerTwo, PlayerOne, PlayerTwo, PlayerOne}
	for i, col := range []int{0, 1, 0, 1} {
		if _, err := g.Play(col); err != nil {
			t.Fatal(err)
		}
		if g.CurrentPlayer() != want[i] {
			t.Fatalf("after move %d expected %v, got %v", i, want[i], g.CurrentPlayer())
		}
	}

	if g.Cell(0, 0) != PlayerOne || g.Cell(0, 1) != PlayerTwo || g.Cell(1, 0) != PlayerOne {
		t.Fatalf("pieces not owned by the player who dropped them: %v", g.board.Grid())
	}
}

func TestFullColumnKeepsTurn(t *testing.T) {
	g := NewGame()
	play(t, g, 0, 0, 0, 0, 0, 0)

	before := g.Snapshot()

	row, err := g.Play(0)
	if !errors.Is(err, ErrColumnFull) {
		t.Fatalf("expected ErrColumnFull, got %v", err)
	}
	if row != ColumnFull {
		t.Fatalf("expected ColumnFull row, got %d", row)
	}
	if g.CurrentPlayer() != before.Current {
		t.Fatal("turn changed after a rejected move")
	}
	if g.board.Grid() != before.Board || g.Moves() != before.Moves {
		t.Fatal("state changed after a rejected move")
	}
}

func TestInvalidColumn(t *testing.T) {
	g := NewGame()

	for _, col := range []int{-1, Cols, 100} {
		if _, err := g.Play(col); !errors.Is(err, ErrInvalidColumn) {
			t.Errorf("column %d: expected ErrInvalidColumn, got %v", col, err)
		}
	}
	if g.Moves() != 0 || g.CurrentPlayer() != PlayerOne {
		t.Fatal("state changed after invalid columns")
	}
}

func TestVerticalWin(t *testing.T) {
	g := NewGame()
	play(t, g, 3, 4, 3, 4, 3, 4)

	row, err := g.Play(3)
	if err != nil {
		t.Fatal(err)
	}
	if row != 3 {
		t.Fatalf("expected landing row 3, got %d", row)
	}

	st := g.Status()
	if st.State != Won || st.Winner != PlayerOne {
		t.Fatalf("expected player one to win, got %+v", st)
	}
	if g.CurrentPlayer() != PlayerOne {
		t.Fatal("turn advanced after a winning move")
	}
}

func TestHorizontalWinBottomRow(t *testing.T) {
	g := NewGame()
	play(t, g, 0, 0, 1, 1, 2, 2)

	row, err := g.Play(3)
	if err != nil {
		t.Fatal(err)
	}
	if row != 0 {
		t.Fatalf("expected landing row 0, got %d", row)
	}
	if g.Status() != (Status{State: Won, Winner: PlayerOne}) {
		t.Fatalf("unexpected status %+v", g.Status())
	}

	line := g.Snapshot().WinningLine
	if len(line) != 4 || line[0] != (Position{0, 0}) || line[3] != (Position{0, 3}) {
		t.Fatalf("unexpected winning line %v", line)
	}
}

func TestPlayerTwoWins(t *testing.T) {
	g := NewGame()
	play(t, g, 0, 6, 1, 6, 0, 6, 1, 6)

	if g.Status() != (Status{State: Won, Winner: PlayerTwo}) {
		t.Fatalf("expected player two to win, got %+v", g.Status())
	}
}

func TestDraw(t *testing.T) {
	g := NewGame()
	play(t, g, drawSequence...)

	if g.Status() != (Status{State: Drawn}) {
		t.Fatalf("expected draw, got %+v", g.Status())
	}
	if g.Snapshot().LastMove == nil || *g.Snapshot().LastMove != (Position{Row: 5, Col: 6}) {
		t.Fatalf("expected last move at (5,6), got %v", g.Snapshot().LastMove)
	}
	if g.Moves() != Rows*Cols {
		t.Fatalf("expected %d moves, got %d", Rows*Cols, g.Moves())
	}
}

func TestTerminalGameRejectsMoves(t *testing.T) {
	g := NewGame()
	play(t, g, 3, 4, 3, 4, 3, 4, 3)

	before := g.Snapshot()

	if _, err := g.Play(0); !errors.Is(err, ErrGameOver) {
		t.Fatalf("expected ErrGameOver, got %v", err)
	}
	if _, err := g.DropPiece(3); !errors.Is(err, ErrGameOver) {
		t.Fatalf("expected ErrGameOver from DropPiece, got %v", err)
	}
	if g.board.Grid() != before.Board || g.Moves() != before.Moves {
		t.Fatal("terminal game changed")
	}
}

func TestCellsNeverRevert(t *testing.T) {
	g := NewGame()

	var seen [Rows][Cols]Cell
	for _, col := range drawSequence {
		if _, err := g.Play(col); err != nil {
			t.Fatal(err)
		}
		if !g.board.ColumnOpen(0) {
			_, _ = g.Play(0)
		}

		for row := 0; row < Rows; row++ {
			for c := 0; c < Cols; c++ {
				if seen[row][c] != Empty && g.Cell(row, c) != seen[row][c] {
					t.Fatalf("cell (%d,%d) changed from %v to %v", row, c, seen[row][c], g.Cell(row, c))
				}
				seen[row][c] = g.Cell(row, c)
			}
		}
	}
}

func TestDropPieceDoesNotAdvance(t *testing.T) {
	g := NewGame()

	row, err := g.DropPiece(2)
	if err != nil || row != 0 {
		t.Fatalf("unexpected result %d, %v", row, err)
	}
	if g.CurrentPlayer() != PlayerOne {
		t.Fatal("DropPiece advanced the turn")
	}

	g.AdvanceTurn()
	if g.CurrentPlayer() != PlayerTwo {
		t.Fatal("AdvanceTurn did not flip the player")
	}
	g.AdvanceTurn()
	if g.CurrentPlayer() != PlayerOne {
		t.Fatal("AdvanceTurn did not flip back")
	}
}

func TestReset(t *testing.T) {
	g := NewGame()
	play(t, g, 3, 4, 3, 4, 3, 4, 3)

	g.Reset()

	s := g.Snapshot()
	if s.Board != ([Rows][Cols]Cell{}) {
		t.Fatal("board not cleared")
	}
	if s.Current != PlayerOne || s.Status != "in_progress" || s.Winner != Empty {
		t.Fatalf("unexpected snapshot after reset: %+v", s)
	}
	if s.Moves != 0 || s.LastMove != nil || s.WinningLine != nil {
		t.Fatalf("move bookkeeping not cleared: %+v", s)
	}

	play(t, g, 0)
	if g.Cell(0, 0) != PlayerOne {
		t.Fatal("first move after reset not played by player one")
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	g := NewGame()
	play(t, g, 0, 1, 0, 1, 0, 1, 0)

	s := g.Snapshot()
	g.Reset()

	if s.Board[0][0] != PlayerOne || s.Status != "won" || len(s.WinningLine) != 4 {
		t.Fatalf("snapshot affected by reset: %+v", s)
	}
}
