package model

import (
	"reflect"
	"sync"
	"testing"
)

func tapAll(t *testing.T, g *Game, taps ...Position) {
	t.Helper()
	for _, p := range taps {
		g.Tap(p.Row, p.Col)
	}
}

// play selects from and then taps to, failing if the move was not executed.
func play(t *testing.T, g *Game, from, to Position) {
	t.Helper()
	before := len(g.History())
	tapAll(t, g, from, to)
	if got := len(g.History()); got != before+1 {
		t.Fatalf("move %s->%s was not executed (history %d -> %d, status %q)", from, to, before, got, g.Status())
	}
}

func assertFreshGame(t *testing.T, s GameState) {
	t.Helper()
	if s.Board != NewBoard() {
		t.Errorf("board is not the starting position")
	}
	if s.CurrentPlayer != White {
		t.Errorf("expected white to move, got %s", s.CurrentPlayer)
	}
	if s.SelectedSquare != nil {
		t.Errorf("expected no selection, got %v", *s.SelectedSquare)
	}
	if len(s.LegalMoves) != 0 {
		t.Errorf("expected no legal destinations, got %v", s.LegalMoves)
	}
	if len(s.MoveHistory) != 0 {
		t.Errorf("expected empty history, got %d moves", len(s.MoveHistory))
	}
	if s.Status != "White to move" {
		t.Errorf("expected status %q, got %q", "White to move", s.Status)
	}
}

func TestNewGameIsDeterministic(t *testing.T) {
	g := NewGame()
	assertFreshGame(t, g.GetState())

	play(t, g, pos(6, 4), pos(4, 4))
	tapAll(t, g, pos(1, 3))
	g.Reset()
	assertFreshGame(t, g.GetState())
}

func TestStartingLayout(t *testing.T) {
	b := NewBoard()
	order := []PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}
	for col, typ := range order {
		if p, ok := b.PieceAt(pos(0, col)); !ok || p != bp(typ) {
			t.Errorf("row 0 col %d: expected black %s, got %+v", col, typ, p)
		}
		if p, ok := b.PieceAt(pos(7, col)); !ok || p != wp(typ) {
			t.Errorf("row 7 col %d: expected white %s, got %+v", col, typ, p)
		}
		if p, _ := b.PieceAt(pos(1, col)); p != bp(Pawn) {
			t.Errorf("row 1 col %d: expected black pawn", col)
		}
		if p, _ := b.PieceAt(pos(6, col)); p != wp(Pawn) {
			t.Errorf("row 6 col %d: expected white pawn", col)
		}
		for row := 2; row <= 5; row++ {
			if !b.IsEmpty(pos(row, col)) {
				t.Errorf("expected %s to be empty", pos(row, col))
			}
		}
	}
}

func TestSelection(t *testing.T) {
	t.Run("opponent piece is ignored", func(t *testing.T) {
		g := NewGame()
		if g.Tap(1, 0) {
			t.Fatal("tapping a black pawn on white's turn should not change state")
		}
		if _, ok := g.Selection(); ok {
			t.Fatal("expected no selection")
		}
		if len(g.LegalDestinations()) != 0 {
			t.Fatal("expected no legal destinations")
		}
	})

	t.Run("empty square is ignored", func(t *testing.T) {
		g := NewGame()
		if g.Tap(4, 4) {
			t.Fatal("tapping an empty square with nothing selected should not change state")
		}
	})

	t.Run("own piece is selected", func(t *testing.T) {
		g := NewGame()
		if !g.Tap(6, 4) {
			t.Fatal("expected the tap to select the pawn")
		}
		sel, ok := g.Selection()
		if !ok || sel != pos(6, 4) {
			t.Fatalf("expected selection at (6,4), got %v %v", sel, ok)
		}
		if got, want := g.LegalDestinations(), []Position{pos(5, 4), pos(4, 4)}; !reflect.DeepEqual(got, want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
	})

	t.Run("own piece while selected reselects", func(t *testing.T) {
		g := NewGame()
		tapAll(t, g, pos(6, 4), pos(7, 6))
		sel, ok := g.Selection()
		if !ok || sel != pos(7, 6) {
			t.Fatalf("expected knight selected, got %v %v", sel, ok)
		}
		if got, want := g.LegalDestinations(), []Position{pos(5, 7), pos(5, 5)}; !reflect.DeepEqual(got, want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
		if g.CurrentPlayer() != White || len(g.History()) != 0 {
			t.Fatal("reselecting must not execute a move")
		}
	})

	t.Run("unreachable square clears selection", func(t *testing.T) {
		g := NewGame()
		tapAll(t, g, pos(6, 4), pos(3, 3))
		if _, ok := g.Selection(); ok {
			t.Fatal("expected selection to be cleared")
		}
		if len(g.LegalDestinations()) != 0 {
			t.Fatal("expected legal destinations to be cleared")
		}
		if g.CurrentPlayer() != White {
			t.Fatal("turn must not change on an invalid tap")
		}
	})

	t.Run("unreachable opponent piece clears selection", func(t *testing.T) {
		g := NewGame()
		tapAll(t, g, pos(6, 4), pos(1, 4))
		if _, ok := g.Selection(); ok {
			t.Fatal("expected selection to be cleared")
		}
	})

	t.Run("out of range taps are ignored", func(t *testing.T) {
		g := NewGame()
		g.Tap(6, 4)
		for _, p := range []Position{pos(-1, 0), pos(8, 3), pos(2, 8), pos(0, -5)} {
			if g.Tap(p.Row, p.Col) {
				t.Fatalf("tap at %s should be ignored", p)
			}
		}
		if sel, ok := g.Selection(); !ok || sel != pos(6, 4) {
			t.Fatal("out of range taps must not disturb the selection")
		}
	})
}

func TestExecuteMove(t *testing.T) {
	g := NewGame()
	play(t, g, pos(6, 4), pos(4, 4))

	s := g.GetState()
	if s.CurrentPlayer != Black {
		t.Fatalf("expected black to move, got %s", s.CurrentPlayer)
	}
	if s.Status != "Black to move" {
		t.Fatalf("unexpected status %q", s.Status)
	}
	if p, ok := s.Board.PieceAt(pos(4, 4)); !ok || p != wp(Pawn) {
		t.Fatal("expected the white pawn on (4,4)")
	}
	if !s.Board.IsEmpty(pos(6, 4)) {
		t.Fatal("expected (6,4) to be empty")
	}
	if s.SelectedSquare != nil || len(s.LegalMoves) != 0 {
		t.Fatal("selection must be cleared after a move")
	}
	want := Move{From: pos(6, 4), To: pos(4, 4), Piece: wp(Pawn), Player: White}
	if !reflect.DeepEqual(s.MoveHistory, []Move{want}) {
		t.Fatalf("unexpected history %+v", s.MoveHistory)
	}
	if s.LastMove == nil || *s.LastMove != (SimpleMove{From: pos(6, 4), To: pos(4, 4)}) {
		t.Fatalf("unexpected last move %+v", s.LastMove)
	}
}

func TestTurnDiscipline(t *testing.T) {
	g := NewGame()
	moves := [][2]Position{
		{pos(6, 4), pos(4, 4)},
		{pos(1, 4), pos(3, 4)},
		{pos(7, 6), pos(5, 5)},
		{pos(0, 1), pos(2, 2)},
	}
	want := White
	for _, m := range moves {
		if g.CurrentPlayer() != want {
			t.Fatalf("expected %s to move", want)
		}
		// noise: empty square, opponent piece, reselect
		tapAll(t, g, pos(4, 0), pos(m[0].Row, m[0].Col))
		if g.CurrentPlayer() != want {
			t.Fatal("turn changed without a move")
		}
		play(t, g, m[0], m[1])
		want = want.Opponent()
	}
}

func TestUndoOnEmptyHistoryIsNoop(t *testing.T) {
	g := NewGame()
	g.Tap(6, 4)
	before := g.GetState()
	if g.UndoMove() {
		t.Fatal("expected undo to report nothing to undo")
	}
	if !reflect.DeepEqual(before, g.GetState()) {
		t.Fatal("undo on an empty history must not change state")
	}
}

func TestPromotion(t *testing.T) {
	b := boardWith(map[Position]Piece{
		pos(1, 0): wp(Pawn),
		pos(7, 4): wp(King),
		pos(0, 7): bp(King),
	})
	g := NewGameFromPosition(b, White)
	play(t, g, pos(1, 0), pos(0, 0))

	s := g.GetState()
	if p, _ := s.Board.PieceAt(pos(0, 0)); p != wp(Queen) {
		t.Fatalf("expected a white queen on (0,0), got %+v", p)
	}
	if s.MoveHistory[0].Piece != wp(Pawn) {
		t.Fatal("history must record the piece before promotion")
	}
	if s.Status != "Black in check" || !s.IsCheck {
		t.Fatalf("the new queen checks along the back rank, got status %q", s.Status)
	}

	g.UndoMove()
	s = g.GetState()
	if p, _ := s.Board.PieceAt(pos(1, 0)); p != wp(Pawn) {
		t.Fatalf("expected undo to restore a pawn, got %+v", p)
	}
	if !s.Board.IsEmpty(pos(0, 0)) {
		t.Fatal("expected promotion square to be empty after undo")
	}
	if s.Board != b {
		t.Fatal("undo did not restore the board")
	}
}

func TestCapturePromotionUndoRestoresCapturedPiece(t *testing.T) {
	b := boardWith(map[Position]Piece{
		pos(6, 6): bp(Pawn),
		pos(7, 7): wp(Rook),
		pos(7, 0): wp(King),
		pos(0, 4): bp(King),
	})
	g := NewGameFromPosition(b, Black)
	play(t, g, pos(6, 6), pos(7, 7))

	board := g.Board()
	if p, _ := board.PieceAt(pos(7, 7)); p != bp(Queen) {
		t.Fatalf("expected a black queen on (7,7), got %+v", p)
	}
	g.UndoMove()
	if g.Board() != b {
		t.Fatal("undo did not restore the captured rook and the pawn")
	}
	if g.CurrentPlayer() != Black {
		t.Fatal("undo must give the turn back to the mover")
	}
}

func TestFoolsMate(t *testing.T) {
	g := NewGame()
	play(t, g, pos(6, 5), pos(5, 5)) // f3
	play(t, g, pos(1, 4), pos(3, 4)) // e5
	play(t, g, pos(6, 6), pos(4, 6)) // g4

	b := g.Board()
	if b.IsInCheck(White) || b.IsInCheck(Black) {
		t.Fatal("nobody is in check before Qh4")
	}

	play(t, g, pos(0, 3), pos(4, 7)) // Qh4#
	s := g.GetState()
	if !s.Board.IsInCheck(White) {
		t.Fatal("expected white to be in check")
	}
	if !s.Board.IsCheckmate(White) {
		t.Fatal("expected white to be mated")
	}
	if s.Status != "Black wins!" {
		t.Fatalf("expected %q, got %q", "Black wins!", s.Status)
	}
	if s.Winner == nil || *s.Winner != Black {
		t.Fatalf("expected black as winner, got %v", s.Winner)
	}

	// every white piece is frozen
	g.Tap(7, 4)
	if len(g.LegalDestinations()) != 0 {
		t.Fatal("the mated king should have no legal destinations")
	}

	g.UndoMove()
	s = g.GetState()
	if s.Status != "Black to move" || s.Winner != nil {
		t.Fatalf("after undo expected %q with no winner, got %q", "Black to move", s.Status)
	}
}

func TestUndoStatusDoesNotAnnounceCheck(t *testing.T) {
	b := boardWith(map[Position]Piece{
		pos(1, 0): wp(Pawn),
		pos(7, 4): wp(King),
		pos(0, 7): bp(King),
		pos(3, 3): wp(Rook),
	})
	g := NewGameFromPosition(b, White)
	play(t, g, pos(1, 0), pos(0, 0)) // promotes with check
	play(t, g, pos(0, 7), pos(1, 7)) // king steps out
	g.UndoMove()

	if got := g.Status(); got != "Black to move" {
		t.Fatalf("expected %q after undo, got %q", "Black to move", got)
	}
	if !g.GetState().IsCheck {
		t.Fatal("the check flag still reflects the restored position")
	}
}

// TestMoveUndoRoundTrip plays every legal move from several positions and checks that undo
// restores the exact prior state.
func TestMoveUndoRoundTrip(t *testing.T) {
	opened := NewGame()
	play(t, opened, pos(6, 4), pos(4, 4))
	play(t, opened, pos(1, 3), pos(3, 3))

	positions := []struct {
		name   string
		board  Board
		toMove Player
	}{
		{"start", NewBoard(), White},
		{"open center", opened.Board(), White},
		{"open center black", opened.Board(), Black},
		{"promotion and captures", boardWith(map[Position]Piece{
			pos(1, 1): wp(Pawn),
			pos(0, 0): bp(Rook),
			pos(0, 2): bp(Knight),
			pos(6, 6): bp(Pawn),
			pos(7, 4): wp(King),
			pos(0, 6): bp(King),
			pos(4, 4): wp(Queen),
		}), White},
	}

	for _, tt := range positions {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.board
			b.forEachPiece(tt.toMove, func(from Position) bool {
				for _, to := range b.LegalMoves(from) {
					g := NewGameFromPosition(b, tt.toMove)
					before := g.GetState()

					g.Tap(from.Row, from.Col)
					g.Tap(to.Row, to.Col)
					if len(g.History()) != 1 {
						t.Fatalf("%s->%s was not executed", from, to)
					}
					g.UndoMove()

					after := g.GetState()
					if after.Board != before.Board {
						t.Fatalf("%s->%s: board not restored", from, to)
					}
					if after.CurrentPlayer != before.CurrentPlayer {
						t.Fatalf("%s->%s: turn not restored", from, to)
					}
					if after.SelectedSquare != nil || len(after.LegalMoves) != 0 {
						t.Fatalf("%s->%s: selection not restored", from, to)
					}
					if len(after.MoveHistory) != 0 {
						t.Fatalf("%s->%s: history not popped", from, to)
					}
				}
				return true
			})
		})
	}
}

func TestGetStateIsACopy(t *testing.T) {
	g := NewGame()
	g.Tap(6, 4)
	s := g.GetState()
	s.LegalMoves[0] = pos(0, 0)
	*s.SelectedSquare = pos(3, 3)
	s.Board.Clear(pos(7, 4))

	fresh := g.GetState()
	if fresh.LegalMoves[0] != pos(5, 4) || *fresh.SelectedSquare != pos(6, 4) {
		t.Fatal("mutating a snapshot leaked into the game")
	}
	if fresh.Board.IsEmpty(pos(7, 4)) {
		t.Fatal("mutating a snapshot board leaked into the game")
	}
}

func TestSubscribe(t *testing.T) {
	g := NewGame()
	var got []GameState
	cancel := g.Subscribe(func(s GameState) {
		got = append(got, s)
	})

	g.Tap(4, 4) // no-op
	g.Tap(6, 4)
	g.Tap(4, 4)
	g.UndoMove()
	g.UndoMove() // nothing left
	g.Reset()

	if len(got) != 4 {
		t.Fatalf("expected 4 notifications, got %d", len(got))
	}
	if got[1].CurrentPlayer != Black {
		t.Fatal("second notification should follow the executed move")
	}

	cancel()
	g.Tap(6, 4)
	if len(got) != 4 {
		t.Fatal("cancelled subscription still notified")
	}
}

func TestSubscribeDeliversInOrder(t *testing.T) {
	g := NewGame()
	moves := [][2]Position{
		{pos(6, 4), pos(4, 4)}, {pos(1, 4), pos(3, 4)},
		{pos(7, 6), pos(5, 5)}, {pos(0, 1), pos(2, 2)},
		{pos(7, 5), pos(4, 2)}, {pos(0, 6), pos(2, 5)},
		{pos(6, 3), pos(5, 3)}, {pos(1, 3), pos(2, 3)},
	}
	for _, m := range moves {
		play(t, g, m[0], m[1])
	}

	var seen []int
	g.Subscribe(func(s GameState) {
		seen = append(seen, len(s.MoveHistory))
	})

	var wg sync.WaitGroup
	for range moves {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.UndoMove()
		}()
	}
	wg.Wait()

	if len(seen) != len(moves) {
		t.Fatalf("expected %d notifications, got %d", len(moves), len(seen))
	}
	for i, n := range seen {
		if want := len(moves) - 1 - i; n != want {
			t.Fatalf("notification %d carried %d moves, expected %d (seen %v)", i, n, want, seen)
		}
	}
}
