package model

// Move is a history record holding exactly what undo needs. Piece is the identity before any
// promotion, so reverting a promoting move puts a pawn back.
type Move struct {
	From          Position `json:"from"`
	To            Position `json:"to"`
	Piece         Piece    `json:"piece"`
	CapturedPiece *Piece   `json:"capturedPiece"`
	Player        Player   `json:"player"`
}

type SimpleMove struct {
	From Position `json:"from"`
	To   Position `json:"to"`
}

// applyMove commits from->to on the board, promoting a pawn that lands on the far rank, and
// returns the history record. from must hold a piece.
func (b *Board) applyMove(from, to Position) Move {
	piece, ok := b.PieceAt(from)
	assert(ok, "applyMove: no piece at %s", from)

	record := Move{From: from, To: to, Piece: piece, Player: piece.Owner}
	if captured, ok := b.PieceAt(to); ok {
		assert(captured.Owner != piece.Owner, "applyMove: %s captures own piece at %s", from, to)
		record.CapturedPiece = &captured
	}

	b.Set(to, piece)
	b.Clear(from)
	if piece.Type == Pawn && to.Row == piece.Owner.promotionRow() {
		b.Set(to, Piece{Type: Queen, Owner: piece.Owner})
	}
	return record
}

// revertMove restores the two squares touched by m.
func (b *Board) revertMove(m Move) {
	b.Set(m.From, m.Piece)
	if m.CapturedPiece != nil {
		b.Set(m.To, *m.CapturedPiece)
	} else {
		b.Clear(m.To)
	}
}
