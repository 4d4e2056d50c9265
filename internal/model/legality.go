package model

// LegalMoves filters PseudoLegalMoves down to the destinations that do not leave the mover's
// king in check. Each candidate is played on a private copy of the board, so the receiver is
// never observed in a speculative state.
func (b *Board) LegalMoves(pos Position) []Position {
	piece, ok := b.PieceAt(pos)
	if !ok {
		return []Position{}
	}
	legal := []Position{}
	for _, to := range b.PseudoLegalMoves(pos) {
		if !b.leavesKingInCheck(pos, to, piece.Owner) {
			legal = append(legal, to)
		}
	}
	return legal
}

func (b *Board) leavesKingInCheck(from, to Position, mover Player) bool {
	scratch := *b
	scratch[to.Row][to.Col] = scratch[from.Row][from.Col]
	scratch.Clear(from)
	return scratch.IsInCheck(mover)
}

// hasLegalMove reports whether any piece owned by player has at least one legal destination.
func (b *Board) hasLegalMove(player Player) bool {
	found := false
	b.forEachPiece(player, func(pos Position) bool {
		if len(b.LegalMoves(pos)) > 0 {
			found = true
			return false
		}
		return true
	})
	return found
}
