package model

// IsInCheck reports whether player's king is reachable by a pseudo-legal move of any opponent
// piece. A board without that king is reported as not in check.
func (b *Board) IsInCheck(player Player) bool {
	kingPos, ok := b.FindKing(player)
	if !ok {
		return false
	}
	attacked := false
	b.forEachPiece(player.Opponent(), func(pos Position) bool {
		for _, target := range b.PseudoLegalMoves(pos) {
			if target == kingPos {
				attacked = true
				return false
			}
		}
		return true
	})
	return attacked
}

// IsCheckmate is false unless player is in check and has no legal move.
func (b *Board) IsCheckmate(player Player) bool {
	if !b.IsInCheck(player) {
		return false
	}
	return !b.hasLegalMove(player)
}

// IsStalemate is the not-in-check counterpart of IsCheckmate. The game loop does not act on
// it; it is exposed for clients that want to flag the position.
func (b *Board) IsStalemate(player Player) bool {
	if b.IsInCheck(player) {
		return false
	}
	return !b.hasLegalMove(player)
}
