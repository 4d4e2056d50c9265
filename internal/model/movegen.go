package model

type direction struct {
	dRow, dCol int
}

var (
	rookDirs   = []direction{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	bishopDirs = []direction{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	queenDirs  = []direction{{1, 0}, {-1, 0}, {0, 1}, {0, -1}, {1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	kingDirs   = queenDirs
	knightDirs = []direction{{2, 1}, {2, -1}, {-2, 1}, {-2, -1}, {1, 2}, {1, -2}, {-1, 2}, {-1, -2}}
)

// PseudoLegalMoves returns the destinations the piece at pos can reach by its movement pattern,
// ignoring whether the move exposes its own king. It works for either side regardless of turn
// and returns nil for an empty or out-of-range square.
func (b *Board) PseudoLegalMoves(pos Position) []Position {
	piece, ok := b.PieceAt(pos)
	if !ok {
		return nil
	}
	switch piece.Type {
	case Pawn:
		return b.pawnMoves(pos, piece.Owner)
	case Knight:
		return b.stepMoves(pos, piece.Owner, knightDirs)
	case King:
		return b.stepMoves(pos, piece.Owner, kingDirs)
	case Rook:
		return b.slidingMoves(pos, piece.Owner, rookDirs)
	case Bishop:
		return b.slidingMoves(pos, piece.Owner, bishopDirs)
	case Queen:
		return b.slidingMoves(pos, piece.Owner, queenDirs)
	default:
		return nil
	}
}

func (b *Board) pawnMoves(pos Position, owner Player) []Position {
	moves := []Position{}
	dir := owner.forward()

	// forward 1, then forward 2 from the start rank
	one := pos.offset(dir, 0)
	if one.InBounds() && b.IsEmpty(one) {
		moves = append(moves, one)
		if pos.Row == owner.pawnStartRow() {
			two := pos.offset(2*dir, 0)
			if b.IsEmpty(two) {
				moves = append(moves, two)
			}
		}
	}

	// captures only, no en passant
	for _, dCol := range []int{-1, 1} {
		target := pos.offset(dir, dCol)
		if p, ok := b.PieceAt(target); ok && p.Owner != owner {
			moves = append(moves, target)
		}
	}
	return moves
}

// stepMoves covers the single-jump pieces (knight, king).
func (b *Board) stepMoves(pos Position, owner Player, dirs []direction) []Position {
	moves := []Position{}
	for _, d := range dirs {
		target := pos.offset(d.dRow, d.dCol)
		if !target.InBounds() {
			continue
		}
		if p, ok := b.PieceAt(target); !ok || p.Owner != owner {
			moves = append(moves, target)
		}
	}
	return moves
}

// slidingMoves walks each direction until the edge or the first occupied square. That square is
// a destination only when it holds an opponent piece; either way the walk stops there.
func (b *Board) slidingMoves(pos Position, owner Player, dirs []direction) []Position {
	moves := []Position{}
	for _, d := range dirs {
		target := pos.offset(d.dRow, d.dCol)
		for target.InBounds() {
			p, occupied := b.PieceAt(target)
			if !occupied {
				moves = append(moves, target)
				target = target.offset(d.dRow, d.dCol)
				continue
			}
			if p.Owner != owner {
				moves = append(moves, target)
			}
			break
		}
	}
	return moves
}
