package model

type Player string

const (
	White Player = "white"
	Black Player = "black"
)

func (p Player) Opponent() Player {
	if p == White {
		return Black
	}
	return White
}

// Name is the capitalised form used in status lines.
func (p Player) Name() string {
	if p == White {
		return "White"
	}
	return "Black"
}

func (p Player) Valid() bool {
	return p == White || p == Black
}

// forward is the row delta of a pawn advance.
func (p Player) forward() int {
	if p == White {
		return -1
	}
	return 1
}

func (p Player) pawnStartRow() int {
	if p == White {
		return 6
	}
	return 1
}

func (p Player) promotionRow() int {
	if p == White {
		return 0
	}
	return 7
}

// Seat is the client-facing view of who occupies a colour in a hosted game.
type Seat struct {
	ID    string `json:"id"`
	Color Player `json:"color"`
}
