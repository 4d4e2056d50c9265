package model

import (
	"encoding/json"
	"fmt"
)

type PieceType string

const (
	King   PieceType = "king"
	Queen  PieceType = "queen"
	Rook   PieceType = "rook"
	Bishop PieceType = "bishop"
	Knight PieceType = "knight"
	Pawn   PieceType = "pawn"
)

const boardSize = 8

// Piece is an immutable value; glyphs are left to the client.
type Piece struct {
	Type  PieceType `json:"type"`
	Owner Player    `json:"owner"`
}

// Square is either empty or occupied by exactly one piece.
type Square struct {
	Occupied bool
	Piece    Piece
}

var EmptySquare = Square{}

func Occupied(p Piece) Square {
	return Square{Occupied: true, Piece: p}
}

// MarshalJSON renders an empty square as null so clients see a grid of pieces.
func (s Square) MarshalJSON() ([]byte, error) {
	if !s.Occupied {
		return []byte("null"), nil
	}
	return json.Marshal(s.Piece)
}

func (s *Square) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = EmptySquare
		return nil
	}
	var p Piece
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = Occupied(p)
	return nil
}

type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (p Position) InBounds() bool {
	return p.Row >= 0 && p.Row < boardSize && p.Col >= 0 && p.Col < boardSize
}

func (p Position) offset(dRow, dCol int) Position {
	return Position{Row: p.Row + dRow, Col: p.Col + dCol}
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// Board is indexed [row][col]. Row 0 is black's back rank, row 7 is white's.
type Board [boardSize][boardSize]Square

var backRank = [boardSize]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

func EmptyBoard() Board {
	return Board{}
}

// NewBoard returns the standard starting position.
func NewBoard() Board {
	var board Board
	for col := 0; col < boardSize; col++ {
		board[0][col] = Occupied(Piece{Type: backRank[col], Owner: Black})
		board[1][col] = Occupied(Piece{Type: Pawn, Owner: Black})
		board[6][col] = Occupied(Piece{Type: Pawn, Owner: White})
		board[7][col] = Occupied(Piece{Type: backRank[col], Owner: White})
	}
	return board
}

// At returns the square at pos. pos must be in bounds.
func (b *Board) At(pos Position) Square {
	return b[pos.Row][pos.Col]
}

func (b *Board) PieceAt(pos Position) (Piece, bool) {
	if !pos.InBounds() {
		return Piece{}, false
	}
	sq := b[pos.Row][pos.Col]
	return sq.Piece, sq.Occupied
}

func (b *Board) IsEmpty(pos Position) bool {
	return !b[pos.Row][pos.Col].Occupied
}

func (b *Board) Set(pos Position, p Piece) {
	b[pos.Row][pos.Col] = Occupied(p)
}

func (b *Board) Clear(pos Position) {
	b[pos.Row][pos.Col] = EmptySquare
}

// FindKing scans the board for player's king.
func (b *Board) FindKing(player Player) (Position, bool) {
	for row := 0; row < boardSize; row++ {
		for col := 0; col < boardSize; col++ {
			sq := b[row][col]
			if sq.Occupied && sq.Piece.Type == King && sq.Piece.Owner == player {
				return Position{Row: row, Col: col}, true
			}
		}
	}
	return Position{}, false
}

// forEachPiece calls fn for every square holding a piece owned by player, in row-major order.
func (b *Board) forEachPiece(player Player, fn func(pos Position) bool) {
	for row := 0; row < boardSize; row++ {
		for col := 0; col < boardSize; col++ {
			sq := b[row][col]
			if sq.Occupied && sq.Piece.Owner == player {
				if !fn(Position{Row: row, Col: col}) {
					return
				}
			}
		}
	}
}
