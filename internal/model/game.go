package model

import (
	"sync"
)

// Game owns one board and drives it through taps and undo. All methods are safe for concurrent
// use; each runs to completion under the game lock.
type Game struct {
	emitMu    sync.Mutex // held across a mutation and its notification so listeners see changes in order
	mu        sync.Mutex
	state     GameState
	listeners map[int]func(GameState)
	nextID    int
}

type GameState struct {
	Board          Board       `json:"board"`
	CurrentPlayer  Player      `json:"currentPlayer"`
	SelectedSquare *Position   `json:"selectedSquare"` // nil when nothing is selected
	LegalMoves     []Position  `json:"legalMoves"`
	MoveHistory    []Move      `json:"moveHistory"`
	Status         string      `json:"status"`
	IsCheck        bool        `json:"isCheck"`
	Winner         *Player     `json:"winner"`
	LastMove       *SimpleMove `json:"lastMove"`
}

func NewGame() *Game {
	g := &Game{listeners: make(map[int]func(GameState))}
	g.state = newGameState(NewBoard(), White)
	return g
}

// NewGameFromPosition starts a game from an arbitrary board with toMove to play.
func NewGameFromPosition(board Board, toMove Player) *Game {
	assert(toMove.Valid(), "NewGameFromPosition: invalid player %q", toMove)
	g := &Game{listeners: make(map[int]func(GameState))}
	g.state = newGameState(board, toMove)
	return g
}

func newGameState(board Board, toMove Player) GameState {
	return GameState{
		Board:          board,
		CurrentPlayer:  toMove,
		SelectedSquare: nil,
		LegalMoves:     make([]Position, 0),
		MoveHistory:    make([]Move, 0),
		Status:         statusToMove(toMove),
		IsCheck:        false,
		Winner:         nil,
		LastMove:       nil,
	}
}

func statusToMove(p Player) string {
	return p.Name() + " to move"
}

func statusInCheck(p Player) string {
	return p.Name() + " in check"
}

func statusWins(p Player) string {
	return p.Name() + " wins!"
}

// Reset puts the standard starting position back with white to move and an empty history.
func (g *Game) Reset() {
	g.emitMu.Lock()
	defer g.emitMu.Unlock()

	g.mu.Lock()
	g.state = newGameState(NewBoard(), White)
	snapshot := g.snapshot()
	g.mu.Unlock()

	g.notify(snapshot)
}

// Tap feeds a square selection into the game. Out-of-range coordinates and taps that do not
// change anything are ignored. It reports whether the state changed.
func (g *Game) Tap(row, col int) bool {
	pos := Position{Row: row, Col: col}
	if !pos.InBounds() {
		return false
	}

	g.emitMu.Lock()
	defer g.emitMu.Unlock()

	g.mu.Lock()
	changed := g.tap(pos)
	snapshot := g.snapshot()
	g.mu.Unlock()

	if changed {
		g.notify(snapshot)
	}
	return changed
}

func (g *Game) tap(pos Position) bool {
	s := &g.state
	if s.SelectedSquare != nil {
		if containsPosition(s.LegalMoves, pos) {
			g.executeMove(*s.SelectedSquare, pos)
			g.clearSelection()
			g.updateStatusAfterMove()
			return true
		}
		if g.ownsPiece(pos) {
			g.selectSquare(pos)
			return true
		}
		g.clearSelection()
		return true
	}
	if g.ownsPiece(pos) {
		g.selectSquare(pos)
		return true
	}
	return false
}

func (g *Game) ownsPiece(pos Position) bool {
	p, ok := g.state.Board.PieceAt(pos)
	return ok && p.Owner == g.state.CurrentPlayer
}

func (g *Game) selectSquare(pos Position) {
	g.state.SelectedSquare = &pos
	g.state.LegalMoves = g.state.Board.LegalMoves(pos)
}

func (g *Game) clearSelection() {
	g.state.SelectedSquare = nil
	g.state.LegalMoves = make([]Position, 0)
}

func (g *Game) executeMove(from, to Position) {
	record := g.state.Board.applyMove(from, to)
	assert(record.Player == g.state.CurrentPlayer, "executeMove: %s moved on %s's turn", record.Player, g.state.CurrentPlayer)

	g.state.MoveHistory = append(g.state.MoveHistory, record)
	g.state.LastMove = &SimpleMove{From: from, To: to}
	g.switchTurn()
}

// updateStatusAfterMove classifies the position for the player who must move next.
func (g *Game) updateStatusAfterMove() {
	s := &g.state
	toMove := s.CurrentPlayer
	s.IsCheck = s.Board.IsInCheck(toMove)
	s.Winner = nil
	switch {
	case s.IsCheck && s.Board.IsCheckmate(toMove):
		winner := toMove.Opponent()
		s.Winner = &winner
		s.Status = statusWins(winner)
	case s.IsCheck:
		s.Status = statusInCheck(toMove)
	default:
		s.Status = statusToMove(toMove)
	}
}

func (g *Game) switchTurn() {
	g.state.CurrentPlayer = g.state.CurrentPlayer.Opponent()
}

// UndoMove reverts the most recent move. It reports false when there is nothing to undo.
func (g *Game) UndoMove() bool {
	g.emitMu.Lock()
	defer g.emitMu.Unlock()

	g.mu.Lock()
	if len(g.state.MoveHistory) == 0 {
		g.mu.Unlock()
		return false
	}
	g.undo()
	snapshot := g.snapshot()
	g.mu.Unlock()

	g.notify(snapshot)
	return true
}

func (g *Game) undo() {
	s := &g.state
	last := len(s.MoveHistory) - 1
	m := s.MoveHistory[last]
	s.MoveHistory = s.MoveHistory[:last]

	s.Board.revertMove(m)
	s.CurrentPlayer = m.Player
	g.clearSelection()

	// Status only says whose turn it is; check is not re-announced after an undo.
	s.Status = statusToMove(s.CurrentPlayer)
	s.IsCheck = s.Board.IsInCheck(s.CurrentPlayer)
	s.Winner = nil
	s.LastMove = nil
	if last > 0 {
		prev := s.MoveHistory[last-1]
		s.LastMove = &SimpleMove{From: prev.From, To: prev.To}
	}
}

// GetState returns a deep copy of the current state.
func (g *Game) GetState() GameState {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.snapshot()
}

func (g *Game) snapshot() GameState {
	s := g.state
	if s.SelectedSquare != nil {
		sel := *s.SelectedSquare
		s.SelectedSquare = &sel
	}
	if s.Winner != nil {
		w := *s.Winner
		s.Winner = &w
	}
	if s.LastMove != nil {
		lm := *s.LastMove
		s.LastMove = &lm
	}
	s.LegalMoves = append(make([]Position, 0, len(s.LegalMoves)), s.LegalMoves...)
	s.MoveHistory = append(make([]Move, 0, len(s.MoveHistory)), s.MoveHistory...)
	return s
}

func (g *Game) Board() Board {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.Board
}

func (g *Game) Selection() (Position, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state.SelectedSquare == nil {
		return Position{}, false
	}
	return *g.state.SelectedSquare, true
}

func (g *Game) LegalDestinations() []Position {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Position(nil), g.state.LegalMoves...)
}

func (g *Game) CurrentPlayer() Player {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.CurrentPlayer
}

func (g *Game) Status() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.Status
}

func (g *Game) History() []Move {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Move(nil), g.state.MoveHistory...)
}

// Subscribe registers fn to receive a snapshot after every state change. Snapshots arrive in the
// order the changes were made. fn may read the game but must not call Tap, UndoMove or Reset.
// The returned func removes the subscription.
func (g *Game) Subscribe(fn func(GameState)) (cancel func()) {
	g.mu.Lock()
	id := g.nextID
	g.nextID++
	g.listeners[id] = fn
	g.mu.Unlock()

	return func() {
		g.mu.Lock()
		delete(g.listeners, id)
		g.mu.Unlock()
	}
}

func (g *Game) notify(snapshot GameState) {
	g.mu.Lock()
	listeners := make([]func(GameState), 0, len(g.listeners))
	for _, fn := range g.listeners {
		listeners = append(listeners, fn)
	}
	g.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
}

func containsPosition(list []Position, pos Position) bool {
	for _, p := range list {
		if p == pos {
			return true
		}
	}
	return false
}
