package model

import (
	"errors"
	"sync"
	"time"
)

var ErrAlreadyQueued = errors.New("player already in queue")

type QueuedPlayer struct {
	PlayerID string
	JoinedAt time.Time
}

// Queue is the matchmaking waiting list, oldest first.
type Queue struct {
	players []QueuedPlayer
	mu      sync.Mutex
	now     func() time.Time
}

func NewQueue() *Queue {
	return &Queue{
		players: []QueuedPlayer{},
		now:     time.Now,
	}
}

func (q *Queue) AddPlayer(playerID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, p := range q.players {
		if p.PlayerID == playerID {
			return ErrAlreadyQueued
		}
	}

	q.players = append(q.players, QueuedPlayer{
		PlayerID: playerID,
		JoinedAt: q.now(),
	})
	return nil
}

// RemovePlayer drops playerID from the queue and reports whether it was waiting.
func (q *Queue) RemovePlayer(playerID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, p := range q.players {
		if p.PlayerID == playerID {
			q.players = append(q.players[:i], q.players[i+1:]...)
			return true
		}
	}
	return false
}

// NextPair pops the two players who have been waiting longest.
func (q *Queue) NextPair() (QueuedPlayer, QueuedPlayer, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.players) < 2 {
		return QueuedPlayer{}, QueuedPlayer{}, false
	}
	player1 := q.players[0]
	player2 := q.players[1]
	q.players = q.players[2:]

	return player1, player2, true
}

func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.players)
}

// MatchFoundEvent tells a queued player which game and colour they were paired into.
type MatchFoundEvent struct {
	GameID string `json:"gameId"`
	Color  Player `json:"color"`
}
