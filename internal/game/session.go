package game

import (
	"encoding/json"
	"math"
	"slices"

	"github.com/sirupsen/logrus"
	"github.com/vancomm/maze-server/internal/maze"
)

var Log = logrus.New()

type Status int8

const (
	Ready Status = iota
	Playing
	Finished
)

func (s Status) String() string {
	switch s {
	case Ready:
		return "ready"
	case Playing:
		return "playing"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// [Status] implements [encoding.TextMarshaler]
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type EndReason int8

const (
	NotEnded EndReason = iota
	GoalReached
	TimedOut
)

func (r EndReason) String() string {
	switch r {
	case GoalReached:
		return "goal"
	case TimedOut:
		return "timeout"
	default:
		return ""
	}
}

func (r EndReason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

type MoveResult int8

const (
	Ignored MoveResult = iota // session not playing
	Accepted
	Collision
)

func (r MoveResult) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case Collision:
		return "collision"
	default:
		return "ignored"
	}
}

/*
 * Session is the single owner of one player's progress through a maze.
 * Every field changes only through Start, ApplyMove and Tick, and between
 * two calls to Start the counters and the visited path never shrink.
 */
type Session struct {
	maze       *maze.Maze
	timeLimit  int
	position   maze.Position
	path       []maze.Position
	collisions int
	moves      int
	elapsed    int
	status     Status
	reason     EndReason
}

// NewSession creates a session in Ready. A zero time limit means the round
// only ends at the goal; a negative one falls back to the maze's own limit.
func NewSession(m *maze.Maze, timeLimit int) *Session {
	if timeLimit < 0 {
		timeLimit = m.Difficulty().TimeLimit
	}
	s := &Session{maze: m, timeLimit: timeLimit}
	s.reset()
	return s
}

func (s *Session) reset() {
	start := s.maze.Start()
	s.position = start
	s.path = []maze.Position{start}
	s.collisions = 0
	s.moves = 0
	s.elapsed = 0
	s.reason = NotEnded
}

// Start discards any progress and begins playing from the maze start.
func (s *Session) Start() {
	s.reset()
	s.status = Playing
}

func (s *Session) ApplyMove(d maze.Direction) MoveResult {
	if s.status != Playing || !d.Valid() {
		return Ignored
	}

	candidate := d.From(s.position)
	if !s.maze.Grid().OpenAt(candidate) {
		s.collisions++
		return Collision
	}

	s.position = candidate
	s.path = append(s.path, candidate)
	s.moves++

	if s.position == s.maze.Goal() {
		s.finish(GoalReached)
	}
	return Accepted
}

// Tick advances the clock while playing, saturating at math.MaxInt. Reaching
// the time limit ends the round wherever the player stands.
func (s *Session) Tick(delta int) {
	if s.status != Playing || delta <= 0 {
		return
	}
	s.elapsed = min(s.elapsed, math.MaxInt-delta) + delta
	if s.timeLimit > 0 && s.elapsed >= s.timeLimit {
		s.finish(TimedOut)
	}
}

func (s *Session) finish(reason EndReason) {
	s.status = Finished
	s.reason = reason
	Log.WithFields(logrus.Fields{
		"reason":     reason,
		"moves":      s.moves,
		"collisions": s.collisions,
		"elapsed":    s.elapsed,
	}).Debug("session finished")
}

func (s *Session) Maze() *maze.Maze        { return s.maze }
func (s *Session) Status() Status          { return s.status }
func (s *Session) EndReason() EndReason    { return s.reason }
func (s *Session) Position() maze.Position { return s.position }
func (s *Session) TimeLimit() int          { return s.timeLimit }

type Snapshot struct {
	Position    maze.Position   `json:"position"`
	VisitedPath []maze.Position `json:"visited_path"`
	Collisions  int             `json:"collisions"`
	Moves       int             `json:"moves"`
	Elapsed     int             `json:"elapsed_seconds"`
	TimeLimit   int             `json:"time_limit"`
	Status      Status          `json:"status"`
	EndReason   EndReason       `json:"end_reason,omitempty"`
}

// Snapshot copies the session state; the result shares nothing with it.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		Position:    s.position,
		VisitedPath: slices.Clone(s.path),
		Collisions:  s.collisions,
		Moves:       s.moves,
		Elapsed:     s.elapsed,
		TimeLimit:   s.timeLimit,
		Status:      s.status,
		EndReason:   s.reason,
	}
}

// [Session] implements [json.Marshaler]
func (s *Session) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Snapshot())
}
