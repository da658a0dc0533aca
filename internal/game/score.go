package game

import (
	"math"

	"github.com/vancomm/maze-server/internal/maze"
)

// ScoreRules holds the constants of
//
//	raw = Base - (excess*MovePenalty + collisions*CollisionPenalty + seconds*TimeWeight)
//
// clamped to [Min, Max]. Negative weights are treated as zero.
type ScoreRules struct {
	Base             float64 `json:"base"`
	MovePenalty      float64 `json:"move_penalty"`
	CollisionPenalty float64 `json:"collision_penalty"`
	TimeWeight       float64 `json:"time_weight"`
	Min              int     `json:"min"`
	Max              int     `json:"max"`
}

var (
	// MazeRules charges for bumping into walls.
	MazeRules = ScoreRules{Base: 200, CollisionPenalty: 10, TimeWeight: 1, Min: 20, Max: 200}
	// GridRules charges for every move beyond the optimum.
	GridRules = ScoreRules{Base: 200, MovePenalty: 5, TimeWeight: 1, Min: 0, Max: 200}
)

// RulesFor picks the scoring variant for a generation mode. Density rounds
// use GridRules, which charge excess moves and ignore collisions.
func RulesFor(mode maze.GenerationMode) ScoreRules {
	if mode == maze.CarveBacktrack {
		return MazeRules
	}
	return GridRules
}

func (r ScoreRules) normalized() ScoreRules {
	r.MovePenalty = max(r.MovePenalty, 0)
	r.CollisionPenalty = max(r.CollisionPenalty, 0)
	r.TimeWeight = max(r.TimeWeight, 0)
	if r.Min > r.Max {
		r.Min, r.Max = r.Max, r.Min
	}
	return r
}

// Score maps session statistics to [rules.Min, rules.Max]. Time beyond a
// positive limit is not charged.
func Score(s Snapshot, optimalMoves, timeLimit int, rules ScoreRules) int {
	r := rules.normalized()

	excess := max(0, s.Moves-optimalMoves)
	used := max(0, s.Elapsed)
	if timeLimit > 0 {
		used = min(used, timeLimit)
	}

	raw := r.Base - (float64(excess)*r.MovePenalty +
		float64(s.Collisions)*r.CollisionPenalty +
		float64(used)*r.TimeWeight)

	if math.IsNaN(raw) {
		return r.Min
	}
	raw = math.Round(raw)
	if raw < float64(r.Min) {
		return r.Min
	}
	if raw > float64(r.Max) {
		return r.Max
	}
	return int(raw)
}

func (s *Session) Score(rules ScoreRules) int {
	return Score(s.Snapshot(), s.maze.OptimalMoves(), s.timeLimit, rules)
}
