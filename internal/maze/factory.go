package maze

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
)

const DefaultMaxAttempts = 200

// Maze is a solvable grid with its endpoints and the length of the shortest
// path between them. It is never modified after Build returns it.
type Maze struct {
	difficulty   Difficulty
	grid         *Grid
	start, goal  Position
	optimalMoves int
	attempts     int
}

func (m *Maze) Difficulty() Difficulty { return m.difficulty }
func (m *Maze) Grid() *Grid            { return m.grid }
func (m *Maze) Start() Position        { return m.start }
func (m *Maze) Goal() Position         { return m.goal }
func (m *Maze) OptimalMoves() int      { return m.optimalMoves }

// Attempts is the number of candidates generated before this one was accepted.
func (m *Maze) Attempts() int { return m.attempts }

// Route is the canonical shortest path from start to goal.
func (m *Maze) Route() []Position {
	route, _ := ShortestRoute(m.grid, m.start, m.goal)
	return route
}

type mazeJSON struct {
	Size         int            `json:"size"`
	Mode         GenerationMode `json:"mode"`
	Rows         []string       `json:"rows"`
	Start        Position       `json:"start"`
	Goal         Position       `json:"goal"`
	OptimalMoves int            `json:"optimal_moves"`
	TimeLimit    int            `json:"time_limit"`
}

// [Maze] implements [json.Marshaler]
func (m *Maze) MarshalJSON() ([]byte, error) {
	return json.Marshal(mazeJSON{
		Size:         m.grid.Size(),
		Mode:         m.difficulty.Mode,
		Rows:         m.grid.Rows(),
		Start:        m.start,
		Goal:         m.goal,
		OptimalMoves: m.optimalMoves,
		TimeLimit:    m.difficulty.TimeLimit,
	})
}

type Factory struct {
	rnd         RNG
	maxAttempts int
	generate    func(Difficulty, RNG) *Candidate
}

type FactoryOption func(*Factory)

// WithMaxAttempts caps the number of candidates Build generates. Values
// below one are ignored.
func WithMaxAttempts(n int) FactoryOption {
	return func(f *Factory) {
		if n > 0 {
			f.maxAttempts = n
		}
	}
}

func NewFactory(r RNG, opts ...FactoryOption) *Factory {
	f := &Factory{
		rnd:         r,
		maxAttempts: DefaultMaxAttempts,
		generate:    Difficulty.generate,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Factory) MaxAttempts() int {
	return f.maxAttempts
}

// Build generates candidates until one connects start to goal. A difficulty
// that fails validation or exhausts the attempt limit yields a *ConfigError.
func (f *Factory) Build(d Difficulty) (*Maze, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		c := f.generate(d, f.rnd)

		moves, ok := ShortestPath(c.Grid, c.Start, c.Goal)
		if !ok {
			Log.WithFields(logrus.Fields{
				"difficulty": d.Seed(),
				"attempt":    attempt,
			}).Debug("discarding unsolvable candidate")
			continue
		}

		return &Maze{
			difficulty:   d,
			grid:         c.Grid,
			start:        c.Start,
			goal:         c.Goal,
			optimalMoves: moves,
			attempts:     attempt,
		}, nil
	}

	Log.WithFields(logrus.Fields{
		"difficulty":  d.Seed(),
		"maxAttempts": f.maxAttempts,
	}).Warn("attempt limit exceeded")

	return nil, &ConfigError{
		Field: "difficulty",
		Err:   fmt.Errorf("%w (%d)", ErrAttemptsExhausted, f.maxAttempts),
	}
}

func NewMaze(d Difficulty, r RNG) (*Maze, error) {
	return NewFactory(r).Build(d)
}

// FromGrid wraps a hand-made grid, checking the same invariants Build
// guarantees for generated ones.
func FromGrid(g *Grid, start, goal Position, timeLimit int) (*Maze, error) {
	if start == goal {
		return nil, &ConfigError{Field: "goal", Err: fmt.Errorf("goal equals start %s", start)}
	}
	if !g.OpenAt(start) {
		return nil, &ConfigError{Field: "start", Err: fmt.Errorf("%s is not an open cell", start)}
	}
	if !g.OpenAt(goal) {
		return nil, &ConfigError{Field: "goal", Err: fmt.Errorf("%s is not an open cell", goal)}
	}
	if timeLimit < 0 {
		return nil, &ConfigError{Field: "time_limit", Err: ErrInvalidTimeLimit}
	}
	moves, ok := ShortestPath(g, start, goal)
	if !ok {
		return nil, &ConfigError{Field: "grid", Err: fmt.Errorf("%s is unreachable from %s", goal, start)}
	}
	size := g.Size()
	return &Maze{
		difficulty: Difficulty{
			Size:        size,
			Mode:        DensityRejection,
			WallDensity: float64(g.Walls()) / float64(size*size),
			TimeLimit:   timeLimit,
		},
		grid:         g,
		start:        start,
		goal:         goal,
		optimalMoves: moves,
		attempts:     1,
	}, nil
}
