package maze

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAlwaysSolvable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		d     Difficulty
		seeds int
	}{
		{name: "easy", d: presets["easy"], seeds: 200},
		{name: "medium", d: presets["medium"], seeds: 100},
		{name: "hard", d: presets["hard"], seeds: 100},
		{name: "labyrinth", d: presets["labyrinth"], seeds: 50},
		{name: "2x2", d: Difficulty{Size: 2}, seeds: 10},
		{name: "odd carve", d: Difficulty{Size: 9, Mode: CarveBacktrack}, seeds: 50},
		{name: "even carve", d: Difficulty{Size: 10, Mode: CarveBacktrack}, seeds: 50},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			seeds := test.seeds
			if testing.Short() {
				seeds = min(seeds, 5)
			}
			for seed := range uint64(seeds) {
				r := rand.New(rand.NewPCG(seed, 2))
				m, err := NewMaze(test.d, r)
				require.NoError(t, err, "seed %d", seed)

				moves, ok := ShortestPath(m.Grid(), m.Start(), m.Goal())
				require.True(t, ok)
				assert.Equal(t, moves, m.OptimalMoves())
				assert.GreaterOrEqual(t, m.OptimalMoves(), manhattan(m.Start(), m.Goal()))
				assert.NotEqual(t, m.Start(), m.Goal())
				assert.True(t, m.Grid().OpenAt(m.Start()))
				assert.True(t, m.Grid().OpenAt(m.Goal()))
				assert.LessOrEqual(t, m.Attempts(), DefaultMaxAttempts)
			}
		})
	}
}

func TestBuildEasyScenario(t *testing.T) {
	d := Difficulty{Size: 8, Mode: DensityRejection, WallDensity: 0.15, TimeLimit: 60}
	m, err := NewMaze(d, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)
	// opposite corners of an 8x8 grid are 14 steps apart without walls
	assert.GreaterOrEqual(t, m.OptimalMoves(), 14)
	assert.Equal(t, d, m.Difficulty())
}

func TestBuildRejectsInvalidDifficulty(t *testing.T) {
	m, err := NewMaze(Difficulty{Size: 8, WallDensity: 1.5}, rand.New(rand.NewPCG(1, 2)))
	assert.Nil(t, m)
	assert.ErrorIs(t, err, ErrInvalidDensity)
}

func TestBuildGivesUpAfterMaxAttempts(t *testing.T) {
	// every candidate cell is a wall, which always splits the two corners
	d := Difficulty{Size: 4, WallDensity: 0.5}
	require.NoError(t, d.Validate())

	f := NewFactory(rand.New(rand.NewPCG(1, 2)), WithMaxAttempts(25))
	m, err := f.Build(d)
	assert.Nil(t, m)
	assert.ErrorIs(t, err, ErrAttemptsExhausted)
	assert.True(t, IsConfigError(err))
}

func TestBuildCountsAttempts(t *testing.T) {
	blocked := mustGrid(t, ".#", "#.")
	open := mustGrid(t, "..", "..")

	calls := 0
	f := NewFactory(rand.New(rand.NewPCG(1, 2)), WithMaxAttempts(10))
	f.generate = func(d Difficulty, r RNG) *Candidate {
		calls++
		grid := blocked
		if calls == 4 {
			grid = open
		}
		return &Candidate{Grid: grid, Start: Position{0, 0}, Goal: Position{1, 1}}
	}

	m, err := f.Build(Difficulty{Size: 2})
	require.NoError(t, err)
	assert.Equal(t, 4, calls)
	assert.Equal(t, 4, m.Attempts())
	assert.Equal(t, 2, m.OptimalMoves())

	calls = -100
	_, err = f.Build(Difficulty{Size: 2})
	assert.ErrorIs(t, err, ErrAttemptsExhausted)
	assert.Equal(t, -90, calls)
}

func TestWithMaxAttemptsIgnoresNonPositive(t *testing.T) {
	f := NewFactory(rand.New(rand.NewPCG(1, 2)), WithMaxAttempts(0), WithMaxAttempts(-3))
	assert.Equal(t, DefaultMaxAttempts, f.MaxAttempts())
}

func TestMazeJSON(t *testing.T) {
	m, err := NewMaze(Difficulty{Size: 3, Mode: CarveBacktrack, TimeLimit: 30}, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)

	b, err := m.MarshalJSON()
	require.NoError(t, err)
	assert.Contains(t, string(b), `"mode":"carve"`)
	assert.Contains(t, string(b), `"start":{"x":0,"y":0}`)
	assert.Contains(t, string(b), `"goal":{"x":2,"y":2}`)
	assert.Contains(t, string(b), `"optimal_moves":4`)
	assert.Contains(t, string(b), `"time_limit":30`)
}

func TestFromGrid(t *testing.T) {
	g := mustGrid(t,
		"..#",
		"#..",
		"#..",
	)

	m, err := FromGrid(g, Position{0, 0}, Position{2, 2}, 30)
	require.NoError(t, err)
	assert.Equal(t, 4, m.OptimalMoves())
	assert.Equal(t, 30, m.Difficulty().TimeLimit)

	for _, test := range []struct {
		name        string
		start, goal Position
		limit       int
	}{
		{name: "same endpoints", start: Position{0, 0}, goal: Position{0, 0}},
		{name: "wall start", start: Position{2, 0}, goal: Position{2, 2}},
		{name: "outside goal", start: Position{0, 0}, goal: Position{3, 3}},
		{name: "negative limit", start: Position{0, 0}, goal: Position{2, 2}, limit: -1},
	} {
		_, err := FromGrid(g, test.start, test.goal, test.limit)
		assert.True(t, IsConfigError(err), test.name)
	}

	split := mustGrid(t, ".#", "#.")
	_, err = FromGrid(split, Position{0, 0}, Position{1, 1}, 0)
	assert.True(t, IsConfigError(err))
}
