package maze

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		d    Difficulty
		err  error
	}{
		{name: "easy", d: Difficulty{Size: 8, WallDensity: 0.15, TimeLimit: 60}},
		{name: "smallest density", d: Difficulty{Size: 2}},
		{name: "smallest carve", d: Difficulty{Size: 3, Mode: CarveBacktrack}},
		{name: "size 1", d: Difficulty{Size: 1}, err: ErrInvalidSize},
		{name: "size 0", d: Difficulty{Size: 0}, err: ErrInvalidSize},
		{name: "too large", d: Difficulty{Size: maxSize + 1}, err: ErrInvalidSize},
		{name: "carve size 2", d: Difficulty{Size: 2, Mode: CarveBacktrack}, err: ErrInvalidSize},
		{name: "negative density", d: Difficulty{Size: 8, WallDensity: -0.1}, err: ErrInvalidDensity},
		{name: "density one", d: Difficulty{Size: 8, WallDensity: 1}, err: ErrInvalidDensity},
		{name: "crowded", d: Difficulty{Size: 4, WallDensity: 0.9}, err: ErrTooManyWalls},
		{name: "negative limit", d: Difficulty{Size: 8, TimeLimit: -1}, err: ErrInvalidTimeLimit},
		{name: "unknown mode", d: Difficulty{Size: 8, Mode: 9}, err: ErrInvalidMode},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.d.Validate()
			if test.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, test.err)
			assert.True(t, IsConfigError(err))
		})
	}
}

func TestSeed(t *testing.T) {
	d := Difficulty{Size: 12, Mode: CarveBacktrack, WallDensity: 0.25, TimeLimit: 90}
	assert.Equal(t, "12:carve:0.25:90", d.Seed())

	parsed, err := ParseSeed(d.Seed())
	require.NoError(t, err)
	assert.Equal(t, d, *parsed)

	for _, bad := range []string{"", "12:carve:0.25", "x:carve:0.25:90", "12:spiral:0.25:90", "12:carve:y:90", "12:carve:0.25:z"} {
		_, err := ParseSeed(bad)
		assert.Error(t, err, bad)
	}
}

func TestPresetsAreValid(t *testing.T) {
	for name, d := range presets {
		assert.NoError(t, d.Validate(), name)
	}
	_, ok := Preset("impossible")
	assert.False(t, ok)
}

func TestEndpoints(t *testing.T) {
	start, goal := Difficulty{Size: 8}.Endpoints()
	assert.Equal(t, Position{0, 0}, start)
	assert.Equal(t, Position{7, 7}, goal)

	_, goal = Difficulty{Size: 9, Mode: CarveBacktrack}.Endpoints()
	assert.Equal(t, Position{8, 8}, goal)

	_, goal = Difficulty{Size: 8, Mode: CarveBacktrack}.Endpoints()
	assert.Equal(t, Position{6, 6}, goal)
}

func TestScatterWallsKeepsEndpointsClear(t *testing.T) {
	t.Parallel()

	d := Difficulty{Size: 8, WallDensity: 0.5}
	r := rand.New(rand.NewPCG(1, 2))
	start, goal := d.Endpoints()

	for range 100 {
		c, err := Generate(d, r)
		require.NoError(t, err)
		assert.Equal(t, start, c.Start)
		assert.Equal(t, goal, c.Goal)
		assert.Equal(t, d.WallCount(), c.Grid.Walls())

		for y := range d.Size {
			for x := range d.Size {
				if chebyshev(x, y, start.X, start.Y) <= 1 || chebyshev(x, y, goal.X, goal.Y) <= 1 {
					require.True(t, c.Grid.IsOpen(x, y), "wall next to an endpoint at %d,%d", x, y)
				}
			}
		}
	}
}

func TestGenerationIsReproducible(t *testing.T) {
	for _, d := range []Difficulty{
		{Size: 12, WallDensity: 0.3},
		{Size: 11, Mode: CarveBacktrack},
	} {
		a, err := Generate(d, rand.New(rand.NewPCG(7, 7)))
		require.NoError(t, err)
		b, err := Generate(d, rand.New(rand.NewPCG(7, 7)))
		require.NoError(t, err)
		assert.Equal(t, a.Grid.Rows(), b.Grid.Rows())
	}
}

// adjacentOpenPairs counts edges of the 4-connected open-cell graph.
func adjacentOpenPairs(g *Grid) (edges int) {
	for y := range g.Size() {
		for x := range g.Size() {
			if !g.IsOpen(x, y) {
				continue
			}
			if g.IsOpen(x+1, y) {
				edges++
			}
			if g.IsOpen(x, y+1) {
				edges++
			}
		}
	}
	return
}

func openCells(g *Grid) int {
	return g.Size()*g.Size() - g.Walls()
}

func TestCarveProducesPerfectMaze(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		size int
		open int
	}{
		{name: "9x9", size: 9, open: 25 + 24},
		{name: "15x15", size: 15, open: 64 + 63},
		{name: "8x8", size: 8, open: 16 + 15},
		{name: "3x3", size: 3, open: 4 + 3},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			d := Difficulty{Size: test.size, Mode: CarveBacktrack}
			r := rand.New(rand.NewPCG(1, 2))
			for range 50 {
				c, err := Generate(d, r)
				require.NoError(t, err)
				g := c.Grid

				// connected with exactly n-1 edges: a spanning tree, so one
				// simple path joins any two open cells
				require.Equal(t, test.open, openCells(g))
				require.Equal(t, test.open, Reachable(g, c.Start))
				require.Equal(t, test.open-1, adjacentOpenPairs(g))

				_, ok := ShortestPath(g, c.Start, c.Goal)
				require.True(t, ok)
			}
		})
	}
}

func TestCarveEvenSizeLeavesBorderWalled(t *testing.T) {
	c, err := Generate(Difficulty{Size: 8, Mode: CarveBacktrack}, rand.New(rand.NewPCG(3, 4)))
	require.NoError(t, err)
	for i := range 8 {
		assert.Equal(t, Wall, c.Grid.CellAt(7, i))
		assert.Equal(t, Wall, c.Grid.CellAt(i, 7))
	}
}

func TestGenerateRejectsInvalidDifficulty(t *testing.T) {
	c, err := Generate(Difficulty{Size: 1}, rand.New(rand.NewPCG(1, 2)))
	assert.Nil(t, c)
	assert.True(t, IsConfigError(err))
}
