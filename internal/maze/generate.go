package maze

// RNG is the only source of randomness used by generation. *rand.Rand from
// math/rand/v2 satisfies it.
type RNG interface {
	IntN(n int) int
}

// Candidate is a generated grid with its declared endpoints. It has not
// been checked for connectivity yet.
type Candidate struct {
	Grid  *Grid
	Start Position
	Goal  Position
}

func Generate(d Difficulty, r RNG) (*Candidate, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d.generate(r), nil
}

func (d Difficulty) generate(r RNG) *Candidate {
	start, goal := d.Endpoints()
	var grid *Grid
	switch d.Mode {
	case CarveBacktrack:
		grid = carveGrid(d.Size, start, r)
	default:
		grid = scatterWalls(d.Size, d.WallCount(), r)
	}
	return &Candidate{Grid: grid, Start: start, Goal: goal}
}

// wallCandidates lists the indices of every cell further than one square
// (in any direction, diagonals included) from both corners.
func wallCandidates(size int) []int {
	last := size - 1
	candidates := make([]int, 0, size*size)
	for y := range size {
		for x := range size {
			nearStart := chebyshev(x, y, 0, 0) <= 1
			nearGoal := chebyshev(x, y, last, last) <= 1
			if !nearStart && !nearGoal {
				candidates = append(candidates, y*size+x)
			}
		}
	}
	return candidates
}

// panics if walls exceeds the number of candidates; Validate rules that out
func scatterWalls(size, walls int, r RNG) *Grid {
	grid := newGrid(size, Open)

	/*
	 * Pick the walls off the candidate list at random, swapping each
	 * chosen entry with the last live one so no cell is drawn twice.
	 */
	candidates := wallCandidates(size)
	k := len(candidates)
	for range walls {
		i := r.IntN(k)
		grid.cells[candidates[i]] = Wall
		k--
		candidates[i] = candidates[k]
	}

	return grid
}

// carveGrid runs the randomized depth-first backtracker on the lattice of
// even coordinates, opening the wall cell between each pair it links. The
// stack is explicit so depth does not depend on the goroutine stack.
func carveGrid(size int, start Position, r RNG) *Grid {
	grid := newGrid(size, Wall)
	visited := make([]bool, size*size)

	visited[grid.index(start.X, start.Y)] = true
	grid.cells[grid.index(start.X, start.Y)] = Open
	stack := []Position{start}

	var options [len(canonicalOrder)]Position
	for len(stack) > 0 {
		cur := stack[len(stack)-1]

		n := 0
		for _, step := range canonicalOrder {
			next := Position{cur.X + 2*step.X, cur.Y + 2*step.Y}
			if grid.InBounds(next.X, next.Y) && !visited[grid.index(next.X, next.Y)] {
				options[n] = next
				n++
			}
		}

		if n == 0 {
			stack = stack[:len(stack)-1]
			continue
		}

		next := options[r.IntN(n)]
		between := Position{(cur.X + next.X) / 2, (cur.Y + next.Y) / 2}
		grid.cells[grid.index(between.X, between.Y)] = Open
		grid.cells[grid.index(next.X, next.Y)] = Open
		visited[grid.index(next.X, next.Y)] = true
		stack = append(stack, next)
	}

	return grid
}
