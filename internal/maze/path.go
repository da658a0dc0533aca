package maze

import (
	"fmt"
	"strings"
)

type Direction int8

const (
	Up Direction = iota
	Right
	Down
	Left
)

// canonicalOrder is indexed by Direction and fixes the BFS expansion order.
var canonicalOrder = [4]Position{
	Up:    {0, -1},
	Right: {1, 0},
	Down:  {0, 1},
	Left:  {-1, 0},
}

func (d Direction) Valid() bool {
	return Up <= d && d <= Left
}

func (d Direction) Delta() (dx, dy int) {
	step := canonicalOrder[d]
	return step.X, step.Y
}

func (d Direction) From(p Position) Position {
	dx, dy := d.Delta()
	return Position{p.X + dx, p.Y + dy}
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Right:
		return "right"
	case Down:
		return "down"
	case Left:
		return "left"
	default:
		return "unknown"
	}
}

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "u", "n", "north":
		return Up, nil
	case "right", "r", "e", "east":
		return Right, nil
	case "down", "d", "s", "south":
		return Down, nil
	case "left", "l", "w", "west":
		return Left, nil
	default:
		return 0, fmt.Errorf(`unknown direction "%s"`, s)
	}
}

func (d *Direction) UnmarshalText(text []byte) error {
	dir, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = dir
	return nil
}

// search runs a breadth-first search over 4-connected open cells starting at
// an open cell and returns the parent index of every reached cell (-1 where
// unreached, the cell's own index at the source). It stops once dst is
// dequeued; a negative dst explores the whole component.
func search(g *Grid, from Position, dst int) (parent []int, found bool) {
	parent = make([]int, len(g.cells))
	for i := range parent {
		parent[i] = -1
	}

	src := g.index(from.X, from.Y)
	parent[src] = src
	queue := make([]int, 0, len(g.cells))
	queue = append(queue, src)

	for head := 0; head < len(queue); head++ {
		cur := queue[head]
		if cur == dst {
			return parent, true
		}
		x, y := cur%g.size, cur/g.size
		for _, step := range canonicalOrder {
			nx, ny := x+step.X, y+step.Y
			if !g.IsOpen(nx, ny) {
				continue
			}
			next := g.index(nx, ny)
			if parent[next] >= 0 {
				continue
			}
			parent[next] = cur
			queue = append(queue, next)
		}
	}

	return parent, false
}

// ShortestPath returns the number of moves on a shortest path between two
// cells, or false when either cell is blocked or no path exists.
func ShortestPath(g *Grid, from, to Position) (int, bool) {
	route, ok := ShortestRoute(g, from, to)
	if !ok {
		return 0, false
	}
	return len(route) - 1, true
}

// ShortestRoute returns the cells of the shortest path found with the
// canonical neighbour order, endpoints included.
func ShortestRoute(g *Grid, from, to Position) ([]Position, bool) {
	if !g.OpenAt(from) || !g.OpenAt(to) {
		return nil, false
	}
	parent, found := search(g, from, g.index(to.X, to.Y))
	if !found {
		return nil, false
	}

	var reversed []Position
	for i := g.index(to.X, to.Y); ; i = parent[i] {
		reversed = append(reversed, Position{i % g.size, i / g.size})
		if parent[i] == i {
			break
		}
	}

	route := make([]Position, len(reversed))
	for i, p := range reversed {
		route[len(reversed)-1-i] = p
	}
	return route, true
}

// Reachable counts the open cells connected to p.
func Reachable(g *Grid, p Position) int {
	if !g.OpenAt(p) {
		return 0
	}
	parent, _ := search(g, p, -1)
	count := 0
	for _, v := range parent {
		if v >= 0 {
			count++
		}
	}
	return count
}
