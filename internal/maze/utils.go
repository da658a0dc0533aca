package maze

import "github.com/sirupsen/logrus"

var Log = logrus.New()

func absDiff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}

func chebyshev(x1, y1, x2, y2 int) int {
	return max(absDiff(x1, x2), absDiff(y1, y2))
}

func manhattan(a, b Position) int {
	return absDiff(a.X, b.X) + absDiff(a.Y, b.Y)
}
