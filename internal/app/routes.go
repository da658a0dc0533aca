package app

import (
	"hash/maphash"
	"math/rand/v2"

	"github.com/vancomm/maze-server/internal/handlers"
)

func createRand() *rand.Rand {
	return rand.New(rand.NewPCG(
		new(maphash.Hash).Sum64(), new(maphash.Hash).Sum64(),
	))
}

func (a *App) loadRoutes(records handlers.RecordStore) {
	mazes := handlers.NewMazeHandler(
		a.log, a.rounds, records, a.config.TickInterval.Duration,
	)
	mazes.Register(a.router)
}
