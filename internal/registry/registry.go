// Package registry keeps the rounds currently being played. A round pairs a
// maze with the single session playing it; the engine itself is not safe
// for concurrent use, so every access to a session goes through its round's
// lock.
package registry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vancomm/maze-server/internal/game"
	"github.com/vancomm/maze-server/internal/maze"
)

var Log = logrus.New()

var ErrNotFound = errors.New("round not found")

type Owner struct {
	PlayerId int64
	Username string
}

type Round struct {
	ID        uuid.UUID
	Owner     *Owner
	CreatedAt time.Time

	maze     *maze.Maze
	session  *game.Session
	lastSeen time.Time
	recorded bool
	sync.Mutex
}

func (r *Round) Maze() *maze.Maze {
	return r.maze
}

// Update runs fn on the session with the round locked. finished is true only
// for the first call that observes the session in Finished, so the caller
// stores the result exactly once. A round keeps one record even if it is
// restarted afterwards; only its first finish counts.
func (r *Round) Update(now time.Time, fn func(s *game.Session)) (snap game.Snapshot, finished bool) {
	r.Lock()
	defer r.Unlock()

	r.lastSeen = now
	fn(r.session)
	snap = r.session.Snapshot()

	if r.session.Status() == game.Finished && !r.recorded {
		r.recorded = true
		finished = true
	}
	return snap, finished
}

func (r *Round) Snapshot() game.Snapshot {
	r.Lock()
	defer r.Unlock()
	return r.session.Snapshot()
}

func (r *Round) idleSince(now time.Time) time.Duration {
	r.Lock()
	defer r.Unlock()
	return now.Sub(r.lastSeen)
}

type Registry struct {
	rounds  map[uuid.UUID]*Round
	factory *maze.Factory
	genMu   sync.Mutex // guards factory and its RNG
	now     func() time.Time
	sync.RWMutex
}

func New(factory *maze.Factory) *Registry {
	return &Registry{
		rounds:  make(map[uuid.UUID]*Round),
		factory: factory,
		now:     time.Now,
	}
}

// Create builds a maze for d and registers a new round in Ready. Maze
// configuration errors are returned unchanged.
func (reg *Registry) Create(d maze.Difficulty, owner *Owner) (*Round, error) {
	reg.genMu.Lock()
	m, err := reg.factory.Build(d)
	reg.genMu.Unlock()
	if err != nil {
		return nil, err
	}

	now := reg.now()
	round := &Round{
		ID:        uuid.New(),
		Owner:     owner,
		CreatedAt: now,
		maze:      m,
		session:   game.NewSession(m, -1),
		lastSeen:  now,
	}

	reg.Lock()
	for {
		if _, ok := reg.rounds[round.ID]; !ok {
			break
		}
		round.ID = uuid.New()
	}
	reg.rounds[round.ID] = round
	reg.Unlock()

	Log.WithFields(logrus.Fields{
		"round":      round.ID,
		"difficulty": d.Seed(),
		"attempts":   m.Attempts(),
		"optimal":    m.OptimalMoves(),
	}).Debug("round created")

	return round, nil
}

func (reg *Registry) Get(id uuid.UUID) (*Round, error) {
	reg.RLock()
	defer reg.RUnlock()
	round, ok := reg.rounds[id]
	if !ok {
		return nil, ErrNotFound
	}
	return round, nil
}

func (reg *Registry) Delete(id uuid.UUID) error {
	reg.Lock()
	defer reg.Unlock()
	if _, ok := reg.rounds[id]; !ok {
		return ErrNotFound
	}
	delete(reg.rounds, id)
	return nil
}

func (reg *Registry) Len() int {
	reg.RLock()
	defer reg.RUnlock()
	return len(reg.rounds)
}

// Reap discards rounds nobody has touched for longer than ttl.
func (reg *Registry) Reap(ttl time.Duration) int {
	now := reg.now()

	reg.Lock()
	defer reg.Unlock()

	reaped := 0
	for id, round := range reg.rounds {
		if round.idleSince(now) > ttl {
			delete(reg.rounds, id)
			reaped++
		}
	}
	if reaped > 0 {
		Log.WithFields(logrus.Fields{
			"reaped": reaped,
			"live":   len(reg.rounds),
		}).Info("reaped idle rounds")
	}
	return reaped
}

// RunReaper calls Reap every interval until ctx is done.
func (reg *Registry) RunReaper(ctx context.Context, ttl, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			reg.Reap(ttl)
		}
	}
}
