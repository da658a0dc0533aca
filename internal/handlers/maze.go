package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/vancomm/maze-server/internal/game"
	"github.com/vancomm/maze-server/internal/maze"
	"github.com/vancomm/maze-server/internal/middleware"
	"github.com/vancomm/maze-server/internal/registry"
	"github.com/vancomm/maze-server/internal/repository"
)

const recordTimeout = 5 * time.Second

var (
	ErrForbidden       = errors.New("round belongs to another player")
	ErrRecordsDisabled = errors.New("records are not available")
)

type RecordStore interface {
	CreateRecord(context.Context, repository.CreateRecordParams) (*repository.Record, error)
	GetHighscores(context.Context, repository.HighscoreFilter) ([]repository.Record, error)
}

type MazeHandler struct {
	log      logrus.FieldLogger
	rounds   *registry.Registry
	records  RecordStore
	upgrader websocket.Upgrader
	tick     time.Duration
	started  time.Time
	now      func() time.Time
}

// NewMazeHandler serves rounds from the registry. records may be nil, in
// which case finished rounds are not stored.
func NewMazeHandler(
	log logrus.FieldLogger,
	rounds *registry.Registry,
	records RecordStore,
	tick time.Duration,
) *MazeHandler {
	h := &MazeHandler{
		log:     log,
		rounds:  rounds,
		records: records,
		tick:    tick,
		started: time.Now(),
		now:     time.Now,
	}
	h.upgrader.CheckOrigin = func(r *http.Request) bool {
		return true
	}
	return h
}

func (h *MazeHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/maze", h.NewMaze)
	mux.HandleFunc("GET /v1/maze/{id}", h.Fetch)
	mux.HandleFunc("GET /v1/maze/{id}/route", h.Route)
	mux.HandleFunc("POST /v1/maze/{id}/start", h.Start)
	mux.HandleFunc("POST /v1/maze/{id}/move", h.Move)
	mux.HandleFunc("POST /v1/maze/{id}/tick", h.Tick)
	mux.HandleFunc("DELETE /v1/maze/{id}", h.Discard)
	mux.HandleFunc("GET /v1/maze/{id}/connect", h.Connect)
	mux.HandleFunc("GET /v1/records", h.Records)
	mux.HandleFunc("GET /v1/status", h.Status)
}

func ownerFrom(r *http.Request) *registry.Owner {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		return nil
	}
	return &registry.Owner{PlayerId: claims.PlayerId, Username: claims.Username}
}

// round resolves the {id} path value and checks that the caller may play it.
// It writes the error response itself.
func (h *MazeHandler) round(w http.ResponseWriter, r *http.Request) (*registry.Round, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		sendError(w, h.log, http.StatusBadRequest, fmt.Errorf("invalid round id: %w", err))
		return nil, false
	}
	round, err := h.rounds.Get(id)
	if err != nil {
		sendError(w, h.log, http.StatusNotFound, err)
		return nil, false
	}
	if round.Owner != nil {
		caller := ownerFrom(r)
		if caller == nil || caller.PlayerId != round.Owner.PlayerId {
			sendError(w, h.log, http.StatusForbidden, ErrForbidden)
			return nil, false
		}
	}
	return round, true
}

func (h *MazeHandler) NewMaze(w http.ResponseWriter, r *http.Request) {
	d, err := ParseNewMazeParams(r.URL.Query())
	if err != nil {
		sendError(w, h.log, http.StatusBadRequest, err)
		return
	}

	round, err := h.rounds.Create(d, ownerFrom(r))
	if maze.IsConfigError(err) {
		h.log.WithError(err).WithField("difficulty", d.Seed()).Warn("unable to build maze")
		sendError(w, h.log, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		h.log.WithError(err).Error("unable to create round")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	sendStatusJSON(w, h.log, http.StatusCreated, NewRoundDTO(round, round.Snapshot()))
}

func (h *MazeHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	round, ok := h.round(w, r)
	if !ok {
		return
	}
	sendJSONOrLog(w, h.log, NewRoundDTO(round, round.Snapshot()))
}

func (h *MazeHandler) Route(w http.ResponseWriter, r *http.Request) {
	round, ok := h.round(w, r)
	if !ok {
		return
	}
	m := round.Maze()
	sendJSONOrLog(w, h.log, RouteDTO{
		RoundId:      round.ID,
		OptimalMoves: m.OptimalMoves(),
		Route:        m.Route(),
	})
}

func (h *MazeHandler) Start(w http.ResponseWriter, r *http.Request) {
	round, ok := h.round(w, r)
	if !ok {
		return
	}
	snap, _ := round.Update(h.now(), func(s *game.Session) { s.Start() })
	sendJSONOrLog(w, h.log, h.state(round, snap, ""))
}

func (h *MazeHandler) Move(w http.ResponseWriter, r *http.Request) {
	var params MoveParams
	if err := decodeQuery(&params, r.URL.Query()); err != nil {
		sendError(w, h.log, http.StatusBadRequest, err)
		return
	}
	round, ok := h.round(w, r)
	if !ok {
		return
	}

	var result game.MoveResult
	snap, finished := round.Update(h.now(), func(s *game.Session) {
		result = s.ApplyMove(params.Dir)
	})
	if finished {
		h.record(r.Context(), round, snap)
	}
	sendJSONOrLog(w, h.log, h.state(round, snap, result.String()))
}

func (h *MazeHandler) Tick(w http.ResponseWriter, r *http.Request) {
	delta, err := ParseTickParams(r.URL.Query())
	if err != nil {
		sendError(w, h.log, http.StatusBadRequest, err)
		return
	}
	round, ok := h.round(w, r)
	if !ok {
		return
	}

	snap, finished := round.Update(h.now(), func(s *game.Session) { s.Tick(delta) })
	if finished {
		h.record(r.Context(), round, snap)
	}
	sendJSONOrLog(w, h.log, h.state(round, snap, ""))
}

func (h *MazeHandler) Discard(w http.ResponseWriter, r *http.Request) {
	round, ok := h.round(w, r)
	if !ok {
		return
	}
	if err := h.rounds.Delete(round.ID); err != nil {
		sendError(w, h.log, http.StatusNotFound, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MazeHandler) Records(w http.ResponseWriter, r *http.Request) {
	if h.records == nil {
		sendError(w, h.log, http.StatusServiceUnavailable, ErrRecordsDisabled)
		return
	}

	var params RecordsParams
	if err := decodeQuery(&params, r.URL.Query()); err != nil {
		sendError(w, h.log, http.StatusBadRequest, err)
		return
	}

	filter := repository.HighscoreFilter{Limit: params.Limit}
	switch {
	case params.Preset != "":
		d, ok := maze.Preset(params.Preset)
		if !ok {
			sendError(w, h.log, http.StatusBadRequest, fmt.Errorf(`unknown preset "%s"`, params.Preset))
			return
		}
		seed := d.Seed()
		filter.Difficulty = &seed
	case params.Difficulty != "":
		d, err := maze.ParseSeed(params.Difficulty)
		if err != nil {
			sendError(w, h.log, http.StatusBadRequest, err)
			return
		}
		seed := d.Seed()
		filter.Difficulty = &seed
	}
	if params.Username != "" {
		filter.Username = &params.Username
	}

	scores, err := h.records.GetHighscores(r.Context(), filter)
	if err != nil {
		h.log.WithError(err).Error("unable to fetch highscores")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if scores == nil {
		scores = []repository.Record{}
	}
	sendJSONOrLog(w, h.log, scores)
}

func (h *MazeHandler) Status(w http.ResponseWriter, r *http.Request) {
	sendJSONOrLog(w, h.log, map[string]any{
		"status":         "ok",
		"live_rounds":    h.rounds.Len(),
		"records":        h.records != nil,
		"uptime_seconds": int(h.now().Sub(h.started).Seconds()),
	})
}

func (h *MazeHandler) state(round *registry.Round, snap game.Snapshot, result string) StateDTO {
	return StateDTO{
		RoundId: round.ID,
		Result:  result,
		Session: snap,
		Score:   scoreOf(round.Maze(), snap),
	}
}

// record stores a finished round. It outlives the request that finished the
// round so a client hanging up does not lose the result.
func (h *MazeHandler) record(ctx context.Context, round *registry.Round, snap game.Snapshot) {
	if h.records == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	m := round.Maze()
	d := m.Difficulty()
	params := repository.CreateRecordParams{
		RoundId:        round.ID,
		Difficulty:     d.Seed(),
		Size:           d.Size,
		Mode:           d.Mode.String(),
		EndReason:      snap.EndReason.String(),
		Moves:          snap.Moves,
		OptimalMoves:   m.OptimalMoves(),
		Collisions:     snap.Collisions,
		ElapsedSeconds: snap.Elapsed,
		Score:          scoreOf(m, snap),
	}
	if round.Owner != nil {
		params.PlayerId = &round.Owner.PlayerId
		params.Username = &round.Owner.Username
	}

	log := h.log.WithFields(logrus.Fields{
		"round":  round.ID,
		"reason": params.EndReason,
		"score":  params.Score,
	})
	_, err := h.records.CreateRecord(ctx, params)
	switch {
	case errors.Is(err, repository.ErrDuplicateRecord):
		log.Debug("round already recorded")
	case err != nil:
		log.WithError(err).Error("unable to store record")
	default:
		log.Info("round recorded")
	}
}

func executeCommand(s *game.Session, c string) (game.MoveResult, bool, error) {
	switch c = strings.TrimSpace(c); c {
	case "", "g":
		return game.Ignored, false, nil
	case "s":
		s.Start()
		return game.Ignored, false, nil
	}
	dir, err := maze.ParseDirection(c)
	if err != nil {
		return game.Ignored, false, fmt.Errorf(`unknown command "%s"`, c)
	}
	return s.ApplyMove(dir), true, nil
}
