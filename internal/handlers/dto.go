package handlers

import (
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/schema"
	"github.com/vancomm/maze-server/internal/game"
	"github.com/vancomm/maze-server/internal/maze"
	"github.com/vancomm/maze-server/internal/registry"
)

var decoder = newDecoder()

func newDecoder() *schema.Decoder {
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)
	return dec
}

func decodeQuery(dst any, query url.Values) error {
	return decoder.Decode(dst, query)
}

// NewMazeParams selects a difficulty either by preset name or field by field.
type NewMazeParams struct {
	Preset    string              `schema:"preset"`
	Size      int                 `schema:"size"`
	Mode      maze.GenerationMode `schema:"mode"`
	Density   float64             `schema:"density"`
	TimeLimit int                 `schema:"time_limit"`
}

func ParseNewMazeParams(query url.Values) (maze.Difficulty, error) {
	var params NewMazeParams
	if err := decodeQuery(&params, query); err != nil {
		return maze.Difficulty{}, err
	}
	return params.Difficulty()
}

func (p NewMazeParams) Difficulty() (maze.Difficulty, error) {
	if p.Preset != "" {
		d, ok := maze.Preset(p.Preset)
		if !ok {
			return maze.Difficulty{}, fmt.Errorf(`unknown preset "%s"`, p.Preset)
		}
		return d, nil
	}
	d := maze.Difficulty{
		Size:        p.Size,
		Mode:        p.Mode,
		WallDensity: p.Density,
		TimeLimit:   p.TimeLimit,
	}
	return d, d.Validate()
}

type MoveParams struct {
	Dir maze.Direction `schema:"dir,required"`
}

// maxTickDelta bounds one manual clock advance to a day.
const maxTickDelta = 24 * 60 * 60

type TickParams struct {
	Delta int `schema:"delta"`
}

func ParseTickParams(query url.Values) (int, error) {
	params := TickParams{Delta: 1}
	if err := decodeQuery(&params, query); err != nil {
		return 0, err
	}
	if params.Delta < 0 || params.Delta > maxTickDelta {
		return 0, fmt.Errorf("delta must be within [0, %d], have %d", maxTickDelta, params.Delta)
	}
	return params.Delta, nil
}

type RecordsParams struct {
	Preset     string `schema:"preset"`
	Difficulty string `schema:"difficulty"`
	Username   string `schema:"username"`
	Limit      int    `schema:"limit"`
}

type RoundDTO struct {
	RoundId   uuid.UUID     `json:"round_id"`
	CreatedAt time.Time     `json:"created_at"`
	Seed      string        `json:"difficulty"`
	Maze      *maze.Maze    `json:"maze"`
	Session   game.Snapshot `json:"session"`
	Score     int           `json:"score"`
	Username  *string       `json:"username,omitempty"`
}

func NewRoundDTO(round *registry.Round, snap game.Snapshot) RoundDTO {
	m := round.Maze()
	dto := RoundDTO{
		RoundId:   round.ID,
		CreatedAt: round.CreatedAt,
		Seed:      m.Difficulty().Seed(),
		Maze:      m,
		Session:   snap,
		Score:     scoreOf(m, snap),
	}
	if round.Owner != nil {
		dto.Username = &round.Owner.Username
	}
	return dto
}

// StateDTO is what the websocket pushes after every command and tick.
type StateDTO struct {
	RoundId uuid.UUID     `json:"round_id"`
	Result  string        `json:"result,omitempty"`
	Session game.Snapshot `json:"session"`
	Score   int           `json:"score"`
}

type RouteDTO struct {
	RoundId      uuid.UUID       `json:"round_id"`
	OptimalMoves int             `json:"optimal_moves"`
	Route        []maze.Position `json:"route"`
}

func scoreOf(m *maze.Maze, snap game.Snapshot) int {
	return game.Score(snap, m.OptimalMoves(), snap.TimeLimit, game.RulesFor(m.Difficulty().Mode))
}
