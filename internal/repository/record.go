package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrDuplicateRecord = errors.New("round is already recorded")

const defaultHighscoreLimit = 50

type Record struct {
	RecordId       int64     `json:"record_id" db:"record_id"`
	RoundId        uuid.UUID `json:"round_id" db:"round_id"`
	PlayerId       *int64    `json:"player_id,omitempty" db:"player_id"`
	Username       *string   `json:"username" db:"username"`
	Difficulty     string    `json:"difficulty" db:"difficulty"`
	Size           int       `json:"size" db:"size"`
	Mode           string    `json:"mode" db:"mode"`
	EndReason      string    `json:"end_reason" db:"end_reason"`
	Moves          int       `json:"moves" db:"moves"`
	OptimalMoves   int       `json:"optimal_moves" db:"optimal_moves"`
	Collisions     int       `json:"collisions" db:"collisions"`
	ElapsedSeconds int       `json:"elapsed_seconds" db:"elapsed_seconds"`
	Score          int       `json:"score" db:"score"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

type CreateRecordParams struct {
	RoundId        uuid.UUID
	PlayerId       *int64
	Username       *string
	Difficulty     string
	Size           int
	Mode           string
	EndReason      string
	Moves          int
	OptimalMoves   int
	Collisions     int
	ElapsedSeconds int
	Score          int
}

func (p CreateRecordParams) Args() pgx.NamedArgs {
	return pgx.NamedArgs{
		"round_id":        p.RoundId,
		"player_id":       p.PlayerId,
		"username":        p.Username,
		"difficulty":      p.Difficulty,
		"size":            p.Size,
		"mode":            p.Mode,
		"end_reason":      p.EndReason,
		"moves":           p.Moves,
		"optimal_moves":   p.OptimalMoves,
		"collisions":      p.Collisions,
		"elapsed_seconds": p.ElapsedSeconds,
		"score":           p.Score,
	}
}

// CreateRecord stores the result of a finished round. Storing the same round
// twice yields ErrDuplicateRecord.
func (q *Queries) CreateRecord(ctx context.Context, params CreateRecordParams) (*Record, error) {
	rows, _ := q.db.Query(
		ctx,
		`INSERT INTO record (
			round_id, player_id, username, difficulty, size, mode, end_reason,
			moves, optimal_moves, collisions, elapsed_seconds, score
		)
		VALUES (
			@round_id, @player_id, @username, @difficulty, @size, @mode, @end_reason,
			@moves, @optimal_moves, @collisions, @elapsed_seconds, @score
		)
		RETURNING *;`,
		params.Args(),
	)
	record, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[Record])
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
		return nil, ErrDuplicateRecord
	}
	return record, err
}

func (q *Queries) FetchRecord(ctx context.Context, roundId uuid.UUID) (*Record, error) {
	rows, _ := q.db.Query(
		ctx, "SELECT * FROM record WHERE round_id = $1", roundId,
	)
	return pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[Record])
}

type HighscoreFilter struct {
	Difficulty *string
	Username   *string
	Limit      int
}

func (f HighscoreFilter) WhereClause() (string, pgx.NamedArgs) {
	clauses := []string{"end_reason = @goal"}
	args := pgx.NamedArgs{"goal": "goal"}
	if f.Difficulty != nil {
		clauses = append(clauses, "difficulty = @difficulty")
		args["difficulty"] = *f.Difficulty
	}
	if f.Username != nil {
		clauses = append(clauses, "username = @username")
		args["username"] = *f.Username
	}
	return strings.Join(clauses, " AND "), args
}

// GetHighscores lists rounds that reached the goal, best score first and
// faster rounds first among equal scores.
func (q *Queries) GetHighscores(ctx context.Context, filter HighscoreFilter) ([]Record, error) {
	whereClause, args := filter.WhereClause()

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultHighscoreLimit
	}
	args["limit"] = limit

	rows, err := q.db.Query(
		ctx,
		"SELECT * FROM record WHERE "+whereClause+
			" ORDER BY score DESC, elapsed_seconds, created_at LIMIT @limit;",
		args,
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[Record])
}
