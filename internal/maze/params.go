package maze

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	minSize = 2
	maxSize = 101

	// carving needs at least two lattice cells per axis
	minCarveSize = 3
)

type GenerationMode int8

const (
	DensityRejection GenerationMode = iota
	CarveBacktrack
)

func (m GenerationMode) String() string {
	switch m {
	case DensityRejection:
		return "density"
	case CarveBacktrack:
		return "carve"
	default:
		return "unknown"
	}
}

// [GenerationMode] implements [encoding.TextMarshaler]
func (m GenerationMode) MarshalText() ([]byte, error) {
	if m != DensityRejection && m != CarveBacktrack {
		return nil, ErrInvalidMode
	}
	return []byte(m.String()), nil
}

func (m *GenerationMode) UnmarshalText(text []byte) error {
	mode, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

func ParseMode(s string) (GenerationMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "density", "":
		return DensityRejection, nil
	case "carve", "backtrack":
		return CarveBacktrack, nil
	default:
		return 0, ErrInvalidMode
	}
}

type Difficulty struct {
	Size        int            `json:"size"`
	Mode        GenerationMode `json:"mode"`
	WallDensity float64        `json:"wall_density"`
	TimeLimit   int            `json:"time_limit"` // seconds, 0 means unlimited
}

var presets = map[string]Difficulty{
	"easy":      {Size: 8, Mode: DensityRejection, WallDensity: 0.15, TimeLimit: 60},
	"medium":    {Size: 12, Mode: DensityRejection, WallDensity: 0.25, TimeLimit: 90},
	"hard":      {Size: 16, Mode: DensityRejection, WallDensity: 0.30, TimeLimit: 120},
	"labyrinth": {Size: 15, Mode: CarveBacktrack, TimeLimit: 120},
}

func Preset(name string) (Difficulty, bool) {
	d, ok := presets[strings.ToLower(name)]
	return d, ok
}

func (d Difficulty) Unpack() (size int, mode GenerationMode, density float64, limit int) {
	return d.Size, d.Mode, d.WallDensity, d.TimeLimit
}

// Validate reports the first configuration problem as a *ConfigError.
func (d Difficulty) Validate() error {
	if d.Size < minSize || d.Size > maxSize {
		return &ConfigError{Field: "size", Err: ErrInvalidSize}
	}
	if math.IsNaN(d.WallDensity) || d.WallDensity < 0 || d.WallDensity >= 1 {
		return &ConfigError{Field: "wall_density", Err: ErrInvalidDensity}
	}
	if d.TimeLimit < 0 {
		return &ConfigError{Field: "time_limit", Err: ErrInvalidTimeLimit}
	}
	switch d.Mode {
	case DensityRejection:
		if d.WallCount() > len(wallCandidates(d.Size)) {
			return &ConfigError{Field: "wall_density", Err: ErrTooManyWalls}
		}
	case CarveBacktrack:
		if d.Size < minCarveSize {
			return &ConfigError{Field: "size", Err: ErrInvalidSize}
		}
	default:
		return &ConfigError{Field: "mode", Err: ErrInvalidMode}
	}
	return nil
}

// WallCount is the number of walls placed in DensityRejection mode.
func (d Difficulty) WallCount() int {
	return int(math.Floor(float64(d.Size*d.Size) * d.WallDensity))
}

func (d Difficulty) Endpoints() (start, goal Position) {
	start = Position{0, 0}
	last := d.Size - 1
	if d.Mode == CarveBacktrack {
		// goal must sit on the carving lattice (even coordinates)
		last -= last % 2
	}
	return start, Position{last, last}
}

func (d Difficulty) Seed() string {
	return fmt.Sprintf(
		"%d:%s:%s:%d",
		d.Size, d.Mode, strconv.FormatFloat(d.WallDensity, 'f', -1, 64), d.TimeLimit,
	)
}

func ParseSeed(seed string) (*Difficulty, error) {
	parts := strings.Split(seed, ":")
	if len(parts) != 4 {
		return nil, fmt.Errorf(`invalid difficulty seed "%s": want 4 parts, have %d`, seed, len(parts))
	}
	size, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil, fmt.Errorf(`invalid difficulty seed "%s": %w`, seed, err)
	}
	mode, err := ParseMode(parts[1])
	if err != nil {
		return nil, fmt.Errorf(`invalid difficulty seed "%s": %w`, seed, err)
	}
	density, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return nil, fmt.Errorf(`invalid difficulty seed "%s": %w`, seed, err)
	}
	limit, err := strconv.Atoi(parts[3])
	if err != nil {
		return nil, fmt.Errorf(`invalid difficulty seed "%s": %w`, seed, err)
	}
	return &Difficulty{Size: size, Mode: mode, WallDensity: density, TimeLimit: limit}, nil
}
