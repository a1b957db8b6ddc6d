package mines

import (
	"fmt"
	"strings"
)

type GameParams struct {
	Width, Height, MineCount int
}

func (p GameParams) Unpack() (w int, h int, mc int) {
	return p.Width, p.Height, p.MineCount
}

func (p GameParams) Cells() int {
	return p.Width * p.Height
}

// Validate checks that the grid is non-empty and that at least one cell is
// left free of mines.
func (p GameParams) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return NewConfigurationError(
			"invalid board size %dx%d", p.Width, p.Height,
		)
	}
	if p.MineCount < 0 || p.MineCount >= p.Cells() {
		return NewConfigurationError(
			"mine count must be in [0, %d), got %d", p.Cells(), p.MineCount,
		)
	}
	return nil
}

func (p GameParams) InBounds(x, y int) bool {
	return 0 <= x && x < p.Width && 0 <= y && y < p.Height
}

func (p GameParams) Seed() string {
	return fmt.Sprintf("%d:%d:%d", p.Width, p.Height, p.MineCount)
}

func ParseSeed(seed string) (*GameParams, error) {
	p := &GameParams{}
	sseed := strings.ReplaceAll(seed, ":", " ")
	n, err := fmt.Sscanf(sseed, "%d %d %d", &p.Width, &p.Height, &p.MineCount)
	if n != 3 || err != nil {
		return nil, fmt.Errorf(
			`invalid game params seed (sseed = "%s", n = %d, err = %w)`,
			sseed, n, err,
		)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}
