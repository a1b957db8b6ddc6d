// Package render draws boards for terminals.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/logrusorgru/aurora"

	"github.com/vancomm/minesweeper-qlearning/internal/env"
	"github.com/vancomm/minesweeper-qlearning/internal/mines"
	"github.com/vancomm/minesweeper-qlearning/internal/qlearn"
)

type Renderer struct {
	au aurora.Aurora
}

func New(colors bool) *Renderer {
	return &Renderer{au: aurora.NewAurora(colors)}
}

func (r *Renderer) cell(cs mines.CellState) string {
	switch cs {
	case mines.Hidden:
		return r.au.Gray(12, "#").String()
	case mines.Flagged:
		return r.au.Yellow("F").Bold().String()
	case mines.ExposedMine:
		return r.au.Red("*").Bold().String()
	case 0:
		return r.au.Faint("0").String()
	case 1:
		return r.au.Blue("1").String()
	case 2:
		return r.au.Green("2").String()
	case 3:
		return r.au.Red("3").String()
	default:
		return r.au.Magenta(cs.String()).String()
	}
}

// Grid writes grid one row per line, x growing to the right.
func (r *Renderer) Grid(w io.Writer, grid mines.Grid, width, height int) error {
	if len(grid) != width*height {
		return mines.NewConfigurationError(
			"grid has %d cells, want %dx%d", len(grid), width, height,
		)
	}
	var sb strings.Builder
	for y := range height {
		for x := range width {
			if x > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(r.cell(grid[x*height+y]))
		}
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func (r *Renderer) State(w io.Writer, s env.State, width, height int) error {
	grid, err := s.Grid()
	if err != nil {
		return err
	}
	return r.Grid(w, grid, width, height)
}

// Board draws the board with every mine exposed, as seen after the game.
func (r *Renderer) Board(w io.Writer, b *mines.Board) error {
	grid := b.PlayerGrid()
	for _, p := range b.Mines() {
		grid[p.X*b.Height+p.Y] = mines.ExposedMine
	}
	return r.Grid(w, grid, b.Width, b.Height)
}

// Step writes a one line summary of rec followed by the resulting state.
func (r *Renderer) Step(w io.Writer, rec qlearn.StepRecord, width, height int) error {
	reward := r.au.Green(fmt.Sprintf("%+g", rec.Outcome.Reward))
	if rec.Outcome.Reward < 0 {
		reward = r.au.Red(fmt.Sprintf("%+g", rec.Outcome.Reward))
	}
	if _, err := fmt.Fprintf(w, "step %d: %s q=%.2f reward=%s event=%s\n",
		rec.Step+1, r.au.Bold(rec.Action), rec.Value, reward, rec.Outcome.Info.Event,
	); err != nil {
		return err
	}
	return r.State(w, rec.Outcome.State, width, height)
}

// Result writes the final verdict of a game.
func (r *Renderer) Result(w io.Writer, won bool, steps int) error {
	verdict := r.au.Red("lost")
	if won {
		verdict = r.au.Green("won")
	}
	_, err := fmt.Fprintf(w, "%s after %d steps\n", verdict.Bold(), steps)
	return err
}
