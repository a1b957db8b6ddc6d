// Package report turns training statistics into HTML charts.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/vancomm/minesweeper-qlearning/internal/qlearn"
)

// Point summarises one window of consecutive episodes.
type Point struct {
	Episode int     `json:"episode"` /* last episode of the window, 1-based */
	Reward  float64 `json:"reward"`
	Steps   float64 `json:"steps"`
	WinRate float64 `json:"win_rate"`
	Epsilon float64 `json:"epsilon"`
}

// Curve averages episode statistics over fixed windows.
type Curve struct {
	window int
	points []Point

	n       int
	reward  float64
	steps   int
	wins    int
	epsilon float64
	last    int
}

func NewCurve(window int) *Curve {
	if window < 1 {
		window = 1
	}
	return &Curve{window: window}
}

// Add has the signature of the Trainer's episode callback.
func (c *Curve) Add(s qlearn.EpisodeStats) {
	c.n++
	c.reward += s.Reward
	c.steps += s.Steps
	if s.Won {
		c.wins++
	}
	c.epsilon = s.Epsilon
	c.last = s.Episode + 1
	if c.n == c.window {
		c.flush()
	}
}

func (c *Curve) flush() {
	if c.n == 0 {
		return
	}
	n := float64(c.n)
	c.points = append(c.points, Point{
		Episode: c.last,
		Reward:  c.reward / n,
		Steps:   float64(c.steps) / n,
		WinRate: float64(c.wins) / n,
		Epsilon: c.epsilon,
	})
	c.n, c.reward, c.steps, c.wins = 0, 0, 0, 0
}

// Points returns the completed windows plus the partial one in progress.
func (c *Curve) Points() []Point {
	points := c.points
	if c.n > 0 {
		pending := *c
		pending.points = nil
		pending.flush()
		points = append(points[:len(points):len(points)], pending.points...)
	}
	return points
}

func (c *Curve) Render(w io.Writer, title string) error {
	points := c.Points()
	if len(points) == 0 {
		return fmt.Errorf("no episodes to plot")
	}

	episodes := make([]string, len(points))
	var reward, steps, winRate, epsilon []opts.LineData
	for i, p := range points {
		episodes[i] = strconv.Itoa(p.Episode)
		reward = append(reward, opts.LineData{Value: p.Reward})
		steps = append(steps, opts.LineData{Value: p.Steps})
		winRate = append(winRate, opts.LineData{Value: p.WinRate})
		epsilon = append(epsilon, opts.LineData{Value: p.Epsilon})
	}

	rewardChart := charts.NewLine()
	rewardChart.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("mean over %d episodes", c.window),
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "episode"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "reward"}),
	)
	rewardChart.SetXAxis(episodes).
		AddSeries("reward", reward).
		AddSeries("steps", steps)

	rateChart := charts.NewLine()
	rateChart.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "win rate and exploration"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "episode"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "rate", Min: 0, Max: 1}),
	)
	rateChart.SetXAxis(episodes).
		AddSeries("win rate", winRate).
		AddSeries("epsilon", epsilon)

	page := components.NewPage()
	page.PageTitle = title
	page.AddCharts(rewardChart, rateChart)
	return page.Render(w)
}

// WriteFile renders the curve into an HTML file at path.
func (c *Curve) WriteFile(path, title string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := c.Render(f, title); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
