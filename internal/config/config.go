package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/vancomm/minesweeper-qlearning/internal/env"
	"github.com/vancomm/minesweeper-qlearning/internal/mines"
	"github.com/vancomm/minesweeper-qlearning/internal/qlearn"
)

const EnvPrefix = "MINESWEEPER"

type Board struct {
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
	Mines  int `mapstructure:"mines"`
}

type Train struct {
	Episodes      int     `mapstructure:"episodes"`
	MaxSteps      int     `mapstructure:"max_steps"`
	Alpha         float64 `mapstructure:"alpha"`
	Gamma         float64 `mapstructure:"gamma"`
	ProgressEvery int     `mapstructure:"progress_every"`
	Seed          uint64  `mapstructure:"seed"`

	qlearn.EpsilonSchedule `mapstructure:",squash"`
}

type Eval struct {
	Episodes int    `mapstructure:"episodes"`
	MaxSteps int    `mapstructure:"max_steps"`
	Seed     uint64 `mapstructure:"seed"`
}

type Store struct {
	Path string `mapstructure:"path"`
	Name string `mapstructure:"name"`
}

type Postgres struct {
	Enabled bool   `mapstructure:"enabled"`
	Run     string `mapstructure:"run"`
}

type Chart struct {
	Path string `mapstructure:"path"`
}

type Log struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// Config is everything the binaries read at startup. Values come from
// defaults, then an optional config file, then MINESWEEPER_* environment
// variables, then command line flags.
type Config struct {
	Board       Board    `mapstructure:"board"`
	Variant     string   `mapstructure:"variant"`
	Train       Train    `mapstructure:"train"`
	Eval        Eval     `mapstructure:"eval"`
	Store       Store    `mapstructure:"store"`
	Postgres    Postgres `mapstructure:"postgres"`
	Chart       Chart    `mapstructure:"chart"`
	Log         Log      `mapstructure:"log"`
	Server      Server   `mapstructure:"server"`
	Development bool     `mapstructure:"development"`
	Watch       bool     `mapstructure:"watch"`

	variant env.Variant
	rewards env.Rewards
}

func setDefaults(v *viper.Viper) {
	schedule := qlearn.DefaultEpsilonSchedule()
	params := qlearn.DefaultParams()

	v.SetDefault("board.width", 6)
	v.SetDefault("board.height", 6)
	v.SetDefault("board.mines", 5)
	v.SetDefault("variant", env.WithFlags.String())

	v.SetDefault("train.episodes", params.Episodes)
	v.SetDefault("train.max_steps", params.MaxSteps)
	v.SetDefault("train.alpha", params.Alpha)
	v.SetDefault("train.gamma", params.Gamma)
	v.SetDefault("train.epsilon_max", schedule.Max)
	v.SetDefault("train.epsilon_min", schedule.Min)
	v.SetDefault("train.epsilon_decay", schedule.DecayRate)
	v.SetDefault("train.progress_every", params.ProgressEvery)
	v.SetDefault("train.seed", 1)

	v.SetDefault("eval.episodes", 500)
	v.SetDefault("eval.max_steps", 50)
	v.SetDefault("eval.seed", 2)

	v.SetDefault("store.path", "minesweeper.db")
	v.SetDefault("store.name", "qtable")
	v.SetDefault("postgres.enabled", false)
	v.SetDefault("postgres.run", "")
	v.SetDefault("chart.path", "")
	v.SetDefault("log.file", "")
	v.SetDefault("log.level", "")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.base_path", "")
	v.SetDefault("development", false)
	v.SetDefault("watch", false)
}

// NewFlagSet declares the command line flags understood by [Load].
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringP("config", "c", "", "config file path (yaml, json or toml)")
	fs.Int("width", 0, "board width")
	fs.Int("height", 0, "board height")
	fs.Int("mines", 0, "number of mines")
	fs.String("variant", "", `action set, "reveal" or "flags"`)
	fs.Int("episodes", 0, "training episodes")
	fs.Uint64("seed", 0, "training seed")
	fs.Int("eval-episodes", 0, "evaluation episodes")
	fs.String("store", "", "sqlite snapshot store path")
	fs.String("name", "", "snapshot name")
	fs.Bool("postgres", false, "also save the run to Postgres")
	fs.String("run", "", "Postgres run name")
	fs.String("chart", "", "write a learning curve to this HTML file")
	fs.String("log-file", "", "also log to this file, rotated")
	fs.String("log-level", "", "log level")
	fs.String("addr", "", "server listen address")
	fs.Bool("watch", false, "play and print one greedy game after training")
	return fs
}

var flagKeys = map[string]string{
	"width":         "board.width",
	"height":        "board.height",
	"mines":         "board.mines",
	"variant":       "variant",
	"episodes":      "train.episodes",
	"seed":          "train.seed",
	"eval-episodes": "eval.episodes",
	"store":         "store.path",
	"name":          "store.name",
	"postgres":      "postgres.enabled",
	"run":           "postgres.run",
	"chart":         "chart.path",
	"log-file":      "log.file",
	"log-level":     "log.level",
	"addr":          "server.addr",
	"watch":         "watch",
}

var rewardKeys = []string{
	"repeat_reveal", "reveal_flagged", "mine", "reveal_safe", "reveal_zero",
	"win", "flag_correct", "flag_wrong", "flag_revealed", "unflag", "win_replaces",
}

// Load parses args with fs and resolves the configuration.
func Load(fs *pflag.FlagSet, args []string) (*Config, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("development", EnvPrefix+"_DEVELOPMENT", "DEVELOPMENT"); err != nil {
		return nil, err
	}
	for _, key := range rewardKeys {
		if err := v.BindEnv("rewards." + key); err != nil {
			return nil, err
		}
	}

	for name, key := range flagKeys {
		if f := fs.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, err
			}
		}
	}

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("unable to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to parse config: %w", err)
	}

	variant, err := env.ParseVariant(cfg.Variant)
	if err != nil {
		return nil, err
	}
	cfg.variant = variant
	cfg.rewards = loadRewards(v, variant)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadRewards starts from the variant's defaults and applies the
// rewards.* keys that were set explicitly.
func loadRewards(v *viper.Viper, variant env.Variant) env.Rewards {
	r := env.RewardsFor(variant)
	fields := map[string]*float64{
		"repeat_reveal":  &r.RepeatReveal,
		"reveal_flagged": &r.RevealFlagged,
		"mine":           &r.Mine,
		"reveal_safe":    &r.RevealSafe,
		"reveal_zero":    &r.RevealZero,
		"win":            &r.Win,
		"flag_correct":   &r.FlagCorrect,
		"flag_wrong":     &r.FlagWrong,
		"flag_revealed":  &r.FlagRevealed,
		"unflag":         &r.Unflag,
	}
	for key, field := range fields {
		if v.IsSet("rewards." + key) {
			*field = v.GetFloat64("rewards." + key)
		}
	}
	if v.IsSet("rewards.win_replaces") {
		r.WinReplaces = v.GetBool("rewards.win_replaces")
	}
	return r
}

func (c *Config) GameParams() mines.GameParams {
	return mines.GameParams{
		Width:     c.Board.Width,
		Height:    c.Board.Height,
		MineCount: c.Board.Mines,
	}
}

func (c *Config) EnvConfig() env.Config {
	return env.Config{
		Params:  c.GameParams(),
		Variant: c.variant,
		Rewards: c.rewards,
	}
}

func (c *Config) QLearnParams() qlearn.Params {
	return qlearn.Params{
		Alpha:         c.Train.Alpha,
		Gamma:         c.Train.Gamma,
		Episodes:      c.Train.Episodes,
		MaxSteps:      c.Train.MaxSteps,
		Epsilon:       c.Train.EpsilonSchedule,
		ProgressEvery: c.Train.ProgressEvery,
	}
}

func (c *Config) Validate() error {
	return errors.Join(
		c.GameParams().Validate(),
		c.QLearnParams().Validate(),
		c.validateEval(),
	)
}

func (c *Config) validateEval() error {
	if c.Eval.Episodes <= 0 {
		return mines.NewConfigurationError("eval episodes must be positive, got %d", c.Eval.Episodes)
	}
	if c.Eval.MaxSteps <= 0 {
		return mines.NewConfigurationError("eval max steps must be positive, got %d", c.Eval.MaxSteps)
	}
	return nil
}
