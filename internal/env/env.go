package env

import (
	"math/rand/v2"

	"github.com/vancomm/minesweeper-qlearning/internal/mines"
)

// Event names what a step did to the board. Repeated or protected moves are
// events, not errors.
type Event uint8

const (
	EventRevealZero Event = iota
	EventRevealSafe
	EventMine
	EventRepeatReveal
	EventRevealFlagged
	EventFlagCorrect
	EventFlagWrong
	EventUnflag
	EventFlagRevealed
)

var eventNames = [...]string{
	EventRevealZero:    "reveal_zero",
	EventRevealSafe:    "reveal_safe",
	EventMine:          "mine",
	EventRepeatReveal:  "repeat_reveal",
	EventRevealFlagged: "reveal_flagged",
	EventFlagCorrect:   "flag_correct",
	EventFlagWrong:     "flag_wrong",
	EventUnflag:        "unflag",
	EventFlagRevealed:  "flag_revealed",
}

func (e Event) String() string {
	if int(e) < len(eventNames) {
		return eventNames[e]
	}
	return "unknown"
}

func (e Event) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

func (e *Event) UnmarshalText(text []byte) error {
	for i, name := range eventNames {
		if name == string(text) {
			*e = Event(i)
			return nil
		}
	}
	return mines.NewConfigurationError("unknown event %q", text)
}

type Info struct {
	Event Event `json:"event"`
	Won   bool  `json:"won"`
	Lost  bool  `json:"lost"`
}

type Outcome struct {
	State  State   `json:"state"`
	Reward float64 `json:"reward"`
	Done   bool    `json:"done"`
	Info   Info    `json:"info"`
}

type Config struct {
	Params  mines.GameParams
	Variant Variant
	Rewards Rewards
}

// Environment wraps one board at a time. Every [Environment.Reset] deals a
// fresh board from the environment's random source.
type Environment struct {
	cfg   Config
	rnd   *rand.Rand
	board *mines.Board
	state State
	done  bool
}

func New(cfg Config, rnd *rand.Rand) (*Environment, error) {
	if err := cfg.Params.Validate(); err != nil {
		return nil, err
	}
	if cfg.Variant != RevealOnly && cfg.Variant != WithFlags {
		return nil, mines.NewConfigurationError("unknown variant %d", cfg.Variant)
	}
	e := &Environment{cfg: cfg, rnd: rnd}
	if _, err := e.Reset(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Environment) Config() Config {
	return e.cfg
}

func (e *Environment) Board() *mines.Board {
	return e.board
}

func (e *Environment) State() State {
	return e.state
}

func (e *Environment) Done() bool {
	return e.done
}

func (e *Environment) Won() bool {
	return e.board.CheckWin()
}

func (e *Environment) Reset() (State, error) {
	board, err := mines.NewBoard(e.cfg.Params, e.rnd)
	if err != nil {
		return "", err
	}
	return e.use(board), nil
}

// ResetWith installs a prepared board, typically one with known mines.
func (e *Environment) ResetWith(board *mines.Board) (State, error) {
	if board.GameParams != e.cfg.Params {
		return "", mines.NewConfigurationError(
			"board %s does not match environment %s",
			board.Seed(), e.cfg.Params.Seed(),
		)
	}
	return e.use(board), nil
}

func (e *Environment) use(board *mines.Board) State {
	e.board = board
	e.done = false
	e.state = EncodeState(board.PlayerGrid())
	return e.state
}

// Step applies a to the current board. Errors are reserved for malformed
// actions ([mines.ConfigurationError]) and off-grid coordinates
// ([mines.BoundsError]); the board is unchanged when one is returned.
func (e *Environment) Step(a Action) (Outcome, error) {
	if !e.cfg.Variant.Allows(a) {
		return Outcome{}, mines.NewConfigurationError(
			"action %s is not valid for %s variant", a, e.cfg.Variant,
		)
	}
	cell, err := e.board.Cell(a.X, a.Y)
	if err != nil {
		return Outcome{}, err
	}

	var out Outcome
	if a.Kind == Flag {
		out, err = e.flag(a, cell)
	} else {
		out, err = e.reveal(a, cell)
	}
	if err != nil {
		return Outcome{}, err
	}

	e.state = EncodeState(e.board.PlayerGrid())
	e.done = out.Done
	out.State = e.state
	return out, nil
}

func (e *Environment) reveal(a Action, cell mines.Cell) (Outcome, error) {
	r := e.cfg.Rewards
	if cell.IsRevealed {
		return Outcome{Reward: r.RepeatReveal, Info: Info{Event: EventRepeatReveal}}, nil
	}

	res, err := e.board.Open(a.X, a.Y)
	if err != nil {
		return Outcome{}, err
	}

	switch res {
	case mines.Protected:
		return Outcome{Reward: r.RevealFlagged, Info: Info{Event: EventRevealFlagged}}, nil
	case mines.Exploded:
		return Outcome{
			Reward: r.Mine,
			Done:   true,
			Info:   Info{Event: EventMine, Lost: true},
		}, nil
	}

	out := Outcome{Reward: r.RevealSafe, Info: Info{Event: EventRevealSafe}}
	if cell.AdjacentMines == 0 {
		out = Outcome{Reward: r.RevealZero, Info: Info{Event: EventRevealZero}}
	}
	e.checkWin(&out)
	return out, nil
}

func (e *Environment) flag(a Action, cell mines.Cell) (Outcome, error) {
	r := e.cfg.Rewards
	if cell.IsRevealed {
		return Outcome{Reward: r.FlagRevealed, Info: Info{Event: EventFlagRevealed}}, nil
	}

	if err := e.board.ToggleFlag(a.X, a.Y); err != nil {
		return Outcome{}, err
	}

	var out Outcome
	switch {
	case cell.IsFlagged:
		out = Outcome{Reward: r.Unflag, Info: Info{Event: EventUnflag}}
	case cell.IsMine:
		out = Outcome{Reward: r.FlagCorrect, Info: Info{Event: EventFlagCorrect}}
	default:
		out = Outcome{Reward: r.FlagWrong, Info: Info{Event: EventFlagWrong}}
	}
	e.checkWin(&out)
	return out, nil
}

func (e *Environment) checkWin(out *Outcome) {
	if e.board.CheckWin() {
		out.Reward = e.cfg.Rewards.win(out.Reward)
		out.Done = true
		out.Info.Won = true
	}
}

// LegalActions enumerates the actions worth taking in s: every cell that is
// not revealed, in x-major order, with Reveal before Flag for each cell. The
// order is the tie-break order of greedy selection.
func (e *Environment) LegalActions(s State) []Action {
	return LegalActions(s, e.cfg.Params.Height, e.cfg.Variant)
}

func LegalActions(s State, height int, v Variant) []Action {
	perCell := 1
	if v == WithFlags {
		perCell = 2
	}
	actions := make([]Action, 0, len(s)*perCell)
	for i := range len(s) {
		cs, ok := mines.ParseCellState(s[i])
		if !ok || cs.Revealed() {
			continue
		}
		x, y := i/height, i%height
		actions = append(actions, RevealAt(x, y))
		if v == WithFlags {
			actions = append(actions, FlagAt(x, y))
		}
	}
	return actions
}
