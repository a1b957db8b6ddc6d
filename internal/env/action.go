package env

import (
	"fmt"
	"strings"

	"github.com/vancomm/minesweeper-qlearning/internal/mines"
)

type Kind uint8

const (
	Reveal Kind = iota
	Flag
)

func (k Kind) String() string {
	switch k {
	case Reveal:
		return "reveal"
	case Flag:
		return "flag"
	default:
		return fmt.Sprintf("kind(%d)", k)
	}
}

// Action is comparable and can be used directly in map keys.
type Action struct {
	Kind Kind `json:"kind" schema:"kind"`
	X    int  `json:"x" schema:"x,required"`
	Y    int  `json:"y" schema:"y,required"`
}

func RevealAt(x, y int) Action {
	return Action{Kind: Reveal, X: x, Y: y}
}

func FlagAt(x, y int) Action {
	return Action{Kind: Flag, X: x, Y: y}
}

func (a Action) String() string {
	return fmt.Sprintf("%s:%d:%d", a.Kind, a.X, a.Y)
}

// ParseAction is the inverse of [Action.String].
func ParseAction(s string) (Action, error) {
	var a Action
	kind, rest, ok := strings.Cut(s, ":")
	if !ok {
		return a, mines.NewConfigurationError("malformed action %q", s)
	}
	switch kind {
	case "reveal":
		a.Kind = Reveal
	case "flag":
		a.Kind = Flag
	default:
		return a, mines.NewConfigurationError("unknown action kind %q", kind)
	}
	n, err := fmt.Sscanf(strings.ReplaceAll(rest, ":", " "), "%d %d", &a.X, &a.Y)
	if n != 2 || err != nil {
		return a, mines.NewConfigurationError("malformed action %q", s)
	}
	return a, nil
}

// Variant selects the action shape for a deployment.
type Variant uint8

const (
	RevealOnly Variant = iota
	WithFlags
)

func (v Variant) String() string {
	switch v {
	case RevealOnly:
		return "reveal"
	case WithFlags:
		return "flags"
	default:
		return fmt.Sprintf("variant(%d)", v)
	}
}

func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(s) {
	case "reveal", "reveal-only", "simple":
		return RevealOnly, nil
	case "flags", "with-flags", "extended":
		return WithFlags, nil
	default:
		return 0, mines.NewConfigurationError("unknown variant %q", s)
	}
}

// Allows reports whether a is well formed for the variant.
func (v Variant) Allows(a Action) bool {
	switch a.Kind {
	case Reveal:
		return true
	case Flag:
		return v == WithFlags
	default:
		return false
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "reveal":
		*k = Reveal
	case "flag":
		*k = Flag
	default:
		return mines.NewConfigurationError("unknown action kind %q", text)
	}
	return nil
}

func (v Variant) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *Variant) UnmarshalText(text []byte) error {
	parsed, err := ParseVariant(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
