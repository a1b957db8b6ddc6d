package env

// Rewards holds every reward magnitude handed out by [Environment.Step].
type Rewards struct {
	RepeatReveal  float64 `mapstructure:"repeat_reveal" json:"repeat_reveal"`
	RevealFlagged float64 `mapstructure:"reveal_flagged" json:"reveal_flagged"`
	Mine          float64 `mapstructure:"mine" json:"mine"`
	RevealSafe    float64 `mapstructure:"reveal_safe" json:"reveal_safe"`
	RevealZero    float64 `mapstructure:"reveal_zero" json:"reveal_zero"`
	Win           float64 `mapstructure:"win" json:"win"`
	FlagCorrect   float64 `mapstructure:"flag_correct" json:"flag_correct"`
	FlagWrong     float64 `mapstructure:"flag_wrong" json:"flag_wrong"`
	FlagRevealed  float64 `mapstructure:"flag_revealed" json:"flag_revealed"`
	Unflag        float64 `mapstructure:"unflag" json:"unflag"`
	// WinReplaces makes the win bonus replace the step reward instead of
	// being added to it.
	WinReplaces bool `mapstructure:"win_replaces" json:"win_replaces"`
}

// DefaultRewards are tuned for the [WithFlags] variant.
func DefaultRewards() Rewards {
	return Rewards{
		RepeatReveal:  -20,
		RevealFlagged: -20,
		Mine:          -200,
		RevealSafe:    8,
		RevealZero:    20,
		Win:           300,
		FlagCorrect:   40,
		FlagWrong:     -50,
		FlagRevealed:  -15,
		Unflag:        -5,
	}
}

// SimpleRewards are tuned for the [RevealOnly] variant.
func SimpleRewards() Rewards {
	return Rewards{
		RepeatReveal:  -1,
		RevealFlagged: -1,
		Mine:          -50,
		RevealSafe:    1,
		RevealZero:    3,
		Win:           100,
		WinReplaces:   true,
	}
}

func RewardsFor(v Variant) Rewards {
	if v == RevealOnly {
		return SimpleRewards()
	}
	return DefaultRewards()
}

func (r Rewards) win(step float64) float64 {
	if r.WinReplaces {
		return r.Win
	}
	return step + r.Win
}
