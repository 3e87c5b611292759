// Generator tunables.
package family

// Settings holds the probability knobs of family generation. Percent values are 0-100.
type Settings struct {
	Decay            float64 // geometric decay of occurrence chance per existing instance
	ConventionChance float64 // percent chance a spousal pairing is forced opposite-gender
	TwinChance       float64 // percent chance a child is a twin of the previous one
	TwinDecay        float64 // multiplier per further multiple in the same birth
	ExChildChance    float64 // percent chance, per child, that an ex is the other parent
	MajorityAge      int     // partners never pair across this age
	MaxAge           int     // upper bound of every age window
}

// DefaultSettings returns the tuning used by the CLI unless overridden.
func DefaultSettings() Settings {
	return Settings{
		Decay:            0.75,
		ConventionChance: 25,
		TwinChance:       3,
		TwinDecay:        0.1,
		ExChildChance:    50,
		MajorityAge:      18,
		MaxAge:           110,
	}
}
