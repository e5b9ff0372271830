package wfrp3e

// RulesMetadata describes the ruleset implemented by the engine.
type RulesMetadata struct {
	System          string
	RulesVersion    string
	DiceModel       string
	SuccessRule     string
	CancelRule      string
	RighteousRule   string
	ShorthandCodes  map[string]string
	PassThroughRule string
}

// RulesVersion returns the static ruleset metadata for the WFRP3e dice.
func RulesVersion() RulesMetadata {
	return RulesMetadata{
		System:          "Warhammer Fantasy Roleplay 3rd Edition",
		RulesVersion:    "3.0.0",
		DiceModel:       "characteristic d8, fortune d6, expertise d6, conservative d10, reckless d10, challenge d8, misfortune d6",
		SuccessRule:     "a check passes with at least one net success",
		CancelRule:      "after summing the whole pool, successes cancel challenges 1:1 and boons cancel banes 1:1",
		RighteousRule:   "a righteous success also counts as a success; its die is flagged exploded but no die is added",
		PassThroughRule: "delays, exertions, sigmar's comets and chaos stars never cancel",
		ShorthandCodes: map[string]string{
			"a": "characteristic",
			"f": "fortune",
			"e": "expertise",
			"o": "conservative",
			"r": "reckless",
			"h": "challenge",
			"m": "misfortune",
		},
	}
}
