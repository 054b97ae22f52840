// strategy/validate.go
package strategy

import "fmt"

// Validate checks a candidate's leg composition against its declared
// archetype. An empty result means structurally valid. Validation is pure and
// deterministic: the same candidate always yields the same errors, so callers
// may re-run it freely on retry paths.
//
// Ownership checks that need portfolio context (covered-call share coverage)
// belong to the risk assessor, not here.
func Validate(c Candidate) []string {
	errs := legSanity(c)

	switch c.Archetype {
	case IronCondor:
		errs = append(errs, validateIronCondor(c)...)
	case PutCreditSpread:
		errs = append(errs, validateCreditSpread(c, Put)...)
	case CallCreditSpread:
		errs = append(errs, validateCreditSpread(c, Call)...)
	case CoveredCall:
		errs = append(errs, validateCoveredCall(c)...)
	case LongStraddle:
		errs = append(errs, validateLongStraddle(c)...)
	case Custom:
		// Custom shapes carry no structural constraints; the risk gate is
		// the only check they get.
	default:
		errs = append(errs, fmt.Sprintf("%s: unsupported archetype", c.Archetype))
	}

	return errs
}

// legSanity enforces the field constraints every leg must satisfy regardless
// of archetype. An empty leg list is rejected here so even a custom candidate
// cannot stage a strategy with no orders.
func legSanity(c Candidate) []string {
	var errs []string
	if len(c.Legs) == 0 {
		errs = append(errs, fmt.Sprintf("%s: at least one leg required", c.Archetype))
	}
	for i, leg := range c.Legs {
		if leg.Strike <= 0 {
			errs = append(errs, fmt.Sprintf("%s: leg %d strike must be positive, found %g", c.Archetype, i+1, leg.Strike))
		}
		if leg.Quantity <= 0 {
			errs = append(errs, fmt.Sprintf("%s: leg %d quantity must be positive, found %d", c.Archetype, i+1, leg.Quantity))
		}
	}
	return errs
}

func validateIronCondor(c Candidate) []string {
	var errs []string

	if len(c.Legs) != 4 {
		errs = append(errs, fmt.Sprintf("iron_condor: expected 4 legs, found %d", len(c.Legs)))
		return errs
	}

	var calls, puts []Leg
	for _, leg := range c.Legs {
		if leg.Instrument == Call {
			calls = append(calls, leg)
		} else {
			puts = append(puts, leg)
		}
	}
	if len(calls) != 2 || len(puts) != 2 {
		errs = append(errs, fmt.Sprintf("iron_condor: expected 2 calls and 2 puts, found %d calls and %d puts", len(calls), len(puts)))
		return errs
	}

	for _, group := range []struct {
		name string
		legs []Leg
	}{{"call", calls}, {"put", puts}} {
		buys, sells := countSides(group.legs)
		if buys != 1 || sells != 1 {
			errs = append(errs, fmt.Sprintf("iron_condor: %s legs must contain one buy and one sell, found %d buys and %d sells", group.name, buys, sells))
		}
	}

	// Wings must not cross: every put strike sits below every call strike.
	for _, p := range puts {
		for _, cl := range calls {
			if p.Strike >= cl.Strike {
				errs = append(errs, fmt.Sprintf("iron_condor: put strike %g overlaps call strike %g", p.Strike, cl.Strike))
			}
		}
	}

	return errs
}

func validateCreditSpread(c Candidate, instr Instrument) []string {
	name := c.Archetype.String()
	var errs []string

	if len(c.Legs) != 2 {
		errs = append(errs, fmt.Sprintf("%s: expected 2 legs, found %d", name, len(c.Legs)))
		return errs
	}

	for i, leg := range c.Legs {
		if leg.Instrument != instr {
			errs = append(errs, fmt.Sprintf("%s: leg %d must be a %s, found %s", name, i+1, instr, leg.Instrument))
		}
	}

	buys, sells := countSides(c.Legs)
	if buys != 1 || sells != 1 {
		errs = append(errs, fmt.Sprintf("%s: expected one buy and one sell, found %d buys and %d sells", name, buys, sells))
		return errs
	}
	if len(errs) > 0 {
		return errs
	}

	sold, bought := c.Legs[0], c.Legs[1]
	if sold.Side != Sell {
		sold, bought = bought, sold
	}

	// The credit direction: the short leg sits closer to at-the-money than
	// the long leg. For puts that means a higher strike, for calls a lower
	// one.
	switch instr {
	case Put:
		if sold.Strike <= bought.Strike {
			errs = append(errs, fmt.Sprintf("%s: sold strike %g must be above bought strike %g", name, sold.Strike, bought.Strike))
		}
	case Call:
		if sold.Strike >= bought.Strike {
			errs = append(errs, fmt.Sprintf("%s: sold strike %g must be below bought strike %g", name, sold.Strike, bought.Strike))
		}
	}

	return errs
}

func validateCoveredCall(c Candidate) []string {
	var errs []string

	if len(c.Legs) != 1 {
		errs = append(errs, fmt.Sprintf("covered_call: expected 1 leg, found %d", len(c.Legs)))
		return errs
	}

	leg := c.Legs[0]
	if leg.Instrument != Call {
		errs = append(errs, fmt.Sprintf("covered_call: leg must be a call, found %s", leg.Instrument))
	}
	if leg.Side != Sell {
		errs = append(errs, fmt.Sprintf("covered_call: leg must be a sell, found %s", leg.Side))
	}

	return errs
}

func validateLongStraddle(c Candidate) []string {
	var errs []string

	if len(c.Legs) != 2 {
		errs = append(errs, fmt.Sprintf("long_straddle: expected 2 legs, found %d", len(c.Legs)))
		return errs
	}

	var calls, puts int
	for i, leg := range c.Legs {
		if leg.Side != Buy {
			errs = append(errs, fmt.Sprintf("long_straddle: leg %d must be a buy, found %s", i+1, leg.Side))
		}
		if leg.Instrument == Call {
			calls++
		} else {
			puts++
		}
	}
	if calls != 1 || puts != 1 {
		errs = append(errs, fmt.Sprintf("long_straddle: expected one call and one put, found %d calls and %d puts", calls, puts))
	}
	if c.Legs[0].Strike != c.Legs[1].Strike {
		errs = append(errs, fmt.Sprintf("long_straddle: legs must share a strike, found %g and %g", c.Legs[0].Strike, c.Legs[1].Strike))
	}

	return errs
}

func countSides(legs []Leg) (buys, sells int) {
	for _, leg := range legs {
		if leg.Side == Buy {
			buys++
		} else {
			sells++
		}
	}
	return buys, sells
}
