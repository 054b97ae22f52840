// strategy/strategy.go
package strategy

import (
	"encoding/json"
	"fmt"
)

// Side is the direction of a single option leg.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	}
	return fmt.Sprintf("side(%d)", int(s))
}

// Instrument is the option contract type of a leg.
type Instrument int

const (
	Call Instrument = iota
	Put
)

func (i Instrument) String() string {
	switch i {
	case Call:
		return "call"
	case Put:
		return "put"
	}
	return fmt.Sprintf("instrument(%d)", int(i))
}

// Archetype is a fixed-shape options strategy. The set is closed: validation
// dispatches on an exhaustive switch, so adding an archetype means adding a
// constant, a name, and a rule function.
type Archetype int

const (
	IronCondor Archetype = iota
	PutCreditSpread
	CallCreditSpread
	CoveredCall
	LongStraddle
	Custom
)

var archetypeNames = map[Archetype]string{
	IronCondor:       "iron_condor",
	PutCreditSpread:  "put_credit_spread",
	CallCreditSpread: "call_credit_spread",
	CoveredCall:      "covered_call",
	LongStraddle:     "long_straddle",
	Custom:           "custom",
}

func (a Archetype) String() string {
	if n, ok := archetypeNames[a]; ok {
		return n
	}
	return fmt.Sprintf("archetype(%d)", int(a))
}

// ParseArchetype converts the wire/config name back to an Archetype.
func ParseArchetype(name string) (Archetype, error) {
	for a, n := range archetypeNames {
		if n == name {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown archetype %q", name)
}

// Leg is one option contract within a multi-leg strategy. Legs are immutable
// once attached to a Candidate.
type Leg struct {
	Side       Side       `json:"side"`
	Instrument Instrument `json:"instrument"`
	Strike     float64    `json:"strike"`
	Quantity   int        `json:"quantity"`
}

// Candidate is a proposed multi-leg options strategy produced by an external
// synthesis collaborator. The staging pipeline treats it as read-only.
type Candidate struct {
	ID                string            `json:"id"`
	Symbol            string            `json:"symbol"`
	Archetype         Archetype         `json:"archetype"`
	Legs              []Leg             `json:"legs"`
	DeclaredMaxRisk   float64           `json:"declared_max_risk"`
	DeclaredMaxProfit *float64          `json:"declared_max_profit,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

// JSON codecs keep the enums readable in candidate files and journals.

func (s Side) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Side) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	switch name {
	case "buy":
		*s = Buy
	case "sell":
		*s = Sell
	default:
		return fmt.Errorf("unknown side %q", name)
	}
	return nil
}

func (i Instrument) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.String())
}

func (i *Instrument) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	switch name {
	case "call":
		*i = Call
	case "put":
		*i = Put
	default:
		return fmt.Errorf("unknown instrument %q", name)
	}
	return nil
}

func (a Archetype) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Archetype) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	parsed, err := ParseArchetype(name)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
