package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func condor() Candidate {
	return Candidate{
		ID:        "cand-1",
		Symbol:    "SPY",
		Archetype: IronCondor,
		Legs: []Leg{
			{Side: Sell, Instrument: Put, Strike: 440, Quantity: 1},
			{Side: Buy, Instrument: Put, Strike: 435, Quantity: 1},
			{Side: Sell, Instrument: Call, Strike: 460, Quantity: 1},
			{Side: Buy, Instrument: Call, Strike: 465, Quantity: 1},
		},
		DeclaredMaxRisk: 290,
	}
}

func TestValidateIronCondor(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Validate(condor()))
}

func TestValidateIronCondorLegCount(t *testing.T) {
	t.Parallel()

	c := condor()
	c.Legs = c.Legs[:3]

	errs := Validate(c)
	assert.Equal(t, []string{"iron_condor: expected 4 legs, found 3"}, errs)
}

func TestValidateIronCondorOverlap(t *testing.T) {
	t.Parallel()

	c := condor()
	c.Legs[0].Strike = 462 // put above the short call

	errs := Validate(c)
	assert.NotEmpty(t, errs)
	assert.Contains(t, errs[0], "overlaps")
}

func TestValidateIronCondorSides(t *testing.T) {
	t.Parallel()

	c := condor()
	c.Legs[1].Side = Sell // two short puts, no long

	errs := Validate(c)
	assert.NotEmpty(t, errs)
	assert.Contains(t, errs[0], "put legs must contain one buy and one sell")
}

func TestValidateCreditSpreads(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cand    Candidate
		wantErr string
	}{
		{
			name: "valid put credit spread",
			cand: Candidate{
				Archetype: PutCreditSpread,
				Legs: []Leg{
					{Side: Sell, Instrument: Put, Strike: 440, Quantity: 1},
					{Side: Buy, Instrument: Put, Strike: 435, Quantity: 1},
				},
			},
		},
		{
			name: "one leg",
			cand: Candidate{
				Archetype: PutCreditSpread,
				Legs: []Leg{
					{Side: Sell, Instrument: Put, Strike: 440, Quantity: 1},
				},
			},
			wantErr: "put_credit_spread: expected 2 legs, found 1",
		},
		{
			name: "wrong instrument",
			cand: Candidate{
				Archetype: PutCreditSpread,
				Legs: []Leg{
					{Side: Sell, Instrument: Call, Strike: 440, Quantity: 1},
					{Side: Buy, Instrument: Put, Strike: 435, Quantity: 1},
				},
			},
			wantErr: "put_credit_spread: leg 1 must be a put, found call",
		},
		{
			name: "debit direction put",
			cand: Candidate{
				Archetype: PutCreditSpread,
				Legs: []Leg{
					{Side: Sell, Instrument: Put, Strike: 435, Quantity: 1},
					{Side: Buy, Instrument: Put, Strike: 440, Quantity: 1},
				},
			},
			wantErr: "put_credit_spread: sold strike 435 must be above bought strike 440",
		},
		{
			name: "valid call credit spread",
			cand: Candidate{
				Archetype: CallCreditSpread,
				Legs: []Leg{
					{Side: Sell, Instrument: Call, Strike: 460, Quantity: 1},
					{Side: Buy, Instrument: Call, Strike: 465, Quantity: 1},
				},
			},
		},
		{
			name: "debit direction call",
			cand: Candidate{
				Archetype: CallCreditSpread,
				Legs: []Leg{
					{Side: Buy, Instrument: Call, Strike: 460, Quantity: 1},
					{Side: Sell, Instrument: Call, Strike: 465, Quantity: 1},
				},
			},
			wantErr: "call_credit_spread: sold strike 465 must be below bought strike 460",
		},
		{
			name: "two sells",
			cand: Candidate{
				Archetype: CallCreditSpread,
				Legs: []Leg{
					{Side: Sell, Instrument: Call, Strike: 460, Quantity: 1},
					{Side: Sell, Instrument: Call, Strike: 465, Quantity: 1},
				},
			},
			wantErr: "call_credit_spread: expected one buy and one sell, found 0 buys and 2 sells",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			errs := Validate(tt.cand)
			if tt.wantErr == "" {
				assert.Empty(t, errs)
				return
			}
			assert.Contains(t, errs, tt.wantErr)
		})
	}
}

func TestValidateCoveredCall(t *testing.T) {
	t.Parallel()

	ok := Candidate{
		Archetype: CoveredCall,
		Legs:      []Leg{{Side: Sell, Instrument: Call, Strike: 180, Quantity: 2}},
	}
	assert.Empty(t, Validate(ok))

	bad := Candidate{
		Archetype: CoveredCall,
		Legs:      []Leg{{Side: Buy, Instrument: Put, Strike: 180, Quantity: 2}},
	}
	errs := Validate(bad)
	assert.Contains(t, errs, "covered_call: leg must be a call, found put")
	assert.Contains(t, errs, "covered_call: leg must be a sell, found buy")
}

func TestValidateLongStraddle(t *testing.T) {
	t.Parallel()

	ok := Candidate{
		Archetype: LongStraddle,
		Legs: []Leg{
			{Side: Buy, Instrument: Call, Strike: 450, Quantity: 1},
			{Side: Buy, Instrument: Put, Strike: 450, Quantity: 1},
		},
	}
	assert.Empty(t, Validate(ok))

	split := ok
	split.Legs = []Leg{
		{Side: Buy, Instrument: Call, Strike: 450, Quantity: 1},
		{Side: Buy, Instrument: Put, Strike: 445, Quantity: 1},
	}
	assert.Contains(t, Validate(split), "long_straddle: legs must share a strike, found 450 and 445")

	short := ok
	short.Legs = []Leg{
		{Side: Sell, Instrument: Call, Strike: 450, Quantity: 1},
		{Side: Buy, Instrument: Put, Strike: 450, Quantity: 1},
	}
	assert.Contains(t, Validate(short), "long_straddle: leg 1 must be a buy, found sell")
}

func TestValidateCustomAlwaysPasses(t *testing.T) {
	t.Parallel()

	c := Candidate{
		Archetype: Custom,
		Legs: []Leg{
			{Side: Buy, Instrument: Call, Strike: 100, Quantity: 3},
			{Side: Sell, Instrument: Put, Strike: 90, Quantity: 7},
		},
	}
	assert.Empty(t, Validate(c))
}

func TestValidateUnsupportedArchetype(t *testing.T) {
	t.Parallel()

	c := Candidate{
		Archetype: Archetype(42),
		Legs:      []Leg{{Side: Buy, Instrument: Call, Strike: 100, Quantity: 1}},
	}
	errs := Validate(c)
	assert.Len(t, errs, 1)
	assert.Contains(t, errs[0], "unsupported archetype")
}

func TestValidateRejectsEmptyLegs(t *testing.T) {
	t.Parallel()

	c := Candidate{Archetype: Custom}
	assert.Contains(t, Validate(c), "custom: at least one leg required")

	c.Archetype = IronCondor
	assert.Contains(t, Validate(c), "iron_condor: at least one leg required")
}

func TestValidateLegSanity(t *testing.T) {
	t.Parallel()

	c := Candidate{
		Archetype: Custom,
		Legs:      []Leg{{Side: Buy, Instrument: Call, Strike: -5, Quantity: 0}},
	}
	errs := Validate(c)
	assert.Contains(t, errs, "custom: leg 1 strike must be positive, found -5")
	assert.Contains(t, errs, "custom: leg 1 quantity must be positive, found 0")
}

func TestValidateIdempotent(t *testing.T) {
	t.Parallel()

	c := condor()
	c.Legs = c.Legs[:2]

	first := Validate(c)
	second := Validate(c)
	assert.Equal(t, first, second)
}
