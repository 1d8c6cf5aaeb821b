package proto

import (
	"encoding/json"

	"github.com/pkg/errors"
)

type SubscriptionType uint8

const (
	YearlyWithin30Days SubscriptionType = iota + 1
	YearlyAfter30Days
	MonthlyWithin30Days
	MonthlyAfter30Days
)

var subscriptionTypeNames = map[SubscriptionType]string{
	YearlyWithin30Days:  "yearly-within-30-days",
	YearlyAfter30Days:   "yearly-after-30-days",
	MonthlyWithin30Days: "monthly-within-30-days",
	MonthlyAfter30Days:  "monthly-after-30-days",
}

func NewSubscriptionTypeFromString(s string) (SubscriptionType, error) {
	for t, n := range subscriptionTypeNames {
		if n == s {
			return t, nil
		}
	}
	return 0, errors.Errorf("unknown subscription type %q", s)
}

func (t SubscriptionType) Valid() bool {
	_, ok := subscriptionTypeNames[t]
	return ok
}

func (t SubscriptionType) Yearly() bool {
	return t == YearlyWithin30Days || t == YearlyAfter30Days
}

func (t SubscriptionType) String() string {
	if n, ok := subscriptionTypeNames[t]; ok {
		return n
	}
	return "unknown"
}

func (t SubscriptionType) MarshalJSON() ([]byte, error) {
	if !t.Valid() {
		return nil, errors.Errorf("invalid subscription type %d", t)
	}
	return json.Marshal(t.String())
}

func (t *SubscriptionType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Wrap(err, "subscription type must be a string")
	}
	v, err := NewSubscriptionTypeFromString(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// SubscriptionPrices is the headline price of every subscription type.
type SubscriptionPrices map[SubscriptionType]Amount

func DefaultSubscriptionPrices() SubscriptionPrices {
	return SubscriptionPrices{
		YearlyWithin30Days:  ToNano(40),
		YearlyAfter30Days:   ToNano(80),
		MonthlyWithin30Days: ToNano(5),
		MonthlyAfter30Days:  ToNano(10),
	}
}

func (p SubscriptionPrices) Price(t SubscriptionType) (Amount, error) {
	v, ok := p[t]
	if !ok {
		return 0, errors.Errorf("no price for subscription type %d", t)
	}
	return v, nil
}

type MatrixPosition uint8

const (
	Left MatrixPosition = iota
	Middle
	Right
)

// MatrixWidth is the number of child slots of a matrix node.
const MatrixWidth = 3

var matrixPositionNames = [MatrixWidth]string{"left", "middle", "right"}

func NewMatrixPositionFromString(s string) (MatrixPosition, error) {
	for i, n := range matrixPositionNames {
		if n == s {
			return MatrixPosition(i), nil
		}
	}
	return 0, errors.Errorf("unknown matrix position %q", s)
}

func (p MatrixPosition) Valid() bool {
	return p < MatrixWidth
}

func (p MatrixPosition) String() string {
	if !p.Valid() {
		return "unknown"
	}
	return matrixPositionNames[p]
}

func (p MatrixPosition) MarshalJSON() ([]byte, error) {
	if !p.Valid() {
		return nil, errors.Errorf("invalid matrix position %d", p)
	}
	return json.Marshal(p.String())
}

func (p *MatrixPosition) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Wrap(err, "matrix position must be a string")
	}
	v, err := NewMatrixPositionFromString(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}
