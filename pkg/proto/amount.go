package proto

import (
	"encoding/json"
	"fmt"

	"github.com/ccoveille/go-safecast"
	"github.com/ericlagergren/decimal"
	"github.com/pkg/errors"

	"github.com/tonclub/hypersonic/pkg/errs"
	"github.com/tonclub/hypersonic/pkg/util/common"
)

const (
	NanoDecimals = 9
	NanoPerUnit  = 1_000_000_000
)

// Amount is a non-negative value counted in nano-units.
type Amount uint64

// ToNano converts whole units to an Amount.
func ToNano(units uint64) Amount {
	return Amount(units * NanoPerUnit)
}

// ParseAmount parses a decimal string of units like "2.5" into nano-units.
func ParseAmount(s string) (Amount, error) {
	d, ok := new(decimal.Big).SetString(s)
	if !ok {
		return 0, errors.Errorf("invalid amount %q", s)
	}
	if d.Sign() < 0 {
		return 0, errors.Errorf("negative amount %q", s)
	}
	nano := new(decimal.Big).Mul(d, decimal.New(1, -NanoDecimals))
	if !nano.IsInt() {
		return 0, errors.Errorf("amount %q has more than %d decimals", s, NanoDecimals)
	}
	v, ok := nano.Uint64()
	if !ok {
		return 0, errs.NewOverflow(fmt.Sprintf("amount %q does not fit into 64 bits", s))
	}
	return Amount(v), nil
}

func (a Amount) String() string {
	m, err := safecast.ToInt64(uint64(a))
	if err != nil {
		return fmt.Sprintf("%dn", uint64(a))
	}
	return fmt.Sprintf("%f", decimal.New(m, NanoDecimals).Reduce())
}

func (a Amount) Add(b Amount) (Amount, error) {
	r, err := common.AddUint64(uint64(a), uint64(b))
	if err != nil {
		return 0, errs.NewOverflow(err.Error())
	}
	return Amount(r), nil
}

func (a Amount) Sub(b Amount) (Amount, error) {
	r, err := common.SubUint64(uint64(a), uint64(b))
	if err != nil {
		return 0, errs.NewInsufficientBalance(fmt.Sprintf("%s is less than %s", a, b))
	}
	return Amount(r), nil
}

// Percent returns floor(a * pct / 100).
func (a Amount) Percent(pct uint64) Amount {
	return Amount(common.Percent(uint64(a), pct))
}

// SumAmounts adds up amounts with overflow checks.
func SumAmounts(amounts ...Amount) (Amount, error) {
	var total Amount
	for _, a := range amounts {
		var err error
		if total, err = total.Add(a); err != nil {
			return 0, err
		}
	}
	return total, nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Wrap(err, "amount must be a decimal string")
	}
	v, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}
