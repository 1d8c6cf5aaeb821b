package proto

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonclub/hypersonic/pkg/errs"
)

func TestParseAmount(t *testing.T) {
	for _, tc := range []struct {
		in  string
		exp Amount
	}{
		{"0", 0},
		{"3", 3_000_000_000},
		{"2.5", 2_500_000_000},
		{"0.000000001", 1},
		{"600", 600_000_000_000},
	} {
		rs, err := ParseAmount(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.exp, rs, tc.in)
	}
	for _, in := range []string{"", "abc", "-1", "0.0000000001"} {
		_, err := ParseAmount(in)
		assert.Error(t, err, in)
	}
}

func TestAmountString(t *testing.T) {
	assert.Equal(t, "3", ToNano(3).String())
	assert.Equal(t, "2.5", Amount(2_500_000_000).String())
	assert.Equal(t, "0.000000001", Amount(1).String())
	assert.Equal(t, "100", ToNano(100).String())
}

func TestAmountArithmetic(t *testing.T) {
	a, err := ToNano(100).Sub(ToNano(3))
	require.NoError(t, err)
	assert.Equal(t, ToNano(97), a)

	_, err = ToNano(3).Sub(ToNano(100))
	assert.True(t, errors.Is(err, errs.InsufficientBalance{}))

	_, err = Amount(math.MaxUint64).Add(1)
	assert.True(t, errors.Is(err, errs.Overflow{}))

	assert.Equal(t, Amount(300_000_000), ToNano(3).Percent(10))
}

func TestAmountJSON(t *testing.T) {
	var v struct {
		A Amount `json:"a"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"12.75"}`), &v))
	assert.Equal(t, Amount(12_750_000_000), v.A)
	b, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"12.75"}`, string(b))
}
