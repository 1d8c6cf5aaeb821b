package splitter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonclub/hypersonic/pkg/proto"
)

func testSplitter(t *testing.T) *Splitter {
	s, err := New([]proto.WalletAddress{"dao1", "dao2", "dao3"}, "expenses")
	require.NoError(t, err)
	return s
}

func TestSplit(t *testing.T) {
	s := testSplitter(t)
	shares := s.Split(proto.ToNano(1))
	assert.Equal(t, []Share{
		{Wallet: "dao1", Amount: 300_000_000},
		{Wallet: "dao2", Amount: 300_000_000},
		{Wallet: "dao3", Amount: 300_000_000},
		{Wallet: "expenses", Amount: 100_000_000},
	}, shares)
}

func TestSplitConservesAmount(t *testing.T) {
	s := testSplitter(t)
	for _, a := range []proto.Amount{0, 1, 7, 99, 1_000_000_001, proto.ToNano(123_456)} {
		var sum proto.Amount
		for _, sh := range s.Split(a) {
			sum += sh.Amount
		}
		assert.Equal(t, a, sum, "amount %d", a)
	}
	shares := s.Split(7)
	assert.EqualValues(t, 2, shares[0].Amount)
	assert.EqualValues(t, 1, shares[3].Amount)
}

func TestNewSplitterValidation(t *testing.T) {
	_, err := New([]proto.WalletAddress{"dao1", "dao2"}, "expenses")
	assert.Error(t, err)
	_, err = New([]proto.WalletAddress{"dao1", "", "dao3"}, "expenses")
	assert.Error(t, err)
	_, err = New([]proto.WalletAddress{"dao1", "dao2", "dao3"}, "")
	assert.Error(t, err)
}
