package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAddUint64(t *testing.T) {
	a0 := uint64(math.MaxUint64)
	a1 := uint64(0)
	_, err := AddUint64(a0, a1)
	assert.NoError(t, err, "AddUint64 failed with arguments not causing an overflow")
	a1 = 1
	_, err = AddUint64(a1, a0)
	assert.Error(t, err, "AddUint64 did not fail with arguments causing an overflow")
}

func TestSubUint64(t *testing.T) {
	rs, err := SubUint64(100, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 97, rs)
	_, err = SubUint64(3, 100)
	assert.Error(t, err)
}

func TestPercent(t *testing.T) {
	assert.EqualValues(t, 300_000_000, Percent(3_000_000_000, 10))
	assert.EqualValues(t, 0, Percent(9, 10))
	assert.EqualValues(t, 166_666_666, Percent(3_333_333_333, 5))
	assert.EqualValues(t, uint64(math.MaxUint64)/2, Percent(math.MaxUint64, 50))
	assert.Panics(t, func() { Percent(1, 101) })
}

func TestDup(t *testing.T) {
	a := []byte{1, 2, 3}
	b := Dup(a)
	require.Equal(t, a, b)

	a[0] = 0
	require.EqualValues(t, 1, b[0])
}

func TestSetupFilteredLogger(t *testing.T) {
	logger, err := SetupFilteredLogger("debug", "*:planner")
	require.NoError(t, err)
	assert.NotNil(t, logger.Named("planner").Check(zap.DebugLevel, "kept"))
	assert.Nil(t, logger.Named("api").Check(zap.InfoLevel, "dropped"))

	logger, _ = SetupLogger("WARN")
	assert.Nil(t, logger.Check(zap.InfoLevel, "dropped"))
	assert.NotNil(t, logger.Check(zap.ErrorLevel, "kept"))
}
