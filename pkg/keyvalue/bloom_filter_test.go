package keyvalue

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBloomFilterRemembersMemberKeys(t *testing.T) {
	const members = 200
	filter, err := newBloomFilter(BloomFilterParams{N: members, FalsePositiveProbability: 0.001})
	require.NoError(t, err)

	key := func(i int) []byte {
		return append([]byte{1}, fmt.Sprintf("wallet-%d", i)...)
	}
	for i := 0; i < members; i++ {
		filter.remember(key(i))
	}
	for i := 0; i < members; i++ {
		assert.False(t, filter.absent(key(i)), "remembered key %d reported as absent", i)
	}
	falsePositives := 0
	for i := members; i < 2*members; i++ {
		if !filter.absent(key(i)) {
			falsePositives++
		}
	}
	assert.LessOrEqual(t, falsePositives, 5)
}

func TestBloomFilterInvalidParams(t *testing.T) {
	_, err := newBloomFilter(BloomFilterParams{N: 0, FalsePositiveProbability: 0.01})
	assert.Error(t, err)
}
