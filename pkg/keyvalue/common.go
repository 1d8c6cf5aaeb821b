package keyvalue

import (
	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("not found")

// Reader is implemented by both the live store and its snapshots.
type Reader interface {
	Has(key []byte) (bool, error)
	Get(key []byte) ([]byte, error)
	NewKeyIterator(prefix []byte) Iterator
}

type Iterator interface {
	Key() []byte
	Value() []byte
	Next() bool
	Prev() bool

	First() bool
	Last() bool
	Seek(key []byte) bool

	Error() error
	Release()
}

func SafeKey(it Iterator) []byte {
	iterK := it.Key()
	key := make([]byte, len(iterK))
	copy(key, iterK)
	return key
}

func SafeValue(it Iterator) []byte {
	iterV := it.Value()
	value := make([]byte, len(iterV))
	copy(value, iterV)
	return value
}

type BloomFilterParams struct {
	// N is how many items will be added to the filter.
	N int
	// FalsePositiveProbability is acceptable false positive rate {0..1}.
	FalsePositiveProbability float64
}

type CacheParams struct {
	// Size of the record cache in bytes, zero disables the cache.
	Size int
}

type Params struct {
	BloomFilterParams
	CacheParams
}

func DefaultParams() Params {
	return Params{
		BloomFilterParams: BloomFilterParams{N: 1_000_000, FalsePositiveProbability: 0.001},
		CacheParams:       CacheParams{Size: 16 * 1024 * 1024},
	}
}
