package keyvalue

import (
	"hash"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
	"github.com/steakknife/bloomfilter"
)

// bloomFilter remembers every key written to the store, so lookups of wallets that were
// never registered skip leveldb entirely.
type bloomFilter struct {
	filter *bloomfilter.Filter
}

func newBloomFilter(params BloomFilterParams) (*bloomFilter, error) {
	if params.N <= 0 {
		return nil, errors.Errorf("invalid expected number of keys %d", params.N)
	}
	f, err := bloomfilter.NewOptimal(uint64(params.N), params.FalsePositiveProbability)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create bloom filter")
	}
	return &bloomFilter{filter: f}, nil
}

func keyDigest(key []byte) hash.Hash64 {
	d := xxhash.New()
	_, _ = d.Write(key) // xxhash writes never fail
	return d
}

func (bf *bloomFilter) remember(key []byte) {
	bf.filter.Add(keyDigest(key))
}

// absent is true only for keys that were certainly never remembered.
func (bf *bloomFilter) absent(key []byte) bool {
	return !bf.filter.Contains(keyDigest(key))
}
