package keyvalue

import (
	"github.com/coocood/freecache"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

type pair struct {
	key      []byte
	value    []byte
	deletion bool
}

// Batch collects writes that are applied atomically by KeyVal.Flush.
type Batch struct {
	pairs []pair
}

func (b *Batch) Delete(key []byte) {
	keyCopy := make([]byte, len(key))
	copy(keyCopy, key)
	b.pairs = append(b.pairs, pair{key: keyCopy, deletion: true})
}

func (b *Batch) Put(key, val []byte) {
	valCopy := make([]byte, len(val))
	copy(valCopy, val)
	keyCopy := make([]byte, len(key))
	copy(keyCopy, key)
	b.pairs = append(b.pairs, pair{key: keyCopy, value: valCopy})
}

func (b *Batch) Len() int {
	return len(b.pairs)
}

func (b *Batch) leveldbBatch() *leveldb.Batch {
	leveldbBatch := new(leveldb.Batch)
	for _, pair := range b.pairs {
		if pair.deletion {
			leveldbBatch.Delete(pair.key)
		} else {
			leveldbBatch.Put(pair.key, pair.value)
		}
	}
	return leveldbBatch
}

func (b *Batch) Reset() {
	b.pairs = nil
}

// KeyVal is a leveldb store with a bloom filter in front of point lookups and an optional
// record cache. Get and Flush keep the cache coherent only when the caller serializes them.
type KeyVal struct {
	db     *leveldb.DB
	filter *bloomFilter
	cache  *freecache.Cache
}

// NewKeyVal opens or creates the store at path.
func NewKeyVal(path string, params Params) (*KeyVal, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{Strict: opt.DefaultStrict})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open leveldb at %q", path)
	}
	return newKeyVal(db, params)
}

// NewMemKeyVal creates an in-memory store, handy in tests.
func NewMemKeyVal(params Params) (*KeyVal, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open in-memory leveldb")
	}
	return newKeyVal(db, params)
}

func newKeyVal(db *leveldb.DB, params Params) (*KeyVal, error) {
	kv := &KeyVal{db: db}
	if params.CacheParams.Size > 0 {
		kv.cache = freecache.NewCache(params.CacheParams.Size)
	}
	if err := kv.initBloomFilter(params.BloomFilterParams); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to initialize bloom filter")
	}
	return kv, nil
}

func (k *KeyVal) initBloomFilter(params BloomFilterParams) error {
	if params.N <= 0 {
		return nil
	}
	filter, err := newBloomFilter(params)
	if err != nil {
		return err
	}
	iter := k.db.NewIterator(nil, nil)
	defer iter.Release()
	for iter.Next() {
		filter.remember(iter.Key())
	}
	if err := iter.Error(); err != nil {
		return err
	}
	k.filter = filter
	return nil
}

func (k *KeyVal) NewBatch() *Batch {
	return &Batch{}
}

func (k *KeyVal) Get(key []byte) ([]byte, error) {
	if k.cache != nil {
		if val, err := k.cache.Get(key); err == nil {
			return val, nil
		}
	}
	if k.filter != nil && k.filter.absent(key) {
		return nil, ErrNotFound
	}
	val, err := k.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if k.cache != nil {
		_ = k.cache.Set(key, val, 0) // too large values are just not cached
	}
	return val, nil
}

func (k *KeyVal) Has(key []byte) (bool, error) {
	if k.filter != nil && k.filter.absent(key) {
		return false, nil
	}
	return k.db.Has(key, nil)
}

// Flush atomically applies the batch and resets it.
func (k *KeyVal) Flush(b *Batch) error {
	if err := k.db.Write(b.leveldbBatch(), &opt.WriteOptions{Sync: true}); err != nil {
		return errors.Wrap(err, "failed to write batch")
	}
	for _, p := range b.pairs {
		if p.deletion {
			if k.cache != nil {
				k.cache.Del(p.key)
			}
			continue
		}
		if k.filter != nil {
			k.filter.remember(p.key)
		}
		if k.cache != nil {
			_ = k.cache.Set(p.key, p.value, 0)
		}
	}
	b.Reset()
	return nil
}

func (k *KeyVal) NewKeyIterator(prefix []byte) Iterator {
	if prefix != nil {
		return k.db.NewIterator(util.BytesPrefix(prefix), nil)
	}
	return k.db.NewIterator(nil, nil)
}

// NewSnapshot returns a consistent point-in-time view. It must be released.
func (k *KeyVal) NewSnapshot() (*Snapshot, error) {
	s, err := k.db.GetSnapshot()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get leveldb snapshot")
	}
	return &Snapshot{snap: s}, nil
}

func (k *KeyVal) Close() error {
	return k.db.Close()
}

type Snapshot struct {
	snap *leveldb.Snapshot
}

func (s *Snapshot) Get(key []byte) ([]byte, error) {
	val, err := s.snap.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	return val, err
}

func (s *Snapshot) Has(key []byte) (bool, error) {
	return s.snap.Has(key, nil)
}

func (s *Snapshot) NewKeyIterator(prefix []byte) Iterator {
	if prefix != nil {
		return s.snap.NewIterator(util.BytesPrefix(prefix), nil)
	}
	return s.snap.NewIterator(nil, nil)
}

func (s *Snapshot) Release() {
	s.snap.Release()
}
